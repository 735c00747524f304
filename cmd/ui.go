/*
 *
 * themectl - theme injection for Chromium-based desktop apps
 * Copyright (C) 2026 The themectl Authors
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as
 * published by the Free Software Foundation, either version 3 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/codexthemes/themectl/cdp"
	"github.com/codexthemes/themectl/cmd/state"
)

func getColor(noColor bool, attributes ...color.Attribute) *color.Color {
	if noColor {
		c := color.New()
		c.DisableColor()
		return c
	}

	c := color.New(attributes...)
	c.EnableColor()
	return c
}

type printer struct {
	out                *state.ConsoleWriter
	ok, warn, fail, em *color.Color
}

func newPrinter(gs *state.GlobalState) *printer {
	noColor := gs.Flags.NoColor || !gs.Stdout.IsTTY
	return &printer{
		out:  gs.Stdout,
		ok:   getColor(noColor, color.FgGreen),
		warn: getColor(noColor, color.FgYellow),
		fail: getColor(noColor, color.FgRed),
		em:   getColor(noColor, color.Bold),
	}
}

func (p *printer) Printf(format string, a ...interface{}) {
	_, _ = fmt.Fprintf(p.out, format, a...)
}

func (p *printer) table() *tabwriter.Writer {
	return tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
}

func (p *printer) results(results []cdp.InjectionResult) {
	for _, r := range results {
		title := r.TargetTitle
		if title == "" {
			title = "(untitled)"
		}
		p.Printf("  %s %s %s\n", p.ok.Sprint("✓"), title, p.em.Sprintf("[%s]", r.TargetID))
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
