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
	"github.com/spf13/cobra"
)

type cmdThemes struct {
	root   *rootCommand
	isJSON bool
}

type themeListing struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Default bool   `json:"default"`
}

func (c *cmdThemes) run(cmd *cobra.Command, _ []string) error {
	conf, err := c.root.config(cmd)
	if err != nil {
		return err
	}
	catalog, err := loadCatalog(c.root.globalState, conf)
	if err != nil {
		return err
	}

	listing := make([]themeListing, 0, len(catalog.Themes()))
	for _, t := range catalog.Themes() {
		listing = append(listing, themeListing{ID: t.ID, Name: t.Name, Default: t.ID == conf.DefaultTheme.String})
	}
	if c.isJSON {
		return printJSON(c.root.globalState.Stdout, listing)
	}

	p := newPrinter(c.root.globalState)
	tw := p.table()
	for _, t := range listing {
		marker, suffix := " ", ""
		if t.Default {
			marker, suffix = p.ok.Sprint("*"), " (default)"
		}
		_, _ = tw.Write([]byte(marker + " " + t.ID + "\t" + t.Name + suffix + "\n"))
	}
	return tw.Flush()
}

func getCmdThemes(root *rootCommand) *cobra.Command {
	c := &cmdThemes{root: root}

	cmd := &cobra.Command{
		Use:   "themes",
		Short: "List the available themes",
		Long:  `List the builtin themes and the ones loaded from the themes file.`,
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	cmd.Flags().BoolVar(&c.isJSON, "json", false, "print the themes as JSON")

	return cmd
}
