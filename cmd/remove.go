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

type cmdRemove struct {
	root *rootCommand
	targetFlags
}

func (c *cmdRemove) run(cmd *cobra.Command, _ []string) error {
	if err := c.validate(); err != nil {
		return err
	}
	_, svc, err := c.root.setup(cmd)
	if err != nil {
		return err
	}
	ctx := c.root.globalState.Ctx
	p := newPrinter(c.root.globalState)

	if c.port != 0 {
		results, err := svc.controller.RemovePort(ctx, c.port)
		if err != nil {
			return err
		}
		p.Printf("Removed the theme from %d page target(s) on port %d.\n", len(results), c.port)
		p.results(results)
		return nil
	}

	sum, err := svc.controller.RemoveAll(ctx)
	if err != nil {
		return err
	}
	if sum.Failed == 0 {
		p.Printf("Removed the theme from %d instance(s).\n", sum.Applied)
		return nil
	}
	p.Printf("Removed the theme from %s instance(s).\n", p.warn.Sprintf("%d/%d", sum.Applied, sum.Total))
	return partialFailure("removed the theme from", sum)
}

func getCmdRemove(root *rootCommand) *cobra.Command {
	c := &cmdRemove{root: root}

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove the injected theme",
		Long: `Remove the injected theme from the pages of running instances.

Pages without an injected theme are left untouched.`,
		Args: cobra.NoArgs,
		RunE: c.run,
	}
	c.register(cmd, "clean")

	return cmd
}
