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

type cmdLaunch struct {
	root    *rootCommand
	themeID string
}

func (c *cmdLaunch) run(cmd *cobra.Command, _ []string) error {
	conf, svc, err := c.root.setup(cmd)
	if err != nil {
		return err
	}

	port := int(conf.LaunchPort.Int64)
	if cmd.Flags().Changed("port") {
		port, err = cmd.Flags().GetInt("port")
		if err != nil {
			return err
		}
	}
	themeID := conf.DefaultTheme.String
	if c.themeID != "" {
		themeID = c.themeID
	}
	t, err := resolveTheme(svc.catalog, themeID)
	if err != nil {
		return err
	}
	name := t.Name

	p := newPrinter(c.root.globalState)
	p.Printf("Launching on port %d...\n", port)
	results, err := svc.controller.LaunchAndApply(c.root.globalState.Ctx, port, themeID)
	if err != nil {
		return err
	}
	p.Printf("Launched and applied %s to %d page target(s) on port %d.\n", p.em.Sprint(name), len(results), port)
	p.results(results)
	return nil
}

func getCmdLaunch(root *rootCommand) *cobra.Command {
	c := &cmdLaunch{root: root}

	cmd := &cobra.Command{
		Use:   "launch",
		Short: "Start a new instance with a debug port and theme it",
		Long: `Start a new app instance with --remote-debugging-port set, wait for its
window to load and apply a theme to it.`,
		Args: cobra.NoArgs,
		RunE: c.run,
	}
	cmd.Flags().IntP("port", "p", 0, "debug port of the new instance (default from launchPort)")
	cmd.Flags().StringVarP(&c.themeID, "theme", "t", "", "theme to apply (default from defaultTheme)")

	return cmd
}
