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
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codexthemes/themectl/controller"
	"github.com/codexthemes/themectl/errext"
	"github.com/codexthemes/themectl/errext/exitcodes"
)

// targetFlags select the instances a command works on.
type targetFlags struct {
	port int
	all  bool
}

func (f *targetFlags) register(cmd *cobra.Command, verb string) {
	cmd.Flags().IntVarP(&f.port, "port", "p", 0, verb+" only the instance listening on this debug port")
	cmd.Flags().BoolVarP(&f.all, "all", "a", false, verb+" every running instance with a debug port (default)")
}

func (f *targetFlags) validate() error {
	if f.all && f.port != 0 {
		return errext.WithExitCodeIfNone(errors.New("--port and --all cannot be used together"), exitcodes.InvalidConfig)
	}
	return nil
}

func partialFailure(verb string, sum controller.Summary) error {
	if sum.Failed == 0 {
		return nil
	}
	err := fmt.Errorf("%s %d/%d instance(s), first error: %w", verb, sum.Applied, sum.Total, sum.FirstError)
	return errext.WithExitCodeIfNone(err, exitcodes.PartialFailure)
}

type cmdApply struct {
	root *rootCommand
	targetFlags
}

func (c *cmdApply) run(cmd *cobra.Command, args []string) error {
	if err := c.validate(); err != nil {
		return err
	}
	conf, svc, err := c.root.setup(cmd)
	if err != nil {
		return err
	}

	themeID := conf.DefaultTheme.String
	if len(args) > 0 {
		themeID = args[0]
	}
	t, err := resolveTheme(svc.catalog, themeID)
	if err != nil {
		return err
	}
	name := t.Name
	ctx := c.root.globalState.Ctx
	p := newPrinter(c.root.globalState)

	if c.port != 0 {
		results, err := svc.controller.ApplyPort(ctx, c.port, themeID)
		if err != nil {
			return err
		}
		p.Printf("Applied %s to %d page target(s) on port %d.\n", p.em.Sprint(name), len(results), c.port)
		p.results(results)
		return nil
	}

	sum, err := svc.controller.ApplyAll(ctx, themeID)
	if err != nil {
		return err
	}
	if sum.Failed == 0 {
		p.Printf("Applied %s to %d instance(s).\n", p.em.Sprint(name), sum.Applied)
		return nil
	}
	p.Printf("Applied %s to %s instance(s).\n", p.em.Sprint(name), p.warn.Sprintf("%d/%d", sum.Applied, sum.Total))
	return partialFailure("applied "+name+" to", sum)
}

func getCmdApply(root *rootCommand) *cobra.Command {
	c := &cmdApply{root: root}

	cmd := &cobra.Command{
		Use:   "apply [theme]",
		Short: "Apply a theme to running instances",
		Long: `Apply a theme to every page of the running instances.

Without a theme argument the configured default theme is used. Without
--port the theme is applied to every instance that has a debug port, and a
failing instance does not stop the others.`,
		Example: `  # Apply the default theme everywhere
  themectl apply

  # Apply Nord to the instance listening on port 9222
  themectl apply --port 9222 nord`,
		Args: cobra.MaximumNArgs(1),
		RunE: c.run,
	}
	c.register(cmd, "theme")

	return cmd
}
