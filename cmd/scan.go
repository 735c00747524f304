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
	"strconv"

	"github.com/spf13/cobra"
)

type cmdScan struct {
	root   *rootCommand
	isJSON bool
}

func (c *cmdScan) run(cmd *cobra.Command, _ []string) error {
	_, svc, err := c.root.setup(cmd)
	if err != nil {
		return err
	}

	instances, err := svc.controller.Scan(c.root.globalState.Ctx)
	if err != nil {
		return err
	}
	if c.isJSON {
		return printJSON(c.root.globalState.Stdout, instances)
	}

	p := newPrinter(c.root.globalState)
	if len(instances) == 0 {
		p.Printf("No running instances found.\n")
		return nil
	}

	injectable := 0
	tw := p.table()
	_, _ = tw.Write([]byte("PID\tPORT\tSTATUS\tCOMMAND\n"))
	for _, inst := range instances {
		port, status := "-", p.warn.Sprint("no debug port")
		if inst.Injectable() {
			injectable++
			port, status = strconv.Itoa(inst.Port()), p.ok.Sprint("injectable")
		}
		_, _ = tw.Write([]byte(strconv.Itoa(inst.PID) + "\t" + port + "\t" + status + "\t" + inst.Command + "\n"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	p.Printf("\nFound %d instance(s), %d injectable.\n", len(instances), injectable)
	return nil
}

func getCmdScan(root *rootCommand) *cobra.Command {
	c := &cmdScan{root: root}

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List running instances",
		Long: `List running app instances and whether they can be themed.

Only instances started with --remote-debugging-port can be themed.`,
		Args: cobra.NoArgs,
		RunE: c.run,
	}
	cmd.Flags().BoolVar(&c.isJSON, "json", false, "print the instances as JSON")

	return cmd
}
