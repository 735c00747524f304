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

	"github.com/spf13/cobra"

	"github.com/codexthemes/themectl/lib/consts"
)

type versionCmd struct {
	root   *rootCommand
	isJSON bool
}

func (c *versionCmd) run(cmd *cobra.Command, _ []string) error {
	if !c.isJSON {
		_, err := fmt.Fprintf(c.root.globalState.Stdout, "%s v%s\n", cmd.Root().Name(), consts.FullVersion())
		return err
	}

	jsonDetails, err := json.Marshal(consts.VersionInfo())
	if err != nil {
		return fmt.Errorf("failed produce a JSON version details: %w", err)
	}

	_, err = fmt.Fprintln(c.root.globalState.Stdout, string(jsonDetails))
	return err
}

func getCmdVersion(root *rootCommand) *cobra.Command {
	versionCmd := &versionCmd{root: root}

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show application version",
		Long:  `Show the application version and exit.`,
		Args:  cobra.NoArgs,
		RunE:  versionCmd.run,
	}

	cmd.Flags().BoolVar(&versionCmd.isJSON, "json", false, "if set, output version information will be in JSON format")

	return cmd
}
