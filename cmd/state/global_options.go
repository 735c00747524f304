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

package state

import "path/filepath"

const defaultConfigFileName = "config.json"

// GlobalOptions contains global config values that apply for all themectl sub-commands.
type GlobalOptions struct {
	ConfigFilePath string
	NoColor        bool
	LogOutput      string
	LogFormat      string
	LogCategories  string
	Verbose        bool
}

// GetDefaultGlobalOptions returns the default global flags.
func GetDefaultGlobalOptions(configDir string) GlobalOptions {
	return GlobalOptions{
		ConfigFilePath: filepath.Join(configDir, "themectl", defaultConfigFileName),
		LogOutput:      "stderr",
		LogFormat:      "text",
	}
}

func consolidateGlobalFlags(defaultFlags GlobalOptions, env map[string]string) GlobalOptions {
	result := defaultFlags

	if val, ok := env["THEMECTL_CONFIG"]; ok {
		result.ConfigFilePath = val
	}
	if val, ok := env["THEMECTL_LOG_OUTPUT"]; ok {
		result.LogOutput = val
	}
	if val, ok := env["THEMECTL_LOG_FORMAT"]; ok {
		result.LogFormat = val
	}
	if val, ok := env["THEMECTL_LOG_CATEGORIES"]; ok {
		result.LogCategories = val
	}
	if env["THEMECTL_NO_COLOR"] != "" {
		result.NoColor = true
	}
	// Support https://no-color.org/, even an empty value should disable the
	// color output.
	if _, ok := env["NO_COLOR"]; ok {
		result.NoColor = true
	}
	if env["THEMECTL_VERBOSE"] != "" {
		result.Verbose = true
	}
	return result
}
