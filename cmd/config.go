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
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/mstoykov/envconfig"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"gopkg.in/guregu/null.v3"

	"github.com/codexthemes/themectl/cdp"
	"github.com/codexthemes/themectl/cmd/state"
	"github.com/codexthemes/themectl/errext"
	"github.com/codexthemes/themectl/errext/exitcodes"
	"github.com/codexthemes/themectl/launcher"
	"github.com/codexthemes/themectl/lib/types"
	"github.com/codexthemes/themectl/process"
	"github.com/codexthemes/themectl/theme"
)

const defaultRequestTimeout = 5 * time.Second

func configFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("", pflag.ContinueOnError)
	flags.SortFlags = false
	flags.String("app-path", launcher.DefaultAppPath, "app bundle opened by `launch` on macOS")
	flags.String("binary-path", process.DefaultBinaryPath, "app binary to look for in the process list")
	flags.String("themes-file", "", "YAML file with extra themes")
	flags.Int64("wait-attempts", cdp.DefaultWaitAttempts, "how many times to look for page targets")
	flags.Duration("wait-delay", cdp.DefaultWaitDelay, "delay between page target lookups")
	flags.Duration("request-timeout", defaultRequestTimeout, "timeout of a single discovery request or handshake")
	return flags
}

// Config is the themectl configuration. Every field is nullable so the
// configuration layers can be merged.
type Config struct {
	AppPath        null.String        `json:"appPath" envconfig:"THEMECTL_APP_PATH"`
	BinaryPath     null.String        `json:"binaryPath" envconfig:"THEMECTL_BINARY_PATH"`
	DefaultTheme   null.String        `json:"defaultTheme" envconfig:"THEMECTL_DEFAULT_THEME"`
	ThemesFile     null.String        `json:"themesFile" envconfig:"THEMECTL_THEMES_FILE"`
	WaitAttempts   null.Int           `json:"waitAttempts" envconfig:"THEMECTL_WAIT_ATTEMPTS"`
	WaitDelay      types.NullDuration `json:"waitDelay" envconfig:"THEMECTL_WAIT_DELAY"`
	LaunchPort     null.Int           `json:"launchPort" envconfig:"THEMECTL_LAUNCH_PORT"`
	RequestTimeout types.NullDuration `json:"requestTimeout" envconfig:"THEMECTL_REQUEST_TIMEOUT"`
}

// Apply overwrites the fields of c that are set in cfg.
func (c Config) Apply(cfg Config) Config {
	if cfg.AppPath.Valid {
		c.AppPath = cfg.AppPath
	}
	if cfg.BinaryPath.Valid {
		c.BinaryPath = cfg.BinaryPath
	}
	if cfg.DefaultTheme.Valid {
		c.DefaultTheme = cfg.DefaultTheme
	}
	if cfg.ThemesFile.Valid {
		c.ThemesFile = cfg.ThemesFile
	}
	if cfg.WaitAttempts.Valid {
		c.WaitAttempts = cfg.WaitAttempts
	}
	if cfg.WaitDelay.Valid {
		c.WaitDelay = cfg.WaitDelay
	}
	if cfg.LaunchPort.Valid {
		c.LaunchPort = cfg.LaunchPort
	}
	if cfg.RequestTimeout.Valid {
		c.RequestTimeout = cfg.RequestTimeout
	}
	return c
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if c.WaitAttempts.Int64 < 1 {
		errs = append(errs, fmt.Errorf("waitAttempts must be at least 1, got %d", c.WaitAttempts.Int64))
	}
	if c.WaitDelay.TimeDuration() < 0 {
		errs = append(errs, fmt.Errorf("waitDelay cannot be negative, got %s", c.WaitDelay))
	}
	if c.RequestTimeout.TimeDuration() <= 0 {
		errs = append(errs, fmt.Errorf("requestTimeout must be positive, got %s", c.RequestTimeout))
	}
	if err := launcher.ValidatePort(int(c.LaunchPort.Int64)); err != nil {
		errs = append(errs, fmt.Errorf("launchPort: %w", err))
	}
	if c.BinaryPath.String == "" {
		errs = append(errs, errors.New("binaryPath cannot be empty"))
	}
	return errors.Join(errs...)
}

// WaitPolicy returns the page target wait policy.
func (c Config) WaitPolicy() cdp.WaitPolicy {
	return cdp.WaitPolicy{MaxAttempts: int(c.WaitAttempts.Int64), Delay: c.WaitDelay.TimeDuration()}
}

func defaultConfig() Config {
	return Config{
		AppPath:        null.NewString(launcher.DefaultAppPath, false),
		BinaryPath:     null.NewString(process.DefaultBinaryPath, false),
		DefaultTheme:   null.NewString(theme.DefaultThemeID, false),
		WaitAttempts:   null.NewInt(cdp.DefaultWaitAttempts, false),
		WaitDelay:      types.NewNullDuration(cdp.DefaultWaitDelay, false),
		LaunchPort:     null.NewInt(launcher.DefaultPort, false),
		RequestTimeout: types.NewNullDuration(defaultRequestTimeout, false),
	}
}

// Gets configuration from CLI flags.
func getConfig(flags *pflag.FlagSet) Config {
	return Config{
		AppPath:        getNullString(flags, "app-path"),
		BinaryPath:     getNullString(flags, "binary-path"),
		ThemesFile:     getNullString(flags, "themes-file"),
		WaitAttempts:   getNullInt64(flags, "wait-attempts"),
		WaitDelay:      getNullDuration(flags, "wait-delay"),
		RequestTimeout: getNullDuration(flags, "request-timeout"),
	}
}

// Reads the JSON config file. A missing file is the same as an empty one.
func readDiskConfig(gs *state.GlobalState) (Config, error) {
	data, err := afero.ReadFile(gs.FS, gs.Flags.ConfigFilePath)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("couldn't load the configuration from %q: %w", gs.Flags.ConfigFilePath, err)
	}

	var conf Config
	if err := json.Unmarshal(data, &conf); err != nil {
		return Config{}, fmt.Errorf("couldn't parse the configuration from %q: %w", gs.Flags.ConfigFilePath, err)
	}
	return conf, nil
}

// Reads configuration variables from the environment.
func readEnvConfig(envMap map[string]string) (Config, error) {
	var conf Config
	err := envconfig.Process("", &conf, func(key string) (string, bool) {
		v, ok := envMap[key]
		return v, ok
	})
	return conf, err
}

// getConsolidatedConfig assembles the final configuration. Sources are
// layered, each one overriding the previous:
//   - defaults
//   - the JSON config file
//   - THEMECTL_* environment variables
//   - CLI flags
func getConsolidatedConfig(gs *state.GlobalState, cliConf Config) (Config, error) {
	fileConf, err := readDiskConfig(gs)
	if err != nil {
		return Config{}, errext.WithExitCodeIfNone(err, exitcodes.InvalidConfig)
	}
	envConf, err := readEnvConfig(gs.Env)
	if err != nil {
		return Config{}, errext.WithExitCodeIfNone(
			fmt.Errorf("invalid environment configuration: %w", err), exitcodes.InvalidConfig)
	}

	conf := defaultConfig().Apply(fileConf).Apply(envConf).Apply(cliConf)
	if err := conf.Validate(); err != nil {
		return Config{}, errext.WithExitCodeIfNone(
			errext.WithHint(err, "check the config file, the THEMECTL_* environment variables and the flags"),
			exitcodes.InvalidConfig)
	}
	return conf, nil
}
