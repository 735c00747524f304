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
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"

	"github.com/codexthemes/themectl/cdp"
	"github.com/codexthemes/themectl/cmd/tests"
	"github.com/codexthemes/themectl/errext"
	"github.com/codexthemes/themectl/errext/exitcodes"
	"github.com/codexthemes/themectl/lib/types"
)

func TestConfigDefaults(t *testing.T) {
	t.Parallel()

	ts := tests.NewGlobalTestState(t)
	conf, err := getConsolidatedConfig(ts.GlobalState, Config{})
	require.NoError(t, err)

	assert.Equal(t, "/Applications/Codex.app", conf.AppPath.String)
	assert.Equal(t, "/Applications/Codex.app/Contents/MacOS/Codex", conf.BinaryPath.String)
	assert.Equal(t, "darcula", conf.DefaultTheme.String)
	assert.Equal(t, cdp.DefaultWaitPolicy(), conf.WaitPolicy())
	assert.EqualValues(t, 9222, conf.LaunchPort.Int64)
	assert.Equal(t, 5*time.Second, conf.RequestTimeout.TimeDuration())
	assert.False(t, conf.DefaultTheme.Valid, "defaults are not set values")
}

func TestConfigConsolidation(t *testing.T) {
	t.Parallel()

	ts := tests.NewGlobalTestState(t)
	require.NoError(t, afero.WriteFile(ts.FS, ts.Flags.ConfigFilePath, []byte(`{
		"defaultTheme": "nord",
		"waitAttempts": 3,
		"waitDelay": "1s",
		"launchPort": 9500,
		"binaryPath": "/opt/codex/codex"
	}`), 0o644))
	ts.Env["THEMECTL_WAIT_ATTEMPTS"] = "7"
	ts.Env["THEMECTL_WAIT_DELAY"] = "100"
	ts.Env["THEMECTL_DEFAULT_THEME"] = "monokai"

	cli := Config{DefaultTheme: null.StringFrom("dracula")}
	conf, err := getConsolidatedConfig(ts.GlobalState, cli)
	require.NoError(t, err)

	assert.Equal(t, "dracula", conf.DefaultTheme.String, "flags win")
	assert.EqualValues(t, 7, conf.WaitAttempts.Int64, "env beats the file")
	assert.Equal(t, 100*time.Millisecond, conf.WaitDelay.TimeDuration(), "bare numbers are milliseconds")
	assert.EqualValues(t, 9500, conf.LaunchPort.Int64, "file beats the defaults")
	assert.Equal(t, "/opt/codex/codex", conf.BinaryPath.String)
}

func TestConfigFromFlags(t *testing.T) {
	t.Parallel()

	flags := configFlagSet()
	require.NoError(t, flags.Parse([]string{"--wait-attempts", "2", "--wait-delay", "10ms"}))

	conf := getConfig(flags)
	assert.Equal(t, null.IntFrom(2), conf.WaitAttempts)
	assert.Equal(t, types.NullDurationFrom(10*time.Millisecond), conf.WaitDelay)
	assert.False(t, conf.BinaryPath.Valid)
	assert.False(t, conf.RequestTimeout.Valid)
}

func TestConfigErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name, file string
		env        map[string]string
		expErr     string
	}{
		{name: "bad json", file: `{"waitAttempts":`, expErr: "couldn't parse the configuration"},
		{name: "bad env", env: map[string]string{"THEMECTL_WAIT_ATTEMPTS": "many"}, expErr: "invalid environment configuration"},
		{name: "zero attempts", file: `{"waitAttempts": 0}`, expErr: "waitAttempts must be at least 1, got 0"},
		{name: "bad port", env: map[string]string{"THEMECTL_LAUNCH_PORT": "99999"}, expErr: "launchPort: invalid debug port 99999"},
		{name: "zero timeout", file: `{"requestTimeout": "0s"}`, expErr: "requestTimeout must be positive"},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ts := tests.NewGlobalTestState(t)
			if tc.file != "" {
				require.NoError(t, afero.WriteFile(ts.FS, ts.Flags.ConfigFilePath, []byte(tc.file), 0o644))
			}
			for k, v := range tc.env {
				ts.Env[k] = v
			}

			_, err := getConsolidatedConfig(ts.GlobalState, Config{})
			require.ErrorContains(t, err, tc.expErr)
			assert.Equal(t, exitcodes.InvalidConfig, errext.ExitCodeOf(err))
		})
	}
}
