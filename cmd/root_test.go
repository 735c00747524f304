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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"

	"github.com/codexthemes/themectl/cdp"
	"github.com/codexthemes/themectl/cmd/state"
	"github.com/codexthemes/themectl/cmd/tests"
	"github.com/codexthemes/themectl/controller"
	"github.com/codexthemes/themectl/errext"
	"github.com/codexthemes/themectl/errext/exitcodes"
	"github.com/codexthemes/themectl/launcher"
	"github.com/codexthemes/themectl/lib/consts"
	"github.com/codexthemes/themectl/lib/testutils"
	"github.com/codexthemes/themectl/log"
	"github.com/codexthemes/themectl/process"
	"github.com/codexthemes/themectl/tests/ws"
	"github.com/codexthemes/themectl/theme"
)

type fakeScanner struct {
	instances []process.Instance
	err       error
}

func (f *fakeScanner) Scan(context.Context) ([]process.Instance, error) {
	return f.instances, f.err
}

type fakeLauncher struct {
	mu    sync.Mutex
	ports []int
	err   error
}

func (f *fakeLauncher) Launch(_ context.Context, port int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ports = append(f.ports, port)
	return f.err
}

// fakeServices talks CDP for real and fakes the process list and launches.
func fakeServices(sc controller.Scanner, l controller.Launcher) servicesFactory {
	return func(_ *state.GlobalState, conf Config, logger *log.Logger, catalog *theme.Catalog) *services {
		injector := cdp.NewInjector(nil, catalog, conf.WaitPolicy(), logger)
		return &services{
			catalog:    catalog,
			controller: controller.New(sc, injector, l, logger),
		}
	}
}

func run(ts *tests.GlobalTestState, svc servicesFactory, args ...string) {
	ts.CmdArgs = append([]string{"themectl"}, args...)
	c := newRootCommand(ts.GlobalState)
	if svc != nil {
		c.newServices = svc
	}
	c.execute()
}

func newCDPServer(t *testing.T) *ws.Server {
	t.Helper()
	return ws.NewServer(t,
		ws.WithTargets(
			ws.Target{ID: "main", Title: "Codex", Type: "page", WSPath: "/devtools/page/main"},
			ws.Target{ID: "sw", Type: "service_worker"},
		),
		ws.WithCDPHandler("/devtools/page/main", ws.CDPDefaultHandler, nil),
	)
}

// closedPort returns a port nothing listens on.
func closedPort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port //nolint:forcetypeassert
	require.NoError(t, l.Close())
	return port
}

func instance(pid, port int) process.Instance {
	i := process.Instance{PID: pid, Command: process.DefaultBinaryPath}
	if port > 0 {
		i.RemoteDebuggingPort = null.IntFrom(int64(port))
	}
	return i
}

func TestVersion(t *testing.T) {
	t.Parallel()

	t.Run("text", func(t *testing.T) {
		t.Parallel()

		ts := tests.NewGlobalTestState(t)
		run(ts, nil, "version")
		assert.Contains(t, ts.Stdout.String(), "themectl v"+consts.Version)
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		ts := tests.NewGlobalTestState(t)
		run(ts, nil, "version", "--json")

		var details map[string]string
		require.NoError(t, json.Unmarshal(ts.Stdout.Bytes(), &details))
		assert.Equal(t, consts.Version, details["version"])
	})
}

func TestThemes(t *testing.T) {
	t.Parallel()

	t.Run("builtin", func(t *testing.T) {
		t.Parallel()

		ts := tests.NewGlobalTestState(t)
		run(ts, nil, "themes")
		out := ts.Stdout.String()
		assert.Contains(t, out, "* darcula")
		assert.Contains(t, out, "(default)")
		for _, id := range []string{"dracula", "nord", "monokai"} {
			assert.Contains(t, out, id)
		}
	})

	t.Run("themes file and default from config", func(t *testing.T) {
		t.Parallel()

		ts := tests.NewGlobalTestState(t)
		require.NoError(t, afero.WriteFile(ts.FS, "/themes.yaml", []byte(`themes:
  - id: paper
    name: Paper
    css: "body { background: #fff !important; }"
`), 0o644))
		require.NoError(t, afero.WriteFile(ts.FS, ts.Flags.ConfigFilePath,
			[]byte(`{"defaultTheme":"paper"}`), 0o644))
		ts.Env["THEMECTL_THEMES_FILE"] = "/themes.yaml"

		run(ts, nil, "themes", "--json")

		var listing []themeListing
		require.NoError(t, json.Unmarshal(ts.Stdout.Bytes(), &listing))
		require.Len(t, listing, 5)
		assert.Equal(t, themeListing{ID: "paper", Name: "Paper", Default: true}, listing[4])
		assert.False(t, listing[0].Default)
	})

	t.Run("unknown default", func(t *testing.T) {
		t.Parallel()

		ts := tests.NewGlobalTestState(t)
		ts.ExpectedExitCode = int(exitcodes.InvalidConfig)
		ts.Env["THEMECTL_DEFAULT_THEME"] = "solarized"

		run(ts, nil, "themes")
		entries := ts.LoggerHook.Drain()
		require.True(t, testutils.LogContains(entries, logrus.ErrorLevel, `unknown theme "solarized"`))
		assert.Equal(t, themesHint, entries[len(entries)-1].Data["hint"])
	})
}

func TestScan(t *testing.T) {
	t.Parallel()

	sc := &fakeScanner{instances: []process.Instance{instance(101, 9222), instance(102, 0)}}

	t.Run("table", func(t *testing.T) {
		t.Parallel()

		ts := tests.NewGlobalTestState(t)
		run(ts, fakeServices(sc, &fakeLauncher{}), "scan")
		out := ts.Stdout.String()
		assert.Contains(t, out, "PID")
		assert.Regexp(t, `101\s+9222\s+injectable`, out)
		assert.Regexp(t, `102\s+-\s+no debug port`, out)
		assert.Contains(t, out, "Found 2 instance(s), 1 injectable.")
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		ts := tests.NewGlobalTestState(t)
		run(ts, fakeServices(sc, &fakeLauncher{}), "scan", "--json")
		assert.JSONEq(t, `[
			{"pid":101,"command":"/Applications/Codex.app/Contents/MacOS/Codex","remoteDebuggingPort":9222},
			{"pid":102,"command":"/Applications/Codex.app/Contents/MacOS/Codex","remoteDebuggingPort":null}
		]`, ts.Stdout.String())
	})

	t.Run("failure", func(t *testing.T) {
		t.Parallel()

		ts := tests.NewGlobalTestState(t)
		ts.ExpectedExitCode = int(exitcodes.ScanFailed)
		failing := &fakeScanner{err: fmt.Errorf("%w: ps exited with code 1", process.ErrListingFailed)}
		run(ts, fakeServices(failing, &fakeLauncher{}), "scan")
	})
}

func TestApply(t *testing.T) {
	t.Parallel()

	t.Run("single port", func(t *testing.T) {
		t.Parallel()

		server := newCDPServer(t)
		ts := tests.NewGlobalTestState(t)
		run(ts, fakeServices(&fakeScanner{}, &fakeLauncher{}), "apply", "--port", strconv.Itoa(server.Port()), "nord")

		out := ts.Stdout.String()
		assert.Contains(t, out, fmt.Sprintf("Applied Nord to 1 page target(s) on port %d.", server.Port()))
		assert.Contains(t, out, "Codex [main]")
	})

	t.Run("all instances", func(t *testing.T) {
		t.Parallel()

		server := newCDPServer(t)
		sc := &fakeScanner{instances: []process.Instance{instance(7, server.Port()), instance(8, 0)}}
		ts := tests.NewGlobalTestState(t)
		run(ts, fakeServices(sc, &fakeLauncher{}), "apply")

		assert.Contains(t, ts.Stdout.String(), "Applied Darcula to 1 instance(s).")
	})

	t.Run("partial failure", func(t *testing.T) {
		t.Parallel()

		server := newCDPServer(t)
		sc := &fakeScanner{instances: []process.Instance{instance(7, server.Port()), instance(9, closedPort(t))}}
		ts := tests.NewGlobalTestState(t)
		ts.ExpectedExitCode = int(exitcodes.PartialFailure)
		run(ts, fakeServices(sc, &fakeLauncher{}), "apply", "--wait-attempts", "1", "dracula")

		assert.Contains(t, ts.Stdout.String(), "Applied Dracula to 1/2 instance(s).")
		assert.True(t, testutils.LogContains(ts.LoggerHook.Drain(), logrus.ErrorLevel, "first error: pid 9: CDP request failed"))
	})

	t.Run("no page targets", func(t *testing.T) {
		t.Parallel()

		server := ws.NewServer(t, ws.WithTargets(ws.Target{ID: "w", Type: "worker"}))
		ts := tests.NewGlobalTestState(t)
		ts.ExpectedExitCode = int(exitcodes.NoPageTargets)
		run(ts, fakeServices(&fakeScanner{}, &fakeLauncher{}),
			"apply", "--wait-attempts", "2", "--wait-delay", "1ms", "--port", strconv.Itoa(server.Port()))

		entries := ts.LoggerHook.Drain()
		require.True(t, testutils.LogContains(entries, logrus.ErrorLevel, "no active page targets found for this instance"))
		assert.Equal(t, (&cdp.Error{Kind: cdp.KindNoPageTargets}).Hint(), entries[len(entries)-1].Data["hint"])
	})

	t.Run("nothing injectable", func(t *testing.T) {
		t.Parallel()

		ts := tests.NewGlobalTestState(t)
		ts.ExpectedExitCode = int(exitcodes.Unreachable)
		run(ts, fakeServices(&fakeScanner{instances: []process.Instance{instance(8, 0)}}, &fakeLauncher{}), "apply")
	})

	t.Run("unknown theme", func(t *testing.T) {
		t.Parallel()

		ts := tests.NewGlobalTestState(t)
		ts.ExpectedExitCode = int(exitcodes.InvalidConfig)
		run(ts, fakeServices(&fakeScanner{}, &fakeLauncher{}), "apply", "--port", "9222", "solarized")
		assert.True(t, testutils.LogContains(ts.LoggerHook.Drain(), logrus.ErrorLevel, `unknown theme "solarized"`))
	})

	t.Run("port and all", func(t *testing.T) {
		t.Parallel()

		ts := tests.NewGlobalTestState(t)
		ts.ExpectedExitCode = int(exitcodes.InvalidConfig)
		run(ts, fakeServices(&fakeScanner{}, &fakeLauncher{}), "apply", "--port", "9222", "--all")
	})
}

func TestRemove(t *testing.T) {
	t.Parallel()

	server := newCDPServer(t)
	ts := tests.NewGlobalTestState(t)
	run(ts, fakeServices(&fakeScanner{}, &fakeLauncher{}), "remove", "--port", strconv.Itoa(server.Port()))

	assert.Contains(t, ts.Stdout.String(),
		fmt.Sprintf("Removed the theme from 1 page target(s) on port %d.", server.Port()))
}

func TestLaunch(t *testing.T) {
	t.Parallel()

	t.Run("launches and applies", func(t *testing.T) {
		t.Parallel()

		server := newCDPServer(t)
		l := &fakeLauncher{}
		ts := tests.NewGlobalTestState(t)
		ts.Env["THEMECTL_LAUNCH_PORT"] = strconv.Itoa(server.Port())
		run(ts, fakeServices(&fakeScanner{}, l), "launch", "--theme", "monokai")

		assert.Equal(t, []int{server.Port()}, l.ports)
		assert.Contains(t, ts.Stdout.String(), "Launched and applied Monokai to 1 page target(s)")
	})

	t.Run("launch fails", func(t *testing.T) {
		t.Parallel()

		l := &fakeLauncher{err: fmt.Errorf("%w: open exited with code 1", launcher.ErrLaunchFailed)}
		ts := tests.NewGlobalTestState(t)
		ts.ExpectedExitCode = int(exitcodes.LaunchFailed)
		run(ts, fakeServices(&fakeScanner{}, l), "launch", "--port", "9333")

		assert.Equal(t, []int{9333}, l.ports)
	})
}

func TestLogOutputAndFormat(t *testing.T) {
	t.Parallel()

	t.Run("json errors on stdout", func(t *testing.T) {
		t.Parallel()

		ts := tests.NewGlobalTestState(t)
		ts.ExpectedExitCode = int(exitcodes.InvalidConfig)
		run(ts, nil, "--log-output", "stdout", "--log-format", "json", "apply", "--port", "1", "--all")

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(ts.Stdout.Bytes(), &entry))
		assert.Equal(t, "error", entry["level"])
		assert.Equal(t, "--port and --all cannot be used together", entry["msg"])
	})

	t.Run("unsupported output", func(t *testing.T) {
		t.Parallel()

		ts := tests.NewGlobalTestState(t)
		ts.ExpectedExitCode = int(exitcodes.InvalidConfig)
		run(ts, nil, "--log-output", "loki", "themes")
	})
}

func TestClassify(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		err  error
		code exitcodes.ExitCode
	}{
		{err: context.Canceled, code: exitcodes.ExternalAbort},
		{err: controller.ErrSuperseded, code: exitcodes.ExternalAbort},
		{err: fmt.Errorf("%w %q", theme.ErrUnknownTheme, "x"), code: exitcodes.InvalidConfig},
		{err: process.ErrDecodeFailed, code: exitcodes.ScanFailed},
		{err: launcher.ErrLaunchFailed, code: exitcodes.LaunchFailed},
		{err: controller.ErrNoInjectableInstances, code: exitcodes.Unreachable},
		{err: &cdp.Error{Kind: cdp.KindBadEndpoint}, code: exitcodes.InvalidConfig},
		{err: &cdp.Error{Kind: cdp.KindRequestFailed}, code: exitcodes.Unreachable},
		{err: &cdp.Error{Kind: cdp.KindMalformedResponse}, code: exitcodes.Unreachable},
		{err: &cdp.Error{Kind: cdp.KindNoPageTargets}, code: exitcodes.NoPageTargets},
		{err: fmt.Errorf("pid 3: %w", &cdp.Error{Kind: cdp.KindDuplexError}), code: exitcodes.ScriptRejected},
		{err: errors.New("boom"), code: exitcodes.GenericError},
		{err: errext.WithExitCodeIfNone(context.Canceled, exitcodes.PartialFailure), code: exitcodes.PartialFailure},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.err.Error(), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.code, errext.ExitCodeOf(classify(tc.err)))
		})
	}
	assert.NoError(t, classify(nil))

	var hinted errext.HasHint
	unknown := fmt.Errorf("%w %q", theme.ErrUnknownTheme, "x")
	require.ErrorAs(t, classify(unknown), &hinted)
	assert.Equal(t, themesHint, hinted.Hint())

	require.ErrorAs(t, classify(errext.WithHint(unknown, themesHint)), &hinted)
	assert.Equal(t, themesHint, hinted.Hint())

	require.ErrorAs(t, classify(errext.WithHint(controller.ErrNoDebugPort, "custom")), &hinted)
	assert.Equal(t, "custom", hinted.Hint())
}
