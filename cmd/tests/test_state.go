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

// Package tests contains helpers for end-to-end tests of the CLI.
package tests

import (
	"bytes"
	"context"
	"os/signal"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"

	"github.com/codexthemes/themectl/cmd/state"
	"github.com/codexthemes/themectl/lib/testutils"
)

// GlobalTestState is a wrapper around GlobalState for use in tests.
type GlobalTestState struct {
	*state.GlobalState
	Cancel func()

	Stdout, Stderr *bytes.Buffer
	LoggerHook     *testutils.SimpleLogrusHook

	ExpectedExitCode int
}

// NewGlobalTestState returns an initialized GlobalTestState, mocking all
// GlobalState fields for use in tests. The config file lives in an in-memory
// filesystem.
func NewGlobalTestState(tb testing.TB) *GlobalTestState {
	ctx, cancel := context.WithCancel(context.Background())
	tb.Cleanup(cancel)

	logger, hook := testutils.NewLogger(tb)
	logger.SetLevel(logrus.InfoLevel)

	ts := &GlobalTestState{
		Cancel:     cancel,
		Stdout:     new(bytes.Buffer),
		Stderr:     new(bytes.Buffer),
		LoggerHook: hook,
	}

	outMutex := &sync.Mutex{}
	defaultFlags := state.GetDefaultGlobalOptions("/home/tester/.config")
	ts.GlobalState = &state.GlobalState{
		Ctx:          ctx,
		FS:           afero.NewMemMapFs(),
		Getwd:        func() (string, error) { return "/home/tester", nil },
		BinaryName:   "themectl",
		CmdArgs:      []string{},
		Env:          map[string]string{},
		DefaultFlags: defaultFlags,
		Flags:        defaultFlags,
		OutMutex:     outMutex,
		Stdout:       &state.ConsoleWriter{RawOut: ts.Stdout, Mutex: outMutex, Writer: ts.Stdout},
		Stderr:       &state.ConsoleWriter{RawOut: ts.Stderr, Mutex: outMutex, Writer: ts.Stderr},
		Stdin:        new(bytes.Buffer),
		OSExit: func(code int) {
			if ts.ExpectedExitCode >= 0 {
				assert.Equal(tb, ts.ExpectedExitCode, code, "stderr: %s", ts.Stderr.String())
			}
		},
		SignalNotify: signal.Notify,
		SignalStop:   signal.Stop,
		Logger:       logger,
	}

	return ts
}
