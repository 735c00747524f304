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

// Package state contains the types and functionality used for keeping track
// of cmd-related values that are used globally throughout themectl.
package state

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// ConsoleWriter is a synchronized writer to a terminal or a pipe.
type ConsoleWriter struct {
	RawOut io.Writer
	Mutex  *sync.Mutex
	Writer io.Writer
	IsTTY  bool
}

func (w *ConsoleWriter) Write(p []byte) (n int, err error) {
	w.Mutex.Lock()
	defer w.Mutex.Unlock()
	return w.Writer.Write(p)
}

// GlobalState contains the GlobalOptions and accessors for most of the global
// process-external state like CLI arguments, env vars, standard input, output
// and error, etc. In practice, most of it is normally accessed through the
// `os` package from the Go stdlib.
//
// We group them here so we can prevent direct access to them from the rest of
// the codebase. This gives us the ability to mock them and have robust and
// easy-to-write integration-like tests to check the themectl end-to-end
// behavior in any simulated conditions.
type GlobalState struct {
	Ctx context.Context

	FS         afero.Fs
	Getwd      func() (string, error)
	BinaryName string
	CmdArgs    []string
	Env        map[string]string

	DefaultFlags, Flags GlobalOptions

	OutMutex *sync.Mutex
	Stdout   *ConsoleWriter
	Stderr   *ConsoleWriter
	Stdin    io.Reader

	OSExit       func(int)
	SignalNotify func(chan<- os.Signal, ...os.Signal)
	SignalStop   func(chan<- os.Signal)

	Logger *logrus.Logger
}

// NewGlobalState returns a new GlobalState with the given ctx.
// Ideally, this should be the only function in the whole codebase where we use
// global variables and functions from the os package. Anywhere else, things
// like os.Stdout, os.Stderr, os.Stdin, os.Getenv(), etc. should be removed and
// the respective properties of globalState used instead.
func NewGlobalState(ctx context.Context) *GlobalState {
	isDumbTerm := os.Getenv("TERM") == "dumb"
	stdoutTTY := !isDumbTerm && (isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()))
	stderrTTY := !isDumbTerm && (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()))
	outMutex := &sync.Mutex{}
	stdout := &ConsoleWriter{
		RawOut: os.Stdout,
		Mutex:  outMutex,
		Writer: colorable.NewColorable(os.Stdout),
		IsTTY:  stdoutTTY,
	}
	stderr := &ConsoleWriter{
		RawOut: os.Stderr,
		Mutex:  outMutex,
		Writer: colorable.NewColorable(os.Stderr),
		IsTTY:  stderrTTY,
	}

	env := BuildEnvMap(os.Environ())
	_, noColorsSet := env["NO_COLOR"] // even empty values disable colors
	logger := &logrus.Logger{
		Out: stderr,
		Formatter: &logrus.TextFormatter{
			ForceColors:   stderrTTY,
			DisableColors: !stderrTTY || noColorsSet || env["THEMECTL_NO_COLOR"] != "",
		},
		Hooks: make(logrus.LevelHooks),
		Level: logrus.InfoLevel,
	}

	confDir, err := os.UserConfigDir()
	if err != nil {
		logger.WithError(err).Warn("could not get config directory")
		confDir = ".config"
	}

	defaultFlags := GetDefaultGlobalOptions(confDir)
	globalFlags := consolidateGlobalFlags(defaultFlags, env)

	return &GlobalState{
		Ctx:          ctx,
		FS:           afero.NewOsFs(),
		Getwd:        os.Getwd,
		BinaryName:   filepath.Base(os.Args[0]),
		CmdArgs:      os.Args,
		Env:          env,
		DefaultFlags: defaultFlags,
		Flags:        globalFlags,
		OutMutex:     outMutex,
		Stdout:       stdout,
		Stderr:       stderr,
		Stdin:        os.Stdin,
		OSExit:       os.Exit,
		SignalNotify: signal.Notify,
		SignalStop:   signal.Stop,
		Logger:       logger,
	}
}

// BuildEnvMap returns a map from raw environment variables, such as returned
// from os.Environ().
func BuildEnvMap(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		k, v, _ := strings.Cut(kv, "=")
		env[k] = v
	}
	return env
}
