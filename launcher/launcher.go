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

// Package launcher starts app instances with remote debugging enabled.
package launcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/codexthemes/themectl/log"
)

const (
	openPath = "/usr/bin/open"

	// DefaultAppPath is the app bundle opened on macOS.
	DefaultAppPath = "/Applications/Codex.app"
	// DefaultPort is the debugging port used when none is given.
	DefaultPort = 9222
)

// ErrLaunchFailed is returned when the app could not be started.
var ErrLaunchFailed = errors.New("launch failed")

// Launcher starts the app with --remote-debugging-port set.
type Launcher struct {
	AppPath    string
	BinaryPath string
	Logger     *log.Logger

	goos  string
	run   func(ctx context.Context, name string, args ...string) error
	start func(name string, args ...string) error
}

// New returns a Launcher for the current OS.
func New(appPath, binaryPath string, logger *log.Logger) *Launcher {
	if appPath == "" {
		appPath = DefaultAppPath
	}
	return &Launcher{
		AppPath:    appPath,
		BinaryPath: binaryPath,
		Logger:     logger,
		goos:       runtime.GOOS,
		run:        run,
		start:      startDetached,
	}
}

// Launch starts a new app instance listening for debuggers on port. On macOS
// it waits for `open` to return, elsewhere it returns once the binary has
// been started.
func (l *Launcher) Launch(ctx context.Context, port int) error {
	if err := ValidatePort(port); err != nil {
		return err
	}
	portArg := fmt.Sprintf("--remote-debugging-port=%d", port)

	if l.goos == "darwin" {
		l.Logger.Debugf("launcher", "open -na %s --args %s", l.AppPath, portArg)
		return l.run(ctx, openPath, "-na", l.AppPath, "--args", portArg)
	}

	if l.BinaryPath == "" {
		return fmt.Errorf("%w: no binary path configured for %s", ErrLaunchFailed, l.goos)
	}
	l.Logger.Debugf("launcher", "%s %s", l.BinaryPath, portArg)
	return l.start(l.BinaryPath, portArg)
}

// ValidatePort checks that port can be used for remote debugging.
func ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid debug port %d", port)
	}
	return nil
}

// run executes name and waits for it. A non-zero exit is reported with the
// command's stderr, or its exit code when stderr is empty.
func run(ctx context.Context, name string, args ...string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	var eerr *exec.ExitError
	if errors.As(err, &eerr) {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = fmt.Sprintf("%s exited with code %d", filepath.Base(name), eerr.ExitCode())
		}
		return fmt.Errorf("%w: %s", ErrLaunchFailed, msg)
	}
	return fmt.Errorf("%w: %w", ErrLaunchFailed, err)
}

// startDetached starts name without waiting for it to exit.
func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...) //nolint:gosec
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %w", ErrLaunchFailed, err)
	}
	return cmd.Process.Release()
}
