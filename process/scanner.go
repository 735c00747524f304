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

// Package process finds running app instances and their debugging ports.
package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	null "gopkg.in/guregu/null.v3"

	"github.com/codexthemes/themectl/log"
)

const (
	psPath = "/bin/ps"

	// DefaultBinaryPath is where the app binary lives on macOS.
	DefaultBinaryPath = "/Applications/Codex.app/Contents/MacOS/Codex"

	portMarker = "--remote-debugging-port="
)

var (
	// ErrListingFailed is returned when ps could not be run or failed.
	ErrListingFailed = errors.New("listing processes failed")
	// ErrDecodeFailed is returned when the ps output is not valid UTF-8.
	ErrDecodeFailed = errors.New("decoding the process list failed")
)

// CommandOutput runs a command and returns its combined output.
type CommandOutput func(ctx context.Context, name string, args ...string) ([]byte, error)

func combinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput() //nolint:gosec
}

// Scanner lists the running instances of the binary at BinaryPath.
type Scanner struct {
	BinaryPath string
	Logger     *log.Logger

	output CommandOutput
}

// NewScanner returns a Scanner for binaryPath, or DefaultBinaryPath if it is
// empty.
func NewScanner(binaryPath string, logger *log.Logger) *Scanner {
	if binaryPath == "" {
		binaryPath = DefaultBinaryPath
	}
	return &Scanner{
		BinaryPath: binaryPath,
		Logger:     logger,
		output:     combinedOutput,
	}
}

// Scan runs ps and returns the matching instances sorted by pid.
func (s *Scanner) Scan(ctx context.Context) ([]Instance, error) {
	out, err := s.output(ctx, psPath, "-axo", "pid=,command=")
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var eerr *exec.ExitError
		if errors.As(err, &eerr) {
			msg := strings.TrimSpace(string(out))
			if msg == "" || !utf8.Valid(out) {
				msg = fmt.Sprintf("ps exited with code %d", eerr.ExitCode())
			}
			return nil, fmt.Errorf("%w: %s", ErrListingFailed, msg)
		}
		return nil, fmt.Errorf("%w: %w", ErrListingFailed, err)
	}
	if !utf8.Valid(out) {
		return nil, ErrDecodeFailed
	}

	instances := ParsePSOutput(string(out), s.BinaryPath)
	s.Logger.Debugf("process", "binary:%q instances:%d injectable:%d",
		s.BinaryPath, len(instances), len(Injectable(instances)))

	return instances, nil
}

// ParsePSOutput parses `ps -axo pid=,command=` output and keeps the lines
// whose command contains binaryPath, sorted by pid.
func ParsePSOutput(output, binaryPath string) []Instance {
	var instances []Instance
	sc := bufio.NewScanner(strings.NewReader(output))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if inst, ok := ParsePSLine(sc.Text(), binaryPath); ok {
			instances = append(instances, inst)
		}
	}
	sort.SliceStable(instances, func(i, j int) bool {
		return instances[i].PID < instances[j].PID
	})
	return instances
}

// ParsePSLine parses a single "<pid> <command>" line.
func ParsePSLine(line, binaryPath string) (Instance, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Instance{}, false
	}
	pidField, command, ok := strings.Cut(line, " ")
	if !ok {
		if pidField, command, ok = strings.Cut(line, "\t"); !ok {
			return Instance{}, false
		}
	}
	pid, err := strconv.Atoi(pidField)
	if err != nil {
		return Instance{}, false
	}
	command = strings.TrimSpace(command)
	if command == "" || !strings.Contains(command, binaryPath) {
		return Instance{}, false
	}

	return Instance{
		PID:                 pid,
		Command:             command,
		RemoteDebuggingPort: ExtractRemoteDebuggingPort(command),
	}, true
}

// ExtractRemoteDebuggingPort returns the digits following the first
// --remote-debugging-port= in command.
func ExtractRemoteDebuggingPort(command string) null.Int {
	_, rest, ok := strings.Cut(command, portMarker)
	if !ok {
		return null.Int{}
	}
	end := strings.IndexFunc(rest, func(r rune) bool { return r > unicode.MaxASCII || !unicode.IsDigit(r) })
	if end < 0 {
		end = len(rest)
	}
	port, err := strconv.ParseInt(rest[:end], 10, 64)
	if err != nil {
		return null.Int{}
	}
	return null.IntFrom(port)
}
