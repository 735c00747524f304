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

package errext

import (
	"errors"

	"github.com/codexthemes/themectl/errext/exitcodes"
)

// HasExitCode is implemented by errors that decide the exit status of
// themectl when they reach main.
type HasExitCode interface {
	error
	ExitCode() exitcodes.ExitCode
}

// WithExitCodeIfNone tags err with code. The innermost code wins, so an
// error classified close to its source keeps its code as it travels up
// through cmd.
func WithExitCodeIfNone(err error, code exitcodes.ExitCode) error {
	if err == nil {
		return nil
	}
	if _, ok := exitCode(err); ok {
		return err
	}
	return codedError{err: err, code: code}
}

// ExitCodeOf returns the exit code carried by err, or
// exitcodes.GenericError for untagged errors.
func ExitCodeOf(err error) exitcodes.ExitCode {
	if code, ok := exitCode(err); ok {
		return code
	}
	return exitcodes.GenericError
}

func exitCode(err error) (exitcodes.ExitCode, bool) {
	var coded HasExitCode
	if !errors.As(err, &coded) {
		return 0, false
	}
	return coded.ExitCode(), true
}

type codedError struct {
	err  error
	code exitcodes.ExitCode
}

func (e codedError) Error() string                { return e.err.Error() }
func (e codedError) Unwrap() error                { return e.err }
func (e codedError) ExitCode() exitcodes.ExitCode { return e.code }

var _ HasExitCode = codedError{}
