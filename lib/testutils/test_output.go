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

package testutils

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
)

type testOutput struct{ testing.TB }

func (to testOutput) Write(p []byte) (n int, err error) {
	to.Logf("%s", p)

	return len(p), nil
}

// NewTestOutput returns an io.Writer that forwards to t.Logf.
func NewTestOutput(t testing.TB) io.Writer {
	return testOutput{t}
}

// NewLogger returns a debug level logrus logger writing to t.Logf and a hook
// capturing its entries.
func NewLogger(t testing.TB) (*logrus.Logger, *SimpleLogrusHook) {
	l := logrus.New()
	l.SetOutput(NewTestOutput(t))
	l.SetLevel(logrus.DebugLevel)
	hook := NewLogHook()
	l.AddHook(hook)

	return l, hook
}
