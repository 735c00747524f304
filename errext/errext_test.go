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
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codexthemes/themectl/errext/exitcodes"
)

func TestWithHint(t *testing.T) {
	t.Parallel()

	assert.Nil(t, WithHint(nil, "ignored"))

	base := errors.New("connection refused")
	err := WithHint(base, "check the port")
	assert.ErrorIs(t, err, base)

	var herr HasHint
	assert.True(t, errors.As(err, &herr))
	assert.Equal(t, "check the port", herr.Hint())

	wrapped := WithHint(fmt.Errorf("apply: %w", err), "is the app running?")
	assert.True(t, errors.As(wrapped, &herr))
	assert.Equal(t, "is the app running? (check the port)", herr.Hint())
}

func TestWithExitCodeIfNone(t *testing.T) {
	t.Parallel()

	assert.Nil(t, WithExitCodeIfNone(nil, exitcodes.ScanFailed))

	err := WithExitCodeIfNone(errors.New("ps failed"), exitcodes.ScanFailed)
	assert.Equal(t, exitcodes.ScanFailed, ExitCodeOf(err))

	again := WithExitCodeIfNone(err, exitcodes.InvalidConfig)
	assert.Equal(t, exitcodes.ScanFailed, ExitCodeOf(again))

	assert.Equal(t, exitcodes.GenericError, ExitCodeOf(errors.New("plain")))
}

func TestFormat(t *testing.T) {
	t.Parallel()

	msg, fields := Format(nil)
	assert.Empty(t, msg)
	assert.Nil(t, fields)

	msg, fields = Format(WithHint(errors.New("boom"), "try again"))
	assert.Equal(t, "boom", msg)
	assert.Equal(t, map[string]interface{}{"hint": "try again"}, fields)

	msg, fields = Format(errors.New("boom"))
	assert.Equal(t, "boom", msg)
	assert.Empty(t, fields)
}
