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

// Package errext contains helpers for attaching hints and exit codes to
// errors, and for rendering them for the user.
package errext

import "errors"

// Format formats the given error as a message and a map of log fields. A
// [HasHint] contributes a "hint" field.
func Format(err error) (string, map[string]interface{}) {
	if err == nil {
		return "", nil
	}

	fields := make(map[string]interface{})
	var herr HasHint
	if errors.As(err, &herr) && herr.Hint() != "" {
		fields["hint"] = herr.Hint()
	}

	return err.Error(), fields
}
