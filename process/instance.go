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

package process

import (
	null "gopkg.in/guregu/null.v3"
)

// Instance is a running app process.
type Instance struct {
	PID     int    `json:"pid"`
	Command string `json:"command"`

	// RemoteDebuggingPort is only valid if the process was started with
	// --remote-debugging-port.
	RemoteDebuggingPort null.Int `json:"remoteDebuggingPort"`
}

// Injectable reports whether themes can be applied to the instance.
func (i Instance) Injectable() bool {
	return i.RemoteDebuggingPort.Valid
}

// Port returns the debugging port, or 0 if there is none.
func (i Instance) Port() int {
	return int(i.RemoteDebuggingPort.ValueOrZero())
}

// Injectable returns the instances that have a debugging port, in order.
func Injectable(instances []Instance) []Instance {
	res := make([]Instance, 0, len(instances))
	for _, inst := range instances {
		if inst.Injectable() {
			res = append(res, inst)
		}
	}
	return res
}
