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

// Package exitcodes contains the process exit codes used by themectl.
package exitcodes

// ExitCode is just a type representing a process exit code.
type ExitCode uint8

// list of exit codes used by themectl
const (
	GenericError   ExitCode = 1
	GoPanic        ExitCode = 103
	InvalidConfig  ExitCode = 104
	ExternalAbort  ExitCode = 105
	ScanFailed     ExitCode = 110
	LaunchFailed   ExitCode = 111
	Unreachable    ExitCode = 112
	NoPageTargets  ExitCode = 113
	ScriptRejected ExitCode = 114
	PartialFailure ExitCode = 115
)
