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

package cdp

import (
	"errors"
	"fmt"
)

// ErrorKind tags the CDP failure modes callers need to tell apart.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindBadEndpoint means the discovery URL could not be built.
	KindBadEndpoint
	// KindRequestFailed means the discovery HTTP call failed.
	KindRequestFailed
	// KindMalformedResponse means a payload on the discovery or the
	// websocket channel did not have the expected shape.
	KindMalformedResponse
	// KindNoPageTargets means no eligible page target was found.
	KindNoPageTargets
	// KindDuplexError means the page reported an RPC error or the websocket
	// transport failed.
	KindDuplexError
)

func (k ErrorKind) String() string {
	switch k {
	case KindBadEndpoint:
		return "bad-endpoint"
	case KindRequestFailed:
		return "request-failed"
	case KindMalformedResponse:
		return "malformed-response"
	case KindNoPageTargets:
		return "no-page-targets"
	case KindDuplexError:
		return "duplex-error"
	default:
		return "unknown"
	}
}

// Error is the error type returned by this package.
type Error struct {
	Kind   ErrorKind
	Reason string
	Err    error
}

// ErrNoPageTargets matches any error of kind KindNoPageTargets with errors.Is.
var ErrNoPageTargets = &Error{Kind: KindNoPageTargets} //nolint:gochecknoglobals

func (e *Error) Error() string {
	switch e.Kind {
	case KindBadEndpoint:
		if e.Reason != "" {
			return "invalid CDP endpoint URL: " + e.Reason
		}
		return "invalid CDP endpoint URL"
	case KindRequestFailed:
		return "CDP request failed: " + e.Reason
	case KindMalformedResponse:
		if e.Reason != "" {
			return "malformed response from CDP target: " + e.Reason
		}
		return "malformed response from CDP target"
	case KindNoPageTargets:
		return "no active page targets found for this instance"
	case KindDuplexError:
		return "CDP websocket failed: " + e.Reason
	default:
		return fmt.Sprintf("CDP error: %s", e.Reason)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind. A target without a reason
// matches any reason.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Reason == "" || t.Reason == e.Reason)
}

// Hint returns the suggested remediation for the failure.
func (e *Error) Hint() string {
	switch e.Kind {
	case KindBadEndpoint:
		return "use a debug port between 1 and 65535"
	case KindRequestFailed:
		return "make sure the app is running with --remote-debugging-port set to this port"
	case KindMalformedResponse:
		return "the port does not look like a DevTools endpoint, check the port number"
	case KindNoPageTargets:
		return "the app has no open page yet, wait for its window to load and retry"
	case KindDuplexError:
		return "the page rejected the script or closed the connection"
	default:
		return ""
	}
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) ErrorKind {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Kind
	}
	return KindUnknown
}

func malformed(reason string, err error) *Error {
	return &Error{Kind: KindMalformedResponse, Reason: reason, Err: err}
}
