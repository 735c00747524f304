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

package cmd

import (
	"context"
	"errors"

	"github.com/codexthemes/themectl/cdp"
	"github.com/codexthemes/themectl/controller"
	"github.com/codexthemes/themectl/errext"
	"github.com/codexthemes/themectl/errext/exitcodes"
	"github.com/codexthemes/themectl/launcher"
	"github.com/codexthemes/themectl/process"
	"github.com/codexthemes/themectl/theme"
)

const (
	themesHint     = "run 'themectl themes' to list the available themes"
	debugPortHint  = "start the app with 'themectl launch' so it listens for debuggers"
	supersededHint = "another themectl command was started on the same port"
)

// classify attaches an exit code, and a hint where one helps, to errors
// that don't carry them yet.
func classify(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, context.Canceled):
		return errext.WithExitCodeIfNone(err, exitcodes.ExternalAbort)
	case errors.Is(err, theme.ErrUnknownTheme):
		return errext.WithExitCodeIfNone(withHintIfNone(err, themesHint), exitcodes.InvalidConfig)
	case errors.Is(err, process.ErrListingFailed), errors.Is(err, process.ErrDecodeFailed):
		return errext.WithExitCodeIfNone(err, exitcodes.ScanFailed)
	case errors.Is(err, launcher.ErrLaunchFailed):
		return errext.WithExitCodeIfNone(err, exitcodes.LaunchFailed)
	case errors.Is(err, controller.ErrNoDebugPort), errors.Is(err, controller.ErrNoInjectableInstances):
		return errext.WithExitCodeIfNone(withHintIfNone(err, debugPortHint), exitcodes.Unreachable)
	case errors.Is(err, controller.ErrSuperseded):
		return errext.WithExitCodeIfNone(withHintIfNone(err, supersededHint), exitcodes.ExternalAbort)
	}

	switch cdp.KindOf(err) {
	case cdp.KindBadEndpoint:
		return errext.WithExitCodeIfNone(err, exitcodes.InvalidConfig)
	case cdp.KindRequestFailed, cdp.KindMalformedResponse:
		return errext.WithExitCodeIfNone(err, exitcodes.Unreachable)
	case cdp.KindNoPageTargets:
		return errext.WithExitCodeIfNone(err, exitcodes.NoPageTargets)
	case cdp.KindDuplexError:
		return errext.WithExitCodeIfNone(err, exitcodes.ScriptRejected)
	default:
		return errext.WithExitCodeIfNone(err, exitcodes.GenericError)
	}
}

func withHintIfNone(err error, hint string) error {
	var hinted errext.HasHint
	if errors.As(err, &hinted) {
		return err
	}
	return errext.WithHint(err, hint)
}
