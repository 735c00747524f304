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
	"context"
	"net/http"
	"net/url"

	"github.com/codexthemes/themectl/log"
	"github.com/codexthemes/themectl/theme"
)

// Actions recorded in an InjectionResult.
const (
	ActionInjected = "injected"
	ActionRemoved  = "removed"
)

// InjectionResult records a target on which a script was evaluated.
type InjectionResult struct {
	TargetID    string `json:"targetId"`
	TargetTitle string `json:"targetTitle"`
	Action      string `json:"action"`
}

// ScriptCatalog provides the scripts to evaluate.
type ScriptCatalog interface {
	ScriptFor(themeID string, mode theme.Mode) (string, error)
}

// Injector applies and removes themes on every page target of a debuggee.
// Targets are processed one at a time, in discovery order, and the first
// failure aborts the whole call.
type Injector struct {
	Targets   TargetSource
	Evaluator Evaluator
	Scripts   ScriptCatalog
	Wait      WaitPolicy
	Logger    *log.Logger
}

// NewInjector wires an Injector to the discovery endpoint through client and
// to the pages through websockets.
func NewInjector(client *http.Client, scripts ScriptCatalog, wait WaitPolicy, logger *log.Logger) *Injector {
	return &Injector{
		Targets:   NewDirectoryClient(client, logger),
		Evaluator: &RuntimeEvaluator{Logger: logger},
		Scripts:   scripts,
		Wait:      wait,
		Logger:    logger,
	}
}

// ApplyTheme injects themeID into every page target of the debuggee on port.
func (in *Injector) ApplyTheme(ctx context.Context, port int, themeID string) ([]InjectionResult, error) {
	script, err := in.Scripts.ScriptFor(themeID, theme.ModeInject)
	if err != nil {
		return nil, err
	}
	return in.run(ctx, port, script, ActionInjected)
}

// RemoveTheme removes the injected theme from every page target of the
// debuggee on port. Pages without a theme are not an error.
func (in *Injector) RemoveTheme(ctx context.Context, port int) ([]InjectionResult, error) {
	script, err := in.Scripts.ScriptFor("", theme.ModeRemove)
	if err != nil {
		return nil, err
	}
	return in.run(ctx, port, script, ActionRemoved)
}

func (in *Injector) run(ctx context.Context, port int, script, action string) ([]InjectionResult, error) {
	targets, err := WaitForEligibleTargets(ctx, in.Targets, port, in.Wait, in.Logger)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, &Error{Kind: KindNoPageTargets}
	}

	results := make([]InjectionResult, 0, len(targets))
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := url.Parse(t.WebSocketDebuggerURL); err != nil || t.WebSocketDebuggerURL == "" {
			in.Logger.Debugf("injector", "port:%d tid:%s skipping unusable websocket url %q", port, t.ID, t.WebSocketDebuggerURL)
			continue
		}

		value, err := in.Evaluator.Evaluate(ctx, t.WebSocketDebuggerURL, script)
		if err != nil {
			return nil, err
		}
		in.Logger.Debugf("injector", "port:%d tid:%s title:%q %s -> %s", port, t.ID, t.Title, action, value)
		results = append(results, InjectionResult{
			TargetID:    t.ID,
			TargetTitle: t.Title,
			Action:      action,
		})
	}

	if len(results) == 0 {
		return nil, &Error{Kind: KindNoPageTargets}
	}
	return results, nil
}
