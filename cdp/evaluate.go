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

	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/gorilla/websocket"
	"github.com/mailru/easyjson"
	"github.com/tidwall/gjson"

	"github.com/codexthemes/themectl/log"
)

// Evaluator evaluates a script in the page behind a websocket URL.
type Evaluator interface {
	Evaluate(ctx context.Context, wsURL, expression string) (string, error)
}

// RuntimeEvaluator evaluates scripts with the Runtime domain, opening one
// Session per call.
type RuntimeEvaluator struct {
	Dialer *websocket.Dialer
	Logger *log.Logger
}

var _ Evaluator = &RuntimeEvaluator{}

// Evaluate runs Runtime.enable then Runtime.evaluate with returnByValue set,
// and returns the printable result: the string value, else the string
// description, else "ok". The connection is closed before returning.
func (e *RuntimeEvaluator) Evaluate(ctx context.Context, wsURL, expression string) (string, error) {
	s, err := DialSession(ctx, wsURL, e.Dialer, e.Logger)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := s.Close(); err != nil {
			e.Logger.Debugf("cdp", "closing %s: %v", wsURL, err)
		}
	}()

	if _, err := s.Execute(ctx, cdpruntime.CommandEnable, cdpruntime.Enable()); err != nil {
		return "", err
	}
	res, err := s.Execute(ctx, cdpruntime.CommandEvaluate,
		cdpruntime.Evaluate(expression).WithReturnByValue(true))
	if err != nil {
		return "", err
	}

	return evaluateResult(res, e.Logger)
}

func evaluateResult(res easyjson.RawMessage, logger *log.Logger) (string, error) {
	if len(res) == 0 {
		return "ok", nil
	}
	if !gjson.ValidBytes(res) {
		return "", malformed("Runtime.evaluate result is not valid JSON", nil)
	}
	doc := gjson.ParseBytes(res)
	if !doc.IsObject() {
		return "", malformed("Runtime.evaluate result is not an object", nil)
	}

	if ex := doc.Get("exceptionDetails"); ex.Exists() {
		text := ex.Get("exception.description").String()
		if text == "" {
			text = ex.Get("text").String()
		}
		logger.Warnf("cdp", "script raised an exception: %s", text)
	}
	if v := doc.Get("result.value"); v.Type == gjson.String {
		return v.Str, nil
	}
	if d := doc.Get("result.description"); d.Type == gjson.String {
		return d.Str, nil
	}
	return "ok", nil
}
