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
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/codexthemes/themectl/log"
)

const (
	discoveryHost = "127.0.0.1"
	discoveryPath = "/json/list"
	pageType      = "page"
)

// Keys under which the discovery endpoint reports the websocket URL, in
// order of preference.
var wsURLKeys = []string{"webSocketDebuggerUrl", "webSocketDebuggerURL"} //nolint:gochecknoglobals

// Target is an inspectable context reported by the discovery endpoint.
type Target struct {
	ID                   string `json:"id"`
	Title                string `json:"title"`
	Type                 string `json:"type"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl,omitempty"`
}

// Eligible reports whether scripts can be evaluated in t.
func (t Target) Eligible() bool {
	return t.Type == pageType && t.WebSocketDebuggerURL != ""
}

// EligibleTargets returns the page targets with a websocket URL, in order.
func EligibleTargets(targets []Target) []Target {
	eligible := make([]Target, 0, len(targets))
	for _, t := range targets {
		if t.Eligible() {
			eligible = append(eligible, t)
		}
	}
	return eligible
}

// DiscoveryURL returns the target list URL of the debuggee on port.
func DiscoveryURL(port int) (*url.URL, error) {
	if port < 1 || port > 65535 {
		return nil, &Error{Kind: KindBadEndpoint, Reason: fmt.Sprintf("port %d out of range", port)}
	}
	raw := "http://" + net.JoinHostPort(discoveryHost, strconv.Itoa(port)) + discoveryPath
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &Error{Kind: KindBadEndpoint, Reason: err.Error(), Err: err}
	}
	return u, nil
}

// DirectoryClient fetches the target list of a debuggee.
type DirectoryClient struct {
	client *http.Client
	logger *log.Logger
}

// NewDirectoryClient returns a client using c, or http.DefaultClient if c is nil.
func NewDirectoryClient(c *http.Client, logger *log.Logger) *DirectoryClient {
	if c == nil {
		c = http.DefaultClient
	}
	return &DirectoryClient{client: c, logger: logger}
}

// FetchTargets issues a single GET against the discovery endpoint on port and
// returns every target it lists, unfiltered.
func (c *DirectoryClient) FetchTargets(ctx context.Context, port int) ([]Target, error) {
	u, err := DiscoveryURL(port)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &Error{Kind: KindBadEndpoint, Reason: err.Error(), Err: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &Error{Kind: KindRequestFailed, Reason: err.Error(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Kind: KindRequestFailed, Reason: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindRequestFailed, Reason: err.Error(), Err: err}
	}

	targets, err := ParseTargets(body)
	if err != nil {
		return nil, err
	}
	c.logger.Debugf("cdp:targets", "port:%d targets:%d", port, len(targets))

	return targets, nil
}

// ParseTargets decodes a discovery response body. Every entry must be an
// object with string "id" and "type" fields.
func ParseTargets(data []byte) ([]Target, error) {
	if !gjson.ValidBytes(data) {
		return nil, malformed("target list is not valid JSON", nil)
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsArray() {
		return nil, malformed("target list is not an array", nil)
	}

	var (
		targets = make([]Target, 0, len(doc.Array()))
		perr    error
	)
	doc.ForEach(func(_, v gjson.Result) bool {
		t, err := parseTarget(v)
		if err != nil {
			perr = err
			return false
		}
		targets = append(targets, t)
		return true
	})
	if perr != nil {
		return nil, perr
	}

	return targets, nil
}

func parseTarget(v gjson.Result) (Target, error) {
	if !v.IsObject() {
		return Target{}, malformed("target is not an object", nil)
	}
	id, typ := v.Get("id"), v.Get("type")
	if id.Type != gjson.String {
		return Target{}, malformed("target without a string id", nil)
	}
	if typ.Type != gjson.String {
		return Target{}, malformed(fmt.Sprintf("target %s without a string type", id.Str), nil)
	}

	t := Target{ID: id.Str, Type: typ.Str}
	if title := v.Get("title"); title.Type == gjson.String {
		t.Title = title.Str
	}
	for _, key := range wsURLKeys {
		if ws := v.Get(key); ws.Type == gjson.String {
			t.WebSocketDebuggerURL = ws.Str
			break
		}
	}

	return t, nil
}
