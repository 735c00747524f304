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
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codexthemes/themectl/log"
	"github.com/codexthemes/themectl/tests/ws"
)

func TestDiscoveryURL(t *testing.T) {
	t.Parallel()

	u, err := DiscoveryURL(9222)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9222/json/list", u.String())

	for _, port := range []int{0, -1, 65536} {
		_, err := DiscoveryURL(port)
		require.Error(t, err)
		assert.Equal(t, KindBadEndpoint, KindOf(err))
	}
}

func TestParseTargets(t *testing.T) {
	t.Parallel()

	t.Run("both spellings of the websocket key", func(t *testing.T) {
		t.Parallel()

		targets, err := ParseTargets([]byte(`[
			{"id":"a","title":"A","type":"page","webSocketDebuggerUrl":"ws://x/a"},
			{"id":"b","title":"B","type":"page","webSocketDebuggerURL":"ws://x/b"}
		]`))
		require.NoError(t, err)
		assert.Equal(t, []Target{
			{ID: "a", Title: "A", Type: "page", WebSocketDebuggerURL: "ws://x/a"},
			{ID: "b", Title: "B", Type: "page", WebSocketDebuggerURL: "ws://x/b"},
		}, targets)
	})

	t.Run("lowercase url wins", func(t *testing.T) {
		t.Parallel()

		targets, err := ParseTargets([]byte(
			`[{"id":"a","type":"page","webSocketDebuggerURL":"ws://upper","webSocketDebuggerUrl":"ws://lower"}]`,
		))
		require.NoError(t, err)
		require.Len(t, targets, 1)
		assert.Equal(t, "ws://lower", targets[0].WebSocketDebuggerURL)
	})

	t.Run("optional fields", func(t *testing.T) {
		t.Parallel()

		targets, err := ParseTargets([]byte(`[{"id":"w","type":"service_worker"}]`))
		require.NoError(t, err)
		assert.Equal(t, []Target{{ID: "w", Type: "service_worker"}}, targets)
		assert.Empty(t, EligibleTargets(targets))
	})

	t.Run("empty list", func(t *testing.T) {
		t.Parallel()

		targets, err := ParseTargets([]byte(`[]`))
		require.NoError(t, err)
		assert.Empty(t, targets)
	})

	malformedBodies := map[string]string{
		"not json":      `<html>`,
		"not an array":  `{"id":"a"}`,
		"not an object": `["a"]`,
		"missing id":    `[{"type":"page"}]`,
		"numeric id":    `[{"id":1,"type":"page"}]`,
		"missing type":  `[{"id":"a"}]`,
	}
	for name, body := range malformedBodies {
		body := body
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseTargets([]byte(body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, &Error{Kind: KindMalformedResponse}))
		})
	}
}

func TestEligibleTargets(t *testing.T) {
	t.Parallel()

	targets := []Target{
		{ID: "1", Type: "page", WebSocketDebuggerURL: "ws://1"},
		{ID: "2", Type: "iframe", WebSocketDebuggerURL: "ws://2"},
		{ID: "3", Type: "page"},
		{ID: "4", Type: "page", WebSocketDebuggerURL: "ws://4"},
	}
	got := EligibleTargets(targets)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "4", got[1].ID)
}

func TestDirectoryClientFetchTargets(t *testing.T) {
	t.Parallel()

	t.Run("lists targets", func(t *testing.T) {
		t.Parallel()

		server := ws.NewServer(t, ws.WithTargets(
			ws.Target{ID: "p1", Title: "Codex", Type: "page", WSPath: "/devtools/page/p1"},
			ws.Target{ID: "w1", Type: "worker"},
		))
		c := NewDirectoryClient(server.Client(), log.NewNullLogger())

		targets, err := c.FetchTargets(context.Background(), server.Port())
		require.NoError(t, err)
		require.Len(t, targets, 2)
		assert.Equal(t, server.WebSocketURL("/devtools/page/p1"), targets[0].WebSocketDebuggerURL)
		assert.True(t, targets[0].Eligible())
		assert.False(t, targets[1].Eligible())
	})

	t.Run("non success status", func(t *testing.T) {
		t.Parallel()

		server := ws.NewServer(t, ws.WithRawTargets(http.StatusInternalServerError, "boom"))
		c := NewDirectoryClient(server.Client(), log.NewNullLogger())

		_, err := c.FetchTargets(context.Background(), server.Port())
		require.EqualError(t, err, "CDP request failed: HTTP 500")
		assert.Equal(t, KindRequestFailed, KindOf(err))
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()

		server := ws.NewServer(t, ws.WithRawTargets(http.StatusOK, `{"not":"a list"}`))
		c := NewDirectoryClient(server.Client(), log.NewNullLogger())

		_, err := c.FetchTargets(context.Background(), server.Port())
		assert.Equal(t, KindMalformedResponse, KindOf(err))
	})

	t.Run("bad port", func(t *testing.T) {
		t.Parallel()

		c := NewDirectoryClient(nil, log.NewNullLogger())
		_, err := c.FetchTargets(context.Background(), 70000)
		assert.Equal(t, KindBadEndpoint, KindOf(err))
	})

	t.Run("cancelled", func(t *testing.T) {
		t.Parallel()

		server := ws.NewServer(t, ws.WithTargets())
		c := NewDirectoryClient(server.Client(), log.NewNullLogger())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := c.FetchTargets(ctx, server.Port())
		require.ErrorIs(t, err, context.Canceled)
	})
}
