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

// Package ws provides a fake CDP compatible debuggee for tests: an HTTP
// discovery endpoint plus websocket handlers speaking CDP messages.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chromedp/cdproto"
	"github.com/gorilla/websocket"
	"github.com/mailru/easyjson"
	"github.com/mailru/easyjson/jlexer"
	"github.com/mailru/easyjson/jwriter"
	"github.com/mccutchen/go-httpbin/httpbin"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/http2"
)

// DiscoveryPath is where debuggees list their targets.
const DiscoveryPath = "/json/list"

// Server can be used as a test alternative to a real CDP compatible app.
type Server struct {
	t             testing.TB
	Mux           *http.ServeMux
	ServerHTTP    *httptest.Server
	HTTPTransport *http.Transport
	Context       context.Context

	connections atomic.Int64
}

// NewServer returns a fully configured and running test server.
func NewServer(t testing.TB, opts ...func(*Server)) *Server {
	t.Helper()

	// Anything not registered by an option is answered by httpbin.
	mux := http.NewServeMux()
	mux.Handle("/", httpbin.New().Handler())

	server := httptest.NewServer(mux)

	transport := &http.Transport{}
	require.NoError(t, http2.ConfigureTransport(transport))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		server.Close()
		transport.CloseIdleConnections()
		cancel()
	})
	s := &Server{
		t:             t,
		Mux:           mux,
		ServerHTTP:    server,
		HTTPTransport: transport,
		Context:       ctx,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Port returns the port the server listens on.
func (s *Server) Port() int {
	u, err := url.Parse(s.ServerHTTP.URL)
	require.NoError(s.t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(s.t, err)
	return port
}

// WebSocketURL returns the ws:// URL of path on the server.
func (s *Server) WebSocketURL(path string) string {
	u, err := url.Parse(s.ServerHTTP.URL)
	require.NoError(s.t, err)
	return fmt.Sprintf("ws://%s%s", u.Host, path)
}

// Client returns an HTTP client using the server's transport.
func (s *Server) Client() *http.Client {
	return &http.Client{Transport: s.HTTPTransport, Timeout: 5 * time.Second}
}

// Connections returns how many websocket connections were accepted.
func (s *Server) Connections() int64 {
	return s.connections.Load()
}

// Upgrade upgrades an HTTP request to a websocket and counts the connection.
func (s *Server) Upgrade(w http.ResponseWriter, req *http.Request) (*websocket.Conn, error) {
	conn, err := (&websocket.Upgrader{}).Upgrade(w, req, w.Header())
	if err != nil {
		return nil, err
	}
	s.connections.Add(1)
	return conn, nil
}

// Target describes an entry of the discovery list. A non-empty WSPath is
// rendered as a websocket URL on the server.
type Target struct {
	ID     string
	Title  string
	Type   string
	WSPath string
}

// WithTargets serves targets on the discovery path.
func WithTargets(targets ...Target) func(*Server) {
	return func(s *Server) {
		s.Mux.HandleFunc(DiscoveryPath, func(w http.ResponseWriter, _ *http.Request) {
			list := make([]map[string]string, 0, len(targets))
			for _, t := range targets {
				entry := map[string]string{"id": t.ID, "title": t.Title, "type": t.Type}
				if t.WSPath != "" {
					entry["webSocketDebuggerUrl"] = s.WebSocketURL(t.WSPath)
				}
				list = append(list, entry)
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(list)
		})
	}
}

// WithRawTargets answers the discovery path with status and body as given.
func WithRawTargets(status int, body string) func(*Server) {
	return func(s *Server) {
		s.Mux.HandleFunc(DiscoveryPath, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
			_, _ = io.WriteString(w, body)
		})
	}
}

// WithClosureAbnormalHandler attaches an abnormal closure behavior to Server.
func WithClosureAbnormalHandler(path string) func(*Server) {
	return func(s *Server) {
		s.Mux.HandleFunc(path, func(w http.ResponseWriter, req *http.Request) {
			conn, err := s.Upgrade(w, req)
			if err != nil {
				return
			}
			// This forces a connection closure without a proper WS close message exchange
			_ = conn.Close()
		})
	}
}

// WithEchoHandler attaches a handler that echoes the first message back and
// closes the connection normally.
func WithEchoHandler(path string) func(*Server) {
	return func(s *Server) {
		s.Mux.HandleFunc(path, func(w http.ResponseWriter, req *http.Request) {
			conn, err := s.Upgrade(w, req)
			if err != nil {
				return
			}
			defer func() { _ = conn.Close() }()

			messageType, r, err := conn.NextReader()
			if err != nil {
				return
			}
			wc, err := conn.NextWriter(messageType)
			if err != nil {
				return
			}
			if _, err = io.Copy(wc, r); err != nil {
				return
			}
			if err = wc.Close(); err != nil {
				return
			}
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(10*time.Second),
			)
		})
	}
}

// MethodLog records the methods received by a CDP handler.
type MethodLog struct {
	mu      sync.Mutex
	methods []cdproto.MethodType
}

func (l *MethodLog) add(m cdproto.MethodType) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.methods = append(l.methods, m)
}

// Methods returns the methods received so far, in order.
func (l *MethodLog) Methods() []cdproto.MethodType {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]cdproto.MethodType(nil), l.methods...)
}

// CDPHandlerFunc answers a single incoming message by sending zero or more
// messages on writeCh.
type CDPHandlerFunc func(conn *websocket.Conn, msg *cdproto.Message, writeCh chan<- cdproto.Message, done <-chan struct{})

// WithCDPHandler attaches a custom CDP handler function to Server. methods
// may be nil.
func WithCDPHandler(path string, fn CDPHandlerFunc, methods *MethodLog) func(*Server) {
	return func(s *Server) {
		s.Mux.HandleFunc(path, func(w http.ResponseWriter, req *http.Request) {
			conn, err := s.Upgrade(w, req)
			if err != nil {
				return
			}
			defer func() { _ = conn.Close() }()

			done := make(chan struct{})
			writeCh := make(chan cdproto.Message)

			go func() {
				read := func(conn *websocket.Conn) (*cdproto.Message, error) {
					_, buf, err := conn.ReadMessage()
					if err != nil {
						return nil, err
					}

					var msg cdproto.Message
					decoder := jlexer.Lexer{Data: buf}
					msg.UnmarshalEasyJSON(&decoder)
					if err := decoder.Error(); err != nil {
						return nil, err
					}

					return &msg, nil
				}

				for {
					msg, err := read(conn)
					if err != nil {
						close(done)
						return
					}

					if msg.Method != "" && methods != nil {
						methods.add(msg.Method)
					}

					fn(conn, msg, writeCh, done)
				}
			}()

			go func() {
				write := func(conn *websocket.Conn, msg *cdproto.Message) {
					encoder := jwriter.Writer{}
					msg.MarshalEasyJSON(&encoder)
					if err := encoder.Error; err != nil {
						return
					}

					writer, err := conn.NextWriter(websocket.TextMessage)
					if err != nil {
						return
					}
					if _, err := encoder.DumpTo(writer); err != nil {
						return
					}
					_ = writer.Close()
				}

				for {
					select {
					case msg := <-writeCh:
						write(conn, &msg)
					case <-done:
						return
					}
				}
			}()

			<-done // Wait for the reader to stop before closing the connection
		})
	}
}

// EvaluateResult renders a Runtime.evaluate result whose value is the
// given string.
func EvaluateResult(value string) easyjson.RawMessage {
	b, _ := json.Marshal(map[string]any{
		"result": map[string]any{"type": "string", "value": value},
	})
	return b
}

// CDPDefaultHandler answers Runtime.evaluate with the string "injected" and
// every other command with an empty result.
func CDPDefaultHandler(_ *websocket.Conn, msg *cdproto.Message, writeCh chan<- cdproto.Message, done <-chan struct{}) {
	if msg.Method == "" {
		return
	}
	reply := cdproto.Message{ID: msg.ID, Result: easyjson.RawMessage(`{}`)}
	if msg.Method == cdproto.CommandRuntimeEvaluate {
		reply.Result = EvaluateResult("injected")
	}
	select {
	case writeCh <- reply:
	case <-done:
	}
}
