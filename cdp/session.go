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
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chromedp/cdproto"
	"github.com/gorilla/websocket"
	"github.com/mailru/easyjson"
	"github.com/mailru/easyjson/jlexer"
	"github.com/mailru/easyjson/jwriter"
	"github.com/tidwall/gjson"

	"github.com/codexthemes/themectl/log"
)

const (
	wsWriteBufferSize = 1 << 16
	handshakeTimeout  = 10 * time.Second
	closeTimeout      = time.Second
)

/*
Session is a websocket connection to a single target.

It issues calls strictly one at a time: a request is written, then frames are
read until the one carrying the same id arrives. Frames with any other id,
including events (id 0), are dropped. There is at most one request in flight,
so no buffering or replay of other frames is needed.

A Session is owned by one goroutine and must not be shared.
*/
type Session struct {
	wsURL     string
	logger    *log.Logger
	conn      *websocket.Conn
	msgID     int64
	closeOnce sync.Once

	// Reuse the easyjson structs to avoid allocs per Read/Write.
	decoder jlexer.Lexer
	encoder jwriter.Writer
}

// NewDialer returns the websocket dialer used when none is configured.
func NewDialer() *websocket.Dialer {
	return &websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
		Proxy:            http.ProxyFromEnvironment,
		WriteBufferSize:  wsWriteBufferSize,
	}
}

// DialSession opens a websocket to wsURL. A nil dialer uses NewDialer().
func DialSession(ctx context.Context, wsURL string, dialer *websocket.Dialer, logger *log.Logger) (*Session, error) {
	if dialer == nil {
		dialer = NewDialer()
	}

	conn, resp, err := dialer.DialContext(ctx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &Error{Kind: KindDuplexError, Reason: err.Error(), Err: err}
	}
	logger.Debugf("cdp", "connected to %s", wsURL)

	return &Session{
		wsURL:  wsURL,
		logger: logger,
		conn:   conn,
	}, nil
}

// Execute sends method with params and blocks until the correlated response
// arrives, returning its result payload. Other frames are dropped, including
// ones that don't decode, unless they carry the request's id. A response
// carrying an error message fails with KindDuplexError.
//
// Cancelling ctx closes the underlying connection, so the session cannot be
// used afterwards.
func (s *Session) Execute(ctx context.Context, method string, params easyjson.Marshaler) (easyjson.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	buf := easyjson.RawMessage(`{}`)
	if params != nil {
		b, err := easyjson.Marshal(params)
		if err != nil {
			return nil, malformed(fmt.Sprintf("encoding %s params", method), err)
		}
		if len(b) > 0 {
			buf = b
		}
	}

	s.msgID++
	msg := &cdproto.Message{
		ID:     s.msgID,
		Method: cdproto.MethodType(method),
		Params: buf,
	}

	stop := context.AfterFunc(ctx, func() { _ = s.conn.Close() })
	defer stop()

	if err := s.write(msg); err != nil {
		return nil, s.ioError(ctx, err)
	}
	for {
		buf, err := s.readFrame()
		if err != nil {
			return nil, s.ioError(ctx, err)
		}
		reply, err := s.decode(buf)
		if err != nil {
			if frameID(buf) == msg.ID {
				return nil, err
			}
			s.logger.Debugf("cdp:recv", "dropping undecodable frame while waiting for id:%d: %v", msg.ID, err)
			continue
		}
		if reply.ID != msg.ID {
			s.logger.Debugf("cdp:recv", "dropping id:%d method:%q while waiting for id:%d", reply.ID, reply.Method, msg.ID)
			continue
		}
		if reply.Error != nil && reply.Error.Message != "" {
			return nil, &Error{Kind: KindDuplexError, Reason: reply.Error.Message, Err: reply.Error}
		}
		return reply.Result, nil
	}
}

func (s *Session) write(msg *cdproto.Message) error {
	s.encoder = jwriter.Writer{}
	msg.MarshalEasyJSON(&s.encoder)
	if err := s.encoder.Error; err != nil {
		return malformed(fmt.Sprintf("encoding %s request", msg.Method), err)
	}
	buf, err := s.encoder.BuildBytes()
	if err != nil {
		return malformed(fmt.Sprintf("encoding %s request", msg.Method), err)
	}

	s.logger.Debugf("cdp:send", "-> %s", buf)
	return s.conn.WriteMessage(websocket.TextMessage, buf)
}

func (s *Session) readFrame() ([]byte, error) {
	_, buf, err := s.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	s.logger.Debugf("cdp:recv", "<- %s", buf)
	return buf, nil
}

func (s *Session) decode(buf []byte) (*cdproto.Message, error) {
	var msg cdproto.Message
	s.decoder = jlexer.Lexer{Data: buf}
	msg.UnmarshalEasyJSON(&s.decoder)
	if err := s.decoder.Error(); err != nil {
		return nil, malformed("decoding message", err)
	}
	return &msg, nil
}

// frameID returns the numeric id of a frame that failed to decode, or 0 when
// it has none.
func frameID(buf []byte) int64 {
	id := gjson.GetBytes(buf, "id")
	if id.Type != gjson.Number {
		return 0
	}
	return id.Int()
}

func (s *Session) ioError(ctx context.Context, err error) error {
	var cerr *Error
	if errors.As(err, &cerr) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return &Error{Kind: KindDuplexError, Reason: err.Error(), Err: err}
}

// Close sends a close frame and closes the connection. It is safe to call
// more than once.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
			time.Now().Add(closeTimeout),
		)
		if cerr := s.conn.Close(); err == nil {
			err = cerr
		}
		s.logger.Debugf("cdp", "closed %s", s.wsURL)
	})
	return err
}
