// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package net

import (
	"net"
	"sync"
	"time"
)

// Stream unifies a plain TCP connection and a TLS-wrapped one behind a
// single mutex-guarded net.Conn (spec §3's WsStream enum / spec §5's
// "WebSocket stream mutex"). TLS connections are not safe for split
// concurrent read/write halves, so both the heartbeat reader loop and any
// actor-initiated ws_send share this one mutex rather than splitting the
// socket — the single-mutex model spec §4.8 calls "mandatory".
type Stream struct {
	mu  sync.Mutex
	raw net.Conn
	tls bool
}

// NewPlainStream wraps a plain TCP connection.
func NewPlainStream(conn net.Conn) *Stream { return &Stream{raw: conn} }

// NewTLSStream wraps a TLS connection. Read timeouts must be set on the
// underlying TCP socket *before* the TLS handshake (spec §4.8) — callers
// are expected to have done that already when they construct conn.
func NewTLSStream(conn net.Conn) *Stream { return &Stream{raw: conn, tls: true} }

// IsTLS reports whether this stream is TLS-wrapped.
func (s *Stream) IsTLS() bool { return s.tls }

// ReadFrame acquires the stream mutex for the duration of one frame read,
// bounded by timeout (spec §5: "the reader acquires it only for the
// duration of one read_frame").
func (s *Stream) ReadFrame(timeout time.Duration) (*Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return ReadFrame(s.raw, timeout)
}

// WriteFrame acquires the stream mutex for one frame write — the "actor
// acquires it only for ws_send" half of spec §5's contention model.
func (s *Stream) WriteFrame(f *Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return WriteFrame(s.raw, f)
}

// Close closes the underlying connection.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.raw.Close()
}

// WriteClose writes a Close control frame under the stream mutex.
func (s *Stream) WriteClose(code int, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return WriteClose(s.raw, code, reason)
}
