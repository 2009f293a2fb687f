// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package net

import (
	"errors"
	"net"
	"time"

	"github.com/mesh-lang/mesh/pkg/runtime/actor"
)

// runConnection is the reader thread's main loop from spec §4.8's
// pseudocode: check pong overdue, send a ping if due, read one frame with
// a bounded timeout, route control frames inline, and feed data frames
// through the fragment state machine. It runs as the body of the
// connection's actor (spec's "actor-per-connection crash isolation" —
// the surrounding actor.Scheduler already wraps this in a recover()
// boundary, so a bug here drops only this connection).
func (s *Server) runConnection(p *actor.Process, stream *Stream) {
	hb := NewHeartbeat(s.opts.PingInterval, s.opts.PongTimeout)
	frag := NewFragmentState()

	defer func() {
		stream.Close()
	}()

	for {
		now := time.Now()

		if hb.PongOverdue(now) {
			s.closeConn(stream, CloseGoingAway, "pong timeout")
			s.notifyClose(p, stream, CloseGoingAway, "pong timeout")

			return
		}

		if hb.PingDue(now) {
			payload := RandomPingPayload()
			if err := stream.WriteFrame(&Frame{FIN: true, Opcode: OpPing, Payload: payload[:]}); err != nil {
				return
			}

			hb.RecordPingSent(now, payload)
		}

		f, err := stream.ReadFrame(s.opts.ReadTimeout)
		if err != nil {
			if isTimeout(err) {
				continue
			}

			var protoErr *ProtocolError
			if errors.As(err, &protoErr) {
				s.closeConn(stream, protoErr.Code, protoErr.Reason)
				s.notifyClose(p, stream, protoErr.Code, protoErr.Reason)

				return
			}

			// Any other read error (EOF, reset) ends the connection
			// without a close handshake to send.
			s.notifyClose(p, stream, CloseGoingAway, err.Error())

			return
		}

		switch f.Opcode {
		case OpPong:
			hb.ObservePong(time.Now(), f.Payload)
		case OpPing:
			// Respond inline; per spec this never touches fragment state.
			if err := stream.WriteFrame(&Frame{FIN: true, Opcode: OpPong, Payload: f.Payload}); err != nil {
				return
			}
		case OpClose:
			s.notifyClose(p, stream, CloseNormal, "client initiated close")
			return
		default:
			msg, err := frag.Feed(f)
			if err != nil {
				var protoErr *ProtocolError
				if errors.As(err, &protoErr) {
					s.closeConn(stream, protoErr.Code, protoErr.Reason)
					s.notifyClose(p, stream, protoErr.Code, protoErr.Reason)
				}

				return
			}

			if msg != nil && s.handlers.OnMessage != nil {
				s.handlers.OnMessage(&Conn{stream: stream, pid: p.ID, sched: s.sched}, msg)
			}
		}
	}
}

func (s *Server) closeConn(stream *Stream, code int, reason string) {
	_ = stream.WriteClose(code, reason)
}

func (s *Server) notifyClose(p *actor.Process, stream *Stream, code int, reason string) {
	if s.handlers.OnClose != nil {
		s.handlers.OnClose(&Conn{stream: stream, pid: p.ID, sched: s.sched}, code, reason)
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
