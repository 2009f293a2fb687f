// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package net

import "time"

// Default heartbeat timings (spec §3/§4.8): fixed at build time in v1,
// but exposed as Options fields (Open-Question-5's resolution, DESIGN.md)
// so a re-implementer can parameterize without forking the package.
const (
	DefaultPingInterval = 30 * time.Second
	DefaultPongTimeout  = 10 * time.Second
	defaultReadTimeout  = 5 * time.Second
)

// Heartbeat tracks one connection's ping/pong liveness bookkeeping
// (spec §3's HeartbeatState).
type Heartbeat struct {
	PingInterval time.Duration
	PongTimeout  time.Duration

	lastPingSent     time.Time
	lastPongReceived time.Time
	pendingPing      *[4]byte
}

// NewHeartbeat constructs heartbeat state with the given intervals,
// seeding lastPongReceived to now so a freshly connected client isn't
// immediately considered overdue.
func NewHeartbeat(pingInterval, pongTimeout time.Duration) *Heartbeat {
	return &Heartbeat{
		PingInterval:     pingInterval,
		PongTimeout:      pongTimeout,
		lastPongReceived: time.Now(),
	}
}

// PongOverdue reports whether the pending ping has gone unanswered for
// longer than PongTimeout (spec §8's quantified heartbeat invariant).
func (h *Heartbeat) PongOverdue(now time.Time) bool {
	return h.pendingPing != nil && now.Sub(h.lastPingSent) > h.PongTimeout
}

// PingDue reports whether it's time to send another ping.
func (h *Heartbeat) PingDue(now time.Time) bool {
	return h.pendingPing == nil && now.Sub(h.lastPingSent) >= h.PingInterval
}

// RecordPingSent records a newly sent ping and its expected pong payload.
func (h *Heartbeat) RecordPingSent(now time.Time, payload [4]byte) {
	h.lastPingSent = now
	h.pendingPing = &payload
}

// ObservePong checks an incoming Pong payload against the pending ping.
// Per RFC 6455, unsolicited pongs (no pending ping, or a mismatched
// payload) are ignored rather than treated as an error (spec §4.8).
func (h *Heartbeat) ObservePong(now time.Time, payload []byte) {
	if h.pendingPing == nil || len(payload) != 4 {
		return
	}

	for i := 0; i < 4; i++ {
		if payload[i] != h.pendingPing[i] {
			return
		}
	}

	h.lastPongReceived = now
	h.pendingPing = nil
}
