// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package actor

// DefaultMailboxCapacity is the default bounded mailbox size; spec §5
// only requires "bounded", not a specific depth, so this mirrors a typical
// actor-framework default.
const DefaultMailboxCapacity = 256

// Mailbox is a bounded FIFO queue owned by exactly one actor (spec §3).
// Per-sender-to-receiver ordering (spec §5, §8) falls out of Go channel
// semantics: a single channel preserves send order for any one sender,
// and concurrent senders are explicitly unordered with respect to each
// other, matching "no ordering guarantees across independent senders".
type Mailbox struct {
	ch chan any
}

// NewMailbox constructs a mailbox with the given bounded capacity.
func NewMailbox(capacity int) *Mailbox {
	if capacity <= 0 {
		capacity = DefaultMailboxCapacity
	}

	return &Mailbox{ch: make(chan any, capacity)}
}

// send enqueues msg, blocking if the mailbox is full until a slot frees —
// spec §5's "a send to a full queue blocks the sender".
func (m *Mailbox) send(msg any) {
	m.ch <- msg
}

// Len reports the number of currently queued messages.
func (m *Mailbox) Len() int { return len(m.ch) }

func (m *Mailbox) close() { close(m.ch) }
