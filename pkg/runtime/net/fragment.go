// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package net

import "unicode/utf8"

// FragmentState enforces RFC 6455 §5.4 reassembly (spec §3/§4.8/§8):
// control frames never touch this state; a data frame starts, continues,
// or finishes a message; the 16 MiB cap is checked before appending each
// fragment so the server never buffers the overflow.
type FragmentState struct {
	assembling bool
	opcode     Opcode
	buffer     []byte
}

// NewFragmentState constructs an idle (not-yet-assembling) state.
func NewFragmentState() *FragmentState {
	return &FragmentState{}
}

// Message is a fully reassembled (or single-frame) application message.
type Message struct {
	Opcode  Opcode
	Payload []byte
}

// Feed processes one data frame (opcode Text/Binary/Continuation) through
// the state machine. It returns a non-nil *Message when a complete
// message is ready for delivery to the actor mailbox, and a non-nil
// *ProtocolError when the frame sequence is invalid.
func (fs *FragmentState) Feed(f *Frame) (*Message, error) {
	switch {
	case f.Opcode == OpText || f.Opcode == OpBinary:
		if fs.assembling {
			return nil, &ProtocolError{Code: CloseProtocolError, Reason: "new data frame while assembling a fragmented message"}
		}

		if f.FIN {
			if f.Opcode == OpText && !utf8.Valid(f.Payload) {
				return nil, &ProtocolError{Code: CloseInvalidPayload, Reason: "invalid UTF-8 in text frame"}
			}

			return &Message{Opcode: f.Opcode, Payload: f.Payload}, nil
		}

		if err := fs.checkSize(len(f.Payload)); err != nil {
			return nil, err
		}

		fs.assembling = true
		fs.opcode = f.Opcode
		fs.buffer = append(fs.buffer[:0], f.Payload...)

		return nil, nil

	case f.Opcode == OpContinuation:
		if !fs.assembling {
			return nil, &ProtocolError{Code: CloseProtocolError, Reason: "unexpected continuation frame"}
		}

		if err := fs.checkSize(len(f.Payload)); err != nil {
			fs.reset()
			return nil, err
		}

		fs.buffer = append(fs.buffer, f.Payload...)

		if !f.FIN {
			return nil, nil
		}

		opcode := fs.opcode
		payload := fs.buffer
		fs.reset()

		if opcode == OpText && !utf8.Valid(payload) {
			return nil, &ProtocolError{Code: CloseInvalidPayload, Reason: "invalid UTF-8 in reassembled text message"}
		}

		return &Message{Opcode: opcode, Payload: payload}, nil

	default:
		return nil, &ProtocolError{Code: CloseProtocolError, Reason: "control frame routed through fragment state"}
	}
}

// checkSize enforces the 16 MiB accumulated-message cap *before* the new
// fragment is appended, so the overflowing bytes are never buffered
// (spec §8's exact invariant).
func (fs *FragmentState) checkSize(additional int) error {
	if len(fs.buffer)+additional > MaxFramePayload {
		fs.reset()
		return &ProtocolError{Code: CloseMessageTooBig, Reason: "assembled message exceeds 16 MiB"}
	}

	return nil
}

func (fs *FragmentState) reset() {
	fs.assembling = false
	fs.opcode = 0
	fs.buffer = nil
}

// Assembling reports whether a fragmented message is currently in progress.
func (fs *FragmentState) Assembling() bool { return fs.assembling }
