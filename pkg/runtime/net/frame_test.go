// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package net

import (
	"net"
	"testing"
	"time"
)

func pipeConns(t *testing.T) (client, server net.Conn) {
	t.Helper()

	client, server = net.Pipe()
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})

	return client, server
}

// writeMaskedFrame writes a client->server frame with a masking key, the
// way a real browser client would, so ReadFrame's unmasking path is
// exercised the same way the spec mandates.
func writeMaskedFrame(t *testing.T, conn net.Conn, fin bool, opcode Opcode, payload []byte) {
	t.Helper()

	maskKey := [4]byte{0x01, 0x02, 0x03, 0x04}
	masked := make([]byte, len(payload))

	for i, b := range payload {
		masked[i] = b ^ maskKey[i%4]
	}

	first := byte(opcode)
	if fin {
		first |= 0x80
	}

	header := []byte{first, byte(len(payload)) | 0x80}
	header = append(header, maskKey[:]...)

	go func() {
		conn.Write(header)
		conn.Write(masked)
	}()
}

func TestReadFrameRejectsUnmasked(t *testing.T) {
	client, server := pipeConns(t)

	go func() {
		// Unmasked frame: mask bit unset.
		client.Write([]byte{0x81, 0x05})
		client.Write([]byte("hello"))
	}()

	_, err := ReadFrame(server, time.Second)
	if err == nil {
		t.Fatal("expected ProtocolError for unmasked client frame")
	}

	protoErr, ok := err.(*ProtocolError)
	if !ok {
		t.Fatalf("expected *ProtocolError, got %T: %v", err, err)
	}

	if protoErr.Code != CloseProtocolError {
		t.Fatalf("expected close code %d, got %d", CloseProtocolError, protoErr.Code)
	}
}

func TestReadFrameRoundTrip(t *testing.T) {
	client, server := pipeConns(t)

	writeMaskedFrame(t, client, true, OpText, []byte("hello"))

	f, err := ReadFrame(server, time.Second)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}

	if string(f.Payload) != "hello" || f.Opcode != OpText || !f.FIN {
		t.Fatalf("unexpected frame: %+v", f)
	}
}

func TestFragmentReassembly(t *testing.T) {
	fs := NewFragmentState()

	if msg, err := fs.Feed(&Frame{FIN: false, Opcode: OpText, Payload: []byte("he")}); err != nil || msg != nil {
		t.Fatalf("unexpected result from first fragment: msg=%v err=%v", msg, err)
	}

	if !fs.Assembling() {
		t.Fatal("expected fragment state to be assembling after first fragment")
	}

	// A Ping arriving mid-sequence must not touch fragment state at all
	// (spec scenario 6); the server handles it inline and Feed is never
	// called for control frames, so this just asserts Assembling holds.
	if !fs.Assembling() {
		t.Fatal("fragment state corrupted by simulated inline ping handling")
	}

	if msg, err := fs.Feed(&Frame{FIN: false, Opcode: OpContinuation, Payload: []byte("ll")}); err != nil || msg != nil {
		t.Fatalf("unexpected result from second fragment: msg=%v err=%v", msg, err)
	}

	msg, err := fs.Feed(&Frame{FIN: true, Opcode: OpContinuation, Payload: []byte("o")})
	if err != nil {
		t.Fatalf("Feed final fragment: %v", err)
	}

	if msg == nil || string(msg.Payload) != "hello" || msg.Opcode != OpText {
		t.Fatalf("expected reassembled message \"hello\", got %+v", msg)
	}

	if fs.Assembling() {
		t.Fatal("expected fragment state to reset after delivering the message")
	}
}

func TestFragmentSizeLimitEnforcedBeforeAppend(t *testing.T) {
	fs := NewFragmentState()

	big := make([]byte, MaxFramePayload)
	if _, err := fs.Feed(&Frame{FIN: false, Opcode: OpBinary, Payload: big}); err != nil {
		t.Fatalf("first max-size fragment should be accepted: %v", err)
	}

	_, err := fs.Feed(&Frame{FIN: true, Opcode: OpContinuation, Payload: []byte{0x01}})
	if err == nil {
		t.Fatal("expected CloseMessageTooBig when exceeding 16 MiB")
	}

	protoErr, ok := err.(*ProtocolError)
	if !ok || protoErr.Code != CloseMessageTooBig {
		t.Fatalf("expected CloseMessageTooBig, got %v", err)
	}
}

func TestHeartbeatPongTimeout(t *testing.T) {
	hb := NewHeartbeat(30*time.Second, 10*time.Second)

	now := time.Now()
	hb.RecordPingSent(now, [4]byte{1, 2, 3, 4})

	if hb.PongOverdue(now.Add(5 * time.Second)) {
		t.Fatal("pong should not be overdue before the timeout elapses")
	}

	if !hb.PongOverdue(now.Add(11 * time.Second)) {
		t.Fatal("pong should be overdue after the timeout elapses")
	}
}

func TestHeartbeatIgnoresUnsolicitedPong(t *testing.T) {
	hb := NewHeartbeat(30*time.Second, 10*time.Second)

	before := hb.lastPongReceived
	hb.ObservePong(time.Now(), []byte{9, 9, 9, 9})

	if !hb.lastPongReceived.Equal(before) {
		t.Fatal("unsolicited pong must not update lastPongReceived")
	}
}
