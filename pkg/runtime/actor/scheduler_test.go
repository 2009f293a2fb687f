// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package actor

import (
	"testing"
	"time"
)

func TestSendReceiveFIFO(t *testing.T) {
	s := NewScheduler()
	received := make(chan []int, 1)

	id := s.Spawn(func(p *Process) {
		var got []int

		for i := 0; i < 3; i++ {
			msg, ok := p.Receive()
			if !ok {
				return
			}

			got = append(got, msg.(int))
		}

		received <- got
	})

	s.Send(id, 1)
	s.Send(id, 2)
	s.Send(id, 3)

	select {
	case got := <-received:
		want := []int{1, 2, 3}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("mailbox order = %v, want %v", got, want)
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for actor to receive all messages")
	}
}

func TestCrashIsolation(t *testing.T) {
	s := NewScheduler()

	crashing := s.Spawn(func(p *Process) {
		panic("boom")
	})

	// Give the crashing actor a moment to panic and unwind without
	// affecting anything else scheduled concurrently.
	time.Sleep(50 * time.Millisecond)

	healthy := make(chan bool, 1)
	s.Spawn(func(p *Process) {
		healthy <- true
	})

	select {
	case ok := <-healthy:
		if !ok {
			t.Fatal("healthy actor did not report success")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("healthy actor never ran after a sibling panicked")
	}

	_ = crashing
}

func TestLinkPropagatesExitSignal(t *testing.T) {
	s := NewScheduler()

	done := make(chan ExitSignal, 1)

	watcher := s.Spawn(func(p *Process) {
		p.SetTrapExit(true)

		msg, ok := p.Receive()
		if !ok {
			return
		}

		if sig, ok := msg.(ExitSignal); ok {
			done <- sig
		}
	})

	crasher := s.Spawn(func(p *Process) {
		// Wait for its "go" message so Link below is guaranteed to run
		// before the panic, keeping the test deterministic.
		p.Receive()
		panic("linked crash")
	})

	if err := s.Link(watcher, crasher); err != nil {
		t.Fatalf("Link: %v", err)
	}

	s.Send(crasher, "go")

	select {
	case sig := <-done:
		if sig.From != crasher {
			t.Fatalf("ExitSignal.From = %d, want %d", sig.From, crasher)
		}

		if sig.Reason != ExitPanic {
			t.Fatalf("ExitSignal.Reason = %v, want ExitPanic", sig.Reason)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher never received ExitSignal")
	}
}

func TestArenaReclaimIsWholesale(t *testing.T) {
	a := NewArena(1)

	a.Alloc(128, 8)
	a.Alloc(256, 8)

	total, count := a.Stats()
	if count != 2 || total != 384 {
		t.Fatalf("Stats() = (%d, %d), want (384, 2)", total, count)
	}

	a.Reclaim()

	if len(a.chunks) != 0 {
		t.Fatalf("Reclaim did not drop chunks")
	}
}
