// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package actor implements the M:N coroutine scheduler from spec §4.7: a
// small pool of OS worker threads multiplexing many lightweight actors,
// each with a bounded mailbox, a per-actor GC arena reclaimed wholesale on
// termination, and a catch-unwind crash boundary so a panicking actor
// never brings down its worker. Mesh's own M:N model maps directly onto
// Go's: an "OS worker thread" is simply one of GOMAXPROCS's Ms, and an
// "actor with a 64 KiB coroutine stack" is a goroutine — Go's runtime
// already provides the work-stealing scheduler and voluntary-yield-at-
// suspension-point behavior spec §4.7/§5 describes, so this package adds
// the Mesh-specific parts on top: per-actor mailbox ordering, link/monitor
// semantics, the per-actor arena, and panic-to-ExitSignal translation.
// Grounded on the hierarchical actor model in nmxmxh-inos_v1's
// kernel/threads/supervisor.go (child supervision, restart bookkeeping)
// and its BaseSupervisor Start/Stop/Submit contract.
package actor

import (
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// ID is an opaque process identifier (spec §3's ProcessId).
type ID uint64

// State is a Process's lifecycle stage (spec §3).
type State int32

const (
	StateReady State = iota
	StateRunning
	StateSuspended
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateSuspended:
		return "suspended"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// ExitReason distinguishes a normal return from a recovered panic.
type ExitReason int

const (
	ExitNormal ExitReason = iota
	ExitPanic
	ExitKilled
)

// ExitSignal is delivered to every actor linked to one that terminated,
// per spec §5: "when actor A linked to B crashes, B receives an ExitSignal
// message". The field names follow that direction: From is the actor that
// exited, Reason distinguishes why.
type ExitSignal struct {
	From   ID
	Reason ExitReason
	Err    error
}

// Process is one actor: a mailbox, a per-actor arena, and the scheduler
// bookkeeping needed for link/monitor/kill (spec §3).
type Process struct {
	ID       ID
	mailbox  *Mailbox
	arena    *Arena
	state    atomic.Int32
	killed   atomic.Bool
	trapExit bool

	mu      sync.Mutex
	linked  map[ID]struct{}
	monitor map[ID]struct{}

	sched *Scheduler
}

// Mailbox returns the process's bounded FIFO message queue.
func (p *Process) Mailbox() *Mailbox { return p.mailbox }

// State returns the process's current lifecycle stage.
func (p *Process) State() State { return State(p.state.Load()) }

// Arena returns the process's per-actor GC arena.
func (p *Process) Arena() *Arena { return p.arena }

// SetTrapExit controls whether this process receives ExitSignal as an
// ordinary message (true) or is itself killed (false, the default) when a
// linked process terminates abnormally (spec §5).
func (p *Process) SetTrapExit(trap bool) {
	p.mu.Lock()
	p.trapExit = trap
	p.mu.Unlock()
}

// Receive blocks until a message arrives in the mailbox or the process is
// killed, the sole "suspend on receive" suspension point from spec §4.7.
func (p *Process) Receive() (any, bool) {
	p.state.Store(int32(StateSuspended))
	defer p.state.Store(int32(StateRunning))

	killed := p.killSignal()

	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()

	for {
		if p.isKilled() {
			return nil, false
		}

		select {
		case msg, ok := <-p.mailbox.ch:
			return msg, ok
		case <-killed:
			return nil, false
		case <-tick.C:
		}
	}
}

func (p *Process) killSignal() <-chan struct{} {
	return p.sched.killSignal(p.ID)
}

// Send enqueues a message to this process, blocking the caller if the
// mailbox is full (spec §5's bounded-mailbox backpressure).
func (p *Process) Send(msg any) {
	p.mailbox.send(msg)
}

// Kill flags the process for cancellation; the scheduler observes the
// flag at the actor's next suspension point (spec §4.7 — cooperative,
// never a forced interruption of running code).
func (p *Process) Kill() {
	p.killed.Store(true)
}

func (p *Process) isKilled() bool { return p.killed.Load() }

// logger is the package-wide zap logger for scheduler/actor diagnostics,
// distinct from the compiler passes' logrus usage per SPEC_FULL.md's
// ambient-stack split (hot runtime loop favors zap's allocation-light
// structured logging).
var logger = zap.NewNop()

// SetLogger installs the zap logger the scheduler and its processes emit
// structured events through; call once at runtime startup.
func SetLogger(l *zap.Logger) { logger = l }
