// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package actor

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Func is an actor's entry point. It runs on its own goroutine until it
// returns or panics; p.Receive is its sole blocking suspension point
// besides any blocking runtime intrinsic it calls directly.
type Func func(p *Process)

// Scheduler owns the actor table and the link/monitor graph — the
// "explicit Runtime value" spec §9's design notes call for in place of
// implicit global scheduler state.
type Scheduler struct {
	mu        sync.RWMutex
	processes map[ID]*Process
	kill      map[ID]chan struct{}
	nextID    uint64

	panicsMu sync.Mutex
	panics   []error

	wg sync.WaitGroup
}

// NewScheduler constructs an empty scheduler. There is no fixed worker-
// thread pool to size: Go's runtime already multiplexes every spawned
// actor goroutine across GOMAXPROCS Ms, which is the M:N model spec §4.7
// asks for.
func NewScheduler() *Scheduler {
	return &Scheduler{
		processes: map[ID]*Process{},
		kill:      map[ID]chan struct{}{},
	}
}

// Spawn starts a new actor running fn, returning its ID immediately (the
// "ready" lifecycle stage begins as soon as the goroutine is scheduled).
func (s *Scheduler) Spawn(fn Func) ID {
	return s.spawn(fn, DefaultMailboxCapacity)
}

// SpawnWithMailbox is Spawn with an explicit mailbox capacity.
func (s *Scheduler) SpawnWithMailbox(fn Func, mailboxCapacity int) ID {
	return s.spawn(fn, mailboxCapacity)
}

func (s *Scheduler) spawn(fn Func, mailboxCapacity int) ID {
	id := ID(atomic.AddUint64(&s.nextID, 1))

	p := &Process{
		ID:      id,
		mailbox: NewMailbox(mailboxCapacity),
		arena:   NewArena(id),
		linked:  map[ID]struct{}{},
		monitor: map[ID]struct{}{},
		sched:   s,
	}
	p.state.Store(int32(StateReady))

	killCh := make(chan struct{})

	s.mu.Lock()
	s.processes[id] = p
	s.kill[id] = killCh
	s.mu.Unlock()

	s.wg.Add(1)

	go s.run(p, fn)

	return id
}

// run is the crash-isolation boundary from spec §4.7: every actor entry
// is wrapped in recover() so a panicking actor terminates without taking
// down its goroutine's worker thread or any other actor. mesh_panic
// (pkg/codegen's ABI contract) emits a true Go panic so it is caught here.
func (s *Scheduler) run(p *Process, fn Func) {
	defer s.wg.Done()

	reason := ExitNormal

	var panicErr error

	func() {
		defer func() {
			if r := recover(); r != nil {
				reason = ExitPanic
				panicErr = fmt.Errorf("actor %d panicked: %v", p.ID, r)

				logger.Error("actor panic recovered",
					zap.Uint64("pid", uint64(p.ID)),
					zap.Any("recover", r),
				)
			}
		}()

		p.state.Store(int32(StateRunning))
		fn(p)
	}()

	if p.isKilled() && reason == ExitNormal {
		reason = ExitKilled
	}

	s.terminate(p, reason, panicErr)
}

func (s *Scheduler) terminate(p *Process, reason ExitReason, err error) {
	p.state.Store(int32(StateTerminated))
	p.arena.Reclaim()

	if reason == ExitPanic {
		s.panicsMu.Lock()
		s.panics = append(s.panics, err)
		s.panicsMu.Unlock()
	}

	p.mu.Lock()
	linked := make([]ID, 0, len(p.linked))
	for id := range p.linked {
		linked = append(linked, id)
	}

	monitors := make([]ID, 0, len(p.monitor))
	for id := range p.monitor {
		monitors = append(monitors, id)
	}
	p.mu.Unlock()

	signal := ExitSignal{From: p.ID, Reason: reason, Err: err}

	for _, id := range append(linked, monitors...) {
		s.deliverExit(id, signal)
	}

	s.mu.Lock()
	delete(s.processes, p.ID)
	if ch, ok := s.kill[p.ID]; ok {
		close(ch)
		delete(s.kill, p.ID)
	}
	s.mu.Unlock()
}

// deliverExit implements spec §5's link semantics: a non-trapping linked
// actor dies when its link partner crashes abnormally; a trapping one
// (or any monitor, which never dies automatically) just receives the
// ExitSignal as an ordinary mailbox message.
func (s *Scheduler) deliverExit(id ID, signal ExitSignal) {
	s.mu.RLock()
	target, ok := s.processes[id]
	s.mu.RUnlock()

	if !ok {
		return
	}

	target.mu.Lock()
	trap := target.trapExit
	target.mu.Unlock()

	if !trap && signal.Reason != ExitNormal {
		target.Kill()
		return
	}

	target.Send(signal)
}

// Link establishes a bidirectional link between two actors (spec §5):
// either's abnormal termination propagates to the other per its trap flag.
func (s *Scheduler) Link(a, b ID) error {
	s.mu.RLock()
	pa, aok := s.processes[a]
	pb, bok := s.processes[b]
	s.mu.RUnlock()

	if !aok || !bok {
		return fmt.Errorf("actor: cannot link unknown process")
	}

	pa.mu.Lock()
	pa.linked[b] = struct{}{}
	pa.mu.Unlock()

	pb.mu.Lock()
	pb.linked[a] = struct{}{}
	pb.mu.Unlock()

	return nil
}

// Monitor makes watcher receive an ExitSignal (but never die automatically)
// when target terminates.
func (s *Scheduler) Monitor(watcher, target ID) error {
	s.mu.RLock()
	pt, ok := s.processes[target]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("actor: cannot monitor unknown process")
	}

	pt.mu.Lock()
	pt.monitor[watcher] = struct{}{}
	pt.mu.Unlock()

	return nil
}

// Send delivers msg to the named actor's mailbox, blocking if full.
func (s *Scheduler) Send(id ID, msg any) error {
	s.mu.RLock()
	p, ok := s.processes[id]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("actor: unknown process %d", id)
	}

	p.Send(msg)

	return nil
}

// Kill requests cancellation of the named actor; it takes effect at its
// next suspension point.
func (s *Scheduler) Kill(id ID) {
	s.mu.RLock()
	p, ok := s.processes[id]
	s.mu.RUnlock()

	if ok {
		p.Kill()
	}
}

func (s *Scheduler) killSignal(id ID) <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.kill[id]
}

// Count returns the number of currently live actors.
func (s *Scheduler) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.processes)
}

// Shutdown kills every live actor and waits for all to terminate,
// aggregating any panics observed during shutdown via multierr (the
// teacher's go.mod carries it transitively; this is the first concern in
// this module that actually needs to merge N independent errors).
func (s *Scheduler) Shutdown() error {
	s.mu.RLock()
	ids := make([]ID, 0, len(s.processes))
	for id := range s.processes {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	for _, id := range ids {
		s.Kill(id)
	}

	s.wg.Wait()

	s.panicsMu.Lock()
	errs := s.panics
	s.panics = nil
	s.panicsMu.Unlock()

	return multierr.Combine(errs...)
}
