package kernel

// The scheduler assumes interrupts are already disabled: on a single
// simulated CPU that is mutual exclusion. Locks are off limits here — a
// blocked acquisition would call FindNextToRun and recurse forever.

import (
	"tickos/hal"
	"tickos/internal/debug"
)

// Scheduler owns the ready queue and the deferred-destruction slot.
type Scheduler struct {
	k *Kernel

	readyList *readyQueue

	// toBeDestroyed holds at most one finished thread, parked here because
	// it could not free the stack it was running on. The next thread to
	// pass a switch point drains it.
	toBeDestroyed *Thread
}

func newScheduler(k *Kernel) *Scheduler {
	return &Scheduler{k: k, readyList: &readyQueue{}}
}

// ReadyToRun marks thread runnable and queues it by its key. A thread
// arriving from BLOCKED or JUST_CREATED may preempt the current one; a
// voluntary yielder is already surrendering the CPU and is not consulted.
func (s *Scheduler) ReadyToRun(thread *Thread) {
	s.k.assertf(s.k.Interrupt.Level() == hal.IntOff, "ReadyToRun with interrupts enabled")

	if thread.status == Blocked || thread.status == JustCreated {
		s.CheckPreempt(thread)
	}

	debug.Log(debug.TagScheduler, "ready queue insert", debug.Fields{
		"tick":   s.k.Stats.TotalTicks(),
		"thread": thread.name,
		"id":     thread.id,
		"key":    thread.tsb.tKey,
	})

	thread.status = Ready
	s.readyList.Insert(thread.tsb)
}

// CheckPreempt decides whether candidate should take the CPU away from the
// current thread. It only marks the preemption with the interrupt
// controller; the actual yield happens at the next safe point, so context
// switches stay confined to well-defined stack states.
func (s *Scheduler) CheckPreempt(candidate *Thread) {
	if s.k.Interrupt.Status() == hal.IdleMode {
		// Nobody is running; the next dispatch picks candidate up anyway.
		return
	}

	cur := s.k.currentThread
	liveKey := cur.tsb.liveKey(s.k.now())

	if candidate.tsb.tKey < liveKey {
		debug.Log(debug.TagScheduler, "preemption requested", debug.Fields{
			"tick":          s.k.Stats.TotalTicks(),
			"candidate":     candidate.name,
			"candidate_id":  candidate.id,
			"candidate_key": candidate.tsb.tKey,
			"current":       cur.name,
			"current_key":   liveKey,
		})
		s.k.Interrupt.Preempt()
	}
}

// FindNextToRun pops the smallest-keyed ready thread and stamps its run
// start, or returns nil if nothing is ready.
func (s *Scheduler) FindNextToRun() *Thread {
	s.k.assertf(s.k.Interrupt.Level() == hal.IntOff, "FindNextToRun with interrupts enabled")

	if s.readyList.IsEmpty() {
		return nil
	}

	tsb := s.readyList.RemoveFront()
	tsb.beginRun(s.k.now())

	debug.Log(debug.TagScheduler, "ready queue remove", debug.Fields{
		"tick":   s.k.Stats.TotalTicks(),
		"thread": tsb.thread.name,
		"id":     tsb.thread.id,
	})
	return tsb.thread
}

// Run dispatches nextThread. When it is already the current thread, nothing
// switches: the yielder kept the smallest key and carries on. Otherwise the
// machine state swaps and execution resumes on nextThread; the suspended
// caller continues here whenever it is switched back in, reclaiming any
// finished predecessor on the way out.
func (s *Scheduler) Run(nextThread *Thread, finishing bool) {
	if nextThread == s.k.currentThread {
		s.k.assertf(s.k.Interrupt.Level() == hal.IntOff, "Run with interrupts enabled")
		nextThread.status = Running
		nextThread.CheckOverflow()
		return
	}

	old := s.k.currentThread
	s.k.assertf(s.k.Interrupt.Level() == hal.IntOff, "Run with interrupts enabled")

	if finishing {
		s.k.assertf(s.toBeDestroyed == nil, "toBeDestroyed slot already occupied")
		old.dying = true
		s.toBeDestroyed = old
	}

	if old.space != nil {
		old.SaveUserState()
		old.space.SaveState()
	}
	old.CheckOverflow()

	if s.k.tracer != nil {
		s.k.tracer.RecordSlice(old.id, old.name, int64(old.tsb.tStart), s.k.Stats.TotalTicks())
	}

	s.k.currentThread = nextThread
	nextThread.status = Running
	s.k.Stats.NoteContextSwitch()

	switchContext(old, nextThread)

	// Resumption point: much later, possibly with a different thread pairing
	// on the CPU. Interrupts must still be off.
	s.k.assertf(s.k.Interrupt.Level() == hal.IntOff, "interrupts enabled across a context switch")
	s.CheckToBeDestroyed()
	if old.space != nil {
		old.RestoreUserState()
		old.space.RestoreState()
	}
}

// CheckToBeDestroyed reclaims a finished predecessor, if one is parked.
func (s *Scheduler) CheckToBeDestroyed() {
	if s.toBeDestroyed != nil {
		t := s.toBeDestroyed
		s.toBeDestroyed = nil
		t.destroy()
	}
}

// Print dumps the ready queue ordering to the debug sink.
func (s *Scheduler) Print() {
	for pos, tsb := range s.readyList.snapshot() {
		debug.Log(debug.TagScheduler, "ready queue entry", debug.Fields{
			"pos":    pos,
			"thread": tsb.thread.name,
			"id":     tsb.thread.id,
			"key":    tsb.tKey,
		})
	}
}
