package kernel

import "runtime"

// The context-switch primitive. Each thread's execution context lives on its
// own goroutine, created lazily at first dispatch; the one-slot gate channel
// is the saved machine state the primitive parks on and wakes through. At
// any moment at most one goroutine is awake between a wake and the matching
// park, which is what makes interrupt-disabled sections a sufficient lock.

// machineState is the saved execution context of a suspended thread, seeded
// by stackAllocate so that the first switch-in lands in the trampoline.
type machineState struct {
	started bool
	gate    chan struct{}

	// Program-counter slots consumed by the trampoline on first dispatch.
	startupPC  func()
	entryPC    func(arg any)
	arg        any
	whenDonePC func()
}

// switchContext suspends old and resumes next. It returns when some thread
// eventually switches back to old; for a finishing thread it never returns,
// the goroutine exits after waking its successor.
//
// Must be called with interrupts disabled.
func switchContext(old, next *Thread) {
	ms := &next.machineState
	if !ms.started {
		ms.started = true
		go threadRoot(next)
	} else {
		ms.gate <- struct{}{}
	}

	if old.dying {
		// A finishing thread is never resumed; its carcass is reclaimed by
		// the successor via CheckToBeDestroyed.
		runtime.Goexit()
	}
	<-old.machineState.gate
}

// threadRoot is the trampoline every forked thread starts in: run Begin to
// clean up after the previous thread and re-enable interrupts, run the
// forked procedure, then Finish. Finish does not return.
func threadRoot(t *Thread) {
	ms := &t.machineState
	ms.startupPC()
	ms.entryPC(ms.arg)
	ms.whenDonePC()
}
