package kernel

import (
	"encoding/binary"

	"tickos/hal"
	"tickos/internal/debug"
)

// ThreadStatus tracks where a thread is in its lifecycle.
type ThreadStatus uint8

const (
	JustCreated ThreadStatus = iota
	Ready
	Running
	Blocked
)

func (s ThreadStatus) String() string {
	switch s {
	case JustCreated:
		return "just-created"
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Blocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// StackFencepost sits in the far end of every thread stack; CheckOverflow
// halts the kernel if it was overwritten.
const StackFencepost uint32 = 0xDEDBEEF

const stackWordBytes = 4

// DefaultStackWords is the stack size, in machine words, unless configured
// otherwise.
const DefaultStackWords = 8 * 1024

// Thread is a kernel thread control block. The thread owns its stack and
// its scheduling block; destruction is always performed by a different
// thread, routed through the scheduler's toBeDestroyed slot.
type Thread struct {
	k *Kernel

	id     int
	name   string
	status ThreadStatus

	stack    []byte // bounded region; fencepost word at the low end
	stackTop int    // byte offset the first frame would start at

	machineState  machineState
	userRegisters [hal.NumTotalRegs]int32

	// space, when set, brackets every context switch of this thread with
	// user-state save/restore.
	space *hal.AddrSpace

	tsb *ThreadSchedulingBlock

	// dying marks a finishing thread between Run and its goroutine exit.
	dying bool
}

func newThread(k *Kernel, name string, id int) *Thread {
	t := &Thread{
		k:      k,
		id:     id,
		name:   name,
		status: JustCreated,
	}
	t.tsb = &ThreadSchedulingBlock{
		thread: t,
		tPred:  k.initialPred,
		tKey:   k.initialPred,
	}
	k.Stats.NoteThreadCreated()
	return t
}

// ID returns the stable thread identifier.
func (t *Thread) ID() int { return t.id }

// Name returns the human label.
func (t *Thread) Name() string { return t.name }

// Status returns the lifecycle state.
func (t *Thread) Status() ThreadStatus { return t.status }

// TSB returns the scheduling block.
func (t *Thread) TSB() *ThreadSchedulingBlock { return t.tsb }

// SetSpace attaches a user address space to this thread.
func (t *Thread) SetSpace(space *hal.AddrSpace) { t.space = space }

// Fork makes the thread runnable: allocate and seed its stack so the first
// switch-in lands in the trampoline, then hand it to the scheduler.
func (t *Thread) Fork(fn func(arg any), arg any) {
	debug.Log(debug.TagThread, "fork", debug.Fields{
		"tick":   t.k.Stats.TotalTicks(),
		"thread": t.name,
		"id":     t.id,
	})
	t.stackAllocate(fn, arg)

	old := t.k.Interrupt.SetLevel(hal.IntOff)
	t.k.Scheduler.ReadyToRun(t)
	t.k.Interrupt.SetLevel(old)
}

// stackAllocate builds the execution stack and seeds the saved machine
// state with the trampoline's program-counter slots.
func (t *Thread) stackAllocate(fn func(arg any), arg any) {
	t.stack = hal.AllocBoundedArray(t.k.stackWords * stackWordBytes)
	binary.LittleEndian.PutUint32(t.stack[:stackWordBytes], StackFencepost)
	t.stackTop = len(t.stack) - stackWordBytes

	t.machineState = machineState{
		gate:       make(chan struct{}, 1),
		startupPC:  t.Begin,
		entryPC:    fn,
		arg:        arg,
		whenDonePC: t.Finish,
	}
}

// Begin runs once per thread, on first dispatch: reclaim the previous
// thread if it finished, then enable interrupts.
func (t *Thread) Begin() {
	t.k.assertf(t == t.k.currentThread, "Begin on thread %q which is not current", t.name)
	t.k.Scheduler.CheckToBeDestroyed()
	t.k.Interrupt.Enable()
}

// Finish terminates the thread. It never returns; the stack is reclaimed by
// whichever thread runs next.
func (t *Thread) Finish() {
	t.k.Interrupt.SetLevel(hal.IntOff)
	t.k.assertf(t == t.k.currentThread, "Finish on thread %q which is not current", t.name)
	debug.Log(debug.TagThread, "finish", debug.Fields{
		"tick":   t.k.Stats.TotalTicks(),
		"thread": t.name,
		"id":     t.id,
	})
	t.Sleep(true)
}

// Yield surrenders the CPU but stays runnable. The thread is charged for
// its run time, re-keyed by the predicted remainder, and re-inserted; if it
// still has the smallest key it simply keeps the CPU.
func (t *Thread) Yield() {
	old := t.k.Interrupt.SetLevel(hal.IntOff)
	t.k.assertf(t == t.k.currentThread, "Yield on thread %q which is not current", t.name)

	now := t.k.now()
	t.tsb.chargeYield(now)

	t.k.Scheduler.ReadyToRun(t)
	next := t.k.Scheduler.FindNextToRun()
	t.k.assertf(next != nil, "empty ready queue after re-inserting %q", t.name)

	debug.Log(debug.TagScheduler, "dispatch after yield", debug.Fields{
		"tick":     t.k.Stats.TotalTicks(),
		"next":     next.name,
		"next_id":  next.id,
		"yielded":  t.name,
		"executed": t.tsb.T,
	})

	t.k.Scheduler.Run(next, false)
	t.k.Interrupt.SetLevel(old)
}

// Sleep blocks the thread, or retires it when finishing is set. Must be
// called with interrupts already disabled; somebody else is responsible for
// waking the thread back up via ReadyToRun.
//
// An empty ready queue here is not an error: the CPU idles until a pending
// interrupt makes somebody runnable.
func (t *Thread) Sleep(finishing bool) {
	t.k.assertf(t == t.k.currentThread, "Sleep on thread %q which is not current", t.name)
	t.k.assertf(t.k.Interrupt.Level() == hal.IntOff, "Sleep with interrupts enabled")

	if !finishing {
		prev := t.tsb.tPred
		t.tsb.chargeBlock(t.k.now())
		debug.Log(debug.TagScheduler, "burst prediction updated", debug.Fields{
			"tick":   t.k.Stats.TotalTicks(),
			"thread": t.name,
			"id":     t.id,
			"from":   prev,
			"to":     t.tsb.tPred,
		})
	}

	t.status = Blocked

	next := t.k.Scheduler.FindNextToRun()
	for next == nil {
		t.k.Interrupt.Idle()
		next = t.k.Scheduler.FindNextToRun()
	}

	if !finishing {
		debug.Log(debug.TagScheduler, "dispatch after block", debug.Fields{
			"tick":    t.k.Stats.TotalTicks(),
			"next":    next.name,
			"next_id": next.id,
			"blocked": t.name,
		})
	}

	t.k.Scheduler.Run(next, finishing)
}

// CheckOverflow halts the kernel if the stack fencepost was overwritten.
func (t *Thread) CheckOverflow() {
	if t.stack == nil {
		return
	}
	word := binary.LittleEndian.Uint32(t.stack[:stackWordBytes])
	t.k.assertf(word == StackFencepost,
		"stack fencepost of thread %q is %#x, want %#x", t.name, word, StackFencepost)
}

// SaveUserState snapshots the machine registers into the thread. A thread
// hosting a user program has two register sets, one for user code and one
// for kernel code; this saves the former.
func (t *Thread) SaveUserState() {
	for i := 0; i < hal.NumTotalRegs; i++ {
		t.userRegisters[i] = t.k.Machine.ReadRegister(i)
	}
}

// RestoreUserState writes the snapshot back into the machine.
func (t *Thread) RestoreUserState() {
	for i := 0; i < hal.NumTotalRegs; i++ {
		t.k.Machine.WriteRegister(i, t.userRegisters[i])
	}
}

// destroy reclaims the thread's stack. Only ever called from another
// thread, via the scheduler's toBeDestroyed slot.
func (t *Thread) destroy() {
	t.k.assertf(t != t.k.currentThread, "thread %q destroying itself", t.name)
	debug.Log(debug.TagThread, "destroy", debug.Fields{
		"tick":   t.k.Stats.TotalTicks(),
		"thread": t.name,
		"id":     t.id,
	})
	if t.stack != nil {
		hal.DeallocBoundedArray(t.stack)
		t.stack = nil
	}
	t.tsb = nil
	t.k.Stats.NoteThreadDestroyed()
}
