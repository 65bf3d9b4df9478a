package hal

import (
	"fmt"

	"tickos/internal/debug"
)

// IntStatus is the interrupt enable flag. Disabling interrupts is the only
// mutual exclusion the kernel uses: on a single simulated CPU, IntOff means
// nothing else can run.
type IntStatus uint8

const (
	IntOff IntStatus = iota
	IntOn
)

func (s IntStatus) String() string {
	if s == IntOff {
		return "off"
	}
	return "on"
}

// MachineStatus reports what the CPU is doing.
type MachineStatus uint8

const (
	// IdleMode means no thread is running (the ready queue drained).
	IdleMode MachineStatus = iota
	// RunMode means a thread is executing.
	RunMode
)

func (s MachineStatus) String() string {
	if s == IdleMode {
		return "idle"
	}
	return "run"
}

// Tick costs charged by OneTick.
const (
	SystemTick = 10
)

// Handler services a pending interrupt. Handlers run with interrupts
// disabled and must not re-enable them.
type Handler func()

type pendingInterrupt struct {
	handler Handler
	when    int64
	seq     uint64
	name    string
}

// Interrupt is the simulated interrupt controller: the enable flag, the
// pending-event queue, and the deferred-yield latch the scheduler's
// preemption requests land in.
type Interrupt struct {
	stats *Stats

	level  IntStatus
	status MachineStatus

	pending []*pendingInterrupt
	seq     uint64

	inHandler     bool
	yieldOnReturn bool

	// Installed by kernel wiring.
	yield func()
	halt  func(reason string)
}

// NewInterrupt creates a controller over the given timebase.
// Interrupts start disabled and the machine starts idle.
func NewInterrupt(stats *Stats) *Interrupt {
	return &Interrupt{
		stats: stats,
		halt: func(reason string) {
			panic("machine halted: " + reason)
		},
	}
}

// SetYieldHandler installs the callback Preempt requests are serviced with.
func (i *Interrupt) SetYieldHandler(fn func()) { i.yield = fn }

// SetHaltHandler replaces the fatal dead-machine hook.
func (i *Interrupt) SetHaltHandler(fn func(reason string)) { i.halt = fn }

// Level returns the current interrupt enable flag.
func (i *Interrupt) Level() IntStatus { return i.level }

// Status returns the machine run/idle status.
func (i *Interrupt) Status() MachineStatus { return i.status }

// SetStatus records the machine run/idle status.
func (i *Interrupt) SetStatus(s MachineStatus) { i.status = s }

// SetLevel changes the enable flag and returns the previous one.
//
// Re-enabling advances simulated time by one system tick and services any
// interrupts that came due, so kernel code pays for its critical sections.
func (i *Interrupt) SetLevel(now IntStatus) IntStatus {
	old := i.level
	if now == IntOn && i.inHandler {
		i.halt("interrupts enabled inside an interrupt handler")
		return old
	}
	i.level = now
	if now == IntOn && old == IntOff {
		i.OneTick()
	}
	return old
}

// Enable turns interrupts on.
func (i *Interrupt) Enable() { i.SetLevel(IntOn) }

// Schedule queues handler to fire fromNow ticks in the future.
// name labels the event in debug output.
func (i *Interrupt) Schedule(handler Handler, fromNow int64, name string) {
	if fromNow <= 0 {
		i.halt(fmt.Sprintf("interrupt %q scheduled %d ticks from now", name, fromNow))
		return
	}
	ev := &pendingInterrupt{
		handler: handler,
		when:    i.stats.TotalTicks() + fromNow,
		seq:     i.seq,
		name:    name,
	}
	i.seq++

	// Sorted insert by (when, seq); the queue stays short.
	pos := len(i.pending)
	for pos > 0 && i.pending[pos-1].when > ev.when {
		pos--
	}
	i.pending = append(i.pending, nil)
	copy(i.pending[pos+1:], i.pending[pos:])
	i.pending[pos] = ev

	debug.Log(debug.TagInterrupt, "interrupt scheduled", debug.Fields{
		"tick": i.stats.TotalTicks(),
		"name": name,
		"due":  ev.when,
	})
}

// OneTick advances simulated time by one system tick, services due
// interrupts, and honors a latched preemption request. It is the safe point
// at which a running thread can lose the CPU.
func (i *Interrupt) OneTick() {
	i.stats.AdvanceSystem(SystemTick)

	i.level = IntOff
	i.checkIfDue(false)
	i.level = IntOn

	if i.yieldOnReturn {
		i.yieldOnReturn = false
		if i.yield != nil {
			i.yield()
		}
	}
}

// Preempt asks for the current thread to yield at the next safe point.
func (i *Interrupt) Preempt() {
	i.yieldOnReturn = true
	i.stats.NotePreemptRequest()
}

// YieldPending reports whether a preemption request is latched and not yet
// serviced.
func (i *Interrupt) YieldPending() bool { return i.yieldOnReturn }

// Idle is called by the scheduler when the ready queue is empty: the clock
// jumps straight to the earliest pending interrupt, which is expected to
// wake somebody up. A machine with nothing pending is dead and halts.
//
// Must be called with interrupts disabled.
func (i *Interrupt) Idle() {
	if i.level != IntOff {
		i.halt("Idle called with interrupts enabled")
		return
	}
	i.status = IdleMode
	if i.checkIfDue(true) {
		i.status = RunMode
		return
	}
	i.halt("ready queue empty and no pending interrupts")
}

// checkIfDue services pending interrupts that have come due. With advance
// set, the clock first skips ahead to the earliest pending event. Returns
// whether anything ran.
func (i *Interrupt) checkIfDue(advance bool) bool {
	if len(i.pending) == 0 {
		return false
	}
	next := i.pending[0]
	now := i.stats.TotalTicks()
	if next.when > now {
		if !advance {
			return false
		}
		i.stats.AdvanceIdle(next.when - now)
	}

	fired := false
	i.inHandler = true
	for len(i.pending) > 0 && i.pending[0].when <= i.stats.TotalTicks() {
		ev := i.pending[0]
		i.pending = i.pending[1:]
		debug.Log(debug.TagInterrupt, "interrupt fired", debug.Fields{
			"tick": i.stats.TotalTicks(),
			"name": ev.name,
		})
		ev.handler()
		fired = true
	}
	i.inHandler = false
	return fired
}
