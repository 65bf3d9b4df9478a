// Package kernel multiplexes one simulated CPU across many kernel threads
// with a preemptive shortest-remaining-time-first scheduler. Each thread's
// next CPU burst is predicted by exponential smoothing of its measured
// bursts, and a thread waking up with a smaller predicted remainder than
// the running one triggers a preemption at the next safe point.
package kernel

import (
	"tickos/hal"
	"tickos/internal/debug"
)

// Tracer records per-thread run slices for offline visualization.
type Tracer interface {
	RecordSlice(threadID int, name string, start, end int64)
}

// Options tune kernel construction. The zero value gives defaults.
type Options struct {
	// StackWords is the per-thread stack size in machine words.
	StackWords int

	// InitialPrediction seeds t_pred of fresh threads. The default of 0
	// gives newcomers immediate priority until they accumulate a
	// prediction; raising it trades newcomer latency for incumbent
	// protection.
	InitialPrediction float64

	// Tracer, when set, receives a slice each time a genuine context switch
	// takes a thread off the CPU, covering the time since its last dispatch.
	// When a yield or wake re-dispatches the thread already on the CPU, its
	// span restarts without the earlier part being recorded, and the span of
	// the thread still on the CPU when the kernel stops is not recorded.
	Tracer Tracer
}

// Kernel wires the scheduler to its collaborators: the interrupt
// controller, the statistics clock, and the register file.
type Kernel struct {
	Interrupt *hal.Interrupt
	Stats     *hal.Stats
	Machine   *hal.Machine
	Scheduler *Scheduler

	currentThread *Thread

	stackWords  int
	initialPred float64
	tracer      Tracer
	nextID      int
}

// New builds a kernel and its collaborators. Call Bootstrap before using
// thread operations.
func New(opts Options) *Kernel {
	if opts.StackWords <= 0 {
		opts.StackWords = DefaultStackWords
	}
	k := &Kernel{
		Stats:       hal.NewStats(),
		Machine:     hal.NewMachine(),
		stackWords:  opts.StackWords,
		initialPred: opts.InitialPrediction,
		tracer:      opts.Tracer,
	}
	k.Interrupt = hal.NewInterrupt(k.Stats)
	k.Scheduler = newScheduler(k)
	k.Interrupt.SetYieldHandler(func() {
		k.currentThread.Yield()
	})
	k.Interrupt.SetHaltHandler(func(reason string) {
		k.assertf(false, "%s", reason)
	})
	return k
}

// Bootstrap turns the calling goroutine into the first kernel thread and
// starts the machine. Exactly one call, before any Fork.
func (k *Kernel) Bootstrap(name string) *Thread {
	k.assertf(k.currentThread == nil, "Bootstrap called twice")

	t := newThread(k, name, k.allocID())
	t.status = Running
	t.machineState = machineState{
		started: true,
		gate:    make(chan struct{}, 1),
	}
	k.currentThread = t
	k.Interrupt.SetStatus(hal.RunMode)
	k.Interrupt.Enable()

	debug.Log(debug.TagThread, "bootstrap", debug.Fields{
		"boot":   k.Stats.BootID().String(),
		"thread": name,
	})
	return t
}

// NewThread constructs a thread in the JUST_CREATED state. It does not run
// until forked.
func (k *Kernel) NewThread(name string) *Thread {
	return newThread(k, name, k.allocID())
}

// CurrentThread returns the thread on the CPU.
func (k *Kernel) CurrentThread() *Thread { return k.currentThread }

func (k *Kernel) allocID() int {
	id := k.nextID
	k.nextID++
	return id
}

// now returns the scheduling clock in ticks.
func (k *Kernel) now() float64 {
	return float64(k.Stats.TotalTicks())
}
