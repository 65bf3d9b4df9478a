package kernel

import (
	"strings"
	"testing"

	"tickos/hal"
)

func TestForkYieldPingPong(t *testing.T) {
	k := New(Options{})
	k.Bootstrap("main")

	var order []string
	a := k.NewThread("A")
	a.Fork(func(arg any) {
		order = append(order, "A1")
		k.CurrentThread().Yield()
		order = append(order, "A2")
	}, nil)

	order = append(order, "M1")
	k.CurrentThread().Yield()
	order = append(order, "M2")
	k.CurrentThread().Yield()
	order = append(order, "M3")

	for k.Stats.ThreadsDestroyed() == 0 {
		k.CurrentThread().Yield()
	}

	got := strings.Join(order, ",")
	if !strings.HasPrefix(got, "M1,A1,M2,A2") {
		t.Fatalf("order = %q, want M1,A1,M2,A2 prefix", got)
	}
	if k.Stats.ContextSwitches() < 2 {
		t.Fatalf("ContextSwitches = %d, want at least 2", k.Stats.ContextSwitches())
	}
}

func TestFinishDefersDestructionToNextThread(t *testing.T) {
	k := New(Options{})
	k.Bootstrap("main")

	ran := false
	f := k.NewThread("F")
	f.Fork(func(arg any) {
		ran = true
	}, nil)
	if f.stack == nil {
		t.Fatalf("forked thread has no stack")
	}

	// F runs, finishes, and parks itself in toBeDestroyed; the switch back
	// here reclaims it.
	k.CurrentThread().Yield()

	if !ran {
		t.Fatalf("forked thread never ran")
	}
	if k.Scheduler.toBeDestroyed != nil {
		t.Fatalf("toBeDestroyed = %q, want drained", k.Scheduler.toBeDestroyed.Name())
	}
	if f.stack != nil {
		t.Fatalf("finished thread's stack was not reclaimed")
	}
	if got := k.Stats.ThreadsDestroyed(); got != 1 {
		t.Fatalf("ThreadsDestroyed = %d, want 1", got)
	}
}

func TestSleepIdlesUntilWake(t *testing.T) {
	k := New(Options{})
	k.Bootstrap("main")
	main := k.CurrentThread()

	before := k.Stats.TotalTicks()

	k.Interrupt.SetLevel(hal.IntOff)
	k.Interrupt.Schedule(func() {
		k.Scheduler.ReadyToRun(main)
	}, 30, "wake")
	main.Sleep(false)
	k.Interrupt.SetLevel(hal.IntOn)

	if main.Status() != Running {
		t.Fatalf("status after wake = %v, want running", main.Status())
	}
	if got := k.Stats.IdleTicks(); got != 30 {
		t.Fatalf("IdleTicks = %d, want 30", got)
	}
	if k.Stats.TotalTicks() < before+30 {
		t.Fatalf("TotalTicks = %d, want at least %d", k.Stats.TotalTicks(), before+30)
	}
}

func TestSleepUpdatesPredictor(t *testing.T) {
	k := New(Options{})
	k.Bootstrap("main")
	main := k.CurrentThread()

	// Pin the burst start, run 100 ticks, then block until a wake 50 ticks
	// later.
	main.tsb.tStart = k.now()
	main.tsb.T = 0
	main.tsb.tPred = 0
	k.Stats.AdvanceSystem(100)

	k.Interrupt.SetLevel(hal.IntOff)
	k.Interrupt.Schedule(func() {
		k.Scheduler.ReadyToRun(main)
	}, 50, "wake")
	main.Sleep(false)
	k.Interrupt.SetLevel(hal.IntOn)

	if got := main.tsb.Prediction(); got != 50 {
		t.Fatalf("tPred = %v, want 50", got)
	}
	if got := main.tsb.Accumulated(); got != 0 {
		t.Fatalf("T = %v, want 0", got)
	}
}

func TestPreemptionDeliveredAtSafePoint(t *testing.T) {
	k := New(Options{})
	k.Bootstrap("main")
	main := k.CurrentThread()

	// Make the incumbent look long-running so a fresh thread preempts it.
	main.tsb.tPred = 1000
	main.tsb.tStart = k.now()

	ran := false
	w := k.NewThread("W")
	w.Fork(func(arg any) {
		ran = true
	}, nil)

	// Fork re-enables interrupts on its way out; that OneTick is the safe
	// point, so by the time Fork returns the preemption has been requested
	// and serviced and W has run.
	if got := k.Stats.PreemptRequests(); got != 1 {
		t.Fatalf("PreemptRequests = %d, want 1", got)
	}
	if k.Interrupt.YieldPending() {
		t.Fatalf("preemption request still latched after the safe point")
	}
	if !ran {
		t.Fatalf("preempting thread did not run at the safe point")
	}
}

func TestStackFencepostIntact(t *testing.T) {
	k := New(Options{})
	k.Bootstrap("main")

	w := k.NewThread("W")
	w.Fork(func(arg any) {
		w.CheckOverflow() // running threads self-check without incident
	}, nil)

	for k.Stats.ThreadsDestroyed() == 0 {
		k.CurrentThread().Yield()
	}
}

func TestCheckOverflowHaltsOnCorruption(t *testing.T) {
	k := New(Options{})
	k.Bootstrap("main")

	w := k.NewThread("W")
	w.stackAllocate(func(any) {}, nil)
	w.stack[0] = 0x00 // stomp the fencepost

	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("CheckOverflow did not halt on a corrupted fencepost")
		}
		if !strings.Contains(r.(string), "fencepost") {
			t.Fatalf("halt reason = %v, want fencepost mismatch", r)
		}
	}()
	w.CheckOverflow()
}

func TestUserStateBracketsContextSwitch(t *testing.T) {
	k := New(Options{})
	k.Bootstrap("main")
	main := k.CurrentThread()
	main.SetSpace(hal.NewAddrSpace(k.Machine))

	k.Machine.WriteRegister(3, 77)

	w := k.NewThread("W")
	w.SetSpace(hal.NewAddrSpace(k.Machine))
	w.Fork(func(arg any) {
		k.Machine.WriteRegister(3, 12345)
	}, nil)

	for k.Stats.ThreadsDestroyed() == 0 {
		k.CurrentThread().Yield()
	}

	// W's scribble was captured into its own register set when it switched
	// out, and main's resumption restored main's value.
	if got := w.userRegisters[3]; got != 12345 {
		t.Fatalf("worker userRegisters[3] = %d, want 12345", got)
	}
	if got := k.Machine.ReadRegister(3); got != 77 {
		t.Fatalf("register 3 after switch back = %d, want 77", got)
	}
}

func TestSelfTestRunsToCompletion(t *testing.T) {
	k := New(Options{})
	k.Bootstrap("main")
	k.SelfTest()

	if got := k.Stats.ThreadsDestroyed(); got != 1 {
		t.Fatalf("ThreadsDestroyed = %d, want 1", got)
	}
}
