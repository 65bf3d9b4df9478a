package kernel

import "testing"

func TestPredictionSmoothing(t *testing.T) {
	b := &ThreadSchedulingBlock{}

	// Forked at tick 0, runs 100 ticks, blocks.
	b.beginRun(0)
	b.chargeBlock(100)
	if b.tPred != 50 {
		t.Fatalf("tPred = %v, want 50", b.tPred)
	}
	if b.tKey != 50 {
		t.Fatalf("tKey = %v, want 50", b.tKey)
	}
	if b.T != 0 {
		t.Fatalf("T = %v, want 0", b.T)
	}

	// Woken at tick 200, runs 20 ticks, blocks at 220.
	b.beginRun(200)
	b.chargeBlock(220)
	if b.tPred != 35 {
		t.Fatalf("tPred = %v, want 35", b.tPred)
	}
	if b.tKey != 35 {
		t.Fatalf("tKey = %v, want 35", b.tKey)
	}
}

func TestZeroBurstHalvesPrediction(t *testing.T) {
	b := &ThreadSchedulingBlock{tPred: 80, tKey: 80}

	b.beginRun(500)
	b.chargeBlock(500)
	if b.tPred != 40 {
		t.Fatalf("tPred = %v, want 40", b.tPred)
	}
}

func TestYieldKeyIsClampedRemainder(t *testing.T) {
	b := &ThreadSchedulingBlock{tPred: 100}

	b.beginRun(0)
	b.chargeYield(30)
	if b.T != 30 {
		t.Fatalf("T = %v, want 30", b.T)
	}
	if b.tKey != 70 {
		t.Fatalf("tKey = %v, want 70", b.tKey)
	}

	// Overrunning the prediction floors the key at zero but keeps charging T.
	b.beginRun(40)
	b.chargeYield(150)
	if b.T != 140 {
		t.Fatalf("T = %v, want 140", b.T)
	}
	if b.tKey != 0 {
		t.Fatalf("tKey = %v, want 0", b.tKey)
	}
}

func TestLiveKeyIsUnclampedAndMonotonic(t *testing.T) {
	b := &ThreadSchedulingBlock{tPred: 100}
	b.beginRun(0)

	prev := b.liveKey(0)
	for _, now := range []float64{10, 40, 90, 100, 130} {
		k := b.liveKey(now)
		if k > prev {
			t.Fatalf("liveKey(%v) = %v, above previous %v", now, k, prev)
		}
		prev = k
	}
	if got := b.liveKey(130); got != -30 {
		t.Fatalf("liveKey(130) = %v, want -30", got)
	}
}
