package kernel

import "testing"

func queueOf(keys ...float64) (*readyQueue, []*ThreadSchedulingBlock) {
	q := &readyQueue{}
	blocks := make([]*ThreadSchedulingBlock, len(keys))
	for i, key := range keys {
		blocks[i] = &ThreadSchedulingBlock{tKey: key}
		q.Insert(blocks[i])
	}
	return q, blocks
}

func TestOrderedByKey(t *testing.T) {
	q, _ := queueOf(30, 10, 20)

	want := []float64{10, 20, 30}
	for i, w := range want {
		b := q.RemoveFront()
		if b.tKey != w {
			t.Fatalf("RemoveFront %d key = %v, want %v", i, b.tKey, w)
		}
	}
	if !q.IsEmpty() {
		t.Fatalf("queue not empty after draining")
	}
}

func TestEqualKeysAreFIFO(t *testing.T) {
	q, blocks := queueOf(5, 5, 1, 5)

	if got := q.RemoveFront(); got != blocks[2] {
		t.Fatalf("front is not the smallest-keyed block")
	}
	for i, want := range []*ThreadSchedulingBlock{blocks[0], blocks[1], blocks[3]} {
		if got := q.RemoveFront(); got != want {
			t.Fatalf("equal-key pop %d = seq %d, want seq %d", i, got.seq, want.seq)
		}
	}
}

func TestReinsertionGoesBehindEqualKeys(t *testing.T) {
	q, blocks := queueOf(7, 7)

	first := q.RemoveFront()
	if first != blocks[0] {
		t.Fatalf("front = seq %d, want seq %d", first.seq, blocks[0].seq)
	}
	q.Insert(first)
	if got := q.RemoveFront(); got != blocks[1] {
		t.Fatalf("re-inserted block jumped ahead of its equal-keyed peer")
	}
}

func TestInterleavedInsertRemove(t *testing.T) {
	q := &readyQueue{}
	q.Insert(&ThreadSchedulingBlock{tKey: 50})
	q.Insert(&ThreadSchedulingBlock{tKey: 40})
	if got := q.RemoveFront().tKey; got != 40 {
		t.Fatalf("front key = %v, want 40", got)
	}
	q.Insert(&ThreadSchedulingBlock{tKey: 10})
	q.Insert(&ThreadSchedulingBlock{tKey: 60})
	for _, want := range []float64{10, 50, 60} {
		if got := q.RemoveFront().tKey; got != want {
			t.Fatalf("front key = %v, want %v", got, want)
		}
	}
	if q.Len() != 0 {
		t.Fatalf("Len = %d, want 0", q.Len())
	}
}
