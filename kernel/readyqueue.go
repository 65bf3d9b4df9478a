package kernel

import "sort"

// readyQueue is the ordered sequence of runnable scheduling blocks, sorted
// ascending by (key, insertion sequence). The key is fixed at insertion, so
// a plain sorted slice is enough; nothing re-sorts on the fly.
type readyQueue struct {
	items []*ThreadSchedulingBlock
	seq   uint64
}

// Insert places b behind every block with a key less than or equal to its
// own, preserving FIFO order among equal keys.
func (q *readyQueue) Insert(b *ThreadSchedulingBlock) {
	b.seq = q.seq
	q.seq++

	pos := sort.Search(len(q.items), func(i int) bool {
		return q.items[i].tKey > b.tKey
	})
	q.items = append(q.items, nil)
	copy(q.items[pos+1:], q.items[pos:])
	q.items[pos] = b
}

// RemoveFront pops the smallest-keyed block. The queue must not be empty.
func (q *readyQueue) RemoveFront() *ThreadSchedulingBlock {
	b := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return b
}

// IsEmpty reports whether no blocks are queued.
func (q *readyQueue) IsEmpty() bool { return len(q.items) == 0 }

// Len returns the number of queued blocks.
func (q *readyQueue) Len() int { return len(q.items) }

// snapshot copies the current ordering, for debug dumps.
func (q *readyQueue) snapshot() []*ThreadSchedulingBlock {
	out := make([]*ThreadSchedulingBlock, len(q.items))
	copy(out, q.items)
	return out
}
