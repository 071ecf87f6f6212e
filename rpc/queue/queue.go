// Package queue implements the in-flight request queue: requests are
// assigned a monotonic sequence number once their frame has been encoded,
// and the queue releases their encoded frames to the output stream strictly
// in that order, even though the goroutines submitting them may reach the
// queue out of order.
package queue

import "container/heap"

type entry struct {
	seq   uint64
	frame []byte
}

type seqHeap []entry

func (h seqHeap) Len() int            { return len(h) }
func (h seqHeap) Less(i, j int) bool  { return h[i].seq < h[j].seq }
func (h seqHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *seqHeap) Push(x interface{}) { *h = append(*h, x.(entry)) }
func (h *seqHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// Queue orders ready frames by sequence number and releases them only once
// every earlier sequence number has been released, so that encoding races
// never reorder frames on the wire. It usually holds only a handful of
// entries: requests complete serialization quickly relative to how often
// new ones are submitted.
type Queue struct {
	nextSeq uint64
	heap    seqHeap
}

// New returns an empty Queue whose first accepted sequence number is
// startSeq.
func New(startSeq uint64) *Queue {
	return &Queue{nextSeq: startSeq}
}

// Submit records the encoded frame for seq and returns the run of
// contiguous ready frames, in order, starting from the queue's current
// expected sequence number, if seq happens to complete that run. Otherwise
// it returns nil and the frame waits in the queue until the gap is filled.
func (q *Queue) Submit(seq uint64, frame []byte) [][]byte {
	heap.Push(&q.heap, entry{seq: seq, frame: frame})

	var out [][]byte
	for q.heap.Len() > 0 && q.heap[0].seq == q.nextSeq {
		top := heap.Pop(&q.heap).(entry)
		out = append(out, top.frame)
		q.nextSeq++
	}
	return out
}

// Len reports the number of entries waiting for an earlier gap to close.
func (q *Queue) Len() int {
	return q.heap.Len()
}

// NextSeq reports the sequence number the queue is waiting on next.
func (q *Queue) NextSeq() uint64 {
	return q.nextSeq
}
