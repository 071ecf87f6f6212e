package queue

import (
	"bytes"
	"testing"
)

func frameFor(n int) []byte {
	return []byte{byte(n)}
}

func TestSubmitInOrderReleasesImmediately(t *testing.T) {
	q := New(0)
	for i := 0; i < 3; i++ {
		out := q.Submit(uint64(i), frameFor(i))
		if len(out) != 1 || !bytes.Equal(out[0], frameFor(i)) {
			t.Fatalf("seq %d: expected immediate release, got %v", i, out)
		}
	}
	if q.Len() != 0 {
		t.Fatalf("expected empty queue, got %d pending", q.Len())
	}
}

func TestSubmitOutOfOrderBuffersUntilGapCloses(t *testing.T) {
	q := New(0)

	out := q.Submit(2, frameFor(2))
	if out != nil {
		t.Fatalf("seq 2 arriving before 0 and 1 must not release, got %v", out)
	}
	out = q.Submit(1, frameFor(1))
	if out != nil {
		t.Fatalf("seq 1 arriving before 0 must not release, got %v", out)
	}
	if q.Len() != 2 {
		t.Fatalf("expected 2 pending entries, got %d", q.Len())
	}

	out = q.Submit(0, frameFor(0))
	want := [][]byte{frameFor(0), frameFor(1), frameFor(2)}
	if len(out) != len(want) {
		t.Fatalf("expected 3 frames released in order, got %d", len(out))
	}
	for i := range want {
		if !bytes.Equal(out[i], want[i]) {
			t.Fatalf("frame %d mismatch: got %v want %v", i, out[i], want[i])
		}
	}
	if q.Len() != 0 {
		t.Fatalf("expected empty queue after the gap closes, got %d", q.Len())
	}
	if q.NextSeq() != 3 {
		t.Fatalf("expected next sequence 3, got %d", q.NextSeq())
	}
}

func TestNewStartsAtGivenSequence(t *testing.T) {
	q := New(5)
	if q.NextSeq() != 5 {
		t.Fatalf("expected next sequence 5, got %d", q.NextSeq())
	}
	out := q.Submit(5, frameFor(5))
	if len(out) != 1 {
		t.Fatalf("expected immediate release at the starting sequence")
	}
}
