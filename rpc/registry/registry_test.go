package registry

import (
	"errors"
	"sync"
	"testing"

	"github.com/vectorized/rpc/rpc/frame"
)

func TestCompleteDeliversResult(t *testing.T) {
	r := New()
	h := r.Reserve(1)

	hdr := frame.Header{CorrelationID: 1, Meta: uint64(frame.StatusSuccess)}
	ctx := NewStreamingContext(hdr, []byte("pong"))

	if ok := r.Complete(hdr, ctx, nil); !ok {
		t.Fatalf("expected Complete to find the pending call")
	}

	result := h.Wait()
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.Ctx != ctx {
		t.Fatalf("expected the same StreamingContext back")
	}
	if r.Len() != 0 {
		t.Fatalf("expected registry to be empty after Complete, got %d", r.Len())
	}
}

func TestCompleteUnknownCorrelationIDReturnsFalse(t *testing.T) {
	r := New()
	hdr := frame.Header{CorrelationID: 99}
	if ok := r.Complete(hdr, nil, nil); ok {
		t.Fatalf("expected Complete to report no pending call for an unknown correlation ID")
	}
}

func TestCancelResolvesWithError(t *testing.T) {
	r := New()
	h := r.Reserve(2)

	boom := errors.New("client request timeout")
	h.Cancel(boom)

	result := h.Wait()
	if result.Err != boom {
		t.Fatalf("expected cancel error, got %v", result.Err)
	}
	if r.Len() != 0 {
		t.Fatalf("expected registry to be empty after Cancel, got %d", r.Len())
	}
}

func TestExactlyOnceResolutionRace(t *testing.T) {
	r := New()
	h := r.Reserve(3)

	hdr := frame.Header{CorrelationID: 3, Meta: uint64(frame.StatusSuccess)}
	ctx := NewStreamingContext(hdr, nil)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		r.Complete(hdr, ctx, nil)
	}()
	go func() {
		defer wg.Done()
		h.Cancel(errors.New("timeout"))
	}()
	wg.Wait()

	// Exactly one of Complete/Cancel must have resolved the call: Wait
	// returns its single buffered Result, and the channel is then closed
	// and drained, so a second receive must return the zero value.
	_ = h.Wait()
	if v, ok := <-h.s.ch; ok {
		t.Fatalf("expected channel to deliver at most one result, got a second: %+v", v)
	}
}

func TestFailAllResolvesEveryPendingCall(t *testing.T) {
	r := New()
	h1 := r.Reserve(10)
	h2 := r.Reserve(11)

	boom := errors.New("shutting down")
	r.FailAll(boom)

	if res := h1.Wait(); res.Err != boom {
		t.Fatalf("expected shutdown error for handle 1, got %v", res.Err)
	}
	if res := h2.Wait(); res.Err != boom {
		t.Fatalf("expected shutdown error for handle 2, got %v", res.Err)
	}
	if r.Len() != 0 {
		t.Fatalf("expected registry empty after FailAll, got %d", r.Len())
	}
}
