package probe

import (
	"bytes"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func zeroInFlight() int64 { return 0 }

func TestDisabledProbeIsNoOp(t *testing.T) {
	p := New("disabled-test", true, zeroInFlight)

	// None of these should panic even though no metrics.Set was built.
	p.RequestSent(128)
	p.ResponseReceived(64, time.Millisecond, true)
	p.Timeout()
	p.Error("corrupted_header")
	p.ConnectionReset()
	p.AddMemoryHeld(1024)
	p.SetConnected(true)
	p.Unregister()
}

func TestEnabledProbeTracksGauges(t *testing.T) {
	p := New("gauge-test", false, zeroInFlight)
	defer p.Unregister()

	p.AddMemoryHeld(1000)
	p.AddMemoryHeld(-200)
	if got := p.memoryHeld; got != 800 {
		t.Fatalf("memoryHeld = %d, want 800", got)
	}

	p.SetConnected(true)
	if got := p.connected; got != 1 {
		t.Fatalf("connected = %d, want 1", got)
	}
	p.SetConnected(false)
	if got := p.connected; got != 0 {
		t.Fatalf("connected = %d, want 0", got)
	}
}

func TestInFlightGaugeTracksCallback(t *testing.T) {
	var pending int64
	p := New("inflighttest", false, func() int64 { return atomic.LoadInt64(&pending) })
	defer p.Unregister()

	atomic.StoreInt64(&pending, 3)
	var buf bytes.Buffer
	p.set.WritePrometheus(&buf)
	if !strings.Contains(buf.String(), "rpc_client_inflighttest_in_flight 3") {
		t.Fatalf("expected gauge to report 3 in-flight, got:\n%s", buf.String())
	}

	atomic.StoreInt64(&pending, 0)
	buf.Reset()
	p.set.WritePrometheus(&buf)
	if !strings.Contains(buf.String(), "rpc_client_inflighttest_in_flight 0") {
		t.Fatalf("expected gauge to report 0 in-flight after it drains, got:\n%s", buf.String())
	}
}

func TestErrorsByKindCreatesDistinctCounters(t *testing.T) {
	p := New("errors-test", false, zeroInFlight)
	defer p.Unregister()

	p.Error("corrupted_header")
	p.Error("corrupted_header")
	p.Error("method_not_found")

	if got := p.errorsByKind("corrupted_header").Get(); got != 2 {
		t.Fatalf("corrupted_header count = %d, want 2", got)
	}
	if got := p.errorsByKind("method_not_found").Get(); got != 1 {
		t.Fatalf("method_not_found count = %d, want 1", got)
	}
}
