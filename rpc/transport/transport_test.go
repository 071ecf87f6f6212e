package transport

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/vectorized/rpc/rpc/common"
	"github.com/vectorized/rpc/rpc/frame"
)

// handlerFunc answers one request frame with a response status and payload.
type handlerFunc func(hdr frame.Header, payload []byte) (frame.Status, []byte)

// startTestServer runs a one-shot accept loop that serves exactly one
// connection with handle, until stop is called.
func startTestServer(t *testing.T, handle handlerFunc) (addr string, stop func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	done := make(chan struct{})
	var connMu sync.Mutex
	var conn net.Conn
	go func() {
		defer close(done)
		c, err := ln.Accept()
		if err != nil {
			return
		}
		connMu.Lock()
		conn = c
		connMu.Unlock()
		defer c.Close()
		for {
			hdr, err := frame.ReadHeader(c)
			if err != nil {
				return
			}
			payload, err := frame.ReadPayload(c, hdr)
			if err != nil {
				return
			}
			status, resp := handle(hdr, payload)
			wire, err := frame.EncodeResponse(hdr.CorrelationID, status, resp, frame.CompressionPolicy{})
			if err != nil {
				return
			}
			if _, err := c.Write(wire); err != nil {
				return
			}
		}
	}()

	return ln.Addr().String(), func() {
		ln.Close()
		connMu.Lock()
		c := conn
		connMu.Unlock()
		if c != nil {
			c.Close()
		}
		<-done
	}
}

func testConfig(addr string) common.Config {
	return common.Config{
		ServerAddr:     addr,
		ConnectTimeout: time.Second,
	}
}

func mustConnect(t *testing.T, tr *Transport) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := tr.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
}

func TestSendPingPong(t *testing.T) {
	addr, stop := startTestServer(t, func(hdr frame.Header, payload []byte) (frame.Status, []byte) {
		if string(payload) != "PING" {
			t.Errorf("expected PING, got %q", payload)
		}
		return frame.StatusSuccess, []byte("PONG")
	})
	defer stop()

	tr := New(testConfig(addr))
	mustConnect(t, tr)
	defer tr.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	resultCtx, err := tr.Send(ctx, 42, []byte("PING"), SendOptions{})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	body := make([]byte, resultCtx.Header.PayloadLength)
	if _, err := resultCtx.Body().Read(body); err != nil {
		t.Fatalf("reading body: %v", err)
	}
	if string(body) != "PONG" {
		t.Fatalf("expected PONG, got %q", body)
	}
	resultCtx.SignalBodyParsed()
}

func TestSendCompressionOverride(t *testing.T) {
	var gotCompression frame.CompressionType
	addr, stop := startTestServer(t, func(hdr frame.Header, payload []byte) (frame.Status, []byte) {
		gotCompression = hdr.Compression
		return frame.StatusSuccess, nil
	})
	defer stop()

	cfg := testConfig(addr)
	cfg.Compression = frame.CompressionPolicy{Type: frame.CompressionNone}
	tr := New(cfg)
	mustConnect(t, tr)
	defer tr.Stop()

	payload := make([]byte, 256)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// With no override, the transport's configured policy (no compression)
	// applies.
	if _, err := tr.Send(ctx, 1, payload, SendOptions{}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotCompression != frame.CompressionNone {
		t.Fatalf("expected no compression without override, got %s", gotCompression)
	}

	// A per-call override takes effect even though the transport's own
	// config still says no compression.
	override := frame.CompressionPolicy{Type: frame.CompressionLZ4, MinBytes: 0}
	if _, err := tr.Send(ctx, 1, payload, SendOptions{Compression: &override}); err != nil {
		t.Fatalf("Send with override: %v", err)
	}
	if gotCompression != frame.CompressionLZ4 {
		t.Fatalf("expected lz4 compression with override, got %s", gotCompression)
	}
}

func TestSendMethodNotFound(t *testing.T) {
	addr, stop := startTestServer(t, func(hdr frame.Header, payload []byte) (frame.Status, []byte) {
		return frame.StatusMethodNotFound, nil
	})
	defer stop()

	tr := New(testConfig(addr))
	mustConnect(t, tr)
	defer tr.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := tr.Send(ctx, 7, []byte("x"), SendOptions{})
	if !errors.Is(err, common.ErrMethodNotFound) {
		t.Fatalf("expected ErrMethodNotFound, got %v", err)
	}
	if tr.State() != StateConnected {
		t.Fatalf("expected transport to remain connected, got %s", tr.State())
	}
}

func TestConcurrentSendsGetOwnReplies(t *testing.T) {
	addr, stop := startTestServer(t, func(hdr frame.Header, payload []byte) (frame.Status, []byte) {
		// Reply with the payload echoed back so the test can tell A from B.
		return frame.StatusSuccess, payload
	})
	defer stop()

	tr := New(testConfig(addr))
	mustConnect(t, tr)
	defer tr.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	type result struct {
		body string
		err  error
	}
	resultsA := make(chan result, 1)
	resultsB := make(chan result, 1)

	go func() {
		rc, err := tr.Send(ctx, 1, []byte("A"), SendOptions{})
		if err != nil {
			resultsA <- result{err: err}
			return
		}
		body := make([]byte, rc.Header.PayloadLength)
		rc.Body().Read(body)
		rc.SignalBodyParsed()
		resultsA <- result{body: string(body)}
	}()
	go func() {
		rc, err := tr.Send(ctx, 2, []byte("B"), SendOptions{})
		if err != nil {
			resultsB <- result{err: err}
			return
		}
		body := make([]byte, rc.Header.PayloadLength)
		rc.Body().Read(body)
		rc.SignalBodyParsed()
		resultsB <- result{body: string(body)}
	}()

	ra := <-resultsA
	rb := <-resultsB
	if ra.err != nil {
		t.Fatalf("A: %v", ra.err)
	}
	if rb.err != nil {
		t.Fatalf("B: %v", rb.err)
	}
	if ra.body != "A" {
		t.Fatalf("expected caller A to get its own response, got %q", ra.body)
	}
	if rb.body != "B" {
		t.Fatalf("expected caller B to get its own response, got %q", rb.body)
	}
}

func TestSendDeadlineExceeded(t *testing.T) {
	addr, stop := startTestServer(t, func(hdr frame.Header, payload []byte) (frame.Status, []byte) {
		time.Sleep(time.Second)
		return frame.StatusSuccess, nil
	})
	defer stop()

	tr := New(testConfig(addr))
	mustConnect(t, tr)
	defer tr.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := tr.Send(ctx, 1, []byte("x"), SendOptions{})
	if !errors.Is(err, common.ErrClientRequestTimeout) {
		t.Fatalf("expected ErrClientRequestTimeout, got %v", err)
	}
}

func TestSendRejectsPayloadOverMemoryBudget(t *testing.T) {
	addr, stop := startTestServer(t, func(hdr frame.Header, payload []byte) (frame.Status, []byte) {
		return frame.StatusSuccess, nil
	})
	defer stop()

	cfg := testConfig(addr)
	cfg.MemoryBudgetBytes = 4
	tr := New(cfg)
	mustConnect(t, tr)
	defer tr.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := tr.Send(ctx, 1, []byte("way too big for the budget"), SendOptions{})
	if !errors.Is(err, common.ErrExceededMemoryBudget) {
		t.Fatalf("expected ErrExceededMemoryBudget, got %v", err)
	}
}

func TestMidRequestSocketCloseResolvesDisconnected(t *testing.T) {
	addr, stop := startTestServer(t, func(hdr frame.Header, payload []byte) (frame.Status, []byte) {
		return frame.StatusSuccess, nil
	})

	tr := New(testConfig(addr))
	mustConnect(t, tr)
	defer tr.Stop()

	// Close the server side without replying to any future requests.
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := tr.Send(ctx, 1, []byte("x"), SendOptions{})
	if !errors.Is(err, common.ErrDisconnectedEndpoint) {
		t.Fatalf("expected ErrDisconnectedEndpoint, got %v", err)
	}

	// A subsequent send must also fail, not hang, once the connection is down.
	_, err = tr.Send(ctx, 1, []byte("x"), SendOptions{})
	if err == nil {
		t.Fatalf("expected an error sending on a disconnected transport")
	}
}
