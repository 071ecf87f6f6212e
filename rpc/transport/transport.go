package transport

import (
	"context"
	"crypto/tls"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lni/dragonboat/v4/logger"
	"golang.org/x/sync/semaphore"

	"github.com/vectorized/rpc/rpc/common"
	"github.com/vectorized/rpc/rpc/frame"
	"github.com/vectorized/rpc/rpc/probe"
	"github.com/vectorized/rpc/rpc/queue"
	"github.com/vectorized/rpc/rpc/registry"
	"github.com/vectorized/rpc/rpc/stream"
)

var log = logger.GetLogger("rpc/transport")

// State is the transport's connection state machine.
//
//	disconnected --Connect()--> connecting --ok--> connected
//	        \                         \--err--> closed
//	         \--Stop()--> closed
//	connected --socket EOF--> closing --fail-all--> closed
//	connected --Stop()--> closing --> closed
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// SendOptions customizes one Send call.
type SendOptions struct {
	// MaxReservation, if non-zero, is the byte reservation this call is
	// allowed to request against the memory semaphore. Zero selects
	// len(payload). If the resulting reservation is larger than the
	// configured memory budget outright, Send fails with
	// ErrExceededMemoryBudget without ever touching the semaphore.
	MaxReservation int64

	// Compression, if non-nil, overrides the transport's configured
	// compression policy for this call only. Nil falls back to the
	// transport's cfg.Compression.
	Compression *frame.CompressionPolicy
}

// compressionPolicy resolves the effective compression policy for one Send
// call: the per-call override in opts if present, otherwise the transport's
// configured default.
func (t *Transport) compressionPolicy(opts SendOptions) frame.CompressionPolicy {
	if opts.Compression != nil {
		return *opts.Compression
	}
	return t.cfg.Compression
}

// Transport is one client connection to a remote endpoint. The zero value
// is not usable; construct with New.
type Transport struct {
	cfg   common.Config
	probe *probe.Probe

	state atomic.Int32

	connMu sync.Mutex
	conn   net.Conn
	out    *stream.BatchedOutputStream

	reg *registry.Registry
	sem *semaphore.Weighted

	queueMu sync.Mutex
	q       *queue.Queue

	nextCorrelationID atomic.Uint32
	nextSeq           atomic.Uint64

	sendGate  gate
	done      chan struct{}
	started   atomic.Bool
	closeOnce sync.Once
}

// New constructs a Transport from cfg. Call Connect before Send.
func New(cfg common.Config) *Transport {
	reg := registry.New()
	t := &Transport{
		cfg:  cfg,
		reg:  reg,
		sem:  semaphore.NewWeighted(cfg.MemoryBudget()),
		q:    queue.New(0),
		done: make(chan struct{}),
	}
	t.probe = probe.New(cfg.ServerAddr, cfg.DisableMetrics, func() int64 { return int64(reg.Len()) })
	return t
}

// State reports the transport's current connection state.
func (t *Transport) State() State {
	return State(t.state.Load())
}

// Connect opens the TCP connection, optionally wraps it in TLS, and starts
// the receive loop. It must be called at most once per Transport.
func (t *Transport) Connect(ctx context.Context) error {
	if !t.state.CompareAndSwap(int32(StateDisconnected), int32(StateConnecting)) {
		return errors.New("transport: Connect called more than once")
	}

	connectCtx := ctx
	if t.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, t.cfg.ConnectTimeout)
		defer cancel()
	}

	dialer := net.Dialer{}
	conn, err := dialer.DialContext(connectCtx, "tcp", t.cfg.ServerAddr)
	if err != nil {
		t.state.Store(int32(StateClosed))
		return errors.Wrapf(common.ErrDisconnectedEndpoint, "dial %s: %v", t.cfg.ServerAddr, err)
	}

	if t.cfg.TLS.Enabled() {
		tlsConf := t.cfg.TLS.Config.Clone()
		if t.cfg.TLS.SNIHostname != "" {
			tlsConf.ServerName = t.cfg.TLS.SNIHostname
		}
		tlsConn := tls.Client(conn, tlsConf)
		if err := tlsConn.HandshakeContext(connectCtx); err != nil {
			conn.Close()
			t.state.Store(int32(StateClosed))
			return errors.Wrapf(common.ErrTLSError, "handshake with %s: %v", t.cfg.ServerAddr, err)
		}
		conn = tlsConn
	}

	t.connMu.Lock()
	t.conn = conn
	t.out = stream.New(conn, t.cfg.FlushWatermark())
	t.connMu.Unlock()

	t.probe.SetConnected(true)
	t.state.Store(int32(StateConnected))
	log.Infof("connected to %s", t.cfg.ServerAddr)

	t.started.Store(true)
	go t.receiveLoop()
	return nil
}

// Send submits payload to method methodID and blocks until the response
// arrives, the deadline on ctx expires, or the transport fails. Exactly one
// of (StreamingContext, error) is returned.
func (t *Transport) Send(ctx context.Context, methodID uint32, payload []byte, opts SendOptions) (*registry.StreamingContext, error) {
	if !t.sendGate.Enter() {
		return nil, common.ErrShuttingDown
	}
	defer t.sendGate.Leave()

	if t.State() != StateConnected {
		return nil, common.ErrDisconnectedEndpoint
	}

	if t.cfg.RequestTimeout > 0 {
		if _, hasDeadline := ctx.Deadline(); !hasDeadline {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, t.cfg.RequestTimeout)
			defer cancel()
		}
	}

	reservation := int64(len(payload))
	if opts.MaxReservation > 0 {
		reservation = opts.MaxReservation
	}
	if reservation > t.cfg.MemoryBudget() {
		return nil, common.ErrExceededMemoryBudget
	}

	if err := t.sem.Acquire(ctx, reservation); err != nil {
		t.probe.Timeout()
		return nil, errors.Wrapf(common.ErrClientRequestTimeout, "acquire memory budget: %v", err)
	}
	t.probe.AddMemoryHeld(reservation)
	release := func() {
		t.sem.Release(reservation)
		t.probe.AddMemoryHeld(-reservation)
	}

	correlationID := t.nextCorrelationID.Add(1)
	handle := t.reg.Reserve(correlationID)

	wire, err := frame.EncodeRequest(correlationID, methodID, 0, payload, t.compressionPolicy(opts))
	if err != nil {
		handle.Cancel(err)
		release()
		return nil, err
	}

	// seq is assigned only now, after encoding succeeded: assigning it
	// earlier and then failing to encode would leave a permanent gap in the
	// in-flight queue, since nothing would ever submit that sequence number
	// and every later one would wait on it forever.
	seq := t.nextSeq.Add(1) - 1

	if err := t.dispatchSend(seq, wire); err != nil {
		handle.Cancel(err)
		release()
		return nil, err
	}
	t.probe.RequestSent(len(wire))

	start := time.Now()
	select {
	case res := <-handle.Done():
		release()
		if res.Err != nil {
			t.probe.Error(errc(res.Err))
			return nil, res.Err
		}
		t.probe.ResponseReceived(int(res.Ctx.Header.PayloadLength), time.Since(start), true)
		return res.Ctx, nil
	case <-ctx.Done():
		handle.Cancel(common.ErrClientRequestTimeout)
		release()
		t.probe.Timeout()
		return nil, common.ErrClientRequestTimeout
	}
}

// dispatchSend submits seq's encoded frame to the in-flight queue and writes
// out every now-contiguous run of frames the submission completed, flushing
// once per drain. A goroutine that finds the queue locked simply waits its
// turn rather than returning early, since the in-flight queue is expected to
// hold only a handful of entries at once.
func (t *Transport) dispatchSend(seq uint64, wire []byte) error {
	t.queueMu.Lock()
	defer t.queueMu.Unlock()

	ready := t.q.Submit(seq, wire)
	if len(ready) == 0 {
		return nil
	}

	t.connMu.Lock()
	out := t.out
	t.connMu.Unlock()
	if out == nil {
		return common.ErrDisconnectedEndpoint
	}

	for _, f := range ready {
		if err := out.Write(f); err != nil {
			return errors.Wrap(common.ErrDisconnectedEndpoint, err.Error())
		}
	}
	if err := out.Flush(); err != nil {
		return errors.Wrap(common.ErrDisconnectedEndpoint, err.Error())
	}
	return nil
}

// receiveLoop reads frames until the connection is closed or a framing
// error is detected. It is started once, from Connect, and exits by closing
// t.done.
func (t *Transport) receiveLoop() {
	defer close(t.done)

	for {
		t.connMu.Lock()
		conn := t.conn
		t.connMu.Unlock()
		if conn == nil {
			return
		}

		hdr, err := frame.ReadHeader(conn)
		if err != nil {
			if errors.Is(err, frame.ErrHeaderChecksumMismatch) || errors.Is(err, frame.ErrUnsupportedVersion) {
				t.failConnection(common.ErrCorruptedHeader)
			} else {
				t.failConnection(common.ErrDisconnectedEndpoint)
			}
			return
		}

		payload, err := frame.ReadPayload(conn, hdr)
		if err != nil {
			t.failConnection(common.ErrCorruptedPayload)
			return
		}

		if hdr.Status() != frame.StatusSuccess {
			mapped := common.FromStatus(hdr.Status())
			if !t.reg.Complete(hdr, nil, mapped) {
				log.Debugf("dropping late reply (status %s) for correlation id %d", hdr.Status(), hdr.CorrelationID)
			}
			t.probe.Error(errc(mapped))
			continue
		}

		ctx := registry.NewStreamingContext(hdr, payload)
		if !t.reg.Complete(hdr, ctx, nil) {
			log.Debugf("dropping late reply for correlation id %d", hdr.CorrelationID)
		}
	}
}

// failConnection transitions to closed, fails every outstanding call with
// ErrDisconnectedEndpoint, and tears down the socket; err, the specific
// cause, is only logged. It is the common path for both framing errors and
// a plain EOF.
func (t *Transport) failConnection(err error) {
	t.state.Store(int32(StateClosing))
	t.reg.FailAll(common.ErrDisconnectedEndpoint)
	t.probe.SetConnected(false)
	t.probe.ConnectionReset()

	t.connMu.Lock()
	if t.conn != nil {
		t.conn.Close()
	}
	t.connMu.Unlock()

	t.state.Store(int32(StateClosed))
	log.Warningf("transport to %s closed: %v", t.cfg.ServerAddr, err)
}

// Stop rejects new sends and waits for every Send already admitted to
// return (by its response, its deadline, or a connection failure), then
// fails any calls still registered, closes the socket, waits for the
// receive loop to exit, and releases the transport's resources. It is safe
// to call more than once; only the first call does any work.
func (t *Transport) Stop() error {
	t.closeOnce.Do(func() {
		t.sendGate.Close()
		t.state.Store(int32(StateClosing))
		t.reg.FailAll(common.ErrDisconnectedEndpoint)

		t.connMu.Lock()
		conn := t.conn
		t.connMu.Unlock()
		if conn != nil {
			conn.Close()
		}

		if t.started.Load() {
			<-t.done
		}
		t.state.Store(int32(StateClosed))
		t.probe.SetConnected(false)
		t.probe.Unregister()
	})
	return nil
}

// Shutdown is the immediate variant of Stop: it cancels the socket without
// waiting for the receive loop to observe the close. Safe to call from a
// signal handler. Also idempotent and mutually exclusive with Stop.
func (t *Transport) Shutdown() error {
	t.closeOnce.Do(func() {
		t.state.Store(int32(StateClosed))
		t.reg.FailAll(common.ErrDisconnectedEndpoint)

		t.connMu.Lock()
		conn := t.conn
		t.connMu.Unlock()
		if conn != nil {
			conn.Close()
		}

		// Outstanding calls are already failed and the socket is closed, so
		// admitted sends return promptly and this wait is short.
		t.sendGate.Close()
		t.probe.SetConnected(false)
		t.probe.Unregister()
	})
	return nil
}

// errc summarizes an error for the probe's errors-by-kind label.
func errc(err error) string {
	return common.Code(err).String()
}
