// Package registry implements the response handler registry: the map from a
// correlation ID to the pending call waiting on it, with exactly-once
// resolution between a response arriving and the call's deadline expiring.
package registry

import (
	"bytes"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/vectorized/rpc/rpc/frame"
)

// StreamingContext wraps the decompressed, fully-read body of one response
// frame. The receive loop has already read, checksummed, and decompressed
// the payload before a StreamingContext is ever constructed; the memory
// semaphore, not this type, is what bounds how much unread data can
// accumulate.
type StreamingContext struct {
	Header frame.Header
	body   *bytes.Reader
	once   sync.Once
}

// NewStreamingContext wraps payload as the body of a response frame
// described by hdr.
func NewStreamingContext(hdr frame.Header, payload []byte) *StreamingContext {
	return &StreamingContext{Header: hdr, body: bytes.NewReader(payload)}
}

// Body returns an io.Reader over the response payload. It may be called at
// most once with useful results; a caller that never reads the body must
// still call SignalBodyParsed.
func (s *StreamingContext) Body() *bytes.Reader {
	return s.body
}

// SignalBodyParsed marks this response's body as consumed. Kept as a
// capability callers are expected to invoke even though nothing currently
// blocks on it, since decoupling frame reads from body parsing is
// unnecessary once the whole payload is already in memory.
func (s *StreamingContext) SignalBodyParsed() {
	s.once.Do(func() {})
}

// Result is what a pending call resolves to: either a parsed response, or an
// error drawn from the common error taxonomy.
type Result struct {
	Ctx *StreamingContext
	Err error
}

// slot is one in-flight call's resolution point. resolve is safe to call
// from at most one winner of the response-vs-timeout race; later calls are
// no-ops.
type slot struct {
	ch       chan Result
	resolved sync.Once
}

func (s *slot) resolve(r Result) {
	s.resolved.Do(func() {
		s.ch <- r
		close(s.ch)
	})
}

// Registry maps correlation IDs to pending calls. It is safe for concurrent
// use: Reserve is called by each caller's own goroutine, Complete by the
// transport's single receive-loop goroutine, and Cancel by whichever
// goroutine's deadline fires first.
type Registry struct {
	slots *xsync.MapOf[uint32, *slot]
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{slots: xsync.NewMapOf[uint32, *slot]()}
}

// Handle is returned by Reserve; call Wait on it to block for the result and
// Cancel to abandon it (e.g. because the caller's context was done).
type Handle struct {
	id uint32
	r  *Registry
	s  *slot
}

// Reserve allocates a pending slot for correlationID. It must be called
// before the request frame carrying that correlation ID is written, so that
// a response racing ahead of the caller can never arrive to find no slot
// registered.
func (r *Registry) Reserve(correlationID uint32) *Handle {
	s := &slot{ch: make(chan Result, 1)}
	r.slots.Store(correlationID, s)
	return &Handle{id: correlationID, r: r, s: s}
}

// Wait blocks until the call is resolved, either by Complete or by Cancel,
// and returns the result.
func (h *Handle) Wait() Result {
	return <-h.s.ch
}

// Done returns the channel the call's Result will arrive on, for callers
// that need to select between it and a context's cancellation.
func (h *Handle) Done() <-chan Result {
	return h.s.ch
}

// Cancel resolves the call with err (typically ErrClientRequestTimeout or a
// context error) if nothing has resolved it yet, and removes its slot from
// the registry. It is safe to call even if Complete has already run.
func (h *Handle) Cancel(err error) {
	h.r.slots.Delete(h.id)
	h.s.resolve(Failure(err))
}

// Complete resolves the pending call for hdr.CorrelationID. If hdr's status
// is not success, ctx must be nil and err carries the mapped error; no body
// parse occurs for a non-success response. Complete reports whether a
// pending call was found; a false return means the correlation ID was
// unknown (already timed out, or never existed) and the caller should log
// and drop the response rather than treat it as a framing error.
func (r *Registry) Complete(hdr frame.Header, ctx *StreamingContext, err error) bool {
	s, ok := r.slots.LoadAndDelete(hdr.CorrelationID)
	if !ok {
		return false
	}
	if err != nil {
		s.resolve(Failure(err))
	} else {
		s.resolve(Success(ctx))
	}
	return true
}

// FailAll resolves every still-pending call with err and empties the
// registry. Used when the transport disconnects or shuts down.
func (r *Registry) FailAll(err error) {
	r.slots.Range(func(id uint32, s *slot) bool {
		r.slots.Delete(id)
		s.resolve(Failure(err))
		return true
	})
}

// Len reports the number of calls currently pending.
func (r *Registry) Len() int {
	return r.slots.Size()
}

// Success returns a Result wrapping ctx with no error, for convenience at
// call sites that build a Result after a successful decode.
func Success(ctx *StreamingContext) Result {
	return Result{Ctx: ctx}
}

// Failure returns a Result carrying err, drawn from the common error
// taxonomy (see rpc/common).
func Failure(err error) Result {
	return Result{Err: err}
}
