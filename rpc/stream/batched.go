// Package stream implements the batched output stream that sits between the
// dispatcher and the raw connection. It coalesces consecutive frame writes
// into a single underlying Write call, trading a small amount of latency
// for fewer syscalls under load.
package stream

import (
	"io"
	"net"
)

// DefaultHighWatermark is the buffered-byte threshold past which Write
// flushes eagerly instead of waiting for an explicit Flush call.
const DefaultHighWatermark = 1 << 16 // 64 KiB

// BatchedOutputStream accumulates frame bytes and writes them to the
// underlying connection in as few syscalls as possible. It performs no
// internal locking: this layer is passive, and callers (the dispatcher) are
// responsible for ensuring only one goroutine drives it at a time.
type BatchedOutputStream struct {
	w             io.Writer
	highWatermark int
	pending       net.Buffers
	pendingBytes  int
}

// New returns a BatchedOutputStream writing to w, flushing automatically on
// the first Write after buffered bytes reach highWatermark. A non-positive
// highWatermark selects DefaultHighWatermark.
func New(w io.Writer, highWatermark int) *BatchedOutputStream {
	if highWatermark <= 0 {
		highWatermark = DefaultHighWatermark
	}
	return &BatchedOutputStream{w: w, highWatermark: highWatermark}
}

// Write appends frame to the pending batch, flushing first if the batch has
// already reached the high watermark. frame must not be mutated by the
// caller after this call until the stream flushes it.
func (s *BatchedOutputStream) Write(frame []byte) error {
	if s.pendingBytes >= s.highWatermark {
		if err := s.Flush(); err != nil {
			return err
		}
	}
	s.pending = append(s.pending, frame)
	s.pendingBytes += len(frame)
	return nil
}

// Flush writes out any pending frames as a single vectored write where the
// underlying writer supports it (net.Buffers does so for *net.TCPConn).
func (s *BatchedOutputStream) Flush() error {
	if s.pendingBytes == 0 {
		return nil
	}
	_, err := s.pending.WriteTo(s.w)
	s.pending = nil
	s.pendingBytes = 0
	return err
}

// Pending reports the number of bytes currently buffered and unflushed.
func (s *BatchedOutputStream) Pending() int {
	return s.pendingBytes
}

// Close flushes any pending frames. It does not close the underlying writer.
func (s *BatchedOutputStream) Close() error {
	return s.Flush()
}
