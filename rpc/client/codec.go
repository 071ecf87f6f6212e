package client

import (
	"context"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/vectorized/rpc/rpc/common"
	"github.com/vectorized/rpc/rpc/frame"
	"github.com/vectorized/rpc/rpc/transport"
)

// Encoder serializes a value of type T into a request payload. Callers
// supply their own implementation (JSON, Gob, a custom binary format, or a
// generated codec); the transport treats the result as an opaque byte
// slice.
type Encoder[T any] interface {
	Encode(v T) ([]byte, error)
}

// Decoder parses a response payload of type T from r. hdr is the response
// frame's header, in case a decoder wants to branch on metadata beyond the
// status (a non-success status has already been turned into an error by the
// transport, so Decode only ever sees success responses).
type Decoder[T any] interface {
	Decode(r io.Reader, hdr frame.Header, v *T) error
}

// SendTyped serializes req with enc, issues it over tr as methodID, and
// parses the response with dec. It signals the streaming context's body as
// parsed before returning, whatever the outcome, so the transport's receive
// loop bookkeeping stays consistent even on a decode error.
func SendTyped[In, Out any](ctx context.Context, tr *transport.Transport, methodID uint32, req In, enc Encoder[In], dec Decoder[Out], opts transport.SendOptions) (Out, error) {
	var zero Out

	payload, err := enc.Encode(req)
	if err != nil {
		return zero, err
	}

	sc, err := tr.Send(ctx, methodID, payload, opts)
	if err != nil {
		return zero, err
	}
	defer sc.SignalBodyParsed()

	var out Out
	if err := dec.Decode(sc.Body(), sc.Header, &out); err != nil {
		return zero, errors.Wrapf(common.ErrServiceError, "decode response for method %d: %v", methodID, err)
	}
	return out, nil
}
