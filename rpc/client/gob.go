package client

import (
	"bytes"
	"encoding/gob"
	"io"

	"github.com/vectorized/rpc/rpc/frame"
)

// GobCodec implements Encoder[T] and Decoder[T] using encoding/gob.
type GobCodec[T any] struct{}

func (GobCodec[T]) Encode(v T) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (GobCodec[T]) Decode(r io.Reader, hdr frame.Header, v *T) error {
	return gob.NewDecoder(r).Decode(v)
}
