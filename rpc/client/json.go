package client

import (
	"encoding/json"
	"io"

	"github.com/vectorized/rpc/rpc/frame"
)

// JSONCodec implements Encoder[T] and Decoder[T] using encoding/json.
type JSONCodec[T any] struct{}

func (JSONCodec[T]) Encode(v T) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec[T]) Decode(r io.Reader, hdr frame.Header, v *T) error {
	return json.NewDecoder(r).Decode(v)
}
