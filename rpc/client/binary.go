package client

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/vectorized/rpc/rpc/frame"
)

// Ping is a small demo request used by this package's own round-trip tests,
// standing in for the arbitrary request types a real caller would define.
type Ping struct {
	Sequence uint32
	Message  string
}

// Pong is Ping's matching response.
type Pong struct {
	Sequence uint32
	Message  string
}

// Bit flags for PingPongCodec's wire format, a flag-byte scheme for
// optional string fields.
const (
	pingHasMessage byte = 1 << 0
)

// PingPongCodec implements Encoder[Ping]/Decoder[Ping] (PongCodec covers
// Pong) with a small fixed binary format: a 4-byte
// sequence number, a flags byte, and an optional length-prefixed message. A
// fully generic zero-allocation binary codec for arbitrary T is outside
// this transport's concern; callers wanting that supply their own Encoder/
// Decoder over the same frame payload.
type PingPongCodec struct{}

func (PingPongCodec) Encode(v Ping) ([]byte, error) {
	return encodePingPong(v.Sequence, v.Message), nil
}

func (PingPongCodec) Decode(r io.Reader, hdr frame.Header, v *Ping) error {
	seq, msg, err := decodePingPong(r)
	if err != nil {
		return err
	}
	v.Sequence = seq
	v.Message = msg
	return nil
}

// PongCodec decodes the Pong side of the exchange. It is separate from
// PingPongCodec because Go generics key an Encoder/Decoder by the type
// parameter, and Ping and Pong are distinct types despite sharing a wire
// format.
type PongCodec struct{}

func (PongCodec) Encode(v Pong) ([]byte, error) {
	return encodePingPong(v.Sequence, v.Message), nil
}

func (PongCodec) Decode(r io.Reader, hdr frame.Header, v *Pong) error {
	seq, msg, err := decodePingPong(r)
	if err != nil {
		return err
	}
	v.Sequence = seq
	v.Message = msg
	return nil
}

func encodePingPong(seq uint32, msg string) []byte {
	size := 5
	var flags byte
	if msg != "" {
		flags |= pingHasMessage
		size += 4 + len(msg)
	}

	out := make([]byte, size)
	binary.BigEndian.PutUint32(out[0:4], seq)
	out[4] = flags
	if flags&pingHasMessage != 0 {
		binary.BigEndian.PutUint32(out[5:9], uint32(len(msg)))
		copy(out[9:], msg)
	}
	return out
}

func decodePingPong(r io.Reader) (uint32, string, error) {
	head := make([]byte, 5)
	if _, err := io.ReadFull(r, head); err != nil {
		return 0, "", err
	}
	seq := binary.BigEndian.Uint32(head[0:4])
	flags := head[4]

	if flags&pingHasMessage == 0 {
		return seq, "", nil
	}

	lenBuf := make([]byte, 4)
	if _, err := io.ReadFull(r, lenBuf); err != nil {
		return 0, "", fmt.Errorf("ping/pong: reading message length: %w", err)
	}
	msgLen := binary.BigEndian.Uint32(lenBuf)
	msgBuf := make([]byte, msgLen)
	if msgLen > 0 {
		if _, err := io.ReadFull(r, msgBuf); err != nil {
			return 0, "", fmt.Errorf("ping/pong: reading message: %w", err)
		}
	}
	return seq, string(msgBuf), nil
}
