// Package frame implements the wire framing for the RPC transport: a
// fixed-size header followed by an optionally-compressed payload.
//
// Frame layout (little-endian):
//
//	offset  size  field
//	0       1     version
//	1       1     header checksum type
//	2       4     compression tag
//	6       4     payload length (post-compression)
//	10      8     metadata (request: flags, response: status code)
//	18      4     correlation ID
//	22      4     header CRC32 over bytes [0, 22)
//	26      4     payload CRC32
//	30      4     method ID (requests only, zero on responses)
//	34      N     payload
package frame

import (
	"encoding/binary"
)

// HeaderSize is the fixed on-wire size of a frame header, in bytes.
const HeaderSize = 34

// Version is the only wire version this package encodes and understands.
const Version byte = 1

// ChecksumCRC32IEEE is the only header checksum type this package supports.
const ChecksumCRC32IEEE byte = 0

// CompressionType identifies the payload compression algorithm applied to a frame.
type CompressionType uint32

const (
	CompressionNone CompressionType = iota
	CompressionLZ4
	CompressionZstd
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// Status is the response metadata word, present only on response frames.
type Status uint64

const (
	StatusSuccess Status = iota
	StatusMethodNotFound
	StatusRequestTimeout
	StatusServerError
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusMethodNotFound:
		return "method_not_found"
	case StatusRequestTimeout:
		return "request_timeout"
	case StatusServerError:
		return "server_error"
	default:
		return "unknown"
	}
}

// CompressionPolicy controls whether and how a frame's payload is compressed.
// A payload is compressed only when its length strictly exceeds MinBytes.
type CompressionPolicy struct {
	Type     CompressionType
	MinBytes uint32
}

// Header is the decoded, fixed-size frame header.
type Header struct {
	Version        byte
	ChecksumType   byte
	Compression    CompressionType
	PayloadLength  uint32
	Meta           uint64
	CorrelationID  uint32
	HeaderChecksum uint32
	PayloadChecksum uint32
	MethodID       uint32
}

// Status interprets Meta as a response status code.
func (h Header) Status() Status {
	return Status(h.Meta)
}

// marshal writes every header field, HeaderChecksum included, into dst,
// which must be at least HeaderSize bytes long. The checksum field itself
// lies outside the checksummed range [0, 22).
func (h Header) marshal(dst []byte) {
	dst[0] = h.Version
	dst[1] = h.ChecksumType
	binary.LittleEndian.PutUint32(dst[2:6], uint32(h.Compression))
	binary.LittleEndian.PutUint32(dst[6:10], h.PayloadLength)
	binary.LittleEndian.PutUint64(dst[10:18], h.Meta)
	binary.LittleEndian.PutUint32(dst[18:22], h.CorrelationID)
	binary.LittleEndian.PutUint32(dst[22:26], h.HeaderChecksum)
	binary.LittleEndian.PutUint32(dst[26:30], h.PayloadChecksum)
	binary.LittleEndian.PutUint32(dst[30:34], h.MethodID)
}

// unmarshalHeader parses a HeaderSize-length byte slice into a Header. It does
// not verify the header checksum; ReadHeader does that after calling it.
func unmarshalHeader(src []byte) Header {
	return Header{
		Version:         src[0],
		ChecksumType:    src[1],
		Compression:     CompressionType(binary.LittleEndian.Uint32(src[2:6])),
		PayloadLength:   binary.LittleEndian.Uint32(src[6:10]),
		Meta:            binary.LittleEndian.Uint64(src[10:18]),
		CorrelationID:   binary.LittleEndian.Uint32(src[18:22]),
		HeaderChecksum:  binary.LittleEndian.Uint32(src[22:26]),
		PayloadChecksum: binary.LittleEndian.Uint32(src[26:30]),
		MethodID:        binary.LittleEndian.Uint32(src[30:34]),
	}
}
