package frame

import (
	"bytes"
	"hash/crc32"
	"io"

	"github.com/DataDog/zstd"
	"github.com/pierrec/lz4/v4"
)

// EncodeRequest builds the bytes of one request frame: header followed by the
// (possibly compressed) payload. flags is carried verbatim in the header's
// metadata word.
func EncodeRequest(correlationID, methodID uint32, flags uint64, payload []byte, policy CompressionPolicy) ([]byte, error) {
	return encode(correlationID, methodID, flags, payload, policy)
}

// EncodeResponse builds the bytes of one response frame: header followed by
// the (possibly compressed) payload. status is carried in the header's
// metadata word.
func EncodeResponse(correlationID uint32, status Status, payload []byte, policy CompressionPolicy) ([]byte, error) {
	return encode(correlationID, 0, uint64(status), payload, policy)
}

func encode(correlationID, methodID uint32, meta uint64, payload []byte, policy CompressionPolicy) ([]byte, error) {
	compression := CompressionNone
	body := payload

	// A payload exactly at the threshold is left uncompressed; only a
	// payload strictly larger than it is compressed.
	if policy.Type != CompressionNone && uint32(len(payload)) > policy.MinBytes {
		compressed, err := compress(policy.Type, payload)
		if err != nil {
			return nil, err
		}
		compression = policy.Type
		body = compressed
	}

	hdr := Header{
		Version:       Version,
		ChecksumType:  ChecksumCRC32IEEE,
		Compression:   compression,
		PayloadLength: uint32(len(body)),
		Meta:          meta,
		CorrelationID: correlationID,
		MethodID:      methodID,
	}
	hdr.PayloadChecksum = crc32.ChecksumIEEE(body)

	out := make([]byte, HeaderSize+len(body))
	hdr.marshal(out[:HeaderSize])
	hdr.HeaderChecksum = crc32.ChecksumIEEE(out[:22])
	hdr.marshal(out[:HeaderSize]) // re-marshal now that HeaderChecksum is known
	copy(out[HeaderSize:], body)
	return out, nil
}

// ReadHeader reads and validates one frame header from r. It returns the
// reader's error on a short read, ErrUnsupportedVersion when the version byte
// is not Version, and ErrHeaderChecksumMismatch when the CRC32 over bytes
// [0, 22) does not match; mapping these onto the caller's error taxonomy is
// left to the caller.
func ReadHeader(r io.Reader) (Header, error) {
	var raw [HeaderSize]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return Header{}, err
	}
	hdr := unmarshalHeader(raw[:])
	if hdr.Version != Version {
		return Header{}, ErrUnsupportedVersion
	}
	if crc32.ChecksumIEEE(raw[:22]) != hdr.HeaderChecksum {
		return Header{}, ErrHeaderChecksumMismatch
	}
	return hdr, nil
}

// ReadPayload reads exactly hdr.PayloadLength raw (still compressed) bytes
// from r, verifies the payload checksum, and decompresses if needed.
func ReadPayload(r io.Reader, hdr Header) ([]byte, error) {
	raw := make([]byte, hdr.PayloadLength)
	if hdr.PayloadLength > 0 {
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, err
		}
	}
	if crc32.ChecksumIEEE(raw) != hdr.PayloadChecksum {
		return nil, ErrPayloadChecksumMismatch
	}
	if hdr.Compression == CompressionNone {
		return raw, nil
	}
	return decompress(hdr.Compression, raw)
}

func compress(t CompressionType, src []byte) ([]byte, error) {
	switch t {
	case CompressionLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(src); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CompressionZstd:
		return zstd.Compress(nil, src)
	default:
		return src, nil
	}
}

func decompress(t CompressionType, src []byte) ([]byte, error) {
	switch t {
	case CompressionLZ4:
		r := lz4.NewReader(bytes.NewReader(src))
		return io.ReadAll(r)
	case CompressionZstd:
		return zstd.Decompress(nil, src)
	default:
		return nil, ErrUnknownCompression
	}
}
