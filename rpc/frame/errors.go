package frame

import "errors"

var (
	// ErrUnsupportedVersion is returned by ReadHeader when the wire version
	// byte does not match Version.
	ErrUnsupportedVersion = errors.New("frame: unsupported version")

	// ErrHeaderChecksumMismatch is returned by ReadHeader when the CRC32 over
	// bytes [0, 22) does not match the header's checksum field.
	ErrHeaderChecksumMismatch = errors.New("frame: header checksum mismatch")

	// ErrPayloadChecksumMismatch is returned by ReadPayload when the CRC32 of
	// the raw (pre-decompression) payload does not match the header's
	// checksum field.
	ErrPayloadChecksumMismatch = errors.New("frame: payload checksum mismatch")

	// ErrUnknownCompression is returned when a frame header names a
	// compression tag this package does not implement.
	ErrUnknownCompression = errors.New("frame: unknown compression type")
)
