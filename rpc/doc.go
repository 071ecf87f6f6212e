// Package rpc provides a client-side RPC transport for a single multiplexed
// TCP (optionally TLS) connection: request/response framing with checksums
// and optional compression, a memory-bounded backpressure mechanism, and
// correlation of out-of-order replies to their callers.
//
// The package is organized into several subpackages:
//
//   - frame: wire frame encoding/decoding, checksums, and compression.
//
//   - stream: batched, vectored output writing over the connection.
//
//   - queue: the in-flight send queue that preserves submission order
//     across asynchronous frame encoding.
//
//   - registry: correlation-ID to response-channel bookkeeping, resolving
//     each in-flight call exactly once.
//
//   - probe: connection and request metrics.
//
//   - common: configuration, logging, and the shared error taxonomy.
//
//   - transport: the connection lifecycle and Send entry point tying the
//     above together.
//
//   - client: typed payload codecs and the Facade/mixin pattern for
//     building concrete protocol clients on top of a Transport.
package rpc
