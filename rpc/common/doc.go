// Package common provides configuration, logging, and the error taxonomy
// shared across the frame, registry, queue, probe, transport, and client
// packages.
//
// Key Components:
//
//   - Config: per-transport configuration — server address, TLS credentials,
//     timeouts, resource limits, and compression policy.
//
//   - Logger: custom logging implementation integrated with dragonboat's
//     logger.ILogger, giving the transport consistent log formatting without
//     pulling in a second logging stack.
//
//   - Errc / sentinel errors: the closed set of transport-level failure
//     reasons a caller can branch on, independent of the underlying cause.
package common
