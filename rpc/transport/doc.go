// Package transport implements the client side of a single multiplexed
// TCP (optionally TLS) connection: many concurrent typed calls share one
// socket, demultiplexed by a 32-bit correlation ID and bounded by a shared
// memory budget.
//
// Key Components:
//
//   - Transport: owns the connection, the receive loop, and the dispatcher;
//     exposes Connect, Send, Stop, and Shutdown.
//
//   - State: the connection state machine (disconnected, connecting,
//     connected, closing, closed).
//
//   - gate: a counted in-flight-task latch used to reject new sends once
//     Stop or Shutdown has begun.
package transport
