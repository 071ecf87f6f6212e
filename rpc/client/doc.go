// Package client provides the caller-facing surface over a Transport: a
// generic SendTyped helper, a handful of ready-made payload codecs (JSON,
// Gob, a length-prefixed binary scheme), and a Facade/mixin composition
// pattern for building concrete protocol clients.
//
// A concrete client is built by embedding Facade plus one mixin struct per
// protocol it speaks, the same way the dKV codebase composed rpcStore and
// rpcLockMgr over a shared rpcClientAdapter. DemoClient/PingService is the
// worked example this package ships.
package client
