package client

import (
	"context"

	"github.com/vectorized/rpc/rpc/transport"
)

// PingMethodID is the demo method ID this package's tests dial against.
const PingMethodID uint32 = 1

// PingService is a protocol mixin over a Facade: a caller composes a
// concrete client type by embedding Facade plus one mixin per protocol it
// speaks.
type PingService struct {
	*Facade
}

// Ping sends req and returns the server's Pong.
func (s PingService) Ping(ctx context.Context, req Ping) (Pong, error) {
	return SendTyped[Ping, Pong](ctx, s.Transport, PingMethodID, req, PingPongCodec{}, PongCodec{}, transport.SendOptions{})
}
