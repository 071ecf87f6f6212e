package client

import (
	"context"

	"github.com/vectorized/rpc/rpc/common"
	"github.com/vectorized/rpc/rpc/transport"
)

// Facade is the thin wrapper callers embed to build a typed client: it
// holds one transport instance and nothing else. Connection pooling,
// retries, and service discovery are explicitly the caller's concern, not
// this package's.
type Facade struct {
	Transport *transport.Transport
}

// New constructs a Facade over a fresh Transport. Callers compose
// protocol-specific mixins (see PingService) over the returned Facade by
// embedding it alongside one mixin struct per protocol they speak.
func New(cfg common.Config) (*Facade, error) {
	tr := transport.New(cfg)
	return &Facade{Transport: tr}, nil
}

// Connect opens the underlying transport's connection.
func (f *Facade) Connect(ctx context.Context) error {
	return f.Transport.Connect(ctx)
}

// Close gracefully stops the underlying transport.
func (f *Facade) Close() error {
	return f.Transport.Stop()
}
