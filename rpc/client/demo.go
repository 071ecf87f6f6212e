package client

// DemoClient composes Facade with the PingService mixin: a struct embedding
// the shared transport plus one field per protocol the caller speaks.
type DemoClient struct {
	*Facade
	PingService
}

// NewDemoClient wraps facade with the ping protocol mixin.
func NewDemoClient(facade *Facade) *DemoClient {
	return &DemoClient{
		Facade:      facade,
		PingService: PingService{Facade: facade},
	}
}
