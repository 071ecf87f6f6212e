// Package probe exposes the transport's counters, gauges, and latency
// histogram through a private VictoriaMetrics metrics.Set, so a process
// embedding several transports can scrape each one under its own prefix
// without the metrics colliding in the global default set.
package probe

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

// Probe records the counters and gauges describing one transport's
// lifetime. A disabled Probe (DisableMetrics in common.Config) still
// satisfies every method as a no-op, so callers never need to branch on
// whether metrics are enabled.
type Probe struct {
	set      *metrics.Set
	disabled bool

	requestsSent     *metrics.Counter
	responsesOK      *metrics.Counter
	errorsByKind     func(kind string) *metrics.Counter
	timeouts         *metrics.Counter
	bytesIn          *metrics.Counter
	bytesOut         *metrics.Counter
	connectionResets *metrics.Counter
	latency          *metrics.Histogram

	memoryHeld int64
	connected  int64
}

// New creates a Probe. When name is non-empty, every metric is exposed
// under that prefix (e.g. "rpc_client_<name>_requests_sent_total"), with
// every character of name other than ASCII letters, digits and '_'
// replaced by '_', allowing several transports in one process to be told
// apart. inFlight is
// polled on every scrape to drive the in-flight gauge; callers pass
// registry.Registry.Len so the gauge always reflects the live pending-call
// count instead of a separately maintained counter that could drift from it.
func New(name string, disabled bool, inFlight func() int64) *Probe {
	p := &Probe{disabled: disabled}
	if disabled {
		return p
	}

	p.set = metrics.NewSet()
	prefix := "rpc_client"
	if name != "" {
		// Metric names accept only a restricted character set; map anything
		// else (hyphens, brackets of an IPv6 address, ...) to '_'.
		prefix = "rpc_client_" + strings.Map(func(r rune) rune {
			if r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				return r
			}
			return '_'
		}, name)
	}

	p.requestsSent = p.set.NewCounter(prefix + "_requests_sent_total")
	p.responsesOK = p.set.NewCounter(prefix + "_responses_total{status=\"success\"}")
	p.timeouts = p.set.NewCounter(prefix + "_timeouts_total")
	p.bytesIn = p.set.NewCounter(prefix + "_bytes_in_total")
	p.bytesOut = p.set.NewCounter(prefix + "_bytes_out_total")
	p.connectionResets = p.set.NewCounter(prefix + "_connection_resets_total")
	p.latency = p.set.NewHistogram(prefix + "_request_duration_seconds")

	p.errorsByKind = func(kind string) *metrics.Counter {
		return p.set.GetOrCreateCounter(prefix + "_errors_total{kind=\"" + kind + "\"}")
	}

	p.set.NewGauge(prefix+"_in_flight", func() float64 {
		return float64(inFlight())
	})
	p.set.NewGauge(prefix+"_memory_held_bytes", func() float64 {
		return float64(atomic.LoadInt64(&p.memoryHeld))
	})
	p.set.NewGauge(prefix+"_connected", func() float64 {
		return float64(atomic.LoadInt64(&p.connected))
	})

	metrics.RegisterSet(p.set)
	return p
}

// Unregister removes this probe's metrics from the default registry. Call it
// when a transport is permanently shut down.
func (p *Probe) Unregister() {
	if p.disabled {
		return
	}
	metrics.UnregisterSet(p.set, true)
}

func (p *Probe) RequestSent(bytes int) {
	if p.disabled {
		return
	}
	p.requestsSent.Inc()
	p.bytesOut.Add(bytes)
}

func (p *Probe) ResponseReceived(bytes int, d time.Duration, ok bool) {
	if p.disabled {
		return
	}
	p.bytesIn.Add(bytes)
	p.latency.Update(d.Seconds())
	if ok {
		p.responsesOK.Inc()
	}
}

func (p *Probe) Timeout() {
	if p.disabled {
		return
	}
	p.timeouts.Inc()
}

func (p *Probe) Error(kind string) {
	if p.disabled {
		return
	}
	p.errorsByKind(kind).Inc()
}

func (p *Probe) ConnectionReset() {
	if p.disabled {
		return
	}
	p.connectionResets.Inc()
}

func (p *Probe) AddMemoryHeld(delta int64) {
	if p.disabled {
		return
	}
	atomic.AddInt64(&p.memoryHeld, delta)
}

func (p *Probe) SetConnected(connected bool) {
	if p.disabled {
		return
	}
	v := int64(0)
	if connected {
		v = 1
	}
	atomic.StoreInt64(&p.connected, v)
}
