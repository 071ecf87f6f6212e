package common

import (
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/vectorized/rpc/rpc/frame"
)

// DefaultMemoryBudgetBytes bounds the total bytes of in-flight request
// payloads a single transport will admit before Send blocks on the memory
// semaphore.
const DefaultMemoryBudgetBytes = 1 << 20 // 1 MiB

// DefaultOutputFlushBytes is the batched output stream's default high
// watermark.
const DefaultOutputFlushBytes = 1 << 16 // 64 KiB

// TLSConfig carries the client-side TLS material for a transport.
type TLSConfig struct {
	// Config is the tls.Config used for the handshake. Nil disables TLS.
	Config *tls.Config
	// SNIHostname overrides the ServerName sent in the TLS ClientHello; if
	// empty, the dialed host is used.
	SNIHostname string
}

// Enabled reports whether this transport should dial over TLS.
func (t *TLSConfig) Enabled() bool {
	return t != nil && t.Config != nil
}

// Config holds all configuration parameters for one client transport.
type Config struct {
	// ServerAddr is the host:port of the remote endpoint to dial.
	ServerAddr string

	// TLS carries optional TLS credentials. Nil disables TLS.
	TLS *TLSConfig

	// DisableMetrics skips registration of this transport's probe with the
	// metrics registry entirely.
	DisableMetrics bool

	// ConnectTimeout bounds how long Connect waits for the TCP dial and,
	// when TLS is enabled, the handshake.
	ConnectTimeout time.Duration

	// RequestTimeout is the default deadline applied to a Send call when the
	// caller's context carries none.
	RequestTimeout time.Duration

	// MemoryBudgetBytes bounds the total bytes of in-flight request payloads
	// this transport admits at once. Zero selects DefaultMemoryBudgetBytes.
	MemoryBudgetBytes int64

	// OutputFlushBytes is the batched output stream's high watermark. Zero
	// selects DefaultOutputFlushBytes.
	OutputFlushBytes int

	// Compression controls payload compression for outgoing frames.
	Compression frame.CompressionPolicy

	// LogLevel is the log level name a caller passes to InitLoggers. The
	// transport does not apply it itself; String only reports it.
	LogLevel string
}

// MemoryBudget returns c.MemoryBudgetBytes, substituting
// DefaultMemoryBudgetBytes when unset.
func (c *Config) MemoryBudget() int64 {
	if c.MemoryBudgetBytes <= 0 {
		return DefaultMemoryBudgetBytes
	}
	return c.MemoryBudgetBytes
}

// FlushWatermark returns c.OutputFlushBytes, substituting
// DefaultOutputFlushBytes when unset.
func (c *Config) FlushWatermark() int {
	if c.OutputFlushBytes <= 0 {
		return DefaultOutputFlushBytes
	}
	return c.OutputFlushBytes
}

// String returns a formatted string representation of the configuration.
func (c *Config) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}
	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Transport")
	addField("Server Address", c.ServerAddr)
	addField("TLS", fmt.Sprintf("%t", c.TLS.Enabled()))
	addField("Connect Timeout", c.ConnectTimeout.String())
	addField("Request Timeout", c.RequestTimeout.String())

	addSection("Resource Limits")
	addField("Memory Budget", fmt.Sprintf("%d bytes", c.MemoryBudget()))
	addField("Output Flush Watermark", fmt.Sprintf("%d bytes", c.FlushWatermark()))

	addSection("Compression")
	addField("Type", c.Compression.Type.String())
	addField("Min Bytes", fmt.Sprintf("%d", c.Compression.MinBytes))

	addSection("Logging")
	addField("Log Level", c.LogLevel)
	addField("Metrics", fmt.Sprintf("%t", !c.DisableMetrics))

	return sb.String()
}
