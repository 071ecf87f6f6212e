package common

import (
	"github.com/cockroachdb/errors"

	"github.com/vectorized/rpc/rpc/frame"
)

// Errc identifies a transport-level failure reason, independent of its
// underlying cause. Callers branch on Errc rather than on error identity
// when deciding how to react to a failed call.
type Errc uint8

const (
	ErrcNone Errc = iota
	ErrcDisconnectedEndpoint
	ErrcTLSError
	ErrcClientRequestTimeout
	ErrcServiceError
	ErrcMethodNotFound
	ErrcServerError
	ErrcShuttingDown
	ErrcCorruptedHeader
	ErrcCorruptedPayload
	ErrcExceededMemoryBudget
)

func (c Errc) String() string {
	switch c {
	case ErrcNone:
		return "none"
	case ErrcDisconnectedEndpoint:
		return "disconnected_endpoint"
	case ErrcTLSError:
		return "tls_error"
	case ErrcClientRequestTimeout:
		return "client_request_timeout"
	case ErrcServiceError:
		return "service_error"
	case ErrcMethodNotFound:
		return "method_not_found"
	case ErrcServerError:
		return "server_error"
	case ErrcShuttingDown:
		return "shutting_down"
	case ErrcCorruptedHeader:
		return "corrupted_header"
	case ErrcCorruptedPayload:
		return "corrupted_payload"
	case ErrcExceededMemoryBudget:
		return "exceeded_memory_budget"
	default:
		return "unknown"
	}
}

// errc is the concrete error type returned across package boundaries; it
// pairs a stable Errc with a human-readable message.
type errc struct {
	code Errc
	msg  string
}

func (e *errc) Error() string { return e.msg }

func newErrc(code Errc, msg string) error {
	return errors.WithStack(&errc{code: code, msg: msg})
}

// Code extracts the Errc carried by err, or ErrcNone if err does not carry
// one (including a nil err).
func Code(err error) Errc {
	var e *errc
	if errors.As(err, &e) {
		return e.code
	}
	return ErrcNone
}

// Sentinel errors for the transport's closed failure taxonomy. Each is
// constructed once and compared with errors.Is; wrap with errors.Wrapf to add
// call-site context without losing the Errc.
var (
	ErrDisconnectedEndpoint = newErrc(ErrcDisconnectedEndpoint, "disconnected endpoint")
	ErrTLSError             = newErrc(ErrcTLSError, "tls handshake failed")
	ErrClientRequestTimeout = newErrc(ErrcClientRequestTimeout, "client request timeout")
	ErrServiceError         = newErrc(ErrcServiceError, "service error")
	ErrMethodNotFound       = newErrc(ErrcMethodNotFound, "method not found")
	ErrServerError          = newErrc(ErrcServerError, "server error")
	ErrShuttingDown         = newErrc(ErrcShuttingDown, "shutting down")
	ErrCorruptedHeader      = newErrc(ErrcCorruptedHeader, "corrupted header")
	ErrCorruptedPayload     = newErrc(ErrcCorruptedPayload, "corrupted payload")
	ErrExceededMemoryBudget = newErrc(ErrcExceededMemoryBudget, "exceeded memory budget")
)

// FromStatus maps a response frame's status to the sentinel error a caller
// should see. StatusSuccess has no corresponding error; callers must check
// status before calling FromStatus. StatusServerError is surfaced as
// ErrServerError rather than folded into ErrServiceError, keeping it a
// distinct, matchable outcome for callers.
func FromStatus(status frame.Status) error {
	switch status {
	case frame.StatusMethodNotFound:
		return ErrMethodNotFound
	case frame.StatusRequestTimeout:
		return ErrClientRequestTimeout
	case frame.StatusServerError:
		return ErrServerError
	default:
		return ErrServiceError
	}
}
