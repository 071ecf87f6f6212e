package common

import (
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/vectorized/rpc/rpc/frame"
)

func TestCodeRoundTrips(t *testing.T) {
	if Code(ErrMethodNotFound) != ErrcMethodNotFound {
		t.Fatalf("expected ErrcMethodNotFound, got %s", Code(ErrMethodNotFound))
	}
	wrapped := errors.Wrapf(ErrClientRequestTimeout, "call to shard 3")
	if Code(wrapped) != ErrcClientRequestTimeout {
		t.Fatalf("expected code preserved across wrap, got %s", Code(wrapped))
	}
}

func TestCodeNoneForUnrelatedError(t *testing.T) {
	if Code(errors.New("boom")) != ErrcNone {
		t.Fatalf("expected ErrcNone for an unrelated error")
	}
	if Code(nil) != ErrcNone {
		t.Fatalf("expected ErrcNone for nil")
	}
}

func TestFromStatus(t *testing.T) {
	cases := map[frame.Status]error{
		frame.StatusMethodNotFound: ErrMethodNotFound,
		frame.StatusRequestTimeout: ErrClientRequestTimeout,
		frame.StatusServerError:    ErrServerError,
	}
	for status, want := range cases {
		if got := FromStatus(status); !errors.Is(got, want) {
			t.Fatalf("FromStatus(%s) = %v, want %v", status, got, want)
		}
	}
}
