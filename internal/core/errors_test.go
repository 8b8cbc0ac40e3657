package core

import (
	"errors"
	"testing"
)

func TestScanError_Error(t *testing.T) {
	err := &ScanError{Code: "query_error", Message: "aggregate device status"}
	got := err.Error()
	want := "[query_error] aggregate device status"
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestScanError_ErrorWithCause(t *testing.T) {
	cause := errors.New("server selection timeout")
	err := NewConnectionError("connect mongodb", cause)
	got := err.Error()
	want := "[connection_error] connect mongodb: server selection timeout"
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestScanError_Unwrap(t *testing.T) {
	cause := errors.New("broken pipe")
	err := NewDeliveryError("send message", cause)
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *ScanError
		code string
	}{
		{"connection", NewConnectionError("c", nil), ErrCodeConnection},
		{"query", NewQueryError("q", nil), ErrCodeQuery},
		{"artifact", NewArtifactError("a", nil), ErrCodeArtifact},
		{"delivery", NewDeliveryError("d", nil), ErrCodeDelivery},
	}
	for _, tt := range tests {
		if tt.err.Code != tt.code {
			t.Errorf("%s: Code = %q, want %q", tt.name, tt.err.Code, tt.code)
		}
	}
}
