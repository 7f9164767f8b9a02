package errors

import (
	"context"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := context.DeadlineExceeded
	err := NewFetchError("failed to fetch media", cause)

	expected := "fetch: failed to fetch media (caused by: context deadline exceeded)"
	if err.Error() != expected {
		t.Errorf("Expected %q, got %q", expected, err.Error())
	}
	if err.Unwrap() != cause {
		t.Error("Expected Unwrap to return the cause")
	}
	if err.Reason() != "failed to fetch media: context deadline exceeded" {
		t.Errorf("Unexpected reason: %q", err.Reason())
	}
}

func TestIsType_WrappedError(t *testing.T) {
	err := fmt.Errorf("stage failed: %w", NewDecodeError("bad bytes", nil))

	if !IsType(err, ErrorTypeDecode) {
		t.Error("Expected wrapped decode error to be detected")
	}
	if IsType(err, ErrorTypeFetch) {
		t.Error("Did not expect fetch type")
	}
	if IsType(fmt.Errorf("plain"), ErrorTypeDecode) {
		t.Error("Plain errors carry no type")
	}
}

func TestGetStatusCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"validation", NewValidationError("missing url", nil), http.StatusBadRequest},
		{"fetch", NewFetchError("404", nil), http.StatusBadGateway},
		{"decode", NewDecodeError("corrupt", nil), http.StatusUnprocessableEntity},
		{"unsupported", NewUnsupportedMediaError("audio", nil), http.StatusUnsupportedMediaType},
		{"enhancement", NewEnhancementUnavailableError("no key", nil), http.StatusServiceUnavailable},
		{"internal", NewInternalError("boom", nil), http.StatusInternalServerError},
		{"plain", fmt.Errorf("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetStatusCode(tt.err); got != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, got)
			}
		})
	}
}
