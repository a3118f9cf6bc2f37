package platformerrors

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func TestAsErrorPreservesType(t *testing.T) {
	ctx := context.Background()
	inner := NewError(ctx, LayerInfrastructure, ErrorTypeExternal, "provider unavailable", nil)

	wrapped := AsError(ctx, LayerDomain, inner, "model completion failed")
	if wrapped.Type != ErrorTypeExternal {
		t.Errorf("wrapped type = %q, want %q", wrapped.Type, ErrorTypeExternal)
	}
	if wrapped.Layer != LayerDomain {
		t.Errorf("wrapped layer = %q, want %q", wrapped.Layer, LayerDomain)
	}
	if !errors.Is(wrapped, inner) {
		t.Errorf("wrapped error must unwrap to the cause")
	}
}

func TestAsErrorPlainCause(t *testing.T) {
	wrapped := AsError(context.Background(), LayerHandler, errors.New("boom"), "request failed")
	if wrapped.Type != ErrorTypeInternal {
		t.Errorf("plain causes default to internal, got %q", wrapped.Type)
	}
}

func TestAsErrorNil(t *testing.T) {
	if AsError(context.Background(), LayerDomain, nil, "nothing") != nil {
		t.Errorf("nil cause must yield nil")
	}
}

func TestRequestIDEnrichment(t *testing.T) {
	ctx := ContextWithRequestID(context.Background(), "req-123")
	err := NewError(ctx, LayerHandler, ErrorTypeValidation, "bad input", nil)
	if err.RequestID != "req-123" {
		t.Errorf("RequestID = %q, want req-123", err.RequestID)
	}
}

func TestErrorTypeToHTTPStatus(t *testing.T) {
	cases := []struct {
		errorType ErrorType
		want      int
	}{
		{ErrorTypeNotFound, http.StatusNotFound},
		{ErrorTypeValidation, http.StatusBadRequest},
		{ErrorTypeUnauthorized, http.StatusUnauthorized},
		{ErrorTypeExternal, http.StatusBadGateway},
		{ErrorTypeInternal, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got := ErrorTypeToHTTPStatus(tc.errorType); got != tc.want {
			t.Errorf("ErrorTypeToHTTPStatus(%q) = %d, want %d", tc.errorType, got, tc.want)
		}
	}
}
