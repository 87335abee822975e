package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/soltixdb/climatix/internal/analytics"
	"github.com/soltixdb/climatix/internal/ingest"
	"github.com/soltixdb/climatix/internal/logging"
	"github.com/soltixdb/climatix/internal/metadata"
)

func TestServiceError_Error(t *testing.T) {
	err := &ServiceError{
		Code:    "TEST_ERROR",
		Message: "Test error message",
	}

	if err.Error() != "Test error message" {
		t.Errorf("Expected 'Test error message', got '%s'", err.Error())
	}
}

func TestNewServiceErrorWithDetails(t *testing.T) {
	details := map[string]interface{}{
		"field":  "period",
		"reason": "validation failed",
	}

	err := NewServiceErrorWithDetails(CodeInvalidRequest, "Validation failed", details)

	if err.Code != CodeInvalidRequest {
		t.Errorf("Expected code '%s', got '%s'", CodeInvalidRequest, err.Code)
	}
	if err.Details["field"] != "period" {
		t.Errorf("Expected field 'period', got '%v'", err.Details["field"])
	}
}

func TestServiceError_JSONOmitsEmptyDetails(t *testing.T) {
	data, err := json.Marshal(NewServiceError(CodeDeviceNotFound, "missing"))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"code":"DEVICE_NOT_FOUND","message":"missing"}` {
		t.Errorf("Unexpected JSON: %s", data)
	}
}

func TestAsServiceError(t *testing.T) {
	original := NewServiceError(CodeDeviceNotFound, "missing")
	wrapped := fmt.Errorf("loading: %w", original)

	if got := AsServiceError(wrapped, CodeComputationFailed); got != original {
		t.Errorf("Expected the wrapped ServiceError, got %+v", got)
	}

	got := AsServiceError(errors.New("boom"), CodeComputationFailed)
	if got.Code != CodeComputationFailed || got.Message != "boom" {
		t.Errorf("Expected fallback code, got %+v", got)
	}
}

func TestAnalysisError(t *testing.T) {
	insufficient := analysisError(analytics.NewInsufficientData("forecast", 10, 9))
	if insufficient.Code != CodeInsufficientData {
		t.Errorf("Expected %s, got %s", CodeInsufficientData, insufficient.Code)
	}
	if insufficient.Details["required"] != 10 || insufficient.Details["available"] != 9 {
		t.Errorf("Unexpected details: %v", insufficient.Details)
	}

	computation := analysisError(analytics.NewComputationError("correlation", "zero variance"))
	if computation.Code != CodeComputationFailed {
		t.Errorf("Expected %s, got %s", CodeComputationFailed, computation.Code)
	}
}

func TestRegistryError(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{metadata.ErrInvalidDeviceID, CodeInvalidDeviceID},
		{fmt.Errorf("%w: x", metadata.ErrDeviceNotFound), CodeDeviceNotFound},
		{fmt.Errorf("%w: x", metadata.ErrDeviceExists), CodeDeviceExists},
		{fmt.Errorf("%w: x", ingest.ErrUnknownDevice), CodeUnknownDevice},
		{fmt.Errorf("%w: dial", metadata.ErrRegistryUnavailable), CodeRegistryUnavailable},
	}

	for _, tt := range tests {
		got := registryError(tt.err)
		if got == nil || got.Code != tt.code {
			t.Errorf("registryError(%v) = %+v, want code %s", tt.err, got, tt.code)
		}
	}

	if got := registryError(errors.New("other")); got != nil {
		t.Errorf("Expected nil for unrelated error, got %+v", got)
	}
}

func TestGuard_RecoversPanic(t *testing.T) {
	err := guard(logging.NewDevelopment(), "explode", func() error {
		var values []float64
		_ = values[3]
		return nil
	})

	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("Expected *ServiceError, got %T", err)
	}
	if svcErr.Code != CodeComputationFailed {
		t.Errorf("Expected %s, got %s", CodeComputationFailed, svcErr.Code)
	}
}

func TestGuard_PassesThrough(t *testing.T) {
	sentinel := errors.New("sentinel")
	if err := guard(logging.NewDevelopment(), "op", func() error { return sentinel }); err != sentinel {
		t.Errorf("Expected sentinel, got %v", err)
	}
	if err := guard(logging.NewDevelopment(), "op", func() error { return nil }); err != nil {
		t.Errorf("Expected nil, got %v", err)
	}
}
