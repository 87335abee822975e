// Package services is the layer between the HTTP handlers and the analytics
// engine. Services load device snapshots, run the engine and translate its
// errors into ServiceError codes.
package services

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/soltixdb/climatix/internal/analytics"
	"github.com/soltixdb/climatix/internal/ingest"
	"github.com/soltixdb/climatix/internal/logging"
	"github.com/soltixdb/climatix/internal/metadata"
)

// Error codes returned by the services
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeInvalidDeviceID     = "INVALID_DEVICE_ID"
	CodeDeviceNotFound      = "DEVICE_NOT_FOUND"
	CodeDeviceExists        = "DEVICE_EXISTS"
	CodeUnknownDevice       = "UNKNOWN_DEVICE"
	CodeInsufficientData    = "INSUFFICIENT_DATA"
	CodeComputationFailed   = "COMPUTATION_FAILED"
	CodeStorageFailed       = "STORAGE_FAILED"
	CodeIngestFailed        = "INGEST_FAILED"
	CodeRegistryUnavailable = "REGISTRY_UNAVAILABLE"
	CodeTimeout             = "REQUEST_TIMEOUT"
)

// ServiceError represents a service layer error
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// NewServiceError creates a new ServiceError
func NewServiceError(code, message string) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
	}
}

// NewServiceErrorWithDetails creates a new ServiceError with details
func NewServiceErrorWithDetails(code, message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// AsServiceError returns err as a ServiceError, wrapping unknown errors
// under fallback
func AsServiceError(err error, fallback string) *ServiceError {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return NewServiceError(fallback, err.Error())
}

// analysisError maps engine errors to INSUFFICIENT_DATA or COMPUTATION_FAILED
func analysisError(err error) *ServiceError {
	var insufficient *analytics.InsufficientDataError
	if errors.As(err, &insufficient) {
		return NewServiceErrorWithDetails(CodeInsufficientData, err.Error(), map[string]interface{}{
			"operation": insufficient.Operation,
			"required":  insufficient.Required,
			"available": insufficient.Available,
		})
	}
	return NewServiceError(CodeComputationFailed, err.Error())
}

// registryError maps device registry errors
func registryError(err error) *ServiceError {
	switch {
	case errors.Is(err, metadata.ErrInvalidDeviceID):
		return NewServiceError(CodeInvalidDeviceID, "device id must match [A-Za-z0-9._-]{1,64}")
	case errors.Is(err, metadata.ErrDeviceNotFound):
		return NewServiceError(CodeDeviceNotFound, err.Error())
	case errors.Is(err, metadata.ErrDeviceExists):
		return NewServiceError(CodeDeviceExists, err.Error())
	case errors.Is(err, ingest.ErrUnknownDevice):
		return NewServiceError(CodeUnknownDevice, err.Error())
	case errors.Is(err, metadata.ErrInvalidSettings):
		return NewServiceError(CodeInvalidRequest, err.Error())
	case errors.Is(err, metadata.ErrRegistryUnavailable):
		return NewServiceError(CodeRegistryUnavailable, err.Error())
	default:
		return nil
	}
}

// guard runs fn and converts a panic into COMPUTATION_FAILED so one broken
// analysis never takes the request down
func guard(logger *logging.Logger, operation string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Analysis panicked",
				"operation", operation,
				"panic", r,
				"stack", string(debug.Stack()))
			err = NewServiceError(CodeComputationFailed, fmt.Sprintf("%s failed unexpectedly", operation))
		}
	}()
	return fn()
}
