package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/climatix/internal/models"
	"github.com/soltixdb/climatix/internal/services"
)

// statusFor maps a service error code to its HTTP status
func statusFor(code string) int {
	switch code {
	case services.CodeInvalidRequest, services.CodeInvalidDeviceID, services.CodeInsufficientData:
		return fiber.StatusBadRequest
	case services.CodeDeviceNotFound, services.CodeUnknownDevice:
		return fiber.StatusNotFound
	case services.CodeDeviceExists:
		return fiber.StatusConflict
	case services.CodeComputationFailed:
		return fiber.StatusUnprocessableEntity
	case services.CodeRegistryUnavailable:
		return fiber.StatusServiceUnavailable
	case services.CodeTimeout:
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err as an ErrorResponse. Errors that are not
// ServiceErrors are reported as INTERNAL_ERROR.
func (h *Handler) respondError(c *fiber.Ctx, err error) error {
	svcErr := services.AsServiceError(err, "INTERNAL_ERROR")
	status := statusFor(svcErr.Code)

	if status >= fiber.StatusInternalServerError {
		h.logger.Error("Request failed",
			"path", c.Path(),
			"code", svcErr.Code,
			"error", svcErr.Message,
		)
	}

	return c.Status(status).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    svcErr.Code,
			Message: svcErr.Message,
			Details: svcErr.Details,
		},
	})
}

func badRequest(c *fiber.Ctx, code, message string, details map[string]interface{}) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// queryInt parses an optional integer query parameter. Missing means 0.
func queryInt(c *fiber.Ctx, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, services.NewServiceErrorWithDetails(services.CodeInvalidRequest,
			name+" must be an integer", map[string]interface{}{name: raw})
	}
	return n, nil
}
