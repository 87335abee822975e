package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/climatix/internal/logging"
	"github.com/soltixdb/climatix/internal/services"
	"github.com/soltixdb/climatix/internal/utils"
)

// Services groups the service layer the handlers delegate to
type Services struct {
	Analytics *services.AnalyticsService
	Reports   *services.ReportService
	Data      *services.DataService
	Devices   *services.DeviceService
	Ingest    *services.IngestService
	Health    *services.HealthService
}

// Handler contains all HTTP handlers
type Handler struct {
	logger  *logging.Logger
	version string
	timeout time.Duration // deadline for analytics, report and data requests

	analytics *services.AnalyticsService
	reports   *services.ReportService
	data      *services.DataService
	devices   *services.DeviceService
	ingest    *services.IngestService
	health    *services.HealthService
}

// New creates a new handler instance
func New(logger *logging.Logger, version string, svc Services) *Handler {
	return &Handler{
		logger:    logger,
		version:   version,
		timeout:   utils.DefaultRequestTimeout,
		analytics: svc.Analytics,
		reports:   svc.Reports,
		data:      svc.Data,
		devices:   svc.Devices,
		ingest:    svc.Ingest,
		health:    svc.Health,
	}
}

// requestContext bounds a read request by the handler timeout
func (h *Handler) requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), h.timeout)
}
