package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/climatix/internal/models"
	"github.com/soltixdb/climatix/internal/services"
)

// HourlyStats handles GET /api/device/:device_id/report/hourly-stats?period=
func (h *Handler) HourlyStats(c *fiber.Ctx) error {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	res, err := h.reports.HourlyStats(ctx, c.Params("device_id"), c.Query("period"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(res)
}

// Compare handles POST /api/device/:device_id/report/compare {period1, period2}.
// An empty body compares week against month.
func (h *Handler) Compare(c *fiber.Ctx) error {
	var body models.CompareRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return invalidJSON(c, err)
		}
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	res, err := h.reports.Compare(ctx, &services.CompareRequest{
		DeviceID: c.Params("device_id"),
		PeriodA:  body.Period1,
		PeriodB:  body.Period2,
	})
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(res)
}

// Recommendations handles GET /api/device/:device_id/report/recommendations?period=
func (h *Handler) Recommendations(c *fiber.Ctx) error {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	res, err := h.reports.Recommendations(ctx, c.Params("device_id"), c.Query("period"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(res)
}
