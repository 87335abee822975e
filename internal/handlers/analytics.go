package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/climatix/internal/services"
)

// Trends handles the multi-channel forecast
// GET /api/device/:device_id/analytics/trends?hours=&period=
func (h *Handler) Trends(c *fiber.Ctx) error {
	hours, err := queryInt(c, "hours")
	if err != nil {
		return h.respondError(c, err)
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	res, err := h.analytics.Trends(ctx, &services.TrendsRequest{
		DeviceID: c.Params("device_id"),
		Period:   c.Query("period"),
		Hours:    hours,
	})
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(res)
}

// Forecast handles the single-channel forecast
// GET /api/device/:device_id/analytics/forecast?channel=&steps=&period=
func (h *Handler) Forecast(c *fiber.Ctx) error {
	steps, err := queryInt(c, "steps")
	if err != nil {
		return h.respondError(c, err)
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	res, err := h.analytics.Forecast(ctx, &services.ForecastRequest{
		DeviceID: c.Params("device_id"),
		Period:   c.Query("period"),
		Channel:  c.Query("channel"),
		Steps:    steps,
	})
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(res)
}

// Correlations handles GET /api/device/:device_id/analytics/correlations?period=
func (h *Handler) Correlations(c *fiber.Ctx) error {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	res, err := h.analytics.Correlations(ctx, c.Params("device_id"), c.Query("period"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(res)
}

// Anomalies handles GET /api/device/:device_id/analytics/anomalies?strategy=&period=
func (h *Handler) Anomalies(c *fiber.Ctx) error {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	res, err := h.analytics.Anomalies(ctx, &services.AnomalyRequest{
		DeviceID: c.Params("device_id"),
		Period:   c.Query("period"),
		Strategy: c.Query("strategy"),
	})
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(res)
}

// Summary handles GET /api/device/:device_id/analytics/summary?strategy=&period=.
// Failed sections are reported inside the body, the request itself only
// fails when the snapshot cannot be loaded.
func (h *Handler) Summary(c *fiber.Ctx) error {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	res, err := h.analytics.Summary(ctx, &services.SummaryRequest{
		DeviceID: c.Params("device_id"),
		Period:   c.Query("period"),
		Strategy: c.Query("strategy"),
	})
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(res)
}
