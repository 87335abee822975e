package handlers

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/climatix/internal/models"
	"github.com/soltixdb/climatix/internal/services"
)

// Data returns the most recent raw readings of a device
// GET /api/device/:device_id/data?limit=
func (h *Handler) Data(c *fiber.Ctx) error {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return h.respondError(c, err)
	}

	id := c.Params("device_id")
	ctx, cancel := h.requestContext(c)
	defer cancel()

	readings, err := h.data.Recent(ctx, id, limit)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(models.ReadingsResponse{
		DeviceID: id,
		Count:    len(readings),
		Data:     readings,
	})
}

// ClearData drops every stored reading of a device, as a logger does when
// its SD card is wiped
// POST /api/device/:device_id/clear-sd
func (h *Handler) ClearData(c *fiber.Ctx) error {
	id := c.Params("device_id")
	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.data.Clear(ctx, id); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"status":    "ok",
		"device_id": id,
		"message":   "device data cleared",
	})
}

// Series returns a downsampled, time-ordered series for charting
// GET /api/device/:device_id/series?period=&channel=&mode=&points=
func (h *Handler) Series(c *fiber.Ctx) error {
	points, err := queryInt(c, "points")
	if err != nil {
		return h.respondError(c, err)
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	res, err := h.data.Series(ctx, &services.SeriesRequest{
		DeviceID: c.Params("device_id"),
		Period:   c.Query("period"),
		Channel:  c.Query("channel"),
		Mode:     c.Query("mode"),
		Points:   points,
	})
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(res)
}

// Download exports a device's readings as JSON or CSV
// GET /api/device/:device_id/download?period=&param=&format=json|csv
func (h *Handler) Download(c *fiber.Ctx) error {
	format := strings.ToLower(c.Query("format", "json"))
	if format != "json" && format != "csv" {
		return badRequest(c, services.CodeInvalidRequest, "format must be json or csv",
			map[string]interface{}{"format": format})
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	export, err := h.data.Export(ctx, &services.ExportRequest{
		DeviceID: c.Params("device_id"),
		Period:   c.Query("period"),
		Param:    c.Query("param"),
	})
	if err != nil {
		return h.respondError(c, err)
	}

	if format == "json" {
		return c.JSON(models.ReadingsResponse{
			DeviceID: export.DeviceID,
			Count:    len(export.Readings),
			Data:     export.Rows(),
		})
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf); err != nil {
		return h.respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", export.Filename("csv")))
	return c.Send(buf.Bytes())
}
