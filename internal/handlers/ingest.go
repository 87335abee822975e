package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/climatix/internal/models"
	"github.com/soltixdb/climatix/internal/services"
)

func invalidJSON(c *fiber.Ctx, err error) error {
	return badRequest(c, "INVALID_JSON", "Failed to parse JSON body",
		map[string]interface{}{"error": err.Error()})
}

func ingestResponse(res *services.IngestResult) models.IngestResponse {
	return models.IngestResponse{
		Status:   "ok",
		Received: res.Received,
		Skipped:  res.Skipped,
		BatchID:  res.BatchID,
	}
}

// SensorData handles a single reading
// POST /api/sensor_data {device_id, timestamp?, temp, hum, lux}
func (h *Handler) SensorData(c *fiber.Ctx) error {
	var body map[string]interface{}
	if err := c.BodyParser(&body); err != nil {
		return invalidJSON(c, err)
	}

	deviceID, record, err := models.SplitSensorRecord(body)
	if err != nil {
		return badRequest(c, services.CodeInvalidRequest, err.Error(), nil)
	}

	res, err := h.ingest.WriteRecord(c.UserContext(), deviceID, record)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(ingestResponse(res))
}

// SensorBatch handles a list of object-shaped readings
// POST /api/sensor_batch {device_id, data: [{timestamp?, temp, hum, lux}, ...]}
func (h *Handler) SensorBatch(c *fiber.Ctx) error {
	var req models.SensorBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c, err)
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, services.CodeInvalidRequest, err.Error(), nil)
	}

	res, err := h.ingest.WriteBatch(c.UserContext(), req.DeviceID, req.Data)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(ingestResponse(res))
}

// SensorArray handles the compact row form
// POST /api/sensor_array {device_id, count?, data: [[timestamp, temp, hum, lux], ...]}
func (h *Handler) SensorArray(c *fiber.Ctx) error {
	var req models.SensorArrayRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c, err)
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, services.CodeInvalidRequest, err.Error(), nil)
	}

	res, err := h.ingest.WriteArray(c.UserContext(), req.DeviceID, req.Data)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(ingestResponse(res))
}
