package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/climatix/internal/models"
	"github.com/soltixdb/climatix/internal/services"
)

// ListDevices handles GET /api/devices
func (h *Handler) ListDevices(c *fiber.Ctx) error {
	devices, err := h.devices.List(c.UserContext())
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(models.DeviceListResponse{
		Devices: devices,
		Count:   len(devices),
	})
}

// GetDevice handles GET /api/devices/:device_id
func (h *Handler) GetDevice(c *fiber.Ctx) error {
	dev, err := h.devices.Get(c.UserContext(), c.Params("device_id"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(dev)
}

// RegisterDevice handles POST /api/devices
func (h *Handler) RegisterDevice(c *fiber.Ctx) error {
	var req services.DeviceRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c, err)
	}

	dev, err := h.devices.Register(c.UserContext(), &req)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dev)
}

// UpdateDevice handles PUT /api/devices/:device_id. The path id wins over
// any id in the body.
func (h *Handler) UpdateDevice(c *fiber.Ctx) error {
	var req services.DeviceRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c, err)
	}
	req.ID = c.Params("device_id")

	dev, err := h.devices.Update(c.UserContext(), &req)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(dev)
}

// DeleteDevice handles DELETE /api/devices/:device_id. Stored readings are kept.
func (h *Handler) DeleteDevice(c *fiber.Ctx) error {
	id := c.Params("device_id")
	if err := h.devices.Delete(c.UserContext(), id); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"status":    "deleted",
		"device_id": id,
	})
}

// DeviceSettings handles GET /api/device/:device_id/settings. Devices that
// never saved settings get the defaults.
func (h *Handler) DeviceSettings(c *fiber.Ctx) error {
	st, err := h.devices.Settings(c.UserContext(), c.Params("device_id"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(st)
}

// SaveDeviceSettings handles POST /api/device/:device_id/settings
func (h *Handler) SaveDeviceSettings(c *fiber.Ctx) error {
	var req services.SettingsRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return invalidJSON(c, err)
		}
	}

	id := c.Params("device_id")
	st, err := h.devices.SaveSettings(c.UserContext(), id, &req)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"status":    "ok",
		"device_id": id,
		"settings":  st,
	})
}
