// Package router assembles the fiber app: global middleware, the API routes
// and the error handler.
package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/soltixdb/climatix/internal/config"
	"github.com/soltixdb/climatix/internal/handlers"
	"github.com/soltixdb/climatix/internal/logging"
	"github.com/soltixdb/climatix/internal/middleware"
)

// Setup configures all routes and middlewares
func Setup(app *fiber.App, logger *logging.Logger, h *handlers.Handler) {
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,X-Request-ID",
	}))
	app.Use(logging.FiberMiddleware(logger, logging.DefaultMiddlewareConfig()))

	app.Get("/health", h.Health)

	api := app.Group("/api")

	// Ingestion
	api.Post("/sensor_data", h.SensorData)
	api.Post("/sensor_batch", h.SensorBatch)
	api.Post("/sensor_array", h.SensorArray)

	// Device registry
	api.Get("/devices", h.ListDevices)
	api.Post("/devices", h.RegisterDevice)
	api.Get("/devices/:device_id", h.GetDevice)
	api.Put("/devices/:device_id", h.UpdateDevice)
	api.Delete("/devices/:device_id", h.DeleteDevice)

	device := api.Group("/device/:device_id")

	// Analytics
	device.Get("/analytics/trends", h.Trends)
	device.Get("/analytics/forecast", h.Forecast)
	device.Get("/analytics/correlations", h.Correlations)
	device.Get("/analytics/anomalies", h.Anomalies)
	device.Get("/analytics/summary", h.Summary)

	// Reports
	device.Get("/report/hourly-stats", h.HourlyStats)
	device.Post("/report/compare", h.Compare)
	device.Get("/report/recommendations", h.Recommendations)

	// Raw data
	device.Get("/data", h.Data)
	device.Get("/series", h.Series)
	device.Get("/download", h.Download)
	device.Post("/clear-sd", h.ClearData)

	// Logger settings
	device.Get("/settings", h.DeviceSettings)
	device.Post("/settings", h.SaveDeviceSettings)

	app.Use(h.NotFound)
}

// New creates a new Fiber app with configuration
func New(logger *logging.Logger, h *handlers.Handler, cfg config.ServerConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Climatix",
		DisableStartupMessage: true,
		BodyLimit:             cfg.BodyLimit,
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	Setup(app, logger, h)

	return app
}
