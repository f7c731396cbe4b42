// Package server builds the Fiber application: middleware, error rendering and routes.
package server

import (
	"errors"
	"log"
	"strings"
	"time"

	"bizops-backend/internal/cache"
	"bizops-backend/internal/config"
	"bizops-backend/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// ErrorHandler renders every error as {"message": ...}. Anything that is not a
// *fiber.Error is logged and hidden behind a generic 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var e *fiber.Error
	if errors.As(err, &e) {
		return c.Status(e.Code).JSON(fiber.Map{"message": e.Message})
	}
	log.Printf("[ERROR] %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "Unexpected server error",
	})
}

// New wires middleware and routes. store and files are shared by every handler.
func New(cfg *config.Config, store cache.Store, files *storage.Disk) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "bizops-backend",
		ErrorHandler: ErrorHandler,
		BodyLimit:    int(cfg.MaxUploadSize)*4 + 1<<20,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "[HTTP] ${time} ${status} ${method} ${path} ${latency}\n",
		TimeFormat: "2006/01/02 15:04:05",
	}))

	origins := strings.Split(cfg.CORSOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(origins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))

	registerRoutes(app, cfg, store, files)
	return app
}
