package validation

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Config struct {
	MaxUploadSize int
	Logger        *zap.Logger
}

// Middleware gates request shape before handlers run: upload must be
// multipart, the JSON endpoints must carry JSON, and oversized uploads are
// rejected early.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxUploadSize == 0 {
		cfg.MaxUploadSize = 10 * 1024 * 1024
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost {
			return c.Next()
		}

		path := c.Path()
		contentType := c.Get("Content-Type")

		if strings.HasSuffix(path, "/upload") {
			if !strings.Contains(contentType, "multipart/form-data") {
				return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
					"error": "Upload must be multipart/form-data",
				})
			}
			if len(c.Body()) > cfg.MaxUploadSize {
				cfg.Logger.Warn("Oversized upload rejected",
					zap.String("ip", c.IP()),
					zap.Int("bytes", len(c.Body())),
				)
				return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
					"error": "Upload exceeds maximum size",
				})
			}
			return c.Next()
		}

		if strings.HasSuffix(path, "/predict") || strings.HasSuffix(path, "/train") {
			if contentType != "" && !strings.Contains(contentType, "application/json") {
				return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
					"error": "Unsupported content type",
				})
			}
		}

		return c.Next()
	}
}
