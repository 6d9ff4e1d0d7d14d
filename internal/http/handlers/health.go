package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"signature-service/internal/infra/logging"
)

// VersionProber reports the installed form toolkit version.
type VersionProber interface {
	Version(ctx context.Context) (string, error)
}

// Health answers GET /health.
func Health(serviceName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "OK",
			"service":   serviceName,
			"timestamp": timestamp(),
		})
	}
}

// CheckPdftk answers GET /check-pdftk by running the toolkit's version command.
func CheckPdftk(prober VersionProber) fiber.Handler {
	return func(c *fiber.Ctx) error {
		version, err := prober.Version(c.UserContext())
		now := timestamp()
		if err != nil {
			logging.Warn("pdftk not available", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"available": false,
				"error":     err.Error(),
				"timestamp": now,
			})
		}
		return c.JSON(fiber.Map{
			"available": true,
			"version":   version,
			"timestamp": now,
		})
	}
}

// TimestampLayout is ISO 8601 in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

func timestamp() string {
	return time.Now().UTC().Format(TimestampLayout)
}

// Ready reports whether the form toolkit is invocable. It backs /readyz.
func Ready(prober VersionProber, timeout time.Duration) func(*fiber.Ctx) bool {
	return func(c *fiber.Ctx) bool {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		_, err := prober.Version(ctx)
		return err == nil
	}
}
