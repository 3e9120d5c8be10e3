package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// AccessLog registra cada petición con zerolog: método, ruta, estado y duración.
// Los 5xx salen en nivel error, los 4xx en warn y el resto en debug.
func AccessLog(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}
		ev := log.Debug()
		switch {
		case status >= fiber.StatusInternalServerError:
			ev = log.Error()
		case status >= fiber.StatusBadRequest:
			ev = log.Warn()
		}
		if tenantID, ok := c.Locals(LocalTenantID).(string); ok && tenantID != "" {
			ev = ev.Str("tenant_id", tenantID)
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("petición HTTP")
		return err
	}
}
