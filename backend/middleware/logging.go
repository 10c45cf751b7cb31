package middleware

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
)

// LoggingMiddleware writes one line per request except for the skipped
// paths (health checks). The request id is set by the requestid middleware when it
// runs first.
func LoggingMiddleware(logger *log.Logger, skip ...string) fiber.Handler {
	skipped := make(map[string]bool, len(skip))
	for _, p := range skip {
		skipped[p] = true
	}

	return func(c *fiber.Ctx) error {
		if skipped[c.Path()] {
			return c.Next()
		}
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		logger.Printf(
			"%s %s %s %s %d %v",
			c.GetRespHeader(fiber.HeaderXRequestID, "-"),
			c.IP(),
			c.Method(),
			c.Path(),
			status,
			time.Since(start),
		)

		return err
	}
}
