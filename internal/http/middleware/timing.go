package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Timing stamps every response with its processing time and disables
// intermediary caching. The no-store headers keep CDN edges from holding on
// to responses past the dataset cache TTL.
//
// HEAD requests are answered immediately with an empty 200 before any
// handler runs: upstream health probes send HEAD at a high rate and must
// never wait on dataset loading.
func Timing() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodHead {
			setNoCacheHeaders(c)
			c.Set("X-Process-Time", "0.000")
			return c.SendStatus(fiber.StatusOK)
		}

		start := time.Now()
		err := c.Next()

		setNoCacheHeaders(c)
		c.Set("X-Process-Time", fmt.Sprintf("%.3f", time.Since(start).Seconds()))
		return err
	}
}

func setNoCacheHeaders(c *fiber.Ctx) {
	c.Set(fiber.HeaderCacheControl, "no-cache, no-store, must-revalidate")
	c.Set(fiber.HeaderPragma, "no-cache")
	c.Set(fiber.HeaderExpires, "0")
}
