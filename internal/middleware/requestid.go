package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// RequestID ensures each request has a stable request identifier for tracing and logging.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqID := c.Get(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
			c.Set(requestIDHeader, reqID)
		}

		c.Locals(requestIDHeader, reqID)

		return c.Next()
	}
}

// CtxRequestID returns the request identifier stored by RequestID, or an
// empty string when the middleware did not run.
func CtxRequestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(requestIDHeader).(string); ok {
		return id
	}
	return ""
}
