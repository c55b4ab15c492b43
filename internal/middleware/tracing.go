package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const traceIDHeader = "X-Trace-Id"
const traceIDLocal = "trace_id"

// Tracing tags the request with a trace ID. A well-formed inbound X-Trace-Id is kept so
// calls can be followed across services; anything else is replaced.
func Tracing() fiber.Handler {
	return func(c *fiber.Ctx) error {
		traceID := c.Get(traceIDHeader)
		if _, err := uuid.Parse(traceID); err != nil {
			traceID = uuid.New().String()
		}
		c.Locals(traceIDLocal, traceID)
		c.Set(traceIDHeader, traceID)
		return c.Next()
	}
}

// GetTraceID returns the trace ID from context.
func GetTraceID(c *fiber.Ctx) string {
	if id, ok := c.Locals(traceIDLocal).(string); ok {
		return id
	}
	return ""
}

// Logger returns the global logger with the request's trace ID and caller attached.
func Logger(c *fiber.Ctx) zerolog.Logger {
	ctx := log.With()
	if id := GetTraceID(c); id != "" {
		ctx = ctx.Str("trace_id", id)
	}
	if caller := Caller(c); caller != "" {
		ctx = ctx.Str("caller", caller)
	}
	return ctx.Logger()
}
