package middleware

import (
	"errors"

	"estate-ledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler is the global error handler for errors returned by handlers and middleware.
// Fiber errors keep their code and message; anything else is logged and reported as a 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	details := map[string]interface{}{}
	if id := GetTraceID(c); id != "" {
		details["trace_id"] = id
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return response.Error(c, fe.Message, fe.Code, details)
	}
	logger := Logger(c)
	logger.Error().Err(err).Str("path", c.Path()).Msg("Unhandled error")
	return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, details)
}
