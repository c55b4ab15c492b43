// Package ledgerhttp holds the pieces every ledger handler shares: building the call
// context from the session and mapping ledger rejections onto HTTP responses.
package ledgerhttp

import (
	"errors"
	"strconv"

	"estate-ledger/internal/domain"
	"estate-ledger/internal/middleware"
	"estate-ledger/internal/pkg/clock"
	"estate-ledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps a ledger error onto an HTTP status code.
func StatusFor(err error) int {
	if errors.Is(err, domain.ErrNoDistribution) {
		return fiber.StatusNotFound
	}
	switch domain.CategoryOf(err) {
	case domain.CategoryAuthorization:
		return fiber.StatusForbidden
	case domain.CategoryValidation:
		return fiber.StatusBadRequest
	case domain.CategoryCapacity, domain.CategoryState:
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

// RespondError writes err in the standard error envelope. Ledger rejections carry their kind
// and category in details; anything else is logged and reported as a 500.
func RespondError(c *fiber.Ctx, err error) error {
	le, ok := domain.AsLedgerError(err)
	if !ok {
		logger := middleware.Logger(c)
		logger.Error().Err(err).Str("path", c.Path()).Msg("Ledger operation failed")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	logger := middleware.Logger(c)
	logger.Debug().Str("kind", le.Kind).Str("path", c.Path()).Msg("Ledger operation rejected")
	return response.Error(c, le.Message, StatusFor(err), fiber.Map{
		"kind":     le.Kind,
		"category": le.Category,
	})
}

// Call builds the execution context for a ledger operation from the session and the request's ledger time.
func Call(c *fiber.Ctx, clk clock.Clock) domain.Call {
	return domain.Call{Caller: middleware.Caller(c), Now: middleware.Now(c, clk)}
}

// UintParam parses a positive integer route parameter.
func UintParam(c *fiber.Ctx, name string) (uint64, bool) {
	v, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return v, true
}

// PeriodParam parses a period route parameter. Unlike ids, period 0 is valid.
func PeriodParam(c *fiber.Ctx, name string) (uint64, bool) {
	v, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
