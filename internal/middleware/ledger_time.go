package middleware

import (
	"strconv"

	"estate-ledger/internal/pkg/clock"

	"github.com/gofiber/fiber/v2"
)

const (
	LedgerTimeHeader = "X-Ledger-Time"
	ledgerTimeLocal  = "ledger_now"
)

// LedgerTime reads the ledger clock once per request so every operation the request
// performs, and the X-Ledger-Time response header, agree on the same timestamp.
func LedgerTime(clk clock.Clock) fiber.Handler {
	return func(c *fiber.Ctx) error {
		now := clk.Now()
		c.Locals(ledgerTimeLocal, now)
		c.Set(LedgerTimeHeader, strconv.FormatInt(now, 10))
		return c.Next()
	}
}

// Now returns the timestamp stamped by LedgerTime, reading clk when the middleware is absent.
func Now(c *fiber.Ctx, clk clock.Clock) int64 {
	if now, ok := c.Locals(ledgerTimeLocal).(int64); ok {
		return now
	}
	return clk.Now()
}
