package transactions

import (
	"strconv"
	"strings"

	txsvc "estate-ledger/internal/application/transactions"
	"estate-ledger/internal/domain"
	"estate-ledger/internal/interfaces/handlers/ledgerhttp"
	"estate-ledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *txsvc.Service
}

// GetEvents GET /api/v1/ledger/events?property_id=&holder=&limit=
func (h *Handlers) GetEvents(c *fiber.Ctx) error {
	var f domain.EventFilter
	if s := c.Query("property_id"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return response.BadRequest(c, "Invalid property_id")
		}
		f.PropertyID = id
	}
	f.Identity = strings.ToLower(c.Query("holder"))
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return response.BadRequest(c, "Invalid limit")
		}
		f.Limit = n
	}

	events, err := h.Service.ViewEvents(c.Context(), f)
	if err != nil {
		return ledgerhttp.RespondError(c, err)
	}
	return response.Success(c, "Events fetched successfully", events, fiber.Map{"count": len(events)})
}

// GetStats GET /api/v1/ledger/stats
func (h *Handlers) GetStats(c *fiber.Ctx) error {
	st, err := h.Service.ViewStats(c.Context())
	if err != nil {
		return ledgerhttp.RespondError(c, err)
	}
	return response.Success(c, "Ledger stats fetched successfully", st, nil)
}
