package trading

import (
	"errors"
	"strings"

	holdsvc "estate-ledger/internal/application/holdings"
	tradesvc "estate-ledger/internal/application/trading"
	"estate-ledger/internal/infrastructure/metrics"
	"estate-ledger/internal/interfaces/handlers/ledgerhttp"
	"estate-ledger/internal/pkg/clock"
	"estate-ledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service  *tradesvc.Service
	Holdings *holdsvc.Service
	Clock    clock.Clock
	Metrics  *metrics.Metrics
}

// BuyShares POST /api/v1/shares/buy-shares
func (h *Handlers) BuyShares(c *fiber.Ctx) error {
	var body struct {
		PropertyID uint64 `json:"property_id"`
		Shares     int64  `json:"shares"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Missing required fields")
	}
	if body.PropertyID == 0 || body.Shares == 0 {
		return response.BadRequest(c, "Missing required fields")
	}
	if body.Shares < 0 {
		return response.BadRequest(c, "Shares must be a positive number")
	}

	result, err := h.Service.BuyShares(c.Context(), ledgerhttp.Call(c, h.Clock), body.PropertyID, body.Shares)
	h.Metrics.ObserveOperation("buy_shares", err)
	if err != nil {
		return ledgerhttp.RespondError(c, err)
	}
	h.Metrics.AddSharesIssued(result.Shares)
	return response.Success(c, "Shares purchased successfully", result, nil)
}

// TransferShares POST /api/v1/shares/transfer-shares
func (h *Handlers) TransferShares(c *fiber.Ctx) error {
	var body struct {
		PropertyID uint64 `json:"property_id"`
		To         string `json:"to"`
		Shares     int64  `json:"shares"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Missing required fields")
	}
	to := strings.ToLower(strings.TrimSpace(body.To))
	if body.PropertyID == 0 || to == "" || body.Shares == 0 {
		return response.BadRequest(c, "Missing required fields")
	}
	if body.Shares < 0 {
		return response.BadRequest(c, "Shares must be a positive number")
	}

	err := h.Service.TransferShares(c.Context(), ledgerhttp.Call(c, h.Clock), body.PropertyID, to, body.Shares)
	h.Metrics.ObserveOperation("transfer_shares", err)
	if err != nil {
		return ledgerhttp.RespondError(c, err)
	}
	h.Metrics.AddSharesTransferred(body.Shares)
	return response.Success(c, "Transfer successful", fiber.Map{
		"property_id": body.PropertyID,
		"to":          to,
		"shares":      body.Shares,
		"transferred": true,
	}, nil)
}

// ShareholderInfo GET /api/v1/shares/shareholder-info/:property_id/:holder
func (h *Handlers) ShareholderInfo(c *fiber.Ctx) error {
	propertyID, ok := ledgerhttp.UintParam(c, "property_id")
	if !ok {
		return response.BadRequest(c, "Invalid property id")
	}
	holder := strings.ToLower(c.Params("holder"))
	pos, err := h.Holdings.GetShareholderInfo(c.Context(), propertyID, holder)
	if errors.Is(err, holdsvc.ErrPositionNotFound) {
		return response.NotFound(c, err.Error())
	}
	if err != nil {
		return ledgerhttp.RespondError(c, err)
	}
	return response.Success(c, "Shareholder position fetched", pos, nil)
}
