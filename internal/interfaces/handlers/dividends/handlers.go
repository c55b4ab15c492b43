package dividends

import (
	"strings"

	divsvc "estate-ledger/internal/application/dividends"
	"estate-ledger/internal/infrastructure/metrics"
	"estate-ledger/internal/interfaces/handlers/ledgerhttp"
	"estate-ledger/internal/pkg/clock"
	"estate-ledger/internal/pkg/response"
	"estate-ledger/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *divsvc.Service
	Clock   clock.Clock
	Metrics *metrics.Metrics
}

// DistributeIncome POST /api/v1/income/distribute-income
func (h *Handlers) DistributeIncome(c *fiber.Ctx) error {
	var body struct {
		PropertyID        uint64  `json:"property_id"`
		Period            *uint64 `json:"period"`
		RentalIncome      string  `json:"rental_income"`
		OtherIncome       string  `json:"other_income"`
		OperatingExpenses string  `json:"operating_expenses"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Missing required fields")
	}
	if body.PropertyID == 0 || body.Period == nil || body.RentalIncome == "" {
		return response.BadRequest(c, "Missing required fields")
	}
	if body.OtherIncome == "" {
		body.OtherIncome = "0"
	}
	if body.OperatingExpenses == "" {
		body.OperatingExpenses = "0"
	}
	rental, ok1 := validation.ParseAmount(body.RentalIncome)
	other, ok2 := validation.ParseAmount(body.OtherIncome)
	opex, ok3 := validation.ParseAmount(body.OperatingExpenses)
	if !ok1 || !ok2 || !ok3 {
		return response.BadRequest(c, "Income and expense amounts must be whole non-negative numbers")
	}

	net, err := h.Service.DistributeIncome(c.Context(), ledgerhttp.Call(c, h.Clock), divsvc.DistributeIncomeInput{
		PropertyID:        body.PropertyID,
		Period:            *body.Period,
		RentalIncome:      rental,
		OtherIncome:       other,
		OperatingExpenses: opex,
	})
	h.Metrics.ObserveOperation("distribute_income", err)
	if err != nil {
		return ledgerhttp.RespondError(c, err)
	}
	return response.Success(c, "Income distributed", fiber.Map{
		"property_id": body.PropertyID,
		"period":      *body.Period,
		"net_income":  net,
	}, nil)
}

// ClaimDividends POST /api/v1/income/claim-dividends
func (h *Handlers) ClaimDividends(c *fiber.Ctx) error {
	var body struct {
		PropertyID uint64  `json:"property_id"`
		Period     *uint64 `json:"period"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Missing required fields")
	}
	if body.PropertyID == 0 || body.Period == nil {
		return response.BadRequest(c, "Missing required fields")
	}
	amount, err := h.Service.ClaimDividends(c.Context(), ledgerhttp.Call(c, h.Clock), body.PropertyID, *body.Period)
	h.Metrics.ObserveOperation("claim_dividends", err)
	if err != nil {
		return ledgerhttp.RespondError(c, err)
	}
	return response.Success(c, "Dividends claimed", fiber.Map{
		"property_id":     body.PropertyID,
		"period":          *body.Period,
		"dividend_amount": amount,
	}, nil)
}

// DividendShare GET /api/v1/income/dividend-share/:property_id/:holder
func (h *Handlers) DividendShare(c *fiber.Ctx) error {
	propertyID, ok := ledgerhttp.UintParam(c, "property_id")
	if !ok {
		return response.BadRequest(c, "Invalid property id")
	}
	holder := strings.ToLower(c.Params("holder"))
	share, err := h.Service.CalculateDividendShare(c.Context(), propertyID, holder)
	if err != nil {
		return ledgerhttp.RespondError(c, err)
	}
	return response.Success(c, "Dividend share calculated", fiber.Map{
		"property_id":    propertyID,
		"holder":         holder,
		"dividend_share": share,
	}, nil)
}

// Period GET /api/v1/income/period/:property_id/:period
func (h *Handlers) Period(c *fiber.Ctx) error {
	propertyID, ok := ledgerhttp.UintParam(c, "property_id")
	if !ok {
		return response.BadRequest(c, "Invalid property id")
	}
	period, ok := ledgerhttp.PeriodParam(c, "period")
	if !ok {
		return response.BadRequest(c, "Invalid period")
	}
	rec, err := h.Service.GetIncomePeriod(c.Context(), propertyID, period)
	if err != nil {
		return ledgerhttp.RespondError(c, err)
	}
	return response.Success(c, "Income period fetched", rec, nil)
}
