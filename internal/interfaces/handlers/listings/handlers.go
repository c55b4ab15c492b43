package listings

import (
	"errors"
	"fmt"
	"strings"

	listsvc "estate-ledger/internal/application/listings"
	"estate-ledger/internal/infrastructure/metrics"
	"estate-ledger/internal/interfaces/handlers/ledgerhttp"
	"estate-ledger/internal/pkg/clock"
	"estate-ledger/internal/pkg/response"
	"estate-ledger/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *listsvc.Service
	Clock   clock.Clock
	Metrics *metrics.Metrics
}

type listPropertyRequest struct {
	Address        string `json:"address"`
	PropertyType   string `json:"property_type"`
	Valuation      string `json:"valuation"`
	TotalShares    int64  `json:"total_shares"`
	RentalIncome   string `json:"rental_income"`
	Expenses       string `json:"expenses"`
	ComplianceHash string `json:"compliance_hash"`
}

// ListProperty POST /api/v1/properties/list-property: 201 with the new property id.
func (h *Handlers) ListProperty(c *fiber.Ctx) error {
	var body listPropertyRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	required := map[string]string{
		"address":         body.Address,
		"property_type":   body.PropertyType,
		"valuation":       body.Valuation,
		"compliance_hash": body.ComplianceHash,
	}
	for _, f := range []string{"address", "property_type", "valuation", "compliance_hash"} {
		if strings.TrimSpace(required[f]) == "" {
			return response.BadRequest(c, fmt.Sprintf("Missing required field: %s", f))
		}
	}
	valuation, ok := validation.ParseAmount(body.Valuation)
	if !ok {
		return response.BadRequest(c, "valuation must be a whole non-negative amount")
	}
	if body.RentalIncome == "" {
		body.RentalIncome = "0"
	}
	if body.Expenses == "" {
		body.Expenses = "0"
	}
	rental, ok := validation.ParseAmount(body.RentalIncome)
	if !ok {
		return response.BadRequest(c, "rental_income must be a whole non-negative amount")
	}
	expenses, ok := validation.ParseAmount(body.Expenses)
	if !ok {
		return response.BadRequest(c, "expenses must be a whole non-negative amount")
	}
	if !validation.IsValidComplianceHash(body.ComplianceHash) {
		return response.BadRequest(c, "compliance_hash must be 32 bytes hex-encoded")
	}

	id, err := h.Service.ListProperty(c.Context(), ledgerhttp.Call(c, h.Clock), listsvc.ListPropertyInput{
		Address:        body.Address,
		PropertyType:   body.PropertyType,
		Valuation:      valuation,
		TotalShares:    body.TotalShares,
		RentalIncome:   rental,
		Expenses:       expenses,
		ComplianceHash: strings.ToLower(body.ComplianceHash),
	})
	h.Metrics.ObserveOperation("list_property", err)
	if err != nil {
		return ledgerhttp.RespondError(c, err)
	}
	return response.SuccessCreated(c, "Property listed successfully", fiber.Map{"property_id": id}, nil)
}

// GetProperty GET /api/v1/properties/get-property/:id
func (h *Handlers) GetProperty(c *fiber.Ctx) error {
	id, ok := ledgerhttp.UintParam(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid property id")
	}
	prop, err := h.Service.GetProperty(c.Context(), id)
	if errors.Is(err, listsvc.ErrPropertyNotFound) {
		return response.NotFound(c, err.Error())
	}
	if err != nil {
		return ledgerhttp.RespondError(c, err)
	}
	return response.Success(c, "Property fetched successfully", prop, nil)
}

// GetAllProperties GET /api/v1/properties/get-all-properties
func (h *Handlers) GetAllProperties(c *fiber.Ctx) error {
	props, err := h.Service.GetAllProperties(c.Context())
	if err != nil {
		return ledgerhttp.RespondError(c, err)
	}
	return response.Success(c, "Properties fetched successfully", props, fiber.Map{"count": len(props)})
}
