package kyc

import (
	"strings"

	compliancesvc "estate-ledger/internal/application/compliance"
	"estate-ledger/internal/infrastructure/metrics"
	"estate-ledger/internal/interfaces/handlers/ledgerhttp"
	"estate-ledger/internal/middleware"
	"estate-ledger/internal/pkg/clock"
	"estate-ledger/internal/pkg/response"
	"estate-ledger/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *compliancesvc.Service
	Clock   clock.Clock
	Metrics *metrics.Metrics
}

// RegisterKyc POST /api/v1/kyc/register-kyc
func (h *Handlers) RegisterKyc(c *fiber.Ctx) error {
	var body struct {
		Country    string `json:"country"`
		Accredited bool   `json:"accredited"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "country is required")
	}
	if !validation.IsValidCountry(body.Country) {
		return response.BadRequest(c, "country must be a 2-letter code")
	}
	call := ledgerhttp.Call(c, h.Clock)
	rec, err := h.Service.RegisterKyc(c.Context(), call, body.Country, body.Accredited)
	h.Metrics.ObserveOperation("register_kyc", err)
	if err != nil {
		return ledgerhttp.RespondError(c, err)
	}
	return response.Success(c, "KYC registered", rec, nil)
}

// IsVerified GET /api/v1/kyc/is-verified/:identity
func (h *Handlers) IsVerified(c *fiber.Ctx) error {
	identity := strings.ToLower(c.Params("identity"))
	if identity == "" {
		return response.BadRequest(c, "identity is required")
	}
	ok, err := h.Service.IsKycVerified(c.Context(), identity, middleware.Now(c, h.Clock))
	if err != nil {
		return ledgerhttp.RespondError(c, err)
	}
	return response.Success(c, "KYC status fetched", fiber.Map{
		"identity": identity,
		"verified": ok,
	}, nil)
}
