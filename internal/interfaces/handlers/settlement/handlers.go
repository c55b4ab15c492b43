package settlement

import (
	"errors"
	"strings"

	settlesvc "estate-ledger/internal/application/settlement"
	"estate-ledger/internal/infrastructure/metrics"
	"estate-ledger/internal/interfaces/handlers/ledgerhttp"
	"estate-ledger/internal/middleware"
	"estate-ledger/internal/pkg/clock"
	"estate-ledger/internal/pkg/response"
	"estate-ledger/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *settlesvc.Service
	Clock   clock.Clock
	Metrics *metrics.Metrics
}

// Deposit POST /api/v1/settlement/deposit: operator-only; credits funds received off-ledger.
// A repeated reference is acknowledged without crediting twice.
func (h *Handlers) Deposit(c *fiber.Ctx) error {
	var body struct {
		Account   string `json:"account"`
		Amount    string `json:"amount"`
		Reference string `json:"reference"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "account and amount are required")
	}
	account := strings.ToLower(strings.TrimSpace(body.Account))
	if account == "" || body.Amount == "" {
		return response.BadRequest(c, "account and amount are required")
	}
	amount, ok := validation.ParseAmount(body.Amount)
	if !ok {
		return response.BadRequest(c, "amount must be a whole positive number")
	}

	call := ledgerhttp.Call(c, h.Clock)
	if call.Caller == "" {
		call.Caller = "operator"
	}
	bal, err := h.Service.Deposit(c.Context(), call, account, amount, body.Reference)
	h.Metrics.ObserveOperation("deposit", err)
	if errors.Is(err, settlesvc.ErrInvalidAmount) || errors.Is(err, settlesvc.ErrReservedAccount) {
		return response.BadRequest(c, err.Error())
	}
	if err != nil {
		return ledgerhttp.RespondError(c, err)
	}
	return response.Success(c, "Deposit credited", fiber.Map{
		"account": account,
		"balance": bal,
	}, nil)
}

// Balance GET /api/v1/settlement/balance: the session user's settlement balance.
func (h *Handlers) Balance(c *fiber.Ctx) error {
	account := middleware.Caller(c)
	if account == "" {
		return response.Unauthorized(c, "Unauthorized")
	}
	bal, err := h.Service.Balance(c.Context(), account)
	if err != nil {
		return ledgerhttp.RespondError(c, err)
	}
	return response.Success(c, "Balance fetched successfully", fiber.Map{
		"account": account,
		"balance": bal,
	}, nil)
}
