package health

import (
	"crypto/subtle"
	"encoding/json"
	"strconv"
	"time"

	healthsvc "estate-ledger/internal/application/health"
	"estate-ledger/internal/middleware"
	"estate-ledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const maxErrorEntries = 50

// Handlers holds dependencies for health endpoints.
type Handlers struct {
	Rdb            *redis.Client
	DB             healthsvc.DBPinger
	HealthAdminKey string
}

func (h *Handlers) checker() *healthsvc.Checker {
	return &healthsvc.Checker{Rdb: h.Rdb, Store: h.DB}
}

// Reset clears the request counters. The admin key comes from X-Admin-Key or ?key=.
func (h *Handlers) Reset(c *fiber.Ctx) error {
	key := c.Get(middleware.AdminKeyHeader)
	if key == "" {
		key = c.Query("key")
	}
	if h.HealthAdminKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(h.HealthAdminKey)) != 1 {
		return response.Error(c, "Unauthorized", fiber.StatusForbidden, nil)
	}
	ctx := c.UserContext()
	_, err := h.Rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, middleware.KeyReqTotal, middleware.KeyReqErrors, middleware.KeyResTime, middleware.KeyResCount, middleware.KeyLastReq, middleware.KeyErrorLog)
		p.Set(ctx, middleware.KeyStartTime, strconv.FormatInt(time.Now().UnixMilli(), 10), 0)
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to reset health stats")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Stats reset successfully", fiber.Map{"success": true}, nil)
}

// JSON returns the health report. A degraded service answers 503 so load balancers can act on it.
func (h *Handlers) JSON(c *fiber.Ctx) error {
	r := h.checker().Collect(c.UserContext())
	status := fiber.StatusOK
	if r.Status != healthsvc.StatusOK {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{
		"service":      "estate-ledger-api",
		"status":       r.Status,
		"runtime":      r.Runtime,
		"traffic":      r.Traffic,
		"dependencies": r.Dependencies,
		"ledger":       r.Ledger,
	})
}

// Errors returns the most recent 5xx entries, newest first. ?limit= narrows the list.
func (h *Handlers) Errors(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", maxErrorEntries)
	if limit <= 0 || limit > maxErrorEntries {
		limit = maxErrorEntries
	}
	entries, err := h.Rdb.LRange(c.UserContext(), middleware.KeyErrorLog, 0, int64(limit-1)).Result()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON([]interface{}{})
	}
	out := make([]map[string]interface{}, 0, len(entries))
	for _, s := range entries {
		var m map[string]interface{}
		if json.Unmarshal([]byte(s), &m) == nil && m != nil {
			out = append(out, m)
		}
	}
	return c.JSON(out)
}

// Dashboard GET / renders the status page.
func (h *Handlers) Dashboard(c *fiber.Ctx) error {
	html, err := healthsvc.RenderDashboard(h.checker().Collect(c.UserContext()))
	if err != nil {
		log.Error().Err(err).Msg("Failed to render dashboard")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	c.Set(fiber.HeaderContentType, "text/html; charset=utf-8")
	return c.SendString(html)
}
