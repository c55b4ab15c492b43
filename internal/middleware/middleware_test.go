package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"estate-ledger/internal/pkg/clock"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func errorBody(t *testing.T, body io.Reader) map[string]interface{} {
	var out map[string]interface{}
	b, _ := io.ReadAll(body)
	require.NoError(t, json.Unmarshal(b, &out))
	e, _ := out["error"].(map[string]interface{})
	return e
}

func TestTracing_KeepsValidInboundID(t *testing.T) {
	app := fiber.New()
	app.Use(Tracing())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(GetTraceID(c)) })

	id := uuid.New().String()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Trace-Id", id)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, id, resp.Header.Get("X-Trace-Id"))

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Trace-Id", "not-a-uuid")
	resp, err = app.Test(req)
	require.NoError(t, err)
	got := resp.Header.Get("X-Trace-Id")
	assert.NotEqual(t, "not-a-uuid", got)
	_, err = uuid.Parse(got)
	assert.NoError(t, err)
}

func TestLedgerTime_OneReadPerRequest(t *testing.T) {
	clk := clock.NewManual(500)
	app := fiber.New()
	app.Use(LedgerTime(clk))
	app.Get("/", func(c *fiber.Ctx) error {
		first := Now(c, clk)
		clk.Advance(10)
		return c.JSON(fiber.Map{"first": first, "second": Now(c, clk)})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, "500", resp.Header.Get("X-Ledger-Time"))
	var out map[string]int64
	b, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, int64(500), out["first"])
	assert.Equal(t, int64(500), out["second"])

	bare := fiber.New()
	bare.Get("/", func(c *fiber.Ctx) error { return c.JSON(Now(c, clk)) })
	resp, err = bare.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	b, _ = io.ReadAll(resp.Body)
	assert.Equal(t, "510", string(b))
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Use(Tracing())
	app.Get("/teapot", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "short and stout") })
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("disk on fire") })

	resp, err := app.Test(httptest.NewRequest("GET", "/teapot", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)
	assert.Equal(t, "short and stout", errorBody(t, resp.Body)["message"])

	resp, err = app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	e := errorBody(t, resp.Body)
	assert.Equal(t, "Internal Server Error", e["message"])
	details, _ := e["details"].(map[string]interface{})
	assert.Equal(t, resp.Header.Get("X-Trace-Id"), details["trace_id"])

	resp, err = app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestCORS(t *testing.T) {
	app := fiber.New()
	app.Use(CORS(CORSConfig{AllowedSuffix: ".example.com", DevPassword: "letmein"}))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "https://app.Example.com")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "https://app.Example.com", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "X-Admin-Key")
	assert.Contains(t, resp.Header.Get("Access-Control-Expose-Headers"), "X-Ledger-Time")

	req = httptest.NewRequest("OPTIONS", "/", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "https://evil.test")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Not allowed by CORS", errorBody(t, resp.Body)["message"])

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "https://evil.test")
	req.Header.Set("dev-password", "letmein")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestAuthorizeAdmin(t *testing.T) {
	for _, tc := range []struct {
		key, header string
		want        int
	}{
		{"", "anything", fiber.StatusInternalServerError},
		{"k", "", fiber.StatusForbidden},
		{"k", "K", fiber.StatusForbidden},
		{"k", "k", fiber.StatusOK},
	} {
		app := fiber.New()
		app.Post("/", AuthorizeAdmin(tc.key), func(c *fiber.Ctx) error { return c.SendString("ok") })
		req := httptest.NewRequest("POST", "/", nil)
		if tc.header != "" {
			req.Header.Set(AdminKeyHeader, tc.header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, tc.want, resp.StatusCode, "key=%q header=%q", tc.key, tc.header)
	}
}

func TestRequireAuth(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if id := c.Get("X-Test-User"); id != "" {
			c.Locals("user", map[string]interface{}{"identity": id})
		}
		return c.Next()
	})
	app.Get("/", RequireAuth(), func(c *fiber.Ctx) error { return c.SendString(Caller(c)) })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Test-User", "alice")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	b, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "alice", string(b))
}

func TestSession_PersistsUserAcrossRequests(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	app := fiber.New()
	app.Use(Session(rdb))
	app.Post("/login", func(c *fiber.Ctx) error {
		sid := RegenerateSessionID(c)
		SetSessionUser(c, SessionUser{Identity: "alice"})
		return c.SendString(sid)
	})
	app.Get("/whoami", func(c *fiber.Ctx) error { return c.SendString(Caller(c)) })

	resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
	require.NoError(t, err)
	sid, _ := io.ReadAll(resp.Body)
	assert.True(t, mr.Exists(SessionRedisPrefix+string(sid)))

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Cookie", SessionCookieName+"=s:"+string(sid))
	resp, err = app.Test(req)
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "alice", string(b))

	resp, err = app.Test(httptest.NewRequest("GET", "/whoami", nil))
	require.NoError(t, err)
	b, _ = io.ReadAll(resp.Body)
	assert.Empty(t, string(b))
}

func TestHealthMarker_CountsRequestsAndFailures(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	app := fiber.New()
	app.Use(HealthMarker(rdb))
	app.Get("/health/json", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/fail", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusBadGateway) })

	for _, p := range []string{"/ok", "/fail", "/health/json"} {
		_, err := app.Test(httptest.NewRequest("GET", p, nil))
		require.NoError(t, err)
	}
	total, _ := mr.Get(KeyReqTotal)
	failed, _ := mr.Get(KeyReqErrors)
	assert.Equal(t, "2", total)
	assert.Equal(t, "1", failed)
	entries, _ := mr.List(KeyErrorLog)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0], "HTTP 502")
}
