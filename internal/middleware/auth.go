package middleware

import (
	"estate-ledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const userLocal = "user"

// RequireAuth ensures a user is in the session. Returns 401 with standard error format if not.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if Caller(c) == "" {
			return response.Unauthorized(c, "Unauthorized")
		}
		c.Locals("auth", GetUser(c))
		return c.Next()
	}
}

// GetUser returns the session user from Locals (nil if not logged in).
func GetUser(c *fiber.Ctx) interface{} {
	return c.Locals(userLocal)
}

// Caller returns the ledger identity of the session user, or "" when unauthenticated.
func Caller(c *fiber.Ctx) string {
	m, ok := GetUser(c).(map[string]interface{})
	if !ok {
		return ""
	}
	id, _ := m["identity"].(string)
	return id
}
