package middleware

import (
	"crypto/subtle"

	"estate-ledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const AdminKeyHeader = "X-Admin-Key"

// AuthorizeAdmin guards operator endpoints with a shared key.
// An empty configured key disables the endpoints -> 500 "Permission configuration error";
// wrong or missing key -> 403 "User is Forbidden from performing this action".
func AuthorizeAdmin(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if key == "" {
			return response.Error(c, "Permission configuration error", 500, nil)
		}
		got := c.Get(AdminKeyHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			return response.Error(c, "User is Forbidden from performing this action", 403, nil)
		}
		return c.Next()
	}
}
