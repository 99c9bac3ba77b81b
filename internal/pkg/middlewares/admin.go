package middlewares

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/hera-erp/tilestats/internal/pkg/apierr"
)

// AdminAuth accepts requests bearing key. With an empty key every admin request is rejected.
func AdminAuth(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if !ok || key == "" || subtle.ConstantTimeCompare([]byte(token), []byte(key)) != 1 {
			return apierr.ErrUnauthorized
		}
		return c.Next()
	}
}
