package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/keyauth"

	"signature-service/internal/domain"
	"signature-service/internal/tokens"
)

// APIKeyLocal is the fiber.Ctx locals key holding an authenticated API key.
const APIKeyLocal = "api_key"

// KeyAuth validates X-API-Key against the token cache. Requests without the
// header pass through as anonymous and are left to the user limiter.
func KeyAuth(cache *tokens.Cache) fiber.Handler {
	return keyauth.New(keyauth.Config{
		KeyLookup:  "header:X-API-Key",
		ContextKey: APIKeyLocal,
		Validator: func(c *fiber.Ctx, key string) (bool, error) {
			if !cache.Ready() {
				return false, domain.ErrTokenStoreNotReady
			}
			if !cache.Valid(key) {
				return false, domain.ErrInvalidAPIKey
			}
			return true, nil
		},
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || c.Get("X-API-Key") == ""
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Keyauth can call ErrorHandler with a nil error.
			status := fiber.StatusUnauthorized
			if err == nil {
				err = fiber.ErrUnauthorized
			}
			if errors.Is(err, domain.ErrTokenStoreNotReady) {
				status = fiber.StatusServiceUnavailable
			}
			return c.Status(status).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})
}
