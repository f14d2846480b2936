package membership

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// IdentityContextKey is the fiber locals key holding the authenticated Identity.
const IdentityContextKey = "membership_identity"

// BearerToken extracts the raw token from the Authorization header, or ""
// when no bearer token is present.
func BearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireAuth validates the bearer token and stashes the identity in locals.
// Any decode failure, expired or malformed alike, maps to 401.
func RequireAuth(auther Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := BearerToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Unauthenticated",
			})
		}

		identity, err := auther.IdentityFromToken(c.UserContext(), token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Unauthenticated",
			})
		}

		c.Locals(IdentityContextKey, identity)
		c.SetUserContext(WithIdentityContext(c.UserContext(), identity))
		return c.Next()
	}
}

// IdentityFromCtx returns the identity stored by RequireAuth, or nil.
func IdentityFromCtx(c *fiber.Ctx) Identity {
	identity, ok := c.Locals(IdentityContextKey).(Identity)
	if !ok {
		return nil
	}
	return identity
}
