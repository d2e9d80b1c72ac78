package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/knightquest/kq-api/internal/auth"
	"github.com/knightquest/kq-api/internal/models"
	"github.com/knightquest/kq-api/internal/types"
)

// Context keys set by Authenticate for downstream handlers.
const (
	LocalUserID   = "userID"
	LocalUsername = "username"
	LocalRole     = "role"
)

// Authenticate resolves the request to a user identity. The token is read
// from the access_token cookie first, then from a Bearer Authorization
// header; the game client uses the header, the web flows use the cookie.
func Authenticate(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies("access_token")
		if token == "" {
			header := c.Get("Authorization")
			if strings.HasPrefix(header, "Bearer ") {
				token = strings.TrimPrefix(header, "Bearer ")
			}
		}

		if token == "" {
			return &types.CustomError{
				Code:      fiber.StatusUnauthorized,
				Message:   "No valid session found. Please login again.",
				ErrorCode: "UNAUTHORIZED",
			}
		}

		claims, err := auth.Verify(secret, token)
		if err != nil {
			return &types.CustomError{
				Code:      fiber.StatusUnauthorized,
				Message:   "Invalid token",
				ErrorCode: "UNAUTHORIZED",
			}
		}

		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalUsername, claims.Username)
		c.Locals(LocalRole, claims.Role)
		return c.Next()
	}
}

// RequireRole guards a route group to one role. Identity must already be
// resolved by Authenticate.
func RequireRole(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		current, _ := c.Locals(LocalRole).(models.Role)
		if current != role {
			return &types.CustomError{
				Code:      fiber.StatusForbidden,
				Message:   "Insufficient permissions",
				ErrorCode: "FORBIDDEN",
			}
		}
		return c.Next()
	}
}

// UserID extracts the authenticated user id from the request context.
func UserID(c *fiber.Ctx) uint64 {
	id, _ := c.Locals(LocalUserID).(uint64)
	return id
}
