package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/suggestbox-go-api/internal/service"
	"github.com/noah-isme/suggestbox-go-api/internal/utils"
)

const adminIDKey = "admin_id"

// AdminProtected verifies the Bearer token and stores the admin id in Locals.
func AdminProtected(auth service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, utils.CodeUnauthorized, "Missing authorization header")
		}

		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" || token == header {
			return utils.SendError(c, fiber.StatusUnauthorized, utils.CodeUnauthorized, "Invalid authorization header")
		}

		adminID, err := auth.Verify(token)
		if err != nil {
			if errors.Is(err, service.ErrTokenExpired) {
				return utils.SendError(c, fiber.StatusUnauthorized, utils.CodeUnauthorized, "Token expired")
			}
			return utils.SendError(c, fiber.StatusUnauthorized, utils.CodeUnauthorized, "Invalid token")
		}

		c.Locals(adminIDKey, adminID)
		return c.Next()
	}
}

// AdminIDFromContext returns the authenticated admin id set by AdminProtected.
func AdminIDFromContext(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(adminIDKey).(uint)
	return id, ok
}
