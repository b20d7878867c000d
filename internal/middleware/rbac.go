package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/credtrack/credtrack-api/internal/utils"
)

// RequireRole gates a route group on the portal role placed in the locals by
// JWTProtected. Anything outside the allowed set, including requests that
// never carried a role claim, is rejected with 403.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		normalized := strings.ToLower(strings.TrimSpace(role))
		if normalized != "" {
			allowed[normalized] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("user_role").(string)
		role = strings.ToLower(strings.TrimSpace(role))
		if _, ok := allowed[role]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}
