package middleware

import (
	"github.com/gofiber/fiber/v2"

	"taskhive/models"
)

// RequireRole gates a route on the actor's global role. Team-scoped
// checks live in the rbac package and run inside handlers against the
// resource; this guard covers the one purely global gate (team
// creation).
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *fiber.Ctx) error {
		user, ok := c.Locals("user").(*models.User)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authentication required",
			})
		}

		if !allowed[user.Role] {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "You do not have permission to perform this action",
			})
		}

		return c.Next()
	}
}
