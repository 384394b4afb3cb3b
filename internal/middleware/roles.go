package middleware

// roles.go: role-based access control middleware.
// The app has two roles: admin and user. Admins can see and repair every championship;
// users manage only their own.

import "github.com/gofiber/fiber/v2"

// RequireRole returns a middleware handler that allows only users whose role matches one
// of the provided roles. Returns HTTP 403 Forbidden if the role doesn't match.
//
// It accepts a variadic list of roles so a route can allow one or more roles with a single
// call:
//
//	admin.Post("/championships/:id/rebuild", middleware.RequireRole("admin"), h.Rebuild)
//
// RequireRole must be used AFTER the Auth middleware, because Auth is what populates the
// "userRole" value in the request context via c.Locals.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userRole, ok := c.Locals("userRole").(string)
		if !ok || userRole == "" {
			// Auth was not applied or failed silently: deny with 403, the caller may be
			// authenticated but has no role we can check.
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "forbidden",
			})
		}

		for _, role := range roles {
			if userRole == role {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "insufficient permissions",
		})
	}
}
