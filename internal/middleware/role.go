package middleware

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ticketdesk/ticketdesk/internal/httpctx"
	"github.com/ticketdesk/ticketdesk/internal/user"
)

// RequireRole short-circuits with 403 unless the authenticated user holds the
// given role. Must run after Authenticate.
func RequireRole(role user.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, ok := httpctx.CurrentUser(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, "authentication required")
		}
		if u.Role != role {
			return fiber.NewError(http.StatusForbidden, "access denied")
		}
		return c.Next()
	}
}

// AdminsOnly restricts a route to admins.
func AdminsOnly() fiber.Handler {
	return RequireRole(user.RoleAdmin)
}

// UsersOnly restricts a route to regular users.
func UsersOnly() fiber.Handler {
	return RequireRole(user.RoleUser)
}
