// Package httpctx carries request-scoped identity between the auth
// middleware and the domain handlers without coupling them to each other.
package httpctx

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ticketdesk/ticketdesk/internal/user"
)

const (
	currentUserKey = "current_user"
	userIDKey      = "user_id"
)

// SetCurrentUser attaches the authenticated user to the request context.
func SetCurrentUser(c *fiber.Ctx, u user.User) {
	c.Locals(currentUserKey, u)
	c.Locals(userIDKey, u.ID)
}

// CurrentUser extracts the user attached by the authentication stage.
func CurrentUser(c *fiber.Ctx) (user.User, bool) {
	u, ok := c.Locals(currentUserKey).(user.User)
	return u, ok
}
