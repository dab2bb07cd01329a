package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ticketdesk/ticketdesk/internal/auth"
	"github.com/ticketdesk/ticketdesk/internal/config"
	"github.com/ticketdesk/ticketdesk/internal/httpctx"
	"github.com/ticketdesk/ticketdesk/internal/user"
)

// Authenticate verifies the bearer token and resolves the full user record
// onto the request context. Role checks compose after this stage.
func Authenticate(cfg config.Config, repo user.Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])

		userID, err := auth.ParseToken(tokenStr, []byte(cfg.JWTSecret))
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}

		u, err := repo.FindByID(c.UserContext(), userID)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}

		httpctx.SetCurrentUser(c, u)
		return c.Next()
	}
}
