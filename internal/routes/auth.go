package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ticketdesk/ticketdesk/internal/auth"
)

// RegisterAuthRoutes wires signup/signin/logout endpoints.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter fiber.Handler) {
	group := r.Group("/auth")
	if rateLimiter != nil {
		group.Use(rateLimiter)
	}
	group.Post("/signup", h.SignUp)
	group.Post("/signin", h.SignIn)
	group.Post("/logout", h.SignOut)
}
