package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ticketdesk/ticketdesk/internal/invite"
	"github.com/ticketdesk/ticketdesk/internal/middleware"
)

// RegisterAdminRoutes wires admin-only invitation endpoints behind
// authentication and the admin role gate.
func RegisterAdminRoutes(r fiber.Router, h *invite.Handler, authn fiber.Handler) {
	group := r.Group("/admin", authn, middleware.AdminsOnly())
	group.Post("/generate", h.Generate)
}
