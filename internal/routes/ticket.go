package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ticketdesk/ticketdesk/internal/middleware"
	"github.com/ticketdesk/ticketdesk/internal/ticket"
)

// RegisterTicketRoutes wires ticket endpoints. All routes require
// authentication; mutation by admins additionally honors idempotency keys.
func RegisterTicketRoutes(r fiber.Router, h *ticket.Handler, authn fiber.Handler, idem fiber.Handler) {
	group := r.Group("/tickets", authn)
	if idem != nil {
		group.Use(idem)
	}

	group.Get("/", middleware.AdminsOnly(), h.ListAll)
	group.Get("/mine", h.ListMine)
	group.Get("/:id", h.Get)
	group.Post("/", middleware.UsersOnly(), h.Create)
	group.Put("/:id", middleware.AdminsOnly(), h.Update)
	group.Delete("/:id", middleware.AdminsOnly(), h.Delete)
}
