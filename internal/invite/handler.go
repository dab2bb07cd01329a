package invite

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ticketdesk/ticketdesk/internal/httpctx"
)

// Handler exposes the admin invitation-code endpoint.
type Handler struct {
	engine *Engine
}

// NewHandler constructs an invitation HTTP handler.
func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

// Generate mints a fresh invitation code for the calling admin and returns
// the plaintext once.
func (h *Handler) Generate(c *fiber.Ctx) error {
	u, ok := httpctx.CurrentUser(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	code, err := h.engine.Generate(c.UserContext(), u)
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			return fiber.NewError(http.StatusForbidden, ErrForbidden.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, "internal error")
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"code": code})
}
