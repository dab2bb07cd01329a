package ticket

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ticketdesk/ticketdesk/internal/httpctx"
)

// Handler exposes ticket HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a ticket HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

type updateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
}

type ticketResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Create files a ticket for the authenticated user.
func (h *Handler) Create(c *fiber.Ctx) error {
	u, ok := httpctx.CurrentUser(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	t, err := h.service.Create(c.UserContext(), u, CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    Priority(req.Priority),
	})
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(toResponse(t))
}

// ListAll returns every ticket; the route is admin-gated.
func (h *Handler) ListAll(c *fiber.Ctx) error {
	tickets, err := h.service.ListAll(c.UserContext())
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(toResponses(tickets))
}

// ListMine returns the authenticated user's tickets.
func (h *Handler) ListMine(c *fiber.Ctx) error {
	u, ok := httpctx.CurrentUser(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	tickets, err := h.service.ListMine(c.UserContext(), u.ID)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(toResponses(tickets))
}

// Get returns one ticket for its creator or any admin.
func (h *Handler) Get(c *fiber.Ctx) error {
	u, ok := httpctx.CurrentUser(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	t, err := h.service.Get(c.UserContext(), u, c.Params("id"))
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(toResponse(t))
}

// Update applies admin triage changes.
func (h *Handler) Update(c *fiber.Ctx) error {
	var req updateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	t, err := h.service.Update(c.UserContext(), c.Params("id"), UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      Status(req.Status),
		Priority:    Priority(req.Priority),
	})
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(toResponse(t))
}

// Delete removes a ticket.
func (h *Handler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "ticket deleted"})
}

func toResponse(t Ticket) ticketResponse {
	return ticketResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		CreatedBy:   t.CreatedBy,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func toResponses(tickets []Ticket) []ticketResponse {
	out := make([]ticketResponse, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, toResponse(t))
	}
	return out
}

func mapError(err error) error {
	var validation *ValidationError
	switch {
	case errors.As(err, &validation):
		return fiber.NewError(http.StatusBadRequest, validation.Error())
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, ErrNotFound.Error())
	case errors.Is(err, ErrForbidden):
		return fiber.NewError(http.StatusForbidden, ErrForbidden.Error())
	case errors.Is(err, ErrAdminsCannotCreate):
		return fiber.NewError(http.StatusForbidden, ErrAdminsCannotCreate.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, "internal error")
	}
}
