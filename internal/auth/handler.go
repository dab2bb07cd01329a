package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ticketdesk/ticketdesk/internal/user"
)

// Handler exposes signup/signin/logout endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs an auth HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type signUpRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	InvitationCode string `json:"invitationCode"`
}

type signInRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	InvitationCode string `json:"invitationCode"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

// SignUp handles account registration.
func (h *Handler) SignUp(c *fiber.Ctx) error {
	var req signUpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	created, token, err := h.service.SignUp(c.UserContext(), SignUpInput{
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		InvitationCode: req.InvitationCode,
	})
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(sessionResponse{Token: token, User: toUserResponse(created)})
}

// SignIn handles authentication and optional role promotion.
func (h *Handler) SignIn(c *fiber.Ctx) error {
	var req signInRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	u, token, err := h.service.SignIn(c.UserContext(), SignInInput{
		Email:          req.Email,
		Password:       req.Password,
		InvitationCode: req.InvitationCode,
	})
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(sessionResponse{Token: token, User: toUserResponse(u)})
}

// SignOut acknowledges logout; tokens stay valid until expiry.
func (h *Handler) SignOut(c *fiber.Ctx) error {
	h.service.SignOut()
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "sign out successful"})
}

func toUserResponse(u user.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

// mapError translates domain failures into HTTP statuses without leaking
// internals.
func mapError(err error) error {
	var validation *ValidationError
	switch {
	case errors.As(err, &validation):
		return fiber.NewError(http.StatusBadRequest, validation.Error())
	case errors.Is(err, user.ErrDuplicateEmail):
		return fiber.NewError(http.StatusConflict, user.ErrDuplicateEmail.Error())
	case errors.Is(err, user.ErrNotFound):
		return fiber.NewError(http.StatusNotFound, user.ErrNotFound.Error())
	case errors.Is(err, ErrInvalidCredentials):
		return fiber.NewError(http.StatusUnauthorized, ErrInvalidCredentials.Error())
	case errors.Is(err, ErrInvalidInvitation):
		return fiber.NewError(http.StatusBadRequest, ErrInvalidInvitation.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, "internal error")
	}
}
