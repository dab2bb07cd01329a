package ticket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ticketdesk/ticketdesk/internal/notification"
	"github.com/ticketdesk/ticketdesk/internal/user"
)

var (
	// ErrAdminsCannotCreate blocks admins from filing tickets.
	ErrAdminsCannotCreate = errors.New("admins are not allowed to create tickets")

	// ErrForbidden occurs when a user asks for a ticket they do not own.
	ErrForbidden = errors.New("access denied: you can only view your own tickets")
)

// ValidationError flags a bad ticket payload.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

// Service implements the ticket workflow: users file tickets, admins triage
// them, and status changes notify the creator by email.
type Service struct {
	repo     Repository
	users    user.Repository
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewService builds a ticket service.
func NewService(repo Repository, users user.Repository, notifier notification.Notifier, logger *slog.Logger) *Service {
	return &Service{repo: repo, users: users, notifier: notifier, logger: logger}
}

// CreateInput captures a new ticket request.
type CreateInput struct {
	Title       string
	Description string
	Priority    Priority
}

// Create files a ticket for the given user. Admins are rejected; they triage
// tickets, they do not open them.
func (s *Service) Create(ctx context.Context, creator user.User, input CreateInput) (Ticket, error) {
	if creator.IsAdmin() {
		return Ticket{}, ErrAdminsCannotCreate
	}
	if input.Title == "" || input.Description == "" {
		return Ticket{}, &ValidationError{msg: "title and description are required"}
	}

	priority := PriorityMedium
	if input.Priority != "" {
		if !ValidPriority(input.Priority) {
			return Ticket{}, &ValidationError{msg: fmt.Sprintf("unknown priority %q", input.Priority)}
		}
		priority = input.Priority
	}

	now := time.Now().UTC()
	t := Ticket{
		ID:          uuid.New().String(),
		Title:       input.Title,
		Description: input.Description,
		Status:      StatusOpen,
		Priority:    priority,
		CreatedBy:   creator.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return Ticket{}, err
	}
	return t, nil
}

// ListAll returns every ticket. Admin-only; enforced at the route.
func (s *Service) ListAll(ctx context.Context) ([]Ticket, error) {
	return s.repo.ListAll(ctx)
}

// ListMine returns the requesting user's tickets.
func (s *Service) ListMine(ctx context.Context, creatorID string) ([]Ticket, error) {
	return s.repo.ListByCreator(ctx, creatorID)
}

// Get returns a single ticket; non-admins may only see their own.
func (s *Service) Get(ctx context.Context, requester user.User, id string) (Ticket, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return Ticket{}, err
	}
	if !requester.IsAdmin() && t.CreatedBy != requester.ID {
		return Ticket{}, ErrForbidden
	}
	return t, nil
}

// UpdateInput captures the fields an admin may change. Empty values leave the
// existing field untouched.
type UpdateInput struct {
	Title       string
	Description string
	Status      Status
	Priority    Priority
}

// Update applies admin changes. A status change sends a best-effort email to
// the creator; delivery failures are logged, never surfaced.
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (Ticket, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return Ticket{}, err
	}

	previousStatus := t.Status
	if input.Title != "" {
		t.Title = input.Title
	}
	if input.Description != "" {
		t.Description = input.Description
	}
	if input.Status != "" {
		if !ValidStatus(input.Status) {
			return Ticket{}, &ValidationError{msg: fmt.Sprintf("unknown status %q", input.Status)}
		}
		t.Status = input.Status
	}
	if input.Priority != "" {
		if !ValidPriority(input.Priority) {
			return Ticket{}, &ValidationError{msg: fmt.Sprintf("unknown priority %q", input.Priority)}
		}
		t.Priority = input.Priority
	}
	t.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, t); err != nil {
		return Ticket{}, err
	}

	if t.Status != previousStatus {
		s.notifyStatusChange(ctx, t)
	}
	return t, nil
}

// Delete removes a ticket.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) notifyStatusChange(ctx context.Context, t Ticket) {
	if s.notifier == nil {
		return
	}
	creator, err := s.users.FindByID(ctx, t.CreatedBy)
	if err != nil {
		s.log().Warn("skip status notification: creator lookup failed", "ticket_id", t.ID, "error", err)
		return
	}
	msg := notification.Message{
		To:      creator.Email,
		Subject: fmt.Sprintf("Your ticket %q is now %s", t.Title, t.Status),
		HTML:    notification.StatusUpdateHTML(creator.Name, t.Title, string(t.Status)),
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.log().Warn("status notification failed", "ticket_id", t.ID, "to", creator.Email, "error", err)
	}
}

func (s *Service) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
