package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ticketdesk/ticketdesk/internal/config"
	"github.com/ticketdesk/ticketdesk/internal/invite"
	"github.com/ticketdesk/ticketdesk/internal/user"
)

const minPasswordLength = 6

var (
	// ErrInvalidCredentials occurs when the password does not match.
	ErrInvalidCredentials = errors.New("invalid password")

	// ErrInvalidInvitation occurs when a supplied invitation code does not
	// match any pending code, has expired, or was consumed by a racing call.
	ErrInvalidInvitation = errors.New("invalid or expired invitation code")
)

// ValidationError flags a request missing required fields.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationErr(msg string) error { return &ValidationError{msg: msg} }

// Service orchestrates registration, authentication and role promotion.
type Service struct {
	cfg   config.Config
	users user.Repository
}

// NewService builds the auth session service.
func NewService(cfg config.Config, users user.Repository) *Service {
	return &Service{cfg: cfg, users: users}
}

// SignUpInput captures a registration request.
type SignUpInput struct {
	Name           string
	Email          string
	Password       string
	InvitationCode string
}

// SignInInput captures a login request.
type SignInInput struct {
	Email          string
	Password       string
	InvitationCode string
}

// SignUp registers an account and issues a bearer token. The existence check,
// the first-user count, the insert and any invitation redemption all run in
// one transaction, so concurrent signups cannot both claim the first-admin
// slot and a failed invitation leaves no partial user behind.
func (s *Service) SignUp(ctx context.Context, input SignUpInput) (user.User, string, error) {
	if input.Name == "" {
		return user.User{}, "", validationErr("name is required")
	}
	email := user.NormalizeEmail(input.Email)
	if email == "" {
		return user.User{}, "", validationErr("email is required")
	}
	if len(input.Password) < minPasswordLength {
		return user.User{}, "", validationErr("password must be at least 6 characters")
	}

	// Hashing is CPU-bound; doing it before the transaction keeps the
	// critical section short.
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return user.User{}, "", err
	}

	var created user.User
	err = s.users.RunInTx(ctx, func(repo user.Repository) error {
		if _, err := repo.FindByEmail(ctx, email); err == nil {
			return user.ErrDuplicateEmail
		} else if !errors.Is(err, user.ErrNotFound) {
			return err
		}

		// First account ever becomes admin regardless of what was asked for.
		role := user.RoleUser
		count, err := repo.Count(ctx)
		if err != nil {
			return err
		}
		if count == 0 {
			role = user.RoleAdmin
		}

		engine := invite.NewEngine(repo)
		var inviteOwner *user.User
		if input.InvitationCode != "" {
			inviteOwner, err = engine.Validate(ctx, input.InvitationCode)
			if err != nil {
				return err
			}
			if inviteOwner == nil {
				return ErrInvalidInvitation
			}
			role = user.RoleAdmin
		}

		created = user.User{
			ID:           uuid.New().String(),
			Name:         input.Name,
			Email:        email,
			PasswordHash: hash,
			Role:         role,
			CreatedAt:    time.Now().UTC(),
		}
		if err := repo.Create(ctx, created); err != nil {
			return err
		}

		if inviteOwner != nil {
			if err := engine.Redeem(ctx, *inviteOwner); err != nil {
				if errors.Is(err, user.ErrCodeUsedOrMissing) {
					return ErrInvalidInvitation
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return user.User{}, "", err
	}

	token, err := SignToken(created.ID, []byte(s.cfg.JWTSecret), s.cfg.JWTTTL)
	if err != nil {
		return user.User{}, "", err
	}
	return created, token, nil
}

// SignIn authenticates an account and issues a bearer token. A valid
// invitation code promotes the account to admin; an invalid one fails the
// whole call rather than degrading to a plain sign-in.
func (s *Service) SignIn(ctx context.Context, input SignInInput) (user.User, string, error) {
	u, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		return user.User{}, "", err
	}

	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(input.Password)) != nil {
		return user.User{}, "", ErrInvalidCredentials
	}

	if input.InvitationCode != "" {
		engine := invite.NewEngine(s.users)
		owner, err := engine.Validate(ctx, input.InvitationCode)
		if err != nil {
			return user.User{}, "", err
		}
		if owner == nil {
			return user.User{}, "", ErrInvalidInvitation
		}
		// Redeem before promoting: the conditional consume decides who wins
		// when two calls race on the same code.
		if err := engine.Redeem(ctx, *owner); err != nil {
			if errors.Is(err, user.ErrCodeUsedOrMissing) {
				return user.User{}, "", ErrInvalidInvitation
			}
			return user.User{}, "", err
		}
		if !u.IsAdmin() {
			if err := s.users.UpdateRole(ctx, u.ID, user.RoleAdmin); err != nil {
				return user.User{}, "", err
			}
			u.Role = user.RoleAdmin
		}
	}

	token, err := SignToken(u.ID, []byte(s.cfg.JWTSecret), s.cfg.JWTTTL)
	if err != nil {
		return user.User{}, "", err
	}
	return u, token, nil
}

// SignOut acknowledges the request. Tokens are not tracked server-side and
// stay valid until natural expiry.
func (s *Service) SignOut() {}
