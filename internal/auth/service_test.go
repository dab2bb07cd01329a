package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ticketdesk/ticketdesk/internal/config"
	"github.com/ticketdesk/ticketdesk/internal/invite"
	"github.com/ticketdesk/ticketdesk/internal/user"
)

func testConfig() config.Config {
	return config.Config{JWTSecret: "test-secret", JWTTTL: time.Hour}
}

func TestFirstSignUpBecomesAdmin(t *testing.T) {
	repo := user.NewMemoryRepository()
	svc := NewService(testConfig(), repo)
	ctx := context.Background()

	alice, token, err := svc.SignUp(ctx, SignUpInput{Name: "Alice", Email: "a@x.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if alice.Role != user.RoleAdmin {
		t.Fatalf("expected first user to be admin, got %s", alice.Role)
	}
	if token == "" {
		t.Fatalf("expected a token")
	}

	bob, _, err := svc.SignUp(ctx, SignUpInput{Name: "Bob", Email: "b@x.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("second signup: %v", err)
	}
	if bob.Role != user.RoleUser {
		t.Fatalf("expected second user to be a regular user, got %s", bob.Role)
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	repo := user.NewMemoryRepository()
	svc := NewService(testConfig(), repo)
	ctx := context.Background()

	if _, _, err := svc.SignUp(ctx, SignUpInput{Name: "Alice", Email: "a@x.com", Password: "secret1"}); err != nil {
		t.Fatalf("signup: %v", err)
	}
	_, _, err := svc.SignUp(ctx, SignUpInput{Name: "Imposter", Email: "A@X.com ", Password: "secret1"})
	if !errors.Is(err, user.ErrDuplicateEmail) {
		t.Fatalf("expected duplicate email error, got %v", err)
	}
}

func TestSignUpValidation(t *testing.T) {
	repo := user.NewMemoryRepository()
	svc := NewService(testConfig(), repo)
	ctx := context.Background()

	var validation *ValidationError
	if _, _, err := svc.SignUp(ctx, SignUpInput{Email: "a@x.com", Password: "secret1"}); !errors.As(err, &validation) {
		t.Fatalf("expected validation error for missing name, got %v", err)
	}
	if _, _, err := svc.SignUp(ctx, SignUpInput{Name: "Alice", Email: "a@x.com", Password: "short"}); !errors.As(err, &validation) {
		t.Fatalf("expected validation error for short password, got %v", err)
	}
}

func TestSignUpWithInvitationCode(t *testing.T) {
	repo := user.NewMemoryRepository()
	svc := NewService(testConfig(), repo)
	ctx := context.Background()

	alice, _, err := svc.SignUp(ctx, SignUpInput{Name: "Alice", Email: "a@x.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("signup alice: %v", err)
	}

	engine := invite.NewEngine(repo)
	code, err := engine.Generate(ctx, alice)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	carl, _, err := svc.SignUp(ctx, SignUpInput{Name: "Carl", Email: "c@x.com", Password: "secret1", InvitationCode: code})
	if err != nil {
		t.Fatalf("signup carl: %v", err)
	}
	if carl.Role != user.RoleAdmin {
		t.Fatalf("expected invited user to be admin, got %s", carl.Role)
	}

	// The code is single-use: it no longer validates.
	owner, err := engine.Validate(ctx, code)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if owner != nil {
		t.Fatalf("expected redeemed code to stop validating")
	}
}

func TestSignUpWithBogusInvitationAbortsTransaction(t *testing.T) {
	repo := user.NewMemoryRepository()
	svc := NewService(testConfig(), repo)
	ctx := context.Background()

	if _, _, err := svc.SignUp(ctx, SignUpInput{Name: "Alice", Email: "a@x.com", Password: "secret1"}); err != nil {
		t.Fatalf("signup alice: %v", err)
	}

	_, _, err := svc.SignUp(ctx, SignUpInput{Name: "Eve", Email: "e@x.com", Password: "secret1", InvitationCode: "bogus"})
	if !errors.Is(err, ErrInvalidInvitation) {
		t.Fatalf("expected invalid invitation error, got %v", err)
	}

	// No partial user may survive the aborted transaction.
	if _, err := repo.FindByEmail(ctx, "e@x.com"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected no user after aborted signup, got %v", err)
	}
}

func TestSignInWrongPassword(t *testing.T) {
	repo := user.NewMemoryRepository()
	svc := NewService(testConfig(), repo)
	ctx := context.Background()

	if _, _, err := svc.SignUp(ctx, SignUpInput{Name: "Bob", Email: "b@x.com", Password: "secret1"}); err != nil {
		t.Fatalf("signup: %v", err)
	}

	_, token, err := svc.SignIn(ctx, SignInInput{Email: "b@x.com", Password: "wrong"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if token != "" {
		t.Fatalf("expected no token on failed signin")
	}
}

func TestSignInUnknownEmail(t *testing.T) {
	repo := user.NewMemoryRepository()
	svc := NewService(testConfig(), repo)

	_, _, err := svc.SignIn(context.Background(), SignInInput{Email: "nobody@x.com", Password: "secret1"})
	if !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSignInPromotionViaInvitationCode(t *testing.T) {
	repo := user.NewMemoryRepository()
	svc := NewService(testConfig(), repo)
	ctx := context.Background()

	alice, _, err := svc.SignUp(ctx, SignUpInput{Name: "Alice", Email: "a@x.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("signup alice: %v", err)
	}
	if _, _, err := svc.SignUp(ctx, SignUpInput{Name: "Bob", Email: "b@x.com", Password: "secret1"}); err != nil {
		t.Fatalf("signup bob: %v", err)
	}

	code, err := invite.NewEngine(repo).Generate(ctx, alice)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	bob, _, err := svc.SignIn(ctx, SignInInput{Email: "b@x.com", Password: "secret1", InvitationCode: code})
	if err != nil {
		t.Fatalf("signin with code: %v", err)
	}
	if bob.Role != user.RoleAdmin {
		t.Fatalf("expected promotion to admin, got %s", bob.Role)
	}

	// An invalid code fails the whole call rather than degrading.
	if _, _, err := svc.SignIn(ctx, SignInInput{Email: "b@x.com", Password: "secret1", InvitationCode: "bogus"}); !errors.Is(err, ErrInvalidInvitation) {
		t.Fatalf("expected invalid invitation, got %v", err)
	}
}

func TestConcurrentSignUpsSingleFirstAdmin(t *testing.T) {
	repo := user.NewMemoryRepository()
	svc := NewService(testConfig(), repo)
	ctx := context.Background()

	const n = 16
	emails := [n]string{}
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		emails[i] = string(rune('a'+i)) + "@race.com"
		wg.Add(1)
		go func(email string) {
			defer wg.Done()
			_, _, _ = svc.SignUp(ctx, SignUpInput{Name: "Racer", Email: email, Password: "secret1"})
		}(emails[i])
	}
	wg.Wait()

	admins := 0
	for _, email := range emails {
		u, err := repo.FindByEmail(ctx, email)
		if err != nil {
			t.Fatalf("find %s: %v", email, err)
		}
		if u.Role == user.RoleAdmin {
			admins++
		}
	}
	if admins != 1 {
		t.Fatalf("expected exactly one first-user admin, got %d", admins)
	}
}

func TestConcurrentSignUpsSameInvitationCode(t *testing.T) {
	repo := user.NewMemoryRepository()
	svc := NewService(testConfig(), repo)
	ctx := context.Background()

	alice, _, err := svc.SignUp(ctx, SignUpInput{Name: "Alice", Email: "a@x.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("signup alice: %v", err)
	}
	code, err := invite.NewEngine(repo).Generate(ctx, alice)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	const n = 4
	results := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := svc.SignUp(ctx, SignUpInput{
				Name:           "Racer",
				Email:          string(rune('p'+i)) + "@race.com",
				Password:       "secret1",
				InvitationCode: code,
			})
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, ErrInvalidInvitation) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one redemption to win, got %d", succeeded)
	}
}
