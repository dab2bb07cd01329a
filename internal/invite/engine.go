package invite

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ticketdesk/ticketdesk/internal/user"
)

const (
	// Window is how long a generated code stays redeemable. The boundary is
	// inclusive: a code aged exactly Window is still accepted.
	Window = 24 * time.Hour

	// codeBytes is the entropy of a plaintext code; hex-encoding yields a
	// 12-character human-readable string.
	codeBytes = 6

	hashCost = bcrypt.DefaultCost
)

var (
	// ErrForbidden occurs when a non-admin asks for a code.
	ErrForbidden = errors.New("only admins can generate invitation codes")

	// ErrCodeUsedOrMissing is re-exported for callers that only import this
	// package.
	ErrCodeUsedOrMissing = user.ErrCodeUsedOrMissing
)

// Engine generates, validates and rotates one-time admin-invitation codes.
// Plaintext codes are returned exactly once; only bcrypt hashes persist, so
// lookup is a scan over pending codes rather than an index hit.
type Engine struct {
	repo user.Repository
	now  func() time.Time
}

// NewEngine builds an engine over the given account repository.
func NewEngine(repo user.Repository) *Engine {
	return &Engine{repo: repo, now: time.Now}
}

// Generate mints a fresh code for the admin, replacing any previous unused
// one, and returns the plaintext. The plaintext is never re-derivable.
func (e *Engine) Generate(ctx context.Context, owner user.User) (string, error) {
	if !owner.IsAdmin() {
		return "", ErrForbidden
	}

	buf := make([]byte, codeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	code := strings.ToUpper(hex.EncodeToString(buf))

	hash, err := bcrypt.GenerateFromPassword([]byte(code), hashCost)
	if err != nil {
		return "", err
	}

	err = e.repo.SetInvitationCode(ctx, owner.ID, user.InvitationCode{
		CodeHash:  hash,
		CreatedAt: e.now().UTC(),
		Used:      false,
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

// Validate matches a plaintext code against every pending invitation inside
// the validity window and returns the owning admin, or nil when nothing
// matches. All candidates are compared even after a hit so that the work done
// does not reveal which candidate (if any) matched.
func (e *Engine) Validate(ctx context.Context, code string) (*user.User, error) {
	since := e.now().UTC().Add(-Window)
	candidates, err := e.repo.PendingInvitations(ctx, since)
	if err != nil {
		return nil, err
	}

	var match *user.User
	for i := range candidates {
		candidate := candidates[i]
		if candidate.Invitation == nil || len(candidate.Invitation.CodeHash) == 0 {
			continue
		}
		if bcrypt.CompareHashAndPassword(candidate.Invitation.CodeHash, []byte(code)) == nil && match == nil {
			match = &candidate
		}
	}
	return match, nil
}

// Redeem consumes the owner's current code and immediately issues a
// replacement so the admin keeps a standing (undisclosed) code. The consume
// is a conditional write, so two racing redemptions cannot both succeed.
func (e *Engine) Redeem(ctx context.Context, owner user.User) error {
	if owner.Invitation == nil {
		return user.ErrCodeUsedOrMissing
	}
	if err := e.repo.ConsumeInvitationCode(ctx, owner.ID, owner.Invitation.CodeHash); err != nil {
		return err
	}
	// The replacement plaintext is intentionally discarded; the owner learns
	// it only by generating again.
	_, err := e.Generate(ctx, owner)
	return err
}
