package invite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticketdesk/ticketdesk/internal/user"
)

func seedAdmin(t *testing.T, repo user.Repository) user.User {
	t.Helper()
	admin := user.User{
		ID:        uuid.New().String(),
		Name:      "Alice",
		Email:     "alice@example.com",
		Role:      user.RoleAdmin,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(context.Background(), admin))
	return admin
}

func TestGenerateRequiresAdmin(t *testing.T) {
	repo := user.NewMemoryRepository()
	engine := NewEngine(repo)

	regular := user.User{ID: uuid.New().String(), Name: "Bob", Email: "bob@example.com", Role: user.RoleUser}
	require.NoError(t, repo.Create(context.Background(), regular))

	_, err := engine.Generate(context.Background(), regular)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestGenerateValidateRoundTrip(t *testing.T) {
	repo := user.NewMemoryRepository()
	engine := NewEngine(repo)
	admin := seedAdmin(t, repo)

	code, err := engine.Generate(context.Background(), admin)
	require.NoError(t, err)
	assert.Len(t, code, 12)

	owner, err := engine.Validate(context.Background(), code)
	require.NoError(t, err)
	require.NotNil(t, owner)
	assert.Equal(t, admin.ID, owner.ID)
}

func TestValidateUnknownCode(t *testing.T) {
	repo := user.NewMemoryRepository()
	engine := NewEngine(repo)
	admin := seedAdmin(t, repo)

	_, err := engine.Generate(context.Background(), admin)
	require.NoError(t, err)

	owner, err := engine.Validate(context.Background(), "BOGUSBOGUS12")
	require.NoError(t, err)
	assert.Nil(t, owner)
}

func TestGenerateOverwritesPreviousCode(t *testing.T) {
	repo := user.NewMemoryRepository()
	engine := NewEngine(repo)
	admin := seedAdmin(t, repo)

	first, err := engine.Generate(context.Background(), admin)
	require.NoError(t, err)
	second, err := engine.Generate(context.Background(), admin)
	require.NoError(t, err)

	owner, err := engine.Validate(context.Background(), first)
	require.NoError(t, err)
	assert.Nil(t, owner, "old code must be invalid after regeneration")

	owner, err = engine.Validate(context.Background(), second)
	require.NoError(t, err)
	require.NotNil(t, owner)
	assert.Equal(t, admin.ID, owner.ID)
}

func TestRedeemConsumesCodeOnce(t *testing.T) {
	repo := user.NewMemoryRepository()
	engine := NewEngine(repo)
	admin := seedAdmin(t, repo)

	code, err := engine.Generate(context.Background(), admin)
	require.NoError(t, err)

	owner, err := engine.Validate(context.Background(), code)
	require.NoError(t, err)
	require.NotNil(t, owner)

	require.NoError(t, engine.Redeem(context.Background(), *owner))

	// The consumed code no longer validates even though a replacement exists.
	stale, err := engine.Validate(context.Background(), code)
	require.NoError(t, err)
	assert.Nil(t, stale)

	// A second redemption of the same snapshot must fail, never silently
	// succeed.
	err = engine.Redeem(context.Background(), *owner)
	assert.ErrorIs(t, err, user.ErrCodeUsedOrMissing)
}

func TestRedeemWithoutCode(t *testing.T) {
	repo := user.NewMemoryRepository()
	engine := NewEngine(repo)
	admin := seedAdmin(t, repo)

	err := engine.Redeem(context.Background(), admin)
	assert.ErrorIs(t, err, user.ErrCodeUsedOrMissing)
}

func TestValidateWindowBoundary(t *testing.T) {
	repo := user.NewMemoryRepository()
	admin := seedAdmin(t, repo)

	now := time.Now().UTC()

	engine := NewEngine(repo)
	code, err := engine.Generate(context.Background(), admin)
	require.NoError(t, err)

	// Age the code to exactly the window boundary: still valid.
	fetched, err := repo.FindByID(context.Background(), admin.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched.Invitation)
	aged := *fetched.Invitation
	aged.CreatedAt = now.Add(-Window)
	require.NoError(t, repo.SetInvitationCode(context.Background(), admin.ID, aged))

	boundaryEngine := NewEngine(repo)
	boundaryEngine.now = func() time.Time { return now }

	owner, err := boundaryEngine.Validate(context.Background(), code)
	require.NoError(t, err)
	require.NotNil(t, owner, "code aged exactly the validity window is still accepted")

	// One nanosecond past the window: expired.
	aged.CreatedAt = now.Add(-Window - time.Nanosecond)
	require.NoError(t, repo.SetInvitationCode(context.Background(), admin.ID, aged))

	owner, err = boundaryEngine.Validate(context.Background(), code)
	require.NoError(t, err)
	assert.Nil(t, owner)
}
