package user

import (
	"context"
	"sync"
	"time"
)

// memoryRepository is an in-memory account store for tests. RunInTx holds the
// lock for the whole closure and restores a snapshot on error, which mirrors
// the serialization and abort semantics the Postgres implementation gets from
// real transactions.
type memoryRepository struct {
	mu    sync.Mutex
	state *memoryState
}

type memoryState struct {
	users  map[string]User   // keyed by id
	emails map[string]string // normalized email -> id
}

// NewMemoryRepository builds an in-memory user store for testing.
func NewMemoryRepository() Repository {
	return &memoryRepository{state: &memoryState{
		users:  make(map[string]User),
		emails: make(map[string]string),
	}}
}

func (r *memoryRepository) Create(ctx context.Context, u User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.create(u)
}

func (r *memoryRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.findByEmail(email)
}

func (r *memoryRepository) FindByID(ctx context.Context, id string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.findByID(id)
}

func (r *memoryRepository) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.state.users)), nil
}

func (r *memoryRepository) UpdateRole(ctx context.Context, id string, role Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.updateRole(id, role)
}

func (r *memoryRepository) SetInvitationCode(ctx context.Context, id string, code InvitationCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.setInvitationCode(id, code)
}

func (r *memoryRepository) ConsumeInvitationCode(ctx context.Context, id string, codeHash []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.consumeInvitationCode(id, codeHash)
}

func (r *memoryRepository) PendingInvitations(ctx context.Context, since time.Time) ([]User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.pendingInvitations(since), nil
}

func (r *memoryRepository) RunInTx(ctx context.Context, fn func(Repository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := r.state.clone()
	if err := fn(&memoryTx{state: r.state}); err != nil {
		r.state.users = snapshot.users
		r.state.emails = snapshot.emails
		return err
	}
	return nil
}

// memoryTx exposes the shared state without re-locking; the enclosing
// RunInTx already holds the repository mutex.
type memoryTx struct {
	state *memoryState
}

func (t *memoryTx) Create(ctx context.Context, u User) error { return t.state.create(u) }

func (t *memoryTx) FindByEmail(ctx context.Context, email string) (User, error) {
	return t.state.findByEmail(email)
}

func (t *memoryTx) FindByID(ctx context.Context, id string) (User, error) {
	return t.state.findByID(id)
}

func (t *memoryTx) Count(ctx context.Context) (int64, error) {
	return int64(len(t.state.users)), nil
}

func (t *memoryTx) UpdateRole(ctx context.Context, id string, role Role) error {
	return t.state.updateRole(id, role)
}

func (t *memoryTx) SetInvitationCode(ctx context.Context, id string, code InvitationCode) error {
	return t.state.setInvitationCode(id, code)
}

func (t *memoryTx) ConsumeInvitationCode(ctx context.Context, id string, codeHash []byte) error {
	return t.state.consumeInvitationCode(id, codeHash)
}

func (t *memoryTx) PendingInvitations(ctx context.Context, since time.Time) ([]User, error) {
	return t.state.pendingInvitations(since), nil
}

func (t *memoryTx) RunInTx(ctx context.Context, fn func(Repository) error) error {
	return fn(t)
}

func (s *memoryState) create(u User) error {
	email := NormalizeEmail(u.Email)
	if _, exists := s.emails[email]; exists {
		return ErrDuplicateEmail
	}
	u.Email = email
	s.users[u.ID] = u
	s.emails[email] = u.ID
	return nil
}

func (s *memoryState) findByEmail(email string) (User, error) {
	id, ok := s.emails[NormalizeEmail(email)]
	if !ok {
		return User{}, ErrNotFound
	}
	return s.users[id], nil
}

func (s *memoryState) findByID(id string) (User, error) {
	u, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (s *memoryState) updateRole(id string, role Role) error {
	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Role = role
	s.users[id] = u
	return nil
}

func (s *memoryState) setInvitationCode(id string, code InvitationCode) error {
	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Invitation = &code
	s.users[id] = u
	return nil
}

func (s *memoryState) consumeInvitationCode(id string, codeHash []byte) error {
	u, ok := s.users[id]
	if !ok {
		return ErrCodeUsedOrMissing
	}
	inv := u.Invitation
	if inv == nil || inv.Used || string(inv.CodeHash) != string(codeHash) {
		return ErrCodeUsedOrMissing
	}
	updated := *inv
	updated.Used = true
	u.Invitation = &updated
	s.users[id] = u
	return nil
}

func (s *memoryState) pendingInvitations(since time.Time) []User {
	var users []User
	for _, u := range s.users {
		inv := u.Invitation
		if u.Role != RoleAdmin || inv == nil || inv.Used || len(inv.CodeHash) == 0 {
			continue
		}
		if inv.CreatedAt.Before(since) {
			continue
		}
		users = append(users, u)
	}
	return users
}

func (s *memoryState) clone() *memoryState {
	users := make(map[string]User, len(s.users))
	for id, u := range s.users {
		if u.Invitation != nil {
			inv := *u.Invitation
			u.Invitation = &inv
		}
		users[id] = u
	}
	emails := make(map[string]string, len(s.emails))
	for email, id := range s.emails {
		emails[email] = id
	}
	return &memoryState{users: users, emails: emails}
}
