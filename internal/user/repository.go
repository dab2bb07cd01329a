package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrDuplicateEmail occurs when an account already exists for the email.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrNotFound indicates no account matches the lookup.
	ErrNotFound = errors.New("user not found")

	// ErrCodeUsedOrMissing indicates the invitation code slot is absent or
	// already consumed; redemption must never succeed twice for one code.
	ErrCodeUsedOrMissing = errors.New("invitation code has already been used or does not exist")
)

// Repository persists accounts and their invitation-code state.
type Repository interface {
	Create(ctx context.Context, u User) error
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	Count(ctx context.Context) (int64, error)
	UpdateRole(ctx context.Context, id string, role Role) error

	// SetInvitationCode unconditionally replaces the invitation slot for the
	// account, discarding any previous unused code.
	SetInvitationCode(ctx context.Context, id string, code InvitationCode) error

	// ConsumeInvitationCode marks the invitation slot used, but only when it
	// is still unused and its hash matches. The conditional write is what
	// guarantees exactly-once redemption under concurrent callers.
	ConsumeInvitationCode(ctx context.Context, id string, codeHash []byte) error

	// PendingInvitations lists admins holding an unused code created at or
	// after since. The boundary is inclusive.
	PendingInvitations(ctx context.Context, since time.Time) ([]User, error)

	// RunInTx executes fn against a transaction-bound Repository, committing
	// on nil and rolling back on error. The signup flow depends on this to
	// keep the existence check, the first-user count and the insert atomic.
	RunInTx(ctx context.Context, fn func(Repository) error) error
}

const userColumns = `id, name, email, password_hash, role, invite_code_hash, invite_created_at, invite_used, created_at`

// querier is the subset of pgxpool.Pool and pgx.Tx the repository needs.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository implements Repository on PostgreSQL.
type PostgresRepository struct {
	db   querier
	pool *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed account repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db, pool: db}
}

// Create inserts a new account. A unique-constraint violation on email maps
// to ErrDuplicateEmail so concurrent signups collide cleanly.
func (r *PostgresRepository) Create(ctx context.Context, u User) error {
	userID, err := uuid.Parse(u.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO users (id, name, email, password_hash, role, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		userID, u.Name, NormalizeEmail(u.Email), u.PasswordHash, string(u.Role), u.CreatedAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// FindByEmail fetches an account by its normalized email.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, NormalizeEmail(email))
	return scanUser(row)
}

// FindByID fetches an account by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return User{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	return scanUser(row)
}

// Count returns the total number of accounts.
func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// UpdateRole persists a role change.
func (r *PostgresRepository) UpdateRole(ctx context.Context, id string, role Role) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE users SET role = $1 WHERE id = $2`, string(role), userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetInvitationCode overwrites the invitation slot for the account.
func (r *PostgresRepository) SetInvitationCode(ctx context.Context, id string, code InvitationCode) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE users
        SET invite_code_hash = $1, invite_created_at = $2, invite_used = $3
        WHERE id = $4`,
		code.CodeHash, code.CreatedAt.UTC(), code.Used, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ConsumeInvitationCode flips used to true iff the stored hash still matches
// and the code is unused.
func (r *PostgresRepository) ConsumeInvitationCode(ctx context.Context, id string, codeHash []byte) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE users SET invite_used = TRUE
        WHERE id = $1 AND invite_used = FALSE AND invite_code_hash = $2`,
		userID, codeHash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrCodeUsedOrMissing
	}
	return nil
}

// PendingInvitations lists admins with an unused code inside the validity
// window. The comparison is >= so a code aged exactly the window is accepted.
func (r *PostgresRepository) PendingInvitations(ctx context.Context, since time.Time) ([]User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users
        WHERE role = $1 AND invite_code_hash IS NOT NULL
          AND invite_used = FALSE AND invite_created_at >= $2`,
		string(RoleAdmin), since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// RunInTx runs fn inside a pgx transaction with a tx-bound repository.
func (r *PostgresRepository) RunInTx(ctx context.Context, fn func(Repository) error) error {
	if r.pool == nil {
		// Already transaction-bound; nested transactions are not supported.
		return fn(r)
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if err := fn(&PostgresRepository{db: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func scanUser(row pgx.Row) (User, error) {
	var (
		id            uuid.UUID
		u             User
		role          string
		inviteHash    []byte
		inviteCreated *time.Time
		inviteUsed    *bool
		createdAt     time.Time
	)
	if err := row.Scan(&id, &u.Name, &u.Email, &u.PasswordHash, &role, &inviteHash, &inviteCreated, &inviteUsed, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	u.ID = id.String()
	u.Role = Role(role)
	u.CreatedAt = createdAt.UTC()
	if inviteHash != nil && inviteCreated != nil {
		used := false
		if inviteUsed != nil {
			used = *inviteUsed
		}
		u.Invitation = &InvitationCode{CodeHash: inviteHash, CreatedAt: inviteCreated.UTC(), Used: used}
	}
	return u, nil
}
