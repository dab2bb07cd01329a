package ticket

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates no ticket matches the lookup.
var ErrNotFound = errors.New("ticket not found")

// Repository persists tickets.
type Repository interface {
	Create(ctx context.Context, t Ticket) error
	Get(ctx context.Context, id string) (Ticket, error)
	ListAll(ctx context.Context) ([]Ticket, error)
	ListByCreator(ctx context.Context, creatorID string) ([]Ticket, error)
	Update(ctx context.Context, t Ticket) error
	Delete(ctx context.Context, id string) error
}

const ticketColumns = `id, title, description, status, priority, created_by, created_at, updated_at`

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed ticket repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new ticket.
func (r *PostgresRepository) Create(ctx context.Context, t Ticket) error {
	ticketID, err := uuid.Parse(t.ID)
	if err != nil {
		return err
	}
	creatorID, err := uuid.Parse(t.CreatedBy)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO tickets (id, title, description, status, priority, created_by, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		ticketID, t.Title, t.Description, string(t.Status), string(t.Priority), creatorID, t.CreatedAt.UTC(), t.UpdatedAt.UTC())
	return err
}

// Get fetches a ticket by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Ticket, error) {
	ticketID, err := uuid.Parse(id)
	if err != nil {
		return Ticket{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, ticketID)
	return scanTicket(row)
}

// ListAll returns every ticket, newest first.
func (r *PostgresRepository) ListAll(ctx context.Context) ([]Ticket, error) {
	rows, err := r.db.Query(ctx, `SELECT `+ticketColumns+` FROM tickets ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTickets(rows)
}

// ListByCreator returns the tickets filed by one user, newest first.
func (r *PostgresRepository) ListByCreator(ctx context.Context, creatorID string) ([]Ticket, error) {
	creator, err := uuid.Parse(creatorID)
	if err != nil {
		return nil, ErrNotFound
	}
	rows, err := r.db.Query(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE created_by = $1 ORDER BY created_at DESC`, creator)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTickets(rows)
}

// Update persists mutated ticket fields.
func (r *PostgresRepository) Update(ctx context.Context, t Ticket) error {
	ticketID, err := uuid.Parse(t.ID)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE tickets
        SET title = $1, description = $2, status = $3, priority = $4, updated_at = $5
        WHERE id = $6`,
		t.Title, t.Description, string(t.Status), string(t.Priority), t.UpdatedAt.UTC(), ticketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a ticket.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	ticketID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM tickets WHERE id = $1`, ticketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTicket(row pgx.Row) (Ticket, error) {
	var (
		id        uuid.UUID
		createdBy uuid.UUID
		status    string
		priority  string
		createdAt time.Time
		updatedAt time.Time
		t         Ticket
	)
	if err := row.Scan(&id, &t.Title, &t.Description, &status, &priority, &createdBy, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Ticket{}, ErrNotFound
		}
		return Ticket{}, err
	}
	t.ID = id.String()
	t.CreatedBy = createdBy.String()
	t.Status = Status(status)
	t.Priority = Priority(priority)
	t.CreatedAt = createdAt.UTC()
	t.UpdatedAt = updatedAt.UTC()
	return t, nil
}

func collectTickets(rows pgx.Rows) ([]Ticket, error) {
	var tickets []Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}
