package clients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound indicates no client row matched the lookup.
var ErrNotFound = errors.New("clients: not found")

// DB is the subset of pgxpool.Pool the repository needs; pgxmock satisfies it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ProfileHint carries the transport-level profile fields used when a client
// row is created lazily on first contact.
type ProfileHint struct {
	Username    string
	DisplayName string
	FirstName   string
}

// Repository resolves and mutates durable client identities.
type Repository struct {
	db DB
}

// NewRepository initializes a repo backed by pgx.
func NewRepository(db DB) *Repository {
	if db == nil {
		panic("clients: db required")
	}
	return &Repository{db: db}
}

// ResolveOrCreate looks up a client by its external chat id, inserting a new
// row on first contact. The insert is conflict-free: concurrent first messages
// from the same handle race on the unique index, not on a read-then-write gap.
func (r *Repository) ResolveOrCreate(ctx context.Context, chatID string, hint ProfileHint) (int64, error) {
	if strings.TrimSpace(chatID) == "" {
		return 0, errors.New("clients: chat id required")
	}

	id, err := r.findByChatID(ctx, chatID)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return 0, err
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO clients (chat_id, username, display_name, first_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (chat_id) WHERE chat_id IS NOT NULL DO NOTHING
	`, chatID, hint.Username, hint.DisplayName, hint.FirstName)
	if err != nil {
		return 0, fmt.Errorf("clients: insert failed: %w", err)
	}

	return r.findByChatID(ctx, chatID)
}

func (r *Repository) findByChatID(ctx context.Context, chatID string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `SELECT id FROM clients WHERE chat_id = $1`, chatID).Scan(&id)
	if err == pgx.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("clients: select by chat id failed: %w", err)
	}
	return id, nil
}

// FindByFullName resolves a client by exact full-name match.
func (r *Repository) FindByFullName(ctx context.Context, fio string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		SELECT id FROM clients
		WHERE fio = $1 AND NOT is_deleted
		LIMIT 1
	`, fio).Scan(&id)
	if err == pgx.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("clients: select by fio failed: %w", err)
	}
	return id, nil
}

// CreateNamed inserts a bare client row carrying only a full name. Used for
// friends who have never messaged the assistant themselves.
func (r *Repository) CreateNamed(ctx context.Context, fio string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO clients (fio) VALUES ($1) RETURNING id
	`, fio).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("clients: insert named failed: %w", err)
	}
	return id, nil
}

// GetSummary reads the rolling summary; a NULL summary reads as empty.
func (r *Repository) GetSummary(ctx context.Context, clientID int64) (string, error) {
	var summary *string
	err := r.db.QueryRow(ctx, `SELECT summary FROM clients WHERE id = $1`, clientID).Scan(&summary)
	if err == pgx.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("clients: select summary failed: %w", err)
	}
	if summary == nil {
		return "", nil
	}
	return *summary, nil
}

// SetSummary replaces the rolling summary wholesale.
func (r *Repository) SetSummary(ctx context.Context, clientID int64, text string) error {
	if _, err := r.db.Exec(ctx, `UPDATE clients SET summary = $1 WHERE id = $2`, text, clientID); err != nil {
		return fmt.Errorf("clients: update summary failed: %w", err)
	}
	return nil
}

// ClearSummary nulls the rolling summary.
func (r *Repository) ClearSummary(ctx context.Context, clientID int64) error {
	if _, err := r.db.Exec(ctx, `UPDATE clients SET summary = NULL WHERE id = $1`, clientID); err != nil {
		return fmt.Errorf("clients: clear summary failed: %w", err)
	}
	return nil
}
