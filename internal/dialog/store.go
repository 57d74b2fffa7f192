package dialog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/atlas-develop/clinic-assistant/internal/llm"
)

// Stored role codes.
const (
	roleCodeUser      = 0
	roleCodeAssistant = 1
)

// DB is the subset of pgxpool.Pool the store needs; pgxmock satisfies it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists and retrieves conversation turns per client.
type Store struct {
	db DB

	// window is the DIALOG_SAVE setting: the retained history covers
	// (window+1)*2 turns, of which the oldest two seed the rolling summary.
	window   int
	priceIn  float64
	priceOut float64
}

// NewStore creates a dialog store with the configured window and token prices.
func NewStore(db DB, window int, priceIn, priceOut float64) *Store {
	if db == nil {
		panic("dialog: db required")
	}
	if window < 0 {
		window = 0
	}
	return &Store{db: db, window: window, priceIn: priceIn, priceOut: priceOut}
}

// Append stores one turn. User turns record only the content; assistant turns
// additionally record token counts and the prices configured at call time.
func (s *Store) Append(ctx context.Context, clientID int64, role, content string, tokensIn, tokensOut int) error {
	code := roleCodeUser
	if role == llm.RoleAssistant {
		code = roleCodeAssistant
	}

	var err error
	if code == roleCodeUser {
		_, err = s.db.Exec(ctx, `
			INSERT INTO dialog_turns (client_id, role, content)
			VALUES ($1, $2, $3)
		`, clientID, code, content)
	} else {
		_, err = s.db.Exec(ctx, `
			INSERT INTO dialog_turns (client_id, role, content, tokens_in, tokens_out, price_in, price_out)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, clientID, code, content, tokensIn, tokensOut, s.priceIn, s.priceOut)
	}
	if err != nil {
		return fmt.Errorf("dialog: insert turn failed: %w", err)
	}
	return nil
}

// RecentHistory returns the retained dialog window plus the summary seed turns.
// All non-deleted turns are read oldest to newest; only the last (window+1)*2
// are kept. When the full window is present its oldest two turns are peeled
// off as seeds for the rolling summary, otherwise seeds are empty.
func (s *Store) RecentHistory(ctx context.Context, clientID int64) (dialog, seeds []llm.Message, err error) {
	rows, err := s.db.Query(ctx, `
		SELECT role, content FROM dialog_turns
		WHERE client_id = $1 AND NOT is_deleted
		ORDER BY created_at ASC, id ASC
	`, clientID)
	if err != nil {
		return nil, nil, fmt.Errorf("dialog: select history failed: %w", err)
	}
	defer rows.Close()

	var history []llm.Message
	for rows.Next() {
		var code int16
		var content string
		if err := rows.Scan(&code, &content); err != nil {
			return nil, nil, fmt.Errorf("dialog: scan turn failed: %w", err)
		}
		role := llm.RoleUser
		if code == roleCodeAssistant {
			role = llm.RoleAssistant
		}
		history = append(history, llm.Message{Role: role, Content: content})
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("dialog: history rows failed: %w", err)
	}

	extract := (s.window + 1) * 2
	if len(history) > extract {
		history = history[len(history)-extract:]
	}
	if len(history) >= extract {
		return history[2:], history[:2], nil
	}
	return history, nil, nil
}

// Reset soft-deletes all of the client's turns and nulls the rolling summary.
// Safe to call repeatedly.
func (s *Store) Reset(ctx context.Context, clientID int64) error {
	if _, err := s.db.Exec(ctx, `
		UPDATE dialog_turns SET is_deleted = TRUE WHERE client_id = $1
	`, clientID); err != nil {
		return fmt.Errorf("dialog: reset turns failed: %w", err)
	}
	if _, err := s.db.Exec(ctx, `
		UPDATE clients SET summary = NULL WHERE id = $1
	`, clientID); err != nil {
		return fmt.Errorf("dialog: reset summary failed: %w", err)
	}
	return nil
}

// TodayUserTurnCount counts the client's non-deleted user turns for the
// current calendar day; it backs the daily quota.
func (s *Store) TodayUserTurnCount(ctx context.Context, clientID int64) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM dialog_turns
		WHERE client_id = $1 AND role = 0 AND NOT is_deleted
		  AND created_at::date = CURRENT_DATE
	`, clientID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("dialog: count today failed: %w", err)
	}
	return count, nil
}
