package retrieval

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// DB is the query subset of pgxpool.Pool the source needs.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresSource reads knowledge chunks from the knowledge_chunks table.
type PostgresSource struct {
	db DB
}

// NewPostgresSource initializes a chunk source backed by pgx.
func NewPostgresSource(db DB) *PostgresSource {
	if db == nil {
		panic("retrieval: db required")
	}
	return &PostgresSource{db: db}
}

// Chunks returns all non-deleted knowledge texts in insertion order.
func (s *PostgresSource) Chunks(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT content FROM knowledge_chunks
		WHERE NOT is_deleted
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("retrieval: select chunks failed: %w", err)
	}
	defer rows.Close()

	var chunks []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, fmt.Errorf("retrieval: scan chunk failed: %w", err)
		}
		chunks = append(chunks, content)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("retrieval: chunk rows failed: %w", err)
	}
	return chunks, nil
}
