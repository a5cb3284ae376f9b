package archive

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

const turnLogSchema = `
CREATE TABLE IF NOT EXISTS chat_turns (
	id         BIGSERIAL PRIMARY KEY,
	session_id TEXT        NOT NULL,
	role       TEXT        NOT NULL,
	content    TEXT        NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS chat_turns_session_idx ON chat_turns (session_id, id);
`

// TurnLog appends chat turns to Postgres. It is an archive, not the
// source of truth: live history stays in the session, and log
// failures never reach the user.
type TurnLog struct {
	pool *pgxpool.Pool
}

func NewTurnLog(ctx context.Context, dsn string) (*TurnLog, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("archive: database url is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("archive: connect turn log: %w", err)
	}
	if _, err := pool.Exec(ctx, turnLogSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("archive: init turn log schema: %w", err)
	}
	return &TurnLog{pool: pool}, nil
}

// Append records one turn.
func (t *TurnLog) Append(ctx context.Context, sessionID, role, content string) error {
	if t == nil || t.pool == nil {
		return fmt.Errorf("archive: turn log is nil")
	}
	_, err := t.pool.Exec(ctx,
		`INSERT INTO chat_turns (session_id, role, content) VALUES ($1, $2, $3)`,
		sessionID, role, content)
	if err != nil {
		return fmt.Errorf("archive: append turn: %w", err)
	}
	return nil
}

// History returns the archived turns for a session, oldest first.
func (t *TurnLog) History(ctx context.Context, sessionID string, limit int) ([][2]string, error) {
	if t == nil || t.pool == nil {
		return nil, fmt.Errorf("archive: turn log is nil")
	}
	if limit <= 0 {
		limit = 200
	}
	rows, err := t.pool.Query(ctx,
		`SELECT role, content FROM (
			SELECT id, role, content FROM chat_turns
			WHERE session_id = $1 ORDER BY id DESC LIMIT $2
		) latest ORDER BY id ASC`,
		sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("archive: read turns: %w", err)
	}
	defer rows.Close()

	var turns [][2]string
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, fmt.Errorf("archive: scan turn: %w", err)
		}
		turns = append(turns, [2]string{role, content})
	}
	return turns, rows.Err()
}

// Close releases the connection pool.
func (t *TurnLog) Close() {
	if t != nil && t.pool != nil {
		t.pool.Close()
	}
}
