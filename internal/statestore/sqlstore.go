package statestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/user/creatordesk/internal/types"
)

// SQLStore is the durable layer. Rows are keyed by state key, scoped to
// a user, and expire; expired rows are invisible to reads and reaped
// opportunistically on write.
type SQLStore struct {
	db     *sql.DB
	logger *slog.Logger
	ttl    time.Duration
	now    func() time.Time
}

func NewSQLStore(db *sql.DB, logger *slog.Logger) (*SQLStore, error) {
	s := &SQLStore{
		db:     db,
		logger: logger.With("component", "statestore"),
		ttl:    CompleteWindow,
		now:    time.Now,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate state store: %w", err)
	}
	return s, nil
}

func (s *SQLStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS agent_state (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			key           TEXT UNIQUE NOT NULL,
			user_id       TEXT NOT NULL,
			data          TEXT NOT NULL,
			query_context TEXT NOT NULL DEFAULT '',
			created_at    TIMESTAMP NOT NULL,
			expires_at    TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_agent_state_user ON agent_state(user_id, expires_at);
	`)
	return err
}

// Set upserts the state row for key. Re-setting an existing key resets
// its expiry.
func (s *SQLStore) Set(ctx context.Context, user types.UserID, key types.StateKey, state *types.PreviousState, queryContext string) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	now := s.now()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO agent_state (key, user_id, data, query_context, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			data = excluded.data,
			query_context = excluded.query_context,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at
	`, string(key), string(user), string(data), queryContext, now, now.Add(s.ttl))
	if err != nil {
		return fmt.Errorf("upserting state %s: %w", key, err)
	}

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM agent_state WHERE expires_at <= ?`, now); err != nil {
		s.logger.Warn("reaping expired state failed", "error", err)
	}
	return nil
}

// Get returns the unexpired state for key, or (nil, "", nil) when absent.
func (s *SQLStore) Get(ctx context.Context, user types.UserID, key types.StateKey) (*types.PreviousState, string, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT data, query_context FROM agent_state
		WHERE key = ? AND user_id = ? AND expires_at > ?
	`, string(key), string(user), s.now())

	var raw, queryContext string
	if err := row.Scan(&raw, &queryContext); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("reading state %s: %w", key, err)
	}

	var state types.PreviousState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, "", fmt.Errorf("decoding state %s: %w", key, err)
	}
	return &state, queryContext, nil
}

// FindByQuery returns the best-scoring unexpired state for the user, or
// nil when nothing scores at least the minimum. Scoring is the fraction
// of search terms found in the row's query context, plus a recency
// bonus for rows under a day old.
func (s *SQLStore) FindByQuery(ctx context.Context, user types.UserID, terms []string) (*types.PreviousState, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT data, query_context, created_at FROM agent_state
		WHERE user_id = ? AND expires_at > ?
		ORDER BY created_at DESC
	`, string(user), s.now())
	if err != nil {
		return nil, fmt.Errorf("searching state: %w", err)
	}
	defer rows.Close()

	const minScore = 0.5
	var bestRaw string
	bestScore := 0.0

	for rows.Next() {
		var raw, queryContext string
		var createdAt time.Time
		if err := rows.Scan(&raw, &queryContext, &createdAt); err != nil {
			return nil, err
		}
		score := scoreContext(queryContext, terms)
		if score == 0 {
			continue
		}
		if s.now().Sub(createdAt) < 24*time.Hour {
			score += 0.5
		}
		if score >= minScore && score > bestScore {
			bestScore = score
			bestRaw = raw
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if bestRaw == "" {
		return nil, nil
	}

	var state types.PreviousState
	if err := json.Unmarshal([]byte(bestRaw), &state); err != nil {
		return nil, fmt.Errorf("decoding matched state: %w", err)
	}
	return &state, nil
}

// StateSummary is a row listing for inspection tooling.
type StateSummary struct {
	Key          types.StateKey
	QueryContext string
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// List returns the user's unexpired states, newest first.
func (s *SQLStore) List(ctx context.Context, user types.UserID) ([]StateSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, query_context, created_at, expires_at FROM agent_state
		WHERE user_id = ? AND expires_at > ?
		ORDER BY created_at DESC
	`, string(user), s.now())
	if err != nil {
		return nil, fmt.Errorf("listing state: %w", err)
	}
	defer rows.Close()

	var out []StateSummary
	for rows.Next() {
		var summary StateSummary
		var key string
		if err := rows.Scan(&key, &summary.QueryContext, &summary.CreatedAt, &summary.ExpiresAt); err != nil {
			return nil, err
		}
		summary.Key = types.StateKey(key)
		out = append(out, summary)
	}
	return out, rows.Err()
}

// Purge deletes all of a user's state rows, expired or not. Returns the
// number of rows removed.
func (s *SQLStore) Purge(ctx context.Context, user types.UserID) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM agent_state WHERE user_id = ?`, string(user))
	if err != nil {
		return 0, fmt.Errorf("purging state for %s: %w", user, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func scoreContext(queryContext string, terms []string) float64 {
	haystack := strings.ToLower(queryContext)
	matched := 0
	for _, term := range terms {
		if strings.Contains(haystack, strings.ToLower(term)) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}
