package feedback

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS queries (
	id               TEXT PRIMARY KEY,
	question         TEXT NOT NULL,
	answer           TEXT NOT NULL,
	source_count     INTEGER NOT NULL,
	response_time_ns INTEGER NOT NULL,
	created_at       INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS feedback (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	query_id   TEXT NOT NULL,
	rating     INTEGER NOT NULL,
	comment    TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_feedback_query_id ON feedback(query_id);
`

// SQLiteStore is a Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at dbPath. Use ":memory:" for
// an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to ":memory:" is a different database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// PutQuery implements Store.
func (s *SQLiteStore) PutQuery(ctx context.Context, q *Query) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO queries (id, question, answer, source_count, response_time_ns, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			question = excluded.question,
			answer = excluded.answer,
			source_count = excluded.source_count,
			response_time_ns = excluded.response_time_ns,
			created_at = excluded.created_at`,
		q.ID, q.Question, q.Answer, q.SourceCount, int64(q.ResponseTime), q.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to store query %s: %w", q.ID, err)
	}
	return nil
}

// GetQuery implements Store.
func (s *SQLiteStore) GetQuery(ctx context.Context, id string) (*Query, error) {
	var (
		q         Query
		elapsed   int64
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, question, answer, source_count, response_time_ns, created_at
		FROM queries WHERE id = ?`, id,
	).Scan(&q.ID, &q.Question, &q.Answer, &q.SourceCount, &elapsed, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get query %s: %w", id, err)
	}

	q.ResponseTime = time.Duration(elapsed)
	q.CreatedAt = time.Unix(0, createdAt)
	return &q, nil
}

// Put implements Store.
func (s *SQLiteStore) Put(ctx context.Context, e *Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback (query_id, rating, comment, created_at)
		VALUES (?, ?, ?, ?)`,
		e.QueryID, e.Rating, e.Comment, e.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to store feedback for %s: %w", e.QueryID, err)
	}
	return nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context) ([]*Entry, error) {
	return s.queryEntries(ctx, `
		SELECT query_id, rating, comment, created_at
		FROM feedback ORDER BY id`)
}

// ListByQuery implements Store.
func (s *SQLiteStore) ListByQuery(ctx context.Context, queryID string) ([]*Entry, error) {
	return s.queryEntries(ctx, `
		SELECT query_id, rating, comment, created_at
		FROM feedback WHERE query_id = ? ORDER BY id`, queryID)
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) queryEntries(ctx context.Context, query string, args ...any) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		var (
			e         Entry
			createdAt int64
		)
		if err := rows.Scan(&e.QueryID, &e.Rating, &e.Comment, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		e.CreatedAt = time.Unix(0, createdAt)
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feedback: %w", err)
	}

	return out, nil
}
