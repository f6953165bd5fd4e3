// Package feedback stores farmer feedback in SQLite.
package feedback

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/tumbuh/backend/internal/domain"
	"github.com/tumbuh/backend/internal/logging"
)

// timestamps are stored fixed-width so text order is time order
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements domain.FeedbackRepository
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.Mutex
	logger zerolog.Logger
}

// migration represents a single database migration
type migration struct {
	version int
	name    string
	up      string
}

var migrations = []migration{
	{
		version: 1,
		name:    "create_feedback",
		up: `
			CREATE TABLE IF NOT EXISTS feedback (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				email TEXT NOT NULL DEFAULT '',
				rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
				message TEXT NOT NULL,
				created_at TEXT NOT NULL
			)`,
	},
	{
		version: 2,
		name:    "feedback_created_at_index",
		up:      `CREATE INDEX IF NOT EXISTS idx_feedback_created_at ON feedback(created_at DESC)`,
	},
}

// Open opens (creating if needed) the database at path and runs migrations
func Open(ctx context.Context, path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps ":memory:" databases alive and serialises writers
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logging.Component("feedback-store")}
	if err := s.runMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) runMigrations(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`); err != nil {
		return err
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version); err != nil {
		return err
	}

	for _, m := range migrations {
		if version >= m.version {
			continue
		}
		s.logger.Info().Int("version", m.version).Str("name", m.name).Msg("Running migration")
		if _, err := s.db.ExecContext(ctx, m.up); err != nil {
			return fmt.Errorf("migration %d failed: %w", m.version, err)
		}
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (version, name) VALUES (?, ?)", m.version, m.name); err != nil {
			return err
		}
	}
	return nil
}

// Save inserts a feedback entry
func (s *SQLiteStore) Save(ctx context.Context, fb *domain.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO feedback (id, name, email, rating, message, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		fb.ID, fb.Name, fb.Email, fb.Rating, fb.Message, fb.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]domain.Feedback, error) {
	if limit <= 0 {
		return []domain.Feedback{}, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, rating, message, created_at FROM feedback ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Feedback, 0, limit)
	for rows.Next() {
		var (
			fb        domain.Feedback
			createdAt string
		)
		if err := rows.Scan(&fb.ID, &fb.Name, &fb.Email, &fb.Rating, &fb.Message, &createdAt); err != nil {
			return nil, err
		}
		fb.CreatedAt, err = time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
		}
		out = append(out, fb)
	}
	return out, rows.Err()
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
