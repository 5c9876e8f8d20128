// Package history persists REPL input lines in a SQLite database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS history (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session    TEXT    NOT NULL,
	line       TEXT    NOT NULL,
	created_at INTEGER NOT NULL
)`

// Store appends lines to the history table and keeps at most limit rows.
type Store struct {
	db      *sql.DB
	session string
	limit   int
}

// Open creates the database file and its parent directory if needed.
func Open(path string, limit int) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history %s: %w", path, err)
	}
	// A single connection keeps writes ordered.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history table: %w", err)
	}
	return &Store{db: db, session: uuid.NewString(), limit: limit}, nil
}

// Session identifies the lines added through this Store.
func (s *Store) Session() string { return s.session }

// Add records line unless it repeats the most recent entry.
func (s *Store) Add(ctx context.Context, line string) error {
	var last string
	err := s.db.QueryRowContext(ctx, `SELECT line FROM history ORDER BY id DESC LIMIT 1`).Scan(&last)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return fmt.Errorf("reading history: %w", err)
	case last == line:
		return nil
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO history (session, line, created_at) VALUES (?, ?, ?)`,
		s.session, line, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("writing history: %w", err)
	}
	if s.limit > 0 {
		_, err = s.db.ExecContext(ctx,
			`DELETE FROM history WHERE id NOT IN (SELECT id FROM history ORDER BY id DESC LIMIT ?)`,
			s.limit)
		if err != nil {
			return fmt.Errorf("pruning history: %w", err)
		}
	}
	return nil
}

// Recent returns up to n lines, oldest first.
func (s *Store) Recent(ctx context.Context, n int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT line FROM (SELECT id, line FROM history ORDER BY id DESC LIMIT ?) ORDER BY id ASC`, n)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, fmt.Errorf("reading history: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// Count returns the number of stored lines.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM history`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting history: %w", err)
	}
	return n, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
