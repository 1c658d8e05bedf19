package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pavelanni/trainer/internal/llm"

	_ "modernc.org/sqlite"
)

// Store keeps an audit log of LLM interactions in SQLite. It implements
// llm.CallLog.
type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS llm_calls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL DEFAULT '',
		site TEXT NOT NULL,
		prompt TEXT NOT NULL,
		response TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		duration_ms INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CallRecord is one stored LLM interaction.
type CallRecord struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	Site       string    `json:"site"`
	Prompt     string    `json:"prompt"`
	Response   string    `json:"response"`
	Error      string    `json:"error"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// Record stores one LLM interaction.
func (s *Store) Record(ctx context.Context, c llm.Call) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO llm_calls (session_id, site, prompt, response, error, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.SessionID, c.Site, c.Prompt, c.Response, c.Err, c.Duration.Milliseconds(), time.Now(),
	)
	return err
}

// ListCalls returns recorded calls, newest first. An empty sessionID returns
// calls for all sessions.
func (s *Store) ListCalls(sessionID string) ([]CallRecord, error) {
	query := `SELECT id, session_id, site, prompt, response, error, duration_ms, created_at
	          FROM llm_calls`
	var args []any
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY id DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var calls []CallRecord
	for rows.Next() {
		var c CallRecord
		if err := rows.Scan(&c.ID, &c.SessionID, &c.Site, &c.Prompt, &c.Response, &c.Error, &c.DurationMS, &c.CreatedAt); err != nil {
			return nil, err
		}
		calls = append(calls, c)
	}
	return calls, rows.Err()
}

// CallCount returns the number of recorded calls.
func (s *Store) CallCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM llm_calls`).Scan(&count)
	return count, err
}
