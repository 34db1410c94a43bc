package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/learitecnico/learion-glass-sub000/config"
	"github.com/learitecnico/learion-glass-sub000/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStorage implements ThreadStorage using SQLite
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(cfg config.SQLiteConfig) (*SQLiteStorage, error) {
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	storage := &SQLiteStorage{
		db:   db,
		path: cfg.Path,
	}

	if err := storage.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return storage, nil
}

func (s *SQLiteStorage) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS threads (
		agent_id TEXT PRIMARY KEY,         -- Owning agent
		thread_id TEXT NOT NULL,           -- Remote thread identifier
		message_count INTEGER NOT NULL DEFAULT 0,
		custom_data TEXT DEFAULT '{}',     -- JSON object of freeform metadata
		created_at DATETIME NOT NULL,
		last_used_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_threads_created_at ON threads(created_at);

	CREATE TABLE IF NOT EXISTS preferences (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveThread persists a thread record, replacing any existing record for the agent
func (s *SQLiteStorage) SaveThread(ctx context.Context, rec domain.ThreadRecord) error {
	customData, err := json.Marshal(rec.CustomData)
	if err != nil {
		return fmt.Errorf("failed to marshal custom data: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO threads (agent_id, thread_id, message_count, custom_data, created_at, last_used_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(agent_id) DO UPDATE SET
			thread_id = excluded.thread_id,
			message_count = excluded.message_count,
			custom_data = excluded.custom_data,
			created_at = excluded.created_at,
			last_used_at = excluded.last_used_at
	`, rec.AgentID, rec.ThreadID, rec.MessageCount, string(customData),
		rec.CreatedAt.UTC(), rec.LastUsedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save thread: %w", err)
	}

	return nil
}

// LoadThread loads the thread record for an agent
func (s *SQLiteStorage) LoadThread(ctx context.Context, agentID string) (domain.ThreadRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT agent_id, thread_id, message_count, custom_data, created_at, last_used_at
		FROM threads WHERE agent_id = ?
	`, agentID)

	rec, err := scanThread(row)
	if err == sql.ErrNoRows {
		return domain.ThreadRecord{}, domain.ErrThreadNotFound
	}
	if err != nil {
		return domain.ThreadRecord{}, fmt.Errorf("failed to load thread: %w", err)
	}

	return rec, nil
}

// DeleteThread removes the persisted record for an agent
func (s *SQLiteStorage) DeleteThread(ctx context.Context, agentID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM threads WHERE agent_id = ?`, agentID); err != nil {
		return fmt.Errorf("failed to delete thread: %w", err)
	}
	return nil
}

// ListThreads returns all persisted thread records
func (s *SQLiteStorage) ListThreads(ctx context.Context) ([]domain.ThreadRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT agent_id, thread_id, message_count, custom_data, created_at, last_used_at
		FROM threads ORDER BY last_used_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []domain.ThreadRecord
	for rows.Next() {
		rec, err := scanThread(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan thread: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// DeleteExpired removes all records created before the cutoff
func (s *SQLiteStorage) DeleteExpired(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM threads WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired threads: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(removed), nil
}

// SavePreference persists a client preference value
func (s *SQLiteStorage) SavePreference(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to save preference: %w", err)
	}
	return nil
}

// LoadPreference loads a client preference; returns "" when unset
func (s *SQLiteStorage) LoadPreference(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load preference: %w", err)
	}
	return value, nil
}

// Close closes the storage connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Health checks if the storage is healthy and reachable
func (s *SQLiteStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanThread(row rowScanner) (domain.ThreadRecord, error) {
	var rec domain.ThreadRecord
	var customData string

	if err := row.Scan(&rec.AgentID, &rec.ThreadID, &rec.MessageCount,
		&customData, &rec.CreatedAt, &rec.LastUsedAt); err != nil {
		return domain.ThreadRecord{}, err
	}

	if customData != "" && customData != "{}" {
		if err := json.Unmarshal([]byte(customData), &rec.CustomData); err != nil {
			return domain.ThreadRecord{}, fmt.Errorf("failed to unmarshal custom data: %w", err)
		}
	}

	return rec, nil
}
