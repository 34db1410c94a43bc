package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/learitecnico/learion-glass-sub000/config"
	"github.com/learitecnico/learion-glass-sub000/internal/domain"
	_ "github.com/lib/pq"
)

// PostgresStorage implements ThreadStorage using PostgreSQL
type PostgresStorage struct {
	db *sql.DB
}

// NewPostgresStorage creates a new Postgres storage instance
func NewPostgresStorage(cfg config.PostgresConfig) (*PostgresStorage, error) {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Database, cfg.Username, cfg.Password, sslMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open Postgres connection: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	storage := &PostgresStorage{db: db}

	if err := storage.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return storage, nil
}

func (s *PostgresStorage) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS threads (
		agent_id TEXT PRIMARY KEY,
		thread_id TEXT NOT NULL,
		message_count INTEGER NOT NULL DEFAULT 0,
		custom_data JSONB DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL,
		last_used_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_threads_created_at ON threads(created_at);

	CREATE TABLE IF NOT EXISTS preferences (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SaveThread persists a thread record, replacing any existing record for the agent
func (s *PostgresStorage) SaveThread(ctx context.Context, rec domain.ThreadRecord) error {
	customData, err := json.Marshal(rec.CustomData)
	if err != nil {
		return fmt.Errorf("failed to marshal custom data: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO threads (agent_id, thread_id, message_count, custom_data, created_at, last_used_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (agent_id) DO UPDATE SET
			thread_id = EXCLUDED.thread_id,
			message_count = EXCLUDED.message_count,
			custom_data = EXCLUDED.custom_data,
			created_at = EXCLUDED.created_at,
			last_used_at = EXCLUDED.last_used_at
	`, rec.AgentID, rec.ThreadID, rec.MessageCount, string(customData),
		rec.CreatedAt.UTC(), rec.LastUsedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save thread: %w", err)
	}

	return nil
}

// LoadThread loads the thread record for an agent
func (s *PostgresStorage) LoadThread(ctx context.Context, agentID string) (domain.ThreadRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT agent_id, thread_id, message_count, custom_data, created_at, last_used_at
		FROM threads WHERE agent_id = $1
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
func (s *PostgresStorage) DeleteThread(ctx context.Context, agentID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM threads WHERE agent_id = $1`, agentID); err != nil {
		return fmt.Errorf("failed to delete thread: %w", err)
	}
	return nil
}

// ListThreads returns all persisted thread records
func (s *PostgresStorage) ListThreads(ctx context.Context) ([]domain.ThreadRecord, error) {
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
func (s *PostgresStorage) DeleteExpired(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM threads WHERE created_at < $1`, cutoff.UTC())
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
func (s *PostgresStorage) SavePreference(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to save preference: %w", err)
	}
	return nil
}

// LoadPreference loads a client preference; returns "" when unset
func (s *PostgresStorage) LoadPreference(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = $1`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load preference: %w", err)
	}
	return value, nil
}

// Close closes the storage connection
func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

// Health checks if the storage is healthy and reachable
func (s *PostgresStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
