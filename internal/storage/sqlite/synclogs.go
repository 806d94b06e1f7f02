package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/brkops/painel-holmes/pkg/logger"
)

// SyncLogStorage handles storage of synchronization audit entries.
type SyncLogStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewSyncLogStorage creates a new SQLite sync log storage and ensures the
// schema exists.
func NewSyncLogStorage(db *sql.DB, logger *logger.Logger) (*SyncLogStorage, error) {
	storage := &SyncLogStorage{
		db:     db,
		logger: logger.Named("sqlite-synclogs"),
	}

	if err := storage.initDB(); err != nil {
		return nil, err
	}

	return storage, nil
}

func (s *SyncLogStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sync_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			status TEXT NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			records_processed INTEGER NOT NULL DEFAULT 0,
			started_at TIMESTAMP NOT NULL,
			ended_at TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create sync_logs table: %w", err)
	}

	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_sync_logs_started_at ON sync_logs(started_at)`)
	if err != nil {
		return fmt.Errorf("failed to create sync_logs index: %w", err)
	}

	return nil
}

// Create inserts a new sync log in the running state.
func (s *SyncLogStorage) Create(message string, startedAt time.Time) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO sync_logs (status, message, records_processed, started_at) VALUES (?, ?, 0, ?)`,
		SyncStatusRunning, message, startedAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert sync log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	return id, nil
}

// Finish moves a sync log to its terminal state. Called exactly once per
// run, whether it succeeded or failed.
func (s *SyncLogStorage) Finish(id int64, status, message string, recordsProcessed int, endedAt time.Time) error {
	_, err := s.db.Exec(
		`UPDATE sync_logs
		SET status = ?, message = ?, records_processed = ?, ended_at = ?
		WHERE id = ?`,
		status, message, recordsProcessed, endedAt.Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("failed to finish sync log: %w", err)
	}
	return nil
}

// Last returns the most recently started sync log, or nil when no sync has
// ever run.
func (s *SyncLogStorage) Last() (*SyncLog, error) {
	row := s.db.QueryRow(
		`SELECT id, status, message, records_processed, started_at, ended_at
		FROM sync_logs ORDER BY started_at DESC, id DESC LIMIT 1`,
	)

	var log SyncLog
	var startedAt string
	var endedAt sql.NullString

	err := row.Scan(&log.ID, &log.Status, &log.Message, &log.RecordsProcessed, &startedAt, &endedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last sync log: %w", err)
	}

	log.StartedAt, err = time.Parse(time.RFC3339, startedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse started_at: %w", err)
	}
	if endedAt.Valid {
		ended, err := time.Parse(time.RFC3339, endedAt.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse ended_at: %w", err)
		}
		log.EndedAt = &ended
	}

	return &log, nil
}

// Recent returns the latest sync logs, most recent first.
func (s *SyncLogStorage) Recent(limit int) ([]*SyncLog, error) {
	rows, err := s.db.Query(
		`SELECT id, status, message, records_processed, started_at, ended_at
		FROM sync_logs ORDER BY started_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync logs: %w", err)
	}
	defer rows.Close()

	var logs []*SyncLog
	for rows.Next() {
		var log SyncLog
		var startedAt string
		var endedAt sql.NullString

		if err := rows.Scan(&log.ID, &log.Status, &log.Message, &log.RecordsProcessed, &startedAt, &endedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sync log: %w", err)
		}

		log.StartedAt, err = time.Parse(time.RFC3339, startedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse started_at: %w", err)
		}
		if endedAt.Valid {
			ended, err := time.Parse(time.RFC3339, endedAt.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse ended_at: %w", err)
			}
			log.EndedAt = &ended
		}

		logs = append(logs, &log)
	}

	return logs, rows.Err()
}
