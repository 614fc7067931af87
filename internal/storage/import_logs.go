package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ImportLogsKey is the state key holding the import history.
const ImportLogsKey = "import_logs"

// MaxImportLogs caps the stored history; older entries are dropped.
const MaxImportLogs = 50

// ImportLog records the outcome of one import batch.
type ImportLog struct {
	CreatedAt    time.Time `json:"created_at"`
	Source       string    `json:"source"`
	Status       string    `json:"status"`
	Files        []string  `json:"files"`
	RowsReceived int       `json:"rows_received"`
	RowsAccepted int       `json:"rows_accepted"`
	Climbs       int       `json:"climbs"`
	Financials   int       `json:"financials"`
	Schedules    int       `json:"schedules"`
	Unrecognized int       `json:"unrecognized"`
	DurationMs   int64     `json:"duration_ms"`
	Errors       []string  `json:"errors,omitempty"`
}

// InsertImportLog prepends an entry to the history.
func InsertImportLog(ctx context.Context, s Store, entry ImportLog) error {
	logs, err := QueryImportLogs(ctx, s, 0)
	if err != nil {
		return err
	}
	logs = append([]ImportLog{entry}, logs...)
	if len(logs) > MaxImportLogs {
		logs = logs[:MaxImportLogs]
	}
	data, err := json.Marshal(logs)
	if err != nil {
		return fmt.Errorf("encoding import logs: %w", err)
	}
	return s.Put(ctx, ImportLogsKey, data)
}

// QueryImportLogs returns the most recent entries, newest first. A limit of
// zero or less returns the whole history.
func QueryImportLogs(ctx context.Context, s Store, limit int) ([]ImportLog, error) {
	data, err := s.Get(ctx, ImportLogsKey)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var logs []ImportLog
	if err := json.Unmarshal(data, &logs); err != nil {
		return nil, fmt.Errorf("decoding import logs: %w", err)
	}
	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}
