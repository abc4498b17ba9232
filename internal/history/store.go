package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"muxplan/internal/pipeline"
	"muxplan/internal/services"
)

// Store journals runs in a SQLite database.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond

	// timeLayout is fixed width so timestamps sort lexically.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Open initializes or connects to the journal at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, services.Wrap(services.ErrConfiguration, "history", "open", "paths.history_db is empty", nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, now: time.Now}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// BeginRun inserts the run header. Stage records reference it by id.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return services.Wrap(services.ErrValidation, "history", "begin run", "run id is required", nil)
	}
	started := run.StartedAt
	if started.IsZero() {
		started = s.now()
	}
	return s.execWithRetry(ctx,
		`INSERT INTO runs (id, source_path, container, stages, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID,
		run.SourcePath,
		nullableString(run.Container),
		strings.Join(run.Stages, ","),
		formatTime(started),
	)
}

// RecordStage implements pipeline.Recorder.
func (s *Store) RecordStage(ctx context.Context, record pipeline.StageRecord) error {
	args, err := encodeArgs(record.Arguments)
	if err != nil {
		return err
	}
	var errMessage sql.NullString
	if record.Err != nil {
		errMessage = sql.NullString{String: record.Err.Error(), Valid: true}
	}
	return s.execWithRetry(ctx,
		`INSERT INTO run_stages (run_id, sequence, stage, changed, reason, duration_ms, error_kind, error_message, arguments)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.RunID,
		record.Sequence,
		record.Stage,
		boolToInt(record.Changed),
		nullableString(record.Reason),
		record.Duration.Milliseconds(),
		nullableString(services.Classify(record.Err)),
		errMessage,
		args,
	)
}

// FinishRun stores the final plan outcome of a run.
func (s *Store) FinishRun(ctx context.Context, id string, state pipeline.State, runErr error) error {
	args, err := encodeArgs(state.OutputArguments)
	if err != nil {
		return err
	}
	var errMessage sql.NullString
	if runErr != nil {
		errMessage = sql.NullString{String: runErr.Error(), Valid: true}
	}
	return s.execWithRetry(ctx,
		`UPDATE runs SET should_process = ?, arguments = ?, error_message = ?, finished_at = ? WHERE id = ?`,
		boolToInt(state.ShouldProcess),
		args,
		errMessage,
		formatTime(s.now()),
		id,
	)
}

const runColumns = "id, source_path, container, stages, should_process, arguments, error_message, started_at, finished_at"

// ListRuns returns the most recent runs first. A non-positive limit returns
// every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC, id DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun fetches a run and its stage entries in sequence order. An unknown id
// yields an error marked services.ErrNotFound.
func (s *Store) GetRun(ctx context.Context, id string) (Run, []StageEntry, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, nil, services.Wrap(services.ErrNotFound, "history", "get run", fmt.Sprintf("no run with id %q", id), nil)
	}
	if err != nil {
		return Run{}, nil, fmt.Errorf("get run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, sequence, stage, changed, reason, duration_ms, error_kind, error_message, arguments
         FROM run_stages WHERE run_id = ? ORDER BY sequence`, id)
	if err != nil {
		return Run{}, nil, fmt.Errorf("list run stages: %w", err)
	}
	defer rows.Close()

	var entries []StageEntry
	for rows.Next() {
		var (
			entry      StageEntry
			changed    int
			reason     sql.NullString
			durationMS int64
			errKind    sql.NullString
			errMessage sql.NullString
			args       sql.NullString
		)
		if err := rows.Scan(&entry.RunID, &entry.Sequence, &entry.Stage, &changed, &reason, &durationMS, &errKind, &errMessage, &args); err != nil {
			return Run{}, nil, fmt.Errorf("scan run stage: %w", err)
		}
		entry.Changed = changed != 0
		entry.Reason = reason.String
		entry.Duration = time.Duration(durationMS) * time.Millisecond
		entry.ErrorKind = errKind.String
		entry.ErrorMessage = errMessage.String
		entry.Arguments = decodeArgs(args.String)
		entries = append(entries, entry)
	}
	return run, entries, rows.Err()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var (
		run           Run
		container     sql.NullString
		stages        string
		shouldProcess int
		args          sql.NullString
		errMessage    sql.NullString
		startedRaw    string
		finishedRaw   sql.NullString
	)
	if err := scanner.Scan(&run.ID, &run.SourcePath, &container, &stages, &shouldProcess, &args, &errMessage, &startedRaw, &finishedRaw); err != nil {
		return Run{}, err
	}
	run.Container = container.String
	if stages != "" {
		run.Stages = strings.Split(stages, ",")
	}
	run.ShouldProcess = shouldProcess != 0
	run.Arguments = decodeArgs(args.String)
	run.ErrorMessage = errMessage.String
	run.StartedAt = parseTime(startedRaw)
	run.FinishedAt = parseTime(finishedRaw.String)
	return run, nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

func encodeArgs(args []string) (sql.NullString, error) {
	if args == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode arguments: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeArgs(raw string) []string {
	if raw == "" {
		return nil
	}
	var args []string
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil
	}
	return args
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
