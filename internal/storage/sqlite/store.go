// Package sqlite implements storage.Store on top of a local SQLite file
// using the pure-Go modernc.org/sqlite driver, with schema migrations
// applied through goose from embedded SQL files.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/taskmesh/scheduler/internal/domain"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// noSchedule is the sentinel written to the schedule column for jobs that
// carry no cron expression, matching the coordinator's original wire
// encoding so a restored database round-trips unambiguously.
const noSchedule = "None"

// Store is a SQLite-backed storage.Store. A single *sql.DB is shared
// across all methods; SQLite serializes writers internally, and the
// queue core additionally guards concurrent access with its own mutex.
type Store struct {
	db *sql.DB
}

// Config controls the connection pool. SQLite permits only one writer at
// a time, so MaxOpenConns is deliberately small compared to the teacher's
// Postgres defaults.
type Config struct {
	Path            string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// Open creates (or attaches to) the SQLite file at cfg.Path and applies
// pending migrations. The caller must call Close when done.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	maxOpenConns := cfg.MaxOpenConns
	if maxOpenConns <= 0 {
		maxOpenConns = 1
	}
	connMaxLifetime := cfg.ConnMaxLifetime
	if connMaxLifetime <= 0 {
		connMaxLifetime = 5 * time.Minute
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %q: %w", cfg.Path, err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database %q: %w", cfg.Path, err)
	}

	return &Store{db: db}, nil
}

// Init runs embedded goose migrations. Safe to call repeatedly.
func (s *Store) Init(ctx context.Context) error {
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(s.db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// InsertJob persists a concrete job or a schedule template row. A job
// without a cron expression stores the "None" sentinel in schedule.
func (s *Store) InsertJob(ctx context.Context, job domain.Job) error {
	argsJSON, err := json.Marshal(job.Args)
	if err != nil {
		return fmt.Errorf("marshal args for job %s: %w", job.ID, err)
	}

	schedule := noSchedule
	if job.Schedule != "" {
		schedule = job.Schedule
	}

	var nextRun *string
	if job.NextRun != nil {
		formatted := job.NextRun.UTC().Format(time.RFC3339)
		nextRun = &formatted
	}

	var parentID *string
	if job.ParentScheduleID != nil {
		formatted := job.ParentScheduleID.String()
		parentID = &formatted
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, command, args, status, timestamp, retry_count, max_retries, priority, schedule, next_run, is_recurring, parent_schedule_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID.String(), job.Command, string(argsJSON), string(job.Status), job.Timestamp.UTC().Format(time.RFC3339),
		job.RetryCount, job.MaxRetries, string(job.Priority), schedule, nextRun, job.IsRecurring, parentID,
	)
	if err != nil {
		return fmt.Errorf("insert job %s: %w", job.ID, err)
	}
	return nil
}

func (s *Store) InsertResult(ctx context.Context, jobID uuid.UUID, result domain.JobResult) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO results (id, exitcode, stdout, stderr) VALUES (?, ?, ?, ?)`,
		jobID.String(), result.ExitCode, result.Stdout, result.Stderr,
	)
	if err != nil {
		return fmt.Errorf("insert result for job %s: %w", jobID, err)
	}
	return nil
}

func (s *Store) UpdateStatus(ctx context.Context, jobID uuid.UUID, status domain.JobStatus) error {
	_, err := s.db.ExecContext(ctx, `UPDATE jobs SET status = ? WHERE id = ?`, string(status), jobID.String())
	if err != nil {
		return fmt.Errorf("update status for job %s: %w", jobID, err)
	}
	return nil
}

func (s *Store) UpdateRetryCount(ctx context.Context, jobID uuid.UUID, count int) error {
	_, err := s.db.ExecContext(ctx, `UPDATE jobs SET retry_count = ? WHERE id = ?`, count, jobID.String())
	if err != nil {
		return fmt.Errorf("update retry count for job %s: %w", jobID, err)
	}
	return nil
}

func (s *Store) UpdateNextRun(ctx context.Context, scheduleID uuid.UUID, next time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE jobs SET next_run = ? WHERE id = ?`,
		next.UTC().Format(time.RFC3339), scheduleID.String())
	if err != nil {
		return fmt.Errorf("update next_run for schedule %s: %w", scheduleID, err)
	}
	return nil
}

// LoadPending returns every job whose status is PENDING or RUNNING, plus
// every schedule template (status is irrelevant for templates, since they
// never themselves execute), ordered by timestamp ascending.
func (s *Store) LoadPending(ctx context.Context) ([]domain.Job, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, command, args, status, timestamp, retry_count, max_retries, priority, schedule, next_run, is_recurring, parent_schedule_id
		FROM jobs
		WHERE status IN ('PENDING', 'RUNNING') OR is_recurring = 1
		ORDER BY timestamp ASC`)
	if err != nil {
		return nil, fmt.Errorf("query pending jobs: %w", err)
	}
	defer rows.Close()

	var out []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pending job: %w", err)
		}
		out = append(out, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending jobs: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (domain.Job, error) {
	var (
		idStr, command, argsJSON, status, timestampStr, priority, schedule string
		retryCount, maxRetries                                             int
		nextRunStr, parentIDStr                                            sql.NullString
		isRecurring                                                        bool
	)

	if err := row.Scan(&idStr, &command, &argsJSON, &status, &timestampStr, &retryCount, &maxRetries,
		&priority, &schedule, &nextRunStr, &isRecurring, &parentIDStr); err != nil {
		return domain.Job{}, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return domain.Job{}, fmt.Errorf("parse job id %q: %w", idStr, err)
	}

	timestamp, err := time.Parse(time.RFC3339, timestampStr)
	if err != nil {
		return domain.Job{}, fmt.Errorf("parse timestamp %q: %w", timestampStr, err)
	}

	var args []string
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return domain.Job{}, fmt.Errorf("unmarshal args %q: %w", argsJSON, err)
	}

	job := domain.Job{
		ID:          id,
		Command:     command,
		Args:        args,
		Status:      domain.JobStatus(status),
		Timestamp:   timestamp,
		RetryCount:  retryCount,
		MaxRetries:  maxRetries,
		Priority:    domain.Priority(priority),
		IsRecurring: isRecurring,
	}

	if schedule != noSchedule {
		job.Schedule = schedule
	}

	if nextRunStr.Valid {
		nextRun, err := time.Parse(time.RFC3339, nextRunStr.String)
		if err != nil {
			return domain.Job{}, fmt.Errorf("parse next_run %q: %w", nextRunStr.String, err)
		}
		job.NextRun = &nextRun
	}

	if parentIDStr.Valid {
		parentID, err := uuid.Parse(parentIDStr.String)
		if err != nil {
			return domain.Job{}, fmt.Errorf("parse parent_schedule_id %q: %w", parentIDStr.String, err)
		}
		job.ParentScheduleID = &parentID
	}

	return job, nil
}
