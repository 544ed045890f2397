// Package runlog keeps a journal of pipeline stage executions in
// PostgreSQL.
package runlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	apperrors "preschool-admissions/internal/common/errors"
	"preschool-admissions/internal/common/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS admission_stage_runs (
	id                   UUID PRIMARY KEY,
	stage                TEXT        NOT NULL,
	job_key              BIGINT      NOT NULL,
	process_instance_key BIGINT      NOT NULL,
	started_at           TIMESTAMPTZ NOT NULL,
	duration_ms          BIGINT      NOT NULL,
	success              BOOLEAN     NOT NULL,
	rows                 INTEGER     NOT NULL,
	error_code           TEXT        NOT NULL DEFAULT '',
	summary              JSONB
);
CREATE INDEX IF NOT EXISTS admission_stage_runs_stage_started
	ON admission_stage_runs (stage, started_at DESC);`

// Entry is one recorded stage execution.
type Entry struct {
	ID                 string          `json:"id"`
	Stage              string          `json:"stage"`
	JobKey             int64           `json:"jobKey"`
	ProcessInstanceKey int64           `json:"processInstanceKey"`
	StartedAt          time.Time       `json:"startedAt"`
	Duration           time.Duration   `json:"duration"`
	Success            bool            `json:"success"`
	Rows               int             `json:"rows"`
	ErrorCode          string          `json:"errorCode,omitempty"`
	Summary            json.RawMessage `json:"summary,omitempty"`
}

const recordTimeout = 5 * time.Second

// Journal stores stage executions.
type Journal interface {
	Record(ctx context.Context, e Entry) error
	Recent(ctx context.Context, stage string, limit int) ([]Entry, error)
}

type PostgresJournal struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPostgresJournal(db *sql.DB, log logger.Logger) *PostgresJournal {
	return &PostgresJournal{db: db, logger: log}
}

// EnsureSchema creates the journal table and its index.
func (j *PostgresJournal) EnsureSchema(ctx context.Context) error {
	if _, err := j.db.ExecContext(ctx, schema); err != nil {
		return apperrors.NewDatabaseError("create journal schema", err)
	}
	return nil
}

// Record inserts e, assigning an id when it has none.
func (j *PostgresJournal) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	var summary interface{}
	if len(e.Summary) > 0 {
		summary = []byte(e.Summary)
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO admission_stage_runs (
			id, stage, job_key, process_instance_key, started_at,
			duration_ms, success, rows, error_code, summary
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.Stage, e.JobKey, e.ProcessInstanceKey, e.StartedAt.UTC(),
		e.Duration.Milliseconds(), e.Success, e.Rows, e.ErrorCode, summary,
	)
	if err != nil {
		return apperrors.NewDatabaseError("record stage run", err)
	}

	j.logger.Debug("stage run recorded", map[string]interface{}{
		"id":    e.ID,
		"stage": e.Stage,
	})
	return nil
}

// Recent returns the latest executions of stage, newest first. An empty
// stage matches every stage.
func (j *PostgresJournal) Recent(ctx context.Context, stage string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT id, stage, job_key, process_instance_key, started_at,
		       duration_ms, success, rows, error_code, summary
		FROM admission_stage_runs
		WHERE $1 = '' OR stage = $1
		ORDER BY started_at DESC
		LIMIT $2`, stage, limit)
	if err != nil {
		return nil, apperrors.NewDatabaseError("query stage runs", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			durationMs int64
			summary    []byte
		)
		if err := rows.Scan(&e.ID, &e.Stage, &e.JobKey, &e.ProcessInstanceKey, &e.StartedAt,
			&durationMs, &e.Success, &e.Rows, &e.ErrorCode, &summary); err != nil {
			return nil, apperrors.NewDatabaseError("scan stage run", err)
		}
		e.Duration = time.Duration(durationMs) * time.Millisecond
		if len(summary) > 0 {
			e.Summary = json.RawMessage(summary)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabaseError("iterate stage runs", err)
	}
	return entries, nil
}

// NoopJournal discards every entry. Used when postgres is disabled.
type NoopJournal struct{}

func (NoopJournal) Record(context.Context, Entry) error { return nil }

func (NoopJournal) Recent(context.Context, string, int) ([]Entry, error) { return nil, nil }

// Summarize marshals v for Entry.Summary, dropping it on failure.
func Summarize(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

var (
	_ Journal = (*PostgresJournal)(nil)
	_ Journal = NoopJournal{}
)

// Track records one execution of stage. Journal failures are logged and
// never fail the stage.
func Track(ctx context.Context, j Journal, log logger.Logger, e Entry, err error) {
	if j == nil {
		return
	}
	e.Success = err == nil
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		e.ErrorCode = string(apperrors.ErrCodeTimeout)
	case err != nil:
		e.ErrorCode = string(apperrors.AsStandard(err).Code)
	}
	if e.Duration == 0 && !e.StartedAt.IsZero() {
		e.Duration = time.Since(e.StartedAt)
	}
	// The stage context may already be expired or cancelled.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if recErr := j.Record(ctx, e); recErr != nil {
		log.Warn("failed to record stage run", map[string]interface{}{
			"stage": e.Stage,
			"error": recErr.Error(),
		})
	}
}
