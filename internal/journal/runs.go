package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqldb "github.com/portbump/portbump/internal/journal/sqlc"
)

// Status is the lifecycle state of an update run.
type Status string

const (
	StatusStarted   Status = "started"
	StatusCommitted Status = "committed"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is one invocation of the update workflow for a port.
type Run struct {
	ID          int64     `json:"id"`
	Registry    string    `json:"registry"`
	Port        string    `json:"port"`
	Version     string    `json:"version"`
	CommitRef   string    `json:"commit-ref"`
	Baseline    string    `json:"baseline"`
	Message     string    `json:"message"`
	Status      Status    `json:"status"`
	PortVersion *int      `json:"port-version,omitempty"`
	GitTree     string    `json:"git-tree,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created-at"`
	UpdatedAt   time.Time `json:"updated-at"`
}

// RunRepository persists update runs.
type RunRepository struct {
	ctx *Context
	now func() time.Time
}

// NewRunRepository returns a repository backed by dbCtx.
func NewRunRepository(dbCtx *Context) *RunRepository {
	return &RunRepository{ctx: dbCtx, now: func() time.Time { return time.Now().UTC() }}
}

func (r *RunRepository) queries() (*sqldb.Queries, error) {
	if r.ctx == nil {
		return nil, errors.New("run repository: missing database context")
	}
	if r.ctx.Queries != nil {
		return r.ctx.Queries, nil
	}
	if r.ctx.DB == nil {
		return nil, errors.New("run repository: missing database context")
	}
	return sqldb.New(r.ctx.DB), nil
}

// Start records a new run in the started state and returns its id.
func (r *RunRepository) Start(ctx context.Context, run Run) (int64, error) {
	q, err := r.queries()
	if err != nil {
		return 0, err
	}

	now := r.now()
	res, err := q.InsertUpdateRun(ctx, sqldb.InsertUpdateRunParams{
		Registry:  run.Registry,
		Port:      run.Port,
		Version:   run.Version,
		CommitRef: run.CommitRef,
		Baseline:  run.Baseline,
		Message:   run.Message,
		Status:    string(StatusStarted),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return 0, fmt.Errorf("record run: %w", err)
	}
	return res.LastInsertId()
}

// MarkCommitted records that the port commit of run id exists.
func (r *RunRepository) MarkCommitted(ctx context.Context, id int64) error {
	q, err := r.queries()
	if err != nil {
		return err
	}
	affected, err := q.UpdateUpdateRunStatus(ctx, sqldb.UpdateUpdateRunStatusParams{
		Status:    string(StatusCommitted),
		UpdatedAt: r.now(),
		ID:        id,
	})
	return checkAffected(id, affected, err)
}

// MarkCompleted records the successful end of run id.
func (r *RunRepository) MarkCompleted(ctx context.Context, id int64, portVersion int, gitTree string) error {
	q, err := r.queries()
	if err != nil {
		return err
	}
	affected, err := q.CompleteUpdateRun(ctx, sqldb.CompleteUpdateRunParams{
		PortVersion: sql.NullInt64{Int64: int64(portVersion), Valid: true},
		GitTree:     nullString(gitTree),
		UpdatedAt:   r.now(),
		ID:          id,
	})
	return checkAffected(id, affected, err)
}

// MarkFailed stores cause on run id. A run that has not committed yet
// becomes failed; a committed run stays resumable.
func (r *RunRepository) MarkFailed(ctx context.Context, id int64, cause error) error {
	q, err := r.queries()
	if err != nil {
		return err
	}
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	affected, err := q.FailUpdateRun(ctx, sqldb.FailUpdateRunParams{
		Error:     nullString(msg),
		UpdatedAt: r.now(),
		ID:        id,
	})
	return checkAffected(id, affected, err)
}

// FindByID returns run id, or nil when it does not exist.
func (r *RunRepository) FindByID(ctx context.Context, id int64) (*Run, error) {
	q, err := r.queries()
	if err != nil {
		return nil, err
	}
	row, err := q.FindUpdateRunByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	run := mapRunRow(row)
	return &run, nil
}

// FindPending returns the latest run for port when it stopped after its
// commit, or nil.
func (r *RunRepository) FindPending(ctx context.Context, registry, port string) (*Run, error) {
	q, err := r.queries()
	if err != nil {
		return nil, err
	}
	row, err := q.FindLatestUpdateRunForPort(ctx, sqldb.FindLatestUpdateRunForPortParams{
		Registry: registry,
		Port:     port,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if Status(row.Status) != StatusCommitted {
		return nil, nil
	}
	run := mapRunRow(row)
	return &run, nil
}

// List returns the most recent runs of registry, newest first.
func (r *RunRepository) List(ctx context.Context, registry string, limit int) ([]Run, error) {
	q, err := r.queries()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := q.ListUpdateRuns(ctx, sqldb.ListUpdateRunsParams{Registry: registry, Limit: int64(limit)})
	if err != nil {
		return nil, err
	}
	runs := make([]Run, 0, len(rows))
	for _, row := range rows {
		runs = append(runs, mapRunRow(row))
	}
	return runs, nil
}

// Prune deletes finished runs last updated before cutoff.
func (r *RunRepository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	q, err := r.queries()
	if err != nil {
		return 0, err
	}
	return q.DeleteFinishedUpdateRunsBefore(ctx, cutoff.UTC())
}

func checkAffected(id, affected int64, err error) error {
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("run %d: %w", id, ErrRunNotFound)
	}
	return nil
}

// ErrRunNotFound indicates the run id does not exist.
var ErrRunNotFound = errors.New("journal: run not found")

func mapRunRow(row sqldb.UpdateRun) Run {
	run := Run{
		ID:        row.ID,
		Registry:  row.Registry,
		Port:      row.Port,
		Version:   row.Version,
		CommitRef: row.CommitRef,
		Baseline:  row.Baseline,
		Message:   row.Message,
		Status:    Status(row.Status),
		GitTree:   optionalString(row.GitTree),
		Error:     optionalString(row.Error),
		CreatedAt: optionalTime(row.CreatedAt),
		UpdatedAt: optionalTime(row.UpdatedAt),
	}
	if row.PortVersion.Valid {
		pv := int(row.PortVersion.Int64)
		run.PortVersion = &pv
	}
	return run
}

func nullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func optionalString(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}

func optionalTime(nt sql.NullTime) time.Time {
	if !nt.Valid {
		return time.Time{}
	}
	return nt.Time
}
