package sqldb

import (
	"context"
	"database/sql"
	"time"
)

const insertUpdateRun = `INSERT INTO update_runs (
    registry, port, version, commit_ref, baseline, message, status, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

type InsertUpdateRunParams struct {
	Registry  string
	Port      string
	Version   string
	CommitRef string
	Baseline  string
	Message   string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (q *Queries) InsertUpdateRun(ctx context.Context, arg InsertUpdateRunParams) (sql.Result, error) {
	return q.db.ExecContext(ctx, insertUpdateRun,
		arg.Registry,
		arg.Port,
		arg.Version,
		arg.CommitRef,
		arg.Baseline,
		arg.Message,
		arg.Status,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
}

const updateUpdateRunStatus = `UPDATE update_runs SET status = ?, updated_at = ? WHERE id = ?`

type UpdateUpdateRunStatusParams struct {
	Status    string
	UpdatedAt time.Time
	ID        int64
}

func (q *Queries) UpdateUpdateRunStatus(ctx context.Context, arg UpdateUpdateRunStatusParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateUpdateRunStatus, arg.Status, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const completeUpdateRun = `UPDATE update_runs
SET status = 'completed', port_version = ?, git_tree = ?, error = NULL, updated_at = ?
WHERE id = ?`

type CompleteUpdateRunParams struct {
	PortVersion sql.NullInt64
	GitTree     sql.NullString
	UpdatedAt   time.Time
	ID          int64
}

func (q *Queries) CompleteUpdateRun(ctx context.Context, arg CompleteUpdateRunParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, completeUpdateRun, arg.PortVersion, arg.GitTree, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// A run that already produced its commit stays "committed" so it can be
// resumed; only runs that never committed become "failed".
const failUpdateRun = `UPDATE update_runs
SET status = CASE WHEN status = 'started' THEN 'failed' ELSE status END,
    error = ?, updated_at = ?
WHERE id = ?`

type FailUpdateRunParams struct {
	Error     sql.NullString
	UpdatedAt time.Time
	ID        int64
}

func (q *Queries) FailUpdateRun(ctx context.Context, arg FailUpdateRunParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, failUpdateRun, arg.Error, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const updateRunColumns = `id, registry, port, version, commit_ref, baseline, message, status,
    port_version, git_tree, error, created_at, updated_at`

const findUpdateRunByID = `SELECT ` + updateRunColumns + ` FROM update_runs WHERE id = ?`

func (q *Queries) FindUpdateRunByID(ctx context.Context, id int64) (UpdateRun, error) {
	row := q.db.QueryRowContext(ctx, findUpdateRunByID, id)
	return scanUpdateRun(row)
}

const findLatestUpdateRunForPort = `SELECT ` + updateRunColumns + ` FROM update_runs
WHERE registry = ? AND port = ?
ORDER BY id DESC
LIMIT 1`

type FindLatestUpdateRunForPortParams struct {
	Registry string
	Port     string
}

func (q *Queries) FindLatestUpdateRunForPort(ctx context.Context, arg FindLatestUpdateRunForPortParams) (UpdateRun, error) {
	row := q.db.QueryRowContext(ctx, findLatestUpdateRunForPort, arg.Registry, arg.Port)
	return scanUpdateRun(row)
}

const listUpdateRuns = `SELECT ` + updateRunColumns + ` FROM update_runs
WHERE registry = ?
ORDER BY id DESC
LIMIT ?`

type ListUpdateRunsParams struct {
	Registry string
	Limit    int64
}

func (q *Queries) ListUpdateRuns(ctx context.Context, arg ListUpdateRunsParams) ([]UpdateRun, error) {
	rows, err := q.db.QueryContext(ctx, listUpdateRuns, arg.Registry, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []UpdateRun
	for rows.Next() {
		i, err := scanUpdateRun(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteFinishedUpdateRunsBefore = `DELETE FROM update_runs
WHERE status IN ('completed', 'failed') AND updated_at < ?`

func (q *Queries) DeleteFinishedUpdateRunsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteFinishedUpdateRunsBefore, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUpdateRun(row rowScanner) (UpdateRun, error) {
	var i UpdateRun
	err := row.Scan(
		&i.ID,
		&i.Registry,
		&i.Port,
		&i.Version,
		&i.CommitRef,
		&i.Baseline,
		&i.Message,
		&i.Status,
		&i.PortVersion,
		&i.GitTree,
		&i.Error,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
