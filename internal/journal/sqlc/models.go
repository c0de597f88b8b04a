package sqldb

import (
	"database/sql"
)

type UpdateRun struct {
	ID          int64
	Registry    string
	Port        string
	Version     string
	CommitRef   string
	Baseline    string
	Message     string
	Status      string
	PortVersion sql.NullInt64
	GitTree     sql.NullString
	Error       sql.NullString
	CreatedAt   sql.NullTime
	UpdatedAt   sql.NullTime
}
