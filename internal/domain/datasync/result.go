package datasync

import "github.com/google/uuid"

// ResultStatus is the outcome of pushing one change
type ResultStatus string

const (
	ResultApplied   ResultStatus = "applied"
	ResultConflict  ResultStatus = "conflict"
	ResultQueued    ResultStatus = "queued"
	ResultDuplicate ResultStatus = "duplicate"
	ResultRejected  ResultStatus = "rejected"
)

// ChangeResult reports what happened to a pushed change
type ChangeResult struct {
	ChangeID   string       `json:"change_id"`
	Status     ResultStatus `json:"status"`
	Version    int64        `json:"version,omitempty"`
	ConflictID *uuid.UUID   `json:"conflict_id,omitempty"`
	Error      string       `json:"error,omitempty"`
}
