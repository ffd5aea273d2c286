package domain

import (
	"context"
	"time"
)

// ListFilter narrows job listings.
type ListFilter struct {
	Status VideoJobStatus // empty matches all
	Limit  int
	Offset int
}

// VideoJobRepository defines persistence for video jobs. Status-moving writes
// are guarded: MarkProcessing applies only to pending jobs, the other
// mutators only to processing jobs, so a terminal row is never rewritten.
type VideoJobRepository interface {
	Create(ctx context.Context, job *VideoJob) error
	GetForOwner(ctx context.Context, jobID, ownerID string) (*VideoJob, error)
	List(ctx context.Context, ownerID string, filter ListFilter) ([]VideoJob, error)

	MarkProcessing(ctx context.Context, jobID string) error
	SetTaskRef(ctx context.Context, jobID, taskRef string) error
	UpdateProgress(ctx context.Context, jobID string, progress int) error
	Complete(ctx context.Context, jobID, resultURL string, metadata []byte) error
	Fail(ctx context.Context, jobID, reason string, metadata []byte) error

	// FailStale marks non-terminal jobs untouched for longer than maxAge as
	// failed with reason "stale" and returns how many rows were swept.
	FailStale(ctx context.Context, maxAge time.Duration) (int64, error)
}

// PetRepository exposes the subject lookup needed for ownership checks.
type PetRepository interface {
	GetByID(ctx context.Context, petID string) (*Pet, error)
}
