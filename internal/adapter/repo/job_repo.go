package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"memoria/internal/domain"
)

// VideoJobRepositoryPG implements domain.VideoJobRepository on PostgreSQL.
//
// Terminal-state protection lives in the WHERE clauses: every status-moving
// UPDATE names the single status it may move from, so a completed or failed
// row can never be rewritten regardless of caller behavior.
type VideoJobRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewVideoJobRepository creates a new video job repository backed by PostgreSQL.
func NewVideoJobRepository(pool *pgxpool.Pool) *VideoJobRepositoryPG {
	return &VideoJobRepositoryPG{pool: pool}
}

// Create inserts a new pending job record.
func (r *VideoJobRepositoryPG) Create(ctx context.Context, job *domain.VideoJob) error {
	query := `
INSERT INTO video_jobs (id, owner_id, pet_id, input, status, progress, metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING created_at, updated_at;
`
	row := r.pool.QueryRow(ctx, query,
		job.ID,
		job.OwnerID,
		job.PetID,
		job.Input,
		job.Status,
		job.Progress,
		job.Metadata,
	)
	return row.Scan(&job.CreatedAt, &job.UpdatedAt)
}

const jobColumns = `id, owner_id, pet_id, input, status, progress, provider_task_ref, result_url, error_reason, metadata, created_at, updated_at, completed_at`

// GetForOwner fetches a job by id, scoped to its owner.
func (r *VideoJobRepositoryPG) GetForOwner(ctx context.Context, jobID, ownerID string) (*domain.VideoJob, error) {
	query := `
SELECT ` + jobColumns + `
FROM video_jobs
WHERE id = $1 AND owner_id = $2;
`
	row := r.pool.QueryRow(ctx, query, jobID, ownerID)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

// List returns the owner's jobs, newest first, with optional status filter
// and limit/offset pagination.
func (r *VideoJobRepositoryPG) List(ctx context.Context, ownerID string, filter domain.ListFilter) ([]domain.VideoJob, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := `
SELECT ` + jobColumns + `
FROM video_jobs
WHERE owner_id = $1 AND ($2::text = '' OR status = $2)
ORDER BY created_at DESC
LIMIT $3 OFFSET $4;
`
	rows, err := r.pool.Query(ctx, query, ownerID, string(filter.Status), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.VideoJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// MarkProcessing moves a pending job to processing.
func (r *VideoJobRepositoryPG) MarkProcessing(ctx context.Context, jobID string) error {
	query := `
UPDATE video_jobs
SET status = 'processing', updated_at = NOW()
WHERE id = $1 AND status = 'pending';
`
	tag, err := r.pool.Exec(ctx, query, jobID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mark processing %s: %w", jobID, domain.ErrJobTerminal)
	}
	return nil
}

// SetTaskRef records the provider task reference assigned to a processing job.
func (r *VideoJobRepositoryPG) SetTaskRef(ctx context.Context, jobID, taskRef string) error {
	query := `
UPDATE video_jobs
SET provider_task_ref = $2, updated_at = NOW()
WHERE id = $1 AND status = 'processing';
`
	_, err := r.pool.Exec(ctx, query, jobID, taskRef)
	return err
}

// UpdateProgress raises the progress of a processing job. Writes that would
// lower progress or touch a terminal job are silently skipped.
func (r *VideoJobRepositoryPG) UpdateProgress(ctx context.Context, jobID string, progress int) error {
	query := `
UPDATE video_jobs
SET progress = $2, updated_at = NOW()
WHERE id = $1 AND status = 'processing' AND progress < $2;
`
	_, err := r.pool.Exec(ctx, query, jobID, progress)
	return err
}

// Complete writes the terminal completed state.
func (r *VideoJobRepositoryPG) Complete(ctx context.Context, jobID, resultURL string, metadata []byte) error {
	query := `
UPDATE video_jobs
SET status = 'completed',
    progress = 100,
    result_url = $2,
    metadata = COALESCE($3, metadata),
    completed_at = NOW(),
    updated_at = NOW()
WHERE id = $1 AND status = 'processing';
`
	tag, err := r.pool.Exec(ctx, query, jobID, resultURL, nullableBytes(metadata))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("complete %s: %w", jobID, domain.ErrJobTerminal)
	}
	return nil
}

// Fail writes the terminal failed state.
func (r *VideoJobRepositoryPG) Fail(ctx context.Context, jobID, reason string, metadata []byte) error {
	query := `
UPDATE video_jobs
SET status = 'failed',
    error_reason = $2,
    metadata = COALESCE($3, metadata),
    completed_at = NOW(),
    updated_at = NOW()
WHERE id = $1 AND status = 'processing';
`
	tag, err := r.pool.Exec(ctx, query, jobID, reason, nullableBytes(metadata))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("fail %s: %w", jobID, domain.ErrJobTerminal)
	}
	return nil
}

// FailStale sweeps non-terminal jobs untouched for longer than maxAge.
// Processing rows go stale after a crash between a provider outcome and the
// terminal store write; pending rows go stale when a dispatched run was
// canceled at shutdown before it ever started.
func (r *VideoJobRepositoryPG) FailStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	query := `
UPDATE video_jobs
SET status = 'failed',
    error_reason = 'stale',
    completed_at = NOW(),
    updated_at = NOW()
WHERE status IN ('pending', 'processing') AND updated_at < $1;
`
	tag, err := r.pool.Exec(ctx, query, time.Now().Add(-maxAge))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanJob(row pgx.Row) (*domain.VideoJob, error) {
	var job domain.VideoJob
	if err := row.Scan(
		&job.ID,
		&job.OwnerID,
		&job.PetID,
		&job.Input,
		&job.Status,
		&job.Progress,
		&job.ProviderTaskRef,
		&job.ResultURL,
		&job.ErrorReason,
		&job.Metadata,
		&job.CreatedAt,
		&job.UpdatedAt,
		&job.CompletedAt,
	); err != nil {
		return nil, err
	}
	return &job, nil
}

func nullableBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}
