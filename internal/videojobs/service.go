package videojobs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"memoria/internal/domain"
	"memoria/internal/infra"
	"memoria/internal/providers/render"
)

// RenderClient is the slice of the provider client the processor needs.
type RenderClient interface {
	Start(ctx context.Context, input json.RawMessage) (string, error)
	Lookup(ctx context.Context, taskRef string) (*render.Lookup, error)
}

// Options tunes the orchestration service.
type Options struct {
	Policy        RetryPolicy
	MaxConcurrent int64
}

// Service orchestrates memorial video generation jobs: it validates
// submissions, persists pending jobs, and drives each one through its state
// machine on a detached supervised run. Reads never wait on processing.
type Service struct {
	jobs   domain.VideoJobRepository
	pets   domain.PetRepository
	render RenderClient
	policy RetryPolicy
	disp   *dispatcher
	logger infra.Logger
}

// NewService wires the orchestration service.
func NewService(jobs domain.VideoJobRepository, pets domain.PetRepository, client RenderClient, logger infra.Logger, opts Options) *Service {
	s := &Service{
		jobs:   jobs,
		pets:   pets,
		render: client,
		policy: opts.Policy.normalized(),
		logger: logger,
	}
	s.disp = newDispatcher(opts.MaxConcurrent, logger, s.failAfterPanic)
	return s
}

// Close stops accepting new runs and waits for in-flight processors. Runs cut
// off mid-poll leave their job in processing; the reaper sweeps those later.
func (s *Service) Close() {
	s.disp.Close()
}

type submitInput struct {
	Prompt string   `json:"prompt"`
	Images []string `json:"images"`
}

// Submit validates ownership, persists a new pending job and dispatches
// exactly one processor run for it. It returns the pending job immediately;
// the caller learns the outcome by polling Get afterward. No job row is
// created when validation fails.
func (s *Service) Submit(ctx context.Context, ownerID, petID string, input json.RawMessage) (*domain.VideoJob, error) {
	if strings.TrimSpace(ownerID) == "" || strings.TrimSpace(petID) == "" {
		return nil, domain.ErrInvalidInput
	}
	var parsed submitInput
	if err := json.Unmarshal(input, &parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed input", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(parsed.Prompt) == "" && len(parsed.Images) == 0 {
		return nil, fmt.Errorf("%w: prompt or images required", domain.ErrInvalidInput)
	}

	pet, err := s.pets.GetByID(ctx, petID)
	if err != nil {
		return nil, err
	}
	if pet.OwnerID != ownerID {
		return nil, domain.ErrForbidden
	}

	job := &domain.VideoJob{
		ID:       uuid.NewString(),
		OwnerID:  ownerID,
		PetID:    petID,
		Input:    append([]byte(nil), input...),
		Status:   domain.VideoJobStatusPending,
		Progress: 0,
		Metadata: []byte("{}"),
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	s.disp.Dispatch(job.ID, func(runCtx context.Context) {
		s.process(runCtx, job.ID, job.Input)
	})
	return job, nil
}

// Get returns the current state of a job for status-polling callers.
func (s *Service) Get(ctx context.Context, jobID, ownerID string) (*domain.VideoJob, error) {
	return s.jobs.GetForOwner(ctx, jobID, ownerID)
}

// List returns the owner's jobs.
func (s *Service) List(ctx context.Context, ownerID string, filter domain.ListFilter) ([]domain.VideoJob, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, filter.Status)
	}
	return s.jobs.List(ctx, ownerID, filter)
}

// failAfterPanic records a recovered processor panic as a job failure. A
// short detached context is used so the write still lands during shutdown.
func (s *Service) failAfterPanic(_ context.Context, jobID string, recovered any) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.jobs.Fail(ctx, jobID, fmt.Sprintf("internal: %v", recovered), nil); err != nil {
		s.logger.Error().Err(err).Str("job_id", jobID).Msg("videojobs: failed to record panic outcome")
	}
}
