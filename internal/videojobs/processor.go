package videojobs

import (
	"context"
	"encoding/json"
	"errors"

	"memoria/internal/infra"
	"memoria/internal/providers/render"
)

// outcome is the terminal result of one processor run.
type outcome struct {
	resultURL string
	reason    string
	meta      json.RawMessage
	abandoned bool // run canceled before a terminal provider outcome
}

// process drives one job through its state machine. It is the only writer of
// the job's mutable fields and performs exactly one terminal store write.
func (s *Service) process(ctx context.Context, jobID string, input json.RawMessage) {
	log := s.logger.With().Str("job_id", jobID).Logger()

	if err := s.jobs.MarkProcessing(ctx, jobID); err != nil {
		// Another run already owns the job, or the store is unavailable.
		// Either way this run must not touch the job again.
		log.Error().Err(err).Msg("videojobs: mark processing failed")
		return
	}
	log.Info().Msg("videojobs: processing started")

	taskRef, err := s.render.Start(ctx, input)
	if err != nil {
		s.finish(ctx, jobID, outcome{reason: failureReason(err), abandoned: ctx.Err() != nil}, log)
		return
	}
	if err := s.jobs.SetTaskRef(ctx, jobID, taskRef); err != nil {
		log.Warn().Err(err).Msg("videojobs: store task ref failed")
	}
	log = log.With().Str("task_ref", taskRef).Logger()

	// Fast path: one immediate lookup may already carry the result.
	look, err := s.render.Lookup(ctx, taskRef)
	if err != nil {
		s.finish(ctx, jobID, outcome{reason: failureReason(err), abandoned: ctx.Err() != nil}, log)
		return
	}
	if out, terminal := terminalOutcome(look); terminal {
		s.finish(ctx, jobID, out, log)
		return
	}

	s.finish(ctx, jobID, s.pollUntilDone(ctx, jobID, taskRef, log), log)
}

// pollUntilDone queries the provider at the policy's fixed interval until a
// terminal outcome or the attempt budget runs out. Every attempt counts
// against the budget, whether the lookup succeeded, reported running, or
// failed in transit.
func (s *Service) pollUntilDone(ctx context.Context, jobID, taskRef string, log infra.Logger) outcome {
	for attempt := 1; attempt <= s.policy.MaxAttempts; attempt++ {
		if err := s.policy.wait(ctx); err != nil {
			return outcome{abandoned: true}
		}

		look, err := s.render.Lookup(ctx, taskRef)
		if err != nil {
			if ctx.Err() != nil {
				return outcome{abandoned: true}
			}
			log.Warn().Err(err).Int("attempt", attempt).Msg("videojobs: poll attempt failed")
			continue
		}
		if out, terminal := terminalOutcome(look); terminal {
			return out
		}

		progress := attemptProgress(attempt, s.policy.MaxAttempts, look.Progress)
		if err := s.jobs.UpdateProgress(ctx, jobID, progress); err != nil {
			log.Warn().Err(err).Int("attempt", attempt).Msg("videojobs: progress update failed")
		}
		log.Debug().Int("attempt", attempt).Int("progress", progress).Msg("videojobs: still rendering")
	}
	return outcome{reason: "timeout"}
}

// terminalOutcome translates a provider lookup into a terminal outcome, or
// reports that the task is still running.
func terminalOutcome(look *render.Lookup) (outcome, bool) {
	switch look.State {
	case render.StateSucceeded:
		if look.ResultURL == "" {
			return outcome{reason: "missing result url", meta: look.Raw}, true
		}
		return outcome{resultURL: look.ResultURL, meta: look.Raw}, true
	case render.StateFailed:
		return outcome{reason: look.Reason, meta: look.Raw}, true
	}
	return outcome{}, false
}

// finish performs the single terminal store write for a run. Write failures
// are logged; the job then stays in processing until the reaper sweeps it.
func (s *Service) finish(ctx context.Context, jobID string, out outcome, log infra.Logger) {
	if out.abandoned {
		log.Warn().Msg("videojobs: run abandoned before terminal outcome")
		return
	}
	if out.resultURL != "" {
		if err := s.jobs.Complete(ctx, jobID, out.resultURL, out.meta); err != nil {
			log.Error().Err(err).Msg("videojobs: complete write failed")
			return
		}
		log.Info().Str("result_url", out.resultURL).Msg("videojobs: completed")
		return
	}
	if err := s.jobs.Fail(ctx, jobID, out.reason, out.meta); err != nil {
		log.Error().Err(err).Msg("videojobs: fail write failed")
		return
	}
	log.Info().Str("reason", out.reason).Msg("videojobs: failed")
}

func failureReason(err error) string {
	var apiErr *render.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return err.Error()
}
