// File: internal/usecase/workflow_uc.go
package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"docuparse-client/internal/domain/model"
	"docuparse-client/internal/domain/ports/adapter"
	"docuparse-client/internal/domain/ports/repository"
	"docuparse-client/internal/infra/metrics"
)

// Compile-time check
var _ WorkflowCoordinator = (*workflowUC)(nil)

// WorkflowCoordinator computes and persists where in the wizard a job is, and
// resolves a bare job id to the correct step for resumption.
type WorkflowCoordinator interface {
	// Advance moves the job one step forward. The step pointer update is
	// optimistic: the returned step is valid for local navigation even when
	// err is non-nil, because losing the pointer is lower-risk than blocking
	// the user's progress. The error is informational only.
	Advance(ctx context.Context, jobID string, from model.ConfigStep) (model.ConfigStep, error)

	// ResolveStep derives the resumption step for a job from server state,
	// not from the stored pointer alone: a completed job resolves to
	// results, a job with no files resolves to upload, and a failed job
	// fetch resolves to upload — the least destructive default, since it
	// never hides existing data and always gives the user a path forward.
	ResolveStep(ctx context.Context, jobID string) model.ConfigStep

	// FetchJob returns the job snapshot, cache first.
	FetchJob(ctx context.Context, jobID string) (*model.Job, error)
}

type workflowUC struct {
	api   adapter.JobAPI
	cache repository.SnapshotCache
	log   *zerolog.Logger
}

func NewWorkflowCoordinator(api adapter.JobAPI, cache repository.SnapshotCache, log *zerolog.Logger) *workflowUC {
	return &workflowUC{api: api, cache: cache, log: log}
}

func (w *workflowUC) Advance(ctx context.Context, jobID string, from model.ConfigStep) (model.ConfigStep, error) {
	next := from.Next()
	if err := w.api.UpdateConfigStep(ctx, jobID, next); err != nil {
		// Non-fatal: navigate anyway, report for an inline notice.
		w.log.Warn().Err(err).Str("job_id", jobID).
			Str("from", string(from)).Str("to", string(next)).
			Msg("config step update failed; navigating optimistically")
		metrics.IncStepAdvance(string(next), false)
		return next, fmt.Errorf("persist step %s: %w", next, err)
	}
	if cerr := w.cache.InvalidateJob(ctx, jobID); cerr != nil {
		w.log.Warn().Err(cerr).Str("job_id", jobID).Msg("cache invalidation failed after step update")
	}
	metrics.IncStepAdvance(string(next), true)
	return next, nil
}

func (w *workflowUC) ResolveStep(ctx context.Context, jobID string) model.ConfigStep {
	job, err := w.FetchJob(ctx, jobID)
	if err != nil {
		w.log.Warn().Err(err).Str("job_id", jobID).Msg("job fetch failed during resumption; defaulting to upload")
		return model.StepUpload
	}
	if job.IsCompleted() {
		return model.StepResults
	}

	files, err := w.api.ListFiles(ctx, jobID)
	if err != nil {
		w.log.Warn().Err(err).Str("job_id", jobID).Msg("file listing failed during resumption; trusting stored step")
	} else if len(files) == 0 {
		// Nothing attached yet: the stored pointer cannot be trusted past
		// the upload step.
		return model.StepUpload
	}

	if job.ConfigStep.Valid() {
		return job.ConfigStep
	}
	return model.StepUpload
}

func (w *workflowUC) FetchJob(ctx context.Context, jobID string) (*model.Job, error) {
	if job, err := w.cache.GetJob(ctx, jobID); err == nil {
		metrics.IncCacheRequest("job", "hit")
		return job, nil
	}
	metrics.IncCacheRequest("job", "miss")
	job, err := w.api.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", jobID, err)
	}
	if cerr := w.cache.SetJob(ctx, job); cerr != nil {
		w.log.Warn().Err(cerr).Str("job_id", jobID).Msg("job snapshot cache write failed")
	}
	return job, nil
}
