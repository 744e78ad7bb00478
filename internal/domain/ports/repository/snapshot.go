package repository

import (
	"context"

	"docuparse-client/internal/domain/model"
)

// SnapshotCache is the port for the shared job/run snapshot cache. Entries
// expire after a short staleness window; mutations (commit, step update, run
// creation, deletion) must invalidate explicitly. A miss is reported as
// domain.ErrNotFound so callers fall through to the API.
type SnapshotCache interface {
	GetJob(ctx context.Context, jobID string) (*model.Job, error)
	SetJob(ctx context.Context, job *model.Job) error

	GetRuns(ctx context.Context, jobID string) ([]model.Run, error)
	SetRuns(ctx context.Context, jobID string, runs []model.Run) error

	// InvalidateJob drops the job snapshot and its run list.
	InvalidateJob(ctx context.Context, jobID string) error
}
