package adapter

import (
	"context"

	"docuparse-client/internal/domain/model"
)

// FieldsPayload is the atomic full-replace body for committing a run's
// configuration. ProcessingModes is the flattened path→mode map derived from
// task definitions.
type FieldsPayload struct {
	Fields          []model.FieldConfig `json:"fields"`
	TemplateID      string              `json:"template_id,omitempty"`
	ProcessingModes map[string]string   `json:"processing_modes"`
}

// CreateRunRequest creates a new run, optionally seeded with the
// configuration snapshot of an existing run. Cloning copies configuration
// only, never file attachments or results.
type CreateRunRequest struct {
	CloneFromRunID string `json:"clone_from_run_id,omitempty"`
}

// ResultRow is one extracted record: field name → extracted value.
type ResultRow map[string]string

// JobAPI is the port to the remote job service. It is the only path to
// authoritative job state; everything the orchestration layer shows the user
// is derived from these calls.
type JobAPI interface {
	InitiateJob(ctx context.Context, name string) (jobID string, err error)
	GetJob(ctx context.Context, jobID string) (*model.Job, error)
	DeleteJob(ctx context.Context, jobID string) error

	UpdateFields(ctx context.Context, jobID string, payload FieldsPayload) error
	UpdateConfigStep(ctx context.Context, jobID string, step model.ConfigStep) error

	ListFiles(ctx context.Context, jobID string) ([]model.JobFile, error)
	ListRuns(ctx context.Context, jobID string) ([]model.Run, error)
	CreateRun(ctx context.Context, jobID string, req CreateRunRequest) (runID string, err error)

	// ImportStatus reports ingestion progress. runID may be empty for the
	// job-scoped aggregate.
	ImportStatus(ctx context.Context, jobID, runID string) (*model.OperationStatus, error)

	// ListFieldTypes returns the server's data-type vocabulary for fields.
	ListFieldTypes(ctx context.Context) ([]string, error)

	// Results returns extracted rows for a run, keyed by field name.
	Results(ctx context.Context, jobID, runID string) ([]ResultRow, error)
}
