// File: internal/usecase/staging_uc.go
package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"docuparse-client/internal/domain"
	"docuparse-client/internal/domain/model"
	"docuparse-client/internal/domain/ports/adapter"
	"docuparse-client/internal/domain/ports/repository"
	"docuparse-client/internal/infra/metrics"
)

// FieldValidator checks a fields payload before it is sent. A nil validator
// preserves the source system's laxness: partial entries (empty name, missing
// data type) are submitted as-is and the server is the validator of record.
type FieldValidator interface {
	Validate(payload adapter.FieldsPayload) error
}

// ConfigStaging holds the locally editable draft of extraction fields and
// task definitions, independent of the last-saved server copy. All editing
// operations are pure local mutations; Commit is the only bridge to the
// server and it replaces the persisted configuration as a unit.
type ConfigStaging struct {
	api       adapter.JobAPI
	cache     repository.SnapshotCache
	validator FieldValidator
	log       *zerolog.Logger

	mu         sync.Mutex
	jobID      string
	fields     []model.FieldConfig
	tasks      []model.TaskDefinition
	templateID string
	dirty      bool
	rev        uint64 // bumped on every draft mutation; guards Commit's dirty clear
}

func NewConfigStaging(api adapter.JobAPI, cache repository.SnapshotCache, validator FieldValidator, log *zerolog.Logger) *ConfigStaging {
	return &ConfigStaging{api: api, cache: cache, validator: validator, log: log}
}

// SeedFromRun loads the draft from a run's persisted configuration snapshot.
// A nil run seeds an empty draft for a fresh run; either way the draft always
// holds at least one field row.
func (s *ConfigStaging) SeedFromRun(jobID string, run *model.Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobID = jobID
	s.dirty = false
	s.rev++
	if run != nil {
		s.fields, s.tasks, s.templateID = run.CloneConfig()
	} else {
		s.fields = nil
		s.tasks = nil
		s.templateID = ""
	}
	if len(s.fields) == 0 {
		s.fields = []model.FieldConfig{{}}
	}
}

// AddField appends an empty field row.
func (s *ConfigStaging) AddField() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields = append(s.fields, model.FieldConfig{})
	s.dirty = true
	s.rev++
}

// RemoveField deletes the field at i. Removing the last remaining field is
// rejected; the draft never reaches zero fields.
func (s *ConfigStaging) RemoveField(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.fields) {
		return fmt.Errorf("remove field %d: %w", i, domain.ErrInvalidArgument)
	}
	if len(s.fields) == 1 {
		return domain.ErrLastField
	}
	s.fields = append(s.fields[:i], s.fields[i+1:]...)
	s.dirty = true
	s.rev++
	return nil
}

// UpdateField replaces the field at i.
func (s *ConfigStaging) UpdateField(i int, f model.FieldConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.fields) {
		return fmt.Errorf("update field %d: %w", i, domain.ErrInvalidArgument)
	}
	s.fields[i] = f
	s.dirty = true
	s.rev++
	return nil
}

// MoveField swaps the fields at i and j. Order is meaningful: it becomes the
// export column order.
func (s *ConfigStaging) MoveField(i, j int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.fields) || j < 0 || j >= len(s.fields) {
		return fmt.Errorf("move field %d->%d: %w", i, j, domain.ErrInvalidArgument)
	}
	if i == j {
		return nil
	}
	s.fields[i], s.fields[j] = s.fields[j], s.fields[i]
	s.dirty = true
	s.rev++
	return nil
}

// SetTasks replaces the task definition list.
func (s *ConfigStaging) SetTasks(tasks []model.TaskDefinition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = make([]model.TaskDefinition, len(tasks))
	copy(s.tasks, tasks)
	s.dirty = true
	s.rev++
}

// SetTemplate records the template reference submitted with the fields.
func (s *ConfigStaging) SetTemplate(templateID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templateID = templateID
	s.dirty = true
	s.rev++
}

// Fields returns a copy of the draft field list.
func (s *ConfigStaging) Fields() []model.FieldConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.FieldConfig, len(s.fields))
	copy(out, s.fields)
	return out
}

// Tasks returns a copy of the draft task definitions.
func (s *ConfigStaging) Tasks() []model.TaskDefinition {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.TaskDefinition, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Dirty reports whether the draft has diverged from its seed.
func (s *ConfigStaging) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Commit derives the processing-mode map and submits the draft as a single
// atomic replace. A validation failure is recoverable: the draft is left
// untouched for the user to correct and resubmit. On success the cached job
// snapshot is invalidated so subsequent reads see the new configuration.
func (s *ConfigStaging) Commit(ctx context.Context) error {
	s.mu.Lock()
	jobID := s.jobID
	rev := s.rev
	payload := adapter.FieldsPayload{
		Fields:          make([]model.FieldConfig, len(s.fields)),
		TemplateID:      s.templateID,
		ProcessingModes: model.ProcessingModes(s.tasks),
	}
	copy(payload.Fields, s.fields)
	s.mu.Unlock()

	if jobID == "" {
		return fmt.Errorf("commit: %w", domain.ErrInvalidArgument)
	}
	if s.validator != nil {
		if err := s.validator.Validate(payload); err != nil {
			metrics.IncFieldsCommit("rejected")
			return fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
	}

	if err := s.api.UpdateFields(ctx, jobID, payload); err != nil {
		metrics.IncFieldsCommit("error")
		return fmt.Errorf("commit fields for job %s: %w", jobID, err)
	}
	metrics.IncFieldsCommit("ok")

	if cerr := s.cache.InvalidateJob(ctx, jobID); cerr != nil {
		s.log.Warn().Err(cerr).Str("job_id", jobID).Msg("cache invalidation failed after commit")
	}

	s.mu.Lock()
	// Edits made while the request was in flight are not on the server yet;
	// they keep the draft dirty.
	if s.rev == rev {
		s.dirty = false
	}
	s.mu.Unlock()
	return nil
}
