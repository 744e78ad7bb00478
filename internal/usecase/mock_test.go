//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"docuparse-client/internal/domain"
	"docuparse-client/internal/domain/model"
	"docuparse-client/internal/domain/ports/adapter"
)

// --- Mock JobAPI

// MockJobAPI implements adapter.JobAPI. Each method can be overridden per
// test via its Func field; un-overridden methods fall back to the in-memory
// maps so simple scenarios need no setup beyond seeding.
type MockJobAPI struct {
	mu sync.Mutex

	jobs     map[string]*model.Job
	runs     map[string][]model.Run
	files    map[string][]model.JobFile
	statuses map[string]*model.OperationStatus
	results  map[string][]adapter.ResultRow

	nextRunSeq int

	InitiateJobFunc      func(ctx context.Context, name string) (string, error)
	GetJobFunc           func(ctx context.Context, jobID string) (*model.Job, error)
	DeleteJobFunc        func(ctx context.Context, jobID string) error
	UpdateFieldsFunc     func(ctx context.Context, jobID string, payload adapter.FieldsPayload) error
	UpdateConfigStepFunc func(ctx context.Context, jobID string, step model.ConfigStep) error
	ListFilesFunc        func(ctx context.Context, jobID string) ([]model.JobFile, error)
	ListRunsFunc         func(ctx context.Context, jobID string) ([]model.Run, error)
	CreateRunFunc        func(ctx context.Context, jobID string, req adapter.CreateRunRequest) (string, error)
	ImportStatusFunc     func(ctx context.Context, jobID, runID string) (*model.OperationStatus, error)
	ListFieldTypesFunc   func(ctx context.Context) ([]string, error)
	ResultsFunc          func(ctx context.Context, jobID, runID string) ([]adapter.ResultRow, error)
}

func NewMockJobAPI() *MockJobAPI {
	return &MockJobAPI{
		jobs:     make(map[string]*model.Job),
		runs:     make(map[string][]model.Run),
		files:    make(map[string][]model.JobFile),
		statuses: make(map[string]*model.OperationStatus),
		results:  make(map[string][]adapter.ResultRow),
	}
}

func (m *MockJobAPI) SeedJob(job *model.Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.jobs[job.ID] = &cp
}

func (m *MockJobAPI) SeedRuns(jobID string, runs []model.Run) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[jobID] = append([]model.Run(nil), runs...)
}

func (m *MockJobAPI) SeedFiles(jobID string, files []model.JobFile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[jobID] = append([]model.JobFile(nil), files...)
}

func (m *MockJobAPI) SeedStatus(jobID string, st *model.OperationStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *st
	m.statuses[jobID] = &cp
}

func (m *MockJobAPI) InitiateJob(ctx context.Context, name string) (string, error) {
	if m.InitiateJobFunc != nil {
		return m.InitiateJobFunc(ctx, name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id := fmt.Sprintf("job-%d", len(m.jobs)+1)
	m.jobs[id] = &model.Job{ID: id, Name: name, Status: model.JobStatusPending, ConfigStep: model.StepUpload}
	return id, nil
}

func (m *MockJobAPI) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	if m.GetJobFunc != nil {
		return m.GetJobFunc(ctx, jobID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *MockJobAPI) DeleteJob(ctx context.Context, jobID string) error {
	if m.DeleteJobFunc != nil {
		return m.DeleteJobFunc(ctx, jobID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[jobID]; !ok {
		return domain.ErrNotFound
	}
	delete(m.jobs, jobID)
	delete(m.runs, jobID)
	delete(m.files, jobID)
	return nil
}

func (m *MockJobAPI) UpdateFields(ctx context.Context, jobID string, payload adapter.FieldsPayload) error {
	if m.UpdateFieldsFunc != nil {
		return m.UpdateFieldsFunc(ctx, jobID, payload)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	j.Fields = append([]model.FieldConfig(nil), payload.Fields...)
	j.TemplateID = payload.TemplateID
	return nil
}

func (m *MockJobAPI) UpdateConfigStep(ctx context.Context, jobID string, step model.ConfigStep) error {
	if m.UpdateConfigStepFunc != nil {
		return m.UpdateConfigStepFunc(ctx, jobID, step)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	j.ConfigStep = step
	return nil
}

func (m *MockJobAPI) ListFiles(ctx context.Context, jobID string) ([]model.JobFile, error) {
	if m.ListFilesFunc != nil {
		return m.ListFilesFunc(ctx, jobID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.JobFile(nil), m.files[jobID]...), nil
}

func (m *MockJobAPI) ListRuns(ctx context.Context, jobID string) ([]model.Run, error) {
	if m.ListRunsFunc != nil {
		return m.ListRunsFunc(ctx, jobID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Run(nil), m.runs[jobID]...), nil
}

func (m *MockJobAPI) CreateRun(ctx context.Context, jobID string, req adapter.CreateRunRequest) (string, error) {
	if m.CreateRunFunc != nil {
		return m.CreateRunFunc(ctx, jobID, req)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextRunSeq++
	id := fmt.Sprintf("run-%d", m.nextRunSeq)
	number := 1
	if existing := m.runs[jobID]; len(existing) > 0 {
		number = existing[len(existing)-1].Number + 1
	}
	run := model.Run{ID: id, JobID: jobID, Number: number}
	if req.CloneFromRunID != "" {
		if src := model.FindRun(m.runs[jobID], req.CloneFromRunID); src != nil {
			run.Fields, run.Tasks, run.TemplateID = src.CloneConfig()
		}
	}
	m.runs[jobID] = append(m.runs[jobID], run)
	return id, nil
}

func (m *MockJobAPI) ImportStatus(ctx context.Context, jobID, runID string) (*model.OperationStatus, error) {
	if m.ImportStatusFunc != nil {
		return m.ImportStatusFunc(ctx, jobID, runID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.statuses[jobID]
	if !ok {
		return &model.OperationStatus{}, nil
	}
	cp := *st
	return &cp, nil
}

func (m *MockJobAPI) ListFieldTypes(ctx context.Context) ([]string, error) {
	if m.ListFieldTypesFunc != nil {
		return m.ListFieldTypesFunc(ctx)
	}
	return []string{"string", "number", "date", "boolean"}, nil
}

func (m *MockJobAPI) Results(ctx context.Context, jobID, runID string) ([]adapter.ResultRow, error) {
	if m.ResultsFunc != nil {
		return m.ResultsFunc(ctx, jobID, runID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]adapter.ResultRow(nil), m.results[jobID]...), nil
}

// --- Mock SnapshotCache

// MockSnapshotCache is an in-memory repository.SnapshotCache. Invalidations
// are counted so tests can assert that mutations dropped the cached copies.
type MockSnapshotCache struct {
	mu   sync.Mutex
	jobs map[string]*model.Job
	runs map[string][]model.Run

	Invalidations int

	GetJobFunc        func(ctx context.Context, jobID string) (*model.Job, error)
	GetRunsFunc       func(ctx context.Context, jobID string) ([]model.Run, error)
	SetJobFunc        func(ctx context.Context, job *model.Job) error
	SetRunsFunc       func(ctx context.Context, jobID string, runs []model.Run) error
	InvalidateJobFunc func(ctx context.Context, jobID string) error
}

func NewMockSnapshotCache() *MockSnapshotCache {
	return &MockSnapshotCache{
		jobs: make(map[string]*model.Job),
		runs: make(map[string][]model.Run),
	}
}

func (c *MockSnapshotCache) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	if c.GetJobFunc != nil {
		return c.GetJobFunc(ctx, jobID)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	j, ok := c.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (c *MockSnapshotCache) SetJob(ctx context.Context, job *model.Job) error {
	if c.SetJobFunc != nil {
		return c.SetJobFunc(ctx, job)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *job
	c.jobs[job.ID] = &cp
	return nil
}

func (c *MockSnapshotCache) GetRuns(ctx context.Context, jobID string) ([]model.Run, error) {
	if c.GetRunsFunc != nil {
		return c.GetRunsFunc(ctx, jobID)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	runs, ok := c.runs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]model.Run(nil), runs...), nil
}

func (c *MockSnapshotCache) SetRuns(ctx context.Context, jobID string, runs []model.Run) error {
	if c.SetRunsFunc != nil {
		return c.SetRunsFunc(ctx, jobID, runs)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs[jobID] = append([]model.Run(nil), runs...)
	return nil
}

func (c *MockSnapshotCache) InvalidateJob(ctx context.Context, jobID string) error {
	if c.InvalidateJobFunc != nil {
		return c.InvalidateJobFunc(ctx, jobID)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.jobs, jobID)
	delete(c.runs, jobID)
	c.Invalidations++
	return nil
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func boolPtr(b bool) *bool { return &b }
