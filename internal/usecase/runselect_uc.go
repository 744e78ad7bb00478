// File: internal/usecase/runselect_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"docuparse-client/internal/domain"
	"docuparse-client/internal/domain/model"
	"docuparse-client/internal/domain/ports/adapter"
	"docuparse-client/internal/domain/ports/repository"
	"docuparse-client/internal/infra/metrics"
)

// CreateRunOptions controls CreateNewRun. CloneFromRunID seeds the new run
// with an existing run's configuration snapshot; RedirectTo is the step the
// caller should navigate to afterwards and defaults to upload, since a new
// run starts with no files even when cloned.
type CreateRunOptions struct {
	CloneFromRunID string
	RedirectTo     model.ConfigStep
}

// RunSelectionManager presents a single consistent notion of "the active run"
// for one job, reconciling the server-fetched run list with the user's
// explicit choice. Only this type writes the selected run id; every other
// component reads it through the accessors.
type RunSelectionManager struct {
	api     adapter.JobAPI
	cache   repository.SnapshotCache
	log     *zerolog.Logger
	enabled bool

	mu           sync.Mutex
	jobID        string
	gen          uint64 // bumped on SetJob; discards run-list fetches for an unmounted job
	runs         []model.Run
	selectedID   string
	userSelected bool
}

func NewRunSelectionManager(api adapter.JobAPI, cache repository.SnapshotCache, jobID string, enabled bool, log *zerolog.Logger) *RunSelectionManager {
	return &RunSelectionManager{api: api, cache: cache, jobID: jobID, enabled: enabled, log: log}
}

// SetJob switches the manager to a different job, dropping the old run list
// and selection. A run-list response still in flight for the previous job is
// discarded when it lands.
func (m *RunSelectionManager) SetJob(jobID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.jobID == jobID {
		return
	}
	m.jobID = jobID
	m.gen++
	m.runs = nil
	m.selectedID = ""
	m.userSelected = false
}

// Refresh fetches the job's run list (cache first) and reconciles the
// selection: an explicit user choice sticks while it remains in the list,
// anything else defaults to the latest run. A response that resolves after
// SetJob switched jobs is silently dropped, never surfaced as an error.
func (m *RunSelectionManager) Refresh(ctx context.Context) error {
	if !m.enabled {
		return nil
	}
	m.mu.Lock()
	jobID := m.jobID
	gen := m.gen
	m.mu.Unlock()
	if jobID == "" {
		return nil
	}

	runs, err := m.cache.GetRuns(ctx, jobID)
	if err != nil {
		metrics.IncCacheRequest("runs", "miss")
		runs, err = m.api.ListRuns(ctx, jobID)
		if err != nil {
			return fmt.Errorf("list runs for job %s: %w", jobID, err)
		}
		if cerr := m.cache.SetRuns(ctx, jobID, runs); cerr != nil {
			m.log.Warn().Err(cerr).Str("job_id", jobID).Msg("run list cache write failed")
		}
	} else {
		metrics.IncCacheRequest("runs", "hit")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		metrics.IncStaleDiscard("run_list")
		return nil
	}
	m.runs = runs
	m.reconcileLocked()
	return nil
}

// reconcileLocked requires m.mu held.
func (m *RunSelectionManager) reconcileLocked() {
	if m.userSelected && model.FindRun(m.runs, m.selectedID) != nil {
		return
	}
	m.userSelected = false
	if latest := model.LatestRun(m.runs); latest != nil {
		m.selectedID = latest.ID
	} else {
		m.selectedID = ""
	}
}

// Select records an explicit user choice. The run must exist in the last
// fetched list.
func (m *RunSelectionManager) Select(runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if model.FindRun(m.runs, runID) == nil {
		return fmt.Errorf("select run %s: %w", runID, domain.ErrNotFound)
	}
	m.selectedID = runID
	m.userSelected = true
	return nil
}

// SelectedRunID returns the active run id; ok is false when the job has no
// runs yet.
func (m *RunSelectionManager) SelectedRunID() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selectedID, m.selectedID != ""
}

// SelectedRun returns a copy of the active run.
func (m *RunSelectionManager) SelectedRun() (*model.Run, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := model.FindRun(m.runs, m.selectedID)
	if r == nil {
		return nil, false
	}
	cp := *r
	return &cp, true
}

// LatestRunID returns the id of the run with the highest creation order.
func (m *RunSelectionManager) LatestRunID() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	latest := model.LatestRun(m.runs)
	if latest == nil {
		return "", false
	}
	return latest.ID, true
}

// Runs returns a copy of the last fetched run list.
func (m *RunSelectionManager) Runs() []model.Run {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Run, len(m.runs))
	copy(out, m.runs)
	return out
}

// IsReadOnly reports whether the selected run's configuration may only be
// viewed. A completed run is never edited in place; the sole mutation path is
// cloning it into a new run.
func (m *RunSelectionManager) IsReadOnly() bool {
	r, ok := m.SelectedRun()
	return ok && r.IsReadOnly()
}

// CanEdit reports whether the selected run accepts configuration changes.
func (m *RunSelectionManager) CanEdit() bool {
	r, ok := m.SelectedRun()
	return ok && !r.IsReadOnly()
}

// CreateNewRun creates a fresh run, invalidates the cached run list, selects
// the new run and returns the step to navigate to. Selection state is not
// touched until the creation request has succeeded; a failed creation leaves
// the manager exactly as it was.
func (m *RunSelectionManager) CreateNewRun(ctx context.Context, opts CreateRunOptions) (runID string, redirect model.ConfigStep, err error) {
	m.mu.Lock()
	jobID := m.jobID
	m.mu.Unlock()
	if jobID == "" {
		return "", "", errors.New("no job mounted")
	}

	runID, err = m.api.CreateRun(ctx, jobID, adapter.CreateRunRequest{CloneFromRunID: opts.CloneFromRunID})
	if err != nil {
		return "", "", fmt.Errorf("create run: %w", err)
	}
	metrics.IncRunCreated(opts.CloneFromRunID != "")

	if cerr := m.cache.InvalidateJob(ctx, jobID); cerr != nil {
		m.log.Warn().Err(cerr).Str("job_id", jobID).Msg("cache invalidation failed after run creation")
	}
	if rerr := m.Refresh(ctx); rerr != nil {
		m.log.Warn().Err(rerr).Str("job_id", jobID).Msg("run list refresh failed after creation")
	}

	m.mu.Lock()
	m.selectedID = runID
	m.userSelected = true
	m.mu.Unlock()

	redirect = opts.RedirectTo
	if !redirect.Valid() {
		redirect = model.StepUpload
	}
	return runID, redirect, nil
}
