package application

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"docuparse-client/internal/domain/model"
	"docuparse-client/internal/domain/ports/adapter"
	"docuparse-client/internal/domain/ports/repository"
	"docuparse-client/internal/infra/logging"
	"docuparse-client/internal/usecase"
)

// ResultsExporter decouples the facade from the concrete XLSX service so
// tests can pass a light-weight mock.
type ResultsExporter interface {
	ResultsXLSX(ctx context.Context, job *model.Job, runID string) ([]byte, error)
}

// JobView is what a wizard screen needs to render: the job snapshot, the step
// it should be on, and the run selection state.
type JobView struct {
	Job           *model.Job
	Step          model.ConfigStep
	Runs          []model.Run
	SelectedRunID string
	ReadOnly      bool
}

// DashboardFacade composes the orchestration use cases into the high-level
// operations a dashboard (or the headless driver) performs: open/resume a
// job, edit and commit configuration, advance the wizard, create runs, watch
// progress, export results.
type DashboardFacade struct {
	api        adapter.JobAPI
	cache      repository.SnapshotCache
	workflow   usecase.WorkflowCoordinator
	runs       *usecase.RunSelectionManager
	staging    *usecase.ConfigStaging
	supervisor *usecase.PollSupervisor
	exporter   ResultsExporter
	log        *zerolog.Logger
}

func NewDashboardFacade(
	api adapter.JobAPI,
	cache repository.SnapshotCache,
	workflow usecase.WorkflowCoordinator,
	runs *usecase.RunSelectionManager,
	staging *usecase.ConfigStaging,
	supervisor *usecase.PollSupervisor,
	exporter ResultsExporter,
	log *zerolog.Logger,
) *DashboardFacade {
	return &DashboardFacade{
		api:        api,
		cache:      cache,
		workflow:   workflow,
		runs:       runs,
		staging:    staging,
		supervisor: supervisor,
		exporter:   exporter,
		log:        log,
	}
}

// CreateJob initiates a new job (the server creates run 1 implicitly).
func (f *DashboardFacade) CreateJob(ctx context.Context, name string) (string, error) {
	jobID, err := f.api.InitiateJob(ctx, name)
	if err != nil {
		return "", fmt.Errorf("initiate job: %w", err)
	}
	f.log.Info().Str("job_id", jobID).Str("name", name).Msg("job created")
	return jobID, nil
}

// OpenJob resumes a job from a bare identifier: resolves the step, mounts the
// run list, seeds the staging draft from the selected run, and points the
// poll supervisor at the job. A failed job fetch still yields a usable view
// positioned on the upload step.
func (f *DashboardFacade) OpenJob(ctx context.Context, jobID string) (*JobView, error) {
	ctx = logging.WithJobID(ctx, jobID)
	log := logging.With(ctx, f.log)
	defer logging.TraceDuration(log, "DashboardFacade.OpenJob")()

	step := f.workflow.ResolveStep(ctx, jobID)

	f.runs.SetJob(jobID)
	if err := f.runs.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("run list unavailable on open")
	}
	selectedID, _ := f.runs.SelectedRunID()
	selected, _ := f.runs.SelectedRun()
	f.staging.SeedFromRun(jobID, selected)

	f.supervisor.Switch(ctx, jobID, selectedID)

	view := &JobView{
		Step:          step,
		Runs:          f.runs.Runs(),
		SelectedRunID: selectedID,
		ReadOnly:      f.runs.IsReadOnly(),
	}
	if job, err := f.workflow.FetchJob(ctx, jobID); err == nil {
		view.Job = job
	}
	return view, nil
}

// SelectRun changes the active run and reseeds the staging draft from it.
func (f *DashboardFacade) SelectRun(ctx context.Context, jobID, runID string) error {
	ctx = logging.WithRunID(logging.WithJobID(ctx, jobID), runID)
	if err := f.runs.Select(runID); err != nil {
		return err
	}
	selected, _ := f.runs.SelectedRun()
	f.staging.SeedFromRun(jobID, selected)
	f.supervisor.Switch(ctx, jobID, runID)
	return nil
}

// CommitAndAdvance persists the staged configuration then moves the wizard
// past the fields step. The step error is non-fatal by contract.
func (f *DashboardFacade) CommitAndAdvance(ctx context.Context, jobID string) (model.ConfigStep, error) {
	if err := f.staging.Commit(ctx); err != nil {
		return model.StepFields, err
	}
	next, err := f.workflow.Advance(ctx, jobID, model.StepFields)
	if err != nil {
		f.log.Warn().Err(err).Str("job_id", jobID).Msg("step pointer not persisted")
	}
	return next, nil
}

// NewRun creates a run (optionally cloned) and returns the id plus the step
// to navigate to.
func (f *DashboardFacade) NewRun(ctx context.Context, jobID string, cloneFrom string) (string, model.ConfigStep, error) {
	runID, redirect, err := f.runs.CreateNewRun(ctx, usecase.CreateRunOptions{CloneFromRunID: cloneFrom})
	if err != nil {
		return "", "", err
	}
	selected, _ := f.runs.SelectedRun()
	f.staging.SeedFromRun(jobID, selected)
	f.supervisor.Switch(ctx, jobID, runID)
	return runID, redirect, nil
}

// WatchProgress returns the active poller for the job so the caller can read
// progress and register for completion.
func (f *DashboardFacade) WatchProgress(ctx context.Context, jobID, runID string) *usecase.StatusPoller {
	return f.supervisor.Switch(ctx, jobID, runID)
}

// ExportResults produces the XLSX workbook for the job's selected run.
func (f *DashboardFacade) ExportResults(ctx context.Context, jobID string) ([]byte, error) {
	job, err := f.workflow.FetchJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	runID, _ := f.runs.SelectedRunID()
	return f.exporter.ResultsXLSX(ctx, job, runID)
}

// DeleteJob removes the job server-side (cascading to runs and files) and
// drops any cached snapshots.
func (f *DashboardFacade) DeleteJob(ctx context.Context, jobID string) error {
	if err := f.api.DeleteJob(ctx, jobID); err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if cerr := f.cache.InvalidateJob(ctx, jobID); cerr != nil {
		f.log.Warn().Err(cerr).Str("job_id", jobID).Msg("cache invalidation failed after delete")
	}
	f.supervisor.Shutdown()
	return nil
}
