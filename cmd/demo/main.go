// Demo: drives the whole wizard against an in-process fake job service.
// No Redis and no real backend needed; useful for a quick smoke run:
//
//	go run ./cmd/demo
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"docuparse-client/internal/application"
	"docuparse-client/internal/config"
	"docuparse-client/internal/domain"
	"docuparse-client/internal/domain/model"
	jobapi "docuparse-client/internal/infra/api"
	"docuparse-client/internal/infra/export"
	"docuparse-client/internal/usecase"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	srv := httptest.NewServer(newFakeService().router())
	defer srv.Close()
	logger.Info().Str("url", srv.URL).Msg("fake job service up")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := jobapi.NewClient(config.APIConfig{
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
		Retries: 3,
	}, nil, &logger)
	if err != nil {
		log.Fatalf("client: %v", err)
	}

	cache := newMemCache()
	workflow := usecase.NewWorkflowCoordinator(client, cache, &logger)
	runs := usecase.NewRunSelectionManager(client, cache, "", true, &logger)
	staging := usecase.NewConfigStaging(client, cache, nil, &logger)
	supervisor := usecase.NewPollSupervisor(client, usecase.PollOptions{
		Enabled:  true,
		Interval: 200 * time.Millisecond,
		OnStatusChange: func(st *model.OperationStatus) {
			p := model.DeriveProgress(st)
			logger.Info().Int("pct", p.Percentage).Int("completed", p.Completed).
				Int("total", p.Total).Msg("import progress")
		},
		OnComplete: func(st *model.OperationStatus) {
			logger.Info().Int("failed", st.Failed).Msg("import complete")
		},
	}, &logger)
	defer supervisor.Shutdown()

	exporter := export.NewService(client, "Results", &logger)
	facade := application.NewDashboardFacade(client, cache, workflow, runs, staging, supervisor, exporter, &logger)

	// 1. Create a job and open it.
	jobID, err := facade.CreateJob(ctx, "Demo Invoices")
	if err != nil {
		log.Fatalf("create job: %v", err)
	}
	view, err := facade.OpenJob(ctx, jobID)
	if err != nil {
		log.Fatalf("open job: %v", err)
	}
	logger.Info().Str("job_id", jobID).Str("step", string(view.Step)).Msg("job opened")

	// 2. Configure two extraction fields and commit.
	if err := staging.UpdateField(0, model.FieldConfig{Name: "invoice_no", DataType: "string"}); err != nil {
		log.Fatalf("update field: %v", err)
	}
	staging.AddField()
	if err := staging.UpdateField(1, model.FieldConfig{Name: "total", DataType: "number"}); err != nil {
		log.Fatalf("update field: %v", err)
	}
	staging.SetTasks([]model.TaskDefinition{{Path: "invoices/", Mode: "per_page"}})
	next, err := facade.CommitAndAdvance(ctx, jobID)
	if err != nil {
		log.Fatalf("commit: %v", err)
	}
	logger.Info().Str("next_step", string(next)).Msg("fields committed")

	// 3. Watch the fake import finish.
	poller := facade.WatchProgress(ctx, jobID, view.SelectedRunID)
	for poller.IsPolling() {
		time.Sleep(100 * time.Millisecond)
	}

	// 4. Export results.
	book, err := facade.ExportResults(ctx, jobID)
	if err != nil {
		log.Fatalf("export: %v", err)
	}
	path := "demo-results.xlsx"
	if err := os.WriteFile(path, book, 0o644); err != nil {
		log.Fatalf("write workbook: %v", err)
	}
	logger.Info().Str("path", path).Int("bytes", len(book)).Msg("results exported")
}

// fakeService is a tiny stand-in for the remote job service. Import progress
// advances by wall clock so the poller has something to watch.
type fakeService struct {
	mu      sync.Mutex
	job     *model.Job
	started time.Time
}

func newFakeService() *fakeService { return &fakeService{} }

func (s *fakeService) router() http.Handler {
	r := chi.NewRouter()
	r.Post("/jobs/initiate", func(w http.ResponseWriter, req *http.Request) {
		s.mu.Lock()
		s.job = &model.Job{ID: "demo-job", Name: "Demo Invoices", Status: model.JobStatusProcessing, ConfigStep: model.StepFields}
		s.started = time.Now()
		s.mu.Unlock()
		writeJSON(w, map[string]string{"job_id": "demo-job"})
	})
	r.Get("/jobs/{id}", func(w http.ResponseWriter, req *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.job == nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		writeJSON(w, s.job)
	})
	r.Put("/jobs/{id}/fields", func(w http.ResponseWriter, req *http.Request) {
		var payload struct {
			Fields []model.FieldConfig `json:"fields"`
		}
		_ = json.NewDecoder(req.Body).Decode(&payload)
		s.mu.Lock()
		s.job.Fields = payload.Fields
		s.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	r.Put("/jobs/{id}/config-step", func(w http.ResponseWriter, req *http.Request) {
		var payload struct {
			Step model.ConfigStep `json:"config_step"`
		}
		_ = json.NewDecoder(req.Body).Decode(&payload)
		s.mu.Lock()
		s.job.ConfigStep = payload.Step
		s.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/jobs/{id}/files", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, map[string]any{"files": []model.JobFile{
			{ID: "f-1", JobID: "demo-job", Name: "inv-001.pdf", Source: model.FileSourceComputer, Status: model.FileStatusImporting},
			{ID: "f-2", JobID: "demo-job", Name: "inv-002.pdf", Source: model.FileSourceDrive, Status: model.FileStatusImporting},
		}})
	})
	r.Get("/jobs/{id}/runs", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, map[string]any{"runs": []model.Run{{ID: "demo-run", JobID: "demo-job", Number: 1}}})
	})
	r.Post("/jobs/{id}/runs", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, map[string]string{"run_id": "demo-run-2"})
	})
	r.Get("/jobs/{id}/import-status", func(w http.ResponseWriter, req *http.Request) {
		s.mu.Lock()
		elapsed := time.Since(s.started)
		s.mu.Unlock()
		// Two files finish over ~2 seconds.
		completed := int(elapsed / time.Second)
		if completed > 2 {
			completed = 2
		}
		writeJSON(w, model.OperationStatus{TotalFiles: 2, Completed: completed, Importing: 2 - completed})
	})
	r.Get("/field-types", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, map[string]any{"field_types": []string{"string", "number", "date"}})
	})
	r.Get("/jobs/{id}/results", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, map[string]any{"rows": []map[string]string{
			{"invoice_no": "INV-001", "total": "120.50"},
			{"invoice_no": "INV-002", "total": "75.00"},
		}})
	})
	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// memCache keeps snapshots in process; the demo has no Redis.
type memCache struct {
	mu   sync.Mutex
	jobs map[string]*model.Job
	runs map[string][]model.Run
}

func newMemCache() *memCache {
	return &memCache{jobs: make(map[string]*model.Job), runs: make(map[string][]model.Run)}
}

func (c *memCache) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	j, ok := c.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (c *memCache) SetJob(ctx context.Context, job *model.Job) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *job
	c.jobs[job.ID] = &cp
	return nil
}

func (c *memCache) GetRuns(ctx context.Context, jobID string) ([]model.Run, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	runs, ok := c.runs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]model.Run(nil), runs...), nil
}

func (c *memCache) SetRuns(ctx context.Context, jobID string, runs []model.Run) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs[jobID] = append([]model.Run(nil), runs...)
	return nil
}

func (c *memCache) InvalidateJob(ctx context.Context, jobID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.jobs, jobID)
	delete(c.runs, jobID)
	return nil
}
