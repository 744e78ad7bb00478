// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"docuparse-client/internal/application"
	"docuparse-client/internal/config"
	"docuparse-client/internal/domain/model"
	jobapi "docuparse-client/internal/infra/api"
	"docuparse-client/internal/infra/auth"
	"docuparse-client/internal/infra/export"
	"docuparse-client/internal/infra/logging"
	"docuparse-client/internal/infra/metrics"
	red "docuparse-client/internal/infra/redis"
	"docuparse-client/internal/infra/validate"
	"docuparse-client/internal/infra/web"
	"docuparse-client/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs)")
	jobID := flag.String("job", "", "job id to resume and drive to completion")
	newJob := flag.String("new", "", "create a job with this display name and exit")
	flag.Parse()

	cfg, err := config.Load(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	cache := red.NewSnapshotCache(redisClient, cfg.Redis.TTL)

	// ---- Job API client ----
	tokens := auth.NewStaticToken(cfg.API.Token, logger)
	client, err := jobapi.NewClient(cfg.API, tokens, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("job api client")
	}

	// ---- Optional strict field validation ----
	var validator usecase.FieldValidator
	if cfg.API.StrictFields {
		types, terr := client.ListFieldTypes(ctx)
		if terr != nil {
			logger.Warn().Err(terr).Msg("field type vocabulary unavailable; strict validation will not constrain data types")
		}
		v, verr := validate.New(types)
		if verr != nil {
			logger.Fatal().Err(verr).Msg("field validator")
		}
		validator = v
	}

	// ---- Use cases ----
	workflow := usecase.NewWorkflowCoordinator(client, cache, logger)
	runs := usecase.NewRunSelectionManager(client, cache, "", true, logger)
	staging := usecase.NewConfigStaging(client, cache, validator, logger)
	supervisor := usecase.NewPollSupervisor(client, usecase.PollOptions{
		Enabled:  true,
		Interval: cfg.Poll.Interval,
		OnStatusChange: func(st *model.OperationStatus) {
			logger.Info().Int("completed", st.Completed).Int("failed", st.Failed).
				Int("total", st.TotalFiles).Msg("import progress")
		},
	}, logger)
	defer supervisor.Shutdown()

	exporter := export.NewService(client, cfg.Export.Sheet, logger)
	facade := application.NewDashboardFacade(client, cache, workflow, runs, staging, supervisor, exporter, logger)

	// ---- Operational HTTP server ----
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Web.Port),
		Handler: web.NewServer(supervisor, logger).Router(),
	}
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("operational server listening")
		if serr := srv.ListenAndServe(); serr != nil && serr != http.ErrServerClosed {
			logger.Error().Err(serr).Msg("operational server")
		}
	}()

	switch {
	case *newJob != "":
		id, cerr := facade.CreateJob(ctx, *newJob)
		if cerr != nil {
			logger.Fatal().Err(cerr).Msg("create job")
		}
		fmt.Println(id)
	case *jobID != "":
		if derr := driveJob(ctx, cfg, facade, *jobID, logger); derr != nil {
			logger.Error().Err(derr).Str("job_id", *jobID).Msg("drive job")
		}
	default:
		logger.Info().Msg("no -job or -new given; serving operational endpoints until signalled")
		waitForSignal(logger)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}

// driveJob resumes a job, waits out any in-flight import, and exports the
// results workbook once the job reaches the results step.
func driveJob(ctx context.Context, cfg *config.Config, facade *application.DashboardFacade, jobID string, logger *zerolog.Logger) error {
	view, err := facade.OpenJob(ctx, jobID)
	if err != nil {
		return err
	}
	logger.Info().Str("job_id", jobID).Str("step", string(view.Step)).
		Int("runs", len(view.Runs)).Str("selected_run", view.SelectedRunID).
		Bool("read_only", view.ReadOnly).Msg("job opened")

	poller := facade.WatchProgress(ctx, jobID, view.SelectedRunID)
	if poller.IsPolling() {
		done := make(chan struct{})
		// Wait for the in-flight import with a deadline twice the snapshot
		// TTL; a stuck import should not wedge the driver forever.
		waitCtx, cancel := context.WithTimeout(ctx, 2*cfg.Redis.TTL)
		defer cancel()
		go func() {
			t := time.NewTicker(cfg.Poll.Interval)
			defer t.Stop()
			for {
				select {
				case <-waitCtx.Done():
					close(done)
					return
				case <-t.C:
					if poller.Progress().IsComplete || !poller.IsPolling() {
						close(done)
						return
					}
				}
			}
		}()
		<-done
		logger.Info().Interface("progress", poller.Progress()).Msg("import settled")
	}

	if view.Step != model.StepResults {
		logger.Info().Str("step", string(view.Step)).Msg("job not at results yet; nothing to export")
		return nil
	}
	book, err := facade.ExportResults(ctx, jobID)
	if err != nil {
		return err
	}
	dir := cfg.Export.Dir
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, jobID+".xlsx")
	if err := os.WriteFile(path, book, 0o644); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	logger.Info().Str("path", path).Msg("results written")
	return nil
}

func waitForSignal(logger *zerolog.Logger) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	logger.Info().Str("signal", s.String()).Msg("shutting down")
}
