//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"docuparse-client/internal/domain"
	"docuparse-client/internal/domain/model"
	"docuparse-client/internal/domain/ports/adapter"
	"docuparse-client/internal/usecase"
)

// rejectAllValidator fails every payload; used to prove drafts survive
// validation failures.
type rejectAllValidator struct{ err error }

func (v rejectAllValidator) Validate(adapter.FieldsPayload) error { return v.err }

func TestConfigStaging_Editing(t *testing.T) {
	testLogger := newTestLogger()

	seedRun := &model.Run{
		ID: "run-1", JobID: "job-1", Number: 1,
		Fields: []model.FieldConfig{
			{Name: "invoice_no", DataType: "string"},
			{Name: "total", DataType: "number"},
		},
		Tasks:      []model.TaskDefinition{{Path: "invoices/", Mode: "per_page"}},
		TemplateID: "tpl-1",
	}

	t.Run("should seed from a run without sharing slices", func(t *testing.T) {
		// --- Arrange ---
		s := usecase.NewConfigStaging(NewMockJobAPI(), NewMockSnapshotCache(), nil, testLogger)

		// --- Act ---
		s.SeedFromRun("job-1", seedRun)
		if err := s.UpdateField(0, model.FieldConfig{Name: "changed"}); err != nil {
			t.Fatalf("update: %v", err)
		}

		// --- Assert ---
		if seedRun.Fields[0].Name != "invoice_no" {
			t.Error("editing the draft mutated the source run")
		}
		if s.Dirty() != true {
			t.Error("expected the draft dirty after an edit")
		}
	})

	t.Run("should seed one empty row for a fresh run", func(t *testing.T) {
		// --- Arrange ---
		s := usecase.NewConfigStaging(NewMockJobAPI(), NewMockSnapshotCache(), nil, testLogger)

		// --- Act ---
		s.SeedFromRun("job-1", nil)

		// --- Assert ---
		fields := s.Fields()
		if len(fields) != 1 {
			t.Fatalf("expected exactly one empty row, got %d", len(fields))
		}
		if s.Dirty() {
			t.Error("a freshly seeded draft is not dirty")
		}
	})

	t.Run("should refuse to remove the last field", func(t *testing.T) {
		// --- Arrange ---
		s := usecase.NewConfigStaging(NewMockJobAPI(), NewMockSnapshotCache(), nil, testLogger)
		s.SeedFromRun("job-1", nil)

		// --- Act ---
		err := s.RemoveField(0)

		// --- Assert ---
		if !errors.Is(err, domain.ErrLastField) {
			t.Errorf("expected ErrLastField, got %v", err)
		}
		if len(s.Fields()) != 1 {
			t.Error("the last field row must survive")
		}
	})

	t.Run("should reject out-of-range indices", func(t *testing.T) {
		// --- Arrange ---
		s := usecase.NewConfigStaging(NewMockJobAPI(), NewMockSnapshotCache(), nil, testLogger)
		s.SeedFromRun("job-1", seedRun)

		// --- Act / Assert ---
		if err := s.RemoveField(5); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("remove: expected ErrInvalidArgument, got %v", err)
		}
		if err := s.UpdateField(-1, model.FieldConfig{}); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("update: expected ErrInvalidArgument, got %v", err)
		}
		if err := s.MoveField(0, 7); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("move: expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("should swap field order", func(t *testing.T) {
		// --- Arrange ---
		s := usecase.NewConfigStaging(NewMockJobAPI(), NewMockSnapshotCache(), nil, testLogger)
		s.SeedFromRun("job-1", seedRun)

		// --- Act ---
		if err := s.MoveField(0, 1); err != nil {
			t.Fatalf("move: %v", err)
		}

		// --- Assert ---
		fields := s.Fields()
		if fields[0].Name != "total" || fields[1].Name != "invoice_no" {
			t.Errorf("expected swapped order, got %+v", fields)
		}
	})
}

func TestConfigStaging_Commit(t *testing.T) {
	ctx := context.Background()
	testLogger := newTestLogger()

	t.Run("should submit the flattened payload and invalidate the cache", func(t *testing.T) {
		// --- Arrange ---
		api := NewMockJobAPI()
		api.SeedJob(&model.Job{ID: "job-1"})
		var sent adapter.FieldsPayload
		api.UpdateFieldsFunc = func(ctx context.Context, jobID string, payload adapter.FieldsPayload) error {
			sent = payload
			return nil
		}
		cache := NewMockSnapshotCache()
		s := usecase.NewConfigStaging(api, cache, nil, testLogger)
		s.SeedFromRun("job-1", nil)
		if err := s.UpdateField(0, model.FieldConfig{Name: "vendor", DataType: "string"}); err != nil {
			t.Fatalf("update: %v", err)
		}
		s.SetTasks([]model.TaskDefinition{
			{Path: "inbox/", Mode: "per_document"},
			{Path: "", Mode: "per_page"}, // incomplete, must not appear
			{Path: "archive/", Mode: ""}, // incomplete, must not appear
		})
		s.SetTemplate("tpl-9")

		// --- Act ---
		err := s.Commit(ctx)

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if len(sent.Fields) != 1 || sent.Fields[0].Name != "vendor" {
			t.Errorf("unexpected fields in payload: %+v", sent.Fields)
		}
		if sent.TemplateID != "tpl-9" {
			t.Errorf("expected template tpl-9, got %q", sent.TemplateID)
		}
		if len(sent.ProcessingModes) != 1 || sent.ProcessingModes["inbox/"] != "per_document" {
			t.Errorf("expected only the complete task flattened, got %v", sent.ProcessingModes)
		}
		if cache.Invalidations != 1 {
			t.Errorf("expected one cache invalidation, got %d", cache.Invalidations)
		}
		if s.Dirty() {
			t.Error("a committed draft is clean")
		}
	})

	t.Run("should preserve the draft when validation rejects it", func(t *testing.T) {
		// --- Arrange ---
		api := NewMockJobAPI()
		api.UpdateFieldsFunc = func(ctx context.Context, jobID string, payload adapter.FieldsPayload) error {
			t.Fatal("a rejected payload must never reach the API")
			return nil
		}
		s := usecase.NewConfigStaging(api, NewMockSnapshotCache(),
			rejectAllValidator{err: errors.New("name is required")}, testLogger)
		s.SeedFromRun("job-1", nil)
		if err := s.UpdateField(0, model.FieldConfig{Description: "no name yet"}); err != nil {
			t.Fatalf("update: %v", err)
		}

		// --- Act ---
		err := s.Commit(ctx)

		// --- Assert ---
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
		if !s.Dirty() {
			t.Error("a rejected draft stays dirty for correction")
		}
		if fields := s.Fields(); fields[0].Description != "no name yet" {
			t.Errorf("draft content lost on rejection: %+v", fields)
		}
	})

	t.Run("should keep the draft dirty when the API call fails", func(t *testing.T) {
		// --- Arrange ---
		api := NewMockJobAPI()
		api.UpdateFieldsFunc = func(ctx context.Context, jobID string, payload adapter.FieldsPayload) error {
			return errors.New("server unavailable")
		}
		cache := NewMockSnapshotCache()
		s := usecase.NewConfigStaging(api, cache, nil, testLogger)
		s.SeedFromRun("job-1", nil)
		if err := s.UpdateField(0, model.FieldConfig{Name: "amount"}); err != nil {
			t.Fatalf("update: %v", err)
		}

		// --- Act ---
		err := s.Commit(ctx)

		// --- Assert ---
		if err == nil {
			t.Fatal("expected an error, but got nil")
		}
		if !s.Dirty() {
			t.Error("a failed commit leaves the draft dirty")
		}
		if cache.Invalidations != 0 {
			t.Error("a failed commit must not invalidate the cache")
		}
	})

	t.Run("should keep the draft dirty when edits land during a commit", func(t *testing.T) {
		// --- Arrange ---
		entered := make(chan struct{})
		release := make(chan struct{})
		api := NewMockJobAPI()
		api.UpdateFieldsFunc = func(ctx context.Context, jobID string, payload adapter.FieldsPayload) error {
			close(entered)
			<-release
			return nil
		}
		s := usecase.NewConfigStaging(api, NewMockSnapshotCache(), nil, testLogger)
		s.SeedFromRun("job-1", nil)
		if err := s.UpdateField(0, model.FieldConfig{Name: "vendor", DataType: "string"}); err != nil {
			t.Fatalf("update: %v", err)
		}

		// --- Act ---
		done := make(chan error, 1)
		go func() { done <- s.Commit(ctx) }()
		<-entered
		s.AddField() // concurrent edit while the request is in flight
		close(release)

		// --- Assert ---
		if err := <-done; err != nil {
			t.Fatalf("expected the commit to succeed, got: %v", err)
		}
		if !s.Dirty() {
			t.Error("an edit made during the commit is not on the server; the draft must stay dirty")
		}
		if len(s.Fields()) != 2 {
			t.Errorf("expected the concurrent edit preserved, got %d fields", len(s.Fields()))
		}
	})

	t.Run("should reject committing with no job mounted", func(t *testing.T) {
		// --- Arrange ---
		s := usecase.NewConfigStaging(NewMockJobAPI(), NewMockSnapshotCache(), nil, testLogger)

		// --- Act ---
		err := s.Commit(ctx)

		// --- Assert ---
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
