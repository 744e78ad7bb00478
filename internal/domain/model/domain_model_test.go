//go:build !integration

package model

import (
	"testing"
	"time"
)

// --- ConfigStep Tests ---

func TestConfigStep_Ordering(t *testing.T) {
	t.Run("should order the wizard steps upload through results", func(t *testing.T) {
		want := []ConfigStep{StepUpload, StepFields, StepReview, StepProcessing, StepResults}
		got := Steps()
		if len(got) != len(want) {
			t.Fatalf("expected %d steps, got %d", len(want), len(got))
		}
		for i, s := range want {
			if got[i] != s {
				t.Errorf("step %d: expected %s, got %s", i, s, got[i])
			}
			if s.Order() != i {
				t.Errorf("expected %s at order %d, got %d", s, i, s.Order())
			}
		}
	})

	t.Run("should report unknown steps as invalid", func(t *testing.T) {
		if ConfigStep("summarize").Valid() {
			t.Error("expected an unknown step name to be invalid")
		}
		if got := ConfigStep("summarize").Order(); got != -1 {
			t.Errorf("expected order -1 for an unknown step, got %d", got)
		}
	})

	t.Run("should advance step by step and stay on the last", func(t *testing.T) {
		if got := StepUpload.Next(); got != StepFields {
			t.Errorf("expected fields after upload, got %s", got)
		}
		if got := StepProcessing.Next(); got != StepResults {
			t.Errorf("expected results after processing, got %s", got)
		}
		if got := StepResults.Next(); got != StepResults {
			t.Errorf("results is terminal, got %s", got)
		}
	})
}

// --- Run Tests ---

func TestLatestRun(t *testing.T) {
	t.Run("should return nil for an empty list", func(t *testing.T) {
		if got := LatestRun(nil); got != nil {
			t.Errorf("expected nil, got %+v", got)
		}
	})

	t.Run("should pick the highest run number regardless of list order", func(t *testing.T) {
		runs := []Run{
			{ID: "run-3", Number: 3},
			{ID: "run-1", Number: 1},
			{ID: "run-2", Number: 2},
		}
		if got := LatestRun(runs); got == nil || got.ID != "run-3" {
			t.Errorf("expected run-3, got %+v", got)
		}
	})

	t.Run("should resolve a number tie to the later entry", func(t *testing.T) {
		runs := []Run{
			{ID: "run-a", Number: 2},
			{ID: "run-b", Number: 2},
		}
		if got := LatestRun(runs); got == nil || got.ID != "run-b" {
			t.Errorf("expected the later entry run-b, got %+v", got)
		}
	})
}

func TestRun_CloneConfig(t *testing.T) {
	src := Run{
		ID: "run-1", Number: 1, Completed: true,
		Fields:     []FieldConfig{{Name: "vendor", DataType: "string"}},
		Tasks:      []TaskDefinition{{Path: "inbox/", Mode: "per_page"}},
		TemplateID: "tpl-1",
		CreatedAt:  time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	}

	t.Run("should copy configuration without aliasing", func(t *testing.T) {
		fields, tasks, tpl := src.CloneConfig()
		if len(fields) != 1 || len(tasks) != 1 || tpl != "tpl-1" {
			t.Fatalf("unexpected clone: %+v %+v %q", fields, tasks, tpl)
		}
		fields[0].Name = "changed"
		tasks[0].Mode = "changed"
		if src.Fields[0].Name != "vendor" || src.Tasks[0].Mode != "per_page" {
			t.Error("mutating the clone changed the source run")
		}
	})

	t.Run("should mark a completed run read-only", func(t *testing.T) {
		if !src.IsReadOnly() {
			t.Error("expected a completed run to be read-only")
		}
		open := Run{ID: "run-2", Number: 2}
		if open.IsReadOnly() {
			t.Error("expected an in-progress run to be editable")
		}
	})
}

// --- OperationStatus Tests ---

func TestOperationStatus_IsComplete(t *testing.T) {
	t.Run("should never be complete with zero registered files", func(t *testing.T) {
		s := &OperationStatus{TotalFiles: 0, Completed: 0, Failed: 0}
		if s.IsComplete() {
			t.Error("a zero-file snapshot must not read as complete")
		}
	})

	t.Run("should be complete when all files are terminal", func(t *testing.T) {
		s := &OperationStatus{TotalFiles: 4, Completed: 3, Failed: 1}
		if !s.IsComplete() {
			t.Error("expected 3+1 of 4 to be complete")
		}
	})

	t.Run("should count failures toward completion", func(t *testing.T) {
		s := &OperationStatus{TotalFiles: 2, Failed: 2}
		if !s.IsComplete() {
			t.Error("an all-failed operation is still finished")
		}
	})
}

func TestDeriveProgress(t *testing.T) {
	t.Run("should yield the zero value for a nil snapshot", func(t *testing.T) {
		got := DeriveProgress(nil)
		if got != (Progress{}) {
			t.Errorf("expected zero Progress, got %+v", got)
		}
	})

	t.Run("should round the percentage", func(t *testing.T) {
		cases := []struct {
			name      string
			status    OperationStatus
			wantPct   int
			wantDone  bool
			wantPend  int
			wantError bool
		}{
			{"one of three", OperationStatus{TotalFiles: 3, Completed: 1}, 33, false, 2, false},
			{"two of three", OperationStatus{TotalFiles: 3, Completed: 2}, 67, false, 1, false},
			{"half with failure", OperationStatus{TotalFiles: 4, Completed: 1, Failed: 1}, 50, false, 2, true},
			{"all terminal", OperationStatus{TotalFiles: 5, Completed: 4, Failed: 1}, 100, true, 0, true},
			{"overshoot clamps pending", OperationStatus{TotalFiles: 2, Completed: 3}, 150, true, 0, false},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				got := DeriveProgress(&tc.status)
				if got.Percentage != tc.wantPct {
					t.Errorf("percentage: expected %d, got %d", tc.wantPct, got.Percentage)
				}
				if got.IsComplete != tc.wantDone {
					t.Errorf("complete: expected %v, got %v", tc.wantDone, got.IsComplete)
				}
				if got.Pending != tc.wantPend {
					t.Errorf("pending: expected %d, got %d", tc.wantPend, got.Pending)
				}
				if got.HasErrors != tc.wantError {
					t.Errorf("hasErrors: expected %v, got %v", tc.wantError, got.HasErrors)
				}
			})
		}
	})
}

func TestOperationStatus_Equal(t *testing.T) {
	t.Run("should ignore the per-file detail list", func(t *testing.T) {
		a := &OperationStatus{TotalFiles: 3, Completed: 1, Files: []JobFile{{ID: "f-1"}}}
		b := &OperationStatus{TotalFiles: 3, Completed: 1, Files: []JobFile{{ID: "f-2"}, {ID: "f-3"}}}
		if !a.Equal(b) {
			t.Error("snapshots differing only in file details must compare equal")
		}
	})

	t.Run("should detect changed aggregate counts", func(t *testing.T) {
		a := &OperationStatus{TotalFiles: 3, Completed: 1}
		b := &OperationStatus{TotalFiles: 3, Completed: 2}
		if a.Equal(b) {
			t.Error("expected changed counts to compare unequal")
		}
	})

	t.Run("should treat nil as equal only to nil", func(t *testing.T) {
		var a *OperationStatus
		if a.Equal(&OperationStatus{}) {
			t.Error("nil must not equal a non-nil snapshot")
		}
		if !a.Equal(nil) {
			t.Error("nil must equal nil")
		}
	})
}

// --- FieldConfig / TaskDefinition Tests ---

func TestProcessingModes(t *testing.T) {
	t.Run("should flatten complete tasks and skip partial ones", func(t *testing.T) {
		tasks := []TaskDefinition{
			{Path: "invoices/", Mode: "per_page"},
			{Path: "", Mode: "per_document"},
			{Path: "receipts/", Mode: ""},
			{Path: "archive/", Mode: "per_document"},
		}
		got := ProcessingModes(tasks)
		if len(got) != 2 {
			t.Fatalf("expected 2 complete entries, got %v", got)
		}
		if got["invoices/"] != "per_page" || got["archive/"] != "per_document" {
			t.Errorf("unexpected modes: %v", got)
		}
	})

	t.Run("should let a later task override an earlier path", func(t *testing.T) {
		tasks := []TaskDefinition{
			{Path: "inbox/", Mode: "per_page"},
			{Path: "inbox/", Mode: "per_document"},
		}
		if got := ProcessingModes(tasks); got["inbox/"] != "per_document" {
			t.Errorf("expected the later directive to win, got %v", got)
		}
	})
}

// --- File Tests ---

func TestFileStatus_Terminal(t *testing.T) {
	terminal := map[FileStatus]bool{
		FileStatusUploading: false,
		FileStatusImporting: false,
		FileStatusCompleted: true,
		FileStatusFailed:    true,
	}
	for status, want := range terminal {
		if got := status.Terminal(); got != want {
			t.Errorf("%s: expected terminal=%v, got %v", status, want, got)
		}
	}
}
