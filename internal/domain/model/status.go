package model

import "math"

// OperationStatus is a point-in-time snapshot of file-level ingestion or
// processing progress. It is recomputed on every poll and never persisted;
// the server guarantees completed/failed counts are non-decreasing while an
// operation is in flight, the client assumes nothing else across samples.
type OperationStatus struct {
	TotalFiles     int            `json:"total_files"`
	CountsBySource map[string]int `json:"counts_by_source,omitempty"`
	Completed      int            `json:"completed"`
	Failed         int            `json:"failed"`
	Uploading      int            `json:"uploading"`
	Importing      int            `json:"importing"`
	Files          []JobFile      `json:"files,omitempty"`
}

// Progress is derived from an OperationStatus for display.
type Progress struct {
	Completed  int
	Failed     int
	Pending    int
	Total      int
	Percentage int
	IsComplete bool
	HasErrors  bool
}

// IsComplete reports whether the operation has finished. A snapshot with no
// registered files is never complete, regardless of its other counts.
func (s *OperationStatus) IsComplete() bool {
	return s.TotalFiles > 0 && s.Completed+s.Failed >= s.TotalFiles
}

// DeriveProgress computes the display record for a snapshot. A nil snapshot
// yields the zero Progress.
func DeriveProgress(s *OperationStatus) Progress {
	if s == nil {
		return Progress{}
	}
	done := s.Completed + s.Failed
	pending := s.TotalFiles - done
	if pending < 0 {
		pending = 0
	}
	pct := 0
	if s.TotalFiles > 0 {
		pct = int(math.Round(float64(done) / float64(s.TotalFiles) * 100))
	}
	return Progress{
		Completed:  s.Completed,
		Failed:     s.Failed,
		Pending:    pending,
		Total:      s.TotalFiles,
		Percentage: pct,
		IsComplete: s.IsComplete(),
		HasErrors:  s.Failed > 0,
	}
}

// Equal compares the aggregate counts of two snapshots. The per-file detail
// list is intentionally ignored: status-change callbacks care about counts,
// not ordering of the detail rows.
func (s *OperationStatus) Equal(o *OperationStatus) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.TotalFiles == o.TotalFiles &&
		s.Completed == o.Completed &&
		s.Failed == o.Failed &&
		s.Uploading == o.Uploading &&
		s.Importing == o.Importing
}
