package model

import "time"

type FileSource string

const (
	FileSourceComputer FileSource = "computer"
	FileSourceDrive    FileSource = "drive"
	FileSourceGmail    FileSource = "gmail"
)

type FileStatus string

const (
	FileStatusUploading FileStatus = "uploading"
	FileStatusImporting FileStatus = "importing"
	FileStatusCompleted FileStatus = "completed"
	FileStatusFailed    FileStatus = "failed"
)

// Terminal reports whether the ingestion pipeline is done with the file.
func (s FileStatus) Terminal() bool {
	return s == FileStatusCompleted || s == FileStatusFailed
}

// JobFile is a source document attached to a job. Immutable after creation
// except for Status, which the ingestion pipeline advances server-side.
type JobFile struct {
	ID      string     `json:"file_id"`
	JobID   string     `json:"job_id"`
	RunID   string     `json:"run_id,omitempty"`
	Name    string     `json:"filename"`
	Source  FileSource `json:"source"`
	Size    int64      `json:"size_bytes"`
	Status  FileStatus `json:"status"`
	Error   string     `json:"error,omitempty"`
	AddedAt time.Time  `json:"added_at"`
}
