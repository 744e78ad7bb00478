package model

import "time"

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// ConfigStep is the wizard stage a job is positioned at. Steps are strictly
// ordered; Order reports the position and is used to clamp resumption.
type ConfigStep string

const (
	StepUpload     ConfigStep = "upload"
	StepFields     ConfigStep = "fields"
	StepReview     ConfigStep = "review"
	StepProcessing ConfigStep = "processing"
	StepResults    ConfigStep = "results"
)

var stepOrder = []ConfigStep{StepUpload, StepFields, StepReview, StepProcessing, StepResults}

// Order returns the zero-based position of the step, or -1 for an unknown
// value (e.g. a step name introduced by a newer server).
func (s ConfigStep) Order() int {
	for i, st := range stepOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is one of the known wizard steps.
func (s ConfigStep) Valid() bool { return s.Order() >= 0 }

// Next returns the step after s. The last step returns itself.
func (s ConfigStep) Next() ConfigStep {
	i := s.Order()
	if i < 0 || i >= len(stepOrder)-1 {
		return s
	}
	return stepOrder[i+1]
}

// Steps returns the full ordered step sequence.
func Steps() []ConfigStep {
	out := make([]ConfigStep, len(stepOrder))
	copy(out, stepOrder)
	return out
}

// Job is one logical unit of extraction work. The authoritative copy lives on
// the remote job service; this struct is a snapshot of it.
type Job struct {
	ID              string           `json:"job_id"`
	Name            string           `json:"name"`
	OwnerID         string           `json:"owner_id"`
	Status          JobStatus        `json:"status"`
	ConfigStep      ConfigStep       `json:"config_step"`
	Fields          []FieldConfig    `json:"job_fields"`
	ExtractionTasks []TaskDefinition `json:"extraction_tasks"`
	TemplateID      string           `json:"template_id,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

func (j *Job) IsCompleted() bool { return j.Status == JobStatusCompleted }
