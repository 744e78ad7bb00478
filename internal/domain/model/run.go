package model

import "time"

// Run is one versioned execution attempt within a Job. Runs are ordered by
// Number; the run with the highest Number is "latest". A completed run is
// immutable except for being cloned into a new run.
type Run struct {
	ID         string           `json:"run_id"`
	JobID      string           `json:"job_id"`
	Number     int              `json:"run_number"`
	Completed  bool             `json:"completed"`
	Fields     []FieldConfig    `json:"job_fields,omitempty"`
	Tasks      []TaskDefinition `json:"extraction_tasks,omitempty"`
	TemplateID string           `json:"template_id,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// IsReadOnly reports whether the run's configuration may no longer be edited
// in place.
func (r *Run) IsReadOnly() bool { return r.Completed }

// LatestRun returns the run with the highest Number, or nil for an empty
// list. Ties (which the server should never produce) resolve to the later
// list entry so a fresh append wins.
func LatestRun(runs []Run) *Run {
	var latest *Run
	for i := range runs {
		if latest == nil || runs[i].Number >= latest.Number {
			latest = &runs[i]
		}
	}
	return latest
}

// FindRun returns the run with the given id, or nil.
func FindRun(runs []Run, id string) *Run {
	for i := range runs {
		if runs[i].ID == id {
			return &runs[i]
		}
	}
	return nil
}

// CloneConfig copies a run's configuration snapshot (fields, tasks, template)
// for seeding a new run. File attachments and results are never copied.
func (r *Run) CloneConfig() (fields []FieldConfig, tasks []TaskDefinition, templateID string) {
	fields = make([]FieldConfig, len(r.Fields))
	copy(fields, r.Fields)
	tasks = make([]TaskDefinition, len(r.Tasks))
	copy(tasks, r.Tasks)
	return fields, tasks, r.TemplateID
}
