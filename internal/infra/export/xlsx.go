package export

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"docuparse-client/internal/domain/model"
	"docuparse-client/internal/domain/ports/adapter"
)

// Service produces XLSX bytes from a run's extraction results. Column order
// follows the job's field order — that ordering is the contract the user set
// up on the fields step.
type Service struct {
	api   adapter.JobAPI
	sheet string
	log   *zerolog.Logger
}

func NewService(api adapter.JobAPI, sheet string, log *zerolog.Logger) *Service {
	if sheet == "" {
		sheet = "Results"
	}
	return &Service{api: api, sheet: sheet, log: log}
}

// ResultsXLSX returns a workbook for the given job/run. Fields with empty
// names still occupy their column so the layout matches the configuration.
func (s *Service) ResultsXLSX(ctx context.Context, job *model.Job, runID string) ([]byte, error) {
	start := time.Now()

	rows, err := s.api.Results(ctx, job.ID, runID)
	if err != nil {
		return nil, fmt.Errorf("fetch results: %w", err)
	}

	f := excelize.NewFile()
	if index, _ := f.GetSheetIndex(s.sheet); index == -1 {
		if _, err := f.NewSheet(s.sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(s.sheet)
	f.SetActiveSheet(activeIndex)

	for i, field := range job.Fields {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(s.sheet, cell, field.Name)
	}

	for r, row := range rows {
		for c, field := range job.Fields {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			_ = f.SetCellValue(s.sheet, cell, row[field.Name])
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	s.log.Info().Str("job_id", job.ID).Str("run_id", runID).
		Int("rows", len(rows)).Dur("took", time.Since(start)).
		Msg("results exported")
	return buf.Bytes(), nil
}
