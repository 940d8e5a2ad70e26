package services

import (
	"context"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/staffimport/modules/hrm/domain/aggregates/importjob"
	"github.com/iota-uz/staffimport/modules/hrm/domain/importrow"
	"github.com/iota-uz/staffimport/pkg/composables"
	"github.com/iota-uz/staffimport/pkg/tabular"
)

type JobStatus struct {
	ID             uuid.UUID
	Status         importjob.Status
	TotalRows      int
	SuccessfulRows int
	FailedRows     int
	Progress       int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ImportQueryService is the pure read path: job polling and failed-row
// export. It is safe for concurrent use by multiple viewers.
type ImportQueryService struct {
	jobs importjob.Repository
}

func NewImportQueryService(jobs importjob.Repository) *ImportQueryService {
	return &ImportQueryService{jobs: jobs}
}

func (s *ImportQueryService) Status(ctx context.Context, id uuid.UUID) (JobStatus, error) {
	job, err := composables.InTxResult(ctx, func(txCtx context.Context) (importjob.ImportJob, error) {
		return s.jobs.GetByID(txCtx, id)
	})
	if err != nil {
		return JobStatus{}, err
	}

	return JobStatus{
		ID:             job.ID(),
		Status:         job.Status(),
		TotalRows:      job.TotalRows(),
		SuccessfulRows: job.SuccessfulRows(),
		FailedRows:     job.FailedRows(),
		Progress:       job.Progress(),
		CreatedAt:      job.CreatedAt(),
		UpdatedAt:      job.UpdatedAt(),
	}, nil
}

// ExportFailedRows writes a CSV with one row per failed RowLog, ordered by
// row number: a row-number column, the canonical fields in file order, and
// the error message.
func (s *ImportQueryService) ExportFailedRows(ctx context.Context, id uuid.UUID, w io.Writer) error {
	logs, err := composables.InTxResult(ctx, func(txCtx context.Context) ([]importjob.RowLog, error) {
		if _, err := s.jobs.GetByID(txCtx, id); err != nil {
			return nil, err
		}
		return s.jobs.FailedRowLogs(txCtx, id)
	})
	if err != nil {
		return err
	}

	headers := make([]string, 0, len(importrow.Fields)+2)
	headers = append(headers, "row_number")
	headers = append(headers, importrow.Fields...)
	headers = append(headers, "error")

	rows := make([][]string, 0, len(logs))
	for _, log := range logs {
		row := make([]string, 0, len(headers))
		row = append(row, strconv.Itoa(log.RowNumber))
		for _, f := range importrow.Fields {
			row = append(row, log.Fields[f])
		}
		row = append(row, log.ErrorMessage)
		rows = append(rows, row)
	}

	return tabular.WriteCSV(w, headers, rows)
}
