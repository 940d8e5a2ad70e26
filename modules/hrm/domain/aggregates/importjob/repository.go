package importjob

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("import job not found")

type Repository interface {
	Create(ctx context.Context, job ImportJob) (ImportJob, error)
	GetByID(ctx context.Context, id uuid.UUID) (ImportJob, error)
	// SetFileReference is best effort: the file pointer is not the source of
	// truth for audit correctness.
	SetFileReference(ctx context.Context, id uuid.UUID, ref string) error
	// InsertRowLogs persists one batch. Callers split rows into size-bounded
	// batches and treat any failure as fatal to the whole import attempt.
	InsertRowLogs(ctx context.Context, jobID uuid.UUID, logs []RowLog) error
	FailedRowLogs(ctx context.Context, jobID uuid.UUID) ([]RowLog, error)
	// Delete removes the job and cascades its row logs.
	Delete(ctx context.Context, id uuid.UUID) error
}
