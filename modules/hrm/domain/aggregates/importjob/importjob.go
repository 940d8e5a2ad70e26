package importjob

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type ImportJob struct {
	id             uuid.UUID
	tenantID       uuid.UUID
	createdBy      uuid.UUID
	status         Status
	totalRows      int
	successfulRows int
	failedRows     int
	fileReference  string
	createdAt      time.Time
	updatedAt      time.Time
}

func New(tenantID, createdBy uuid.UUID, totalRows int) ImportJob {
	return ImportJob{
		tenantID:  tenantID,
		createdBy: createdBy,
		status:    StatusPending,
		totalRows: totalRows,
	}
}

func Hydrate(
	id uuid.UUID,
	tenantID uuid.UUID,
	createdBy uuid.UUID,
	status Status,
	totalRows, successfulRows, failedRows int,
	fileReference string,
	createdAt, updatedAt time.Time,
) ImportJob {
	return ImportJob{
		id:             id,
		tenantID:       tenantID,
		createdBy:      createdBy,
		status:         status,
		totalRows:      totalRows,
		successfulRows: successfulRows,
		failedRows:     failedRows,
		fileReference:  fileReference,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

func (j ImportJob) ID() uuid.UUID         { return j.id }
func (j ImportJob) TenantID() uuid.UUID   { return j.tenantID }
func (j ImportJob) CreatedBy() uuid.UUID  { return j.createdBy }
func (j ImportJob) Status() Status        { return j.status }
func (j ImportJob) TotalRows() int        { return j.totalRows }
func (j ImportJob) SuccessfulRows() int   { return j.successfulRows }
func (j ImportJob) FailedRows() int       { return j.failedRows }
func (j ImportJob) FileReference() string { return j.fileReference }
func (j ImportJob) CreatedAt() time.Time  { return j.createdAt }
func (j ImportJob) UpdatedAt() time.Time  { return j.updatedAt }

// Progress is the completion percentage, clamped to [0,100] and defined as 0
// for an empty job.
func (j ImportJob) Progress() int {
	if j.totalRows <= 0 {
		return 0
	}
	p := int(float64(j.successfulRows+j.failedRows)/float64(j.totalRows)*100 + 0.5)
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

type RowStatus string

const (
	RowStatusValid  RowStatus = "valid"
	RowStatusFailed RowStatus = "failed"
)

// RowLog is the durable, append-only outcome of one row within one job.
type RowLog struct {
	RowNumber    int
	Fields       map[string]string
	Status       RowStatus
	ErrorMessage string
}
