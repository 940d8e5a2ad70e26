package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/staffimport/modules/hrm/domain/aggregates/importjob"
	"github.com/iota-uz/staffimport/pkg/composables"
)

const (
	insertJobQuery = `
		INSERT INTO import_jobs (tenant_id, created_by, status, total_rows)
		VALUES ($1, $2, $3, $4)
		RETURNING id, tenant_id, created_by, status, total_rows, successful_rows, failed_rows, file_reference, created_at, updated_at`

	selectJobQuery = `
		SELECT id, tenant_id, created_by, status, total_rows, successful_rows, failed_rows, file_reference, created_at, updated_at
		FROM import_jobs
		WHERE id = $1 AND tenant_id = $2`

	setFileReferenceQuery = `
		UPDATE import_jobs SET file_reference = $3, updated_at = now()
		WHERE id = $1 AND tenant_id = $2`

	selectFailedRowsQuery = `
		SELECT row_number, fields, error_message
		FROM import_row_logs
		WHERE job_id = $1 AND tenant_id = $2 AND status = 'failed'
		ORDER BY row_number`

	deleteJobQuery = `DELETE FROM import_jobs WHERE id = $1 AND tenant_id = $2`
)

type ImportJobRepository struct{}

func NewImportJobRepository() importjob.Repository {
	return &ImportJobRepository{}
}

func (r *ImportJobRepository) Create(ctx context.Context, job importjob.ImportJob) (importjob.ImportJob, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return importjob.ImportJob{}, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return importjob.ImportJob{}, err
	}

	row := tx.QueryRow(ctx, insertJobQuery, tenantID, job.CreatedBy(), string(job.Status()), job.TotalRows())
	created, err := scanJob(row)
	if err != nil {
		return importjob.ImportJob{}, gerrors.Wrap(err, "failed to create import job")
	}
	return created, nil
}

func (r *ImportJobRepository) GetByID(ctx context.Context, id uuid.UUID) (importjob.ImportJob, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return importjob.ImportJob{}, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return importjob.ImportJob{}, err
	}

	job, err := scanJob(tx.QueryRow(ctx, selectJobQuery, id, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return importjob.ImportJob{}, importjob.ErrNotFound
		}
		return importjob.ImportJob{}, gerrors.Wrap(err, "failed to get import job")
	}
	return job, nil
}

func (r *ImportJobRepository) SetFileReference(ctx context.Context, id uuid.UUID, ref string) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, setFileReferenceQuery, id, tenantID, ref); err != nil {
		return gerrors.Wrap(err, "failed to set file reference")
	}
	return nil
}

func (r *ImportJobRepository) InsertRowLogs(ctx context.Context, jobID uuid.UUID, logs []importjob.RowLog) error {
	if len(logs) == 0 {
		return nil
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO import_row_logs (job_id, tenant_id, row_number, fields, status, error_message) VALUES ")
	args := make([]any, 0, len(logs)*6)
	for i, log := range logs {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 6
		sb.WriteString(placeholders(base+1, 6))

		fields, err := json.Marshal(log.Fields)
		if err != nil {
			return gerrors.Wrap(err, "failed to encode row fields")
		}
		var msg *string
		if log.Status == importjob.RowStatusFailed {
			m := log.ErrorMessage
			msg = &m
		}
		args = append(args, jobID, tenantID, log.RowNumber, fields, string(log.Status), msg)
	}

	if _, err := tx.Exec(ctx, sb.String(), args...); err != nil {
		return gerrors.Wrap(err, "failed to insert row logs")
	}
	return nil
}

func (r *ImportJobRepository) FailedRowLogs(ctx context.Context, jobID uuid.UUID) ([]importjob.RowLog, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, selectFailedRowsQuery, jobID, tenantID)
	if err != nil {
		return nil, gerrors.Wrap(err, "failed to query failed row logs")
	}
	defer rows.Close()

	var logs []importjob.RowLog
	for rows.Next() {
		var (
			log    importjob.RowLog
			fields []byte
			msg    *string
		)
		if err := rows.Scan(&log.RowNumber, &fields, &msg); err != nil {
			return nil, gerrors.Wrap(err, "failed to scan row log")
		}
		if err := json.Unmarshal(fields, &log.Fields); err != nil {
			return nil, gerrors.Wrap(err, "failed to decode row fields")
		}
		log.Status = importjob.RowStatusFailed
		if msg != nil {
			log.ErrorMessage = *msg
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

func (r *ImportJobRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, deleteJobQuery, id, tenantID); err != nil {
		return gerrors.Wrap(err, "failed to delete import job")
	}
	return nil
}

func scanJob(row pgx.Row) (importjob.ImportJob, error) {
	var (
		id, tenantID, createdBy               uuid.UUID
		status, fileReference                 string
		totalRows, successfulRows, failedRows int
		createdAt, updatedAt                  time.Time
	)
	err := row.Scan(&id, &tenantID, &createdBy, &status, &totalRows, &successfulRows, &failedRows, &fileReference, &createdAt, &updatedAt)
	if err != nil {
		return importjob.ImportJob{}, err
	}
	return importjob.Hydrate(
		id, tenantID, createdBy,
		importjob.Status(status),
		totalRows, successfulRows, failedRows,
		fileReference,
		createdAt, updatedAt,
	), nil
}
