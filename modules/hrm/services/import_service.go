package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/iota-uz/staffimport/modules/hrm/domain/aggregates/importjob"
	"github.com/iota-uz/staffimport/modules/hrm/domain/importrow"
	"github.com/iota-uz/staffimport/modules/hrm/infrastructure/storage"
	"github.com/iota-uz/staffimport/pkg/composables"
	"github.com/iota-uz/staffimport/pkg/configuration"
	"github.com/iota-uz/staffimport/pkg/eventbus"
	"github.com/iota-uz/staffimport/pkg/outbox"
	"github.com/iota-uz/staffimport/pkg/tabular"
)

// TopicImportConfirmed is consumed by the external worker that creates the
// actual employee records. The payload carries only the job id; the worker
// re-derives tenant scope from the durable job record.
const TopicImportConfirmed = "hrm.import.confirmed"

type PreviewResult struct {
	TotalRows   int
	ValidRows   int
	InvalidRows int
	Rows        []importrow.Row
}

type ImportService struct {
	jobs      importjob.Repository
	refs      *ReferenceService
	files     storage.FileStorage
	publisher outbox.Publisher
	bus       eventbus.EventBus
	opts      configuration.ImportOptions
}

func NewImportService(
	jobs importjob.Repository,
	refs *ReferenceService,
	files storage.FileStorage,
	publisher outbox.Publisher,
	bus eventbus.EventBus,
	opts configuration.ImportOptions,
) *ImportService {
	return &ImportService{
		jobs:      jobs,
		refs:      refs,
		files:     files,
		publisher: publisher,
		bus:       bus,
		opts:      opts,
	}
}

// Options exposes the injected limits so the HTTP layer sizes its multipart
// parsing from the same source the service enforces.
func (s *ImportService) Options() configuration.ImportOptions {
	return s.opts
}

// Preview decodes and validates the file without persisting anything. It
// always succeeds with full per-row detail, even if every row is invalid.
func (s *ImportService) Preview(ctx context.Context, fileName string, payload []byte) (*PreviewResult, error) {
	if err := s.checkFile(fileName, payload); err != nil {
		return nil, err
	}

	table, err := tabular.Decode(fileName, payload)
	if err != nil {
		// fewer than two physical rows is a "no data" condition, not an error
		if errors.Is(err, tabular.ErrEmptyFile) {
			return &PreviewResult{}, nil
		}
		return nil, ErrFileMalformed.WithDetails(err.Error())
	}

	rows := importrow.FromTable(table)
	if len(rows) > s.opts.PreviewRowLimit {
		return nil, ErrTooManyRows.WithDetails(
			fmt.Sprintf("file has %d data rows, the limit is %d", len(rows), s.opts.PreviewRowLimit))
	}

	refs, err := s.refs.Load(ctx)
	if err != nil {
		return nil, err
	}

	rows = importrow.ValidateAll(rows, refs)

	result := &PreviewResult{TotalRows: len(rows), Rows: rows}
	for _, row := range rows {
		if row.Status == importrow.StatusValid {
			result.ValidRows++
		} else {
			result.InvalidRows++
		}
	}
	return result, nil
}

// Confirm durably creates the import job from rows already validated by a
// prior Preview call. Validity is trusted as supplied: the user may have
// pruned rows between the two calls, and reference data is deliberately not
// re-checked (a department deleted in the interim surfaces when the worker
// runs, not here).
//
// The steps form a saga: each completed step registers its inverse, and any
// later failure unwinds them in reverse order so nothing half-created
// remains.
func (s *ImportService) Confirm(ctx context.Context, fileName string, payload []byte, rows []importrow.Row) (uuid.UUID, error) {
	if err := s.checkFile(fileName, payload); err != nil {
		return uuid.Nil, err
	}

	valid := 0
	for _, row := range rows {
		if row.Status == importrow.StatusValid {
			valid++
		}
	}
	if valid == 0 {
		return uuid.Nil, ErrNoValidRows
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	userID, err := composables.UseUserID(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	logger := composables.UseLogger(ctx)

	saga := newSaga()

	// Step 1: create the job record.
	job, err := composables.InTxResult(ctx, func(txCtx context.Context) (importjob.ImportJob, error) {
		return s.jobs.Create(txCtx, importjob.New(tenantID, userID, len(rows)))
	})
	if err != nil {
		return uuid.Nil, gerrors.Wrap(err, "failed to create import job")
	}
	saga.register(func() {
		if err := composables.InTx(ctx, func(txCtx context.Context) error {
			return s.jobs.Delete(txCtx, job.ID())
		}); err != nil {
			logger.WithError(err).Error("rollback: failed to delete import job")
		}
	})

	// Step 2: store the original file.
	if err := s.files.EnsureContainer(ctx, tenantID); err != nil {
		saga.rollback()
		return uuid.Nil, gerrors.Wrap(err, "failed to ensure storage container")
	}
	fileRef, err := s.files.Save(ctx, tenantID, job.ID(), fileName, payload)
	if err != nil {
		saga.rollback()
		return uuid.Nil, gerrors.Wrap(err, "failed to store upload file")
	}
	saga.register(func() {
		if err := s.files.Delete(ctx, fileRef); err != nil {
			logger.WithError(err).Error("rollback: failed to delete stored file")
		}
	})

	// Step 3: record the file reference, best effort. The file is a pointer,
	// not the source of truth, so a failure here does not roll back.
	if err := composables.InTx(ctx, func(txCtx context.Context) error {
		return s.jobs.SetFileReference(txCtx, job.ID(), fileRef)
	}); err != nil {
		logger.WithError(err).Warn("failed to record file reference on import job")
	}

	// Step 4: persist every row as an audit log, in strictly ordered batches.
	if err := s.persistRowLogs(ctx, job.ID(), rows); err != nil {
		saga.rollback()
		logger.WithError(err).Error("row log persistence failed, import rolled back")
		return uuid.Nil, ErrImportCancelled.WithDetails(err.Error())
	}

	// Step 5: durably trigger the external worker. The trigger outlives this
	// request via the outbox relay; an enqueue failure is logged only and
	// never disturbs the already-committed job.
	payloadJSON, _ := json.Marshal(map[string]string{"job_id": job.ID().String()})
	if err := composables.InTx(ctx, func(txCtx context.Context) error {
		_, err := s.publisher.Enqueue(txCtx, outbox.Message{
			TenantID: tenantID,
			Topic:    TopicImportConfirmed,
			EventID:  uuid.New(),
			Payload:  payloadJSON,
		})
		return err
	}); err != nil {
		logger.WithError(err).Error("failed to enqueue import worker trigger")
	}

	s.bus.Publish(importjob.CreatedEvent{
		JobID:    job.ID(),
		TenantID: tenantID,
		Total:    len(rows),
		Valid:    valid,
		Invalid:  len(rows) - valid,
	})

	return job.ID(), nil
}

func (s *ImportService) persistRowLogs(ctx context.Context, jobID uuid.UUID, rows []importrow.Row) error {
	logs := make([]importjob.RowLog, len(rows))
	for i, row := range rows {
		log := importjob.RowLog{
			RowNumber: row.RowNumber,
			Fields:    row.Fields,
			Status:    importjob.RowStatusValid,
		}
		if row.Status != importrow.StatusValid {
			log.Status = importjob.RowStatusFailed
			log.ErrorMessage = strings.Join(row.Errors, "; ")
			if log.ErrorMessage == "" {
				log.ErrorMessage = "row was marked invalid"
			}
		}
		logs[i] = log
	}

	batch := s.opts.RowLogBatchSize
	for start := 0; start < len(logs); start += batch {
		end := start + batch
		if end > len(logs) {
			end = len(logs)
		}
		if err := composables.InTx(ctx, func(txCtx context.Context) error {
			return s.jobs.InsertRowLogs(txCtx, jobID, logs[start:end])
		}); err != nil {
			return gerrors.Wrapf(err, "batch starting at row %d", logs[start].RowNumber)
		}
	}
	return nil
}

func (s *ImportService) checkFile(fileName string, payload []byte) error {
	if fileName == "" || len(payload) == 0 {
		return ErrFileMissing
	}
	if int64(len(payload)) > s.opts.MaxFileSize {
		return ErrFileTooLarge.WithDetails(
			fmt.Sprintf("file is %d bytes, the limit is %d bytes", len(payload), s.opts.MaxFileSize))
	}
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv", ".xlsx":
		return nil
	default:
		return ErrUnsupportedFormat
	}
}

// saga accumulates inverse actions for completed steps and applies them in
// reverse order on failure.
type saga struct {
	compensations []func()
}

func newSaga() *saga {
	return &saga{}
}

func (s *saga) register(undo func()) {
	s.compensations = append(s.compensations, undo)
}

func (s *saga) rollback() {
	for i := len(s.compensations) - 1; i >= 0; i-- {
		s.compensations[i]()
	}
}
