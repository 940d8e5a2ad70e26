package services_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/staffimport/modules/hrm/domain/aggregates/importjob"
	"github.com/iota-uz/staffimport/modules/hrm/services"
)

func seedJob(repo *mockJobRepository, tenantID uuid.UUID, status importjob.Status, total, ok, failed int) uuid.UUID {
	id := uuid.New()
	repo.jobs[id] = importjob.Hydrate(
		id, tenantID, uuid.New(), status,
		total, ok, failed, "imports/x",
		time.Now().Add(-time.Minute), time.Now(),
	)
	return id
}

func TestStatusReportsProgress(t *testing.T) {
	repo := newMockJobRepository()
	tenantID := uuid.New()
	ctx := testContext(tenantID, uuid.New())
	svc := services.NewImportQueryService(repo)

	cases := []struct {
		total, ok, failed int
		want              int
	}{
		{total: 0, ok: 0, failed: 0, want: 0},
		{total: 10, ok: 3, failed: 2, want: 50},
		{total: 3, ok: 1, failed: 0, want: 33},
		{total: 3, ok: 2, failed: 0, want: 67},
		{total: 10, ok: 10, failed: 5, want: 100}, // clamped
	}

	for _, tc := range cases {
		id := seedJob(repo, tenantID, importjob.StatusProcessing, tc.total, tc.ok, tc.failed)
		status, err := svc.Status(ctx, id)
		require.NoError(t, err)
		require.Equal(t, tc.want, status.Progress, "total=%d ok=%d failed=%d", tc.total, tc.ok, tc.failed)
	}
}

func TestStatusUnknownJob(t *testing.T) {
	svc := services.NewImportQueryService(newMockJobRepository())
	ctx := testContext(uuid.New(), uuid.New())

	_, err := svc.Status(ctx, uuid.New())
	require.ErrorIs(t, err, importjob.ErrNotFound)
}

func TestExportFailedRows(t *testing.T) {
	repo := newMockJobRepository()
	tenantID := uuid.New()
	ctx := testContext(tenantID, uuid.New())
	id := seedJob(repo, tenantID, importjob.StatusCompleted, 3, 1, 2)

	repo.rowLogs[id] = []importjob.RowLog{
		{RowNumber: 1, Fields: map[string]string{"email": "ok@acme.test"}, Status: importjob.RowStatusValid},
		{RowNumber: 2, Fields: map[string]string{"first_name": "Jane", "email": "bad"}, Status: importjob.RowStatusFailed, ErrorMessage: `email "bad" is not a valid email address`},
		{RowNumber: 3, Fields: map[string]string{"email": "dup@acme.test"}, Status: importjob.RowStatusFailed, ErrorMessage: `duplicate email "dup@acme.test" in file`},
	}

	var buf bytes.Buffer
	svc := services.NewImportQueryService(repo)
	require.NoError(t, svc.ExportFailedRows(ctx, id, &buf))

	out := buf.String()
	lines := bytes.Count([]byte(out), []byte("\n"))
	require.Equal(t, 3, lines, "header plus one line per failed row")
	require.Contains(t, out, "row_number,first_name,last_name,email")
	require.Contains(t, out, "Jane")
	require.Contains(t, out, "duplicate email")
	require.NotContains(t, out, "ok@acme.test")
}

func TestExportFailedRowsUnknownJob(t *testing.T) {
	svc := services.NewImportQueryService(newMockJobRepository())
	ctx := testContext(uuid.New(), uuid.New())

	var buf bytes.Buffer
	err := svc.ExportFailedRows(ctx, uuid.New(), &buf)
	require.ErrorIs(t, err, importjob.ErrNotFound)
	require.Zero(t, buf.Len())
}
