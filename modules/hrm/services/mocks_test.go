package services_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/staffimport/modules/hrm/domain/aggregates/importjob"
	"github.com/iota-uz/staffimport/modules/hrm/domain/entities/reference"
	"github.com/iota-uz/staffimport/pkg/composables"
	"github.com/iota-uz/staffimport/pkg/outbox"
)

var errTestBatch = errors.New("insert failed")

// stubTx satisfies pgx.Tx for contexts flowing into mocked repositories; no
// method is ever called because InTx reuses the context transaction.
type stubTx struct {
	pgx.Tx
}

func testContext(tenantID, userID uuid.UUID) context.Context {
	ctx := composables.WithTx(context.Background(), stubTx{})
	ctx = composables.WithTenantID(ctx, tenantID)
	return composables.WithUserID(ctx, userID)
}

type mockJobRepository struct {
	mu sync.Mutex

	jobs        map[uuid.UUID]importjob.ImportJob
	rowLogs     map[uuid.UUID][]importjob.RowLog
	fileRefs    map[uuid.UUID]string
	batchCalls  int
	failOnBatch int // 1-based; 0 disables
	createErr   error
	fileRefErr  error
}

func newMockJobRepository() *mockJobRepository {
	return &mockJobRepository{
		jobs:     make(map[uuid.UUID]importjob.ImportJob),
		rowLogs:  make(map[uuid.UUID][]importjob.RowLog),
		fileRefs: make(map[uuid.UUID]string),
	}
}

func (m *mockJobRepository) Create(ctx context.Context, job importjob.ImportJob) (importjob.ImportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return importjob.ImportJob{}, m.createErr
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return importjob.ImportJob{}, err
	}
	created := importjob.Hydrate(
		uuid.New(), tenantID, job.CreatedBy(),
		job.Status(), job.TotalRows(), 0, 0, "",
		job.CreatedAt(), job.UpdatedAt(),
	)
	m.jobs[created.ID()] = created
	return created, nil
}

func (m *mockJobRepository) GetByID(_ context.Context, id uuid.UUID) (importjob.ImportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return importjob.ImportJob{}, importjob.ErrNotFound
	}
	return job, nil
}

func (m *mockJobRepository) SetFileReference(_ context.Context, id uuid.UUID, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fileRefErr != nil {
		return m.fileRefErr
	}
	m.fileRefs[id] = ref
	return nil
}

func (m *mockJobRepository) InsertRowLogs(_ context.Context, jobID uuid.UUID, logs []importjob.RowLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchCalls++
	if m.failOnBatch > 0 && m.batchCalls == m.failOnBatch {
		return errTestBatch
	}
	m.rowLogs[jobID] = append(m.rowLogs[jobID], logs...)
	return nil
}

func (m *mockJobRepository) FailedRowLogs(_ context.Context, jobID uuid.UUID) ([]importjob.RowLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []importjob.RowLog
	for _, log := range m.rowLogs[jobID] {
		if log.Status == importjob.RowStatusFailed {
			out = append(out, log)
		}
	}
	return out, nil
}

func (m *mockJobRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.jobs, id)
	delete(m.rowLogs, id)
	delete(m.fileRefs, id)
	return nil
}

type mockReferenceRepository struct {
	departments []reference.Department
	positions   []reference.Position
	emails      []string
	offices     []reference.Office

	departmentsErr error
}

func (m *mockReferenceRepository) Departments(context.Context) ([]reference.Department, error) {
	if m.departmentsErr != nil {
		return nil, m.departmentsErr
	}
	return m.departments, nil
}

func (m *mockReferenceRepository) Positions(context.Context) ([]reference.Position, error) {
	return m.positions, nil
}

func (m *mockReferenceRepository) EmployeeEmails(context.Context) ([]string, error) {
	return m.emails, nil
}

func (m *mockReferenceRepository) Offices(context.Context) ([]reference.Office, error) {
	return m.offices, nil
}

type mockStorage struct {
	mu sync.Mutex

	files      map[string][]byte
	ensures    int
	saveErr    error
	deleteRefs []string
}

func newMockStorage() *mockStorage {
	return &mockStorage{files: make(map[string][]byte)}
}

func (m *mockStorage) EnsureContainer(context.Context, uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensures++
	return nil
}

func (m *mockStorage) Save(_ context.Context, tenantID, jobID uuid.UUID, fileName string, payload []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return "", m.saveErr
	}
	ref := "imports/" + tenantID.String() + "/" + jobID.String() + "/" + fileName
	m.files[ref] = payload
	return ref, nil
}

func (m *mockStorage) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, ok := m.files[ref]
	if !ok {
		return nil, errors.New("file not found")
	}
	return io.NopCloser(strings.NewReader(string(payload))), nil
}

func (m *mockStorage) Delete(_ context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, ref)
	m.deleteRefs = append(m.deleteRefs, ref)
	return nil
}

type mockPublisher struct {
	mu       sync.Mutex
	messages []outbox.Message
	err      error
}

func (m *mockPublisher) Enqueue(_ context.Context, msg outbox.Message) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	m.messages = append(m.messages, msg)
	return int64(len(m.messages)), nil
}
