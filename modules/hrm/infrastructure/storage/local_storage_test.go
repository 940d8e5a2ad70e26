package storage_test

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/staffimport/modules/hrm/infrastructure/storage"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	s := storage.NewLocalStorage(t.TempDir())
	ctx := context.Background()
	tenantID := uuid.New()
	jobID := uuid.New()

	require.NoError(t, s.EnsureContainer(ctx, tenantID))
	// second call must treat "already exists" as success
	require.NoError(t, s.EnsureContainer(ctx, tenantID))

	ref, err := s.Save(ctx, tenantID, jobID, "staff.csv", []byte("email\na@b.test\n"))
	require.NoError(t, err)

	f, err := s.Open(ctx, ref)
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.Equal(t, "email\na@b.test\n", string(data))

	require.NoError(t, s.Delete(ctx, ref))
	_, err = s.Open(ctx, ref)
	require.Error(t, err)
}

func TestLocalStorageSaveStripsDirectoryTraversal(t *testing.T) {
	s := storage.NewLocalStorage(t.TempDir())
	ctx := context.Background()

	ref, err := s.Save(ctx, uuid.New(), uuid.New(), "../../evil.csv", []byte("x"))
	require.NoError(t, err)
	require.NotContains(t, ref, "..")
}
