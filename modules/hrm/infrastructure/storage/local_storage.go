// Package storage stores original upload files under a tenant- and
// job-scoped key so every import attempt is auditable against its source.
package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
)

type FileStorage interface {
	// EnsureContainer creates the tenant container; "already exists" is
	// success, not failure.
	EnsureContainer(ctx context.Context, tenantID uuid.UUID) error
	Save(ctx context.Context, tenantID, jobID uuid.UUID, fileName string, payload []byte) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	Delete(ctx context.Context, ref string) error
}

type LocalStorage struct {
	basePath string
}

func NewLocalStorage(basePath string) *LocalStorage {
	return &LocalStorage{basePath: basePath}
}

func (s *LocalStorage) EnsureContainer(_ context.Context, tenantID uuid.UUID) error {
	dir := filepath.Join(s.basePath, "imports", tenantID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return gerrors.Wrap(err, "failed to ensure storage container")
	}
	return nil
}

func (s *LocalStorage) Save(_ context.Context, tenantID, jobID uuid.UUID, fileName string, payload []byte) (string, error) {
	rel := filepath.Join("imports", tenantID.String(), jobID.String(), filepath.Base(fileName))
	abs := filepath.Join(s.basePath, rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", gerrors.Wrap(err, "failed to create job directory")
	}
	if err := os.WriteFile(abs, payload, 0o644); err != nil {
		return "", gerrors.Wrap(err, "failed to write upload file")
	}
	return rel, nil
}

func (s *LocalStorage) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.basePath, ref))
	if err != nil {
		return nil, gerrors.Wrap(err, "failed to open stored file")
	}
	return f, nil
}

func (s *LocalStorage) Delete(_ context.Context, ref string) error {
	if err := os.RemoveAll(filepath.Join(s.basePath, filepath.Dir(ref))); err != nil {
		return gerrors.Wrap(err, "failed to delete stored file")
	}
	return nil
}
