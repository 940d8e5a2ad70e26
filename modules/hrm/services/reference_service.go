package services

import (
	"context"

	gerrors "github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"

	"github.com/iota-uz/staffimport/modules/hrm/domain/entities/reference"
)

type ReferenceService struct {
	repo reference.Repository
}

func NewReferenceService(repo reference.Repository) *ReferenceService {
	return &ReferenceService{repo: repo}
}

// Load issues the four tenant-scoped reads concurrently and joins them into
// one immutable snapshot. Any read failure aborts the whole load: validating
// against partial reference data could misclassify rows.
func (s *ReferenceService) Load(ctx context.Context) (*reference.Set, error) {
	var (
		departments []reference.Department
		positions   []reference.Position
		emails      []string
		offices     []reference.Office
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		departments, err = s.repo.Departments(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		positions, err = s.repo.Positions(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		emails, err = s.repo.EmployeeEmails(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		offices, err = s.repo.Offices(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, gerrors.Wrap(err, "failed to load reference data")
	}

	return reference.NewSet(departments, positions, emails, offices), nil
}
