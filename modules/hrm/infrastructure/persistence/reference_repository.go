package persistence

import (
	"context"

	gerrors "github.com/go-faster/errors"

	"github.com/iota-uz/staffimport/modules/hrm/domain/entities/reference"
	"github.com/iota-uz/staffimport/pkg/composables"
)

type ReferenceRepository struct{}

func NewReferenceRepository() reference.Repository {
	return &ReferenceRepository{}
}

func (r *ReferenceRepository) Departments(ctx context.Context) ([]reference.Department, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	db, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(ctx, `SELECT id, name, is_active FROM departments WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return nil, gerrors.Wrap(err, "failed to load departments")
	}
	defer rows.Close()

	var out []reference.Department
	for rows.Next() {
		var d reference.Department
		if err := rows.Scan(&d.ID, &d.Name, &d.Active); err != nil {
			return nil, gerrors.Wrap(err, "failed to scan department")
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *ReferenceRepository) Positions(ctx context.Context) ([]reference.Position, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	db, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(ctx, `SELECT id, title, is_active FROM positions WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return nil, gerrors.Wrap(err, "failed to load positions")
	}
	defer rows.Close()

	var out []reference.Position
	for rows.Next() {
		var p reference.Position
		if err := rows.Scan(&p.ID, &p.Title, &p.Active); err != nil {
			return nil, gerrors.Wrap(err, "failed to scan position")
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ReferenceRepository) EmployeeEmails(ctx context.Context) ([]string, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	db, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(ctx, `SELECT email FROM employees WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return nil, gerrors.Wrap(err, "failed to load employee emails")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, gerrors.Wrap(err, "failed to scan employee email")
		}
		out = append(out, email)
	}
	return out, rows.Err()
}

func (r *ReferenceRepository) Offices(ctx context.Context) ([]reference.Office, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	db, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(ctx, `SELECT id, address FROM offices WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return nil, gerrors.Wrap(err, "failed to load offices")
	}
	defer rows.Close()

	var out []reference.Office
	for rows.Next() {
		var o reference.Office
		if err := rows.Scan(&o.ID, &o.Address); err != nil {
			return nil, gerrors.Wrap(err, "failed to scan office")
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
