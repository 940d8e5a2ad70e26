package reference

import "context"

// Repository exposes the four independent tenant-scoped reads. They share no
// state and may be issued concurrently.
type Repository interface {
	Departments(ctx context.Context) ([]Department, error)
	Positions(ctx context.Context) ([]Position, error)
	EmployeeEmails(ctx context.Context) ([]string, error)
	Offices(ctx context.Context) ([]Office, error)
}
