package application

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MigrationManager collects schema fragments from modules and applies them
// at startup. Statements must be idempotent (CREATE ... IF NOT EXISTS).
type MigrationManager interface {
	RegisterSchema(name, ddl string)
	Apply(ctx context.Context) error
}

type schemaFragment struct {
	name string
	ddl  string
}

func NewMigrationManager(pool *pgxpool.Pool) MigrationManager {
	return &migrationManager{pool: pool}
}

type migrationManager struct {
	pool      *pgxpool.Pool
	fragments []schemaFragment
}

func (m *migrationManager) RegisterSchema(name, ddl string) {
	m.fragments = append(m.fragments, schemaFragment{name: name, ddl: ddl})
}

func (m *migrationManager) Apply(ctx context.Context) error {
	for _, fragment := range m.fragments {
		if _, err := m.pool.Exec(ctx, fragment.ddl); err != nil {
			return errors.Wrapf(err, "failed to apply schema %q", fragment.name)
		}
	}
	return nil
}
