package hrm

import (
	_ "embed"

	"github.com/iota-uz/staffimport/modules/hrm/infrastructure/persistence"
	"github.com/iota-uz/staffimport/modules/hrm/infrastructure/storage"
	"github.com/iota-uz/staffimport/modules/hrm/presentation/controllers"
	"github.com/iota-uz/staffimport/modules/hrm/services"
	"github.com/iota-uz/staffimport/pkg/application"
	"github.com/iota-uz/staffimport/pkg/configuration"
	"github.com/iota-uz/staffimport/pkg/outbox"
)

//go:embed infrastructure/persistence/schema/hrm-schema.sql
var schemaSQL string

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	conf := configuration.Use()

	app.Migrations().RegisterSchema("hrm", schemaSQL)

	jobs := persistence.NewImportJobRepository()
	refs := services.NewReferenceService(persistence.NewReferenceRepository())
	files := storage.NewLocalStorage(conf.UploadsPath)

	app.RegisterServices(
		services.NewImportService(jobs, refs, files, outbox.NewPublisher(), app.EventPublisher(), conf.Import),
		services.NewImportQueryService(jobs),
	)

	app.RegisterControllers(
		controllers.NewImportController(app),
	)

	return nil
}

func (m *Module) Name() string {
	return "hrm"
}
