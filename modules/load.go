package modules

import (
	"github.com/iota-uz/staffimport/modules/hrm"
	"github.com/iota-uz/staffimport/pkg/application"
)

var BuiltInModules = []application.Module{
	hrm.NewModule(),
}

// Load registers exactly the modules it is given; callers pass
// BuiltInModules plus any external ones.
func Load(app application.Application, modules ...application.Module) error {
	return application.LoadModules(app, modules...)
}
