package modules_test

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/staffimport/modules"
	"github.com/iota-uz/staffimport/pkg/application"
	"github.com/iota-uz/staffimport/pkg/eventbus"
	"github.com/iota-uz/staffimport/pkg/logging"
)

type countingModule struct {
	registered int
}

func (m *countingModule) Name() string { return "counting" }

func (m *countingModule) Register(application.Application) error {
	m.registered++
	return nil
}

func TestLoadRegistersOnlyGivenModulesExactlyOnce(t *testing.T) {
	app := application.New(&application.ApplicationOptions{
		EventBus: eventbus.NewEventPublisher(logging.ConsoleLogger(logrus.PanicLevel)),
	})

	m := &countingModule{}
	require.NoError(t, modules.Load(app, m))

	require.Equal(t, 1, m.registered)
	// Load must not register anything the caller did not pass
	require.Empty(t, app.Controllers())
}
