package configuration

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestImportOptionsValidate(t *testing.T) {
	opts := &ImportOptions{MaxFileSize: 5 << 20, PreviewRowLimit: 1000, RowLogBatchSize: 250}
	require.NoError(t, opts.Validate())

	opts.MaxFileSize = 0
	require.Error(t, opts.Validate())

	opts.MaxFileSize = 1
	opts.RowLogBatchSize = 5000
	require.Error(t, opts.Validate())

	opts.RowLogBatchSize = 250
	opts.PreviewRowLimit = -1
	require.Error(t, opts.Validate())
}

func TestDatabaseOptionsConnectionString(t *testing.T) {
	opts := &DatabaseOptions{
		Name:     "staffimport_test",
		Host:     "db",
		Port:     "5433",
		User:     "app",
		Password: "secret",
	}
	require.Equal(
		t,
		"host=db port=5433 user=app dbname=staffimport_test password=secret sslmode=disable",
		opts.ConnectionString(),
	)
}

func TestLogrusLogLevelMapping(t *testing.T) {
	cases := map[string]string{
		"silent": "panic",
		"error":  "error",
		"warn":   "warning",
		"info":   "info",
		"debug":  "debug",
		"bogus":  "error",
		"":       "error",
	}
	for input, want := range cases {
		c := &Configuration{LogLevel: input}
		require.Equal(t, want, c.LogrusLogLevel().String(), "LOG_LEVEL=%q", input)
	}
}
