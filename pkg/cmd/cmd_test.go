package cmd

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/dukex/botflow/pkg/channels/kafka"
	"github.com/dukex/botflow/pkg/persistence/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePersistenceProvider(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		url  string
		want string
	}{
		{"file:///var/lib/botflow", "file"},
		{"./data", "file"},
		{"postgres://u:p@localhost/db", "postgres"},
		{"postgresql://u:p@localhost/db", "postgresql"},
		{"redis://localhost:6379/0", "redis"},
		{"rediss://cache:6380", "rediss"},
		{"mongodb://localhost", "file"},
	}

	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, parsePersistenceProvider(tc.url))
		})
	}
}

func TestNewPersistence_File(t *testing.T) {
	t.Parallel()

	p, err := NewPersistence(context.Background(), slog.New(slog.DiscardHandler), "file://"+t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &file.Persistence{}, p)
	require.NoError(t, p.HealthCheck(context.Background()))
}

func TestNewEventBus(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.DiscardHandler)

	bus, err := NewEventBus("gochannel", nil, logger)
	require.NoError(t, err)
	require.NoError(t, bus.Close())

	_, err = NewEventBus("kafka", nil, logger)
	require.ErrorIs(t, err, kafka.ErrNoBrokers)

	_, err = NewEventBus("rabbitmq", nil, logger)
	require.Error(t, err)
}

func TestNewRegistry(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.DiscardHandler)

	reg, err := NewRegistry(logger, "")
	require.NoError(t, err)

	builtins := reg.Len()
	assert.Positive(t, builtins)

	dir := t.TempDir()
	catalog := filepath.Join(dir, "actions.yaml")
	require.NoError(t, os.WriteFile(catalog, []byte(`
actions:
  - id: notify_admin
    name: Notify admin
    inputs:
      - name: message
        type: string
        required: true
`), 0o600))

	reg, err = NewRegistry(logger, catalog)
	require.NoError(t, err)
	assert.Equal(t, builtins+1, reg.Len())

	reg, err = NewRegistry(logger, dir)
	require.NoError(t, err)

	_, ok := reg.Action("notify_admin")
	assert.True(t, ok)

	_, err = NewRegistry(logger, filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}
