package sqlbase

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrationManager_LatestVersion(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.DiscardHandler)

	assert.Equal(t, 0, NewMigrationManager(logger, nil, nil).LatestVersion())
	assert.Equal(t, 3, NewMigrationManager(logger, nil, map[int]string{2: "b", 1: "a", 3: "c"}).LatestVersion())
}
