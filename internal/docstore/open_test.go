// AngelaMos | 2026
// open_test.go

package docstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/mahuru-activation/internal/config"
)

func TestOpenMemory(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Driver: config.StoreMemory}}

	backend, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer backend.Close() //nolint:errcheck

	assert.Equal(t, config.StoreMemory, backend.Driver)
	assert.Nil(t, backend.Database)
	assert.NoError(t, backend.Store.Ping(context.Background()))
}

func TestOpenUnknownDriver(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Driver: "cassandra"}}

	_, err := Open(context.Background(), cfg)
	assert.ErrorContains(t, err, "cassandra")
}
