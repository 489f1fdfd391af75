package postgres

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/persistentrotation/internal/config"
	"github.com/OCAP2/persistentrotation/internal/storage"
)

// Compile-time interface check
var _ storage.Backend = (*Backend)(nil)

func TestNew_FallsBackToSqlite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fallback.db")
	cfg := config.DBConfig{
		Host:     "127.0.0.1",
		Port:     "1",
		Username: "nobody",
		Password: "nothing",
		Database: "absent",
	}

	b, err := New(cfg, path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })

	assert.True(t, b.UsingFallback())
	assert.Contains(t, b.Describe(), path)

	ctx := context.Background()
	require.NoError(t, b.Write(ctx, "slot", []byte(`{}`)))
	names, err := b.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"slot"}, names)
}
