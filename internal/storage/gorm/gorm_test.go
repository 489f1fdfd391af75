package gormstorage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/persistentrotation/internal/database"
	"github.com/OCAP2/persistentrotation/internal/storage"
)

// Compile-time interface check
var _ storage.Backend = (*Backend)(nil)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	db, err := database.OpenSqlite("")
	require.NoError(t, err)
	b := New(db)
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestInit_NoDB(t *testing.T) {
	b := New(nil)
	assert.Error(t, b.Init())
	assert.NoError(t, b.Close())
	assert.Equal(t, "gorm", b.Describe())
}

func TestNotInitialized(t *testing.T) {
	db, err := database.OpenSqlite("")
	require.NoError(t, err)
	b := New(db)

	_, err = b.List(context.Background())
	assert.Error(t, err)
	assert.Error(t, b.Write(context.Background(), "a", []byte("{}")))
}

func TestDescribe(t *testing.T) {
	b := newTestBackend(t)
	assert.Equal(t, "gorm:sqlite", b.Describe())
}

func TestWriteReadList(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	require.NoError(t, b.Write(ctx, "slot-b", []byte(`{"n":2}`)))
	require.NoError(t, b.Write(ctx, "slot-a", []byte(`{"n":1}`)))

	names, err := b.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"slot-a", "slot-b"}, names)

	data, err := b.Read(ctx, "slot-b")
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":2}`, string(data))
}

func TestWrite_Upserts(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	require.NoError(t, b.Write(ctx, "slot", []byte(`{"v":1}`)))
	require.NoError(t, b.Write(ctx, "slot", []byte(`{"v":2}`)))

	names, err := b.List(ctx)
	require.NoError(t, err)
	assert.Len(t, names, 1)

	data, err := b.Read(ctx, "slot")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(data))
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	require.NoError(t, b.Write(ctx, "slot", []byte(`{}`)))
	require.NoError(t, b.Delete(ctx, "slot"))
	assert.ErrorIs(t, b.Delete(ctx, "slot"), storage.ErrSlotNotFound)

	_, err := b.Read(ctx, "slot")
	assert.ErrorIs(t, err, storage.ErrSlotNotFound)
}
