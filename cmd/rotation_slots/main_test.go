package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/persistentrotation/internal/config"
	"github.com/OCAP2/persistentrotation/internal/persist"
	"github.com/OCAP2/persistentrotation/internal/storage/file"
	"github.com/OCAP2/persistentrotation/pkg/core"
)

const testConfig = `{
  "storage": {
    "type": "sqlite",
    "file": {"dir": "slots"},
    "sqlite": {"path": "slots.db"}
  }
}`

// seed writes slots at the given times into the file backend under dir.
func seed(t *testing.T, dir string, times ...float64) {
	t.Helper()
	b := file.New(file.Config{Dir: filepath.Join(dir, "slots")})
	require.NoError(t, b.Init())
	store := persist.NewStore(b, 0, nil)
	for _, ts := range times {
		_, err := store.Save(context.Background(), persist.FromRecords(ts, core.ParseReferenceMode("none"), nil))
		require.NoError(t, err)
	}
}

func setup(t *testing.T) string {
	t.Helper()
	t.Cleanup(viper.Reset)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte(testConfig), 0o644))
	return dir
}

func TestRun_Usage(t *testing.T) {
	dir := setup(t)
	var out bytes.Buffer
	assert.ErrorIs(t, run(context.Background(), dir, nil, &out), errUsage)
	assert.ErrorIs(t, run(context.Background(), dir, []string{"show"}, &out), errUsage)
	assert.ErrorIs(t, run(context.Background(), dir, []string{"explode"}, &out), errUsage)
}

func TestRun_CopyListShowPurge(t *testing.T) {
	dir := setup(t)
	seed(t, dir, 10, 20)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, run(ctx, dir, []string{"copy", "file"}, &out))
	assert.Contains(t, out.String(), "copied 2 slots")

	out.Reset()
	require.NoError(t, run(ctx, dir, []string{"LIST"}, &out))
	assert.Contains(t, out.String(), "2 slots")
	assert.Contains(t, out.String(), persist.SlotName(10)+"\tut=10.000\tvessels=0")
	assert.Contains(t, out.String(), persist.SlotName(20))

	out.Reset()
	require.NoError(t, run(ctx, dir, []string{"show", persist.SlotName(20)}, &out))
	assert.Contains(t, out.String(), `"timestamp":20`)

	out.Reset()
	require.NoError(t, run(ctx, dir, []string{"purge"}, &out))
	assert.Contains(t, out.String(), "removed 2 slots")

	out.Reset()
	require.NoError(t, run(ctx, dir, []string{"list"}, &out))
	assert.Contains(t, out.String(), "0 slots")
}

func TestRun_CopyRejectsSameBackend(t *testing.T) {
	dir := setup(t)
	var out bytes.Buffer
	assert.ErrorContains(t, run(context.Background(), dir, []string{"copy", "sqlite"}, &out), "both sqlite")
}

func TestRun_ShowMissingSlot(t *testing.T) {
	dir := setup(t)
	var out bytes.Buffer
	assert.ErrorContains(t, run(context.Background(), dir, []string{"show", "rotation-nope"}, &out), "failed to read slot")
}
