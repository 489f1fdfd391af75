package telemetry

import (
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/OCAP2/persistentrotation/internal/config"
	"github.com/OCAP2/persistentrotation/pkg/core"
	"github.com/OCAP2/persistentrotation/pkg/orientation"
)

func testSample() core.Sample {
	return core.Sample{
		Vessel:    uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
		Name:      "Probe",
		Time:      time.Unix(1700000000, 0),
		Tick:      12,
		Packed:    true,
		Path:      "packed_spin",
		Authority: core.AuthorityDisabled,
		Mode:      core.Idle,
		Momentum:  orientation.Vec{X: 3, Y: 4},
		Rotation:  orientation.Identity(),
	}
}

func TestSamplePoint(t *testing.T) {
	line := influxdb2_write.PointToLineProtocol(SamplePoint(testSample()), time.Second)

	assert.Contains(t, line, "vessel_rotation,")
	assert.Contains(t, line, "vessel=6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	assert.Contains(t, line, "path=packed_spin")
	assert.Contains(t, line, "authority=disabled")
	assert.Contains(t, line, "packed=true")
	assert.Contains(t, line, "spin=5")
	assert.Contains(t, line, "tick=12i")
	assert.Contains(t, line, "rotation_w=1")
	assert.Contains(t, line, " 1700000000")
}

func TestConnect_Disabled(t *testing.T) {
	m := NewManager(zerolog.Nop(), config.InfluxConfig{}, "")
	assert.Error(t, m.Connect(context.Background()))
}

func TestWritePoint_NoWriter(t *testing.T) {
	m := NewManager(zerolog.Nop(), config.InfluxConfig{}, "")
	assert.Error(t, m.WritePoint(SamplePoint(testSample())))

	m.RecordSample(testSample())
	m.RecordSample(testSample())
	assert.Equal(t, 2, m.Dropped())
	assert.NoError(t, m.Close())
}

func TestConnect_FallsBackToBackupFile(t *testing.T) {
	backup := filepath.Join(t.TempDir(), "rotation.lp.gz")
	m := NewManager(zerolog.Nop(), config.InfluxConfig{
		Enabled:  true,
		Protocol: "http",
		Host:     "127.0.0.1",
		Port:     "1",
		Org:      "org",
		Bucket:   "rotation",
	}, backup)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Connect(ctx))
	assert.False(t, m.IsValid)

	m.RecordSample(testSample())
	assert.Equal(t, 0, m.Dropped())
	require.NoError(t, m.Close())

	f, err := os.Open(backup)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Contains(t, string(data), "vessel_rotation,")
}
