package persist

import (
	"math/rand/v2"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/persistentrotation/internal/registry"
	"github.com/OCAP2/persistentrotation/internal/session"
	"github.com/OCAP2/persistentrotation/pkg/core"
	"github.com/OCAP2/persistentrotation/pkg/host/hosttest"
	"github.com/OCAP2/persistentrotation/pkg/orientation"
)

func randomVec(rng *rand.Rand) orientation.Vec {
	return orientation.Vec{X: rng.NormFloat64(), Y: rng.NormFloat64() * 100, Z: rng.Float64() - 0.5}
}

func randomRecord(rng *rand.Rand, others []uuid.UUID) core.Record {
	rec := *core.NewRecord(uuid.New())
	rec.Momentum = randomVec(rng)
	rec.Direction = randomVec(rng)
	rec.Rotation = orientation.AngleAxis(rng.Float64()*360, randomVec(rng))
	rec.RotationModeActive = rng.IntN(2) == 0
	rec.MomentumModeActive = !rec.RotationModeActive && rng.IntN(2) == 0
	rec.DynamicReference = rng.IntN(2) == 0
	rec.DesiredRPM = (rng.Float64() - 0.5) * 60
	switch rng.IntN(3) {
	case 1:
		rec.Reference = core.BodyReference("Mun")
	case 2:
		if len(others) > 0 {
			rec.Reference = core.VesselReference(others[rng.IntN(len(others))])
		}
	}
	return rec
}

func TestSnapshot_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	var ids []uuid.UUID
	records := make([]core.Record, 0, 50)
	for range 50 {
		rec := randomRecord(rng, ids)
		ids = append(ids, rec.ID)
		records = append(records, rec)
	}

	snap := FromRecords(1234.5, core.ReferenceDynamic, records)
	data, err := snap.Encode()
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 1234.5, decoded.Timestamp)
	assert.Equal(t, "dynamic", decoded.DefaultReferenceMode)
	require.Len(t, decoded.Vessels, len(records))

	for _, want := range records {
		entry, ok := decoded.Vessels[want.ID.String()]
		require.True(t, ok)
		got, err := entry.Record(want.ID.String())
		require.NoError(t, err)

		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.Momentum, got.Momentum)
		assert.Equal(t, want.Direction, got.Direction)
		assert.Equal(t, want.Rotation, got.Rotation)
		assert.Equal(t, want.RotationModeActive, got.RotationModeActive)
		assert.Equal(t, want.MomentumModeActive, got.MomentumModeActive)
		assert.Equal(t, want.DynamicReference, got.DynamicReference)
		assert.Equal(t, want.DesiredRPM, got.DesiredRPM)
		assert.Equal(t, want.Reference, got.Reference)
	}
}

func TestDecode_Rejects(t *testing.T) {
	id := uuid.NewString()
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{{`},
		{"no version", `{"timestamp": 1}`},
		{"future version", `{"version": 99, "timestamp": 1}`},
		{"bad key", `{"version":1,"vessels":{"x":{"momentum":"0,0,0","rotation":"0,0,0,1","direction":"0,0,0"}}}`},
		{"bad momentum", `{"version":1,"vessels":{"` + id + `":{"momentum":"0,0","rotation":"0,0,0,1","direction":"0,0,0"}}}`},
		{"bad rotation", `{"version":1,"vessels":{"` + id + `":{"momentum":"0,0,0","rotation":"a,0,0,1","direction":"0,0,0"}}}`},
		{"bad direction", `{"version":1,"vessels":{"` + id + `":{"momentum":"0,0,0","rotation":"0,0,0,1","direction":""}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestDecode_EmptyVessels(t *testing.T) {
	snap, err := Decode([]byte(`{"version":1,"timestamp":5,"defaultReferenceMode":"none"}`))
	require.NoError(t, err)
	assert.Equal(t, 5.0, snap.Timestamp)
	assert.Empty(t, snap.Vessels)
}

type applyFixture struct {
	host *hosttest.Host
	reg  *registry.Registry
	sess *session.Context
	mun  *hosttest.Body
}

func newApplyFixture() *applyFixture {
	h := hosttest.New()
	mun := h.AddBody("Mun", orientation.Vec{X: 1000})
	sess := session.NewContext(core.ReferenceNone)
	return &applyFixture{
		host: h,
		reg:  registry.New(sess, registry.Options{Rand: rand.New(rand.NewPCG(3, 4))}),
		sess: sess,
		mun:  mun,
	}
}

func TestApply_RestoresLiveVessels(t *testing.T) {
	f := newApplyFixture()
	a := f.host.AddVessel(hosttest.NewVessel("A"))
	b := f.host.AddVessel(hosttest.NewVessel("B"))
	b.Pos = orientation.Vec{Y: 7}
	gone := uuid.New()

	saved := core.NewRecord(b.UUID)
	saved.RotationModeActive = true
	saved.Reference = core.BodyReference("Mun")
	saved.Direction = orientation.Vec{X: 1}
	saved.DesiredRPM = 3
	ghost := core.NewRecord(gone)

	snap := FromRecords(10, core.ReferenceDynamic, []core.Record{*saved, *ghost})
	report := Apply(snap, f.host, f.reg, f.sess)

	assert.Equal(t, 2, report.Generated)
	assert.Equal(t, 1, report.Restored)
	assert.Equal(t, 1, report.Discarded)
	assert.Empty(t, report.Unresolved)
	assert.Equal(t, core.ReferenceDynamic, f.sess.DefaultReferenceMode())

	assert.Equal(t, 2, f.reg.Len())
	_, ok := f.reg.Get(gone)
	assert.False(t, ok)

	rec, ok := f.reg.Get(b.UUID)
	require.True(t, ok)
	assert.True(t, rec.RotationModeActive)
	assert.Equal(t, core.BodyReference("Mun"), rec.Reference)
	assert.Equal(t, 3.0, rec.DesiredRPM)

	_, ok = f.reg.Get(a.UUID)
	assert.True(t, ok)
}

func TestApply_ClearsUnresolvedReferences(t *testing.T) {
	f := newApplyFixture()
	a := f.host.AddVessel(hosttest.NewVessel("A"))
	b := f.host.AddVessel(hosttest.NewVessel("B"))

	ra := core.NewRecord(a.UUID)
	ra.Reference = core.BodyReference("Eeloo")
	rb := core.NewRecord(b.UUID)
	rb.Reference = core.VesselReference(a.UUID)

	report := Apply(FromRecords(1, core.ReferenceNone, []core.Record{*ra, *rb}), f.host, f.reg, f.sess)
	assert.Equal(t, []uuid.UUID{a.UUID}, report.Unresolved)

	rec, _ := f.reg.Get(a.UUID)
	assert.True(t, rec.Reference.IsNone())
	rec, _ = f.reg.Get(b.UUID)
	assert.Equal(t, core.VesselReference(a.UUID), rec.Reference)
}

func TestApply_DropsPreviousRecords(t *testing.T) {
	f := newApplyFixture()
	stale := hosttest.NewVessel("stale")
	f.reg.Generate(stale)
	live := f.host.AddVessel(hosttest.NewVessel("live"))

	Apply(FromRecords(1, core.ReferenceNone, nil), f.host, f.reg, f.sess)

	assert.Equal(t, 1, f.reg.Len())
	_, ok := f.reg.Get(live.UUID)
	assert.True(t, ok)
}

func TestCapture(t *testing.T) {
	f := newApplyFixture()
	f.host.UT = 42
	v := f.host.AddVessel(hosttest.NewVessel("A"))
	f.reg.Generate(v)

	snap := Capture(f.host, f.reg, f.sess)
	assert.Equal(t, 42.0, snap.Timestamp)
	assert.Equal(t, "none", snap.DefaultReferenceMode)
	assert.Contains(t, snap.Vessels, v.UUID.String())
	assert.Equal(t, core.NoneToken, snap.Vessels[v.UUID.String()].Reference)
}

func TestCapture_SkipsProvisionalRecords(t *testing.T) {
	f := newApplyFixture()
	kept := f.host.AddVessel(hosttest.NewVessel("A"))
	pending := f.host.AddVessel(hosttest.NewVessel("B"))
	f.reg.Generate(kept)
	f.reg.Generate(pending).Provisional = true

	snap := Capture(f.host, f.reg, f.sess)
	assert.Len(t, snap.Vessels, 1)
	assert.Contains(t, snap.Vessels, kept.UUID.String())
	assert.NotContains(t, snap.Vessels, pending.UUID.String())
}
