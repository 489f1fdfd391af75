package persist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/persistentrotation/internal/storage/memory"
	"github.com/OCAP2/persistentrotation/pkg/core"
)

func saveAt(t *testing.T, s *Store, ts float64) string {
	t.Helper()
	name, err := s.Save(context.Background(), FromRecords(ts, core.ReferenceNone, nil))
	require.NoError(t, err)
	return name
}

func TestSlotName(t *testing.T) {
	assert.Equal(t, "rotation-000000000082.000", SlotName(82))
	ts, ok := SlotTime(SlotName(1234.5))
	require.True(t, ok)
	assert.Equal(t, 1234.5, ts)

	_, ok = SlotTime("other-1")
	assert.False(t, ok)
	_, ok = SlotTime("rotation-abc")
	assert.False(t, ok)

	assert.Less(t, SlotName(9), SlotName(10))
}

func TestLoad_SelectsClosestAndDetectsRevert(t *testing.T) {
	ctx := context.Background()
	s := NewStore(memory.New(), 10, nil)
	newer := saveAt(t, s, 100)
	older := saveAt(t, s, 80)

	snap, sel, err := s.Load(ctx, 82)
	require.NoError(t, err)
	assert.Equal(t, 80.0, snap.Timestamp)
	assert.Equal(t, older, sel.Slot)
	assert.Equal(t, 100.0, sel.Newest)
	assert.True(t, sel.Reverted)

	name, err := s.Rebase(ctx, FromRecords(82, core.ReferenceNone, nil))
	require.NoError(t, err)

	names, err := s.Backend().List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{name}, names)
	assert.NotContains(t, names, newer)
}

func TestLoad_NewestIsNotReverted(t *testing.T) {
	s := NewStore(memory.New(), 10, nil)
	saveAt(t, s, 50)
	latest := saveAt(t, s, 100)

	_, sel, err := s.Load(context.Background(), 99)
	require.NoError(t, err)
	assert.Equal(t, latest, sel.Slot)
	assert.False(t, sel.Reverted)
}

func TestLoad_TieGoesToLaterSlot(t *testing.T) {
	s := NewStore(memory.New(), 10, nil)
	saveAt(t, s, 90)
	later := saveAt(t, s, 110)

	_, sel, err := s.Load(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, later, sel.Slot)
}

func TestLoad_SkipsMalformedSlots(t *testing.T) {
	ctx := context.Background()
	b := memory.New()
	s := NewStore(b, 10, nil)
	good := saveAt(t, s, 10)
	require.NoError(t, b.Write(ctx, SlotName(11), []byte("garbage")))

	snap, sel, err := s.Load(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, 10.0, snap.Timestamp)
	assert.Equal(t, good, sel.Slot)
	assert.Equal(t, []string{SlotName(11)}, sel.Skipped)
	assert.False(t, sel.Reverted)
}

func TestLoad_NoSnapshot(t *testing.T) {
	ctx := context.Background()
	b := memory.New()
	s := NewStore(b, 10, nil)

	_, _, err := s.Load(ctx, 0)
	assert.ErrorIs(t, err, ErrNoSnapshot)

	require.NoError(t, b.Write(ctx, "rotation-x", []byte("{")))
	_, _, err = s.Load(ctx, 0)
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestSave_PrunesOldestSlots(t *testing.T) {
	ctx := context.Background()
	b := memory.New()
	s := NewStore(b, 3, nil)
	require.NoError(t, b.Write(ctx, "foreign", []byte("{}")))

	for _, ts := range []float64{5, 1, 4, 2, 3} {
		saveAt(t, s, ts)
	}

	names, err := b.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"foreign", SlotName(3), SlotName(4), SlotName(5)}, names)
}

func TestSave_SameTimeOverwrites(t *testing.T) {
	ctx := context.Background()
	s := NewStore(memory.New(), 10, nil)
	saveAt(t, s, 7)
	saveAt(t, s, 7)

	infos, err := s.Slots(ctx)
	require.NoError(t, err)
	assert.Len(t, infos, 1)
}

func TestSlotsAndPurge(t *testing.T) {
	ctx := context.Background()
	b := memory.New()
	s := NewStore(b, 10, nil)
	saveAt(t, s, 1)
	require.NoError(t, b.Write(ctx, SlotName(2), []byte("bad")))

	infos, err := s.Slots(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.NoError(t, infos[0].Err)
	assert.Equal(t, 1.0, infos[0].Timestamp)
	assert.Error(t, infos[1].Err)

	n, err := s.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	infos, err = s.Slots(ctx)
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestNewStore_DefaultMaxSlots(t *testing.T) {
	s := NewStore(memory.New(), 0, nil)
	assert.Equal(t, DefaultMaxSlots, s.maxSlots)
}
