package session

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/OCAP2/persistentrotation/pkg/core"
)

func TestContext_Defaults(t *testing.T) {
	ctx := NewContext(core.ReferenceDynamic)

	_, ok := ctx.ActiveVessel()
	assert.False(t, ok)
	assert.Equal(t, uint64(0), ctx.Tick())
	assert.Equal(t, core.ReferenceDynamic, ctx.DefaultReferenceMode())
	assert.False(t, ctx.StartedAt().IsZero())
}

func TestContext_ActiveVessel(t *testing.T) {
	ctx := NewContext(core.ReferenceNone)
	id := uuid.New()

	ctx.SetActiveVessel(id)
	got, ok := ctx.ActiveVessel()
	assert.True(t, ok)
	assert.Equal(t, id, got)

	ctx.SetActiveVessel(uuid.Nil)
	_, ok = ctx.ActiveVessel()
	assert.False(t, ok)
}

func TestContext_LogAttrs(t *testing.T) {
	ctx := NewContext(core.ReferenceNone)
	ctx.AdvanceTick()
	ctx.AdvanceTick()

	attrs := ctx.LogAttrs()
	assert.Len(t, attrs, 1)
	assert.Equal(t, "tick", attrs[0].Key)
	assert.Equal(t, uint64(2), attrs[0].Value.Uint64())

	id := uuid.New()
	ctx.SetActiveVessel(id)
	attrs = ctx.LogAttrs()
	assert.Len(t, attrs, 2)
	assert.Equal(t, id.String(), attrs[1].Value.String())
}

func TestContext_ConcurrentReaders(t *testing.T) {
	ctx := NewContext(core.ReferenceNone)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				_ = ctx.LogAttrs()
				_, _ = ctx.ActiveVessel()
			}
		}()
	}
	for range 100 {
		ctx.AdvanceTick()
	}
	wg.Wait()

	assert.Equal(t, uint64(100), ctx.Tick())
}
