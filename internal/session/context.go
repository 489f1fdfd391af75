package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/OCAP2/persistentrotation/pkg/core"
)

// Context holds the per-session state shared by the engine, the handlers and
// the log context handler.
type Context struct {
	mu          sync.RWMutex
	active      uuid.UUID
	tick        uint64
	startedAt   time.Time
	defaultMode core.ReferenceMode
}

// NewContext creates a session with no active vessel.
func NewContext(mode core.ReferenceMode) *Context {
	return &Context{
		startedAt:   time.Now(),
		defaultMode: mode,
	}
}

// ActiveVessel returns the vessel the player controls.
func (c *Context) ActiveVessel() (uuid.UUID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active, c.active != uuid.Nil
}

// SetActiveVessel switches the active vessel. uuid.Nil clears it.
func (c *Context) SetActiveVessel(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = id
}

// Tick returns the number of completed engine ticks.
func (c *Context) Tick() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tick
}

// AdvanceTick increments the tick counter and returns the new value.
func (c *Context) AdvanceTick() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tick++
	return c.tick
}

// StartedAt returns when the session was created.
func (c *Context) StartedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.startedAt
}

// DefaultReferenceMode is applied to freshly generated records.
func (c *Context) DefaultReferenceMode() core.ReferenceMode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defaultMode
}

func (c *Context) SetDefaultReferenceMode(m core.ReferenceMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defaultMode = m
}

// LogAttrs returns attributes describing the session for log records.
func (c *Context) LogAttrs() []slog.Attr {
	c.mu.RLock()
	defer c.mu.RUnlock()
	attrs := []slog.Attr{slog.Uint64("tick", c.tick)}
	if c.active != uuid.Nil {
		attrs = append(attrs, slog.String("activeVessel", c.active.String()))
	}
	return attrs
}
