// internal/storage/memory/memory.go
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/OCAP2/persistentrotation/internal/storage"
)

// Backend keeps slots in process memory. Slots do not survive a restart.
type Backend struct {
	slots map[string][]byte
	mu    sync.RWMutex
}

// New creates a new memory backend
func New() *Backend {
	return &Backend{slots: make(map[string][]byte)}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// Describe reports the backend location.
func (b *Backend) Describe() string {
	return "memory"
}

// List returns the stored slot names in ascending order.
func (b *Backend) List(_ context.Context) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.slots))
	for name := range b.slots {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// Read returns a copy of the slot contents.
func (b *Backend) Read(_ context.Context, name string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, ok := b.slots[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrSlotNotFound, name)
	}
	return slices.Clone(data), nil
}

// Write stores a copy of data under name.
func (b *Backend) Write(_ context.Context, name string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.slots[name] = slices.Clone(data)
	return nil
}

// Delete removes the named slot.
func (b *Backend) Delete(_ context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.slots[name]; !ok {
		return fmt.Errorf("%w: %s", storage.ErrSlotNotFound, name)
	}
	delete(b.slots, name)
	return nil
}
