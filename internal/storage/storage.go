// internal/storage/storage.go
package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrSlotNotFound is returned by Read and Delete for an unknown slot name.
var ErrSlotNotFound = errors.New("slot not found")

// Backend is the interface all save-slot stores must satisfy. A slot is an
// opaque snapshot document addressed by name.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// List returns every slot name, sorted ascending.
	List(ctx context.Context) ([]string, error)
	Read(ctx context.Context, name string) ([]byte, error)
	// Write creates or replaces the named slot.
	Write(ctx context.Context, name string, data []byte) error
	Delete(ctx context.Context, name string) error
}

// Describer is an optional interface for backends that can report where
// they keep their slots.
type Describer interface {
	Describe() string
}

// Describe returns b's description, or its Go type when it has none.
func Describe(b Backend) string {
	if d, ok := b.(Describer); ok {
		return d.Describe()
	}
	return fmt.Sprintf("%T", b)
}
