// internal/storage/storage_test.go
package storage_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/OCAP2/persistentrotation/internal/storage"
)

func TestErrSlotNotFound_Wraps(t *testing.T) {
	err := fmt.Errorf("read %q: %w", "slot-1", storage.ErrSlotNotFound)
	assert.ErrorIs(t, err, storage.ErrSlotNotFound)
}

type plainBackend struct{ storage.Backend }

type namedBackend struct{ plainBackend }

func (namedBackend) Describe() string { return "named" }

func TestDescribe(t *testing.T) {
	assert.Equal(t, "named", storage.Describe(namedBackend{}))
	assert.Equal(t, "storage_test.plainBackend", storage.Describe(plainBackend{}))
}
