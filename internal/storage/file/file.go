// Package file stores each save slot as a JSON document on disk, optionally
// gzip compressed.
package file

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/OCAP2/persistentrotation/internal/storage"
)

const (
	jsonExt = ".json"
	gzipExt = ".json.gz"
)

// Config holds file backend settings.
type Config struct {
	Dir      string
	Compress bool
}

// Backend writes one file per slot under Config.Dir.
type Backend struct {
	cfg Config
}

// New creates a file backend.
func New(cfg Config) *Backend {
	return &Backend{cfg: cfg}
}

// Init creates the slot directory.
func (b *Backend) Init() error {
	if err := os.MkdirAll(b.cfg.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create slot directory: %w", err)
	}
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// Describe reports the slot directory.
func (b *Backend) Describe() string {
	return "file:" + b.cfg.Dir
}

// List returns slot names found in the directory, sorted.
func (b *Backend) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(b.cfg.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name, ok := slotName(e.Name())
		if !ok || slices.Contains(names, name) {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func slotName(filename string) (string, bool) {
	if strings.HasPrefix(filename, ".") {
		return "", false
	}
	if n, ok := strings.CutSuffix(filename, gzipExt); ok && n != "" {
		return n, true
	}
	if n, ok := strings.CutSuffix(filename, jsonExt); ok && n != "" {
		return n, true
	}
	return "", false
}

// Read returns the slot document, decompressing gzipped slots.
func (b *Backend) Read(_ context.Context, name string) ([]byte, error) {
	if err := validName(name); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(b.path(name, true))
	if err == nil {
		return gunzip(data)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read slot %s: %w", name, err)
	}

	data, err = os.ReadFile(b.path(name, false))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", storage.ErrSlotNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read slot %s: %w", name, err)
	}
	return data, nil
}

// Write replaces the slot atomically through a temp file and rename.
func (b *Backend) Write(_ context.Context, name string, data []byte) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := os.MkdirAll(b.cfg.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create slot directory: %w", err)
	}

	payload := data
	if b.cfg.Compress {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		if _, err := gz.Write(data); err != nil {
			return fmt.Errorf("failed to compress slot %s: %w", name, err)
		}
		if err := gz.Close(); err != nil {
			return fmt.Errorf("failed to compress slot %s: %w", name, err)
		}
		payload = buf.Bytes()
	}

	tmp, err := os.CreateTemp(b.cfg.Dir, ".slot-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write slot %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write slot %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), b.path(name, b.cfg.Compress)); err != nil {
		return fmt.Errorf("failed to commit slot %s: %w", name, err)
	}

	// drop the other encoding so a slot only ever has one file
	if err := os.Remove(b.path(name, !b.cfg.Compress)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove stale slot file: %w", err)
	}
	return nil
}

// Delete removes every file belonging to the slot.
func (b *Backend) Delete(_ context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}

	found := false
	for _, gz := range []bool{false, true} {
		err := os.Remove(b.path(name, gz))
		switch {
		case err == nil:
			found = true
		case !errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("failed to delete slot %s: %w", name, err)
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", storage.ErrSlotNotFound, name)
	}
	return nil
}

func (b *Backend) path(name string, gz bool) string {
	if gz {
		return filepath.Join(b.cfg.Dir, name+gzipExt)
	}
	return filepath.Join(b.cfg.Dir, name+jsonExt)
}

func validName(name string) error {
	if name == "" || strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid slot name %q", name)
	}
	return nil
}

func gunzip(data []byte) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open gzip slot: %w", err)
	}
	defer gz.Close()

	out, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress slot: %w", err)
	}
	return out, nil
}
