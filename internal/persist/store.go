package persist

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/OCAP2/persistentrotation/internal/storage"
)

// ErrNoSnapshot is returned by Load when no readable slot exists.
var ErrNoSnapshot = errors.New("no snapshot available")

// SlotPrefix starts every slot name written by Store.
const SlotPrefix = "rotation-"

// DefaultMaxSlots is used when a Store is created with maxSlots <= 0.
const DefaultMaxSlots = 10

// SlotName returns the slot name for a snapshot taken at ts. Names of
// non-negative times sort in time order.
func SlotName(ts float64) string {
	return fmt.Sprintf("%s%016.3f", SlotPrefix, ts)
}

// SlotTime parses the time back out of a slot name.
func SlotTime(name string) (float64, bool) {
	raw, ok := strings.CutPrefix(name, SlotPrefix)
	if !ok {
		return 0, false
	}
	ts, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return ts, true
}

// Selection describes which slot Load picked.
type Selection struct {
	Slot      string
	Timestamp float64
	// Newest is the latest timestamp across all readable slots.
	Newest float64
	// Reverted is set when a newer slot than the selected one exists, which
	// means the player loaded an older save.
	Reverted bool
	Skipped  []string
}

// SlotInfo is one entry of Slots.
type SlotInfo struct {
	Name      string
	Timestamp float64
	Vessels   int
	Err       error
}

// Store saves and selects snapshots on a storage backend.
type Store struct {
	backend  storage.Backend
	maxSlots int
	logger   *slog.Logger
}

// NewStore creates a Store. maxSlots bounds the slots kept after each save.
func NewStore(backend storage.Backend, maxSlots int, logger *slog.Logger) *Store {
	if maxSlots <= 0 {
		maxSlots = DefaultMaxSlots
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		backend:  backend,
		maxSlots: maxSlots,
		logger:   logger,
	}
}

// Backend returns the underlying slot backend.
func (s *Store) Backend() storage.Backend {
	return s.backend
}

// Save writes snap to its slot and prunes the oldest slots beyond the
// retention limit. It returns the slot name.
func (s *Store) Save(ctx context.Context, snap Snapshot) (string, error) {
	data, err := snap.Encode()
	if err != nil {
		return "", err
	}
	name := SlotName(snap.Timestamp)
	if err := s.backend.Write(ctx, name, data); err != nil {
		return "", fmt.Errorf("failed to save slot %s: %w", name, err)
	}
	s.logger.Debug("Saved rotation snapshot", "slot", name, "vessels", len(snap.Vessels))

	if err := s.prune(ctx); err != nil {
		s.logger.Warn("Failed to prune old slots", "error", err)
	}
	return name, nil
}

func (s *Store) prune(ctx context.Context) error {
	names, err := s.backend.List(ctx)
	if err != nil {
		return err
	}

	type slot struct {
		name string
		ts   float64
	}
	var slots []slot
	for _, n := range names {
		if ts, ok := SlotTime(n); ok {
			slots = append(slots, slot{n, ts})
		}
	}
	if len(slots) <= s.maxSlots {
		return nil
	}
	slices.SortFunc(slots, func(a, b slot) int {
		return cmp.Compare(a.ts, b.ts)
	})

	var errs []error
	for _, old := range slots[:len(slots)-s.maxSlots] {
		if err := s.backend.Delete(ctx, old.name); err != nil && !errors.Is(err, storage.ErrSlotNotFound) {
			errs = append(errs, err)
			continue
		}
		s.logger.Debug("Pruned slot", "slot", old.name)
	}
	return errors.Join(errs...)
}

// Load reads every slot and returns the one whose timestamp is closest to
// now. Unreadable slots are skipped. Ties go to the later slot.
func (s *Store) Load(ctx context.Context, now float64) (Snapshot, Selection, error) {
	names, err := s.backend.List(ctx)
	if err != nil {
		return Snapshot{}, Selection{}, fmt.Errorf("failed to list slots: %w", err)
	}

	var (
		best    Snapshot
		sel     Selection
		found   bool
		bestGap = math.Inf(1)
	)
	for _, name := range names {
		data, err := s.backend.Read(ctx, name)
		if err != nil {
			s.logger.Warn("Skipping unreadable slot", "slot", name, "error", err)
			sel.Skipped = append(sel.Skipped, name)
			continue
		}
		snap, err := Decode(data)
		if err != nil {
			s.logger.Warn("Skipping malformed slot", "slot", name, "error", err)
			sel.Skipped = append(sel.Skipped, name)
			continue
		}

		if !found || snap.Timestamp > sel.Newest {
			sel.Newest = snap.Timestamp
		}
		gap := math.Abs(snap.Timestamp - now)
		if !found || gap < bestGap || (gap == bestGap && snap.Timestamp > best.Timestamp) {
			best, bestGap = snap, gap
			sel.Slot = name
			sel.Timestamp = snap.Timestamp
		}
		found = true
	}

	if !found {
		return Snapshot{}, sel, ErrNoSnapshot
	}
	sel.Reverted = sel.Timestamp < sel.Newest
	s.logger.Info("Selected rotation snapshot",
		"slot", sel.Slot,
		"timestamp", sel.Timestamp,
		"now", now,
		"reverted", sel.Reverted,
	)
	return best, sel, nil
}

// Rebase deletes every slot and saves snap as the only one. It is used
// after a revert so newer slots cannot resurface.
func (s *Store) Rebase(ctx context.Context, snap Snapshot) (string, error) {
	if _, err := s.Purge(ctx); err != nil {
		return "", err
	}
	return s.Save(ctx, snap)
}

// Purge deletes every slot and returns how many were removed.
func (s *Store) Purge(ctx context.Context) (int, error) {
	names, err := s.backend.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list slots: %w", err)
	}
	removed := 0
	for _, name := range names {
		if err := s.backend.Delete(ctx, name); err != nil && !errors.Is(err, storage.ErrSlotNotFound) {
			return removed, fmt.Errorf("failed to delete slot %s: %w", name, err)
		}
		removed++
	}
	return removed, nil
}

// Slots describes every slot, including unreadable ones.
func (s *Store) Slots(ctx context.Context) ([]SlotInfo, error) {
	names, err := s.backend.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	out := make([]SlotInfo, 0, len(names))
	for _, name := range names {
		info := SlotInfo{Name: name}
		snap, err := s.Read(ctx, name)
		if err != nil {
			info.Err = err
		} else {
			info.Timestamp = snap.Timestamp
			info.Vessels = len(snap.Vessels)
		}
		out = append(out, info)
	}
	return out, nil
}

// Read decodes a single slot.
func (s *Store) Read(ctx context.Context, name string) (Snapshot, error) {
	data, err := s.backend.Read(ctx, name)
	if err != nil {
		return Snapshot{}, err
	}
	return Decode(data)
}
