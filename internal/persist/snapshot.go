// Package persist turns the registry into save-slot documents and back, and
// picks which slot to restore when a session loads.
package persist

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/OCAP2/persistentrotation/internal/engine"
	"github.com/OCAP2/persistentrotation/internal/parser"
	"github.com/OCAP2/persistentrotation/internal/registry"
	"github.com/OCAP2/persistentrotation/internal/session"
	"github.com/OCAP2/persistentrotation/pkg/core"
	"github.com/OCAP2/persistentrotation/pkg/host"
)

// SnapshotVersion is the document version written by this package.
const SnapshotVersion = 1

// VesselEntry is the persisted part of one record. Vectors and quaternions
// are component-wise decimal text.
type VesselEntry struct {
	Momentum           string  `json:"momentum"`
	RotationModeActive bool    `json:"rotationModeActive"`
	DynamicReference   bool    `json:"dynamicReference"`
	Rotation           string  `json:"rotation"`
	Direction          string  `json:"direction"`
	Reference          string  `json:"reference"`
	MomentumModeActive bool    `json:"momentumModeActive"`
	DesiredRPM         float64 `json:"desiredRPM"`
}

// Snapshot is one save slot document.
type Snapshot struct {
	Version              int                    `json:"version"`
	Timestamp            float64                `json:"timestamp"`
	DefaultReferenceMode string                 `json:"defaultReferenceMode"`
	Vessels              map[string]VesselEntry `json:"vessels"`
}

// FromRecords builds a snapshot taken at universal time ts. Provisional
// records are left out.
func FromRecords(ts float64, mode core.ReferenceMode, records []core.Record) Snapshot {
	snap := Snapshot{
		Version:              SnapshotVersion,
		Timestamp:            ts,
		DefaultReferenceMode: mode.String(),
		Vessels:              make(map[string]VesselEntry, len(records)),
	}
	for _, rec := range records {
		if rec.Provisional {
			continue
		}
		snap.Vessels[rec.ID.String()] = VesselEntry{
			Momentum:           parser.FormatVec(rec.Momentum),
			RotationModeActive: rec.RotationModeActive,
			DynamicReference:   rec.DynamicReference,
			Rotation:           parser.FormatQuat(rec.Rotation),
			Direction:          parser.FormatVec(rec.Direction),
			Reference:          rec.Reference.String(),
			MomentumModeActive: rec.MomentumModeActive,
			DesiredRPM:         rec.DesiredRPM,
		}
	}
	return snap
}

// Capture snapshots the registry at the host's current time.
func Capture(h host.Host, reg *registry.Registry, sess *session.Context) Snapshot {
	return FromRecords(h.UniversalTime(), sess.DefaultReferenceMode(), reg.Snapshot())
}

// Encode serializes the snapshot.
func (s Snapshot) Encode() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// Decode parses and validates a slot document. Every vessel entry must be
// well formed.
func Decode(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if s.Version < 1 || s.Version > SnapshotVersion {
		return Snapshot{}, fmt.Errorf("unsupported snapshot version %d", s.Version)
	}
	for key, entry := range s.Vessels {
		if _, err := entry.Record(key); err != nil {
			return Snapshot{}, err
		}
	}
	return s, nil
}

// Record converts the entry for the vessel keyed by id into a record. The
// reference is classified but not resolved.
func (e VesselEntry) Record(id string) (*core.Record, error) {
	vid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("vessel key %q: %w", id, err)
	}
	rec := core.NewRecord(vid)

	if rec.Momentum, err = parser.ParseVec(e.Momentum); err != nil {
		return nil, fmt.Errorf("vessel %s momentum: %w", id, err)
	}
	if rec.Rotation, err = parser.ParseQuat(e.Rotation); err != nil {
		return nil, fmt.Errorf("vessel %s rotation: %w", id, err)
	}
	if rec.Direction, err = parser.ParseVec(e.Direction); err != nil {
		return nil, fmt.Errorf("vessel %s direction: %w", id, err)
	}
	rec.RotationModeActive = e.RotationModeActive
	rec.MomentumModeActive = e.MomentumModeActive
	rec.DynamicReference = e.DynamicReference
	rec.DesiredRPM = e.DesiredRPM
	rec.Reference = parser.ParseReferenceToken(e.Reference)
	return rec, nil
}

// ApplyReport summarizes what Apply did.
type ApplyReport struct {
	Generated  int
	Restored   int
	Discarded  int
	Unresolved []uuid.UUID
}

// Apply replaces the registry contents: every live vessel gets a fresh
// record, overridden by its snapshot entry when one exists. Entries for
// vessels the host no longer has are discarded. References that no longer
// resolve are cleared.
func Apply(snap Snapshot, h host.Host, reg *registry.Registry, sess *session.Context) ApplyReport {
	sess.SetDefaultReferenceMode(core.ParseReferenceMode(snap.DefaultReferenceMode))
	reg.Reset()

	var report ApplyReport
	live := make(map[string]struct{})
	for _, v := range h.Vessels() {
		reg.Generate(v)
		report.Generated++

		key := v.ID().String()
		live[key] = struct{}{}
		entry, ok := snap.Vessels[key]
		if !ok {
			continue
		}
		rec, err := entry.Record(key)
		if err != nil {
			continue
		}
		if !rec.Reference.IsNone() {
			if _, ok := engine.ResolveReference(h, rec.Reference, rec.ID); !ok {
				rec.Reference = core.NoReference()
				report.Unresolved = append(report.Unresolved, rec.ID)
			}
		}
		reg.Put(rec)
		report.Restored++
	}

	for key := range snap.Vessels {
		if _, ok := live[key]; !ok {
			report.Discarded++
		}
	}
	slices.SortFunc(report.Unresolved, func(a, b uuid.UUID) int {
		return slices.Compare(a[:], b[:])
	})
	return report
}
