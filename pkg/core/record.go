// pkg/core/record.go
package core

import (
	"time"

	"github.com/google/uuid"

	"github.com/OCAP2/persistentrotation/pkg/orientation"
)

// Record is the persistent rotation state of one vessel.
type Record struct {
	ID uuid.UUID

	// Momentum is the angular velocity in the vessel's reference frame.
	// Synthetic while packed, measured while unpacked.
	Momentum orientation.Vec

	RotationModeActive bool
	MomentumModeActive bool
	DynamicReference   bool

	// Rotation and Direction are the two halves of a frame delta: the
	// orientation and the unit direction to Reference at the last snapshot.
	Rotation  orientation.Quat
	Direction orientation.Vec
	Reference Reference

	DesiredRPM float64

	// One-tick-lagged observation state for drift detection.
	LastPosition  orientation.Vec
	LastReference Reference
	LastActive    bool

	// PlanetariumReferenceAngle is the global frame angle at the last snapshot.
	PlanetariumReferenceAngle float64

	// SmartAssState is the external autopilot target mode seen last tick.
	SmartAssState TargetMode

	// Processed marks the record as seen during the current tick.
	Processed bool
	// Provisional records wait for the next tick to be finalized.
	Provisional bool
}

// NewRecord returns a blank record for id.
func NewRecord(id uuid.UUID) *Record {
	return &Record{
		ID:       id,
		Rotation: orientation.Identity(),
	}
}

// Mode derives the RotationMode from the two mode flags. The rotation flag
// wins while both are set mid-switch.
func (r *Record) Mode() RotationMode {
	switch {
	case r.RotationModeActive:
		return RotationHold
	case r.MomentumModeActive:
		return MomentumHold
	default:
		return Idle
	}
}

// ClearReference unsets both the current and the lagged reference.
func (r *Record) ClearReference() {
	r.Reference = NoReference()
	r.LastReference = NoReference()
	r.LastActive = false
}

// Sample is one per-tick observation of a vessel exported to telemetry.
type Sample struct {
	Vessel    uuid.UUID
	Name      string
	Time      time.Time
	Tick      uint64
	Packed    bool
	Path      string
	Authority ControlAuthority
	Mode      RotationMode
	Momentum  orientation.Vec
	Rotation  orientation.Quat
}
