package engine

import (
	"context"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/OCAP2/persistentrotation/pkg/core"
	"github.com/OCAP2/persistentrotation/pkg/host"
	"github.com/OCAP2/persistentrotation/pkg/orientation"
)

// OnVesselCreate registers a provisional record for a new vessel. The host
// cannot report the vessel's physical state yet, so the record is finalized
// at the start of the next tick.
func (e *Engine) OnVesselCreate(id uuid.UUID) {
	if _, ok := e.deps.Registry.Get(id); !ok {
		rec := core.NewRecord(id)
		rec.Provisional = true
		e.deps.Registry.Put(rec)
	}
	if !e.pending.Contains(func(p uuid.UUID) bool { return p == id }) {
		e.pending.Push(id)
	}
}

// OnVesselWillDestroy drops every reference to the vessel. Its own record is
// pruned at the end of the first tick it is missing from the host.
func (e *Engine) OnVesselWillDestroy(id uuid.UUID) {
	changed := e.deps.Registry.DropReferencesTo(id)
	e.pending.Remove(func(p uuid.UUID) bool { return p == id })
	if changed > 0 {
		e.deps.Logger.Debug("Dropped references to destroyed vessel", "vessel", id, "records", changed)
	}
}

// OnVesselPack snapshots the state the packed branch will integrate from.
func (e *Engine) OnVesselPack(v host.Vessel) {
	rec := e.deps.Registry.Find(v)

	held := false
	if ap := v.Autopilot(); ap != nil && ap.Enabled() {
		held = true
	}
	if held && rec.Mode() != core.MomentumHold {
		rec.Momentum = orientation.Vec{}
	} else {
		rec.Momentum = v.AngularVelocity()
	}

	rec.Rotation = v.Rotation()
	rec.PlanetariumReferenceAngle = e.deps.Host.FrameAngle()
	if target, ok := e.resolve(v, rec); ok {
		rec.Direction = orientation.Direction(v.Position(), target.Position())
	} else {
		rec.Direction = orientation.Vec{}
	}
	rec.LastActive = false
}

// OnVesselUnpack carries the packed state back into physics: a held vessel
// is turned to its reference-relative attitude, anything else receives its
// stored angular momentum as an impulse.
func (e *Engine) OnVesselUnpack(v host.Vessel) {
	if v.Situation().Resting() {
		return
	}
	rec := e.deps.Registry.Find(v)
	auth := e.Classify(v)
	ap := v.Autopilot()

	if auth == core.AuthorityRelativeHold &&
		rec.Mode() == core.RotationHold &&
		orientation.Magnitude(rec.Momentum) < e.deps.Config.MomentumThreshold {
		if target, ok := e.resolve(v, rec); ok {
			e.restoreRelativeRotation(v, rec, target, ap)
			return
		}
	}

	if ap != nil && ap.Enabled() {
		ap.SetLockedHeading(v.ReferenceRotation())
	}
	e.impartMomentum(v, rec)
}

func (e *Engine) restoreRelativeRotation(v host.Vessel, rec *core.Record, target host.Target, ap host.Autopilot) {
	shift := orientation.FrameShift(rec.PlanetariumReferenceAngle, e.deps.Host.FrameAngle())
	current := orientation.Direction(v.Position(), target.Position())
	rot := orientation.ShortestArc(shift.Rotate(rec.Direction), current).
		Mul(shift.Mul(rec.Rotation)).
		Normalize()

	// keep the control reference offset from the vessel transform
	offset := v.Rotation().Conj().Mul(v.ReferenceRotation())
	v.SetRotation(rot)
	if ap != nil {
		ap.SetLockedHeading(rot.Mul(offset).Normalize())
	}
	rec.LastActive = false

	e.stats.UnpackRotations++
}

// impartMomentum gives every part the velocity change that makes the whole
// vessel spin at the stored angular velocity about its center of mass. Parts
// without a physical body are skipped.
func (e *Engine) impartMomentum(v host.Vessel, rec *core.Record) {
	if orientation.Magnitude(rec.Momentum) == 0 {
		return
	}
	omega := v.ReferenceRotation().Rotate(rec.Momentum)
	com := v.CenterOfMass()

	applied := 0
	for _, p := range v.Parts() {
		rb := p.RigidBody()
		if rb == nil {
			continue
		}
		if err := rb.AddTorque(omega); err != nil {
			e.deps.Logger.Warn("Failed to apply torque", "vessel", rec.ID, "part", p.Name(), "error", err)
			continue
		}
		lever := r3.Sub(rb.Position(), com)
		if err := rb.AddForce(r3.Cross(omega, lever)); err != nil {
			e.deps.Logger.Warn("Failed to apply force", "vessel", rec.ID, "part", p.Name(), "error", err)
			continue
		}
		applied++
	}

	e.stats.Impulses++
	e.impulses.Add(context.Background(), 1)
	e.deps.Logger.Debug("Imparted stored momentum", "vessel", rec.ID, "parts", applied)
}
