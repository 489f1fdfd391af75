package engine

import (
	"context"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/OCAP2/persistentrotation/pkg/core"
	"github.com/OCAP2/persistentrotation/pkg/host"
	"github.com/OCAP2/persistentrotation/pkg/orientation"
)

// updatePacked synthesizes rotation for a vessel the host is not simulating.
func (e *Engine) updatePacked(v host.Vessel, rec *core.Record, auth core.ControlAuthority) Path {
	rec.LastActive = false

	if !v.Loaded() {
		return PathUnloaded
	}
	if v.Situation().Resting() {
		return PathResting
	}

	if auth != core.AuthorityDisabled &&
		rec.Mode() == core.RotationHold &&
		!rec.Reference.IsNone() &&
		orientation.Magnitude(rec.Momentum) < e.deps.Config.MomentumThreshold &&
		rec.Reference == rec.LastReference {
		if target, ok := e.resolve(v, rec); ok {
			e.packedRotation(v, rec, target)
			return PathPackedRotation
		}
	}

	e.packedSpin(v, rec)
	return PathPackedSpin
}

// packedRotation turns the vessel so that it keeps the attitude it had
// relative to its reference when the snapshot was taken.
func (e *Engine) packedRotation(v host.Vessel, rec *core.Record, target host.Target) {
	shift := orientation.FrameShift(rec.PlanetariumReferenceAngle, e.deps.Host.FrameAngle())
	from := shift.Rotate(rec.Direction)
	to := r3.Sub(target.Position(), v.Position())

	delta := orientation.ShortestArc(from, to)
	v.SetRotation(delta.Mul(shift.Mul(rec.Rotation)).Normalize())

	e.stats.PackedRotations++
	e.packedRotations.Add(context.Background(), 1)
}

// packedSpin integrates the stored angular velocity by one tick.
func (e *Engine) packedSpin(v host.Vessel, rec *core.Record) {
	speed := orientation.Magnitude(rec.Momentum)
	if speed == 0 {
		return
	}
	axis := v.ReferenceRotation().Rotate(rec.Momentum)
	step := orientation.AngleAxis(speed*e.deps.Host.TimeWarpRate(), axis)
	v.SetRotation(step.Mul(v.Rotation()).Normalize())

	e.stats.PackedSpins++
	e.packedSpins.Add(context.Background(), 1)
}
