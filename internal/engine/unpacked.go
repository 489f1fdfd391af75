package engine

import (
	"context"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/OCAP2/persistentrotation/pkg/core"
	"github.com/OCAP2/persistentrotation/pkg/host"
	"github.com/OCAP2/persistentrotation/pkg/orientation"
)

// updateUnpacked tracks the measured state of a vessel under physics.
func (e *Engine) updateUnpacked(v host.Vessel, rec *core.Record, auth core.ControlAuthority) Path {
	av := v.AngularVelocity()
	mode := rec.Mode()

	// snap jitter to zero so it does not accumulate while packed
	if auth != core.AuthorityDisabled && mode != core.MomentumHold &&
		orientation.Magnitude(av) < e.deps.Config.MomentumThreshold {
		rec.Momentum = orientation.Vec{}
	} else {
		rec.Momentum = av
	}

	if mode == core.MomentumHold {
		if ctl := v.Control(); ctl != nil {
			ctl.SetRoll(RollCommand(rec.DesiredRPM, CurrentRPM(av)))
		}
	}

	rec.Rotation = v.Rotation()
	rec.PlanetariumReferenceAngle = e.deps.Host.FrameAngle()

	if mode == core.RotationHold && !rec.Reference.IsNone() {
		if target, ok := e.resolve(v, rec); ok {
			pos := v.Position()
			targetPos := target.Position()
			rec.Direction = orientation.Direction(pos, targetPos)

			if auth == core.AuthorityRelativeHold {
				if rec.LastActive && rec.LastReference == rec.Reference {
					e.adjustSAS(v, rec, targetPos)
				}
				rec.LastActive = true
			} else {
				rec.LastActive = false
			}
			rec.LastPosition = r3.Sub(pos, targetPos)
			return PathUnpacked
		}
	}

	rec.LastActive = false
	rec.LastPosition = orientation.Vec{}
	return PathUnpacked
}

// adjustSAS rotates the locked attitude-hold heading by how far the vessel
// moved around its reference since the previous tick.
func (e *Engine) adjustSAS(v host.Vessel, rec *core.Record, targetPos orientation.Vec) {
	ap := v.Autopilot()
	if ap == nil {
		return
	}
	relative := r3.Sub(v.Position(), targetPos)
	delta := orientation.ShortestArc(rec.LastPosition, relative)
	ap.SetLockedHeading(delta.Mul(ap.LockedHeading()).Normalize())

	e.stats.SASAdjustments++
	e.sasAdjustments.Add(context.Background(), 1)
}
