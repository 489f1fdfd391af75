package engine

import (
	"math"

	"github.com/OCAP2/persistentrotation/pkg/core"
	"github.com/OCAP2/persistentrotation/pkg/host"
	"github.com/OCAP2/persistentrotation/pkg/orientation"
)

// ClassifyAuthority decides who holds v's attitude this tick, given whether
// the external autopilot is steering it. An external autopilot always wins
// over the stock hold so the two never fight.
func ClassifyAuthority(v host.Vessel, externalActive bool) core.ControlAuthority {
	if !v.Controllable() {
		return core.AuthorityDisabled
	}
	if externalActive {
		return core.AuthorityExternalAbsolute
	}
	ap := v.Autopilot()
	if ap == nil || !ap.Enabled() {
		return core.AuthorityOff
	}
	if ap.Mode() == host.AutopilotStabilityAssist {
		return core.AuthorityRelativeHold
	}
	return core.AuthorityExternalAbsolute
}

// CurrentRPM converts an angular velocity in rad/s to revolutions per minute.
func CurrentRPM(angularVelocity orientation.Vec) float64 {
	return orientation.Magnitude(angularVelocity) * 60 / (2 * math.Pi)
}

// RollCommand is the momentum-hold roll input driving the spin rate toward
// desired. A negative desired rate spins the other way.
func RollCommand(desired, current float64) float64 {
	if desired < 0 {
		return -clamp(-desired-current, -1, 1)
	}
	return clamp(desired-current, -1, 1)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
