// Package host declares what the reconciliation engine needs from the
// simulation it runs inside. The embedding game binding implements these
// interfaces; hosttest provides an in-memory version for tests.
package host

import (
	"github.com/google/uuid"

	"github.com/OCAP2/persistentrotation/pkg/core"
	"github.com/OCAP2/persistentrotation/pkg/orientation"
)

// Situation is where a vessel is relative to its main body.
type Situation uint8

const (
	SituationOrbiting Situation = iota
	SituationLanded
	SituationSplashed
	SituationPrelaunch
	SituationFlying
	SituationSubOrbital
	SituationEscaping
	SituationDocked
)

// Resting reports whether the vessel sits on a surface.
func (s Situation) Resting() bool {
	return s == SituationLanded || s == SituationSplashed
}

// VesselType is the host classification of a vessel.
type VesselType uint8

const (
	VesselShip VesselType = iota
	VesselProbe
	VesselStation
	VesselBase
	VesselLander
	VesselRover
	VesselPlane
	VesselRelay
	VesselEVA
	VesselFlag
	VesselDebris
	VesselSpaceObject
	VesselUnknown
)

// Tumbles reports whether freshly seen vessels of this type get a random
// spin: debris and asteroid-like objects.
func (t VesselType) Tumbles() bool {
	return t == VesselDebris || t == VesselSpaceObject || t == VesselUnknown
}

// AutopilotMode is the stock attitude-hold target.
type AutopilotMode uint8

const (
	AutopilotStabilityAssist AutopilotMode = iota
	AutopilotPrograde
	AutopilotRetrograde
	AutopilotNormal
	AutopilotAntinormal
	AutopilotRadialIn
	AutopilotRadialOut
	AutopilotTarget
	AutopilotAntiTarget
	AutopilotManeuver
)

// Target is anything that can be picked as a reference: a Body or a Vessel.
type Target interface {
	Name() string
	Position() orientation.Vec
}

// Body is a celestial body.
type Body interface {
	Target
}

// Autopilot is the host's stock attitude-hold subsystem.
type Autopilot interface {
	Enabled() bool
	Mode() AutopilotMode
	LockedHeading() orientation.Quat
	SetLockedHeading(orientation.Quat)
}

// ControlSurface is the pilot input channel of a vessel.
type ControlSurface interface {
	SetRoll(float64)
}

// RigidBody is the physical body of one part. Impulses are velocity changes.
type RigidBody interface {
	Position() orientation.Vec
	AddTorque(orientation.Vec) error
	AddForce(orientation.Vec) error
}

// Part is one structural part of a vessel.
type Part interface {
	Name() string
	// RigidBody returns nil when the part has no physical body.
	RigidBody() RigidBody
}

// Vessel is a live host vessel.
type Vessel interface {
	Target
	ID() uuid.UUID
	Type() VesselType
	Packed() bool
	Loaded() bool
	Situation() Situation
	Controllable() bool

	Rotation() orientation.Quat
	SetRotation(orientation.Quat)
	// ReferenceRotation is the rotation of the vessel's control reference.
	ReferenceRotation() orientation.Quat
	AngularVelocity() orientation.Vec
	CenterOfMass() orientation.Vec
	MainBody() Body

	// Autopilot returns nil when the vessel has no attitude hold.
	Autopilot() Autopilot
	// Control returns nil when no live control surface is available.
	Control() ControlSurface
	Parts() []Part
	// TargetObject returns the player's current target, or nil.
	TargetObject() Target
}

// Host is the running simulation.
type Host interface {
	Vessels() []Vessel
	Vessel(id uuid.UUID) (Vessel, bool)
	Bodies() []Body
	Body(name string) (Body, bool)
	// Star is the central body of the system.
	Star() Body
	TimeWarpRate() float64
	// FrameAngle is the rotation of the global coordinate frame in degrees.
	FrameAngle() float64
	UniversalTime() float64
}

// ExternalAutopilot is a third-party attitude controller.
type ExternalAutopilot interface {
	TargetMode(v Vessel) (core.TargetMode, error)
}

// ExternalAutopilotProvider is implemented by hosts that can expose a
// third-party autopilot. It is detected at startup.
type ExternalAutopilotProvider interface {
	ExternalAutopilot() (ExternalAutopilot, error)
}
