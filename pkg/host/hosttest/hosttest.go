// Package hosttest provides an in-memory host.Host for tests.
package hosttest

import (
	"errors"

	"github.com/google/uuid"

	"github.com/OCAP2/persistentrotation/pkg/core"
	"github.com/OCAP2/persistentrotation/pkg/host"
	"github.com/OCAP2/persistentrotation/pkg/orientation"
)

// Body is a fixed-position celestial body.
type Body struct {
	Label string
	Pos   orientation.Vec
}

func (b *Body) Name() string              { return b.Label }
func (b *Body) Position() orientation.Vec { return b.Pos }

// Autopilot records heading writes.
type Autopilot struct {
	On      bool
	Target  host.AutopilotMode
	Heading orientation.Quat
	Sets    int
}

func (a *Autopilot) Enabled() bool                   { return a.On }
func (a *Autopilot) Mode() host.AutopilotMode        { return a.Target }
func (a *Autopilot) LockedHeading() orientation.Quat { return a.Heading }
func (a *Autopilot) SetLockedHeading(q orientation.Quat) {
	a.Heading = q
	a.Sets++
}

// Control records the last roll input.
type Control struct {
	Roll    float64
	Updates int
}

func (c *Control) SetRoll(v float64) {
	c.Roll = v
	c.Updates++
}

// RigidBody records every impulse it receives.
type RigidBody struct {
	Pos     orientation.Vec
	Torques []orientation.Vec
	Forces  []orientation.Vec
	Err     error
}

func (r *RigidBody) Position() orientation.Vec { return r.Pos }

func (r *RigidBody) AddTorque(v orientation.Vec) error {
	if r.Err != nil {
		return r.Err
	}
	r.Torques = append(r.Torques, v)
	return nil
}

func (r *RigidBody) AddForce(v orientation.Vec) error {
	if r.Err != nil {
		return r.Err
	}
	r.Forces = append(r.Forces, v)
	return nil
}

// Part optionally carries a rigid body.
type Part struct {
	Label string
	Body  *RigidBody
}

func (p *Part) Name() string { return p.Label }

func (p *Part) RigidBody() host.RigidBody {
	if p.Body == nil {
		return nil
	}
	return p.Body
}

// Vessel is a mutable fake vessel.
type Vessel struct {
	UUID       uuid.UUID
	Label      string
	Kind       host.VesselType
	IsPacked   bool
	IsLoaded   bool
	Sit        host.Situation
	CanControl bool
	Pos        orientation.Vec
	Rot        orientation.Quat
	RefRot     orientation.Quat
	AngVel     orientation.Vec
	COM        orientation.Vec
	Main       *Body
	AP         *Autopilot
	Ctrl       *Control
	PartList   []*Part
	Targeted   host.Target

	RotationSets int
}

// NewVessel returns a loaded, controllable, unpacked vessel at the origin.
func NewVessel(name string) *Vessel {
	return &Vessel{
		UUID:       uuid.New(),
		Label:      name,
		IsLoaded:   true,
		CanControl: true,
		Rot:        orientation.Identity(),
		RefRot:     orientation.Identity(),
		Sit:        host.SituationOrbiting,
	}
}

func (v *Vessel) Name() string                        { return v.Label }
func (v *Vessel) Position() orientation.Vec           { return v.Pos }
func (v *Vessel) ID() uuid.UUID                       { return v.UUID }
func (v *Vessel) Type() host.VesselType               { return v.Kind }
func (v *Vessel) Packed() bool                        { return v.IsPacked }
func (v *Vessel) Loaded() bool                        { return v.IsLoaded }
func (v *Vessel) Situation() host.Situation           { return v.Sit }
func (v *Vessel) Controllable() bool                  { return v.CanControl }
func (v *Vessel) Rotation() orientation.Quat          { return v.Rot }
func (v *Vessel) ReferenceRotation() orientation.Quat { return v.RefRot }
func (v *Vessel) AngularVelocity() orientation.Vec    { return v.AngVel }
func (v *Vessel) CenterOfMass() orientation.Vec       { return v.COM }
func (v *Vessel) TargetObject() host.Target           { return v.Targeted }

func (v *Vessel) SetRotation(q orientation.Quat) {
	v.Rot = q
	v.RotationSets++
}

func (v *Vessel) MainBody() host.Body {
	if v.Main == nil {
		return nil
	}
	return v.Main
}

func (v *Vessel) Autopilot() host.Autopilot {
	if v.AP == nil {
		return nil
	}
	return v.AP
}

func (v *Vessel) Control() host.ControlSurface {
	if v.Ctrl == nil {
		return nil
	}
	return v.Ctrl
}

func (v *Vessel) Parts() []host.Part {
	parts := make([]host.Part, len(v.PartList))
	for i, p := range v.PartList {
		parts[i] = p
	}
	return parts
}

// Host is an in-memory simulation.
type Host struct {
	VesselList []*Vessel
	BodyList   []*Body
	StarBody   *Body
	Warp       float64
	Frame      float64
	UT         float64
}

// New returns a host with a star named Sun and warp rate 1.
func New() *Host {
	sun := &Body{Label: "Sun"}
	return &Host{
		BodyList: []*Body{sun},
		StarBody: sun,
		Warp:     1,
	}
}

// AddBody registers a body and returns it.
func (h *Host) AddBody(name string, pos orientation.Vec) *Body {
	b := &Body{Label: name, Pos: pos}
	h.BodyList = append(h.BodyList, b)
	return b
}

// AddVessel registers v and returns it.
func (h *Host) AddVessel(v *Vessel) *Vessel {
	h.VesselList = append(h.VesselList, v)
	return v
}

// RemoveVessel drops the vessel with id.
func (h *Host) RemoveVessel(id uuid.UUID) {
	for i, v := range h.VesselList {
		if v.UUID == id {
			h.VesselList = append(h.VesselList[:i], h.VesselList[i+1:]...)
			return
		}
	}
}

func (h *Host) Vessels() []host.Vessel {
	out := make([]host.Vessel, len(h.VesselList))
	for i, v := range h.VesselList {
		out[i] = v
	}
	return out
}

func (h *Host) Vessel(id uuid.UUID) (host.Vessel, bool) {
	for _, v := range h.VesselList {
		if v.UUID == id {
			return v, true
		}
	}
	return nil, false
}

func (h *Host) Bodies() []host.Body {
	out := make([]host.Body, len(h.BodyList))
	for i, b := range h.BodyList {
		out[i] = b
	}
	return out
}

func (h *Host) Body(name string) (host.Body, bool) {
	for _, b := range h.BodyList {
		if b.Label == name {
			return b, true
		}
	}
	return nil, false
}

func (h *Host) Star() host.Body {
	if h.StarBody == nil {
		return nil
	}
	return h.StarBody
}

func (h *Host) TimeWarpRate() float64  { return h.Warp }
func (h *Host) FrameAngle() float64    { return h.Frame }
func (h *Host) UniversalTime() float64 { return h.UT }

// ErrAutopilotMissing is returned by a provider configured without an autopilot.
var ErrAutopilotMissing = errors.New("external autopilot not installed")

// ExternalAutopilot reports fixed target modes per vessel.
type ExternalAutopilot struct {
	Modes map[uuid.UUID]core.TargetMode
	Err   error
	Panic bool
	Calls int
}

func (e *ExternalAutopilot) TargetMode(v host.Vessel) (core.TargetMode, error) {
	e.Calls++
	if e.Panic {
		panic("external autopilot exploded")
	}
	if e.Err != nil {
		return core.TargetOff, e.Err
	}
	return e.Modes[v.ID()], nil
}

// HostWithAutopilot is a Host that also exposes a third-party autopilot.
type HostWithAutopilot struct {
	*Host
	Autopilot *ExternalAutopilot
}

func (h *HostWithAutopilot) ExternalAutopilot() (host.ExternalAutopilot, error) {
	if h.Autopilot == nil {
		return nil, ErrAutopilotMissing
	}
	return h.Autopilot, nil
}

var (
	_ host.Host                      = (*Host)(nil)
	_ host.ExternalAutopilotProvider = (*HostWithAutopilot)(nil)
	_ host.Vessel                    = (*Vessel)(nil)
	_ host.Body                      = (*Body)(nil)
)
