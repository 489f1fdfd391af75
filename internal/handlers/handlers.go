package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/OCAP2/persistentrotation/internal/engine"
	"github.com/OCAP2/persistentrotation/internal/logging"
	"github.com/OCAP2/persistentrotation/internal/monitor"
	"github.com/OCAP2/persistentrotation/internal/parser"
	"github.com/OCAP2/persistentrotation/internal/persist"
	"github.com/OCAP2/persistentrotation/internal/registry"
	"github.com/OCAP2/persistentrotation/internal/session"
	"github.com/OCAP2/persistentrotation/pkg/core"
	"github.com/OCAP2/persistentrotation/pkg/host"
	"github.com/OCAP2/persistentrotation/pkg/orientation"
)

var (
	// ErrNoActiveVessel is returned by presentation calls when no vessel is
	// under player control.
	ErrNoActiveVessel = errors.New("no active vessel")
	// ErrNoTarget is returned when the active vessel has nothing targeted.
	ErrNoTarget = errors.New("no target selected")
	// ErrInvalidTarget is returned for targets that cannot be a reference.
	ErrInvalidTarget = errors.New("target cannot be used as reference")
	// ErrUnknownVessel is returned by host signals naming a vessel the host
	// does not know.
	ErrUnknownVessel = errors.New("unknown vessel")
)

// RevertError rejects an edit. Stored is the text the editor should show
// instead of the rejected entry.
type RevertError struct {
	Err    error
	Stored string
}

func (e *RevertError) Error() string { return e.Err.Error() }

func (e *RevertError) Unwrap() error { return e.Err }

// Reference labels returned by ReferenceName besides target names.
const (
	ReferenceLabelNone    = "none"
	ReferenceLabelDefault = "default"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Host     host.Host
	Registry *registry.Registry
	Engine   *engine.Engine
	Session  *session.Context
	Store    *persist.Store
	Parser   *parser.Parser
	// Monitor is optional.
	Monitor    *monitor.Service
	LogManager *logging.SlogManager
}

// Service answers presentation queries, applies presentation commands and
// forwards host signals to the engine. Every method runs on the host tick
// thread.
type Service struct {
	deps         Dependencies
	logger       *slog.Logger
	writeLogFunc func(functionName, data, level string)
}

// NewService creates a new handler service
func NewService(deps Dependencies) *Service {
	if deps.Parser == nil {
		deps.Parser = parser.NewParser(nil)
	}
	s := &Service{
		deps:   deps,
		logger: slog.Default(),
	}
	if deps.LogManager != nil {
		s.logger = deps.LogManager.Logger()
	}
	// Default writeLog function uses the logging manager
	s.writeLogFunc = func(functionName, data, level string) {
		if deps.LogManager != nil {
			deps.LogManager.WriteLog(functionName, data, level)
		}
	}
	return s
}

func (s *Service) writeLog(functionName, data, level string) {
	s.writeLogFunc(functionName, data, level)
}

// active returns the controlled vessel and its record.
func (s *Service) active() (host.Vessel, *core.Record, error) {
	id, ok := s.deps.Session.ActiveVessel()
	if !ok {
		return nil, nil, ErrNoActiveVessel
	}
	v, ok := s.deps.Host.Vessel(id)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s not loaded", ErrNoActiveVessel, id)
	}
	return v, s.deps.Registry.Find(v), nil
}

// Mode returns the hold mode of the active vessel.
func (s *Service) Mode() (core.RotationMode, error) {
	_, rec, err := s.active()
	if err != nil {
		return core.Idle, err
	}
	return rec.Mode(), nil
}

// ReferenceName returns "default" while the reference tracks the main body,
// "none" when unset, and otherwise the target's name.
func (s *Service) ReferenceName() (string, error) {
	_, rec, err := s.active()
	if err != nil {
		return "", err
	}
	return s.referenceLabel(rec), nil
}

func (s *Service) referenceLabel(rec *core.Record) string {
	switch {
	case rec.DynamicReference:
		return ReferenceLabelDefault
	case rec.Reference.IsNone():
		return ReferenceLabelNone
	case rec.Reference.Kind == core.RefVessel:
		if v, ok := s.deps.Host.Vessel(rec.Reference.Vessel); ok {
			return v.Name()
		}
	}
	return rec.Reference.String()
}

// RPMText returns the stored spin rate of the active vessel as editable text.
func (s *Service) RPMText() (string, error) {
	_, rec, err := s.active()
	if err != nil {
		return "", err
	}
	return parser.FormatRPM(rec.DesiredRPM), nil
}

// ActivateRotation switches the active vessel to rotation hold.
func (s *Service) ActivateRotation() error {
	_, rec, err := s.active()
	if err != nil {
		return err
	}
	rec.RotationModeActive = true
	rec.MomentumModeActive = false
	rec.LastActive = false
	return nil
}

// DeactivateRotation leaves rotation hold.
func (s *Service) DeactivateRotation() error {
	_, rec, err := s.active()
	if err != nil {
		return err
	}
	rec.RotationModeActive = false
	return nil
}

// ActivateMomentum parses text as the desired spin rate and switches the
// active vessel to momentum hold. On a parse failure nothing changes and a
// RevertError carries the stored rate as the text to show.
func (s *Service) ActivateMomentum(text string) (string, error) {
	_, rec, err := s.active()
	if err != nil {
		return "", err
	}
	rpm, err := parser.ParseRPM(text)
	if err != nil {
		stored := parser.FormatRPM(rec.DesiredRPM)
		return stored, &RevertError{Err: err, Stored: stored}
	}
	rec.DesiredRPM = rpm
	rec.MomentumModeActive = true
	rec.RotationModeActive = false
	return parser.FormatRPM(rpm), nil
}

// DeactivateMomentum leaves momentum hold.
func (s *Service) DeactivateMomentum() error {
	_, rec, err := s.active()
	if err != nil {
		return err
	}
	rec.MomentumModeActive = false
	return nil
}

// EditRPM stores a new spin rate without changing the mode. Invalid text is
// rejected with a RevertError carrying the stored rate.
func (s *Service) EditRPM(text string) (string, error) {
	_, rec, err := s.active()
	if err != nil {
		return "", err
	}
	rpm, err := parser.ParseRPM(text)
	if err != nil {
		s.logger.Debug("Reverting rpm entry", "vessel", rec.ID, "text", text)
		stored := parser.FormatRPM(rec.DesiredRPM)
		return stored, &RevertError{Err: err, Stored: stored}
	}
	rec.DesiredRPM = rpm
	return parser.FormatRPM(rpm), nil
}

// TargetReference uses the active vessel's current target as its reference.
// Only bodies and vessels qualify.
func (s *Service) TargetReference() (string, error) {
	v, rec, err := s.active()
	if err != nil {
		return "", err
	}
	target := v.TargetObject()
	if target == nil {
		return "", ErrNoTarget
	}
	return s.setReference(v, rec, target)
}

// SelectReference sets the reference to a named candidate: the star, any
// body, or another vessel by id or name.
func (s *Service) SelectReference(name string) (string, error) {
	v, rec, err := s.active()
	if err != nil {
		return "", err
	}
	target, ok := s.findTarget(v, name)
	if !ok {
		return "", fmt.Errorf("%w: %q not found", ErrInvalidTarget, name)
	}
	return s.setReference(v, rec, target)
}

func (s *Service) findTarget(self host.Vessel, name string) (host.Target, bool) {
	if star := s.deps.Host.Star(); star != nil && strings.EqualFold(name, star.Name()) {
		return star, true
	}
	if main := self.MainBody(); main != nil && main.Name() == name {
		return main, true
	}
	if b, ok := s.deps.Host.Body(name); ok {
		return b, true
	}
	if id, err := uuid.Parse(name); err == nil {
		if v, ok := s.deps.Host.Vessel(id); ok {
			return v, true
		}
	}
	for _, v := range s.deps.Host.Vessels() {
		if v.Name() == name && v.ID() != self.ID() {
			return v, true
		}
	}
	return nil, false
}

func (s *Service) setReference(v host.Vessel, rec *core.Record, target host.Target) (string, error) {
	var ref core.Reference
	if t, ok := target.(host.Vessel); ok {
		if t.ID() == v.ID() {
			return "", fmt.Errorf("%w: vessel cannot reference itself", ErrInvalidTarget)
		}
		ref = core.VesselReference(t.ID())
	} else {
		// Anything else must be a body the host knows by name.
		if _, ok := s.deps.Host.Body(target.Name()); !ok {
			return "", fmt.Errorf("%w: %q is not a body or vessel", ErrInvalidTarget, target.Name())
		}
		ref = core.BodyReference(target.Name())
	}

	rec.Reference = ref
	rec.DynamicReference = false
	rec.Direction = orientation.Direction(v.Position(), target.Position())
	rec.Rotation = v.Rotation()
	rec.PlanetariumReferenceAngle = s.deps.Host.FrameAngle()
	rec.LastActive = false
	s.logger.Debug("Reference set", "vessel", rec.ID, "reference", ref.String())
	return target.Name(), nil
}

// UnsetReference clears the active vessel's reference.
func (s *Service) UnsetReference() error {
	_, rec, err := s.active()
	if err != nil {
		return err
	}
	rec.DynamicReference = false
	rec.Reference = core.NoReference()
	rec.LastActive = false
	return nil
}

// DefaultReference makes the reference follow the active vessel's main body.
func (s *Service) DefaultReference() (string, error) {
	v, rec, err := s.active()
	if err != nil {
		return "", err
	}
	rec.DynamicReference = true
	rec.LastActive = false
	body := v.MainBody()
	if body == nil {
		rec.Reference = core.NoReference()
		return ReferenceLabelNone, nil
	}
	rec.Reference = core.BodyReference(body.Name())
	rec.Direction = orientation.Direction(v.Position(), body.Position())
	rec.Rotation = v.Rotation()
	rec.PlanetariumReferenceAngle = s.deps.Host.FrameAngle()
	return body.Name(), nil
}

// VesselInfo is the presentation view of one record.
type VesselInfo struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Mode             string  `json:"mode"`
	Authority        string  `json:"authority"`
	Reference        string  `json:"reference"`
	DynamicReference bool    `json:"dynamicReference"`
	DesiredRPM       float64 `json:"desiredRPM"`
	Momentum         string  `json:"momentum"`
	Packed           bool    `json:"packed"`
}

// VesselInfo describes the vessel with id.
func (s *Service) VesselInfo(id uuid.UUID) (VesselInfo, error) {
	v, ok := s.deps.Host.Vessel(id)
	if !ok {
		return VesselInfo{}, fmt.Errorf("%w: %s", ErrUnknownVessel, id)
	}
	rec := s.deps.Registry.Find(v)
	return VesselInfo{
		ID:               id.String(),
		Name:             v.Name(),
		Mode:             rec.Mode().String(),
		Authority:        s.deps.Engine.Classify(v).String(),
		Reference:        s.referenceLabel(rec),
		DynamicReference: rec.DynamicReference,
		DesiredRPM:       rec.DesiredRPM,
		Momentum:         parser.FormatVec(rec.Momentum),
		Packed:           v.Packed(),
	}, nil
}

// Status returns a fresh status report.
func (s *Service) Status() (monitor.Status, error) {
	if s.deps.Monitor == nil {
		return monitor.Status{}, errors.New("status monitor not configured")
	}
	return s.deps.Monitor.Collect(), nil
}
