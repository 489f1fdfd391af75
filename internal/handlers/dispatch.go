package handlers

import (
	"context"
	"fmt"

	"github.com/OCAP2/persistentrotation/internal/dispatcher"
	"github.com/OCAP2/persistentrotation/internal/util"
)

// RegisterHandlers registers every host signal and presentation command with
// the dispatcher. All handlers are synchronous.
func (s *Service) RegisterHandlers(d *dispatcher.Dispatcher) {
	// Host signals
	d.Register(":VESSEL:CREATE:", s.handleVesselCreate, dispatcher.Logged())
	d.Register(":VESSEL:DESTROY:", s.handleVesselDestroy, dispatcher.Logged())
	d.Register(":VESSEL:PACK:", s.handleVesselPack, dispatcher.Logged(), dispatcher.Recovered())
	d.Register(":VESSEL:UNPACK:", s.handleVesselUnpack, dispatcher.Logged(), dispatcher.Recovered())
	d.Register(":VESSEL:ACTIVE:", s.handleVesselActive, dispatcher.Logged())
	d.Register(":SESSION:LOAD:", s.handleSessionLoad, dispatcher.Logged(), dispatcher.Recovered())
	d.Register(":SESSION:SAVE:", s.handleSessionSave, dispatcher.Logged(), dispatcher.Recovered())
	// Ticks are too frequent to log
	d.Register(":TICK:", s.handleTick, dispatcher.Recovered())

	// Presentation commands
	d.Register(":ROTATION:ON:", s.handleRotationOn, dispatcher.Logged())
	d.Register(":ROTATION:OFF:", s.handleRotationOff, dispatcher.Logged())
	d.Register(":MOMENTUM:ON:", s.handleMomentumOn, dispatcher.Logged())
	d.Register(":MOMENTUM:OFF:", s.handleMomentumOff, dispatcher.Logged())
	d.Register(":REFERENCE:SET:", s.handleReferenceSet, dispatcher.Logged())
	d.Register(":REFERENCE:UNSET:", s.handleReferenceUnset, dispatcher.Logged())
	d.Register(":REFERENCE:DEFAULT:", s.handleReferenceDefault, dispatcher.Logged())
	d.Register(":REFERENCE:TARGET:", s.handleReferenceTarget, dispatcher.Logged())
	d.Register(":RPM:EDIT:", s.handleRPMEdit, dispatcher.Logged())

	// Presentation queries
	d.Register(":MODE:GET:", s.handleModeGet)
	d.Register(":REFERENCE:GET:", s.handleReferenceGet)
	d.Register(":RPM:GET:", s.handleRPMGet)
	d.Register(":VESSEL:INFO:", s.handleVesselInfo, dispatcher.Recovered())
	d.Register(":STATUS:", s.handleStatus, dispatcher.Recovered())
}

func (s *Service) handleVesselCreate(e dispatcher.Event) (any, error) {
	id, err := s.deps.Parser.ParseVesselID(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to register new vessel: %w", err)
	}
	s.OnVesselCreate(id)
	return nil, nil
}

func (s *Service) handleVesselDestroy(e dispatcher.Event) (any, error) {
	id, err := s.deps.Parser.ParseVesselID(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to handle destroyed vessel: %w", err)
	}
	s.OnVesselDestroy(id)
	return nil, nil
}

func (s *Service) handleVesselPack(e dispatcher.Event) (any, error) {
	id, err := s.deps.Parser.ParseVesselID(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to pack vessel: %w", err)
	}
	return nil, s.OnVesselPack(id)
}

func (s *Service) handleVesselUnpack(e dispatcher.Event) (any, error) {
	id, err := s.deps.Parser.ParseVesselID(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack vessel: %w", err)
	}
	return nil, s.OnVesselUnpack(id)
}

func (s *Service) handleVesselActive(e dispatcher.Event) (any, error) {
	id, err := s.deps.Parser.ParseVesselID(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to switch active vessel: %w", err)
	}
	return nil, s.OnActiveVesselChange(id)
}

func (s *Service) handleSessionLoad(e dispatcher.Event) (any, error) {
	report, err := s.LoadSession(context.Background())
	if err != nil {
		return nil, err
	}
	return report.Restored, nil
}

func (s *Service) handleSessionSave(e dispatcher.Event) (any, error) {
	return s.SaveSession(context.Background())
}

func (s *Service) handleTick(e dispatcher.Event) (any, error) {
	return s.Tick().Tick, nil
}

func (s *Service) handleRotationOn(e dispatcher.Event) (any, error) {
	return nil, s.ActivateRotation()
}

func (s *Service) handleRotationOff(e dispatcher.Event) (any, error) {
	return nil, s.DeactivateRotation()
}

func (s *Service) handleMomentumOn(e dispatcher.Event) (any, error) {
	return s.ActivateMomentum(util.Arg(e.Args, 0))
}

func (s *Service) handleMomentumOff(e dispatcher.Event) (any, error) {
	return nil, s.DeactivateMomentum()
}

func (s *Service) handleReferenceSet(e dispatcher.Event) (any, error) {
	name, err := s.deps.Parser.ParseName(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to set reference: %w", err)
	}
	return s.SelectReference(name)
}

func (s *Service) handleReferenceUnset(e dispatcher.Event) (any, error) {
	return nil, s.UnsetReference()
}

func (s *Service) handleReferenceDefault(e dispatcher.Event) (any, error) {
	return s.DefaultReference()
}

func (s *Service) handleReferenceTarget(e dispatcher.Event) (any, error) {
	return s.TargetReference()
}

func (s *Service) handleRPMEdit(e dispatcher.Event) (any, error) {
	return s.EditRPM(util.Arg(e.Args, 0))
}

func (s *Service) handleModeGet(e dispatcher.Event) (any, error) {
	mode, err := s.Mode()
	if err != nil {
		return nil, err
	}
	return mode.String(), nil
}

func (s *Service) handleReferenceGet(e dispatcher.Event) (any, error) {
	return s.ReferenceName()
}

func (s *Service) handleRPMGet(e dispatcher.Event) (any, error) {
	return s.RPMText()
}

func (s *Service) handleVesselInfo(e dispatcher.Event) (any, error) {
	id, err := s.deps.Parser.ParseVesselID(e.Args)
	if err != nil {
		if active, ok := s.deps.Session.ActiveVessel(); ok && len(e.Args) == 0 {
			return s.VesselInfo(active)
		}
		return nil, fmt.Errorf("failed to describe vessel: %w", err)
	}
	return s.VesselInfo(id)
}

func (s *Service) handleStatus(e dispatcher.Event) (any, error) {
	return s.Status()
}
