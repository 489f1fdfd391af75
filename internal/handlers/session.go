package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/OCAP2/persistentrotation/internal/engine"
	"github.com/OCAP2/persistentrotation/internal/persist"
	"github.com/OCAP2/persistentrotation/pkg/host"
)

// OnVesselCreate forwards a creation signal to the engine.
func (s *Service) OnVesselCreate(id uuid.UUID) {
	s.deps.Engine.OnVesselCreate(id)
}

// OnVesselDestroy forwards an about-to-be-destroyed signal to the engine.
func (s *Service) OnVesselDestroy(id uuid.UUID) {
	s.deps.Engine.OnVesselWillDestroy(id)
	if active, ok := s.deps.Session.ActiveVessel(); ok && active == id {
		s.deps.Session.SetActiveVessel(uuid.Nil)
	}
}

// OnVesselPack forwards a going-on-rails signal to the engine.
func (s *Service) OnVesselPack(id uuid.UUID) error {
	v, err := s.vessel(id)
	if err != nil {
		return err
	}
	s.deps.Engine.OnVesselPack(v)
	return nil
}

// OnVesselUnpack forwards a going-off-rails signal to the engine.
func (s *Service) OnVesselUnpack(id uuid.UUID) error {
	v, err := s.vessel(id)
	if err != nil {
		return err
	}
	s.deps.Engine.OnVesselUnpack(v)
	return nil
}

// OnActiveVesselChange records which vessel the player controls.
func (s *Service) OnActiveVesselChange(id uuid.UUID) error {
	if _, err := s.vessel(id); err != nil {
		return err
	}
	s.deps.Session.SetActiveVessel(id)
	return nil
}

func (s *Service) vessel(id uuid.UUID) (host.Vessel, error) {
	v, ok := s.deps.Host.Vessel(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVessel, id)
	}
	return v, nil
}

// Tick runs one engine pass and publishes it to the monitor.
func (s *Service) Tick() engine.TickReport {
	report := s.deps.Engine.Tick()
	if s.deps.Monitor != nil {
		s.deps.Monitor.Observe(report)
	}
	return report
}

// LoadSession restores the registry from the snapshot closest to the host's
// clock. A missing or unreadable store leaves freshly generated records. When
// the chosen snapshot is older than the newest one the game was reverted, so
// every slot is replaced by the restored state.
func (s *Service) LoadSession(ctx context.Context) (persist.ApplyReport, error) {
	functionName := ":SESSION:LOAD:"
	now := s.deps.Host.UniversalTime()

	snap, sel, err := s.deps.Store.Load(ctx, now)
	if err != nil {
		if !errors.Is(err, persist.ErrNoSnapshot) {
			s.writeLog(functionName, fmt.Sprintf(`Error loading snapshot, using defaults: %v`, err), "WARN")
		}
		return s.generateDefaults(), nil
	}

	report := persist.Apply(snap, s.deps.Host, s.deps.Registry, s.deps.Session)
	s.logger.Info("Restored rotation state",
		"slot", sel.Slot,
		"generated", report.Generated,
		"restored", report.Restored,
		"discarded", report.Discarded,
		"unresolved", len(report.Unresolved),
	)

	if sel.Reverted {
		slot, err := s.deps.Store.Rebase(ctx, persist.Capture(s.deps.Host, s.deps.Registry, s.deps.Session))
		if err != nil {
			s.writeLog(functionName, fmt.Sprintf(`Error rebasing slots after revert: %v`, err), "ERROR")
			return report, nil
		}
		s.logger.Info("Save was reverted, replaced all slots", "slot", slot, "newest", sel.Newest)
		s.recordSave(slot)
	}
	return report, nil
}

func (s *Service) generateDefaults() persist.ApplyReport {
	s.deps.Registry.Reset()
	var report persist.ApplyReport
	for _, v := range s.deps.Host.Vessels() {
		s.deps.Registry.Generate(v)
		report.Generated++
	}
	s.logger.Info("No rotation snapshot, generated defaults", "vessels", report.Generated)
	return report
}

// SaveSession writes the registry to a new slot. Failures are logged and
// returned; they never affect the simulation.
func (s *Service) SaveSession(ctx context.Context) (string, error) {
	snap := persist.Capture(s.deps.Host, s.deps.Registry, s.deps.Session)
	slot, err := s.deps.Store.Save(ctx, snap)
	if err != nil {
		s.writeLog(":SESSION:SAVE:", fmt.Sprintf(`Error saving snapshot: %v`, err), "ERROR")
		return "", err
	}
	s.logger.Debug("Saved rotation state", "slot", slot, "vessels", len(snap.Vessels))
	s.recordSave(slot)
	return slot, nil
}

func (s *Service) recordSave(slot string) {
	if s.deps.Monitor != nil {
		s.deps.Monitor.RecordSave(slot)
	}
}
