// Package authority answers whether a third-party autopilot is steering a
// vessel. The autopilot is optional: when the host does not provide one, or
// it misbehaves, every query reports "not steering".
package authority

import (
	"fmt"
	"log/slog"

	"github.com/OCAP2/persistentrotation/pkg/core"
	"github.com/OCAP2/persistentrotation/pkg/host"
)

// Bridge is the capability query used by the engine.
type Bridge interface {
	// IsActive reports whether the external autopilot is steering v.
	IsActive(v host.Vessel) bool
	// TargetMode returns the autopilot's target mode for v, TargetOff when
	// unavailable.
	TargetMode(v host.Vessel) core.TargetMode
	// Available reports whether an external autopilot was found.
	Available() bool
}

// Nop is the bridge used when no external autopilot is installed.
type Nop struct{}

func (Nop) IsActive(host.Vessel) bool              { return false }
func (Nop) TargetMode(host.Vessel) core.TargetMode { return core.TargetOff }
func (Nop) Available() bool                        { return false }

// Detect checks h for an external autopilot and returns a bridge for it, or
// Nop when none is present.
func Detect(h host.Host, logger *slog.Logger) Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	provider, ok := h.(host.ExternalAutopilotProvider)
	if !ok {
		logger.Debug("Host exposes no external autopilot")
		return Nop{}
	}

	ext, err := lookup(provider)
	if err != nil || ext == nil {
		logger.Info("External autopilot not available", "error", err)
		return Nop{}
	}
	logger.Info("External autopilot detected")
	return NewGuarded(ext, logger)
}

func lookup(p host.ExternalAutopilotProvider) (ext host.ExternalAutopilot, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("external autopilot lookup panicked: %v", r)
		}
	}()
	return p.ExternalAutopilot()
}

// Guarded wraps an external autopilot. The first failure disables it for the
// rest of the session.
type Guarded struct {
	ext      host.ExternalAutopilot
	logger   *slog.Logger
	disabled bool
}

// NewGuarded wraps ext.
func NewGuarded(ext host.ExternalAutopilot, logger *slog.Logger) *Guarded {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guarded{ext: ext, logger: logger}
}

// Available reports whether the autopilot is still in use.
func (g *Guarded) Available() bool {
	return !g.disabled
}

// IsActive reports whether the autopilot has a target other than OFF.
func (g *Guarded) IsActive(v host.Vessel) bool {
	return g.TargetMode(v) != core.TargetOff
}

// TargetMode queries the autopilot, converting failures into TargetOff.
func (g *Guarded) TargetMode(v host.Vessel) core.TargetMode {
	if g.disabled || v == nil {
		return core.TargetOff
	}
	mode, err := g.query(v)
	if err != nil {
		g.disabled = true
		g.logger.Warn("External autopilot disabled for this session", "error", err)
		return core.TargetOff
	}
	if !mode.Valid() {
		g.logger.Debug("Unknown external autopilot mode", "mode", int(mode))
		return core.TargetOff
	}
	return mode
}

func (g *Guarded) query(v host.Vessel) (mode core.TargetMode, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("external autopilot panicked: %v", r)
		}
	}()
	return g.ext.TargetMode(v)
}
