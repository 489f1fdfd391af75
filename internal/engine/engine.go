// Package engine is the per-tick reconciliation of vessel rotation state.
//
// On every host tick the engine walks the live vessels, classifies who holds
// each vessel's attitude and then either synthesizes rotation for packed
// vessels or tracks the measured state of unpacked ones. Pack and unpack
// transitions are driven by host signals through OnVesselPack and
// OnVesselUnpack.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	"github.com/OCAP2/persistentrotation/internal/authority"
	"github.com/OCAP2/persistentrotation/internal/queue"
	"github.com/OCAP2/persistentrotation/internal/registry"
	"github.com/OCAP2/persistentrotation/internal/session"
	"github.com/OCAP2/persistentrotation/pkg/core"
	"github.com/OCAP2/persistentrotation/pkg/host"
	"github.com/OCAP2/persistentrotation/pkg/orientation"
)

// DefaultMomentumThreshold separates "held still" from "tumbling".
const DefaultMomentumThreshold = 0.05

// Path names the branch a vessel took during a tick.
type Path string

const (
	PathPackedRotation Path = "packed_rotation"
	PathPackedSpin     Path = "packed_spin"
	PathResting        Path = "resting"
	PathUnloaded       Path = "unloaded"
	PathUnpacked       Path = "unpacked"
)

// Config holds engine tuning.
type Config struct {
	MomentumThreshold float64
}

// SampleSink receives one sample per vessel per tick.
type SampleSink interface {
	RecordSample(core.Sample)
}

// Dependencies holds all dependencies needed by the engine.
type Dependencies struct {
	Host     host.Host
	Registry *registry.Registry
	Bridge   authority.Bridge
	Session  *session.Context
	Config   Config
	Logger   *slog.Logger
	// Sink is optional.
	Sink SampleSink
}

// Stats are running totals since the engine started.
type Stats struct {
	Ticks           uint64 `json:"ticks"`
	PackedRotations uint64 `json:"packedRotations"`
	PackedSpins     uint64 `json:"packedSpins"`
	SASAdjustments  uint64 `json:"sasAdjustments"`
	Impulses        uint64 `json:"impulses"`
	UnpackRotations uint64 `json:"unpackRotations"`
	Finalized       uint64 `json:"finalized"`
	Pruned          uint64 `json:"pruned"`

	ExternalAutopilot bool `json:"externalAutopilot"`
}

// TickReport describes one completed tick.
type TickReport struct {
	Tick      uint64
	Processed int
	Finalized int
	Pruned    []uuid.UUID
	Paths     map[uuid.UUID]Path
}

// Engine reconciles rotation state. It is not safe for concurrent use; every
// method must be called from the host tick thread.
type Engine struct {
	deps    Dependencies
	pending *queue.Queue[uuid.UUID]
	stats   Stats

	ticks           metric.Int64Counter
	packedRotations metric.Int64Counter
	packedSpins     metric.Int64Counter
	sasAdjustments  metric.Int64Counter
	impulses        metric.Int64Counter
}

// New creates an engine. Uses the global OTel meter for metrics (no-op if
// not configured).
func New(deps Dependencies) (*Engine, error) {
	if deps.Host == nil || deps.Registry == nil || deps.Session == nil {
		return nil, errors.New("engine requires host, registry and session")
	}
	if deps.Bridge == nil {
		deps.Bridge = authority.Nop{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Config.MomentumThreshold <= 0 {
		deps.Config.MomentumThreshold = DefaultMomentumThreshold
	}

	e := &Engine{
		deps:    deps,
		pending: queue.New[uuid.UUID](),
	}

	m := meter()
	var err error
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&e.ticks, "engine.ticks", "Engine ticks completed"},
		{&e.packedRotations, "engine.packed_rotations", "Packed vessels rotated toward their reference"},
		{&e.packedSpins, "engine.packed_spins", "Packed vessels spun by stored momentum"},
		{&e.sasAdjustments, "engine.sas_adjustments", "Attitude hold headings corrected for frame motion"},
		{&e.impulses, "engine.impulses", "Momentum impulses applied on unpack"},
	}
	for _, c := range counters {
		*c.dst, err = m.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, fmt.Errorf("creating %s counter: %w", c.name, err)
		}
	}

	return e, nil
}

// Stats returns the running totals.
func (e *Engine) Stats() Stats {
	st := e.stats
	st.ExternalAutopilot = e.deps.Bridge.Available()
	return st
}

// Pending returns how many created vessels wait for finalization.
func (e *Engine) Pending() int {
	return e.pending.Len()
}

// Classify returns the control authority for v, querying the external bridge.
func (e *Engine) Classify(v host.Vessel) core.ControlAuthority {
	return ClassifyAuthority(v, e.deps.Bridge.IsActive(v))
}

// Tick runs one reconciliation pass over every live vessel.
func (e *Engine) Tick() TickReport {
	tick := e.deps.Session.AdvanceTick()
	report := TickReport{
		Tick:  tick,
		Paths: make(map[uuid.UUID]Path),
	}

	report.Finalized = e.finalizePending()

	live := e.deps.Host.Vessels()
	for _, v := range live {
		path := e.process(v)
		report.Paths[v.ID()] = path
		report.Processed++
	}

	report.Pruned = e.deps.Registry.RegisterOrRefreshAll(live)
	if len(report.Pruned) > 0 {
		e.deps.Logger.Debug("Pruned stale records", "count", len(report.Pruned))
	}

	e.stats.Ticks++
	e.stats.Pruned += uint64(len(report.Pruned))
	e.ticks.Add(context.Background(), 1)
	return report
}

// process runs the per-vessel state machine and returns the path taken.
func (e *Engine) process(v host.Vessel) Path {
	rec := e.deps.Registry.Find(v)

	external := e.deps.Bridge.TargetMode(v)
	if external != rec.SmartAssState {
		rec.LastActive = false
		rec.SmartAssState = external
	}
	auth := e.Classify(v)

	e.refreshDynamicReference(v, rec)

	var path Path
	if v.Packed() {
		path = e.updatePacked(v, rec, auth)
	} else {
		path = e.updateUnpacked(v, rec, auth)
	}

	rec.LastReference = rec.Reference

	if e.deps.Sink != nil {
		e.deps.Sink.RecordSample(core.Sample{
			Vessel:    rec.ID,
			Name:      v.Name(),
			Time:      time.Now(),
			Tick:      e.deps.Session.Tick(),
			Packed:    v.Packed(),
			Path:      string(path),
			Authority: auth,
			Mode:      rec.Mode(),
			Momentum:  rec.Momentum,
			Rotation:  v.Rotation(),
		})
	}
	return path
}

// resolve looks up the live target of ref. An unresolvable reference is
// cleared on the record.
func (e *Engine) resolve(v host.Vessel, rec *core.Record) (host.Target, bool) {
	t, ok := ResolveReference(e.deps.Host, rec.Reference, v.ID())
	if !ok && !rec.Reference.IsNone() {
		e.deps.Logger.Debug("Reference no longer resolves, clearing",
			"vessel", rec.ID, "reference", rec.Reference.String())
		rec.Reference = core.NoReference()
		rec.LastActive = false
	}
	return t, ok
}

// ResolveReference finds the live body or vessel named by ref. A reference to
// self never resolves.
func ResolveReference(h host.Host, ref core.Reference, self uuid.UUID) (host.Target, bool) {
	switch ref.Kind {
	case core.RefBody:
		b, ok := h.Body(ref.Body)
		if !ok || b == nil {
			return nil, false
		}
		return b, true
	case core.RefVessel:
		if ref.Vessel == self {
			return nil, false
		}
		v, ok := h.Vessel(ref.Vessel)
		if !ok || v == nil {
			return nil, false
		}
		return v, true
	default:
		return nil, false
	}
}

func (e *Engine) refreshDynamicReference(v host.Vessel, rec *core.Record) {
	if !rec.DynamicReference {
		return
	}
	body := v.MainBody()
	if body == nil || rec.Reference.IsBody(body.Name()) {
		return
	}
	e.deps.Logger.Debug("Dynamic reference switched",
		"vessel", rec.ID, "from", rec.Reference.String(), "to", body.Name())
	rec.Reference = core.BodyReference(body.Name())
	rec.Direction = orientation.Direction(v.Position(), body.Position())
	rec.Rotation = v.Rotation()
	rec.PlanetariumReferenceAngle = e.deps.Host.FrameAngle()
	rec.LastActive = false
}

func (e *Engine) finalizePending() int {
	ids := e.pending.Drain()
	finalized := 0
	for _, id := range ids {
		v, ok := e.deps.Host.Vessel(id)
		if !ok {
			if rec, exists := e.deps.Registry.Get(id); exists && rec.Provisional {
				e.deps.Registry.Delete(id)
			}
			e.deps.Logger.Debug("Created vessel gone before finalize", "vessel", id)
			continue
		}
		rec, exists := e.deps.Registry.Get(id)
		if !exists || rec.Provisional {
			rec = e.deps.Registry.Generate(v)
		}
		rec.LastPosition = orientation.Vec{}
		rec.LastActive = false
		rec.LastReference = core.NoReference()
		finalized++
	}
	e.stats.Finalized += uint64(finalized)
	return finalized
}
