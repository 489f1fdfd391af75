package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/OCAP2/persistentrotation/internal/engine"
	"github.com/OCAP2/persistentrotation/internal/session"
)

// StatusFileName is written into Dependencies.Dir while the monitor runs.
const StatusFileName = "status.txt"

// DefaultInterval is how often the status file is rewritten.
const DefaultInterval = time.Second

// EngineStats is the part of the engine the monitor reads.
type EngineStats interface {
	Stats() engine.Stats
	Pending() int
}

// Counter reports a size.
type Counter interface {
	Len() int
}

// DropCounter reports samples lost by the telemetry writer.
type DropCounter interface {
	Dropped() int
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Engine   EngineStats
	Registry Counter
	Session  *session.Context
	// Storage describes the slot backend.
	Storage string
	// Telemetry is optional.
	Telemetry DropCounter
	Logger    *slog.Logger
	// Dir receives the status file. Empty disables the file.
	Dir      string
	Interval time.Duration
}

// TickStatus describes the last completed tick.
type TickStatus struct {
	Processed int            `json:"processed"`
	Finalized int            `json:"finalized"`
	Pruned    int            `json:"pruned"`
	Paths     map[string]int `json:"paths"`
}

// Status is one status report.
type Status struct {
	Time             time.Time    `json:"time"`
	Tick             uint64       `json:"tick"`
	ActiveVessel     string       `json:"activeVessel,omitempty"`
	Records          int          `json:"records"`
	Pending          int          `json:"pending"`
	Storage          string       `json:"storage"`
	LastSave         string       `json:"lastSave,omitempty"`
	TelemetryDropped int          `json:"telemetryDropped"`
	LastTick         TickStatus   `json:"lastTick"`
	Engine           engine.Stats `json:"engine"`
}

// Lines renders the status as indented JSON blocks, one per section.
func (st Status) Lines() []string {
	sections := []any{
		map[string]any{
			"time":         st.Time,
			"tick":         st.Tick,
			"activeVessel": st.ActiveVessel,
			"records":      st.Records,
			"pending":      st.Pending,
			"storage":      st.Storage,
			"lastSave":     st.LastSave,
		},
		st.LastTick,
		st.Engine,
	}
	out := make([]string, 0, len(sections))
	for _, section := range sections {
		b, err := json.MarshalIndent(section, "", "  ")
		if err != nil {
			b = []byte(fmt.Sprintf(`{"error": "%s"}`, err))
		}
		out = append(out, string(b))
	}
	return out
}

// Service collects engine status on the tick thread and publishes it to a
// status file from a background goroutine. Collect and Observe must run on
// the tick thread; Latest, Start and Stop are safe from any goroutine.
type Service struct {
	deps      Dependencies
	isRunning bool
	latest    Status
	lastTick  TickStatus
	lastSave  string
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	return &Service{
		deps:     deps,
		lastTick: TickStatus{Paths: map[string]int{}},
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Collect builds a status report from the live components and publishes it.
func (s *Service) Collect() Status {
	st := Status{
		Time:    time.Now(),
		Storage: s.deps.Storage,
	}
	if s.deps.Session != nil {
		st.Tick = s.deps.Session.Tick()
		if id, ok := s.deps.Session.ActiveVessel(); ok {
			st.ActiveVessel = id.String()
		}
	}
	if s.deps.Registry != nil {
		st.Records = s.deps.Registry.Len()
	}
	if s.deps.Engine != nil {
		st.Engine = s.deps.Engine.Stats()
		st.Pending = s.deps.Engine.Pending()
	}
	if s.deps.Telemetry != nil {
		st.TelemetryDropped = s.deps.Telemetry.Dropped()
	}

	s.mu.Lock()
	st.LastSave = s.lastSave
	st.LastTick = s.lastTick
	s.latest = st
	s.mu.Unlock()
	return st
}

// Observe records a completed tick and republishes the status.
func (s *Service) Observe(report engine.TickReport) {
	ts := TickStatus{
		Processed: report.Processed,
		Finalized: report.Finalized,
		Pruned:    len(report.Pruned),
		Paths:     make(map[string]int),
	}
	for _, p := range report.Paths {
		ts.Paths[string(p)]++
	}

	s.mu.Lock()
	s.lastTick = ts
	s.mu.Unlock()
	s.Collect()
}

// RecordSave notes the slot written by the last successful save.
func (s *Service) RecordSave(slot string) {
	s.mu.Lock()
	s.lastSave = slot
	s.latest.LastSave = slot
	s.mu.Unlock()
}

// Latest returns the last published status.
func (s *Service) Latest() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.latest
	st.LastTick.Paths = maps.Clone(s.latest.LastTick.Paths)
	return st
}

// WriteStatus writes the latest status to path, replacing its contents.
func (s *Service) WriteStatus(path string) error {
	lines := s.Latest().Lines()
	data := []byte{}
	for _, line := range lines {
		data = append(data, line...)
		data = append(data, '\n')
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write status file: %w", err)
	}
	return nil
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if s.deps.Dir == "" {
		s.mu.Unlock()
		return fmt.Errorf("status directory not configured")
	}
	if err := os.MkdirAll(s.deps.Dir, 0o755); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to create status directory: %w", err)
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	path := filepath.Join(s.deps.Dir, StatusFileName)
	go func() {
		defer close(done)

		logger := s.deps.Logger
		logger.Debug("Starting status monitor goroutine", "file", path)

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := s.WriteStatus(path); err != nil {
					logger.Error("Error writing status file", "error", err)
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor and waits for the goroutine to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}
