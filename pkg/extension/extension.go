// Package extension is the host call surface. Start wires every component
// from the config file in a directory; Call routes host commands through the
// dispatcher and formats the reply.
package extension

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/OCAP2/persistentrotation/internal/authority"
	"github.com/OCAP2/persistentrotation/internal/config"
	"github.com/OCAP2/persistentrotation/internal/dispatcher"
	"github.com/OCAP2/persistentrotation/internal/engine"
	"github.com/OCAP2/persistentrotation/internal/handlers"
	"github.com/OCAP2/persistentrotation/internal/logging"
	"github.com/OCAP2/persistentrotation/internal/monitor"
	intOtel "github.com/OCAP2/persistentrotation/internal/otel"
	"github.com/OCAP2/persistentrotation/internal/parser"
	"github.com/OCAP2/persistentrotation/internal/persist"
	"github.com/OCAP2/persistentrotation/internal/registry"
	"github.com/OCAP2/persistentrotation/internal/session"
	"github.com/OCAP2/persistentrotation/internal/storage"
	"github.com/OCAP2/persistentrotation/internal/telemetry"
	"github.com/OCAP2/persistentrotation/pkg/core"
	"github.com/OCAP2/persistentrotation/pkg/host"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentExtensionVersion = "0.1.0"
	BuildDate               = "unknown"

	ExtensionName = "persistent_rotation"
)

// Options configures Start.
type Options struct {
	Host host.Host
	// Dir holds the config file. Relative paths in the config resolve
	// against it.
	Dir string
}

// Extension is one running session of the rotation engine.
type Extension struct {
	dir        string
	logsDir    string
	startedAt  time.Time
	logManager *logging.SlogManager
	logger     *slog.Logger
	logFile    io.WriteCloser
	otel       *intOtel.Provider
	backend    storage.Backend
	telemetry  *telemetry.Manager
	monitor    *monitor.Service
	handlers   *handlers.Service
	dispatcher *dispatcher.Dispatcher
}

// Start loads the config from opts.Dir and builds every component.
func Start(opts Options) (*Extension, error) {
	if opts.Host == nil {
		return nil, errors.New("extension requires a host")
	}
	if opts.Dir == "" {
		opts.Dir = "."
	}

	x := &Extension{
		dir:        opts.Dir,
		startedAt:  time.Now(),
		logManager: logging.NewSlogManager(),
	}
	x.logManager.Setup(logging.Options{Level: "info"})
	x.logger = x.logManager.Logger()

	if err := config.Load(opts.Dir); err != nil {
		x.logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		x.logger.Info("Loaded config")
	}

	if err := x.setupLogging(); err != nil {
		return nil, err
	}

	engCfg := config.GetEngineConfig()
	sess := session.NewContext(core.ParseReferenceMode(engCfg.DefaultReferenceMode))
	x.logManager.Setup(x.logOptions(sess))
	x.logger = x.logManager.Logger()
	x.logger.Info("Logging to file", "path", x.logsDir)

	zlog := logging.NewZerolog(x.logFile, config.GetString("logLevel"))

	storageCfg := x.storageConfig()
	backend, err := persist.OpenBackend(storageCfg, zlog)
	if err != nil {
		x.Close()
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	x.backend = backend
	x.logger.Info("Storage ready", "backend", storage.Describe(backend))
	store := persist.NewStore(backend, storageCfg.MaxSlots, x.logger)

	var sink engine.SampleSink
	if influxCfg := config.GetInfluxConfig(); influxCfg.Enabled {
		backup := filepath.Join(x.logsDir, fmt.Sprintf("%s.%s.lp.gz", ExtensionName, x.startedAt.Format("20060102_150405")))
		x.telemetry = telemetry.NewManager(zlog, influxCfg, backup)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := x.telemetry.Connect(ctx); err != nil {
			x.logger.Warn("Telemetry unavailable", "error", err)
		}
		cancel()
		sink = x.telemetry
	}

	reg := registry.New(sess, registry.Options{DebrisSpinMax: engCfg.DebrisSpinMax})
	eng, err := engine.New(engine.Dependencies{
		Host:     opts.Host,
		Registry: reg,
		Bridge:   authority.Detect(opts.Host, x.logger),
		Session:  sess,
		Config:   engine.Config{MomentumThreshold: engCfg.MomentumThreshold},
		Logger:   x.logger,
		Sink:     sink,
	})
	if err != nil {
		x.Close()
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	monDeps := monitor.Dependencies{
		Engine:   eng,
		Registry: reg,
		Session:  sess,
		Storage:  storage.Describe(backend),
		Logger:   x.logger,
		Dir:      x.logsDir,
	}
	if x.telemetry != nil {
		monDeps.Telemetry = x.telemetry
	}
	x.monitor = monitor.NewService(monDeps)
	x.monitor.Collect()
	if err := x.monitor.Start(); err != nil {
		x.logger.Warn("Status monitor not started", "error", err)
	}

	x.handlers = handlers.NewService(handlers.Dependencies{
		Host:       opts.Host,
		Registry:   reg,
		Engine:     eng,
		Session:    sess,
		Store:      store,
		Parser:     parser.NewParser(x.logger),
		Monitor:    x.monitor,
		LogManager: x.logManager,
	})

	x.dispatcher, err = dispatcher.New(logging.NewCommandLogger(zlog))
	if err != nil {
		x.Close()
		return nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}
	x.registerLifecycleHandlers(x.dispatcher)
	x.handlers.RegisterHandlers(x.dispatcher)

	x.logger.Info("Extension started",
		"version", CurrentExtensionVersion,
		"commands", len(x.dispatcher.Commands()),
	)
	return x, nil
}

func (x *Extension) setupLogging() error {
	x.logsDir = resolvePath(x.dir, config.GetString("logsDir"))
	if err := os.MkdirAll(x.logsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}
	x.logFile = logging.NewRotatingFile(logging.LogFilePath(x.logsDir, ExtensionName, x.startedAt))

	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		p, err := intOtel.New(intOtel.FromConfig(otelCfg, CurrentExtensionVersion, x.logFile))
		if err != nil {
			x.logger.Error("Failed to initialize OTel provider", "error", err)
		} else {
			x.otel = p
			x.logger.Info("OTel provider initialized", "endpoint", otelCfg.Endpoint)
		}
	}
	return nil
}

func (x *Extension) logOptions(sess *session.Context) logging.Options {
	opts := logging.Options{
		Level:   config.GetString("logLevel"),
		File:    x.logFile,
		Context: sess.LogAttrs,
	}
	if x.otel != nil {
		opts.Provider = x.otel.LoggerProvider()
	}
	if config.GetBool("graylog.enabled") {
		w, err := logging.NewGraylogWriter(config.GetString("graylog.address"))
		if err != nil {
			x.logger.Warn("Graylog unavailable", "error", err)
		} else {
			opts.Graylog = w
		}
	}
	return opts
}

func (x *Extension) storageConfig() config.StorageConfig {
	cfg := config.GetStorageConfig()
	cfg.File.Dir = resolvePath(x.dir, cfg.File.Dir)
	if cfg.SQLite.Path != "" {
		cfg.SQLite.Path = resolvePath(x.dir, cfg.SQLite.Path)
	}
	return cfg
}

func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

func (x *Extension) registerLifecycleHandlers(d *dispatcher.Dispatcher) {
	d.Register(":VERSION:", func(e dispatcher.Event) (any, error) {
		return []string{CurrentExtensionVersion, BuildDate}, nil
	})
	d.Register(":TIMESTAMP:", func(e dispatcher.Event) (any, error) {
		return fmt.Sprintf("%d", time.Now().UTC().UnixNano()), nil
	})
	d.Register(":GETDIR:LOGS:", func(e dispatcher.Event) (any, error) {
		return x.logsDir, nil
	})
	d.Register(":COMMANDS:", func(e dispatcher.Event) (any, error) {
		return d.Commands(), nil
	})
}

// Dispatcher returns the command router.
func (x *Extension) Dispatcher() *dispatcher.Dispatcher {
	return x.dispatcher
}

// Handlers returns the handler service.
func (x *Extension) Handlers() *handlers.Service {
	return x.handlers
}

// Call runs command with args and returns the formatted reply.
func (x *Extension) Call(command string, args ...string) string {
	if x.dispatcher == nil || !x.dispatcher.HasHandler(command) {
		return formatDispatchResponse(command, nil, fmt.Errorf("no handler registered for %s", command))
	}
	result, err := x.dispatcher.Dispatch(dispatcher.Event{
		Command:   command,
		Args:      args,
		Timestamp: time.Now(),
	})
	return formatDispatchResponse(command, result, err)
}

// CallLine runs a single "command|arg|arg" line.
func (x *Extension) CallLine(line string) string {
	parts := strings.Split(line, "|")
	return x.Call(parts[0], parts[1:]...)
}

// Close stops every component. It is safe to call on a partially started
// extension.
func (x *Extension) Close() error {
	var errs []error
	if x.monitor != nil {
		x.monitor.Stop()
	}
	if x.telemetry != nil {
		errs = append(errs, x.telemetry.Close())
	}
	if x.backend != nil {
		errs = append(errs, x.backend.Close())
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	errs = append(errs, x.logManager.Flush(ctx))
	if x.otel != nil {
		errs = append(errs, x.otel.Shutdown(ctx))
	}
	if x.logFile != nil {
		errs = append(errs, x.logFile.Close())
	}
	return errors.Join(errs...)
}
