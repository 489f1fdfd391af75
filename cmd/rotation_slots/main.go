// Command rotation_slots inspects and maintains the rotation save slots
// configured in persistent_rotation.cfg.json in the working directory.
//
//	rotation_slots list
//	rotation_slots show <slot>
//	rotation_slots purge
//	rotation_slots copy <type>   copy every slot from backend <type> into the configured one
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/OCAP2/persistentrotation/internal/config"
	"github.com/OCAP2/persistentrotation/internal/logging"
	"github.com/OCAP2/persistentrotation/internal/persist"
	"github.com/OCAP2/persistentrotation/internal/storage"
)

var errUsage = errors.New("usage: rotation_slots list | show <slot> | purge | copy <type>")

func main() {
	if err := run(context.Background(), ".", os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type cli struct {
	dir    string
	out    io.Writer
	zlog   zerolog.Logger
	logger *slog.Logger
}

func run(ctx context.Context, dir string, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	logManager := logging.NewSlogManager()
	logManager.Setup(logging.Options{Level: "warn", File: os.Stderr})
	c := &cli{
		dir:    dir,
		out:    out,
		zlog:   logging.NewZerolog(os.Stderr, "warn"),
		logger: logManager.Logger(),
	}
	if err := config.Load(dir); err != nil {
		c.logger.Warn("Failed to load config, using defaults!", "error", err)
	}

	switch strings.ToLower(args[0]) {
	case "list":
		return c.list(ctx)
	case "show":
		if len(args) < 2 {
			return errUsage
		}
		return c.show(ctx, args[1])
	case "purge":
		return c.purge(ctx)
	case "copy":
		if len(args) < 2 {
			return errUsage
		}
		return c.copy(ctx, args[1])
	default:
		return errUsage
	}
}

func (c *cli) storageConfig() config.StorageConfig {
	cfg := config.GetStorageConfig()
	cfg.File.Dir = c.resolve(cfg.File.Dir)
	cfg.SQLite.Path = c.resolve(cfg.SQLite.Path)
	return cfg
}

func (c *cli) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.dir, p)
}

func (c *cli) open(cfg config.StorageConfig) (*persist.Store, storage.Backend, error) {
	b, err := persist.OpenBackend(cfg, c.zlog)
	if err != nil {
		return nil, nil, err
	}
	return persist.NewStore(b, cfg.MaxSlots, c.logger), b, nil
}

func (c *cli) list(ctx context.Context) error {
	store, b, err := c.open(c.storageConfig())
	if err != nil {
		return err
	}
	defer b.Close()

	slots, err := store.Slots(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s: %d slots\n", storage.Describe(b), len(slots))
	for _, s := range slots {
		if s.Err != nil {
			fmt.Fprintf(c.out, "%s\tunreadable: %v\n", s.Name, s.Err)
			continue
		}
		fmt.Fprintf(c.out, "%s\tut=%.3f\tvessels=%d\n", s.Name, s.Timestamp, s.Vessels)
	}
	return nil
}

func (c *cli) show(ctx context.Context, name string) error {
	store, b, err := c.open(c.storageConfig())
	if err != nil {
		return err
	}
	defer b.Close()

	snap, err := store.Read(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to read slot %s: %w", name, err)
	}
	data, err := snap.Encode()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.out, string(data))
	return err
}

func (c *cli) purge(ctx context.Context) error {
	store, b, err := c.open(c.storageConfig())
	if err != nil {
		return err
	}
	defer b.Close()

	n, err := store.Purge(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "removed %d slots from %s\n", n, storage.Describe(b))
	return nil
}

// copy moves slot documents unchanged, so unreadable slots survive the copy.
func (c *cli) copy(ctx context.Context, fromType string) error {
	dstCfg := c.storageConfig()
	if strings.EqualFold(fromType, dstCfg.Type) {
		return fmt.Errorf("source and destination are both %s", dstCfg.Type)
	}
	srcCfg := dstCfg
	srcCfg.Type = strings.ToLower(fromType)

	src, err := persist.OpenBackend(srcCfg, c.zlog)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer src.Close()
	dst, err := persist.OpenBackend(dstCfg, c.zlog)
	if err != nil {
		return fmt.Errorf("failed to open destination: %w", err)
	}
	defer dst.Close()

	names, err := src.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list source slots: %w", err)
	}
	for _, name := range names {
		data, err := src.Read(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to read slot %s: %w", name, err)
		}
		if err := dst.Write(ctx, name, data); err != nil {
			return fmt.Errorf("failed to write slot %s: %w", name, err)
		}
	}
	fmt.Fprintf(c.out, "copied %d slots from %s to %s\n", len(names), storage.Describe(src), storage.Describe(dst))
	return nil
}
