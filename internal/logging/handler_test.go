package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingHandler struct {
	slog.Handler
}

func (failingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (failingHandler) Handle(context.Context, slog.Record) error {
	return errors.New("output down")
}

func TestFanout_WritesEveryOutput(t *testing.T) {
	var a, b bytes.Buffer
	h := Fanout(
		slog.NewTextHandler(&a, nil),
		nil,
		slog.NewTextHandler(&b, nil),
	)
	require.Len(t, h.(fanout), 2)

	slog.New(h).Info("both")
	assert.Contains(t, a.String(), "both")
	assert.Contains(t, b.String(), "both")
}

func TestFanout_Enabled(t *testing.T) {
	ctx := context.Background()
	info := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelInfo})
	debug := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelDebug})

	assert.False(t, Fanout().Enabled(ctx, slog.LevelError))
	assert.False(t, Fanout(info).Enabled(ctx, slog.LevelDebug))
	assert.True(t, Fanout(info, debug).Enabled(ctx, slog.LevelDebug))
}

func TestFanout_FiltersPerOutput(t *testing.T) {
	var info, debug bytes.Buffer
	h := Fanout(
		slog.NewTextHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	slog.New(h).Debug("quiet")
	assert.Empty(t, info.String())
	assert.Contains(t, debug.String(), "quiet")
}

func TestFanout_JoinsErrorsAndKeepsGoing(t *testing.T) {
	var buf bytes.Buffer
	h := Fanout(failingHandler{}, slog.NewTextHandler(&buf, nil))

	r := slog.NewRecord(time.Time{}, slog.LevelInfo, "still delivered", 0)
	err := h.Handle(context.Background(), r)
	assert.ErrorContains(t, err, "output down")
	assert.Contains(t, buf.String(), "still delivered")
}

func TestFanout_AttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	h := Fanout(slog.NewTextHandler(&buf, nil))

	slog.New(h.WithAttrs([]slog.Attr{slog.String("component", "engine")})).Info("a")
	assert.Contains(t, buf.String(), "component=engine")

	buf.Reset()
	slog.New(h.WithGroup("g")).Info("b", "k", "v")
	assert.Contains(t, buf.String(), "g.k=v")
	assert.Equal(t, h, h.WithGroup(""))
}

func TestWithSession(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, nil)
	assert.Equal(t, inner, WithSession(inner, nil))

	h := WithSession(inner, func() []slog.Attr {
		return []slog.Attr{slog.String("activeVessel", "v1")}
	})
	slog.New(h.WithAttrs([]slog.Attr{slog.String("component", "engine")})).Info("hello")
	assert.Contains(t, buf.String(), "component=engine")
	assert.Contains(t, buf.String(), "activeVessel=v1")

	assert.Same(t, h, h.WithGroup(""))
	buf.Reset()
	slog.New(h.WithGroup("g")).Info("grouped", "k", "v")
	assert.Contains(t, buf.String(), "g.k=v")
}
