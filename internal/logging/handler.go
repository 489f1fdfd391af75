package logging

import (
	"context"
	"errors"
	"log/slog"
)

// ContextProvider returns attributes describing the current session. It is
// called once per emitted record.
type ContextProvider func() []slog.Attr

// fanout writes each record to every output enabled for its level.
type fanout []slog.Handler

// Fanout combines outputs into one handler. Nil outputs are skipped. A failing
// output does not stop the others; their errors are joined.
func Fanout(outputs ...slog.Handler) slog.Handler {
	f := make(fanout, 0, len(outputs))
	for _, h := range outputs {
		if h != nil {
			f = append(f, h)
		}
	}
	return f
}

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f fanout) WithGroup(name string) slog.Handler {
	if name == "" {
		return f
	}
	return f.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f fanout) each(fn func(slog.Handler) slog.Handler) fanout {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = fn(h)
	}
	return out
}

// sessionHandler appends the provider's attributes to every record.
type sessionHandler struct {
	next     slog.Handler
	provider ContextProvider
}

// WithSession wraps next so each record carries the attributes returned by
// provider. A nil provider returns next unchanged.
func WithSession(next slog.Handler, provider ContextProvider) slog.Handler {
	if provider == nil {
		return next
	}
	return &sessionHandler{next: next, provider: provider}
}

func (h *sessionHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *sessionHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(h.provider()...)
	return h.next.Handle(ctx, r)
}

func (h *sessionHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &sessionHandler{next: h.next.WithAttrs(attrs), provider: h.provider}
}

func (h *sessionHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &sessionHandler{next: h.next.WithGroup(name), provider: h.provider}
}
