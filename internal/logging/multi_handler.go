package logging

import (
	"context"
	"errors"
	"log/slog"
)

// MultiHandler fans out log records to several slog.Handlers, e.g. JSON on
// stdout plus the PostgreSQL error sink.
type MultiHandler struct {
	targets []slog.Handler
}

func NewMultiHandler(targets ...slog.Handler) *MultiHandler {
	return &MultiHandler{targets: targets}
}

func (m *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, t := range m.targets {
		if t.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *MultiHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, t := range m.targets {
		if t.Enabled(ctx, record.Level) {
			if err := t.Handle(ctx, record.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	targets := make([]slog.Handler, len(m.targets))
	for i, t := range m.targets {
		targets[i] = t.WithAttrs(attrs)
	}
	return &MultiHandler{targets: targets}
}

func (m *MultiHandler) WithGroup(name string) slog.Handler {
	targets := make([]slog.Handler, len(m.targets))
	for i, t := range m.targets {
		targets[i] = t.WithGroup(name)
	}
	return &MultiHandler{targets: targets}
}
