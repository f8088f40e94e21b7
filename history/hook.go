package history

import (
	"context"
	"time"

	"github.com/hupe1980/qrscan/engine"
	"github.com/hupe1980/qrscan/logging"
)

// Hook records every terminal event, including the source of a scan, as a
// HookTerminal observer. Recording failures are logged and never reach the
// session or the hooks registered after it.
type Hook struct {
	store   *Store
	logger  logging.Logger
	timeout time.Duration
}

var _ engine.Hook = (*Hook)(nil)

// NewHook creates a terminal hook writing to store.
func NewHook(store *Store, logger logging.Logger) *Hook {
	return &Hook{store: store, logger: logging.With(logger, "history"), timeout: 2 * time.Second}
}

// Register adds a new Hook for store to m.
func Register(m *engine.HookManager, store *Store, logger logging.Logger) {
	m.Register(NewHook(store, logger))
}

// Type implements engine.Hook.
func (h *Hook) Type() engine.HookType { return engine.HookTerminal }

// Execute implements engine.Hook.
func (h *Hook) Execute(ctx context.Context, hc *engine.HookContext) error {
	if hc.Terminal == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	if err := h.store.Record(ctx, EntryFrom(hc.Handle, *hc.Terminal)); err != nil {
		h.logger.Warn("Recording scan outcome failed", "session", hc.Handle.String(), "error", err.Error())
	}
	return nil
}
