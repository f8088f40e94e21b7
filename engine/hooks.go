package engine

import (
	"context"
	"sync"

	"github.com/hupe1980/qrscan/core"
)

// HookType defines the lifecycle points at which hooks run.
//
// Hooks observe a session without changing its behaviour. They run on the
// main executor, in registration order, right after the controller has
// updated its state.
//
// Available hook types:
//   - HookTransition: after every state change
//   - HookDetectionDropped: when a detection is rejected by the gate
//   - HookTerminal: once, when the session reaches its terminal event
type HookType string

const (
	// HookTransition is triggered after the session changes state.
	HookTransition HookType = "transition"

	// HookDetectionDropped is triggered when a detection arrives after the
	// terminal event, while the picker covers the camera, or after destroy.
	HookDetectionDropped HookType = "detection_dropped"

	// HookTerminal is triggered once with the terminal event.
	HookTerminal HookType = "terminal"
)

// HookContext carries the information a hook may inspect.
type HookContext struct {
	// Handle identifies the session.
	Handle core.Handle

	// Type is the hook type being executed.
	Type HookType

	// From and To are set for HookTransition.
	From, To core.State

	// Trigger names the inbound action or internal event behind the hook.
	Trigger string

	// Detection is set for HookDetectionDropped.
	Detection *core.DetectionEvent

	// Terminal is set for HookTerminal.
	Terminal *core.TerminalEvent
}

// Hook is a session lifecycle observer.
//
// Implementations should be fast since they run on the main executor and
// delay every later event. An error is logged by the controller and stops
// the remaining hooks of the same type; it never changes the session.
type Hook interface {
	// Type returns the hook type this implementation handles.
	Type() HookType

	// Execute performs the hook logic.
	Execute(ctx context.Context, hc *HookContext) error
}

// FunctionHook wraps a function as a Hook.
//
// Example:
//
//	logTransitions := NewFunctionHook(
//	    HookTransition,
//	    func(ctx context.Context, hc *HookContext) error {
//	        log.Printf("%s: %s -> %s", hc.Handle, hc.From, hc.To)
//	        return nil
//	    },
//	)
type FunctionHook struct {
	hookType HookType
	fn       func(ctx context.Context, hc *HookContext) error
}

// NewFunctionHook creates a function-based hook.
func NewFunctionHook(hookType HookType, fn func(ctx context.Context, hc *HookContext) error) *FunctionHook {
	return &FunctionHook{hookType: hookType, fn: fn}
}

// Type returns the hook type this function handles.
func (h *FunctionHook) Type() HookType { return h.hookType }

// Execute calls the wrapped function.
func (h *FunctionHook) Execute(ctx context.Context, hc *HookContext) error {
	return h.fn(ctx, hc)
}

// HookManager is a registry of hooks keyed by type. Registration and
// execution are safe for concurrent use.
type HookManager struct {
	mu    sync.RWMutex
	hooks map[HookType][]Hook
}

// NewHookManager creates an empty manager.
func NewHookManager() *HookManager {
	return &HookManager{hooks: make(map[HookType][]Hook)}
}

// Register adds a hook. Hooks of one type run in registration order.
func (m *HookManager) Register(h Hook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks[h.Type()] = append(m.hooks[h.Type()], h)
}

// Execute runs every hook registered for hookType and returns the first error.
func (m *HookManager) Execute(ctx context.Context, hookType HookType, hc *HookContext) error {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	hooks := append([]Hook(nil), m.hooks[hookType]...)
	m.mu.RUnlock()

	hc.Type = hookType
	for _, h := range hooks {
		if err := h.Execute(ctx, hc); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of hooks registered for hookType.
func (m *HookManager) Count(hookType HookType) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.hooks[hookType])
}
