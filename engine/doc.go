// Package engine implements the scan session state machine.
//
// A Controller coordinates one continuously running capture pipeline, one
// competing album picking flow and the decoder, and emits exactly one
// terminal event (scanned or cancelled) per session.
//
// # State Machine
//
//	Idle ──start──▶ Configuring ──configured──▶ Live ◀──────────────┐
//	  │                 │                        │                  │
//	  │                 │ no device              │ album pick       │ cancel, fail,
//	  │                 ▼                        ▼                  │ decode miss
//	  └──close──▶   Terminal ◀── detection ── PickerPending ──presented──▶ PickerActive
//
// Every state except Terminal may move to Terminal. Terminal is absorbing.
// The legal edges live in a single table (see CanTransition).
//
// # Concurrency Model
//
// Two executors cooperate:
//
//   - the main executor runs every controller state change and every
//     Delegate callback; the dedup gate and the picker flag are owned by it
//   - the session queue (capture.Queue) runs every pipeline start, stop and
//     reconfiguration in submission order
//
// Camera detections and album results both re-enter the main executor
// before they reach the gate, so whichever arrives first wins and the other
// is dropped. Album images are decoded on a separate goroutine.
//
// # Visibility
//
// Becoming visible requests a running pipeline. Becoming hidden stops it,
// unless the album picker is what hid the scanner: then the camera is kept
// warm so the user returns to a live preview. While the picker is shown,
// camera detections are suppressed; when it goes away they are accepted
// again.
//
// # Teardown
//
// Destroy blocks until the session queue has stopped the pipeline and
// detached the device input. It may be called from a delegate callback.
//
// # Observability
//
// Hooks (HookTransition, HookDetectionDropped, HookTerminal) observe the
// session without influencing it. ChannelDelegate turns Delegate callbacks
// into a channel of core.Event.
package engine
