// Package core provides the foundational domain types, interfaces and errors
// shared by every qrscan package. It defines the contracts for:
//
//   - Capture devices and the frame sources they open
//   - Detection and terminal events flowing out of a scan session
//   - The outbound Delegate a hosting UI implements
//   - Executors (the serialized session queue and the main/UI context)
//   - The photo library accessed by album providers
//   - Session stores keyed by opaque handles
//
// The package intentionally keeps implementation concerns (pipelines,
// decoders, state machines) out of scope, exposing small interfaces so hosts
// can plug in real camera hardware, custom galleries or their own UI loop.
package core
