// Package capture runs the camera side of a scan session.
//
// A Manager owns a Pipeline (one device input, one MetadataOutput) and a
// Queue, the serial session context on which every start, stop and
// reconfiguration executes. Detections are delivered to the main executor.
package capture
