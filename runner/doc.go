// Package runner drives scan sessions to completion for hosts without a UI
// event loop, such as CLIs and integration tests.
//
// A Runner owns a qrscan.Scanner wired to an engine.ChannelDelegate. Run
// returns a per-session event stream; RunSync blocks until the terminal
// event and returns it. Finished sessions are destroyed automatically.
package runner
