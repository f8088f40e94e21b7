package album

import (
	"image"
	"sync"

	"github.com/hupe1980/qrscan/core"
	"github.com/hupe1980/qrscan/logging"
)

// Options configures a Coordinator.
type Options struct {
	Logger logging.Logger
}

// Coordinator starts picking flows on a Provider and enforces the outcome
// contract: at most one terminal outcome (cancelled, picked or failed) per
// flow, and Presented at most once, never after the terminal outcome.
// Only one flow may be outstanding.
type Coordinator struct {
	provider Provider
	logger   logging.Logger

	mu          sync.Mutex
	outstanding *flow
	sealed      bool
	flows       int
}

// NewCoordinator wraps p.
func NewCoordinator(p Provider, optFns ...func(o *Options)) *Coordinator {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Coordinator{provider: p, logger: logging.With(opts.Logger, "album")}
}

// StartPicking opens a flow. It fails with core.ErrPickerBusy while another
// flow is outstanding, core.ErrSessionTerminal after Seal and
// core.ErrNoAlbumProvider when there is no provider.
func (c *Coordinator) StartPicking(presenter core.Presenter, outcome Outcome) error {
	c.mu.Lock()
	switch {
	case c.sealed:
		c.mu.Unlock()
		return core.ErrSessionTerminal
	case c.provider == nil:
		c.mu.Unlock()
		return core.ErrNoAlbumProvider
	case c.outstanding != nil:
		c.mu.Unlock()
		return core.ErrPickerBusy
	}
	c.flows++
	f := &flow{c: c, id: c.flows, outcome: outcome}
	c.outstanding = f
	c.mu.Unlock()

	c.logger.Info("Album picker starting", "flow", f.id)
	c.provider.StartPicking(presenter, f)
	return nil
}

// Seal rejects every later StartPicking. A flow still outstanding keeps
// its latch; its outcome is still delivered once.
func (c *Coordinator) Seal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sealed = true
}

// Outstanding reports whether a flow has not completed yet.
func (c *Coordinator) Outstanding() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outstanding != nil
}

func (c *Coordinator) release(f *flow) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.outstanding == f {
		c.outstanding = nil
	}
}

type flow struct {
	c       *Coordinator
	id      int
	outcome Outcome

	mu        sync.Mutex
	presented bool
	completed bool
}

func (f *flow) Presented() {
	f.mu.Lock()
	if f.presented || f.completed {
		f.mu.Unlock()
		f.c.logger.Debug("Dropped duplicate picker presentation", "flow", f.id)
		return
	}
	f.presented = true
	f.mu.Unlock()
	f.outcome.Presented()
}

// complete flips the latch and releases the coordinator. It reports false
// for every call after the first.
func (f *flow) complete(kind string) bool {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		f.c.logger.Debug("Dropped duplicate picker completion", "flow", f.id, "outcome", kind)
		return false
	}
	f.completed = true
	f.mu.Unlock()
	f.c.release(f)
	f.c.logger.Info("Album picker finished", "flow", f.id, "outcome", kind)
	return true
}

func (f *flow) Cancelled() {
	if f.complete("cancelled") {
		f.outcome.Cancelled()
	}
}

func (f *flow) Picked(img image.Image) {
	if img == nil {
		f.Failed(core.ErrAssetUnreadable.Error())
		return
	}
	if f.complete("picked") {
		f.outcome.Picked(img)
	}
}

func (f *flow) Failed(description string) {
	if f.complete("failed") {
		f.outcome.Failed(description)
	}
}
