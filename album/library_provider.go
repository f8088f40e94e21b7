package album

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/qrscan/core"
	"github.com/hupe1980/qrscan/decoder"
	"github.com/hupe1980/qrscan/logging"
)

// Chooser stands in for the user selecting an asset. Returning ok=false
// cancels the flow. ctx is cancelled when the picker is dismissed.
type Chooser func(ctx context.Context, assets []core.Asset) (id string, ok bool)

// FirstAsset selects the first listed asset, the most recent one for the
// library stores in this module.
func FirstAsset(_ context.Context, assets []core.Asset) (string, bool) {
	if len(assets) == 0 {
		return "", false
	}
	return assets[0].ID, true
}

// ByName selects the asset with the given name.
func ByName(name string) Chooser {
	return func(_ context.Context, assets []core.Asset) (string, bool) {
		for _, a := range assets {
			if a.Name == name {
				return a.ID, true
			}
		}
		return "", false
	}
}

// LibraryProvider is a gallery over a core.PhotoLibrary. Loading runs on its
// own goroutine so the caller is never blocked.
type LibraryProvider struct {
	library core.PhotoLibrary
	choose  Chooser
	logger  logging.Logger

	mu      sync.Mutex
	current *libraryPick
	wg      sync.WaitGroup
}

type libraryPick struct {
	outcome Outcome
	cancel  context.CancelFunc
}

var _ Provider = (*LibraryProvider)(nil)

// NewLibraryProvider creates a provider. A nil chooser selects FirstAsset.
func NewLibraryProvider(lib core.PhotoLibrary, choose Chooser, logger logging.Logger) *LibraryProvider {
	if choose == nil {
		choose = FirstAsset
	}
	return &LibraryProvider{library: lib, choose: choose, logger: logging.With(logger, "album.library")}
}

// StartPicking implements Provider.
func (p *LibraryProvider) StartPicking(_ core.Presenter, outcome Outcome) {
	ctx, cancel := context.WithCancel(context.Background())
	pick := &libraryPick{outcome: outcome, cancel: cancel}

	p.mu.Lock()
	p.current = pick
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer cancel()
		p.run(ctx, outcome)
		p.mu.Lock()
		if p.current == pick {
			p.current = nil
		}
		p.mu.Unlock()
	}()
}

func (p *LibraryProvider) run(ctx context.Context, outcome Outcome) {
	outcome.Presented()

	if p.library == nil {
		outcome.Failed("photo library unavailable")
		return
	}
	assets, err := p.library.List()
	if err != nil {
		outcome.Failed(fmt.Sprintf("list photo library: %v", err))
		return
	}

	id, ok := p.choose(ctx, assets)
	if !ok || ctx.Err() != nil {
		outcome.Cancelled()
		return
	}

	data, err := p.library.Get(id)
	if err != nil {
		p.logger.Warn("Loading selected asset failed", "asset", id, "error", err.Error())
		outcome.Failed(fmt.Sprintf("load asset %s: %v", id, err))
		return
	}
	img, err := decoder.LoadImage(data)
	if err != nil {
		p.logger.Warn("Selected asset is not an image", "asset", id, "error", err.Error())
		outcome.Failed(core.ErrAssetUnreadable.Error())
		return
	}
	outcome.Picked(img)
}

// Dismiss models the dismissal gesture. It reports Cancelled for the flow in
// progress, racing whatever the loader reports.
func (p *LibraryProvider) Dismiss() {
	p.mu.Lock()
	pick := p.current
	p.current = nil
	p.mu.Unlock()
	if pick == nil {
		return
	}
	pick.cancel()
	pick.outcome.Cancelled()
}

// Wait blocks until every loader goroutine has returned.
func (p *LibraryProvider) Wait() { p.wg.Wait() }
