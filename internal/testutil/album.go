package testutil

import (
	"sync"
	"time"

	"github.com/hupe1980/qrscan/album"
	"github.com/hupe1980/qrscan/core"
)

// ScriptedProvider is an album.Provider that records each flow and lets
// the test drive its outcome. When Script is set it runs on a new goroutine
// for every flow.
type ScriptedProvider struct {
	Script func(outcome album.Outcome)

	mu         sync.Mutex
	outcomes   []album.Outcome
	presenters []core.Presenter
	started    chan struct{}
}

var _ album.Provider = (*ScriptedProvider)(nil)

// NewScriptedProvider returns a provider that only records flows.
func NewScriptedProvider() *ScriptedProvider {
	return &ScriptedProvider{started: make(chan struct{}, 64)}
}

// StartPicking implements album.Provider.
func (p *ScriptedProvider) StartPicking(presenter core.Presenter, outcome album.Outcome) {
	p.mu.Lock()
	p.outcomes = append(p.outcomes, outcome)
	p.presenters = append(p.presenters, presenter)
	script := p.Script
	p.mu.Unlock()

	select {
	case p.started <- struct{}{}:
	default:
	}
	if script != nil {
		go script(outcome)
	}
}

// Starts returns how many flows were started.
func (p *ScriptedProvider) Starts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.outcomes)
}

// Last returns the outcome of the most recent flow, or nil.
func (p *ScriptedProvider) Last() album.Outcome {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.outcomes) == 0 {
		return nil
	}
	return p.outcomes[len(p.outcomes)-1]
}

// WaitStarted blocks until a flow starts or timeout passes.
func (p *ScriptedProvider) WaitStarted(timeout time.Duration) (album.Outcome, bool) {
	select {
	case <-p.started:
		return p.Last(), true
	case <-time.After(timeout):
		return nil, false
	}
}
