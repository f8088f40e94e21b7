package capture

import (
	"errors"
	"sync"

	"github.com/hupe1980/qrscan/core"
)

// Output receives every frame the pipeline's input produces while running.
type Output interface {
	Consume(frame core.Frame)
}

// Stats is a counter snapshot of a pipeline.
type Stats struct {
	Attaches int
	Detaches int
	Starts   int
	Stops    int
	Running  bool
	Inputs   int
	Outputs  int
}

var (
	errNestedConfiguration = errors.New("configuration already in progress")
	errNoConfiguration     = errors.New("no configuration in progress")
	errInputLimit          = errors.New("pipeline accepts a single input")
	errInputRejected       = errors.New("pipeline cannot add the device input")
	errOutputRejected      = errors.New("pipeline cannot add the metadata output")
)

// Pipeline connects one device input to its outputs. Topology changes made
// between BeginConfiguration and CommitConfiguration are applied atomically
// on commit. Only StartRunning and StopRunning touch the device.
//
// Callers are expected to drive a pipeline from a single Queue; the internal
// lock only protects frame fan-out running on the device goroutine.
type Pipeline struct {
	mu      sync.RWMutex
	input   core.FrameSource
	outputs []Output
	running bool
	stats   Stats

	configuring bool
	stageInput  core.FrameSource
	stageOuts   []Output
}

// NewPipeline returns an empty, stopped pipeline.
func NewPipeline() *Pipeline { return &Pipeline{} }

// BeginConfiguration opens a configuration block.
func (p *Pipeline) BeginConfiguration() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.configuring {
		return errNestedConfiguration
	}
	p.configuring = true
	p.stageInput = p.input
	p.stageOuts = append([]Output(nil), p.outputs...)
	return nil
}

// CanAddInput reports whether src could be attached in the current block.
func (p *Pipeline) CanAddInput(src core.FrameSource) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.configuring && src != nil && p.stageInput == nil
}

// AddInput stages src as the pipeline input.
func (p *Pipeline) AddInput(src core.FrameSource) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.configuring {
		return errNoConfiguration
	}
	if p.stageInput != nil {
		return errInputLimit
	}
	p.stageInput = src
	return nil
}

// CanAddOutput reports whether out could be attached in the current block.
func (p *Pipeline) CanAddOutput(out Output) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.configuring || out == nil {
		return false
	}
	for _, o := range p.stageOuts {
		if o == out {
			return false
		}
	}
	return true
}

// AddOutput stages out.
func (p *Pipeline) AddOutput(out Output) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.configuring {
		return errNoConfiguration
	}
	p.stageOuts = append(p.stageOuts, out)
	return nil
}

// RemoveAll stages the removal of every input and output.
func (p *Pipeline) RemoveAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.configuring {
		return errNoConfiguration
	}
	p.stageInput = nil
	p.stageOuts = nil
	return nil
}

// AbortConfiguration closes the configuration block and discards every
// staged change. Staged inputs are not closed.
func (p *Pipeline) AbortConfiguration() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.configuring = false
	p.stageInput, p.stageOuts = nil, nil
}

// CommitConfiguration applies the staged topology. A detached input is
// stopped if needed and closed.
func (p *Pipeline) CommitConfiguration() error {
	p.mu.Lock()
	if !p.configuring {
		p.mu.Unlock()
		return errNoConfiguration
	}
	p.configuring = false
	old := p.input
	wasRunning := p.running
	if old != p.stageInput {
		if old != nil {
			p.stats.Detaches++
		}
		if p.stageInput != nil {
			p.stats.Attaches++
		}
		if wasRunning {
			p.running = false
			p.stats.Stops++
		}
	} else {
		old = nil
	}
	p.input = p.stageInput
	p.outputs = p.stageOuts
	p.stageInput, p.stageOuts = nil, nil
	p.mu.Unlock()

	if old == nil {
		return nil
	}
	if wasRunning {
		old.Stop()
	}
	return old.Close()
}

// StartRunning starts the attached input. It is a no-op when already running
// or when no input is attached.
func (p *Pipeline) StartRunning() error {
	p.mu.Lock()
	if p.running || p.input == nil {
		p.mu.Unlock()
		return nil
	}
	in := p.input
	p.running = true
	p.stats.Starts++
	p.mu.Unlock()

	if err := in.Start(p.deliver); err != nil {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
		return err
	}
	return nil
}

// StopRunning stops the attached input. It is a no-op when not running.
func (p *Pipeline) StopRunning() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	in := p.input
	p.running = false
	p.stats.Stops++
	p.mu.Unlock()

	if in != nil {
		in.Stop()
	}
}

// IsRunning reports whether frames are flowing.
func (p *Pipeline) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}

// Stats returns a counter snapshot.
func (p *Pipeline) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s := p.stats
	s.Running = p.running
	if p.input != nil {
		s.Inputs = 1
	}
	s.Outputs = len(p.outputs)
	return s
}

func (p *Pipeline) deliver(frame core.Frame) {
	p.mu.RLock()
	if !p.running {
		p.mu.RUnlock()
		return
	}
	outs := p.outputs
	p.mu.RUnlock()

	for _, o := range outs {
		o.Consume(frame)
	}
}
