package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/qrscan"
	"github.com/hupe1980/qrscan/core"
	"github.com/hupe1980/qrscan/engine"
	"github.com/hupe1980/qrscan/logging"
)

// Options holds dependency and configuration overrides passed to New().
type Options struct {
	// Scanner options forwarded to qrscan.New. Delegate, when set, receives
	// every event in addition to the runner.
	Scanner []func(o *qrscan.Options)
	// EventBufferSize sets channel buffering for events.
	EventBufferSize int
	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Runner drives scan sessions to completion: it creates a session, marks it
// visible, streams its events until the terminal one and destroys it.
// Public methods are safe for concurrent use; the scanner itself still only
// admits one active session.
//
// Delivery never blocks the main executor: every run buffers its events
// without bound and forwards them on its own goroutine. A consumer that stops
// reading only delays its own stream.
type Runner struct {
	scanner *qrscan.Scanner
	events  *engine.ChannelDelegate
	buffer  int
	logger  logging.Logger

	stop     chan struct{}
	stopOnce sync.Once
	pumpDone chan struct{}

	mu      sync.Mutex
	runs    map[core.Handle]*run
	pumping bool
}

// run is one session's stream. pending is filled by pump and drained by
// forward.
type run struct {
	events chan core.Event
	done   chan struct{}
	wake   chan struct{}

	mu       sync.Mutex
	pending  []core.Event
	finished bool
}

func newRun(buffer int) *run {
	return &run{
		events: make(chan core.Event, buffer),
		done:   make(chan struct{}),
		wake:   make(chan struct{}, 1),
	}
}

func (rn *run) signal() {
	select {
	case rn.wake <- struct{}{}:
	default:
	}
}

func (rn *run) push(ev core.Event) {
	rn.mu.Lock()
	rn.pending = append(rn.pending, ev)
	rn.mu.Unlock()
	rn.signal()
}

// finish marks the stream complete; forward closes it once drained.
func (rn *run) finish() {
	rn.mu.Lock()
	rn.finished = true
	rn.mu.Unlock()
	close(rn.done)
	rn.signal()
}

// forward delivers pending events in order and closes the stream after the
// last one, or right away when stop is closed.
func (rn *run) forward(stop <-chan struct{}) {
	defer close(rn.events)
	for {
		rn.mu.Lock()
		if len(rn.pending) == 0 {
			finished := rn.finished
			rn.mu.Unlock()
			if finished {
				return
			}
			select {
			case <-rn.wake:
				continue
			case <-stop:
				return
			}
		}
		ev := rn.pending[0]
		rn.pending = rn.pending[1:]
		rn.mu.Unlock()

		select {
		case rn.events <- ev:
		case <-stop:
			return
		}
	}
}

// New constructs a Runner with optional overrides.
func New(optFns ...func(o *Options)) *Runner {
	opts := Options{EventBufferSize: engine.DefaultEventBuffer, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.EventBufferSize <= 0 {
		opts.EventBufferSize = engine.DefaultEventBuffer
	}

	r := &Runner{
		events:   engine.NewChannelDelegate(opts.EventBufferSize),
		buffer:   opts.EventBufferSize,
		logger:   logging.With(opts.Logger, "runner"),
		stop:     make(chan struct{}),
		pumpDone: make(chan struct{}),
		runs:     make(map[core.Handle]*run),
	}
	scannerOpts := append([]func(o *qrscan.Options){func(o *qrscan.Options) { o.Logger = opts.Logger }}, opts.Scanner...)
	scannerOpts = append(scannerOpts, func(o *qrscan.Options) {
		if o.Delegate == nil {
			o.Delegate = r.events
			return
		}
		if _, noop := o.Delegate.(core.NoOpDelegate); noop {
			o.Delegate = r.events
			return
		}
		o.Delegate = engine.MultiDelegate{o.Delegate, r.events}
	})
	r.scanner = qrscan.New(scannerOpts...)
	return r
}

// Scanner exposes the underlying façade, e.g. for album picks.
func (r *Runner) Scanner() *qrscan.Scanner { return r.scanner }

// Run starts a visible session and returns its event stream. The stream is
// closed after the terminal event, once the session has been destroyed, or
// when the Runner is closed. Cancelling ctx closes the session as cancelled
// by the user.
func (r *Runner) Run(ctx context.Context, cfg core.SessionConfig) (core.Handle, <-chan core.Event, error) {
	rn := newRun(r.buffer)

	r.mu.Lock()
	h, err := r.scanner.CreateSession(cfg)
	if err != nil {
		r.mu.Unlock()
		return "", nil, err
	}
	r.runs[h] = rn
	if !r.pumping {
		r.pumping = true
		go r.pump()
	}
	r.mu.Unlock()
	go rn.forward(r.stop)

	if err := r.scanner.NotifyBecameVisible(h); err != nil {
		return "", nil, err
	}

	go func() {
		select {
		case <-ctx.Done():
			r.logger.Info("Run cancelled, closing session", "session", h.String())
			_ = r.scanner.RequestClose(h)
		case <-rn.done:
		case <-r.stop:
		}
	}()
	return h, rn.events, nil
}

// pump routes delegate events to their run until the Runner is closed.
// After a terminal event the session is destroyed here, off the main
// executor.
func (r *Runner) pump() {
	defer close(r.pumpDone)
	for {
		var ev core.Event
		select {
		case <-r.stop:
			return
		case ev = <-r.events.Events():
		}

		r.mu.Lock()
		rn, ok := r.runs[ev.Handle]
		r.mu.Unlock()
		if !ok {
			continue
		}
		rn.push(ev)
		if !ev.IsTerminal() {
			continue
		}
		if err := r.scanner.Destroy(context.Background(), ev.Handle); err != nil {
			r.logger.Warn("Destroying finished session failed", "session", ev.Handle.String(), "error", err.Error())
		}
		r.mu.Lock()
		delete(r.runs, ev.Handle)
		r.mu.Unlock()
		rn.finish()
	}
}

// RunSync runs a session to completion and returns its terminal event
// together with every event observed. It returns after the session has been
// destroyed.
func (r *Runner) RunSync(ctx context.Context, cfg core.SessionConfig) (core.TerminalEvent, []core.Event, error) {
	_, stream, err := r.Run(ctx, cfg)
	if err != nil {
		return core.TerminalEvent{}, nil, err
	}
	var (
		events   []core.Event
		terminal core.TerminalEvent
		found    bool
	)
	for ev := range stream {
		events = append(events, ev)
		if t, ok := ev.Terminal(); ok {
			terminal, found = t, true
		}
	}
	if !found {
		return core.TerminalEvent{}, events, fmt.Errorf("event stream closed without terminal event")
	}
	return terminal, events, nil
}

// Close destroys every session, stops routing and closes every open stream.
// Events not yet read are dropped.
func (r *Runner) Close(ctx context.Context) error {
	// The pump keeps draining while sessions are destroyed.
	err := r.scanner.Close(ctx)
	r.stopOnce.Do(func() { close(r.stop) })

	r.mu.Lock()
	pumping := r.pumping
	r.runs = make(map[core.Handle]*run)
	r.mu.Unlock()
	if pumping {
		<-r.pumpDone
	}
	return err
}
