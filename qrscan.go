// Package qrscan is the entry point of the QR scanning session core. A
// Scanner creates scan sessions and routes the hosting UI's inbound calls to
// them by handle; outbound events reach the configured core.Delegate on the
// main executor.
//
// Typical usage:
//  1. Create a Scanner via New(), supplying a device provider, an album
//     provider and a delegate
//  2. CreateSession when the scanner screen appears, then forward visibility
//     changes, close and album pick actions
//  3. Destroy the session once its terminal event has been delivered
//
// Only one session may be active at a time.
package qrscan

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/hupe1980/qrscan/album"
	"github.com/hupe1980/qrscan/capture"
	"github.com/hupe1980/qrscan/core"
	"github.com/hupe1980/qrscan/decoder"
	"github.com/hupe1980/qrscan/engine"
	"github.com/hupe1980/qrscan/logging"
	"github.com/hupe1980/qrscan/session"
)

// Options configures the Scanner.
type Options struct {
	// DeviceProvider resolves the camera for every session.
	DeviceProvider core.DeviceProvider
	// Decoder is shared by all sessions (defaults to decoder.New()).
	Decoder core.Decoder
	// AlbumProvider is the album capability (optional).
	AlbumProvider album.Provider
	// MainExecutor is the host's UI context. When nil the Scanner runs its
	// own serial queue.
	MainExecutor core.Executor
	// Delegate receives outbound events (defaults to a no-op delegate).
	Delegate core.Delegate
	// SessionStore tracks live sessions (defaults to in-memory).
	SessionStore core.SessionStore
	// Hooks observe every session's lifecycle (optional).
	Hooks *engine.HookManager
	// MaxConcurrentDecodes bounds album decodes across all sessions
	// (defaults to DefaultMaxConcurrentDecodes).
	MaxConcurrentDecodes int64
	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// DefaultMaxConcurrentDecodes is the default album decode limit.
const DefaultMaxConcurrentDecodes = 2

// Scanner is the façade over engine controllers.
type Scanner struct {
	opts    Options
	main    core.Executor
	ownMain *capture.Queue
	store   core.SessionStore
	slots   *semaphore.Weighted
	logger  logging.Logger

	mu     sync.Mutex
	closed bool
}

// New creates a Scanner with optional overrides.
func New(optFns ...func(o *Options)) *Scanner {
	opts := Options{
		SessionStore: session.NewInMemoryStore(),
		Delegate:     core.NoOpDelegate{},
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Decoder == nil {
		opts.Decoder = decoder.New(func(o *decoder.Options) { o.Logger = opts.Logger })
	}
	if opts.MaxConcurrentDecodes <= 0 {
		opts.MaxConcurrentDecodes = DefaultMaxConcurrentDecodes
	}

	s := &Scanner{
		opts:   opts,
		store:  opts.SessionStore,
		slots:  semaphore.NewWeighted(opts.MaxConcurrentDecodes),
		logger: logging.With(opts.Logger, "scanner"),
	}
	s.main = opts.MainExecutor
	if s.main == nil {
		s.ownMain = capture.NewQueue("main", opts.Logger)
		s.main = s.ownMain
	}
	return s
}

// CreateSession validates cfg, creates a session and starts configuring its
// capture pipeline. It fails with core.ErrSessionActive while another
// session is registered: a finished session keeps its device input attached
// until Destroy releases it.
func (s *Scanner) CreateSession(cfg core.SessionConfig) (core.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", core.ErrDestroyed
	}
	if existing := s.store.List(); len(existing) > 0 {
		return "", fmt.Errorf("%w: %s (state %s)", core.ErrSessionActive, existing[0].Handle(), existing[0].State())
	}

	c, err := engine.New(core.NewHandle(), func(o *engine.Options) {
		o.Config = cfg
		o.DeviceProvider = s.opts.DeviceProvider
		o.Decoder = s.opts.Decoder
		o.Provider = s.opts.AlbumProvider
		o.MainExecutor = s.main
		o.Delegate = s.opts.Delegate
		o.Hooks = s.opts.Hooks
		o.DecodeSlots = s.slots
		o.Logger = s.opts.Logger
	})
	if err != nil {
		return "", err
	}
	if err := s.store.Put(c); err != nil {
		_ = c.Destroy(context.Background())
		return "", err
	}
	s.logger.Info("Scan session created", "session", c.Handle().String())
	c.Start()
	return c.Handle(), nil
}

// Session returns the session registered under h.
func (s *Scanner) Session(h core.Handle) (core.ScanSession, error) {
	return s.store.Get(h)
}

// NotifyBecameVisible forwards a visibility change.
func (s *Scanner) NotifyBecameVisible(h core.Handle) error {
	sess, err := s.store.Get(h)
	if err != nil {
		return err
	}
	sess.NotifyBecameVisible()
	return nil
}

// NotifyBecameHidden forwards a visibility change.
func (s *Scanner) NotifyBecameHidden(h core.Handle) error {
	sess, err := s.store.Get(h)
	if err != nil {
		return err
	}
	sess.NotifyBecameHidden()
	return nil
}

// RequestClose ends the session as cancelled by the user.
func (s *Scanner) RequestClose(h core.Handle) error {
	sess, err := s.store.Get(h)
	if err != nil {
		return err
	}
	sess.RequestClose()
	return nil
}

// RequestAlbumPick opens the album picker from presenter.
func (s *Scanner) RequestAlbumPick(h core.Handle, presenter core.Presenter) error {
	sess, err := s.store.Get(h)
	if err != nil {
		return err
	}
	sess.RequestAlbumPick(presenter)
	return nil
}

// Destroy releases the session's device and forgets the handle. It blocks
// until the capture pipeline is stopped and detached.
func (s *Scanner) Destroy(ctx context.Context, h core.Handle) error {
	sess, err := s.store.Get(h)
	if err != nil {
		return err
	}
	derr := sess.Destroy(ctx)
	if err := s.store.Delete(h); err != nil && !errors.Is(err, core.ErrSessionNotFound) {
		return err
	}
	return derr
}

// Close destroys every session and stops the internal main queue.
func (s *Scanner) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	var errs []error
	for _, sess := range s.store.List() {
		// A concurrent Destroy may have removed it already.
		if err := s.Destroy(ctx, sess.Handle()); err != nil && !errors.Is(err, core.ErrSessionNotFound) {
			errs = append(errs, err)
		}
	}
	if s.ownMain != nil {
		s.ownMain.Close()
	}
	return errors.Join(errs...)
}

// MainExecutor returns the executor delegate callbacks run on.
func (s *Scanner) MainExecutor() core.Executor { return s.main }
