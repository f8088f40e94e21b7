package engine

import (
	"context"
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/hupe1980/qrscan/album"
	"github.com/hupe1980/qrscan/capture"
	"github.com/hupe1980/qrscan/core"
	"github.com/hupe1980/qrscan/decoder"
	"github.com/hupe1980/qrscan/logging"
)

// Options configures a Controller using the functional options pattern.
//
// Every collaborator has a usable default except the device provider and
// the album provider: without a device the session cancels itself right
// after Start, and without an album provider every album pick fails with
// core.ErrNoAlbumProvider.
type Options struct {
	// Config is copied on construction. Zero fields take their defaults.
	Config core.SessionConfig

	// DeviceProvider resolves the camera unless Config.Device is set.
	DeviceProvider core.DeviceProvider

	// Decoder is shared by the camera output and the album path.
	// Defaults to decoder.New().
	Decoder core.Decoder

	// Provider is the album capability.
	Provider album.Provider

	// MainExecutor runs every controller state change and every delegate
	// callback. When nil the controller runs a private queue.
	MainExecutor core.Executor

	// Delegate receives outbound events. Defaults to core.NoOpDelegate.
	Delegate core.Delegate

	// Hooks observe transitions, dropped detections and the terminal event.
	Hooks *HookManager

	// DecodeSlots bounds album decodes running at once. It may be shared
	// between sessions; nil means unbounded.
	DecodeSlots *semaphore.Weighted

	// Logger defaults to a NoOpLogger.
	Logger logging.Logger
}

// Controller is one scan session.
//
// The controller owns the dedup gate (handledTerminal) and the picker flag.
// Both are read and written only on the main executor, so the camera and
// album paths racing into the gate are serialized there and the first one
// to arrive wins. Capture work is delegated to a capture.Manager running on
// the session queue.
//
// Inbound methods never block, except Destroy which waits until the device
// has been released.
type Controller struct {
	handle   core.Handle
	config   core.SessionConfig
	main     core.Executor
	ownMain  *capture.Queue
	capture  *capture.Manager
	picker   *album.Coordinator
	decoder  core.Decoder
	delegate core.Delegate
	hooks    *HookManager
	slots    *semaphore.Weighted
	logger   logging.Logger

	state     atomic.Int32
	destroyed atomic.Bool
	decodes   sync.WaitGroup

	// Owned by the main executor.
	started         bool
	visible         bool
	handledTerminal bool
	pickerActive    bool
	pickerGen       int
}

var _ core.ScanSession = (*Controller)(nil)

// New creates an idle session. The configuration is validated and copied.
func New(handle core.Handle, optFns ...func(o *Options)) (*Controller, error) {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	cfg := opts.Config.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if handle == "" {
		handle = core.NewHandle()
	}

	logger := logging.OrNoOp(opts.Logger)
	if sl, ok := logger.(*logging.ScanLogger); ok {
		logger = sl.WithSession(handle.String())
	}
	if opts.Decoder == nil {
		opts.Decoder = decoder.New(func(o *decoder.Options) { o.Logger = logger })
	}
	if opts.Delegate == nil {
		opts.Delegate = core.NoOpDelegate{}
	}

	c := &Controller{
		handle:   handle,
		config:   cfg,
		main:     opts.MainExecutor,
		decoder:  opts.Decoder,
		delegate: opts.Delegate,
		hooks:    opts.Hooks,
		slots:    opts.DecodeSlots,
		logger:   logging.With(logger, "engine"),
	}
	if c.main == nil {
		c.ownMain = capture.NewQueue("main:"+handle.String(), logger)
		c.main = c.ownMain
	}
	c.state.Store(int32(core.StateIdle))

	c.capture = capture.NewManager(c.onCameraDetection, func(o *capture.Options) {
		o.DeviceProvider = opts.DeviceProvider
		o.Device = cfg.Device
		o.Decoder = opts.Decoder
		o.Symbologies = cfg.Symbologies
		o.RegionOfInterest = cfg.RegionOfInterest
		o.MainExecutor = c.main
		o.Logger = logger
		o.Label = "session:" + handle.String()
	})
	c.picker = album.NewCoordinator(opts.Provider, func(o *album.Options) { o.Logger = logger })
	return c, nil
}

// Handle returns the session handle.
func (c *Controller) Handle() core.Handle { return c.handle }

// Config returns the session configuration.
func (c *Controller) Config() core.SessionConfig { return c.config }

// State returns a snapshot of the session state.
func (c *Controller) State() core.State { return core.State(c.state.Load()) }

// CaptureStats returns the capture pipeline counters.
func (c *Controller) CaptureStats() capture.Stats { return c.capture.Stats() }

// Start begins configuring the capture pipeline. Calls after the first are
// ignored.
func (c *Controller) Start() {
	c.main.Async(func() {
		if c.inactive() || c.started {
			return
		}
		c.started = true
		c.transition(core.StateConfiguring, "start")
		c.capture.Configure(c.onConfigured)
	})
}

func (c *Controller) onConfigured(err error) {
	if c.inactive() {
		return
	}
	if err != nil {
		c.logger.Warn("Capture unavailable, cancelling session", "error", err.Error())
		c.finish(core.Cancelled(err), "configure_failed")
		return
	}
	c.transition(core.StateLive, "configured")
}

// NotifyBecameVisible requests a running pipeline.
func (c *Controller) NotifyBecameVisible() {
	c.main.Async(func() {
		c.visible = true
		if c.inactive() {
			return
		}
		c.capture.SetDesiredRunning(true)
	})
}

// NotifyBecameHidden stops the pipeline unless the album picker covers the
// scanner, in which case the camera is kept warm.
func (c *Controller) NotifyBecameHidden() {
	c.main.Async(func() {
		c.visible = false
		if c.inactive() {
			return
		}
		if c.pickerActive {
			c.logger.Debug("Keeping capture warm behind album picker")
			return
		}
		c.capture.SetDesiredRunning(false)
	})
}

// RequestClose ends the session as cancelled by the user.
func (c *Controller) RequestClose() {
	c.main.Async(func() {
		if c.inactive() {
			return
		}
		c.finish(core.Cancelled(core.ErrClosedByUser), "close")
	})
}

// RequestAlbumPick starts an album flow. It is honoured only while the
// session is live; a failing provider reports OnPickerFailed and leaves the
// session live.
func (c *Controller) RequestAlbumPick(presenter core.Presenter) {
	c.main.Async(func() {
		if c.inactive() {
			return
		}
		if s := c.State(); s != core.StateLive {
			c.logger.Debug("Ignoring album pick request", "state", s.String())
			return
		}

		c.pickerGen++
		gen := c.pickerGen
		c.pickerActive = true
		c.transition(core.StatePickerPending, "album_pick")

		if err := c.picker.StartPicking(presenter, c.outcome(gen)); err != nil {
			c.logger.Warn("Album picker unavailable", "error", err.Error())
			c.resumeLive("picker_unavailable")
			c.delegate.OnPickerFailed(c.handle, err.Error())
		}
	})
}

// outcome binds a picker flow to its generation. Every callback re-enters
// the main executor.
func (c *Controller) outcome(gen int) album.Outcome {
	return album.OutcomeFuncs{
		OnPresented: func() { c.main.Async(func() { c.onPickerPresented(gen) }) },
		OnCancelled: func() { c.main.Async(func() { c.onPickerCancelled(gen) }) },
		OnPicked:    func(img image.Image) { c.main.Async(func() { c.onPickerPicked(gen, img) }) },
		OnFailed:    func(desc string) { c.main.Async(func() { c.onPickerFailed(gen, desc) }) },
	}
}

func (c *Controller) stalePicker(gen int) bool {
	return c.inactive() || !c.pickerActive || gen != c.pickerGen
}

func (c *Controller) onPickerPresented(gen int) {
	if c.stalePicker(gen) || c.State() != core.StatePickerPending {
		return
	}
	c.transition(core.StatePickerActive, "picker_presented")
	c.capture.SetDetectionEnabled(false)
	c.delegate.OnPickerPresented(c.handle)
}

func (c *Controller) onPickerCancelled(gen int) {
	if c.stalePicker(gen) {
		return
	}
	c.resumeLive("picker_cancelled")
}

func (c *Controller) onPickerFailed(gen int, desc string) {
	if c.stalePicker(gen) {
		return
	}
	c.resumeLive("picker_failed")
	c.delegate.OnPickerFailed(c.handle, desc)
}

// onPickerPicked decodes off the main executor; the result re-enters it.
func (c *Controller) onPickerPicked(gen int, img image.Image) {
	if c.stalePicker(gen) {
		return
	}
	c.decodes.Add(1)
	go func() {
		defer c.decodes.Done()
		if c.slots != nil {
			// Background never cancels, so Acquire cannot fail.
			_ = c.slots.Acquire(context.Background(), 1)
			defer c.slots.Release(1)
		}
		code, ok := c.decoder.Decode(img)
		c.main.Async(func() { c.onAlbumDecoded(gen, code, ok) })
	}()
}

func (c *Controller) onAlbumDecoded(gen int, code string, ok bool) {
	if c.stalePicker(gen) {
		return
	}
	if !ok {
		c.logger.Info("No code in picked image")
		c.resumeLive("decode_miss")
		c.delegate.OnPickerFailed(c.handle, core.ErrNoCodeFound.Error())
		return
	}
	c.finish(core.Scanned(core.NewDetectionEvent(core.SourceAlbum, code)), "album_decoded")
}

// resumeLive leaves the picker states. The pipeline is stopped when the
// scanner became hidden while the picker was up.
func (c *Controller) resumeLive(trigger string) {
	c.pickerActive = false
	c.transition(core.StateLive, trigger)
	c.capture.SetDetectionEnabled(true)
	if !c.visible {
		c.capture.SetDesiredRunning(false)
	}
}

// onCameraDetection runs on the main executor.
func (c *Controller) onCameraDetection(ev core.DetectionEvent) {
	if c.inactive() || !acceptsCameraDetection(c.State()) {
		c.dropped(ev)
		return
	}
	c.finish(core.Scanned(ev), "camera_detected")
}

func (c *Controller) dropped(ev core.DetectionEvent) {
	c.logger.Debug("Dropped detection", "source", string(ev.Source), "state", c.State().String())
	c.runHooks(HookDetectionDropped, &HookContext{Detection: &ev, Trigger: string(ev.Source)})
}

// finish is the dedup gate. The first caller moves the session to Terminal,
// silences and stops capture, seals the picker and notifies the delegate.
func (c *Controller) finish(t core.TerminalEvent, trigger string) bool {
	if c.handledTerminal {
		return false
	}
	c.handledTerminal = true
	c.pickerActive = false
	c.transition(core.StateTerminal, trigger)

	c.picker.Seal()
	c.capture.SetDetectionEnabled(false)
	c.capture.SetDesiredRunning(false)

	if t.IsScanned() {
		c.logger.Info("Session scanned", "source", string(t.Source))
	} else {
		c.logger.Info("Session cancelled", "reason", errString(t.Reason))
	}
	c.runHooks(HookTerminal, &HookContext{Terminal: &t, Trigger: trigger})

	if t.IsScanned() {
		c.delegate.OnScanned(c.handle, t.Code)
	} else {
		c.delegate.OnCancelled(c.handle, t.Reason)
	}
	return true
}

func (c *Controller) inactive() bool {
	return c.handledTerminal || c.destroyed.Load()
}

func (c *Controller) transition(to core.State, trigger string) {
	from := c.State()
	if from == to {
		return
	}
	if !CanTransition(from, to) {
		c.logger.Warn("Illegal session transition", "from", from.String(), "to", to.String(), "trigger", trigger)
		return
	}
	c.state.Store(int32(to))
	if sl, ok := c.logger.(*logging.ScanLogger); ok {
		sl.LogTransition(from.String(), to.String(), trigger)
	} else {
		c.logger.Debug("Session transition", "from", from.String(), "to", to.String(), "trigger", trigger)
	}
	c.runHooks(HookTransition, &HookContext{From: from, To: to, Trigger: trigger})
}

func (c *Controller) runHooks(t HookType, hc *HookContext) {
	if c.hooks == nil {
		return
	}
	hc.Handle = c.handle
	if err := c.hooks.Execute(context.Background(), t, hc); err != nil {
		c.logger.Warn("Hook failed", "hook", string(t), "error", err.Error())
	}
}

// Destroy releases the device and blocks until the session queue has
// stopped the pipeline and detached everything. It is safe to call from a
// delegate callback or from the session queue itself; later inbound calls
// and in-flight detections are ignored and no further events are emitted.
func (c *Controller) Destroy(ctx context.Context) error {
	if !c.destroyed.CompareAndSwap(false, true) {
		return nil
	}
	c.picker.Seal()
	if err := c.capture.Close(ctx); err != nil {
		return fmt.Errorf("destroy %s: %w", c.handle, err)
	}
	if c.ownMain != nil {
		c.ownMain.Close()
	}
	c.logger.Info("Session destroyed")
	return nil
}

// Destroyed reports whether Destroy has been called.
func (c *Controller) Destroyed() bool { return c.destroyed.Load() }

// WaitDecodes blocks until every album decode goroutine has returned.
func (c *Controller) WaitDecodes() { c.decodes.Wait() }

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
