package capture

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/hupe1980/qrscan/core"
	"github.com/hupe1980/qrscan/logging"
)

// Options configures a Manager.
type Options struct {
	// DeviceProvider resolves the default device when Device is nil.
	DeviceProvider core.DeviceProvider
	// Device overrides the provider.
	Device core.Device
	// Decoder is used for frames without hardware metadata.
	Decoder core.Decoder
	// Symbologies enabled while detection is on. Defaults to QR.
	Symbologies []core.Symbology
	// RegionOfInterest for software decoding. Defaults to the full frame.
	RegionOfInterest core.Rect
	// MainExecutor receives detections and configuration results. When nil
	// the manager runs a private queue.
	MainExecutor core.Executor
	// Logger defaults to a NoOpLogger.
	Logger logging.Logger
	// Label names the session queue in logs.
	Label string
}

// Manager owns one capture pipeline and its session queue. Every pipeline
// mutation and every read of the manager's flags happens on that queue, so
// start and stop calls are strictly ordered.
type Manager struct {
	opts     Options
	logger   logging.Logger
	queue    *Queue
	main     core.Executor
	ownMain  *Queue
	pipeline *Pipeline
	output   *MetadataOutput

	// Owned by the session queue.
	attempted        bool
	configured       bool
	desiredRunning   bool
	detectionEnabled bool
	released         bool

	configuredFlag atomic.Bool
	releasedFlag   atomic.Bool
}

// NewManager builds an unconfigured manager. onDetect is invoked on the main
// executor for every QR payload the output reports.
func NewManager(onDetect func(core.DetectionEvent), optFns ...func(o *Options)) *Manager {
	opts := Options{
		Symbologies:      []core.Symbology{core.SymbologyQR},
		RegionOfInterest: core.FullFrame,
		Label:            "capture",
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if len(opts.Symbologies) == 0 {
		opts.Symbologies = []core.Symbology{core.SymbologyQR}
	}

	logger := logging.With(opts.Logger, "capture")
	m := &Manager{
		opts:             opts,
		logger:           logger,
		queue:            NewQueue(opts.Label, logger),
		pipeline:         NewPipeline(),
		output:           NewMetadataOutput(opts.Decoder, logger),
		detectionEnabled: true,
	}
	m.main = opts.MainExecutor
	if m.main == nil {
		m.ownMain = NewQueue(opts.Label+".main", logger)
		m.main = m.ownMain
	}
	m.output.SetRectOfInterest(opts.RegionOfInterest)
	if onDetect != nil {
		m.output.SetDelegate(onDetect, m.main)
	}
	return m
}

// Queue returns the session queue.
func (m *Manager) Queue() *Queue { return m.queue }

// Configure resolves the device and attaches one input and one output in a
// single configuration block. Only the first call does anything; onDone is
// invoked on the main executor with its result.
func (m *Manager) Configure(onDone func(error)) {
	m.queue.Submit(func(context.Context) {
		if m.released || m.attempted {
			return
		}
		m.attempted = true

		done := logging.StartTimer(m.logger, "capture.configure")
		err := m.configure()
		done()
		if err == nil {
			m.configured = true
			m.configuredFlag.Store(true)
		}
		logging.LogCapture(m.logger, "configure", m.pipeline.IsRunning(), err)
		// Report before starting so the result precedes the first detection
		// on the main executor.
		if onDone != nil {
			m.main.Async(func() { onDone(err) })
		}
		m.applyRunning()
	})
}

func (m *Manager) configure() error {
	device, err := m.resolveDevice()
	if err != nil {
		return err
	}
	src, err := device.OpenInput()
	if err != nil {
		return fmt.Errorf("%w: %s: %w", core.ErrDeviceInput, device.ID(), err)
	}
	if src == nil {
		return fmt.Errorf("%w: %s", core.ErrDeviceInput, device.ID())
	}

	if err := m.pipeline.BeginConfiguration(); err != nil {
		_ = src.Close()
		return err
	}
	if err := m.stage(src); err != nil {
		m.pipeline.AbortConfiguration()
		_ = src.Close()
		return fmt.Errorf("%w: %s: %w", core.ErrDeviceInput, device.ID(), err)
	}
	m.syncObjectTypes()
	return m.pipeline.CommitConfiguration()
}

// stage adds the input and the output to the open configuration block.
func (m *Manager) stage(src core.FrameSource) error {
	if !m.pipeline.CanAddInput(src) {
		return errInputRejected
	}
	if err := m.pipeline.AddInput(src); err != nil {
		return err
	}
	if !m.pipeline.CanAddOutput(m.output) {
		return errOutputRejected
	}
	return m.pipeline.AddOutput(m.output)
}

func (m *Manager) resolveDevice() (core.Device, error) {
	if m.opts.Device != nil {
		return m.opts.Device, nil
	}
	if m.opts.DeviceProvider == nil {
		return nil, core.ErrNoCameraDevice
	}
	device, err := m.opts.DeviceProvider.DefaultDevice()
	if err != nil {
		if errors.Is(err, core.ErrNoCameraDevice) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", core.ErrNoCameraDevice, err)
	}
	if device == nil {
		return nil, core.ErrNoCameraDevice
	}
	return device, nil
}

// SetDesiredRunning records whether frames should flow and starts or stops
// the pipeline once it is configured.
func (m *Manager) SetDesiredRunning(running bool) {
	m.queue.Submit(func(context.Context) {
		if m.released {
			return
		}
		m.desiredRunning = running
		m.applyRunning()
	})
}

// SetDetectionEnabled toggles the output's symbology filter.
func (m *Manager) SetDetectionEnabled(enabled bool) {
	m.queue.Submit(func(context.Context) {
		if m.released {
			return
		}
		m.detectionEnabled = enabled
		m.syncObjectTypes()
	})
}

func (m *Manager) syncObjectTypes() {
	if m.detectionEnabled {
		m.output.SetObjectTypes(m.opts.Symbologies...)
		return
	}
	m.output.SetObjectTypes()
}

func (m *Manager) applyRunning() {
	if !m.configured {
		return
	}
	switch {
	case m.desiredRunning && !m.pipeline.IsRunning():
		err := m.pipeline.StartRunning()
		logging.LogCapture(m.logger, "start", m.pipeline.IsRunning(), err)
	case !m.desiredRunning && m.pipeline.IsRunning():
		m.pipeline.StopRunning()
		logging.LogCapture(m.logger, "stop", false, nil)
	}
}

// Teardown stops the pipeline and detaches everything in one configuration
// block. It blocks until done and runs inline when ctx belongs to the
// session queue. Every later operation is a no-op.
func (m *Manager) Teardown(ctx context.Context) error {
	return m.queue.Sync(ctx, func(context.Context) {
		if m.released {
			return
		}
		m.released = true
		m.releasedFlag.Store(true)
		m.desiredRunning = false
		m.output.SetObjectTypes()
		m.pipeline.StopRunning()
		err := m.pipeline.BeginConfiguration()
		if err == nil {
			_ = m.pipeline.RemoveAll()
			err = m.pipeline.CommitConfiguration()
		}
		m.configured = false
		m.configuredFlag.Store(false)
		logging.LogCapture(m.logger, "teardown", false, err)
	})
}

// Close tears down and stops the session queue, waiting for it to drain.
func (m *Manager) Close(ctx context.Context) error {
	err := m.Teardown(ctx)
	if errors.Is(err, core.ErrQueueClosed) {
		err = nil
	}
	m.queue.Close()
	if !m.queue.IsCurrent(ctx) {
		<-m.queue.Done()
	}
	if m.ownMain != nil {
		m.ownMain.Close()
	}
	return err
}

// Configured reports whether an input is attached.
func (m *Manager) Configured() bool { return m.configuredFlag.Load() }

// Released reports whether Teardown has completed.
func (m *Manager) Released() bool { return m.releasedFlag.Load() }

// Stats returns the pipeline counters.
func (m *Manager) Stats() Stats { return m.pipeline.Stats() }
