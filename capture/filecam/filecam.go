// Package filecam is a capture device that replays still images from a
// directory as camera frames. It stands in for camera hardware in the
// example program and in integration tests.
package filecam

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"github.com/hupe1980/qrscan/core"
)

// DefaultFrameInterval is the pause between replayed frames.
const DefaultFrameInterval = 100 * time.Millisecond

var imageExt = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true, ".tif": true, ".tiff": true}

// Device replays the images of a directory in name order, looping.
type Device struct {
	dir      string
	interval time.Duration
}

var (
	_ core.Device         = (*Device)(nil)
	_ core.DeviceProvider = (*Provider)(nil)
	_ core.FrameSource    = (*source)(nil)
)

// New returns a device reading from dir. A non-positive interval selects
// DefaultFrameInterval.
func New(dir string, interval time.Duration) *Device {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &Device{dir: dir, interval: interval}
}

// ID implements core.Device.
func (d *Device) ID() string { return "filecam:" + d.dir }

// OpenInput loads every image in the directory. It fails when the directory
// cannot be read or holds no decodable image.
func (d *Device) OpenInput() (core.FrameSource, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("read frames: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !imageExt[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	frames := make([]image.Image, 0, len(names))
	for _, name := range names {
		img, err := imaging.Open(filepath.Join(d.dir, name), imaging.AutoOrientation(true))
		if err != nil {
			continue
		}
		frames = append(frames, img)
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("no images in %s", d.dir)
	}
	return &source{frames: frames, interval: d.interval}, nil
}

// Provider resolves a fixed directory device, or none when Dir is empty.
type Provider struct {
	Dir      string
	Interval time.Duration
}

// DefaultDevice implements core.DeviceProvider.
func (p *Provider) DefaultDevice() (core.Device, error) {
	if p.Dir == "" {
		return nil, core.ErrNoCameraDevice
	}
	if fi, err := os.Stat(p.Dir); err != nil || !fi.IsDir() {
		return nil, core.ErrNoCameraDevice
	}
	return New(p.Dir, p.Interval), nil
}

type source struct {
	frames   []image.Image
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

func (s *source) Start(sink func(core.Frame)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("frame source closed")
	}
	if s.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go s.play(ctx, sink)
	return nil
}

func (s *source) play(ctx context.Context, sink func(core.Frame)) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for i := 0; ; i++ {
		sink(core.Frame{Image: s.frames[i%len(s.frames)], Timestamp: time.Now()})
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Stop halts playback and waits for the player goroutine.
func (s *source) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
		s.wg.Wait()
	}
}

func (s *source) Close() error {
	s.Stop()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
