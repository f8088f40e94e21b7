package runner

import (
	"bytes"
	"context"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/qrscan"
	"github.com/hupe1980/qrscan/album"
	"github.com/hupe1980/qrscan/core"
	"github.com/hupe1980/qrscan/internal/testutil"
	"github.com/hupe1980/qrscan/library"
)

func newRunner(t *testing.T, scannerOpts ...func(o *qrscan.Options)) *Runner {
	t.Helper()
	r := New(func(o *Options) { o.Scanner = scannerOpts })
	t.Cleanup(func() { _ = r.Close(context.Background()) })
	return r
}

func withDevice(d core.Device) func(o *qrscan.Options) {
	return func(o *qrscan.Options) { o.DeviceProvider = &testutil.FakeProvider{Device: d} }
}

func pushWhenRunning(t *testing.T, device *testutil.FakeDevice, code string) {
	t.Helper()
	go func() {
		deadline := time.Now().Add(3 * time.Second)
		for time.Now().Before(deadline) {
			if src := device.Source(); src != nil && src.PushCode(code) {
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
	}()
}

func TestRunSyncCameraScan(t *testing.T) {
	device := testutil.NewFakeDevice("cam0")
	r := newRunner(t, withDevice(device))
	pushWhenRunning(t, device, "ABC123")

	term, events, err := r.RunSync(context.Background(), core.DefaultSessionConfig())
	require.NoError(t, err)
	assert.True(t, term.IsScanned())
	assert.Equal(t, "ABC123", term.Code)
	require.Len(t, events, 1)
	assert.True(t, device.Source().Closed(), "finished sessions are destroyed")
}

func TestRunSyncNoDevice(t *testing.T) {
	r := newRunner(t, func(o *qrscan.Options) { o.DeviceProvider = &testutil.FakeProvider{} })

	term, _, err := r.RunSync(context.Background(), core.SessionConfig{})
	require.NoError(t, err)
	assert.Equal(t, core.TerminalCancelled, term.Kind)
	assert.ErrorIs(t, term.Reason, core.ErrNoCameraDevice)
}

func TestRunSyncContextCancelCloses(t *testing.T) {
	r := newRunner(t, withDevice(testutil.NewFakeDevice("cam0")))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	term, _, err := r.RunSync(ctx, core.SessionConfig{})
	require.NoError(t, err)
	assert.Equal(t, core.TerminalCancelled, term.Kind)
	assert.ErrorIs(t, term.Reason, core.ErrClosedByUser)
}

func TestSequentialRuns(t *testing.T) {
	device := testutil.NewFakeDevice("cam0")
	r := newRunner(t, withDevice(device))

	for _, code := range []string{"FIRST", "SECOND"} {
		pushWhenRunning(t, device, code)
		term, _, err := r.RunSync(context.Background(), core.SessionConfig{})
		require.NoError(t, err)
		assert.Equal(t, code, term.Code)
	}
	assert.Equal(t, 2, device.Opens())
}

func TestRunAlbumPick(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testutil.QRImage(t, "QR-9", 200)))
	lib := library.NewInMemoryStore()
	_, err := lib.Save("code.png", buf.Bytes())
	require.NoError(t, err)

	provider := album.NewLibraryProvider(lib, album.FirstAsset, nil)
	r := newRunner(t, withDevice(testutil.NewFakeDevice("cam0")), func(o *qrscan.Options) {
		o.AlbumProvider = provider
	})

	h, stream, err := r.Run(context.Background(), core.SessionConfig{})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		sess, err := r.Scanner().Session(h)
		return err == nil && sess.State() == core.StateLive
	}, 3*time.Second, 5*time.Millisecond)
	require.NoError(t, r.Scanner().RequestAlbumPick(h, nil))

	var kinds []core.EventKind
	var last core.Event
	for ev := range stream {
		kinds = append(kinds, ev.Kind)
		last = ev
	}
	assert.Equal(t, core.EventScanned, last.Kind)
	assert.Equal(t, "QR-9", last.Code)
	assert.Contains(t, kinds, core.EventPickerPresented)
}

func waitLive(t *testing.T, r *Runner, h core.Handle) {
	t.Helper()
	require.Eventually(t, func() bool {
		sess, err := r.Scanner().Session(h)
		return err == nil && sess.State() == core.StateLive
	}, 3*time.Second, 5*time.Millisecond)
}

func TestUnreadStreamDoesNotStallMainExecutor(t *testing.T) {
	device := testutil.NewFakeDevice("cam0")
	r := New(func(o *Options) {
		o.EventBufferSize = 1
		o.Scanner = []func(o *qrscan.Options){withDevice(device)}
	})
	t.Cleanup(func() { _ = r.Close(context.Background()) })

	h, stream, err := r.Run(context.Background(), core.SessionConfig{})
	require.NoError(t, err)
	waitLive(t, r, h)

	// Without an album provider every pick reports a failure and returns to
	// live scanning, producing far more events than the buffers hold.
	const picks = 20
	for i := 0; i < picks; i++ {
		require.NoError(t, r.Scanner().RequestAlbumPick(h, nil))
	}

	responsive := make(chan struct{})
	r.Scanner().MainExecutor().Async(func() { close(responsive) })
	select {
	case <-responsive:
	case <-time.After(3 * time.Second):
		t.Fatal("main executor stalled behind an unread stream")
	}

	pushWhenRunning(t, device, "DONE")
	var failed int
	var last core.Event
	for ev := range stream {
		if ev.Kind == core.EventPickerFailed {
			failed++
		}
		last = ev
	}
	assert.Equal(t, picks, failed)
	assert.Equal(t, core.EventScanned, last.Kind)
	assert.Equal(t, "DONE", last.Code)
}

func TestCloseStopsRoutingAndClosesStreams(t *testing.T) {
	device := testutil.NewFakeDevice("cam0")
	r := New(func(o *Options) { o.Scanner = []func(o *qrscan.Options){withDevice(device)} })

	h, stream, err := r.Run(context.Background(), core.SessionConfig{})
	require.NoError(t, err)
	waitLive(t, r, h)

	require.NoError(t, r.Close(context.Background()))
	require.NoError(t, r.Close(context.Background()))

	select {
	case <-r.pumpDone:
	case <-time.After(3 * time.Second):
		t.Fatal("pump still running after Close")
	}
	select {
	case _, open := <-stream:
		for open {
			_, open = <-stream
		}
	case <-time.After(3 * time.Second):
		t.Fatal("stream not closed after Close")
	}
	assert.True(t, device.Source().Closed())

	_, _, err = r.Run(context.Background(), core.SessionConfig{})
	assert.ErrorIs(t, err, core.ErrDestroyed)
}
