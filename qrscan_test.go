package qrscan

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/qrscan/core"
	"github.com/hupe1980/qrscan/internal/testutil"
)

const wait = 3 * time.Second

func newScanner(t *testing.T, device *testutil.FakeDevice) (*Scanner, *testutil.Recorder) {
	t.Helper()
	rec := testutil.NewRecorder()
	provider := &testutil.FakeProvider{}
	if device != nil {
		provider.Device = device
	}
	s := New(func(o *Options) {
		o.DeviceProvider = provider
		o.Delegate = rec
	})
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s, rec
}

func runningSource(t *testing.T, device *testutil.FakeDevice) *testutil.FakeSource {
	t.Helper()
	require.Eventually(t, func() bool {
		src := device.Source()
		return src != nil && src.Running()
	}, wait, 5*time.Millisecond)
	return device.Source()
}

func TestScannerScanLifecycle(t *testing.T) {
	device := testutil.NewFakeDevice("cam0")
	s, rec := newScanner(t, device)

	h, err := s.CreateSession(core.DefaultSessionConfig())
	require.NoError(t, err)
	require.NoError(t, s.NotifyBecameVisible(h))

	src := runningSource(t, device)
	src.PushCode("ABC123")

	ev, ok := rec.WaitTerminal(wait)
	require.True(t, ok)
	assert.Equal(t, h, ev.Handle)
	assert.Equal(t, "ABC123", ev.Code)

	require.NoError(t, s.Destroy(context.Background(), h))
	assert.True(t, src.Closed())
	assert.ErrorIs(t, s.RequestClose(h), core.ErrSessionNotFound)
}

func TestScannerSingleActiveSession(t *testing.T) {
	s, rec := newScanner(t, testutil.NewFakeDevice("cam0"))

	h, err := s.CreateSession(core.SessionConfig{})
	require.NoError(t, err)

	_, err = s.CreateSession(core.SessionConfig{})
	assert.ErrorIs(t, err, core.ErrSessionActive)

	require.NoError(t, s.RequestClose(h))
	_, ok := rec.WaitTerminal(wait)
	require.True(t, ok)
	require.NoError(t, s.Destroy(context.Background(), h))

	h2, err := s.CreateSession(core.SessionConfig{})
	require.NoError(t, err)
	assert.NotEqual(t, h, h2)
}

func TestScannerFinishedSessionHoldsDeviceUntilDestroy(t *testing.T) {
	device := testutil.NewFakeDevice("cam0")
	s, rec := newScanner(t, device)

	h, err := s.CreateSession(core.DefaultSessionConfig())
	require.NoError(t, err)
	require.NoError(t, s.NotifyBecameVisible(h))
	src := runningSource(t, device)
	src.PushCode("A")
	_, ok := rec.WaitTerminal(wait)
	require.True(t, ok)
	require.Eventually(t, func() bool {
		sess, err := s.Session(h)
		return err == nil && sess.State() == core.StateTerminal
	}, wait, 5*time.Millisecond)

	_, err = s.CreateSession(core.DefaultSessionConfig())
	require.ErrorIs(t, err, core.ErrSessionActive)
	assert.Equal(t, 1, device.Opens(), "the camera must not be opened twice")
	assert.False(t, src.Closed())

	require.NoError(t, s.Destroy(context.Background(), h))
	assert.True(t, src.Closed())

	h2, err := s.CreateSession(core.DefaultSessionConfig())
	require.NoError(t, err)
	require.NoError(t, s.NotifyBecameVisible(h2))
	require.Eventually(t, func() bool { return device.Opens() == 2 }, wait, 5*time.Millisecond)
}

func TestScannerUnknownHandle(t *testing.T) {
	s, _ := newScanner(t, nil)
	var unknown core.Handle = "nope"

	assert.ErrorIs(t, s.NotifyBecameVisible(unknown), core.ErrSessionNotFound)
	assert.ErrorIs(t, s.NotifyBecameHidden(unknown), core.ErrSessionNotFound)
	assert.ErrorIs(t, s.RequestClose(unknown), core.ErrSessionNotFound)
	assert.ErrorIs(t, s.RequestAlbumPick(unknown, nil), core.ErrSessionNotFound)
	assert.ErrorIs(t, s.Destroy(context.Background(), unknown), core.ErrSessionNotFound)
}

func TestScannerInvalidConfig(t *testing.T) {
	s, _ := newScanner(t, nil)
	_, err := s.CreateSession(core.SessionConfig{Symbologies: []core.Symbology{"aztec"}})
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestScannerCloseReleasesSessions(t *testing.T) {
	device := testutil.NewFakeDevice("cam0")
	s, rec := newScanner(t, device)

	h, err := s.CreateSession(core.SessionConfig{})
	require.NoError(t, err)
	require.NoError(t, s.NotifyBecameVisible(h))
	src := runningSource(t, device)

	require.NoError(t, s.Close(context.Background()))
	assert.True(t, src.Closed())
	assert.Empty(t, rec.Terminals())

	_, err = s.CreateSession(core.SessionConfig{})
	assert.ErrorIs(t, err, core.ErrDestroyed)
}
