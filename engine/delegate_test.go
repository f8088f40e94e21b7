package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/qrscan/core"
	"github.com/hupe1980/qrscan/internal/testutil"
)

func TestChannelDelegate(t *testing.T) {
	d := NewChannelDelegate(0)
	reason := errors.New("gone")

	d.OnPickerPresented("h")
	d.OnPickerFailed("h", "nope")
	d.OnCancelled("h", reason)

	ev := <-d.Events()
	assert.Equal(t, core.EventPickerPresented, ev.Kind)
	assert.NotEmpty(t, ev.ID)
	ev = <-d.Events()
	assert.Equal(t, "nope", ev.Description)
	ev = <-d.Events()
	require.True(t, ev.IsTerminal())
	term, ok := ev.Terminal()
	require.True(t, ok)
	assert.ErrorIs(t, term.Reason, reason)
	assert.Equal(t, core.Handle("h"), ev.Handle)
}

func TestMultiDelegateFansOut(t *testing.T) {
	a, b := testutil.NewRecorder(), testutil.NewRecorder()
	m := MultiDelegate{a, b}
	m.OnScanned("h", "CODE")
	m.OnPickerPresented("h")

	for _, r := range []*testutil.Recorder{a, b} {
		assert.Equal(t, []core.EventKind{core.EventScanned, core.EventPickerPresented}, r.Kinds())
	}
}
