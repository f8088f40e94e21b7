// Package album runs the still-image picking flow that competes with the
// camera. A Provider presents some picker UI; the Coordinator guarantees
// that every flow reports at most one outcome.
package album

import (
	"image"

	"github.com/hupe1980/qrscan/core"
)

// Outcome receives the result of one picking flow. Providers may call it
// from any goroutine and may call it more than once; the Coordinator
// filters duplicates.
type Outcome interface {
	// Presented reports that the picker is visible.
	Presented()
	// Cancelled reports a dismissal without selection.
	Cancelled()
	// Picked hands over the selected image.
	Picked(img image.Image)
	// Failed reports that the selection could not be loaded.
	Failed(description string)
}

// Provider is the album capability interface.
type Provider interface {
	StartPicking(presenter core.Presenter, outcome Outcome)
}

// OutcomeFuncs adapts plain functions into an Outcome. Nil fields are ignored.
type OutcomeFuncs struct {
	OnPresented func()
	OnCancelled func()
	OnPicked    func(img image.Image)
	OnFailed    func(description string)
}

// Presented implements Outcome.
func (f OutcomeFuncs) Presented() {
	if f.OnPresented != nil {
		f.OnPresented()
	}
}

// Cancelled implements Outcome.
func (f OutcomeFuncs) Cancelled() {
	if f.OnCancelled != nil {
		f.OnCancelled()
	}
}

// Picked implements Outcome.
func (f OutcomeFuncs) Picked(img image.Image) {
	if f.OnPicked != nil {
		f.OnPicked(img)
	}
}

// Failed implements Outcome.
func (f OutcomeFuncs) Failed(description string) {
	if f.OnFailed != nil {
		f.OnFailed(description)
	}
}
