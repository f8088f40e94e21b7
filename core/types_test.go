package core

import (
	"errors"
	"image"
	"testing"
)

func TestRect_FullFrameAndValid(t *testing.T) {
	if !FullFrame.IsFullFrame() || !FullFrame.Valid() {
		t.Fatalf("FullFrame should be full and valid: %+v", FullFrame)
	}
	half := Rect{X: 0.25, Y: 0.25, Width: 0.5, Height: 0.5}
	if half.IsFullFrame() || !half.Valid() {
		t.Fatalf("unexpected flags for %+v", half)
	}
	for _, r := range []Rect{{}, {X: -0.1, Width: 0.5, Height: 0.5}, {X: 0.6, Width: 0.5, Height: 0.5}} {
		if r.Valid() {
			t.Errorf("expected %+v to be invalid", r)
		}
	}
}

func TestRect_Pixels(t *testing.T) {
	got := Rect{X: 0.25, Y: 0.5, Width: 0.5, Height: 0.5}.Pixels(image.Rect(0, 0, 200, 100))
	want := image.Rect(50, 50, 150, 100)
	if got != want {
		t.Fatalf("Pixels = %v, want %v", got, want)
	}

	offset := FullFrame.Pixels(image.Rect(10, 20, 110, 220))
	if offset != image.Rect(10, 20, 110, 220) {
		t.Fatalf("full frame must map onto the bounds, got %v", offset)
	}
}

func TestSessionConfig_DefaultsAndValidate(t *testing.T) {
	cfg := SessionConfig{}.WithDefaults()
	if len(cfg.Symbologies) != 1 || cfg.Symbologies[0] != SymbologyQR {
		t.Fatalf("default symbologies: %v", cfg.Symbologies)
	}
	if cfg.RegionOfInterest != FullFrame {
		t.Fatalf("default region: %+v", cfg.RegionOfInterest)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	src := SessionConfig{Symbologies: []Symbology{SymbologyQR}}
	cp := src.WithDefaults()
	cp.Symbologies[0] = "ean13"
	if src.Symbologies[0] != SymbologyQR {
		t.Fatal("WithDefaults must detach the symbology slice")
	}

	bad := SessionConfig{Symbologies: []Symbology{"ean13"}}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for symbology, got %v", err)
	}
	badROI := SessionConfig{RegionOfInterest: Rect{X: 0.5, Width: 0.9, Height: 1}}
	if err := badROI.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for region, got %v", err)
	}
}

func TestState_String(t *testing.T) {
	cases := map[State]string{
		StateIdle:          "idle",
		StateConfiguring:   "configuring",
		StateLive:          "live",
		StatePickerPending: "picker_pending",
		StatePickerActive:  "picker_active",
		StateTerminal:      "terminal",
		State(42):          "unknown",
	}
	for s, want := range cases {
		if s.String() != want {
			t.Errorf("State(%d).String() = %q, want %q", s, s.String(), want)
		}
	}
}

func TestEvent_TerminalRoundTrip(t *testing.T) {
	scanned := Scanned(NewDetectionEvent(SourceAlbum, "ABC"))
	if !scanned.IsScanned() || scanned.Code != "ABC" || scanned.Source != SourceAlbum || scanned.Timestamp.IsZero() {
		t.Fatalf("Scanned malformed: %+v", scanned)
	}
	cancelled := Cancelled(ErrClosedByUser)
	if cancelled.IsScanned() || !errors.Is(cancelled.Reason, ErrClosedByUser) {
		t.Fatalf("Cancelled malformed: %+v", cancelled)
	}

	h := NewHandle()
	ev := NewEvent(EventCancelled, h)
	ev.Reason = ErrNoCameraDevice
	if ev.ID == "" || ev.Handle != h || !ev.IsTerminal() {
		t.Fatalf("NewEvent malformed: %+v", ev)
	}
	term, ok := ev.Terminal()
	if !ok || term.Kind != TerminalCancelled || !errors.Is(term.Reason, ErrNoCameraDevice) {
		t.Fatalf("Terminal conversion failed: %+v", term)
	}

	info := NewEvent(EventPickerPresented, h)
	if info.IsTerminal() {
		t.Fatal("picker events are informational")
	}
	if _, ok := info.Terminal(); ok {
		t.Fatal("informational events have no terminal form")
	}
}

func TestNewHandle_Unique(t *testing.T) {
	seen := map[Handle]bool{}
	for i := 0; i < 100; i++ {
		h := NewHandle()
		if h == "" || seen[h] {
			t.Fatalf("duplicate or empty handle %q", h)
		}
		seen[h] = true
	}
}
