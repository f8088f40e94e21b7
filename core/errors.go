package core

import "errors"

var (
	// ErrNoCameraDevice is returned when no capture device can be resolved.
	ErrNoCameraDevice = errors.New("no camera device available")
	// ErrDeviceInput wraps failures to build a device input.
	ErrDeviceInput = errors.New("cannot create device input")
	// ErrClosedByUser is the cancellation reason for an explicit close action.
	ErrClosedByUser = errors.New("scan closed by user")
	// ErrPickerBusy is returned when an album flow is already outstanding.
	ErrPickerBusy = errors.New("album picker already active")
	// ErrSessionTerminal is returned for requests after the terminal event.
	ErrSessionTerminal = errors.New("scan session already finished")
	// ErrSessionNotFound is returned for unknown handles.
	ErrSessionNotFound = errors.New("scan session not found")
	// ErrSessionActive is returned when a second concurrent session is requested.
	ErrSessionActive = errors.New("another scan session is active")
	// ErrNoCodeFound is the decode-miss description for picked images.
	ErrNoCodeFound = errors.New("no QR code found in image")
	// ErrAssetUnreadable is returned when a picked asset is not an image.
	ErrAssetUnreadable = errors.New("selected asset cannot be read as an image")
	// ErrNoAlbumProvider is returned when no album provider was configured.
	ErrNoAlbumProvider = errors.New("no album provider configured")
	// ErrQueueClosed is returned when work is submitted to a closed queue.
	ErrQueueClosed = errors.New("queue closed")
	// ErrInvalidConfig wraps session configuration validation failures.
	ErrInvalidConfig = errors.New("invalid session config")
	// ErrDestroyed is returned for calls on a destroyed session.
	ErrDestroyed = errors.New("scan session destroyed")
)
