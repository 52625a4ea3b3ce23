package capture

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrUnavailable indicates the platform has no speech recognizer.
	ErrUnavailable = errors.New("speech recognition unavailable")

	// ErrBusy indicates another session owns the recognizer.
	ErrBusy = errors.New("speech recognizer in use by another session")

	// ErrNotListening is returned by Stop when the session is idle.
	ErrNotListening = errors.New("capture session is not listening")
)

// ErrorCode is a recognition failure reported by the engine.
type ErrorCode string

const (
	CodeNotAllowed   ErrorCode = "not-allowed"
	CodeNoSpeech     ErrorCode = "no-speech"
	CodeAudioCapture ErrorCode = "audio-capture"
	CodeNetwork      ErrorCode = "network"
	CodeAborted      ErrorCode = "aborted"
)

// Events receives recognition output. Implementations must tolerate calls
// from any goroutine.
type Events interface {
	OnResult(text string, final bool)
	OnError(code ErrorCode)
	OnEnd()
}

// Recognizer is a continuous speech-to-text engine.
type Recognizer interface {
	// Start begins recognition and delivers events until Stop or an
	// engine-initiated end.
	Start(ctx context.Context, events Events) error
	// Stop ends recognition. It must be safe to call more than once.
	Stop() error
}

// Device guards a Recognizer so at most one session listens at a time.
type Device struct {
	rec Recognizer

	mu    sync.Mutex
	owner string
}

// NewDevice wraps rec. A nil rec produces a device without capability.
func NewDevice(rec Recognizer) *Device {
	return &Device{rec: rec}
}

// Available reports whether the device has a recognizer.
func (d *Device) Available() bool {
	return d != nil && d.rec != nil
}

// Owner returns the ID of the session holding the device, or "".
func (d *Device) Owner() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.owner
}

// acquire claims the device for owner. The returned release is idempotent.
func (d *Device) acquire(owner string) (func(), error) {
	if !d.Available() {
		return nil, ErrUnavailable
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.owner != "" && d.owner != owner {
		return nil, ErrBusy
	}
	d.owner = owner

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			if d.owner == owner {
				d.owner = ""
			}
			d.mu.Unlock()
		})
	}, nil
}
