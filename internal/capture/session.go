package capture

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/voicetask/internal/logging"
)

// DefaultMaxDuration is the wall-clock cap on one listening run.
const DefaultMaxDuration = 10 * time.Second

// State is the listening state of a session.
type State int

const (
	StateIdle State = iota
	StateListening
)

func (s State) String() string {
	if s == StateListening {
		return "listening"
	}
	return "idle"
}

// Reason explains a state transition.
type Reason string

const (
	ReasonStarted Reason = "started"
	ReasonStopped Reason = "stopped"
	ReasonTimeout Reason = "timeout"
	ReasonError   Reason = "error"
	ReasonEnded   Reason = "ended"
	ReasonClosed  Reason = "closed"
)

// Transition is delivered to the OnStateChange listener.
type Transition struct {
	State      State
	Reason     Reason
	Transcript string
	Error      ErrorCode
}

// Options configures a Session.
type Options struct {
	// MaxDuration caps a listening run; zero uses DefaultMaxDuration.
	MaxDuration time.Duration
	// OnStateChange is called outside the session lock after every transition.
	OnStateChange func(Transition)
	// OnTranscript is called after every result event with the display text.
	OnTranscript func(display string)
	Logger       *logging.Logger
}

type timer interface {
	Stop() bool
}

// Session is one capture interaction. Methods are safe for concurrent use,
// but a Start while listening is ignored rather than opening a second run.
type Session struct {
	id     string
	device *Device
	opts   Options
	logger *logging.Logger

	afterFunc func(time.Duration, func()) timer

	mu       sync.Mutex
	state    State
	gen      int
	segments []string
	interim  string
	lastErr  ErrorCode
	release  func()
	timer    timer
	closed   bool
}

// NewSession creates an idle session on device. Capability is fixed at
// construction: a device without a recognizer makes Start a no-op.
func NewSession(device *Device, opts Options) *Session {
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = DefaultMaxDuration
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Session{
		id:     uuid.NewString(),
		device: device,
		opts:   opts,
		logger: logger,
		afterFunc: func(d time.Duration, f func()) timer {
			return time.AfterFunc(d, f)
		},
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Available reports whether the session can listen at all.
func (s *Session) Available() bool { return s.device.Available() }

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Listening reports whether the session is listening.
func (s *Session) Listening() bool { return s.State() == StateListening }

// LastError returns the code of the error that ended the last run, if any.
func (s *Session) LastError() ErrorCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Transcript returns the finalized segments joined by single spaces.
func (s *Session) Transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcriptLocked()
}

// Display returns the transcript followed by any pending interim text.
func (s *Session) Display() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.displayLocked()
}

func (s *Session) transcriptLocked() string {
	return strings.Join(s.segments, " ")
}

func (s *Session) displayLocked() string {
	if s.interim == "" {
		return s.transcriptLocked()
	}
	if len(s.segments) == 0 {
		return s.interim
	}
	return s.transcriptLocked() + " " + s.interim
}

// Start begins a listening run. It is a no-op when the session has no
// recognizer or is already listening. The transcript is reset.
func (s *Session) Start(ctx context.Context) error {
	if !s.Available() {
		s.logger.Debug(ctx, "capture start ignored, no recognizer")
		return nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("starting capture: session closed")
	}
	if s.state == StateListening {
		s.mu.Unlock()
		return nil
	}
	release, err := s.device.acquire(s.id)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("starting capture: %w", err)
	}
	s.gen++
	gen := s.gen
	s.state = StateListening
	s.segments = nil
	s.interim = ""
	s.lastErr = ""
	s.release = release
	s.timer = s.afterFunc(s.opts.MaxDuration, func() { s.finish(gen, ReasonTimeout, "") })
	s.mu.Unlock()

	ctx = logging.WithSessionID(ctx, s.id)
	s.logger.Debug(ctx, "capture started", zap.Duration("max_duration", s.opts.MaxDuration))
	s.notify(Transition{State: StateListening, Reason: ReasonStarted})

	if err := s.device.rec.Start(ctx, &runEvents{s: s, gen: gen}); err != nil {
		s.finish(gen, ReasonError, CodeAudioCapture)
		return fmt.Errorf("starting recognizer: %w", err)
	}
	return nil
}

// Stop ends the current run and returns the final transcript.
func (s *Session) Stop() (string, error) {
	s.mu.Lock()
	gen, listening := s.gen, s.state == StateListening
	s.mu.Unlock()

	if !listening {
		return s.Transcript(), ErrNotListening
	}
	return s.finish(gen, ReasonStopped, ""), nil
}

// Close releases the session for good. Safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	s.closed = true
	gen := s.gen
	s.mu.Unlock()

	s.finish(gen, ReasonClosed, "")
	return nil
}

// finish moves run gen to Idle. Stale generations and idle sessions are
// ignored, which makes every terminal path idempotent.
func (s *Session) finish(gen int, reason Reason, code ErrorCode) string {
	s.mu.Lock()
	if gen != s.gen || s.state != StateListening {
		transcript := s.transcriptLocked()
		s.mu.Unlock()
		return transcript
	}
	s.state = StateIdle
	s.interim = ""
	if code != "" {
		s.lastErr = code
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	release := s.release
	s.release = nil
	transcript := s.transcriptLocked()
	s.mu.Unlock()

	// The engine has already stopped itself on error or end.
	if reason == ReasonStopped || reason == ReasonTimeout || reason == ReasonClosed {
		if err := s.device.rec.Stop(); err != nil {
			s.logger.Warn(context.Background(), "stopping recognizer", zap.String("session.id", s.id), zap.Error(err))
		}
	}
	if release != nil {
		release()
	}

	s.logger.Debug(context.Background(), "capture finished",
		zap.String("session.id", s.id),
		zap.String("reason", string(reason)),
		zap.Int("transcript_length", len(transcript)),
	)
	s.notify(Transition{State: StateIdle, Reason: reason, Transcript: transcript, Error: code})
	return transcript
}

func (s *Session) notify(t Transition) {
	if s.opts.OnStateChange != nil {
		s.opts.OnStateChange(t)
	}
}

func (s *Session) result(gen int, text string, final bool) {
	s.mu.Lock()
	if gen != s.gen || s.state != StateListening {
		s.mu.Unlock()
		return
	}
	text = strings.Join(strings.Fields(text), " ")
	if final {
		if text != "" {
			s.segments = append(s.segments, text)
		}
		s.interim = ""
	} else {
		s.interim = text
	}
	display := s.displayLocked()
	s.mu.Unlock()

	if s.opts.OnTranscript != nil {
		s.opts.OnTranscript(display)
	}
}

// runEvents binds recognizer callbacks to one listening run so late events
// from an earlier run cannot leak into the next.
type runEvents struct {
	s   *Session
	gen int
}

func (e *runEvents) OnResult(text string, final bool) { e.s.result(e.gen, text, final) }
func (e *runEvents) OnError(code ErrorCode)           { e.s.finish(e.gen, ReasonError, code) }
func (e *runEvents) OnEnd()                           { e.s.finish(e.gen, ReasonEnded, "") }

var _ Events = (*runEvents)(nil)
