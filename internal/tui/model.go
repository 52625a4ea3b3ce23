// Package tui is the terminal capture screen: type or dictate a task,
// see validation feedback and the throttle countdown, then the analysis.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fyrsmithlabs/voicetask/internal/capture"
	"github.com/fyrsmithlabs/voicetask/internal/logging"
	"github.com/fyrsmithlabs/voicetask/internal/sanitize"
	"github.com/fyrsmithlabs/voicetask/internal/service"
	"github.com/fyrsmithlabs/voicetask/internal/task"
	"github.com/fyrsmithlabs/voicetask/internal/throttle"
)

const tickInterval = 200 * time.Millisecond

// Submitter sends validated text for processing. *client.Client
// implements it.
type Submitter interface {
	Validate(text string) sanitize.ValidationResult
	CanSubmit() throttle.Decision
	Submit(ctx context.Context, text string, source task.Source) (*service.Response, error)
}

// Options configures the capture screen.
type Options struct {
	// Device is the speech recognizer; nil disables voice capture.
	Device      *capture.Device
	MaxDuration time.Duration
	Logger      *logging.Logger
}

type (
	tickMsg       time.Time
	transitionMsg capture.Transition
	transcriptMsg string
	resultMsg     struct {
		resp *service.Response
		err  error
	}
)

// Model is the bubbletea model for the capture screen.
type Model struct {
	submitter Submitter
	session   *capture.Session
	events    *mailbox

	input       textinput.Model
	listenBar   progress.Model
	maxDuration time.Duration
	listenStart time.Time
	now         func() time.Time

	source     task.Source
	listening  bool
	submitting bool
	validation sanitize.ValidationResult
	result     *service.Response
	retryAfter time.Duration
	captureErr capture.ErrorCode
	err        error
	quitting   bool
}

// NewModel creates the capture screen.
func NewModel(submitter Submitter, opts Options) Model {
	in := textinput.New()
	in.Placeholder = "Describe a task, e.g. remind me to call John tomorrow at 2pm"
	in.CharLimit = 0
	in.Width = 64
	in.Focus()

	if opts.MaxDuration <= 0 {
		opts.MaxDuration = capture.DefaultMaxDuration
	}

	m := Model{
		submitter:   submitter,
		events:      newMailbox(),
		input:       in,
		listenBar:   progress.New(progress.WithGradient("#00ffff", "#ff00ff"), progress.WithWidth(40)),
		maxDuration: opts.MaxDuration,
		now:         time.Now,
		source:      task.SourceTyped,
	}

	device := opts.Device
	if device == nil {
		device = capture.NewDevice(nil)
	}
	events := m.events
	m.session = capture.NewSession(device, capture.Options{
		MaxDuration: opts.MaxDuration,
		Logger:      opts.Logger,
		OnStateChange: func(t capture.Transition) {
			events.push(transitionMsg(t))
		},
		OnTranscript: func(display string) {
			events.push(transcriptMsg(display))
		},
	})
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForEvent(m.events), tick())
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		m.retryAfter = m.submitter.CanSubmit().RetryAfter
		return m, tick()

	case transitionMsg:
		m.listening = msg.State == capture.StateListening
		if m.listening {
			m.listenStart = m.now()
			m.captureErr = ""
			m.source = task.SourceVoice
		} else {
			m.captureErr = msg.Error
			if msg.Transcript != "" {
				m.input.SetValue(msg.Transcript)
				m.input.CursorEnd()
			}
		}
		return m, waitForEvent(m.events)

	case transcriptMsg:
		m.input.SetValue(string(msg))
		m.input.CursorEnd()
		return m, waitForEvent(m.events)

	case resultMsg:
		m.submitting = false
		return m.handleResult(msg), nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		_ = m.session.Close()
		return m, tea.Quit

	case "ctrl+r":
		return m, m.toggleCapture()

	case "enter":
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if msg.Type == tea.KeyRunes || msg.Type == tea.KeyBackspace || msg.Type == tea.KeySpace {
		if !m.listening {
			m.source = task.SourceTyped
		}
	}
	return m, cmd
}

func (m Model) toggleCapture() tea.Cmd {
	session := m.session
	if session.Listening() {
		return func() tea.Msg {
			_, _ = session.Stop()
			return nil
		}
	}
	return func() tea.Msg {
		if err := session.Start(context.Background()); err != nil {
			return resultMsg{err: err}
		}
		return nil
	}
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.submitting || m.listening {
		return m, nil
	}
	text := m.input.Value()

	m.validation = m.submitter.Validate(text)
	m.err = nil
	if !m.validation.Valid {
		return m, nil
	}
	if d := m.submitter.CanSubmit(); !d.Allowed {
		m.retryAfter = d.RetryAfter
		return m, nil
	}

	m.submitting = true
	m.result = nil
	submitter, source := m.submitter, m.source
	return m, func() tea.Msg {
		resp, err := submitter.Submit(context.Background(), text, source)
		return resultMsg{resp: resp, err: err}
	}
}

func (m Model) handleResult(msg resultMsg) Model {
	var (
		verr *service.ValidationError
		terr *service.ThrottleError
	)
	switch {
	case msg.err == nil:
		m.result = msg.resp
		m.err = nil
	case errors.As(msg.err, &verr):
		m.validation = sanitize.ValidationResult{Valid: false, Errors: verr.Errors, Warnings: verr.Warnings}
	case errors.As(msg.err, &terr):
		m.retryAfter = terr.RetryAfter
	default:
		// Nothing partial is shown; the input stays for a retry.
		m.result = nil
		m.err = msg.err
	}
	return m
}

// Run shows the capture screen until the user quits or ctx ends.
func Run(ctx context.Context, m Model, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	_, err := tea.NewProgram(m, opts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
