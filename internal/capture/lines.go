package capture

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
)

// LineRecognizer treats each line read from r as a finalized speech
// segment, letting a terminal or pipe stand in for a microphone. A line
// ending in "..." is reported as interim text. A run ends with OnEnd on an
// empty line or at EOF.
type LineRecognizer struct {
	r io.Reader

	readerOnce sync.Once
	lines      chan string
	done       chan struct{}
	readErr    error

	mu   sync.Mutex
	stop chan struct{}
}

// NewLineRecognizer reads lines from r.
func NewLineRecognizer(r io.Reader) *LineRecognizer {
	return &LineRecognizer{r: r}
}

// startReader starts the single goroutine that owns r. It blocks between
// runs until someone consumes the next line.
func (l *LineRecognizer) startReader() {
	l.readerOnce.Do(func() {
		l.lines = make(chan string)
		l.done = make(chan struct{})
		go func() {
			defer close(l.done)
			sc := bufio.NewScanner(l.r)
			for sc.Scan() {
				l.lines <- sc.Text()
			}
			l.readErr = sc.Err()
		}()
	})
}

// Start begins a run in the background, ending any previous one.
func (l *LineRecognizer) Start(ctx context.Context, events Events) error {
	l.startReader()

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stop != nil {
		closeOnce(l.stop)
	}
	l.stop = make(chan struct{})

	go l.run(ctx, events, l.stop)
	return nil
}

func (l *LineRecognizer) run(ctx context.Context, events Events, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			events.OnError(CodeAborted)
			return
		case line := <-l.lines:
			line = strings.TrimRight(line, "\r")
			switch {
			case strings.TrimSpace(line) == "":
				events.OnEnd()
				return
			case strings.HasSuffix(line, "..."):
				events.OnResult(strings.TrimSuffix(line, "..."), false)
			default:
				events.OnResult(line, true)
			}
		case <-l.done:
			if l.readErr != nil {
				events.OnError(CodeAudioCapture)
			} else {
				events.OnEnd()
			}
			return
		}
	}
}

// Stop ends the current run. Safe to call more than once.
func (l *LineRecognizer) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stop != nil {
		closeOnce(l.stop)
	}
	return nil
}

// closeOnce closes ch unless it is already closed. Callers hold l.mu.
func closeOnce(ch chan struct{}) {
	select {
	case <-ch:
	default:
		close(ch)
	}
}

var _ Recognizer = (*LineRecognizer)(nil)
