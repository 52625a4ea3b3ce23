package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// mailbox carries recognizer callbacks to the event loop. Push never
// blocks. Consecutive transcripts collapse into the latest one, and
// transitions are always kept.
type mailbox struct {
	mu      sync.Mutex
	queue   []tea.Msg
	pending chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{pending: make(chan struct{}, 1)}
}

func (b *mailbox) push(msg tea.Msg) {
	b.mu.Lock()
	if _, ok := msg.(transcriptMsg); ok && len(b.queue) > 0 {
		if _, last := b.queue[len(b.queue)-1].(transcriptMsg); last {
			b.queue[len(b.queue)-1] = msg
			b.mu.Unlock()
			return
		}
	}
	b.queue = append(b.queue, msg)
	b.mu.Unlock()

	select {
	case b.pending <- struct{}{}:
	default:
	}
}

// next blocks until a message is queued.
func (b *mailbox) next() tea.Msg {
	for {
		b.mu.Lock()
		if len(b.queue) > 0 {
			msg := b.queue[0]
			b.queue[0] = nil
			b.queue = b.queue[1:]
			b.mu.Unlock()
			return msg
		}
		b.mu.Unlock()
		<-b.pending
	}
}

func (b *mailbox) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

func waitForEvent(b *mailbox) tea.Cmd {
	return func() tea.Msg { return b.next() }
}
