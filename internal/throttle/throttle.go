// Package throttle enforces a minimum interval between extraction
// submissions from the same session.
package throttle

import (
	"sync"
	"time"
)

// DefaultWindow is the minimum interval between submissions.
const DefaultWindow = 2 * time.Second

// Decision is the outcome of a throttle check.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds for display.
func (d Decision) RetryAfterSeconds() int {
	if d.RetryAfter <= 0 {
		return 0
	}
	return int((d.RetryAfter + time.Second - 1) / time.Second)
}

// CanSubmit reports whether a submission at now is allowed given the last
// accepted one. A zero lastSubmitAt always allows.
func CanSubmit(now, lastSubmitAt time.Time, window time.Duration) Decision {
	if lastSubmitAt.IsZero() {
		return Decision{Allowed: true}
	}
	elapsed := now.Sub(lastSubmitAt)
	if elapsed < window {
		return Decision{RetryAfter: window - elapsed}
	}
	return Decision{Allowed: true}
}

// Gate tracks the last accepted submission for one session. It is safe for
// concurrent use; the check and the update happen under one lock.
type Gate struct {
	window time.Duration

	mu           sync.Mutex
	lastSubmitAt time.Time
}

// NewGate creates a gate for a single session.
func NewGate(window time.Duration) *Gate {
	return &Gate{window: window}
}

// TryAcquire records now as the last submission when allowed. now should be
// the time the call started, not when it finished.
func (g *Gate) TryAcquire(now time.Time) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	d := CanSubmit(now, g.lastSubmitAt, g.window)
	if d.Allowed {
		g.lastSubmitAt = now
	}
	return d
}

// Acquire is TryAcquire plus an undo func for calls that fail after the
// gate admitted them. Undo restores the previous submission time unless a
// later acquisition has replaced it. Undo is a no-op when not allowed.
func (g *Gate) Acquire(now time.Time) (Decision, func()) {
	g.mu.Lock()
	defer g.mu.Unlock()

	prev := g.lastSubmitAt
	d := CanSubmit(now, prev, g.window)
	if !d.Allowed {
		return d, func() {}
	}
	g.lastSubmitAt = now
	return d, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.lastSubmitAt.Equal(now) {
			g.lastSubmitAt = prev
		}
	}
}

// Peek returns the decision for now without recording anything.
func (g *Gate) Peek(now time.Time) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return CanSubmit(now, g.lastSubmitAt, g.window)
}

// LastSubmitAt returns the last accepted submission time.
func (g *Gate) LastSubmitAt() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastSubmitAt
}

// Registry holds one Gate per session or user.
type Registry struct {
	window time.Duration

	mu    sync.Mutex
	gates map[string]*entry
}

// entry counts callers between fetching a gate and finishing with it.
// Prune leaves entries with refs > 0 alone.
type entry struct {
	gate *Gate
	refs int
}

// NewRegistry creates a registry. A non-positive window uses DefaultWindow.
func NewRegistry(window time.Duration) *Registry {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Registry{window: window, gates: make(map[string]*entry)}
}

// checkout returns the gate for key, creating it on first use, and pins it
// against Prune until done is called.
func (r *Registry) checkout(key string) (*Gate, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.gates[key]
	if !ok {
		e = &entry{gate: NewGate(r.window)}
		r.gates[key] = e
	}
	e.refs++
	return e.gate, func() {
		r.mu.Lock()
		e.refs--
		r.mu.Unlock()
	}
}

// TryAcquire checks and records a submission for key.
func (r *Registry) TryAcquire(key string, now time.Time) Decision {
	g, done := r.checkout(key)
	defer done()
	return g.TryAcquire(now)
}

// Acquire is Gate.Acquire for key.
func (r *Registry) Acquire(key string, now time.Time) (Decision, func()) {
	g, done := r.checkout(key)
	defer done()
	return g.Acquire(now)
}

// Window returns the configured window.
func (r *Registry) Window() time.Duration {
	return r.window
}

// Prune drops gates idle for longer than maxIdle and returns how many were
// removed.
func (r *Registry) Prune(now time.Time, maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for key, e := range r.gates {
		if e.refs == 0 && now.Sub(e.gate.LastSubmitAt()) > maxIdle {
			delete(r.gates, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked gates.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.gates)
}
