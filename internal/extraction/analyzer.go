package extraction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/voicetask/internal/logging"
)

// Analyzer runs the rule classifiers over task text. It holds no mutable
// state and is safe for concurrent use.
type Analyzer struct {
	now       func() time.Time
	gazetteer GazetteerProvider
	logger    *logging.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithClock sets the reference time for deadline resolution.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		if now != nil {
			a.now = now
		}
	}
}

// WithGazetteer sets the place and organization lexicon used to exclude
// contacts.
func WithGazetteer(g GazetteerProvider) Option {
	return func(a *Analyzer) {
		if g != nil {
			a.gazetteer = g
		}
	}
}

// WithLogger sets the logger used to report recovered failures.
func WithLogger(l *logging.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAnalyzer creates an analyzer with the built-in gazetteer and the
// system clock.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		now:       time.Now,
		gazetteer: DefaultGazetteer(),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze classifies text. It never fails: an internal error yields
// DefaultResult.
func (a *Analyzer) Analyze(text string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error(context.Background(), "analysis failed, returning default result",
				zap.String("panic", fmt.Sprint(r)),
				zap.Int("text_length", len(text)),
			)
			res = DefaultResult()
		}
	}()

	now := a.now()
	lower := strings.ToLower(text)

	// Priority falls back on deadline proximity, so the deadline comes first.
	deadline := detectDeadline(text, now)

	g := a.gazetteer.Current()
	if g == nil {
		g = DefaultGazetteer()
	}

	return Result{
		Priority:      classifyPriority(PriorityKeywordRules, lower, deadline, now),
		Category:      classifyCategory(CategoryRules, lower),
		Deadline:      deadline,
		ContactPerson: extractContact(ContactRules, text, g),
	}
}
