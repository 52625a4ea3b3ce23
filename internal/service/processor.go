// Package service implements processInput: validate, throttle, analyze,
// assemble and hand the draft to the task sink.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/voicetask/internal/extraction"
	"github.com/fyrsmithlabs/voicetask/internal/logging"
	"github.com/fyrsmithlabs/voicetask/internal/sanitize"
	"github.com/fyrsmithlabs/voicetask/internal/task"
	"github.com/fyrsmithlabs/voicetask/internal/throttle"
)

const instrumentationName = "github.com/fyrsmithlabs/voicetask/internal/service"

// Request is one processInput call.
type Request struct {
	Text   string
	Source task.Source
	// Title overrides the derived title when set.
	Title string
}

// Response is the assembled draft plus the raw analysis.
type Response struct {
	Task     task.Draft        `json:"task" yaml:"task"`
	Analysis extraction.Result `json:"nlpAnalysis" yaml:"nlpAnalysis"`
	Record   *task.Record      `json:"record,omitempty" yaml:"record,omitempty"`
	Warnings []string          `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Processor runs the extraction pipeline. It is safe for concurrent use.
type Processor struct {
	analyzer *extraction.Analyzer
	rules    sanitize.InputRules
	throttle *throttle.Registry
	sink     task.Sink
	logger   *logging.Logger
	tracer   trace.Tracer
	metrics  *Metrics
	now      func() time.Time
}

// Option configures a Processor.
type Option func(*Processor)

// WithRules sets the validator length bounds.
func WithRules(r sanitize.InputRules) Option {
	return func(p *Processor) { p.rules = r }
}

// WithThrottle gates submissions per user. Without it every call is
// allowed.
func WithThrottle(r *throttle.Registry) Option {
	return func(p *Processor) { p.throttle = r }
}

// WithSink hands assembled drafts to s. Without a sink the draft is
// returned but not stored.
func WithSink(s task.Sink) Option {
	return func(p *Processor) { p.sink = s }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithTracer sets the tracer. Defaults to the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(p *Processor) {
		if t != nil {
			p.tracer = t
		}
	}
}

// WithClock sets the clock used for throttle decisions and capture times.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

// NewProcessor creates a processor around analyzer.
func NewProcessor(analyzer *extraction.Analyzer, opts ...Option) (*Processor, error) {
	if analyzer == nil {
		return nil, errors.New("analyzer is required")
	}
	p := &Processor{
		analyzer: analyzer,
		rules:    sanitize.DefaultInputRules(),
		logger:   logging.NewNop(),
		tracer:   otel.Tracer(instrumentationName),
		metrics:  NewMetrics(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// ProcessInput validates req, analyzes it and assembles a draft for userID.
//
// Errors:
//   - *ValidationError (ErrInvalidInput) when the validator rejects the text
//   - *ThrottleError (ErrThrottled) when the user submitted within the window
//   - ErrProcessing when analysis or the task hand-off fails
//
// No partial response is returned alongside an error.
func (p *Processor) ProcessInput(ctx context.Context, userID string, req Request) (*Response, error) {
	start := p.now()
	ctx, span := p.tracer.Start(ctx, "service.ProcessInput",
		trace.WithAttributes(
			attribute.String("source", string(req.Source)),
			attribute.Int("text.length", len(req.Text)),
		),
	)
	defer span.End()

	if userID != "" && logging.ValidID(userID) {
		ctx = logging.WithUserID(ctx, userID)
	}

	v := p.rules.Validate(req.Text)
	if !v.Valid {
		p.metrics.FailuresTotal.WithLabelValues("validation").Inc()
		span.SetStatus(codes.Error, "validation failed")
		p.logger.Info(ctx, "input rejected by validator", zap.Strings("errors", v.Errors))
		return nil, &ValidationError{Errors: v.Errors, Warnings: v.Warnings}
	}

	release := func() {}
	if p.throttle != nil {
		var d throttle.Decision
		if d, release = p.throttle.Acquire(userID, start); !d.Allowed {
			p.metrics.FailuresTotal.WithLabelValues("throttled").Inc()
			span.SetAttributes(attribute.Int64("throttle.retry_after_ms", d.RetryAfter.Milliseconds()))
			p.logger.Debug(ctx, "submission throttled", zap.Duration("retry_after", d.RetryAfter))
			return nil, &ThrottleError{RetryAfter: d.RetryAfter}
		}
	}

	source := req.Source
	if !source.Valid() {
		source = task.SourceTyped
	}
	raw := task.RawInput{Text: req.Text, Source: source, CapturedAt: start}

	res := p.analyze(ctx, raw.Text)
	draft := task.Assemble(raw.Text, res, task.AssembleOptions{Title: req.Title})

	resp := &Response{Task: draft, Analysis: res, Warnings: v.Warnings}

	if p.sink != nil {
		rec, err := p.sink.Create(ctx, userID, draft)
		if err != nil {
			// Only successful calls count against the throttle window.
			release()
			p.metrics.FailuresTotal.WithLabelValues("sink").Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, "task hand-off failed")
			p.logger.Error(ctx, "task hand-off failed", zap.Error(err))
			return nil, fmt.Errorf("%w: %w", ErrProcessing, err)
		}
		resp.Record = &rec
		span.SetAttributes(attribute.String("task.id", rec.ID))
	}

	p.metrics.ExtractionsTotal.WithLabelValues(string(res.Priority), string(res.Category)).Inc()
	p.metrics.DeadlinesTotal.WithLabelValues(strconv.FormatBool(res.Deadline.HasDeadline)).Inc()
	p.metrics.ProcessDuration.Observe(time.Since(start).Seconds())

	p.logger.Info(ctx, "processed input",
		zap.String("source", string(source)),
		zap.Int("text_length", len(raw.Text)),
		zap.String("priority", string(res.Priority)),
		zap.String("category", string(res.Category)),
		zap.Bool("has_deadline", res.Deadline.HasDeadline),
	)
	p.logger.Debug(ctx, "processed input text", zap.String("text", raw.Text))

	return resp, nil
}

// Analyze runs the extraction engine only, without validation or hand-off.
func (p *Processor) Analyze(ctx context.Context, text string) extraction.Result {
	return p.analyze(ctx, text)
}

func (p *Processor) analyze(ctx context.Context, text string) extraction.Result {
	_, span := p.tracer.Start(ctx, "extraction.Analyze")
	defer span.End()

	res := p.analyzer.Analyze(text)
	span.SetAttributes(
		attribute.String("priority", string(res.Priority)),
		attribute.String("category", string(res.Category)),
		attribute.Bool("has_deadline", res.Deadline.HasDeadline),
		attribute.Bool("has_contact", res.HasContact()),
	)
	return res
}

// Rules returns the validator bounds in use.
func (p *Processor) Rules() sanitize.InputRules {
	return p.rules
}
