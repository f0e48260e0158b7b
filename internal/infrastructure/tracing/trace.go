package tracing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zoobzio/clockz"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/shared/id"
)

// SpanID represents a unique span identifier
type SpanID string

// Span represents one boundary call
type Span struct {
	CallID    id.CallID
	SpanID    SpanID
	Task      string
	Operation string
	HandleID  id.HandleID
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Tags      map[string]string
	Status    string
	Error     error
}

// SetTag adds a tag to the span
func (s *Span) SetTag(key, value string) {
	if s.Tags == nil {
		s.Tags = make(map[string]string)
	}
	s.Tags[key] = value
}

// SetHandle records the handle the call ran on
func (s *Span) SetHandle(h id.HandleID) {
	s.HandleID = h
}

// SetError records the outcome of the call. A nil error means success.
func (s *Span) SetError(status string, err error) {
	s.Status = status
	s.Error = err
}

// Tracer records boundary call spans
type Tracer struct {
	logger *zap.Logger
	clock  clockz.Clock
	onEnd  []func(*Span)
}

// Option configures a Tracer.
type Option func(*Tracer)

// WithClock sets the clock spans are timed with.
func WithClock(clock clockz.Clock) Option {
	return func(t *Tracer) { t.clock = clock }
}

// OnFinish registers fn to receive every finished span.
func OnFinish(fn func(*Span)) Option {
	return func(t *Tracer) { t.onEnd = append(t.onEnd, fn) }
}

// New creates a new tracer instance
func New(logger *zap.Logger, opts ...Option) *Tracer {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tracer{
		logger: logger,
		clock:  clockz.RealClock,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// StartSpan creates a new span for one call
func (t *Tracer) StartSpan(ctx context.Context, task, operation string) (*Span, context.Context) {
	span := &Span{
		CallID:    id.NewCallID(),
		SpanID:    SpanID(uuid.NewString()),
		Task:      task,
		Operation: operation,
		StartTime: t.clock.Now(),
		Status:    "ok",
	}
	return span, context.WithValue(ctx, spanKey, span)
}

// Finish completes the span, logs it and hands it to the observers
func (t *Tracer) Finish(span *Span) {
	span.EndTime = t.clock.Now()
	span.Duration = span.EndTime.Sub(span.StartTime)

	fields := []zap.Field{
		zap.String("call_id", span.CallID.String()),
		zap.String("span_id", string(span.SpanID)),
		zap.String("task", span.Task),
		zap.String("operation", span.Operation),
		zap.String("status", span.Status),
		zap.Duration("duration", span.Duration),
	}
	if span.HandleID != "" {
		fields = append(fields, zap.String("handle", span.HandleID.String()))
	}
	for k, v := range span.Tags {
		fields = append(fields, zap.String(k, v))
	}

	if span.Error != nil {
		fields = append(fields, zap.Error(span.Error))
		t.logger.Warn("call failed", fields...)
	} else {
		t.logger.Debug("call completed", fields...)
	}

	for _, fn := range t.onEnd {
		fn(span)
	}
}

type contextKey string

const spanKey contextKey = "span"

// FromContext returns the span carried by ctx, if any
func FromContext(ctx context.Context) (*Span, bool) {
	span, ok := ctx.Value(spanKey).(*Span)
	return span, ok
}

// FormatSpan returns a formatted span reference for logging
func FormatSpan(span *Span) string {
	return fmt.Sprintf("[call:%s span:%s]", span.CallID, span.SpanID)
}
