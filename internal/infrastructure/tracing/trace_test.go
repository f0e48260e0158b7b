package tracing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSpanLifecycle(t *testing.T) {
	clock := clockz.NewFakeClock()
	core, logs := observer.New(zapcore.DebugLevel)

	var finished []*Span
	tracer := New(zap.New(core), WithClock(clock), OnFinish(func(s *Span) {
		finished = append(finished, s)
	}))

	span, ctx := tracer.StartSpan(context.Background(), "sentiment", "predict")
	fromCtx, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, span, fromCtx)
	assert.True(t, span.CallID.Valid(), "call id %q", span.CallID)
	started, err := span.CallID.Created()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), started, time.Minute)
	assert.NotEmpty(t, span.SpanID)

	span.SetHandle("sent_01HZX")
	span.SetTag("backend", "lexicon")
	clock.Advance(25 * time.Millisecond)
	tracer.Finish(span)

	require.Len(t, finished, 1)
	assert.Equal(t, 25*time.Millisecond, finished[0].Duration)
	assert.Equal(t, "ok", finished[0].Status)

	entries := logs.FilterMessage("call completed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "sentiment", fields["task"])
	assert.Equal(t, "predict", fields["operation"])
	assert.Equal(t, "sent_01HZX", fields["handle"])
	assert.Equal(t, "lexicon", fields["backend"])
}

func TestSpanErrorIsWarned(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	tracer := New(zap.New(core), WithClock(clockz.NewFakeClock()))

	span, _ := tracer.StartSpan(context.Background(), "qa", "predict")
	span.SetError("inference", errors.New("model failed"))
	tracer.Finish(span)

	entries := logs.FilterMessage("call failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "inference", entries[0].ContextMap()["status"])
	assert.Equal(t, 0, logs.FilterMessage("call completed").Len())
}

func TestSpansHaveDistinctIDs(t *testing.T) {
	tracer := New(nil)
	a, _ := tracer.StartSpan(context.Background(), "ner", "predict")
	b, _ := tracer.StartSpan(context.Background(), "ner", "predict")

	assert.NotEqual(t, a.CallID, b.CallID)
	assert.NotEqual(t, a.SpanID, b.SpanID)
	assert.Contains(t, FormatSpan(a), string(a.CallID))
}

func TestFromContextWithoutSpan(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)
}
