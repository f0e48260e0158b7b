/*
Package tracing records one span per boundary call.

# Overview

Every exported entry point opens a span, runs, and finishes the span with the
status code it returns to the caller. Finished spans are logged and passed to
observers, which is how call counts and durations reach the metrics.

# Features

- Call ids from the ULID generator, span ids from google/uuid
- Task, operation, handle and status on every span
- Injectable clockz.Clock for deterministic durations
- Synchronous: a finished span is fully processed before Finish returns

# Usage

	tracer := tracing.New(logger, tracing.OnFinish(func(s *tracing.Span) {
		metrics.RecordCall(s.Task, s.Operation, s.Status, s.Duration)
	}))

	span, ctx := tracer.StartSpan(ctx, "sentiment", "predict")
	defer tracer.Finish(span)
	span.SetHandle(entry.ID)
*/
package tracing
