package boundary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"unsafe"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/codec"
	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/handle"
	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/logging"
	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/pipeline"
)

// instance is the value a handle owns.
type instance[M any] struct {
	model   M
	breaker *resilience.Breaker
}

// Close closes the model when it holds resources of its own.
func (i *instance[M]) Close() error {
	if closer, ok := any(i.model).(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Task binds one pipeline kind to the handle, codec and result protocols.
// M is the model contract, In the decoded call arguments and Out the
// pipeline output for one input.
type Task[M, In, Out any] struct {
	kind    handle.Kind
	bridge  *Bridge
	logger  *zap.Logger
	build   func(ctx context.Context, opts pipeline.Options) (M, error)
	predict func(ctx context.Context, model M, in In) (Out, error)
	export  func(c *codec.Codec, out Out) (unsafe.Pointer, error)
	release func(c *codec.Codec, p unsafe.Pointer) error
}

// Kind returns the pipeline kind the task serves.
func (t *Task[M, In, Out]) Kind() handle.Kind {
	return t.kind
}

func (t *Task[M, In, Out]) name() string {
	return t.kind.String()
}

func (t *Task[M, In, Out]) attach(b *Bridge) {
	t.bridge = b
	t.logger = logging.For(b.logger, t.name())
}

// Create builds a model and returns its handle. Nil files selects the
// backend defaults.
func (t *Task[M, In, Out]) Create(ctx context.Context, files *pipeline.ModelFiles) (h unsafe.Pointer, err error) {
	b := t.bridge
	span, ctx := b.tracer.StartSpan(ctx, t.name(), "create")
	defer func() { b.finish(span, err) }()

	opts := b.options()
	if files != nil {
		opts.Files = files
		span.SetTag("model_type", files.Type.String())
	}

	model, err := t.construct(ctx, opts)
	if err == nil && any(model) == nil {
		err = errors.New("backend returned no model")
	}
	if err != nil {
		return nil, &Error{Code: Construction, Op: "create", Task: t.name(), Err: fmt.Errorf("%w: %w", ErrConstruction, err)}
	}

	inst := &instance[M]{model: model, breaker: b.newBreaker(t.name())}
	h, entry, err := b.arena.Insert(t.kind, inst)
	if err != nil {
		t.close(model)
		return nil, Fail(t.name(), "create", err)
	}

	span.SetHandle(entry.ID)
	b.metrics.RecordHandleCreated(t.name())
	t.logger.Info("model created",
		zap.String("handle", entry.ID.String()),
		zap.Bool("custom_files", opts.Files != nil),
	)
	return h, nil
}

func (t *Task[M, In, Out]) construct(ctx context.Context, opts pipeline.Options) (model M, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return t.build(ctx, opts)
}

// Destroy reclaims the model behind h. Null is a no-op. A stale or
// wrong-kind handle is reported and left alone.
func (t *Task[M, In, Out]) Destroy(ctx context.Context, h unsafe.Pointer) (err error) {
	if h == nil {
		return nil
	}

	b := t.bridge
	span, _ := b.tracer.StartSpan(ctx, t.name(), "destroy")
	defer func() { b.finish(span, err) }()

	entry, err := b.arena.Remove(h, t.kind)
	if err != nil {
		return Fail(t.name(), "destroy", err)
	}
	span.SetHandle(entry.ID)

	if inst, ok := entry.Value.(*instance[M]); ok {
		if err := inst.Close(); err != nil {
			t.logger.Warn("model close failed", zap.Error(err))
		}
	}
	b.metrics.RecordHandleDestroyed(t.name())
	t.logger.Info("model destroyed",
		zap.String("handle", entry.ID.String()),
	)
	return nil
}

func (t *Task[M, In, Out]) close(model M) {
	closer, ok := any(model).(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		t.logger.Warn("model close failed", zap.Error(err))
	}
}

// Invoke runs one prediction through h. decode turns the borrowed call
// arguments into In while the handle is held. The returned pointer is owned
// by the caller and must go back through Release.
func (t *Task[M, In, Out]) Invoke(ctx context.Context, op string, h unsafe.Pointer, decode func() (In, error)) (p unsafe.Pointer, err error) {
	b := t.bridge
	span, ctx := b.tracer.StartSpan(ctx, t.name(), op)
	defer func() { b.finish(span, err) }()

	if h == nil {
		return nil, Fail(t.name(), op, handle.ErrNullHandle)
	}

	err = b.arena.With(h, t.kind, func(entry *handle.Entry) (err error) {
		span.SetHandle(entry.ID)
		defer func() {
			if r := recover(); r != nil {
				p = nil
				err = &Error{Code: Inference, Op: op, Task: t.name(), Err: fmt.Errorf("%w: panic: %v", ErrInference, r)}
			}
			entry.SetStatus(int32(Classify(err)))
		}()

		in, err := decode()
		if err != nil {
			return Fail(t.name(), op, err)
		}

		inst := entry.Value.(*instance[M])
		out, err := resilience.Run(inst.breaker, func() (Out, error) {
			out, err := t.predict(ctx, inst.model, in)
			if err != nil {
				return out, fmt.Errorf("%w: %w", ErrInference, err)
			}
			return out, nil
		})
		traceBreaker(span, inst.breaker)
		if err != nil {
			return Fail(t.name(), op, err)
		}

		p, err = t.export(b.codec, out)
		if err != nil {
			return Fail(t.name(), op, err)
		}
		return nil
	})
	if err != nil {
		var be *Error
		if !errors.As(err, &be) {
			err = Fail(t.name(), op, err)
		}
		return nil, err
	}
	return p, nil
}

// traceBreaker tags the span with the breaker state after a call.
func traceBreaker(span *tracing.Span, cb *resilience.Breaker) {
	if cb == nil {
		return
	}
	span.SetTag("breaker", cb.State().String())
	span.SetTag("consecutive_failures", strconv.FormatUint(uint64(cb.Counts().ConsecutiveFailures), 10))
}

// Release frees a result returned by Invoke. Null is a no-op. A pointer
// the boundary does not own is reported and left alone.
func (t *Task[M, In, Out]) Release(ctx context.Context, p unsafe.Pointer) (err error) {
	if p == nil {
		return nil
	}

	b := t.bridge
	span, _ := b.tracer.StartSpan(ctx, t.name(), "release")
	defer func() { b.finish(span, err) }()

	if err := t.release(b.codec, p); err != nil {
		return Fail(t.name(), "release", err)
	}
	return nil
}
