package main

import (
	"context"
	"fmt"
	"sync"
	"unsafe"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/boundary"
	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/codec"
	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/config"
	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/logging"
	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/memory"
	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/pipeline"
	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/pipeline/lexicon"
)

// lifecycle is the part of a boundary.Task the export layer drives
// without knowing its type parameters.
type lifecycle interface {
	Create(ctx context.Context, files *pipeline.ModelFiles) (unsafe.Pointer, error)
	Destroy(ctx context.Context, h unsafe.Pointer) error
	Release(ctx context.Context, p unsafe.Pointer) error
}

type selector func(*boundary.Bridge) lifecycle

var (
	sentimentTask      selector = func(b *boundary.Bridge) lifecycle { return b.Sentiment }
	posTask            selector = func(b *boundary.Bridge) lifecycle { return b.POS }
	nerTask            selector = func(b *boundary.Bridge) lifecycle { return b.NER }
	qaTask             selector = func(b *boundary.Bridge) lifecycle { return b.QA }
	summarizationTask  selector = func(b *boundary.Bridge) lifecycle { return b.Summarization }
	zeroShotTask       selector = func(b *boundary.Bridge) lifecycle { return b.ZeroShot }
	translationTask    selector = func(b *boundary.Bridge) lifecycle { return b.Translation }
	textGenerationTask selector = func(b *boundary.Bridge) lifecycle { return b.TextGeneration }
)

// runtime lazily wires the bridge on the first call into the library.
// Failures before the bridge exists go to a local store and codec so the
// error entry points keep working.
type runtime struct {
	start func() (*boundary.Bridge, error)

	once     sync.Once
	bridge   *boundary.Bridge
	err      error
	fallback boundary.ErrorStore
	text     *codec.Codec
}

var rt = newRuntime(start)

func newRuntime(start func() (*boundary.Bridge, error)) *runtime {
	return &runtime{start: start, text: codec.New(memory.CHeap{}, 0)}
}

// start builds the process-wide bridge from the environment.
func start() (*boundary.Bridge, error) {
	if err := checkLayout(); err != nil {
		return nil, fmt.Errorf("record layout: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{cfg.Logging.Output},
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	return build(cfg, logger.Logger)
}

func build(cfg *config.Config, logger *zap.Logger) (*boundary.Bridge, error) {
	reg := pipeline.NewRegistry()
	if err := lexicon.Register(reg, logger); err != nil {
		return nil, fmt.Errorf("register backend: %w", err)
	}
	backend, err := reg.Lookup(cfg.Backend.Name)
	if err != nil {
		return nil, err
	}
	return boundary.New(cfg, backend, boundary.WithLogger(logger))
}

// get returns the bridge, initializing it on first use. When
// initialization failed the failure is recorded and ok is false.
func (r *runtime) get() (b *boundary.Bridge, ok bool) {
	r.once.Do(func() {
		bridge, err := r.start()
		if err != nil {
			r.err = fmt.Errorf("%w: %w", boundary.ErrNotInitialized, err)
			logging.NewDefault().Error("nlpbridge initialization failed", zap.Error(err))
			return
		}
		r.bridge = bridge
	})
	if r.bridge == nil {
		r.fallback.Record(r.err)
		return nil, false
	}
	return r.bridge, true
}

func (r *runtime) create(task selector, files *pipeline.ModelFiles) unsafe.Pointer {
	b, ok := r.get()
	if !ok {
		return nil
	}
	h, _ := task(b).Create(context.Background(), files)
	return h
}

func (r *runtime) createFromFiles(task selector, model, cfg, vocab, merges unsafe.Pointer, modelType int) unsafe.Pointer {
	b, ok := r.get()
	if !ok {
		return nil
	}
	files, err := b.ModelFiles(model, cfg, vocab, merges, modelType)
	if err != nil {
		return nil
	}
	h, _ := task(b).Create(context.Background(), files)
	return h
}

func (r *runtime) destroy(task selector, h unsafe.Pointer) {
	if h == nil {
		return
	}
	if b, ok := r.get(); ok {
		_ = task(b).Destroy(context.Background(), h)
	}
}

func (r *runtime) release(task selector, p unsafe.Pointer) {
	if p == nil {
		return
	}
	if b, ok := r.get(); ok {
		_ = task(b).Release(context.Background(), p)
	}
}

// call runs an operate entry point. Failures are already recorded by the
// bridge, so only the pointer matters here.
func (r *runtime) call(op func(*boundary.Bridge) (unsafe.Pointer, error)) unsafe.Pointer {
	b, ok := r.get()
	if !ok {
		return nil
	}
	p, _ := op(b)
	return p
}

func (r *runtime) freeString(p unsafe.Pointer) {
	if p == nil {
		return
	}
	if b, ok := r.get(); ok {
		_ = b.FreeString(p)
		return
	}
	_ = r.text.Release((*byte)(p))
}

func (r *runtime) lastError() (boundary.Code, string) {
	if b, ok := r.get(); ok {
		return b.LastError()
	}
	return r.fallback.Last()
}

func (r *runtime) lastErrorMessage() unsafe.Pointer {
	if b, ok := r.get(); ok {
		return b.LastErrorMessage()
	}
	_, msg := r.fallback.Last()
	p, err := r.text.Encode(msg)
	if err != nil {
		return nil
	}
	return unsafe.Pointer(p)
}

func (r *runtime) handleStatus(h unsafe.Pointer) boundary.Code {
	b, ok := r.get()
	if !ok {
		return boundary.NotInitialized
	}
	return b.HandleStatus(h)
}

func (r *runtime) liveHandles() int {
	if b, ok := r.get(); ok {
		return b.LiveHandles()
	}
	return 0
}

func (r *runtime) liveAllocations() int {
	if b, ok := r.get(); ok {
		return b.LiveAllocations()
	}
	return 0
}
