package boundary

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"unsafe"

	"github.com/bytedance/sonic"
	"github.com/zoobzio/clockz"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/codec"
	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/config"
	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/flat"
	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/handle"
	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/logging"
	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/memory"
	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/pipeline"
)

// Version is reported by nlp_version.
const Version = "1.0.0"

type zeroShotArgs struct {
	text   string
	labels []string
}

type translateArgs struct {
	text           string
	source, target language.Tag
}

type generateArgs struct {
	prompt string
	prefix string
}

// Bridge owns every handle and result handed to foreign callers.
type Bridge struct {
	cfg      *config.Config
	backend  pipeline.Backend
	alloc    memory.Allocator
	tracker  *memory.Tracker
	codec    *codec.Codec
	arena    *handle.Arena
	logger   *zap.Logger
	clock    clockz.Clock
	metrics  *monitoring.Metrics
	tracer   *tracing.Tracer
	lastErr  ErrorStore
	defaults pipeline.Options
	files    *pipeline.ModelFiles

	Sentiment      *Task[pipeline.SentimentModel, string, pipeline.Sentiment]
	POS            *Task[pipeline.POSModel, string, []pipeline.Tag]
	NER            *Task[pipeline.NERModel, string, []pipeline.Entity]
	QA             *Task[pipeline.QAModel, pipeline.QAInput, []pipeline.Answer]
	Summarization  *Task[pipeline.SummarizationModel, string, []string]
	ZeroShot       *Task[pipeline.ZeroShotModel, zeroShotArgs, []pipeline.Label]
	Translation    *Task[pipeline.TranslationModel, translateArgs, string]
	TextGeneration *Task[pipeline.TextGenerationModel, generateArgs, string]
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithAllocator sets the allocator every handle box and result is drawn
// from. A *memory.Tracker also backs LiveAllocations.
func WithAllocator(alloc memory.Allocator) Option {
	return func(b *Bridge) { b.alloc = alloc }
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Bridge) { b.logger = logger }
}

// WithClock sets the clock for spans, breakers and handle timestamps.
func WithClock(clock clockz.Clock) Option {
	return func(b *Bridge) { b.clock = clock }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(b *Bridge) { b.metrics = m }
}

// New wires a bridge over backend. A nil cfg uses config.Default.
func New(cfg *config.Config, backend pipeline.Backend, opts ...Option) (*Bridge, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if backend == nil {
		return nil, fmt.Errorf("backend: %w", pipeline.ErrUnknownBackend)
	}

	b := &Bridge{cfg: cfg, backend: backend}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	if b.clock == nil {
		b.clock = clockz.RealClock
	}
	if b.alloc == nil {
		if cfg.Memory.TrackAllocations {
			b.alloc = memory.NewTracker(memory.CHeap{}, memory.WithQuarantine(cfg.Memory.Quarantine))
		} else {
			b.alloc = memory.CHeap{}
		}
	}
	if b.metrics == nil {
		b.metrics = monitoring.NewMetrics(b.clock)
	}
	if tracker, ok := b.alloc.(*memory.Tracker); ok {
		b.tracker = tracker
		tracker.Observe(b.metrics.ObserveAllocation)
	}

	b.codec = codec.New(b.alloc, cfg.Memory.MaxTextBytes)
	b.arena = handle.NewArena(b.alloc, handle.WithClock(b.clock))
	b.tracer = tracing.New(b.logger.Named("calls"),
		tracing.WithClock(b.clock),
		tracing.OnFinish(b.recordSpan),
	)

	source, _ := cfg.Translation.SourceLanguage()
	target, _ := cfg.Translation.TargetLanguage()
	b.defaults = pipeline.Options{
		SourceLanguage: source,
		TargetLanguage: target,
		MaxSentences:   cfg.Summarization.MaxSentences,
		MaxLength:      cfg.Generation.MaxLength,
	}
	if cfg.Backend.ResourceDir != "" {
		b.files = &pipeline.ModelFiles{Model: cfg.Backend.ResourceDir}
	}

	b.registerTasks()

	b.logger.Info("bridge initialized",
		zap.String("backend", backend.Name()),
		zap.Bool("track_allocations", b.tracker != nil),
		zap.Bool("breaker", cfg.Breaker.Enabled),
	)
	return b, nil
}

func (b *Bridge) registerTasks() {
	qa := b.cfg.QA
	maxLen := b.cfg.ZeroShot.MaxLength

	b.Sentiment = &Task[pipeline.SentimentModel, string, pipeline.Sentiment]{
		kind:  handle.KindSentiment,
		build: b.backend.NewSentiment,
		predict: func(ctx context.Context, m pipeline.SentimentModel, text string) (pipeline.Sentiment, error) {
			return pipeline.Single(ctx, text, m.PredictSentiment)
		},
		export: exportSentiment,
		release: func(c *codec.Codec, p unsafe.Pointer) error {
			return flat.Unbox(c.Allocator(), p, dropSentiment(c))
		},
	}

	b.POS = &Task[pipeline.POSModel, string, []pipeline.Tag]{
		kind:  handle.KindPOS,
		build: b.backend.NewPOS,
		predict: func(ctx context.Context, m pipeline.POSModel, text string) ([]pipeline.Tag, error) {
			return pipeline.Single(ctx, text, m.PredictPOS)
		},
		export: exportTags,
		release: func(c *codec.Codec, p unsafe.Pointer) error {
			return flat.Release(c.Allocator(), p, dropTag(c))
		},
	}

	b.NER = &Task[pipeline.NERModel, string, []pipeline.Entity]{
		kind:  handle.KindNER,
		build: b.backend.NewNER,
		predict: func(ctx context.Context, m pipeline.NERModel, text string) ([]pipeline.Entity, error) {
			return pipeline.Single(ctx, text, m.PredictNER)
		},
		export: exportEntities,
		release: func(c *codec.Codec, p unsafe.Pointer) error {
			return flat.Release(c.Allocator(), p, dropEntity(c))
		},
	}

	b.QA = &Task[pipeline.QAModel, pipeline.QAInput, []pipeline.Answer]{
		kind:  handle.KindQA,
		build: b.backend.NewQA,
		predict: func(ctx context.Context, m pipeline.QAModel, in pipeline.QAInput) ([]pipeline.Answer, error) {
			return pipeline.Single(ctx, in, func(ctx context.Context, inputs []pipeline.QAInput) ([][]pipeline.Answer, error) {
				return m.PredictQA(ctx, inputs, qa.TopK, qa.MaxAnswerLength)
			})
		},
		export: exportAnswers,
		release: func(c *codec.Codec, p unsafe.Pointer) error {
			return flat.Release(c.Allocator(), p, dropAnswer(c))
		},
	}

	b.Summarization = &Task[pipeline.SummarizationModel, string, []string]{
		kind:  handle.KindSummarization,
		build: b.backend.NewSummarization,
		predict: func(ctx context.Context, m pipeline.SummarizationModel, text string) ([]string, error) {
			return m.Summarize(ctx, []string{text})
		},
		export: exportSummaries,
		release: func(c *codec.Codec, p unsafe.Pointer) error {
			return flat.Release(c.Allocator(), p, dropSummary(c))
		},
	}

	b.ZeroShot = &Task[pipeline.ZeroShotModel, zeroShotArgs, []pipeline.Label]{
		kind:  handle.KindZeroShot,
		build: b.backend.NewZeroShot,
		predict: func(ctx context.Context, m pipeline.ZeroShotModel, in zeroShotArgs) ([]pipeline.Label, error) {
			return pipeline.Single(ctx, in.text, func(ctx context.Context, texts []string) ([][]pipeline.Label, error) {
				return m.PredictZeroShot(ctx, texts, in.labels, maxLen)
			})
		},
		export: exportLabels,
		release: func(c *codec.Codec, p unsafe.Pointer) error {
			return flat.Release(c.Allocator(), p, dropLabel(c))
		},
	}

	b.Translation = &Task[pipeline.TranslationModel, translateArgs, string]{
		kind:  handle.KindTranslation,
		build: b.backend.NewTranslation,
		predict: func(ctx context.Context, m pipeline.TranslationModel, in translateArgs) (string, error) {
			return pipeline.Single(ctx, in.text, func(ctx context.Context, texts []string) ([]string, error) {
				return m.Translate(ctx, texts, in.source, in.target)
			})
		},
		export:  exportText,
		release: releaseTextResult,
	}

	b.TextGeneration = &Task[pipeline.TextGenerationModel, generateArgs, string]{
		kind:  handle.KindTextGeneration,
		build: b.backend.NewTextGeneration,
		predict: func(ctx context.Context, m pipeline.TextGenerationModel, in generateArgs) (string, error) {
			return pipeline.Single(ctx, in.prompt, func(ctx context.Context, prompts []string) ([]string, error) {
				return m.Generate(ctx, prompts, in.prefix)
			})
		},
		export:  exportText,
		release: releaseTextResult,
	}

	b.Sentiment.attach(b)
	b.POS.attach(b)
	b.NER.attach(b)
	b.QA.attach(b)
	b.Summarization.attach(b)
	b.ZeroShot.attach(b)
	b.Translation.attach(b)
	b.TextGeneration.attach(b)
}

func (b *Bridge) options() pipeline.Options {
	opts := b.defaults
	opts.Files = b.files
	return opts
}

func (b *Bridge) newBreaker(task string) *resilience.Breaker {
	if !b.cfg.Breaker.Enabled {
		return nil
	}
	return resilience.New(task, resilience.Settings{
		MaxRequests: 1,
		Timeout:     b.cfg.Breaker.Timeout,
		ReadyToTrip: resilience.ConsecutiveFailures(b.cfg.Breaker.MaxFailures),
		Clock:       b.clock,
		OnStateChange: func(name string, from, to resilience.State) {
			logging.For(b.logger, name).Warn("circuit breaker state changed",
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
	})
}

func (b *Bridge) finish(span *tracing.Span, err error) {
	if err != nil {
		code := b.lastErr.Record(err)
		span.SetError(code.Status(), err)
	}
	b.tracer.Finish(span)
}

func (b *Bridge) recordSpan(span *tracing.Span) {
	b.metrics.RecordCall(span.Task, span.Operation, span.Status, span.Duration)
	if span.Status == CircuitOpen.Status() {
		b.metrics.RecordBreakerRejection(span.Task)
	}
}

// Record stores a failure raised outside a task, such as an entry point
// called before initialization.
func (b *Bridge) Record(err error) Code {
	return b.lastErr.Record(err)
}

func (b *Bridge) text(p unsafe.Pointer) func() (string, error) {
	return func() (string, error) {
		return b.codec.Decode(p)
	}
}

// PredictSentiment returns a boxed SentimentRecord.
func (b *Bridge) PredictSentiment(h, text unsafe.Pointer) (unsafe.Pointer, error) {
	return b.Sentiment.Invoke(context.Background(), "predict", h, b.text(text))
}

// PredictPOS returns a TagResult.
func (b *Bridge) PredictPOS(h, text unsafe.Pointer) (unsafe.Pointer, error) {
	return b.POS.Invoke(context.Background(), "predict", h, b.text(text))
}

// PredictNER returns an EntityResult.
func (b *Bridge) PredictNER(h, text unsafe.Pointer) (unsafe.Pointer, error) {
	return b.NER.Invoke(context.Background(), "predict", h, b.text(text))
}

// PredictQA returns an AnswerResult. Answer offsets index the context.
func (b *Bridge) PredictQA(h, question, passage unsafe.Pointer) (unsafe.Pointer, error) {
	return b.QA.Invoke(context.Background(), "predict", h, func() (pipeline.QAInput, error) {
		q, err := b.codec.Decode(question)
		if err != nil {
			return pipeline.QAInput{}, fmt.Errorf("question: %w", err)
		}
		c, err := b.codec.Decode(passage)
		if err != nil {
			return pipeline.QAInput{}, fmt.Errorf("context: %w", err)
		}
		return pipeline.QAInput{Question: q, Context: c}, nil
	})
}

// Summarize returns a SummaryResult.
func (b *Bridge) Summarize(h, text unsafe.Pointer) (unsafe.Pointer, error) {
	return b.Summarization.Invoke(context.Background(), "summarize", h, b.text(text))
}

// PredictZeroShot returns a LabelResult ranked by descending score.
// Labels that fail to decode are skipped. The call fails when none remain.
func (b *Bridge) PredictZeroShot(h, text, labels unsafe.Pointer, n uintptr) (unsafe.Pointer, error) {
	return b.ZeroShot.Invoke(context.Background(), "predict", h, func() (zeroShotArgs, error) {
		if labels == nil {
			return zeroShotArgs{}, fmt.Errorf("labels: %w", codec.ErrNullPointer)
		}
		if n == 0 {
			return zeroShotArgs{}, fmt.Errorf("labels: %w", ErrEmptyCollection)
		}
		s, err := b.codec.Decode(text)
		if err != nil {
			return zeroShotArgs{}, fmt.Errorf("text: %w", err)
		}

		decoded, dropped := b.codec.DecodeArray(labels, int(n))
		if len(decoded) == 0 {
			return zeroShotArgs{}, fmt.Errorf("none of %d labels decoded: %w", n, ErrEmptyCollection)
		}
		if dropped > 0 {
			b.logger.Debug("skipped undecodable labels",
				zap.Int("dropped", dropped),
				zap.Int("kept", len(decoded)),
			)
		}
		return zeroShotArgs{text: s, labels: decoded}, nil
	})
}

// Translate returns Owned Text. Absent or unparsable language hints fall
// back to the handle's configured pair.
func (b *Bridge) Translate(h, text, source, target unsafe.Pointer) (unsafe.Pointer, error) {
	return b.Translation.Invoke(context.Background(), "translate", h, func() (translateArgs, error) {
		s, err := b.codec.Decode(text)
		if err != nil {
			return translateArgs{}, err
		}
		return translateArgs{
			text:   s,
			source: b.languageHint("source", source),
			target: b.languageHint("target", target),
		}, nil
	})
}

func (b *Bridge) languageHint(name string, p unsafe.Pointer) language.Tag {
	s, ok, err := b.codec.DecodeOptional(p)
	if err != nil {
		b.logger.Debug("ignoring undecodable language hint", zap.String("hint", name), zap.Error(err))
		return language.Und
	}
	if !ok || strings.TrimSpace(s) == "" {
		return language.Und
	}
	tag, err := language.Parse(strings.TrimSpace(s))
	if err != nil {
		b.logger.Debug("ignoring unparsable language hint", zap.String("hint", name), zap.String("value", s))
		return language.Und
	}
	return tag
}

// GenerateText returns Owned Text. An absent or undecodable prefix means
// unconditioned generation.
func (b *Bridge) GenerateText(h, prompt, prefix unsafe.Pointer) (unsafe.Pointer, error) {
	return b.TextGeneration.Invoke(context.Background(), "generate", h, func() (generateArgs, error) {
		s, err := b.codec.Decode(prompt)
		if err != nil {
			return generateArgs{}, err
		}
		pre, _, err := b.codec.DecodeOptional(prefix)
		if err != nil {
			b.logger.Debug("ignoring undecodable prefix", zap.Error(err))
			pre = ""
		}
		return generateArgs{prompt: s, prefix: pre}, nil
	})
}

// ModelFiles decodes the from-files constructor arguments. A NULL model
// path selects the default resources and yields nil.
func (b *Bridge) ModelFiles(model, cfg, vocab, merges unsafe.Pointer, modelType int) (*pipeline.ModelFiles, error) {
	path, ok, err := b.codec.DecodeOptional(model)
	if err != nil {
		return nil, b.invalidFiles(fmt.Errorf("model path: %w", err))
	}
	if !ok {
		return nil, nil
	}

	files := &pipeline.ModelFiles{Model: path, Type: pipeline.ModelTypeFromCode(modelType)}
	for _, opt := range []struct {
		name string
		p    unsafe.Pointer
		dst  *string
	}{
		{"config path", cfg, &files.Config},
		{"vocab path", vocab, &files.Vocab},
		{"merges path", merges, &files.Merges},
	} {
		if *opt.dst, _, err = b.codec.DecodeOptional(opt.p); err != nil {
			return nil, b.invalidFiles(fmt.Errorf("%s: %w", opt.name, err))
		}
	}
	return files, nil
}

func (b *Bridge) invalidFiles(err error) error {
	err = Fail("", "model_files", err)
	b.lastErr.Record(err)
	return err
}

// FreeString releases Owned Text returned by any entry point. Null is a
// no-op.
func (b *Bridge) FreeString(p unsafe.Pointer) error {
	if p == nil {
		return nil
	}
	if err := b.codec.Release((*byte)(p)); err != nil {
		err = Fail("", "free_string", err)
		b.lastErr.Record(err)
		b.logger.Warn("rejected string release", zap.Error(err))
		return err
	}
	return nil
}

// LastError returns the most recent failure in the process.
func (b *Bridge) LastError() (Code, string) {
	return b.lastErr.Last()
}

// LastErrorMessage returns the most recent failure message as Owned Text,
// or nil when nothing has failed.
func (b *Bridge) LastErrorMessage() unsafe.Pointer {
	code, msg := b.lastErr.Last()
	if code == OK {
		return nil
	}
	p, err := b.codec.Encode(strings.ReplaceAll(msg, "\x00", ""))
	if err != nil {
		b.logger.Warn("cannot export error message", zap.Error(err))
		return nil
	}
	return unsafe.Pointer(p)
}

// HandleStatus returns the status of the last call made through h.
func (b *Bridge) HandleStatus(h unsafe.Pointer) Code {
	entry, err := b.arena.Lookup(h, handle.KindAny)
	if err != nil {
		return Classify(err)
	}
	return Code(entry.Status())
}

// LiveHandles returns the number of handles not yet destroyed.
func (b *Bridge) LiveHandles() int {
	return b.arena.Len()
}

// LiveAllocations returns the number of outstanding boundary allocations,
// handle boxes included. It is 0 when allocation tracking is off.
func (b *Bridge) LiveAllocations() int {
	if b.tracker == nil {
		return 0
	}
	return b.tracker.Live()
}

// Stats is the document behind nlp_stats.
type Stats struct {
	Version       string              `json:"version"`
	Backend       string              `json:"backend"`
	LiveHandles   int                 `json:"live_handles"`
	HandlesByKind map[string]int      `json:"handles_by_kind"`
	Memory        *memory.Stats       `json:"memory,omitempty"`
	Metrics       monitoring.Snapshot `json:"metrics"`
}

// Stats collects a point-in-time view of the bridge.
func (b *Bridge) Stats() Stats {
	s := Stats{
		Version:       Version,
		Backend:       b.backend.Name(),
		LiveHandles:   b.arena.Len(),
		HandlesByKind: make(map[string]int),
		Metrics:       b.metrics.Snapshot(),
	}
	for kind, n := range b.arena.CountByKind() {
		s.HandlesByKind[kind.String()] = n
	}
	if b.tracker != nil {
		mem := b.tracker.Stats()
		s.Memory = &mem
	}
	return s
}

// StatsText returns Stats as JSON Owned Text.
func (b *Bridge) StatsText() (unsafe.Pointer, error) {
	data, err := sonic.Marshal(b.Stats())
	if err != nil {
		return nil, b.exportFailed("stats", err)
	}
	return b.exportString("stats", string(data))
}

// MetricsText returns the Prometheus exposition as Owned Text.
func (b *Bridge) MetricsText() (unsafe.Pointer, error) {
	var buf bytes.Buffer
	if err := b.metrics.WriteText(&buf); err != nil {
		return nil, b.exportFailed("metrics", err)
	}
	return b.exportString("metrics", buf.String())
}

// VersionText returns Version as Owned Text.
func (b *Bridge) VersionText() (unsafe.Pointer, error) {
	return b.exportString("version", Version)
}

func (b *Bridge) exportString(op, s string) (unsafe.Pointer, error) {
	p, err := b.codec.Encode(s)
	if err != nil {
		return nil, b.exportFailed(op, err)
	}
	return unsafe.Pointer(p), nil
}

func (b *Bridge) exportFailed(op string, err error) error {
	err = Fail("", op, err)
	b.lastErr.Record(err)
	return err
}

// Close destroys every live handle and returns how many there were.
// Results already handed out stay valid until released. Quarantined
// blocks are returned to the C heap.
func (b *Bridge) Close() (int, error) {
	entries, err := b.arena.Drain()
	for _, entry := range entries {
		if closer, ok := entry.Value.(io.Closer); ok {
			err = multierr.Append(err, closer.Close())
		}
		b.metrics.RecordHandleDestroyed(entry.Kind.String())
	}
	if b.tracker != nil {
		err = multierr.Append(err, b.tracker.Flush())
	}
	if len(entries) > 0 {
		b.logger.Warn("destroyed handles still live at close", zap.Int("count", len(entries)))
	}
	if err != nil {
		b.logger.Error("close failed", zap.Error(err))
	}
	return len(entries), err
}
