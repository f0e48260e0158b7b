/*
Package lexicon is the built-in inference backend.

It scores text with a compiled lexicon instead of neural weights: word
polarities for sentiment, a tag dictionary with suffix rules for POS, a
gazetteer with context rules for NER, keyword overlap for QA and zero-shot
classification, frequency-ranked extraction for summarization, dictionary
substitution for translation and a bigram chain for text generation.

# Resources

The default lexicon is embedded. Custom model files replace individual
sections of it:

  - model: YAML, TOML or JSON Document, optionally gzip or zstd compressed.
    A directory is searched for lexicon.* or model.*.
  - config: Params overrides.
  - vocab: restricts the known vocabulary. Unknown words score lower.
  - merges: extra multi-word expressions, one per line.

Resources are compiled once per distinct file set and shared between
models. Concurrent constructions with the same files share one load.
*/
package lexicon

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/pipeline"
)

// Name is the registry name of the lexicon backend.
const Name = "lexicon"

const (
	defaultMaxSentences = 3
	defaultMaxLength    = 32
)

// Backend builds lexicon models.
type Backend struct {
	loader *loader
	logger *zap.Logger
}

var _ pipeline.Backend = (*Backend)(nil)

// New creates a lexicon backend. A nil logger discards output.
func New(logger *zap.Logger) *Backend {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named(Name)
	return &Backend{loader: newLoader(logger), logger: logger}
}

// Register adds a lexicon backend to reg.
func Register(reg *pipeline.Registry, logger *zap.Logger) error {
	return reg.Register(New(logger))
}

func (b *Backend) Name() string { return Name }

// Resources returns the compiled resources for files, loading them if
// needed. Nil files selects the built-in lexicon.
func (b *Backend) Resources(ctx context.Context, files *pipeline.ModelFiles) (*Resources, error) {
	return b.loader.load(ctx, files)
}

func (b *Backend) NewSentiment(ctx context.Context, opts pipeline.Options) (pipeline.SentimentModel, error) {
	res, err := b.Resources(ctx, opts.Files)
	if err != nil {
		return nil, err
	}
	return &sentimentModel{res: res}, nil
}

func (b *Backend) NewPOS(ctx context.Context, opts pipeline.Options) (pipeline.POSModel, error) {
	res, err := b.Resources(ctx, opts.Files)
	if err != nil {
		return nil, err
	}
	return &posModel{res: res}, nil
}

func (b *Backend) NewNER(ctx context.Context, opts pipeline.Options) (pipeline.NERModel, error) {
	res, err := b.Resources(ctx, opts.Files)
	if err != nil {
		return nil, err
	}
	return &nerModel{res: res}, nil
}

func (b *Backend) NewQA(ctx context.Context, opts pipeline.Options) (pipeline.QAModel, error) {
	res, err := b.Resources(ctx, opts.Files)
	if err != nil {
		return nil, err
	}
	return &qaModel{res: res}, nil
}

func (b *Backend) NewSummarization(ctx context.Context, opts pipeline.Options) (pipeline.SummarizationModel, error) {
	res, err := b.Resources(ctx, opts.Files)
	if err != nil {
		return nil, err
	}
	n := opts.MaxSentences
	if n <= 0 {
		n = defaultMaxSentences
	}
	return &summarizationModel{res: res, maxSentences: n}, nil
}

func (b *Backend) NewZeroShot(ctx context.Context, opts pipeline.Options) (pipeline.ZeroShotModel, error) {
	res, err := b.Resources(ctx, opts.Files)
	if err != nil {
		return nil, err
	}
	return &zeroShotModel{res: res}, nil
}

// NewTranslation fails with pipeline.ErrUnsupportedLanguage when the
// configured pair has no dictionary.
func (b *Backend) NewTranslation(ctx context.Context, opts pipeline.Options) (pipeline.TranslationModel, error) {
	res, err := b.Resources(ctx, opts.Files)
	if err != nil {
		return nil, err
	}

	source, target := opts.SourceLanguage, opts.TargetLanguage
	if source == language.Und {
		source = language.English
	}
	if target == language.Und {
		target = language.French
	}
	if baseOf(source) != baseOf(target) {
		if _, err := res.dictionary(baseOf(source), baseOf(target)); err != nil {
			return nil, fmt.Errorf("translation model: %w", err)
		}
	}

	b.logger.Debug("translation model created",
		zap.Stringer("source", source),
		zap.Stringer("target", target),
		zap.String("resources", res.Source),
	)
	return &translationModel{res: res, source: source, target: target}, nil
}

func (b *Backend) NewTextGeneration(ctx context.Context, opts pipeline.Options) (pipeline.TextGenerationModel, error) {
	res, err := b.Resources(ctx, opts.Files)
	if err != nil {
		return nil, err
	}
	n := opts.MaxLength
	if n <= 0 {
		n = defaultMaxLength
	}
	return &textGenerationModel{res: res, maxLength: n}, nil
}
