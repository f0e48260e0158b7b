// Package pipeline defines the contracts between the boundary and the
// inference backends that do the actual work.
//
// Every model takes a batch of inputs and returns one result per input.
// Models are not required to be safe for concurrent use; the boundary
// serializes calls per handle.
package pipeline

import (
	"context"
	"errors"

	"golang.org/x/text/language"
)

var (
	ErrBatchMismatch       = errors.New("model returned a different number of results than inputs")
	ErrUnsupportedLanguage = errors.New("unsupported language pair")
	ErrUnknownBackend      = errors.New("unknown backend")
)

// Polarity is the sentiment class.
type Polarity int

const (
	Negative Polarity = iota
	Positive
)

// String returns the label used on the wire
func (p Polarity) String() string {
	if p == Positive {
		return "POSITIVE"
	}
	return "NEGATIVE"
}

// Sentiment is one sentiment prediction.
type Sentiment struct {
	Polarity Polarity
	Score    float64
}

// Tag is one part-of-speech tag.
type Tag struct {
	Word  string
	Score float64
	Label string
}

// Entity is one named entity. Begin and End are half-open character
// offsets into the input.
type Entity struct {
	Word  string
	Score float64
	Label string
	Begin int
	End   int
}

// QAInput pairs a question with the passage that answers it.
type QAInput struct {
	Question string
	Context  string
}

// Answer is one extracted answer span. Start and End are half-open
// character offsets into the context.
type Answer struct {
	Score float64
	Start int
	End   int
	Text  string
}

// Label is one scored zero-shot candidate.
type Label struct {
	Text  string
	Score float64
}

type SentimentModel interface {
	PredictSentiment(ctx context.Context, texts []string) ([]Sentiment, error)
}

type POSModel interface {
	PredictPOS(ctx context.Context, texts []string) ([][]Tag, error)
}

type NERModel interface {
	PredictNER(ctx context.Context, texts []string) ([][]Entity, error)
}

type QAModel interface {
	PredictQA(ctx context.Context, inputs []QAInput, topK, maxAnswerLen int) ([][]Answer, error)
}

type SummarizationModel interface {
	Summarize(ctx context.Context, texts []string) ([]string, error)
}

// ZeroShotModel scores every candidate label against each text. Results
// are ranked by descending score.
type ZeroShotModel interface {
	PredictZeroShot(ctx context.Context, texts []string, labels []string, maxLen int) ([][]Label, error)
}

// TranslationModel translates texts. language.Und for source or target
// selects the model's configured language.
type TranslationModel interface {
	Translate(ctx context.Context, texts []string, source, target language.Tag) ([]string, error)
}

// TextGenerationModel continues prompts. An empty prefix means
// unconditioned generation.
type TextGenerationModel interface {
	Generate(ctx context.Context, prompts []string, prefix string) ([]string, error)
}

// Backend constructs models for every task.
type Backend interface {
	Name() string
	NewSentiment(ctx context.Context, opts Options) (SentimentModel, error)
	NewPOS(ctx context.Context, opts Options) (POSModel, error)
	NewNER(ctx context.Context, opts Options) (NERModel, error)
	NewQA(ctx context.Context, opts Options) (QAModel, error)
	NewSummarization(ctx context.Context, opts Options) (SummarizationModel, error)
	NewZeroShot(ctx context.Context, opts Options) (ZeroShotModel, error)
	NewTranslation(ctx context.Context, opts Options) (TranslationModel, error)
	NewTextGeneration(ctx context.Context, opts Options) (TextGenerationModel, error)
}

// Options carries construction parameters shared by all tasks. Fields a
// task does not use are ignored.
type Options struct {
	// Files selects custom model resources. Nil selects the backend defaults.
	Files *ModelFiles

	SourceLanguage language.Tag
	TargetLanguage language.Tag
	MaxSentences   int
	MaxLength      int
}

// Single runs a batch-of-one prediction and unwraps the result.
func Single[In, Out any](ctx context.Context, in In, predict func(context.Context, []In) ([]Out, error)) (Out, error) {
	var zero Out
	out, err := predict(ctx, []In{in})
	if err != nil {
		return zero, err
	}
	if len(out) != 1 {
		return zero, ErrBatchMismatch
	}
	return out[0], nil
}
