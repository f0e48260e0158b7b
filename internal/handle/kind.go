package handle

import "github.com/GriffinCanCode/AgentOS/nlpbridge/internal/shared/id"

// Kind identifies which pipeline a handle wraps.
type Kind uint32

const (
	KindAny Kind = iota
	KindSentiment
	KindPOS
	KindNER
	KindQA
	KindSummarization
	KindZeroShot
	KindTranslation
	KindTextGeneration
)

// Kinds lists every concrete pipeline kind.
var Kinds = []Kind{
	KindSentiment,
	KindPOS,
	KindNER,
	KindQA,
	KindSummarization,
	KindZeroShot,
	KindTranslation,
	KindTextGeneration,
}

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindAny:
		return "any"
	case KindSentiment:
		return "sentiment"
	case KindPOS:
		return "pos"
	case KindNER:
		return "ner"
	case KindQA:
		return "qa"
	case KindSummarization:
		return "summarization"
	case KindZeroShot:
		return "zero_shot"
	case KindTranslation:
		return "translation"
	case KindTextGeneration:
		return "text_generation"
	default:
		return "unknown"
	}
}

// Prefix returns the handle id prefix for the kind.
func (k Kind) Prefix() string {
	switch k {
	case KindSentiment:
		return id.SentimentPrefix
	case KindPOS:
		return id.POSPrefix
	case KindNER:
		return id.NERPrefix
	case KindQA:
		return id.QAPrefix
	case KindSummarization:
		return id.SummarizationPrefix
	case KindZeroShot:
		return id.ZeroShotPrefix
	case KindTranslation:
		return id.TranslationPrefix
	case KindTextGeneration:
		return id.TextGenerationPrefix
	default:
		return "h"
	}
}
