package lexicon

import (
	"context"

	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/pipeline"
)

type sentimentModel struct {
	res *Resources
}

func (m *sentimentModel) PredictSentiment(ctx context.Context, texts []string) ([]pipeline.Sentiment, error) {
	out := make([]pipeline.Sentiment, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = m.classify(text)
	}
	return out, nil
}

func (m *sentimentModel) classify(text string) pipeline.Sentiment {
	total := m.polarity(m.res.tokens(text))
	p := logistic(m.res.Params.SentimentSteepness * total)
	if total >= 0 {
		return pipeline.Sentiment{Polarity: pipeline.Positive, Score: p}
	}
	return pipeline.Sentiment{Polarity: pipeline.Negative, Score: 1 - p}
}

// polarity sums word polarities. A negator flips the words in the window
// after it; an intensifier scales the next polar word.
func (m *sentimentModel) polarity(tokens []token) float64 {
	var total float64
	negated := 0
	boost := 1.0

	for _, t := range tokens {
		if t.Class == classPunct {
			negated = 0
			boost = 1
			continue
		}
		if !t.isWord() || !m.res.known(t.Key) {
			continue
		}
		if m.res.negators[t.Key] {
			negated = m.res.Params.NegationWindow
			continue
		}
		if factor, ok := m.res.intensifiers[t.Key]; ok {
			boost *= factor
			continue
		}

		value, ok := m.res.polarity[t.Key]
		if !ok {
			value, ok = m.res.polarity[stem(t.Key)]
		}
		if ok {
			value *= boost
			if negated > 0 {
				value = -0.8 * value
			}
			total += value
			boost = 1
		}
		if negated > 0 {
			negated--
		}
	}
	return total
}
