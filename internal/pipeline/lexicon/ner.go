package lexicon

import (
	"context"

	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/pipeline"
)

const (
	scoreGazetteer = 0.99
	scoreContext   = 0.85
	scoreFallback  = 0.6
)

type nerModel struct {
	res *Resources
}

func (m *nerModel) PredictNER(ctx context.Context, texts []string) ([][]pipeline.Entity, error) {
	out := make([][]pipeline.Entity, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = m.entities(m.res.tokens(text))
	}
	return out, nil
}

func (m *nerModel) entities(tokens []token) []pipeline.Entity {
	entities := []pipeline.Entity{}
	for i, t := range tokens {
		if !t.isWord() || !t.capitalized() {
			continue
		}
		label, score, ok := m.classify(tokens, i)
		if !ok {
			continue
		}
		entities = append(entities, pipeline.Entity{
			Word:  t.Text,
			Score: score,
			Label: "I-" + label,
			Begin: t.Begin,
			End:   t.End,
		})
	}
	return entities
}

// classify labels the capitalized word at i. Sentence-initial words and
// closed-class words only count when they are in the gazetteer.
func (m *nerModel) classify(tokens []token, i int) (string, float64, bool) {
	t := tokens[i]
	if label, ok := m.res.gazetteer[t.Key]; ok {
		return label, scoreGazetteer, true
	}
	if t.SentStart {
		return "", 0, false
	}
	if _, closed := m.res.posWords[t.Key]; closed || m.res.isStopword(t.Key) {
		return "", 0, false
	}

	if i+1 < len(tokens) && m.res.orgSuffixes[tokens[i+1].Key] {
		return "ORG", scoreContext, true
	}
	if m.res.orgSuffixes[t.Key] && i > 0 && tokens[i-1].capitalized() {
		return "ORG", scoreContext, true
	}
	if i > 0 {
		prev := tokens[i-1]
		if m.res.titles[prev.Key] {
			return "PER", scoreContext, true
		}
		if label, ok := m.res.nerContext[prev.Key]; ok {
			return label, scoreContext, true
		}
	}
	return "MISC", scoreFallback, true
}
