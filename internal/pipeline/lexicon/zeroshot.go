package lexicon

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/pipeline"
)

type zeroShotModel struct {
	res *Resources
}

func (m *zeroShotModel) PredictZeroShot(ctx context.Context, texts, labels []string, maxLen int) ([][]pipeline.Label, error) {
	out := make([][]pipeline.Label, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = m.rank(text, labels, maxLen)
	}
	return out, nil
}

// rank scores every label independently against text, so scores do not
// sum to one. Ties keep the caller's label order.
func (m *zeroShotModel) rank(text string, labels []string, maxLen int) []pipeline.Label {
	words := make(map[string]bool)
	n := 0
	for _, t := range m.res.tokens(text) {
		if !t.isWord() {
			continue
		}
		if maxLen > 0 && n >= maxLen {
			break
		}
		n++
		words[t.Key] = true
		words[stem(t.Key)] = true
		for _, part := range strings.Fields(t.Key) {
			words[stem(part)] = true
		}
	}

	out := make([]pipeline.Label, len(labels))
	for i, label := range labels {
		out[i] = pipeline.Label{Text: label, Score: m.score(words, label)}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Score > out[b].Score
	})
	return out
}

func (m *zeroShotModel) score(words map[string]bool, label string) float64 {
	key := fold(label)
	expansion := make(map[string]bool)
	direct := false
	for _, part := range strings.Fields(key) {
		s := stem(part)
		expansion[s] = true
		if words[s] || words[part] {
			direct = true
		}
	}
	for k := range m.res.labelKeywords[key] {
		expansion[k] = true
	}

	var raw float64
	if len(expansion) > 0 {
		overlap := 0
		for k := range expansion {
			if words[k] {
				overlap++
			}
		}
		raw = float64(overlap) / math.Sqrt(float64(len(expansion)))
	}
	if direct {
		raw += 0.5
	}

	steep := m.res.Params.ZeroShotSteepness
	return logistic(steep*raw - m.res.Params.ZeroShotBias*steep)
}
