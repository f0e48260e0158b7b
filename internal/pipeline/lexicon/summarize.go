package lexicon

import (
	"context"
	"sort"
	"strings"
)

type summarizationModel struct {
	res          *Resources
	maxSentences int
}

func (m *summarizationModel) Summarize(ctx context.Context, texts []string) ([]string, error) {
	out := make([]string, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = m.summarize(text)
	}
	return out, nil
}

// summarize extracts the highest scoring sentences and keeps them in
// document order.
func (m *summarizationModel) summarize(text string) string {
	runes := []rune(text)
	sentences := splitSentences(m.res.tokens(text))
	if len(sentences) == 0 {
		return strings.TrimSpace(text)
	}

	if len(sentences) <= m.maxSentences {
		return joinSentences(runes, sentences)
	}

	freq := make(map[string]float64)
	var peak float64
	for _, s := range sentences {
		for _, t := range s.Tokens {
			if !m.content(t) {
				continue
			}
			k := stem(t.Key)
			freq[k]++
			if freq[k] > peak {
				peak = freq[k]
			}
		}
	}

	type scored struct {
		index int
		score float64
	}
	ranked := make([]scored, len(sentences))
	for i, s := range sentences {
		var sum float64
		words := 0
		for _, t := range s.Tokens {
			if !m.content(t) {
				continue
			}
			sum += freq[stem(t.Key)] / peak
			words++
		}
		score := sum / float64(words+1)
		if i == 0 {
			score += 0.1
		}
		ranked[i] = scored{index: i, score: score}
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].score > ranked[b].score
	})

	picked := ranked[:m.maxSentences]
	sort.Slice(picked, func(a, b int) bool {
		return picked[a].index < picked[b].index
	})
	selected := make([]sentence, len(picked))
	for i, p := range picked {
		selected[i] = sentences[p.index]
	}
	return joinSentences(runes, selected)
}

func (m *summarizationModel) content(t token) bool {
	return t.isWord() && !m.res.isStopword(t.Key) && m.res.known(t.Key)
}

func joinSentences(runes []rune, sentences []sentence) string {
	parts := make([]string, len(sentences))
	for i, s := range sentences {
		parts[i] = strings.TrimSpace(substring(runes, s.Begin, s.End))
	}
	return strings.Join(parts, " ")
}
