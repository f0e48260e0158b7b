package lexicon

import (
	"context"
	"strings"
	"unicode"

	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/pipeline"
)

const (
	scoreLexicon = 0.95
	scoreShape   = 0.9
	scoreSuffix  = 0.7
	scoreGuess   = 0.5
)

type posModel struct {
	res *Resources
}

func (m *posModel) PredictPOS(ctx context.Context, texts []string) ([][]pipeline.Tag, error) {
	out := make([][]pipeline.Tag, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tokens := m.res.tokens(text)
		tags := make([]pipeline.Tag, 0, len(tokens))
		for _, t := range tokens {
			label, score := m.tag(t)
			tags = append(tags, pipeline.Tag{Word: t.Text, Score: score, Label: label})
		}
		out[i] = tags
	}
	return out, nil
}

func (m *posModel) tag(t token) (string, float64) {
	switch t.Class {
	case classNumber:
		return "CD", scoreShape
	case classPunct:
		return punctTag(t.Text), scoreShape
	}

	score := 1.0
	if !m.res.known(t.Key) {
		score = m.res.Params.OutOfVocabularyRate
	}

	if label, ok := m.res.posWords[t.Key]; ok {
		return label, scoreLexicon * score
	}
	if strings.Contains(t.Key, " ") || (t.capitalized() && !t.SentStart) {
		return "NNP", scoreShape * score
	}
	if _, ok := m.res.gazetteer[t.Key]; ok && t.capitalized() {
		return "NNP", scoreShape * score
	}
	for _, rule := range m.res.suffixes {
		if len(t.Key) > len(rule.suffix)+1 && strings.HasSuffix(t.Key, rule.suffix) {
			return rule.tag, scoreSuffix * score
		}
	}
	return "NN", scoreGuess * score
}

func punctTag(p string) string {
	r := []rune(p)[0]
	switch {
	case strings.ContainsRune(".!?", r):
		return "."
	case r == ',':
		return ","
	case r == '(' || r == '[' || r == '{':
		return "-LRB-"
	case r == ')' || r == ']' || r == '}':
		return "-RRB-"
	case r == '$' || unicode.Is(unicode.Sc, r):
		return "$"
	case r == '"' || r == '\'' || r == '“' || r == '”':
		return "''"
	default:
		return ":"
	}
}
