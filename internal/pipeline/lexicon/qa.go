package lexicon

import (
	"context"
	"sort"

	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/pipeline"
)

type answerType int

const (
	answerAny answerType = iota
	answerPerson
	answerPlace
	answerTime
	answerQuantity
)

var months = map[string]bool{
	"january": true, "february": true, "march": true, "april": true, "may": true, "june": true,
	"july": true, "august": true, "september": true, "october": true, "november": true, "december": true,
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true, "friday": true,
	"saturday": true, "sunday": true, "today": true, "yesterday": true, "tomorrow": true,
}

type candidate struct {
	begin, end int
	raw        float64
	order      int
}

type qaModel struct {
	res *Resources
}

func (m *qaModel) PredictQA(ctx context.Context, inputs []pipeline.QAInput, topK, maxAnswerLen int) ([][]pipeline.Answer, error) {
	if topK <= 0 {
		topK = 1
	}
	if maxAnswerLen <= 0 {
		maxAnswerLen = 32
	}

	out := make([][]pipeline.Answer, len(inputs))
	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = m.answer(in, topK, maxAnswerLen)
	}
	return out, nil
}

func (m *qaModel) answer(in pipeline.QAInput, topK, maxAnswerLen int) []pipeline.Answer {
	kind, keywords := m.analyzeQuestion(in.Question)
	runes := []rune(in.Context)

	var cands []candidate
	for _, s := range splitSentences(m.res.tokens(in.Context)) {
		cands = append(cands, m.candidates(s, kind, keywords, maxAnswerLen, len(cands))...)
	}
	if len(cands) == 0 {
		return []pipeline.Answer{}
	}

	raw := make([]float64, len(cands))
	for i, c := range cands {
		raw[i] = c.raw
	}
	probs := softmax(raw, m.res.Params.QATemperature)

	order := make([]int, len(cands))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return probs[order[a]] > probs[order[b]]
	})

	if topK > len(order) {
		topK = len(order)
	}
	answers := make([]pipeline.Answer, 0, topK)
	for _, idx := range order[:topK] {
		c := cands[idx]
		answers = append(answers, pipeline.Answer{
			Score: probs[idx],
			Start: c.begin,
			End:   c.end,
			Text:  substring(runes, c.begin, c.end),
		})
	}
	return answers
}

func (m *qaModel) analyzeQuestion(question string) (answerType, map[string]bool) {
	kind := answerAny
	keywords := make(map[string]bool)
	tokens := m.res.tokens(question)

	for i, t := range tokens {
		if !t.isWord() && t.Class != classNumber {
			continue
		}
		switch t.Key {
		case "who", "whom", "whose":
			kind = answerPerson
			continue
		case "where":
			kind = answerPlace
			continue
		case "when":
			kind = answerTime
			continue
		case "how":
			if i+1 < len(tokens) && (tokens[i+1].Key == "many" || tokens[i+1].Key == "much") {
				kind = answerQuantity
			}
			continue
		}
		if m.res.isStopword(t.Key) || t.Key == "many" || t.Key == "much" {
			continue
		}
		keywords[stem(t.Key)] = true
	}
	return kind, keywords
}

// candidates returns every run of content tokens in s that does not repeat
// the question, scored by how well s matches the question.
func (m *qaModel) candidates(s sentence, kind answerType, keywords map[string]bool, maxLen, offset int) []candidate {
	overlap := 0
	var anchors []int
	seen := make(map[string]bool)
	for i, t := range s.Tokens {
		k := stem(t.Key)
		if keywords[k] {
			anchors = append(anchors, i)
			if !seen[k] {
				seen[k] = true
				overlap++
			}
		}
	}

	var out []candidate
	for i := 0; i < len(s.Tokens); {
		if !m.answerable(s.Tokens[i], keywords) {
			i++
			continue
		}
		j := i
		for j < len(s.Tokens) && j-i < maxLen && m.answerable(s.Tokens[j], keywords) {
			j++
		}
		first, last := s.Tokens[i], s.Tokens[j-1]
		score := 2*float64(overlap) + m.typeBonus(s.Tokens, i, j, kind) + proximity(anchors, i, j)
		out = append(out, candidate{begin: first.Begin, end: last.End, raw: score, order: offset + len(out)})
		i = j
	}
	return out
}

func (m *qaModel) answerable(t token, keywords map[string]bool) bool {
	if t.Class == classPunct {
		return false
	}
	return !keywords[stem(t.Key)] && !m.res.isStopword(t.Key)
}

func (m *qaModel) typeBonus(tokens []token, i, j int, kind answerType) float64 {
	span := tokens[i:j]
	switch kind {
	case answerPerson:
		if m.res.gazetteer[span[0].Key] == "PER" {
			return 2
		}
		if span[0].capitalized() {
			return 1.5
		}
	case answerPlace:
		if m.res.gazetteer[span[0].Key] == "LOC" {
			return 2
		}
		if i > 0 && m.res.nerContext[tokens[i-1].Key] == "LOC" {
			return 1.5
		}
	case answerTime:
		for _, t := range span {
			if t.Class == classNumber || months[t.Key] {
				return 1.5
			}
		}
	case answerQuantity:
		for _, t := range span {
			if t.Class == classNumber {
				return 1.5
			}
		}
	}
	return 0
}

func proximity(anchors []int, i, j int) float64 {
	if len(anchors) == 0 {
		return 0
	}
	best := -1
	for _, a := range anchors {
		d := i - a
		if a >= j {
			d = a - j + 1
		}
		if d < 0 {
			d = -d
		}
		if best < 0 || d < best {
			best = d
		}
	}
	return 1 / float64(1+best)
}
