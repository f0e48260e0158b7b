package lexicon

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"
)

type textGenerationModel struct {
	res       *Resources
	maxLength int
}

func (m *textGenerationModel) Generate(ctx context.Context, prompts []string, prefix string) ([]string, error) {
	out := make([]string, len(prompts))
	for i, prompt := range prompts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = m.continuation(prompt, prefix)
	}
	return out, nil
}

// continuation extends prompt greedily along the most frequent bigram,
// never reusing a transition. The prefix conditions the start state but is
// not echoed.
func (m *textGenerationModel) continuation(prompt, prefix string) string {
	seed := prompt
	if prefix != "" {
		seed = prefix + " " + prompt
	}

	var b strings.Builder
	b.WriteString(prompt)

	current := ""
	sentenceStart := true
	if tokens := tokenize(seed); len(tokens) > 0 {
		last := tokens[len(tokens)-1]
		current = last.Key
		sentenceStart = last.sentenceEnd()
	}

	steps := 0
	if _, ok := m.res.bigrams[current]; !ok {
		if m.res.opener == "" {
			return prompt
		}
		current = m.res.opener
		m.emit(&b, current, sentenceStart)
		sentenceStart = false
		steps++
	}

	used := make(map[[2]string]bool)
	for ; steps < m.maxLength; steps++ {
		next, ok := m.next(current, used)
		if !ok {
			break
		}
		used[[2]string{current, next}] = true
		m.emit(&b, next, sentenceStart)
		sentenceStart = isSentencePunct(next)
		current = next
	}
	return b.String()
}

func (m *textGenerationModel) next(from string, used map[[2]string]bool) (string, bool) {
	for _, s := range m.res.bigrams[from] {
		if !used[[2]string{from, s.key}] {
			return s.key, true
		}
	}
	return "", false
}

func (m *textGenerationModel) emit(b *strings.Builder, key string, capitalize bool) {
	word := m.res.surface[key]
	if word == "" {
		word = key
	}
	first, size := utf8.DecodeRuneInString(word)
	punct := !unicode.IsLetter(first) && !unicode.IsDigit(first)
	if capitalize && !punct {
		word = string(unicode.ToUpper(first)) + word[size:]
	}
	if b.Len() > 0 && !punct {
		b.WriteByte(' ')
	}
	b.WriteString(word)
}

func isSentencePunct(key string) bool {
	return key == "." || key == "!" || key == "?"
}
