package lexicon

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/pipeline"
)

type translationModel struct {
	res    *Resources
	source language.Tag
	target language.Tag
}

// Translate translates each text word by word. Und hints select the
// languages the model was built with.
func (m *translationModel) Translate(ctx context.Context, texts []string, source, target language.Tag) ([]string, error) {
	if source == language.Und {
		source = m.source
	}
	if target == language.Und {
		target = m.target
	}

	src, tgt := baseOf(source), baseOf(target)
	var dict map[string]string
	if src != tgt {
		var err error
		if dict, err = m.res.dictionary(src, tgt); err != nil {
			return nil, err
		}
	}

	upper := cases.Upper(target)
	out := make([]string, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if dict == nil {
			out[i] = text
			continue
		}
		out[i] = m.translate(text, dict, upper)
	}
	return out, nil
}

func (m *translationModel) translate(text string, dict map[string]string, upper cases.Caser) string {
	runes := []rune(text)
	var b strings.Builder
	last := 0
	for _, t := range m.res.translationPhrases.tokenize(text) {
		if !t.isWord() {
			continue
		}
		to, ok := dict[t.Key]
		if !ok {
			continue
		}
		b.WriteString(substring(runes, last, t.Begin))
		b.WriteString(matchCase(t.Text, to, upper))
		last = t.End
	}
	b.WriteString(substring(runes, last, len(runes)))
	return b.String()
}

// matchCase carries the capitalization of from over to.
func matchCase(from, to string, upper cases.Caser) string {
	letters, caps := 0, 0
	for _, r := range from {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				caps++
			}
		}
	}
	switch {
	case letters > 1 && caps == letters:
		return upper.String(to)
	case caps > 0 && to != "":
		first, size := utf8.DecodeRuneInString(to)
		return string(unicode.ToUpper(first)) + to[size:]
	default:
		return to
	}
}

func (r *Resources) dictionary(src, tgt string) (map[string]string, error) {
	dict, ok := r.translation[src+"-"+tgt]
	if !ok {
		return nil, fmt.Errorf("%w: %s to %s", pipeline.ErrUnsupportedLanguage, src, tgt)
	}
	return dict, nil
}
