package lexicon

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

type tokenClass int

const (
	classWord tokenClass = iota
	classNumber
	classPunct
)

// token is a span of the input. Begin and End are rune offsets.
type token struct {
	Text      string
	Key       string
	Begin     int
	End       int
	Class     tokenClass
	SentStart bool
}

func (t token) isWord() bool { return t.Class == classWord }

func (t token) capitalized() bool {
	for _, r := range t.Text {
		return unicode.IsUpper(r)
	}
	return false
}

func (t token) sentenceEnd() bool {
	return t.Class == classPunct && strings.ContainsAny(t.Text, ".!?")
}

// fold normalizes a surface form into a lookup key.
func fold(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

// tokenize splits text into words, numbers and punctuation. Apostrophes
// and hyphens between letters stay inside a word.
func tokenize(text string) []token {
	runes := []rune(text)
	var tokens []token
	sentStart := true

	emit := func(begin, end int, class tokenClass) {
		surface := string(runes[begin:end])
		tokens = append(tokens, token{
			Text:      surface,
			Key:       fold(surface),
			Begin:     begin,
			End:       end,
			Class:     class,
			SentStart: sentStart,
		})
		sentStart = class == classPunct && strings.ContainsAny(surface, ".!?")
	}

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsDigit(r):
			j := i + 1
			for j < len(runes) {
				if unicode.IsDigit(runes[j]) {
					j++
					continue
				}
				if (runes[j] == '.' || runes[j] == ',') && j+1 < len(runes) && unicode.IsDigit(runes[j+1]) {
					j += 2
					continue
				}
				break
			}
			emit(i, j, classNumber)
			i = j
		case unicode.IsLetter(r) || unicode.IsMark(r):
			j := i + 1
			for j < len(runes) {
				c := runes[j]
				if unicode.IsLetter(c) || unicode.IsMark(c) || unicode.IsDigit(c) {
					j++
					continue
				}
				if isJoiner(c) && j+1 < len(runes) && unicode.IsLetter(runes[j+1]) {
					j += 2
					continue
				}
				break
			}
			emit(i, j, classWord)
			i = j
		default:
			emit(i, i+1, classPunct)
			i++
		}
	}
	return tokens
}

func isJoiner(r rune) bool {
	return r == '\'' || r == '’' || r == '-'
}

// mergePhrases joins runs of adjacent word tokens whose folded text is a
// known phrase into one token. The merged text is the slice of text the
// run covers, separators included.
func mergePhrases(text string, tokens []token, phrases map[string]bool, maxWords int) []token {
	if len(phrases) == 0 || maxWords < 2 {
		return tokens
	}

	var runes []rune
	out := make([]token, 0, len(tokens))
	for i := 0; i < len(tokens); {
		merged := false
		for n := maxWords; n >= 2; n-- {
			if i+n > len(tokens) {
				continue
			}
			span := tokens[i : i+n]
			if !allWords(span) {
				continue
			}
			key := joinKeys(span)
			if !phrases[key] {
				continue
			}
			if runes == nil {
				runes = []rune(text)
			}
			out = append(out, token{
				Text:      substring(runes, span[0].Begin, span[n-1].End),
				Key:       key,
				Begin:     span[0].Begin,
				End:       span[n-1].End,
				Class:     classWord,
				SentStart: span[0].SentStart,
			})
			i += n
			merged = true
			break
		}
		if !merged {
			out = append(out, tokens[i])
			i++
		}
	}
	return out
}

func allWords(tokens []token) bool {
	for _, t := range tokens {
		if !t.isWord() {
			return false
		}
	}
	return true
}

func joinKeys(tokens []token) string {
	keys := make([]string, len(tokens))
	for i, t := range tokens {
		keys[i] = t.Key
	}
	return strings.Join(keys, " ")
}

// sentence is a run of tokens ending at sentence punctuation.
type sentence struct {
	Tokens []token
	Begin  int
	End    int
}

func splitSentences(tokens []token) []sentence {
	var out []sentence
	start := 0
	for i, t := range tokens {
		if t.sentenceEnd() {
			out = append(out, newSentence(tokens[start:i+1]))
			start = i + 1
		}
	}
	if start < len(tokens) {
		out = append(out, newSentence(tokens[start:]))
	}
	return out
}

func newSentence(tokens []token) sentence {
	return sentence{
		Tokens: tokens,
		Begin:  tokens[0].Begin,
		End:    tokens[len(tokens)-1].End,
	}
}

// stem strips common English inflections so that "lives" matches "live".
func stem(key string) string {
	n := len(key)
	switch {
	case strings.HasSuffix(key, "'s") || strings.HasSuffix(key, "’s"):
		return strings.TrimSuffix(strings.TrimSuffix(key, "'s"), "’s")
	case n > 5 && strings.HasSuffix(key, "ing"):
		return key[:n-3]
	case n > 4 && strings.HasSuffix(key, "ies"):
		return key[:n-3] + "y"
	case n > 4 && (strings.HasSuffix(key, "ches") || strings.HasSuffix(key, "shes") || strings.HasSuffix(key, "sses") || strings.HasSuffix(key, "xes")):
		return key[:n-2]
	case n > 4 && strings.HasSuffix(key, "ed"):
		return key[:n-2]
	case n > 3 && strings.HasSuffix(key, "s") && !strings.HasSuffix(key, "ss") && !strings.HasSuffix(key, "us"):
		return key[:n-1]
	}
	return key
}

// substring returns the runes [begin, end) of text.
func substring(runes []rune, begin, end int) string {
	return string(runes[begin:end])
}
