package lexicon

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"

	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/pipeline"
)

type suffixRule struct {
	suffix string
	tag    string
}

type successor struct {
	key   string
	count int
	order int
}

// Resources is a compiled, read-only lexicon shared by every model built
// from the same files.
type Resources struct {
	Source    string
	ModelType pipeline.ModelType
	Params    Params

	polarity     map[string]float64
	negators     map[string]bool
	intensifiers map[string]float64

	posWords map[string]string
	suffixes []suffixRule

	gazetteer   map[string]string
	titles      map[string]bool
	nerContext  map[string]string
	orgSuffixes map[string]bool

	phrases   phraseSet
	stopwords map[string]bool

	labelKeywords      map[string]map[string]bool
	translation        map[string]map[string]string
	translationPhrases phraseSet

	bigrams map[string][]successor
	surface map[string]string
	opener  string

	// vocab restricts scoring to known words. Nil means open vocabulary.
	vocab map[string]bool
}

func compile(doc Document, params Params) (*Resources, error) {
	r := &Resources{
		Params:             params,
		polarity:           foldFloatMap(doc.Sentiment.Polarity),
		negators:           foldSet(doc.Sentiment.Negators),
		intensifiers:       foldFloatMap(doc.Sentiment.Intensifiers),
		posWords:           foldStringMap(doc.POS.Words),
		gazetteer:          foldStringMap(doc.NER.Gazetteer),
		titles:             foldSet(doc.NER.Titles),
		nerContext:         foldStringMap(doc.NER.Context),
		orgSuffixes:        foldSet(doc.NER.OrgSuffixes),
		phrases:            newPhraseSet(),
		stopwords:          foldSet(doc.Stopwords),
		labelKeywords:      make(map[string]map[string]bool),
		translation:        make(map[string]map[string]string),
		translationPhrases: newPhraseSet(),
	}

	for suffix, tag := range doc.POS.Suffixes {
		r.suffixes = append(r.suffixes, suffixRule{suffix: fold(suffix), tag: tag})
	}
	sort.Slice(r.suffixes, func(i, j int) bool {
		if len(r.suffixes[i].suffix) != len(r.suffixes[j].suffix) {
			return len(r.suffixes[i].suffix) > len(r.suffixes[j].suffix)
		}
		return r.suffixes[i].suffix < r.suffixes[j].suffix
	})

	for _, phrase := range doc.Phrases {
		r.phrases.add(phrase)
	}
	for key := range r.gazetteer {
		r.phrases.add(key)
	}

	for label, keywords := range doc.ZeroShot {
		set := make(map[string]bool, len(keywords))
		for _, k := range keywords {
			set[stem(fold(k))] = true
		}
		r.labelKeywords[fold(label)] = set
	}

	if err := r.compileTranslation(doc.Translation); err != nil {
		return nil, err
	}
	r.compileCorpus(doc.Generation.Corpus)
	return r, nil
}

// phraseSet holds multi-word expressions that tokenize as one token.
type phraseSet struct {
	keys     map[string]bool
	maxWords int
}

func newPhraseSet() phraseSet {
	return phraseSet{keys: make(map[string]bool)}
}

func (p *phraseSet) add(phrase string) {
	words := strings.Fields(fold(phrase))
	if len(words) < 2 {
		return
	}
	p.keys[strings.Join(words, " ")] = true
	if len(words) > p.maxWords {
		p.maxWords = len(words)
	}
}

// tokenize splits text and merges the known phrases in it.
func (p phraseSet) tokenize(text string) []token {
	return mergePhrases(text, tokenize(text), p.keys, p.maxWords)
}

func (r *Resources) compileTranslation(pairs map[string]map[string]string) error {
	for pair, dict := range pairs {
		src, tgt, err := parsePair(pair)
		if err != nil {
			return err
		}
		forward := make(map[string]string, len(dict))
		for from, to := range dict {
			key := strings.Join(strings.Fields(fold(from)), " ")
			forward[key] = to
			r.translationPhrases.add(key)
		}
		r.translation[src+"-"+tgt] = forward
	}

	// Reverse directions are derived when not given explicitly.
	given := make([]string, 0, len(r.translation))
	for pair := range r.translation {
		given = append(given, pair)
	}
	sort.Strings(given)
	for _, pair := range given {
		forward := r.translation[pair]
		src, tgt, _ := strings.Cut(pair, "-")
		reverseKey := tgt + "-" + src
		if _, ok := r.translation[reverseKey]; ok {
			continue
		}
		keys := make([]string, 0, len(forward))
		for k := range forward {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		reverse := make(map[string]string, len(forward))
		for _, from := range keys {
			to := strings.Join(strings.Fields(fold(forward[from])), " ")
			if _, taken := reverse[to]; !taken {
				reverse[to] = from
				r.translationPhrases.add(to)
			}
		}
		r.translation[reverseKey] = reverse
	}
	return nil
}

func parsePair(pair string) (string, string, error) {
	a, b, ok := strings.Cut(pair, "-")
	if !ok {
		return "", "", fmt.Errorf("translation pair %q: want <source>-<target>", pair)
	}
	src, err := language.Parse(a)
	if err != nil {
		return "", "", fmt.Errorf("translation pair %q: %w", pair, err)
	}
	tgt, err := language.Parse(b)
	if err != nil {
		return "", "", fmt.Errorf("translation pair %q: %w", pair, err)
	}
	return baseOf(src), baseOf(tgt), nil
}

func baseOf(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}

func (r *Resources) compileCorpus(corpus string) {
	r.bigrams = make(map[string][]successor)
	r.surface = make(map[string]string)

	tokens := tokenize(corpus)

	// Prefer the mid-sentence spelling so generated text is not
	// capitalized at random.
	for _, t := range tokens {
		if _, ok := r.surface[t.Key]; !ok && !t.SentStart {
			r.surface[t.Key] = t.Text
		}
	}
	openers := make(map[string]int)
	for _, t := range tokens {
		if _, ok := r.surface[t.Key]; !ok {
			r.surface[t.Key] = t.Text
		}
		if t.SentStart && t.isWord() {
			openers[t.Key]++
		}
	}

	counts := make(map[string]map[string]int)
	firstSeen := make(map[string]map[string]int)
	for i := 0; i+1 < len(tokens); i++ {
		from, to := tokens[i].Key, tokens[i+1].Key
		if counts[from] == nil {
			counts[from] = make(map[string]int)
			firstSeen[from] = make(map[string]int)
		}
		if _, ok := counts[from][to]; !ok {
			firstSeen[from][to] = i
		}
		counts[from][to]++
	}

	for from, next := range counts {
		succ := make([]successor, 0, len(next))
		for to, n := range next {
			succ = append(succ, successor{key: to, count: n, order: firstSeen[from][to]})
		}
		sort.Slice(succ, func(i, j int) bool {
			if succ[i].count != succ[j].count {
				return succ[i].count > succ[j].count
			}
			return succ[i].order < succ[j].order
		})
		r.bigrams[from] = succ
	}

	best := 0
	for key, n := range openers {
		if n > best || (n == best && key < r.opener) {
			best = n
			r.opener = key
		}
	}
}

// withVocab restricts the resources to words in vocab.
func (r *Resources) withVocab(words []string) {
	if len(words) == 0 {
		return
	}
	r.vocab = make(map[string]bool, len(words))
	for _, w := range words {
		r.vocab[fold(w)] = true
	}
}

// withMerges adds multi-word expressions from a merges file.
func (r *Resources) withMerges(phrases []string) {
	for _, p := range phrases {
		r.phrases.add(p)
	}
}

func (r *Resources) known(key string) bool {
	return r.vocab == nil || r.vocab[key] || r.vocab[stem(key)]
}

func (r *Resources) tokens(text string) []token {
	return r.phrases.tokenize(text)
}

func (r *Resources) isStopword(key string) bool {
	return r.stopwords[key]
}

func foldSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[fold(item)] = true
	}
	return set
}

func foldStringMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.Join(strings.Fields(fold(k)), " ")] = v
	}
	return out
}

func foldFloatMap(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[fold(k)] = v
	}
	return out
}
