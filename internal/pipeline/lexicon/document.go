package lexicon

// Document is the on-disk form of a lexicon model. A custom document only
// needs the sections it changes; missing sections keep the built-in data.
type Document struct {
	Sentiment   SentimentSection             `yaml:"sentiment" toml:"sentiment" json:"sentiment"`
	POS         POSSection                   `yaml:"pos" toml:"pos" json:"pos"`
	NER         NERSection                   `yaml:"ner" toml:"ner" json:"ner"`
	Phrases     []string                     `yaml:"phrases" toml:"phrases" json:"phrases"`
	Stopwords   []string                     `yaml:"stopwords" toml:"stopwords" json:"stopwords"`
	ZeroShot    map[string][]string          `yaml:"zero_shot" toml:"zero_shot" json:"zero_shot"`
	Translation map[string]map[string]string `yaml:"translation" toml:"translation" json:"translation"`
	Generation  GenerationSection            `yaml:"generation" toml:"generation" json:"generation"`
}

type SentimentSection struct {
	Polarity     map[string]float64 `yaml:"polarity" toml:"polarity" json:"polarity"`
	Negators     []string           `yaml:"negators" toml:"negators" json:"negators"`
	Intensifiers map[string]float64 `yaml:"intensifiers" toml:"intensifiers" json:"intensifiers"`
}

type POSSection struct {
	Words    map[string]string `yaml:"words" toml:"words" json:"words"`
	Suffixes map[string]string `yaml:"suffixes" toml:"suffixes" json:"suffixes"`
}

type NERSection struct {
	Gazetteer   map[string]string `yaml:"gazetteer" toml:"gazetteer" json:"gazetteer"`
	Titles      []string          `yaml:"titles" toml:"titles" json:"titles"`
	Context     map[string]string `yaml:"context" toml:"context" json:"context"`
	OrgSuffixes []string          `yaml:"org_suffixes" toml:"org_suffixes" json:"org_suffixes"`
}

type GenerationSection struct {
	Corpus string `yaml:"corpus" toml:"corpus" json:"corpus"`
}

// Params tunes scoring. It is read from the optional config file.
type Params struct {
	NegationWindow      int     `yaml:"negation_window" toml:"negation_window" json:"negation_window"`
	SentimentSteepness  float64 `yaml:"sentiment_steepness" toml:"sentiment_steepness" json:"sentiment_steepness"`
	ZeroShotSteepness   float64 `yaml:"zero_shot_steepness" toml:"zero_shot_steepness" json:"zero_shot_steepness"`
	ZeroShotBias        float64 `yaml:"zero_shot_bias" toml:"zero_shot_bias" json:"zero_shot_bias"`
	QATemperature       float64 `yaml:"qa_temperature" toml:"qa_temperature" json:"qa_temperature"`
	OutOfVocabularyRate float64 `yaml:"oov_rate" toml:"oov_rate" json:"oov_rate"`
}

// DefaultParams returns the built-in scoring parameters.
func DefaultParams() Params {
	return Params{
		NegationWindow:      3,
		SentimentSteepness:  1.2,
		ZeroShotSteepness:   3.0,
		ZeroShotBias:        0.5,
		QATemperature:       1.0,
		OutOfVocabularyRate: 0.5,
	}
}

// overlay replaces every section of d that over defines.
func (d Document) overlay(over Document) Document {
	if len(over.Sentiment.Polarity) > 0 {
		d.Sentiment.Polarity = over.Sentiment.Polarity
	}
	if len(over.Sentiment.Negators) > 0 {
		d.Sentiment.Negators = over.Sentiment.Negators
	}
	if len(over.Sentiment.Intensifiers) > 0 {
		d.Sentiment.Intensifiers = over.Sentiment.Intensifiers
	}
	if len(over.POS.Words) > 0 {
		d.POS.Words = over.POS.Words
	}
	if len(over.POS.Suffixes) > 0 {
		d.POS.Suffixes = over.POS.Suffixes
	}
	if len(over.NER.Gazetteer) > 0 {
		d.NER.Gazetteer = over.NER.Gazetteer
	}
	if len(over.NER.Titles) > 0 {
		d.NER.Titles = over.NER.Titles
	}
	if len(over.NER.Context) > 0 {
		d.NER.Context = over.NER.Context
	}
	if len(over.NER.OrgSuffixes) > 0 {
		d.NER.OrgSuffixes = over.NER.OrgSuffixes
	}
	if len(over.Phrases) > 0 {
		d.Phrases = over.Phrases
	}
	if len(over.Stopwords) > 0 {
		d.Stopwords = over.Stopwords
	}
	if len(over.ZeroShot) > 0 {
		d.ZeroShot = over.ZeroShot
	}
	if len(over.Translation) > 0 {
		d.Translation = over.Translation
	}
	if over.Generation.Corpus != "" {
		d.Generation = over.Generation
	}
	return d
}

// overlay replaces every parameter p sets to a positive value.
func (p Params) overlay(over Params) Params {
	if over.NegationWindow > 0 {
		p.NegationWindow = over.NegationWindow
	}
	if over.SentimentSteepness > 0 {
		p.SentimentSteepness = over.SentimentSteepness
	}
	if over.ZeroShotSteepness > 0 {
		p.ZeroShotSteepness = over.ZeroShotSteepness
	}
	if over.ZeroShotBias > 0 {
		p.ZeroShotBias = over.ZeroShotBias
	}
	if over.QATemperature > 0 {
		p.QATemperature = over.QATemperature
	}
	if over.OutOfVocabularyRate > 0 {
		p.OutOfVocabularyRate = over.OutOfVocabularyRate
	}
	return p
}
