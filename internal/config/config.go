package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
	"golang.org/x/text/language"
)

// Config holds all library configuration.
type Config struct {
	Logging       LogConfig
	Memory        MemoryConfig
	Backend       BackendConfig
	QA            QAConfig
	ZeroShot      ZeroShotConfig
	Summarization SummarizationConfig
	Translation   TranslationConfig
	Generation    GenerationConfig
	Breaker       BreakerConfig
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"NLP_LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"NLP_LOG_DEV" default:"false"`
	Output      string `envconfig:"NLP_LOG_OUTPUT" default:"stderr"`
}

// MemoryConfig holds boundary memory configuration.
type MemoryConfig struct {
	TrackAllocations bool `envconfig:"NLP_TRACK_ALLOCATIONS" default:"true"`
	MaxTextBytes     int  `envconfig:"NLP_MAX_TEXT_BYTES" default:"1048576"`
	Quarantine       int  `envconfig:"NLP_FREE_QUARANTINE" default:"4096"`
}

// BackendConfig selects the inference backend.
type BackendConfig struct {
	Name        string `envconfig:"NLP_BACKEND" default:"lexicon"`
	ResourceDir string `envconfig:"NLP_RESOURCE_DIR"`
}

// QAConfig holds question answering parameters.
type QAConfig struct {
	TopK            int `envconfig:"NLP_QA_TOP_K" default:"1"`
	MaxAnswerLength int `envconfig:"NLP_QA_MAX_ANSWER_LEN" default:"32"`
}

// ZeroShotConfig holds zero-shot classification parameters.
type ZeroShotConfig struct {
	MaxLength int `envconfig:"NLP_ZERO_SHOT_MAX_LEN" default:"128"`
}

// SummarizationConfig holds summarization parameters.
type SummarizationConfig struct {
	MaxSentences int `envconfig:"NLP_SUMMARY_MAX_SENTENCES" default:"3"`
}

// TranslationConfig holds the default translation pair.
type TranslationConfig struct {
	Source string `envconfig:"NLP_TRANSLATION_SOURCE" default:"en"`
	Target string `envconfig:"NLP_TRANSLATION_TARGET" default:"fr"`
}

// GenerationConfig holds text generation parameters.
type GenerationConfig struct {
	MaxLength int `envconfig:"NLP_GENERATION_MAX_LENGTH" default:"32"`
}

// BreakerConfig holds per-handle circuit breaker configuration.
type BreakerConfig struct {
	Enabled     bool          `envconfig:"NLP_BREAKER_ENABLED" default:"true"`
	MaxFailures uint32        `envconfig:"NLP_BREAKER_MAX_FAILURES" default:"5"`
	Timeout     time.Duration `envconfig:"NLP_BREAKER_TIMEOUT" default:"30s"`
}

// SourceLanguage parses the configured translation source.
func (t TranslationConfig) SourceLanguage() (language.Tag, error) {
	return language.Parse(t.Source)
}

// TargetLanguage parses the configured translation target.
func (t TranslationConfig) TargetLanguage() (language.Tag, error) {
	return language.Parse(t.Target)
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Logging: LogConfig{
			Level:       "info",
			Development: false,
			Output:      "stderr",
		},
		Memory: MemoryConfig{
			TrackAllocations: true,
			MaxTextBytes:     1 << 20,
			Quarantine:       4096,
		},
		Backend: BackendConfig{
			Name: "lexicon",
		},
		QA: QAConfig{
			TopK:            1,
			MaxAnswerLength: 32,
		},
		ZeroShot: ZeroShotConfig{
			MaxLength: 128,
		},
		Summarization: SummarizationConfig{
			MaxSentences: 3,
		},
		Translation: TranslationConfig{
			Source: "en",
			Target: "fr",
		},
		Generation: GenerationConfig{
			MaxLength: 32,
		},
		Breaker: BreakerConfig{
			Enabled:     true,
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
	}
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var err error
	positive := func(name string, v int) {
		if v <= 0 {
			err = multierr.Append(err, fmt.Errorf("%s must be positive, got %d", name, v))
		}
	}

	positive("NLP_MAX_TEXT_BYTES", c.Memory.MaxTextBytes)
	positive("NLP_QA_TOP_K", c.QA.TopK)
	positive("NLP_QA_MAX_ANSWER_LEN", c.QA.MaxAnswerLength)
	positive("NLP_ZERO_SHOT_MAX_LEN", c.ZeroShot.MaxLength)
	positive("NLP_SUMMARY_MAX_SENTENCES", c.Summarization.MaxSentences)
	positive("NLP_GENERATION_MAX_LENGTH", c.Generation.MaxLength)
	if c.Memory.Quarantine < 0 {
		err = multierr.Append(err, fmt.Errorf("NLP_FREE_QUARANTINE must not be negative, got %d", c.Memory.Quarantine))
	}

	if strings.TrimSpace(c.Backend.Name) == "" {
		err = multierr.Append(err, errors.New("NLP_BACKEND must not be empty"))
	}
	if _, perr := c.Translation.SourceLanguage(); perr != nil {
		err = multierr.Append(err, fmt.Errorf("NLP_TRANSLATION_SOURCE: %w", perr))
	}
	if _, perr := c.Translation.TargetLanguage(); perr != nil {
		err = multierr.Append(err, fmt.Errorf("NLP_TRANSLATION_TARGET: %w", perr))
	}
	if c.Breaker.Enabled && (c.Breaker.MaxFailures == 0 || c.Breaker.Timeout <= 0) {
		err = multierr.Append(err, errors.New("breaker needs NLP_BREAKER_MAX_FAILURES > 0 and NLP_BREAKER_TIMEOUT > 0"))
	}
	return err
}
