package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

var allVars = []string{
	"NLP_LOG_LEVEL", "NLP_LOG_DEV", "NLP_LOG_OUTPUT",
	"NLP_TRACK_ALLOCATIONS", "NLP_MAX_TEXT_BYTES",
	"NLP_BACKEND", "NLP_RESOURCE_DIR",
	"NLP_QA_TOP_K", "NLP_QA_MAX_ANSWER_LEN",
	"NLP_ZERO_SHOT_MAX_LEN", "NLP_SUMMARY_MAX_SENTENCES",
	"NLP_TRANSLATION_SOURCE", "NLP_TRANSLATION_TARGET",
	"NLP_GENERATION_MAX_LENGTH",
	"NLP_BREAKER_ENABLED", "NLP_BREAKER_MAX_FAILURES", "NLP_BREAKER_TIMEOUT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allVars {
		if value, ok := os.LookupEnv(key); ok {
			os.Unsetenv(key)
			t.Cleanup(func() { os.Setenv(key, value) })
		}
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)
	assert.Equal(t, "stderr", cfg.Logging.Output)

	// Memory config
	assert.True(t, cfg.Memory.TrackAllocations)
	assert.Equal(t, 1048576, cfg.Memory.MaxTextBytes)
	assert.Equal(t, 4096, cfg.Memory.Quarantine)

	// Backend config
	assert.Equal(t, "lexicon", cfg.Backend.Name)
	assert.Empty(t, cfg.Backend.ResourceDir)

	// Task config
	assert.Equal(t, 1, cfg.QA.TopK)
	assert.Equal(t, 32, cfg.QA.MaxAnswerLength)
	assert.Equal(t, 128, cfg.ZeroShot.MaxLength)
	assert.Equal(t, 3, cfg.Summarization.MaxSentences)
	assert.Equal(t, "en", cfg.Translation.Source)
	assert.Equal(t, "fr", cfg.Translation.Target)
	assert.Equal(t, 32, cfg.Generation.MaxLength)

	// Breaker config
	assert.True(t, cfg.Breaker.Enabled)
	assert.Equal(t, uint32(5), cfg.Breaker.MaxFailures)
	assert.Equal(t, 30*time.Second, cfg.Breaker.Timeout)

	assert.NoError(t, cfg.Validate())
}

func TestLoadMatchesDefault(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	clearEnv(t)

	envVars := map[string]string{
		"NLP_LOG_LEVEL":             "debug",
		"NLP_LOG_DEV":               "true",
		"NLP_LOG_OUTPUT":            "/tmp/nlp.log",
		"NLP_TRACK_ALLOCATIONS":     "false",
		"NLP_MAX_TEXT_BYTES":        "4096",
		"NLP_BACKEND":               "custom",
		"NLP_RESOURCE_DIR":          "/opt/models",
		"NLP_QA_TOP_K":              "3",
		"NLP_QA_MAX_ANSWER_LEN":     "10",
		"NLP_ZERO_SHOT_MAX_LEN":     "64",
		"NLP_SUMMARY_MAX_SENTENCES": "2",
		"NLP_TRANSLATION_SOURCE":    "de",
		"NLP_TRANSLATION_TARGET":    "en",
		"NLP_GENERATION_MAX_LENGTH": "16",
		"NLP_BREAKER_ENABLED":       "false",
		"NLP_BREAKER_MAX_FAILURES":  "2",
		"NLP_BREAKER_TIMEOUT":       "1m",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, "/tmp/nlp.log", cfg.Logging.Output)
	assert.False(t, cfg.Memory.TrackAllocations)
	assert.Equal(t, 4096, cfg.Memory.MaxTextBytes)
	assert.Equal(t, "custom", cfg.Backend.Name)
	assert.Equal(t, "/opt/models", cfg.Backend.ResourceDir)
	assert.Equal(t, 3, cfg.QA.TopK)
	assert.Equal(t, 10, cfg.QA.MaxAnswerLength)
	assert.Equal(t, 64, cfg.ZeroShot.MaxLength)
	assert.Equal(t, 2, cfg.Summarization.MaxSentences)
	assert.Equal(t, 16, cfg.Generation.MaxLength)
	assert.False(t, cfg.Breaker.Enabled)
	assert.Equal(t, uint32(2), cfg.Breaker.MaxFailures)
	assert.Equal(t, time.Minute, cfg.Breaker.Timeout)

	src, err := cfg.Translation.SourceLanguage()
	require.NoError(t, err)
	assert.Equal(t, language.German, src)
	tgt, err := cfg.Translation.TargetLanguage()
	require.NoError(t, err)
	assert.Equal(t, language.English, tgt)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unparsable integer", "NLP_QA_TOP_K", "many"},
		{"zero top k", "NLP_QA_TOP_K", "0"},
		{"negative text limit", "NLP_MAX_TEXT_BYTES", "-1"},
		{"bad language", "NLP_TRANSLATION_TARGET", "!!"},
		{"bad duration", "NLP_BREAKER_TIMEOUT", "soon"},
		{"empty backend", "NLP_BACKEND", " "},
		{"negative quarantine", "NLP_FREE_QUARANTINE", "-5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)

			cfg := LoadOrDefault()
			assert.Equal(t, Default(), cfg)
		})
	}
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.QA.TopK = 0
	cfg.Generation.MaxLength = -4
	cfg.Breaker.Timeout = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NLP_QA_TOP_K")
	assert.Contains(t, err.Error(), "NLP_GENERATION_MAX_LENGTH")
	assert.Contains(t, err.Error(), "NLP_BREAKER_TIMEOUT")

	cfg.Breaker.Enabled = false
	cfg.QA.TopK = 1
	cfg.Generation.MaxLength = 1
	assert.NoError(t, cfg.Validate())
}
