// Package config provides environment-driven configuration for the NLP bridge.
//
// The library is loaded into a host process that has no flags to give it,
// so all settings come from environment variables with defaults that need
// no environment at all.
//
// Configuration Sections:
//   - Logging: Log level, development mode and output path
//   - Memory: Allocation tracking, the free quarantine and the borrowed text limit
//   - Backend: Inference backend and default resource directory
//   - QA, ZeroShot, Summarization, Translation, Generation: Task parameters
//   - Breaker: Per-handle circuit breaker
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	logger, err := logging.New(logging.Config{
//		Level:       cfg.Logging.Level,
//		Development: cfg.Logging.Development,
//		OutputPaths: []string{cfg.Logging.Output},
//	})
//
// Environment Variables:
//   - NLP_LOG_LEVEL, NLP_LOG_DEV, NLP_LOG_OUTPUT
//   - NLP_TRACK_ALLOCATIONS, NLP_FREE_QUARANTINE, NLP_MAX_TEXT_BYTES
//   - NLP_BACKEND, NLP_RESOURCE_DIR
//   - NLP_QA_TOP_K, NLP_QA_MAX_ANSWER_LEN, NLP_ZERO_SHOT_MAX_LEN
//   - NLP_SUMMARY_MAX_SENTENCES, NLP_GENERATION_MAX_LENGTH
//   - NLP_TRANSLATION_SOURCE, NLP_TRANSLATION_TARGET
//   - NLP_BREAKER_ENABLED, NLP_BREAKER_MAX_FAILURES, NLP_BREAKER_TIMEOUT
package config
