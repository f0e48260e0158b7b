// Package main builds the nlpbridge shared library.
//
// The library exposes eight NLP pipelines to C callers through opaque model
// handles and flat result records declared in nlpbridge_types.h. Every
// pipeline has four entry points:
//
//	new_<task>_model         create a handle (NULL on failure)
//	predict_<task>           run inference (NULL on failure)
//	free_<task>_model        destroy a handle (NULL is a no-op)
//	free_<task>_result       release a result (NULL is a no-op)
//
// translate and generate_text return plain strings released with
// nlp_free_string. After any NULL return, nlp_last_error_code and
// nlp_last_error_message describe the failure.
//
// The bridge is wired on the first call. Configuration is read from NLP_*
// environment variables.
//
// Build:
//
//	go build -buildmode=c-shared -o libnlpbridge.so ./cmd/nlpbridge
//
// Leak checks:
//
//	nlp_live_handles() and nlp_live_allocations() reach 0 in a caller that
//	frees everything it was given.
package main
