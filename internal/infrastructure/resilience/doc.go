/*
Package resilience provides circuit breaker implementation for graceful degradation.

# Overview

This package implements the circuit breaker pattern. The boundary gives every
pipeline handle its own breaker so a model that keeps failing is refused fast
instead of being run again on every call.

# Features

- Three-state circuit breaker (Closed, Open, Half-Open)
- Configurable failure thresholds and timeouts
- Automatic state transitions
- Concurrent request handling
- State change callbacks for monitoring
- Injectable clockz.Clock for deterministic tests
- Thread-safe operations

# Usage

	// Create a circuit breaker
	breaker := resilience.New("sent_01J...", resilience.Settings{
		Timeout:     30 * time.Second,
		ReadyToTrip: resilience.ConsecutiveFailures(5),
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("breaker state changed", zap.String("handle", name),
				zap.Stringer("from", from), zap.Stringer("to", to))
		},
	})

	// Run a prediction through the breaker
	out, err := resilience.Run(breaker, func() ([]pipeline.Sentiment, error) {
		return model.PredictSentiment(ctx, texts)
	})

# States

- Closed: Normal operation, requests pass through
- Open: Service unavailable, requests fail immediately
- Half-Open: Testing if service recovered, limited requests allowed

# Pattern

The circuit breaker transitions between states based on success/failure rates:

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           |
	                                           v
	                                         Open
*/
package resilience
