/*
Package monitoring provides metrics collection for the NLP bridge.

# Overview

This package keeps Prometheus metrics on a private registry. The library is
loaded into someone else's process, so nothing is registered with the
default registry and nothing is served over HTTP. The host pulls metrics
through nlp_metrics (text exposition) or nlp_stats (JSON snapshot).

# Features

- Handle lifecycle metrics per task (live, created, destroyed)
- Call metrics per task, operation and status (count, duration)
- Breaker rejections per task
- Boundary memory metrics (live allocations, live bytes, rejected frees)

# Usage

	metrics := monitoring.NewMetrics(nil)

	// Feed allocation events from the tracker
	tracker.Observe(metrics.ObserveAllocation)

	// Record calls
	metrics.RecordCall("sentiment", "predict", "ok", elapsed)

	// Export
	var buf bytes.Buffer
	_ = metrics.WriteText(&buf)
	stats, _ := metrics.SnapshotJSON()
*/
package monitoring
