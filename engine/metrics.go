// Copyright (C) 2026 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for the analysis facade.
var (
	tracer = otel.Tracer("tracekit.engine")
	meter  = otel.Meter("tracekit.engine")
)

// Metrics for whole-run analysis.
var (
	analyzeLatency metric.Float64Histogram
	filesAnalyzed  metric.Int64Counter
	filesSkipped   metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		analyzeLatency, err = meter.Float64Histogram(
			"engine_analyze_duration_seconds",
			metric.WithDescription("Duration of whole analysis runs"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		filesAnalyzed, err = meter.Int64Counter(
			"engine_files_analyzed_total",
			metric.WithDescription("Total number of files that contributed facts"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		filesSkipped, err = meter.Int64Counter(
			"engine_files_skipped_total",
			metric.WithDescription("Total number of input files skipped"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordAnalyzeMetrics records metrics for one Analyze run.
func recordAnalyzeMetrics(ctx context.Context, duration time.Duration, analyzed, skipped int, success bool) {
	if err := initMetrics(); err != nil {
		return // Silently skip if metrics init failed
	}

	analyzeLatency.Record(ctx, duration.Seconds(),
		metric.WithAttributes(attribute.Bool("success", success)),
	)
	filesAnalyzed.Add(ctx, int64(analyzed))
	filesSkipped.Add(ctx, int64(skipped))
}

// startAnalyzeSpan creates a span for an analysis run.
func startAnalyzeSpan(ctx context.Context, runID string, pathCount int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Engine.Analyze",
		trace.WithAttributes(
			attribute.String("engine.run_id", runID),
			attribute.Int("engine.path_count", pathCount),
		),
	)
}

// setAnalyzeSpanResult sets the result attributes on an analysis span.
func setAnalyzeSpanResult(span trace.Span, nodes, edges, skipped int) {
	span.SetAttributes(
		attribute.Int("engine.graph_nodes", nodes),
		attribute.Int("engine.graph_edges", edges),
		attribute.Int("engine.files_skipped", skipped),
	)
}
