// Copyright (C) 2026 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for fact extraction.
var (
	tracer = otel.Tracer("tracekit.ast")
	meter  = otel.Meter("tracekit.ast")
)

// Metrics for fact extraction operations.
var (
	extractLatency metric.Float64Histogram
	extractTotal   metric.Int64Counter
	factsExtracted metric.Int64Histogram
	extractErrors  metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		extractLatency, err = meter.Float64Histogram(
			"ast_extract_duration_seconds",
			metric.WithDescription("Duration of fact extraction operations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		extractTotal, err = meter.Int64Counter(
			"ast_extract_total",
			metric.WithDescription("Total number of extraction operations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		factsExtracted, err = meter.Int64Histogram(
			"ast_facts_extracted",
			metric.WithDescription("Number of facts extracted per file"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		extractErrors, err = meter.Int64Counter(
			"ast_extract_errors_total",
			metric.WithDescription("Total number of extraction errors"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordExtractMetrics records metrics for one extraction operation.
//
// Parameters:
//   - ctx: Context for metric recording
//   - language: Language being extracted (e.g., "python", "java")
//   - duration: How long the extraction took
//   - factCount: Number of facts extracted
//   - success: Whether the extraction succeeded
func recordExtractMetrics(ctx context.Context, language string, duration time.Duration, factCount int, success bool) {
	if err := initMetrics(); err != nil {
		return // Silently skip if metrics init failed
	}

	attrs := metric.WithAttributes(
		attribute.String("language", language),
		attribute.Bool("success", success),
	)

	extractLatency.Record(ctx, duration.Seconds(), attrs)
	extractTotal.Add(ctx, 1, attrs)

	if success {
		factsExtracted.Record(ctx, int64(factCount),
			metric.WithAttributes(attribute.String("language", language)),
		)
	} else {
		extractErrors.Add(ctx, 1,
			metric.WithAttributes(attribute.String("language", language)),
		)
	}
}

// startExtractSpan creates a span for an extraction operation.
func startExtractSpan(ctx context.Context, language, filePath string, contentSize int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "FrontEnd.Extract",
		trace.WithAttributes(
			attribute.String("ast.language", language),
			attribute.String("ast.file", filePath),
			attribute.Int("ast.content_size", contentSize),
		),
	)
}

// setExtractSpanResult sets the result attributes on an extraction span.
func setExtractSpanResult(span trace.Span, factCount int, errorCount int) {
	span.SetAttributes(
		attribute.Int("ast.fact_count", factCount),
		attribute.Int("ast.error_count", errorCount),
	)
}
