// Copyright (C) 2026 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package scope

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for scope resolution.
var (
	tracer = otel.Tracer("tracekit.scope")
	meter  = otel.Meter("tracekit.scope")
)

// Metrics for scope resolution operations.
var (
	resolveLatency metric.Float64Histogram
	resolveTotal   metric.Int64Counter
	fallbackTotal  metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		resolveLatency, err = meter.Float64Histogram(
			"scope_resolve_duration_seconds",
			metric.WithDescription("Duration of scope resolution queries"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		resolveTotal, err = meter.Int64Counter(
			"scope_resolve_total",
			metric.WithDescription("Total number of scope resolution queries"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		fallbackTotal, err = meter.Int64Counter(
			"scope_fallback_total",
			metric.WithDescription("Total files resolved through the text fallback"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordResolveMetrics records metrics for one resolution query.
func recordResolveMetrics(ctx context.Context, duration time.Duration, approximate bool) {
	if err := initMetrics(); err != nil {
		return // Silently skip if metrics init failed
	}

	attrs := metric.WithAttributes(
		attribute.Bool("approximate", approximate),
	)
	resolveLatency.Record(ctx, duration.Seconds(), attrs)
	resolveTotal.Add(ctx, 1, attrs)
}

// recordFallback counts a file that degraded to the text fallback.
func recordFallback(ctx context.Context, language string) {
	if err := initMetrics(); err != nil {
		return
	}
	fallbackTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("language", language)),
	)
}

// startResolveSpan creates a span for one resolution query.
func startResolveSpan(ctx context.Context, filePath string, line int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Resolver.ContextFor",
		trace.WithAttributes(
			attribute.String("scope.file", filePath),
			attribute.Int("scope.line", line),
		),
	)
}

// setResolveSpanResult sets the result attributes on a resolve span.
func setResolveSpanResult(span trace.Span, scopeCount int, approximate bool) {
	span.SetAttributes(
		attribute.Int("scope.count", scopeCount),
		attribute.Bool("scope.approximate", approximate),
	)
}
