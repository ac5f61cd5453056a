// Copyright (C) 2026 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package flow

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for graph operations.
var (
	tracer = otel.Tracer("tracekit.flow")
	meter  = otel.Meter("tracekit.flow")
)

// Metrics for graph construction and traversal.
var (
	buildLatency  metric.Float64Histogram
	graphNodes    metric.Int64Histogram
	linkedCalls   metric.Int64Counter
	traceLatency  metric.Float64Histogram
	traceImpacted metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		buildLatency, err = meter.Float64Histogram(
			"flow_build_duration_seconds",
			metric.WithDescription("Duration of graph construction"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		graphNodes, err = meter.Int64Histogram(
			"flow_graph_nodes",
			metric.WithDescription("Number of nodes per built graph"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		linkedCalls, err = meter.Int64Counter(
			"flow_linked_calls_total",
			metric.WithDescription("Total number of call sites linked"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		traceLatency, err = meter.Float64Histogram(
			"flow_trace_duration_seconds",
			metric.WithDescription("Duration of traversal operations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		traceImpacted, err = meter.Int64Histogram(
			"flow_trace_impacted_nodes",
			metric.WithDescription("Number of nodes reached per traversal"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordBuildMetrics records metrics for one graph construction run.
func recordBuildMetrics(ctx context.Context, duration time.Duration, nodes, edges int) {
	if err := initMetrics(); err != nil {
		return // Silently skip if metrics init failed
	}
	buildLatency.Record(ctx, duration.Seconds())
	graphNodes.Record(ctx, int64(nodes),
		metric.WithAttributes(attribute.Int("flow.edges", edges)),
	)
}

// recordLinkMetrics records metrics for one linking pass.
func recordLinkMetrics(ctx context.Context, duration time.Duration, calls int) {
	if err := initMetrics(); err != nil {
		return
	}
	buildLatency.Record(ctx, duration.Seconds(),
		metric.WithAttributes(attribute.String("flow.phase", "link")),
	)
	linkedCalls.Add(ctx, int64(calls))
}

// recordTraceMetrics records metrics for one traversal.
func recordTraceMetrics(ctx context.Context, direction string, duration time.Duration, impacted int) {
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("flow.direction", direction))
	traceLatency.Record(ctx, duration.Seconds(), attrs)
	traceImpacted.Record(ctx, int64(impacted), attrs)
}

// startBuildSpan creates a span for graph construction.
func startBuildSpan(ctx context.Context, fileCount int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "flow.Build",
		trace.WithAttributes(attribute.Int("flow.file_count", fileCount)),
	)
}

// setBuildSpanResult sets the result attributes on a build span.
func setBuildSpanResult(span trace.Span, nodes, edges int) {
	span.SetAttributes(
		attribute.Int("flow.nodes", nodes),
		attribute.Int("flow.edges", edges),
	)
}

// startLinkSpan creates a span for the inter-procedural linking pass.
func startLinkSpan(ctx context.Context) (context.Context, trace.Span) {
	return tracer.Start(ctx, "flow.Link")
}

// setLinkSpanResult sets the result attributes on a link span.
func setLinkSpanResult(span trace.Span, calls, synthetic int) {
	span.SetAttributes(
		attribute.Int("flow.calls_linked", calls),
		attribute.Int("flow.synthetic_nodes", synthetic),
	)
}

// startTraceSpan creates a span for a traversal.
func startTraceSpan(ctx context.Context, direction, name string, maxDepth int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "flow.Trace",
		trace.WithAttributes(
			attribute.String("flow.direction", direction),
			attribute.String("flow.origin", name),
			attribute.Int("flow.max_depth", maxDepth),
		),
	)
}

// setTraceSpanResult sets the result attributes on a trace span.
func setTraceSpanResult(span trace.Span, found bool, impacted int) {
	span.SetAttributes(
		attribute.Bool("flow.found", found),
		attribute.Int("flow.impacted", impacted),
	)
}
