// Copyright (C) 2026 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package engine is the top-level facade: point it at source files, then
// ask scope and data-flow questions about them.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/tracekit/ast"
	"github.com/AleutianAI/tracekit/config"
	"github.com/AleutianAI/tracekit/flow"
	"github.com/AleutianAI/tracekit/scope"
)

// ErrNoInputFiles indicates that none of the given paths could be analyzed.
var ErrNoInputFiles = errors.New("no analyzable input files")

// Engine ties the scope resolver, the language front-ends, and the
// data-flow graph together behind one facade.
//
// Description:
//
//	Analyze parses the given files, builds the graph, runs the
//	inter-procedural linker, and freezes the result. After that the
//	query methods (ContextFor, TrackForward, TrackBackward) may be
//	called concurrently.
//
// Thread Safety:
//
//	Analyze must complete before queries begin; it is not safe to call
//	Analyze concurrently with anything else. Queries on an analyzed
//	engine are safe for concurrent use.
type Engine struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *ast.Registry
	resolver *scope.Resolver

	graph *flow.Graph
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig replaces the default configuration.
func WithConfig(cfg *config.Config) Option {
	return func(e *Engine) {
		if cfg != nil {
			e.cfg = cfg
		}
	}
}

// WithLogger replaces the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRegistry replaces the default front-end registry.
func WithRegistry(registry *ast.Registry) Option {
	return func(e *Engine) {
		if registry != nil {
			e.registry = registry
		}
	}
}

// NewEngine creates an Engine with Python and Java front-ends registered,
// all sharing one scope resolver and its parse cache.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		cfg:      config.Default(),
		logger:   slog.Default(),
		resolver: scope.NewResolver(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.registry == nil {
		e.registry = ast.NewRegistry()
		feOpts := []ast.FrontEndOption{
			ast.WithMaxFileSize(e.cfg.MaxFileSizeBytes),
			ast.WithScopeResolver(e.resolver),
		}
		e.registry.Register(ast.NewPythonFrontEnd(feOpts...))
		e.registry.Register(ast.NewJavaFrontEnd(feOpts...))
	}
	return e
}

// FileReport describes how one input file fared during analysis.
type FileReport struct {
	Path     string
	Language string
	Facts    int
	Skipped  bool
	Reason   string
	Errors   []string
}

// AnalysisReport summarizes one Analyze run.
type AnalysisReport struct {
	RunID    string
	Files    []FileReport
	Build    *flow.BuildResult
	Link     *flow.LinkResult
	Duration time.Duration
}

// Analyze parses the given source files and builds the data-flow graph.
//
// Description:
//
//	Files that cannot be read, exceed the size limit, or have no
//	registered front-end are skipped with a warning; a panicking
//	front-end contributes zero facts for its file rather than aborting
//	the run. The run fails only when every path is skipped.
//
// Inputs:
//   - ctx: Context for cancellation, checked between files.
//   - paths: Source file paths. Order does not affect the graph.
//
// Outputs:
//   - *AnalysisReport: Per-file outcomes and graph counts.
//   - error: ErrNoInputFiles, or a context error.
func (e *Engine) Analyze(ctx context.Context, paths []string) (*AnalysisReport, error) {
	runID := uuid.NewString()
	logger := e.logger.With(slog.String("run_id", runID))
	start := time.Now()

	ctx, span := startAnalyzeSpan(ctx, runID, len(paths))
	defer span.End()

	logger.Info("analysis started", slog.Int("path_count", len(paths)))

	report := &AnalysisReport{RunID: runID, Files: make([]FileReport, 0, len(paths))}
	results := make([]*ast.ExtractResult, 0, len(paths))

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("analysis canceled: %w", err)
		}

		fr := e.analyzeFile(ctx, logger, path)
		report.Files = append(report.Files, fr.report)
		if fr.result != nil {
			results = append(results, fr.result)
		}
	}

	skipped := len(report.Files) - len(results)

	if len(results) == 0 {
		logger.Error("no analyzable input files", slog.Int("path_count", len(paths)))
		recordAnalyzeMetrics(ctx, time.Since(start), 0, skipped, false)
		return nil, fmt.Errorf("%w: %d path(s) given", ErrNoInputFiles, len(paths))
	}

	graph := flow.NewGraph()
	br, err := flow.Build(ctx, graph, results)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}
	lr, err := flow.Link(ctx, graph)
	if err != nil {
		return nil, fmt.Errorf("link graph: %w", err)
	}
	graph.Freeze()
	e.graph = graph

	report.Build = br
	report.Link = lr
	report.Duration = time.Since(start)

	setAnalyzeSpanResult(span, br.Nodes, br.Edges, skipped)
	recordAnalyzeMetrics(ctx, report.Duration, len(results), skipped, true)

	logger.Info("analysis complete",
		slog.Int("files", br.Files),
		slog.Int("nodes", br.Nodes),
		slog.Int("edges", br.Edges),
		slog.Int("calls_linked", lr.CallsLinked),
		slog.Duration("duration", report.Duration),
	)
	return report, nil
}

type fileOutcome struct {
	report FileReport
	result *ast.ExtractResult
}

// analyzeFile reads and extracts one file, converting front-end panics
// into a skipped-file outcome.
func (e *Engine) analyzeFile(ctx context.Context, logger *slog.Logger, path string) (out fileOutcome) {
	out.report = FileReport{Path: path}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("front-end panic, file contributes no facts",
				slog.String("path", path),
				slog.Any("panic", r),
			)
			out.report.Skipped = true
			out.report.Reason = fmt.Sprintf("front-end panic: %v", r)
			out.result = nil
		}
	}()

	fe, ok := e.registry.GetByExtension(filepath.Ext(path))
	if !ok {
		reason := fmt.Errorf("%w: extension %q", ast.ErrUnsupportedLanguage, filepath.Ext(path))
		logger.Warn("no front-end for file, skipping",
			slog.String("path", path),
			slog.String("error", reason.Error()),
		)
		out.report.Skipped = true
		out.report.Reason = reason.Error()
		return out
	}
	if !e.languageEnabled(fe.Language()) {
		out.report.Skipped = true
		out.report.Reason = "language disabled by config"
		return out
	}

	content, err := os.ReadFile(path)
	if err != nil {
		wrapped := ast.WrapExtractError(err, path)
		logger.Warn("cannot read file, skipping",
			slog.String("path", path),
			slog.String("error", wrapped.Error()),
		)
		out.report.Skipped = true
		out.report.Reason = wrapped.Error()
		return out
	}

	if int64(len(content)) > e.cfg.MaxFileSizeBytes {
		logger.Warn("file exceeds size limit, skipping",
			slog.String("path", path),
			slog.Int("size", len(content)),
			slog.Int64("limit", e.cfg.MaxFileSizeBytes),
		)
		out.report.Skipped = true
		out.report.Reason = "file too large"
		return out
	}
	if int64(len(content)) > e.cfg.WarnFileSizeBytes {
		logger.Warn("large file, analysis may be slow",
			slog.String("path", path),
			slog.Int("size", len(content)),
		)
	}

	result, err := fe.Extract(ctx, content, path)
	if err != nil {
		logger.Warn("extraction failed, skipping",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		out.report.Skipped = true
		out.report.Reason = err.Error()
		return out
	}

	out.report.Language = result.Language
	out.report.Facts = len(result.Assignments) + len(result.Functions) + len(result.Calls)
	out.report.Errors = result.Errors
	out.result = result

	logger.Debug("file analyzed",
		slog.String("path", path),
		slog.String("language", result.Language),
		slog.Int("facts", out.report.Facts),
	)
	return out
}

func (e *Engine) languageEnabled(language string) bool {
	if len(e.cfg.Languages) == 0 {
		return true
	}
	for _, l := range e.cfg.Languages {
		if l == language {
			return true
		}
	}
	return false
}

// ContextFor resolves the scope chain enclosing a file position. It does
// not require a prior Analyze call; the file is parsed on demand and
// cached.
func (e *Engine) ContextFor(ctx context.Context, path string, line int) (*scope.Context, error) {
	return e.resolver.ContextFor(ctx, path, line)
}

// TrackForward traces what the named value impacts. maxDepth < 0 means
// unlimited. Returns flow.ErrGraphNotReady before a successful Analyze.
func (e *Engine) TrackForward(ctx context.Context, name string, maxDepth int) (*flow.TraceResult, error) {
	if e.graph == nil {
		return nil, fmt.Errorf("%w: call Analyze first", flow.ErrGraphNotReady)
	}
	return flow.TrackForward(ctx, e.graph, name, maxDepth)
}

// TrackBackward traces where the named value comes from. maxDepth < 0
// means unlimited. Returns flow.ErrGraphNotReady before a successful
// Analyze.
func (e *Engine) TrackBackward(ctx context.Context, name string, maxDepth int) (*flow.TraceResult, error) {
	if e.graph == nil {
		return nil, fmt.Errorf("%w: call Analyze first", flow.ErrGraphNotReady)
	}
	return flow.TrackBackward(ctx, e.graph, name, maxDepth)
}

// TrackBoth traces both directions from the same name in one call.
func (e *Engine) TrackBoth(ctx context.Context, name string, maxDepth int) (*flow.BothResult, error) {
	if e.graph == nil {
		return nil, fmt.Errorf("%w: call Analyze first", flow.ErrGraphNotReady)
	}
	return flow.TrackBoth(ctx, e.graph, name, maxDepth)
}

// Graph exposes the frozen graph for export, or nil before Analyze.
func (e *Engine) Graph() *flow.Graph { return e.graph }
