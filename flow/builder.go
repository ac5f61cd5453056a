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
	"fmt"
	"time"

	"github.com/AleutianAI/tracekit/ast"
)

// BuildResult summarizes one graph construction run.
type BuildResult struct {
	Nodes     int
	Edges     int
	Functions int
	Calls     int
	Files     int
}

// Build constructs a data-flow graph from front-end fact streams.
//
// Description:
//
//	Each assignment fact defines its target nodes and adds one dependency
//	edge per name the right-hand side reads. Function facts register
//	parameter nodes and return nodes; call facts are retained for the
//	inter-procedural linker. Loading the same facts twice produces the
//	same graph because node and edge insertion are idempotent.
//
// Inputs:
//   - ctx: Context for tracing. Not used for cancellation; construction
//     is in-memory and fast relative to parsing.
//   - g: Destination graph. Must not be frozen.
//   - results: Fact streams from ast front-ends. Nil entries are skipped.
//
// Outputs:
//   - *BuildResult: Counts for logging.
//   - error: ErrGraphFrozen, or ErrInvalidInput for a nil graph.
func Build(ctx context.Context, g *Graph, results []*ast.ExtractResult) (*BuildResult, error) {
	ctx, span := startBuildSpan(ctx, len(results))
	defer span.End()

	start := time.Now()

	if g == nil {
		return nil, fmt.Errorf("%w: nil graph", ErrInvalidInput)
	}
	if g.frozen {
		return nil, fmt.Errorf("%w: cannot build into a frozen graph", ErrGraphFrozen)
	}

	br := &BuildResult{}
	for _, res := range results {
		if res == nil {
			continue
		}
		br.Files++

		for _, a := range res.Assignments {
			if err := loadAssignment(g, a); err != nil {
				return nil, err
			}
		}
		for _, fn := range res.Functions {
			if fn == nil {
				continue
			}
			loadFunction(g, fn)
			br.Functions++
		}
		g.calls = append(g.calls, res.Calls...)
		br.Calls += len(res.Calls)
	}

	br.Nodes = len(g.nodes)
	br.Edges = countEdges(g)

	setBuildSpanResult(span, br.Nodes, br.Edges)
	recordBuildMetrics(ctx, time.Since(start), br.Nodes, br.Edges)

	return br, nil
}

func loadAssignment(g *Graph, a ast.Assignment) error {
	for _, t := range a.Targets {
		kind := KindVariable
		if t.Field {
			kind = KindField
		}
		g.define(t.Name, kind, a.Location, a.Expression)
		for _, dep := range a.Dependencies {
			if err := g.AddDependency(t.Name, dep); err != nil {
				return err
			}
		}
	}
	return nil
}

// loadFunction registers the function and defines its parameter nodes so
// that a parameter name resolves even when no call site ever binds it.
func loadFunction(g *Graph, fn *ast.FunctionInfo) {
	g.functions[fn.Name] = fn
	for _, p := range fn.Parameters {
		n := g.ensureNode(p)
		if n.placeholder {
			g.define(p, KindParameter, fn.Location, "")
		}
	}
}

func countEdges(g *Graph) int {
	total := 0
	for _, n := range g.nodes {
		total += len(n.Dependencies)
	}
	return total
}
