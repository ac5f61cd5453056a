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
	"sort"
	"strings"
	"time"
)

// Direction selects which edge set a traversal follows.
type Direction string

const (
	// Forward follows dependents: "what breaks if this changes".
	Forward Direction = "forward"
	// Backward follows dependencies: "where does this value come from".
	Backward Direction = "backward"
)

// ImpactedNode is one node reached by a traversal, with the chain that
// reached it.
type ImpactedNode struct {
	Name       string `json:"name"`
	Location   string `json:"location"`
	Code       string `json:"code"`
	Expression string `json:"expression,omitempty"`
	Path       string `json:"path"`
	Depth      int    `json:"depth"`
}

// TraceResult is the outcome of one traversal.
//
// Description:
//
//	Found is false when the origin name is not in the graph; that is a
//	result, not an error, because callers routinely probe names that
//	the analyzed sources never mention. The origin itself is never
//	listed among the impacted nodes.
type TraceResult struct {
	Name      string         `json:"name"`
	Direction Direction      `json:"direction"`
	Found     bool           `json:"found"`
	Location  string         `json:"location,omitempty"`
	Code      string         `json:"code,omitempty"`
	Impacted  []ImpactedNode `json:"impacted"`
	Paths     []string       `json:"paths"`
	Total     int            `json:"total"`
}

// TrackForward traverses dependents breadth-first from name.
//
// Inputs:
//   - ctx: Context for tracing.
//   - g: A frozen graph.
//   - name: Origin node name.
//   - maxDepth: Hop limit. Negative means unlimited.
//
// Outputs:
//   - *TraceResult: Found=false when name is unknown.
//   - error: ErrGraphNotReady before Freeze.
func TrackForward(ctx context.Context, g *Graph, name string, maxDepth int) (*TraceResult, error) {
	return runTrace(ctx, g, name, maxDepth, Forward)
}

// TrackBackward traverses dependencies breadth-first from name.
// See TrackForward for parameter semantics.
func TrackBackward(ctx context.Context, g *Graph, name string, maxDepth int) (*TraceResult, error) {
	return runTrace(ctx, g, name, maxDepth, Backward)
}

// BothResult pairs the two traversal directions for one origin.
type BothResult struct {
	Forward  *TraceResult `json:"forward"`
	Backward *TraceResult `json:"backward"`
}

// TrackBoth runs forward and backward traversals from the same origin.
func TrackBoth(ctx context.Context, g *Graph, name string, maxDepth int) (*BothResult, error) {
	fwd, err := runTrace(ctx, g, name, maxDepth, Forward)
	if err != nil {
		return nil, err
	}
	bwd, err := runTrace(ctx, g, name, maxDepth, Backward)
	if err != nil {
		return nil, err
	}
	return &BothResult{Forward: fwd, Backward: bwd}, nil
}

func runTrace(ctx context.Context, g *Graph, name string, maxDepth int, dir Direction) (*TraceResult, error) {
	ctx, span := startTraceSpan(ctx, string(dir), name, maxDepth)
	defer span.End()

	start := time.Now()

	if g == nil {
		return nil, fmt.Errorf("%w: nil graph", ErrInvalidInput)
	}
	if !g.frozen {
		return nil, fmt.Errorf("%w: call Freeze before traversing", ErrGraphNotReady)
	}

	result := &TraceResult{
		Name:      name,
		Direction: dir,
		Impacted:  make([]ImpactedNode, 0),
		Paths:     make([]string, 0),
	}

	origin := g.nodes[name]
	if origin == nil {
		setTraceSpanResult(span, false, 0)
		recordTraceMetrics(ctx, string(dir), time.Since(start), 0)
		return result, nil
	}

	result.Found = true
	if origin.Location.FilePath != "" {
		result.Location = origin.Location.String()
	}
	result.Code = origin.Location.Snippet

	type queued struct {
		name  string
		path  string
		depth int
	}

	visited := map[string]struct{}{name: {}}
	queue := []queued{{name: name, path: name, depth: 0}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if maxDepth >= 0 && cur.depth >= maxDepth {
			continue
		}

		node := g.nodes[cur.name]
		if node == nil {
			continue
		}

		for _, next := range sortedNames(node.edges(dir)) {
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = struct{}{}

			path := cur.path + " → " + next
			reached := g.nodes[next]

			impacted := ImpactedNode{
				Name:  next,
				Path:  path,
				Depth: cur.depth + 1,
			}
			if reached != nil {
				// Placeholder nodes have no defining location; leave the
				// field empty rather than rendering ":0".
				if reached.Location.FilePath != "" {
					impacted.Location = reached.Location.String()
				}
				impacted.Code = reached.Location.Snippet
				impacted.Expression = reached.Expression
			}
			result.Impacted = append(result.Impacted, impacted)
			result.Paths = append(result.Paths, path)

			queue = append(queue, queued{name: next, path: path, depth: cur.depth + 1})
		}
	}

	result.Total = len(visited) - 1

	setTraceSpanResult(span, true, result.Total)
	recordTraceMetrics(ctx, string(dir), time.Since(start), result.Total)

	return result, nil
}

// edges returns the edge set the direction follows.
func (n *GraphNode) edges(dir Direction) map[string]struct{} {
	if dir == Forward {
		return n.Dependents
	}
	return n.Dependencies
}

// sortedNames flattens a set into a sorted slice so traversal order, and
// therefore reported paths, are deterministic.
func sortedNames(set map[string]struct{}) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Report renders a trace as plain text for terminal consumption.
func (r *TraceResult) Report() string {
	var b strings.Builder

	if !r.Found {
		fmt.Fprintf(&b, "No data-flow node found for %q.\n", r.Name)
		return b.String()
	}

	verb := "impacts"
	if r.Direction == Backward {
		verb = "derives from"
	}
	fmt.Fprintf(&b, "%s (%s) %s %d node(s):\n", r.Name, r.Location, verb, r.Total)
	for _, n := range r.Impacted {
		fmt.Fprintf(&b, "  %s\n", n.Path)
		if n.Location != "" {
			fmt.Fprintf(&b, "    at %s: %s\n", n.Location, strings.TrimSpace(n.Code))
		}
	}
	return b.String()
}
