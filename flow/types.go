// Copyright (C) 2026 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package flow builds and queries a name-keyed data-flow graph from the
// fact streams the ast front-ends emit.
//
// Description:
//
//	The graph maps variable, parameter, field, and return-value names to
//	nodes carrying bidirectional dependency edges. Construction follows a
//	build-then-freeze discipline: facts are loaded, the inter-procedural
//	linker runs, Freeze is called, and only then may traversals execute.
//
// Thread Safety:
//
//	A Graph is NOT safe for concurrent mutation. After Freeze it is
//	immutable and safe for concurrent traversal.
package flow

import (
	"fmt"

	"github.com/AleutianAI/tracekit/ast"
)

// NodeKind classifies what a graph node's name refers to.
type NodeKind string

const (
	KindVariable  NodeKind = "variable"
	KindParameter NodeKind = "parameter"
	KindReturn    NodeKind = "return"
	KindField     NodeKind = "field"
)

// GraphNode is one named value in the data-flow graph.
//
// Description:
//
//	Dependencies hold the names this node reads; Dependents hold the
//	names that read this node. The two sets are kept symmetric by
//	Graph.AddDependency: for every edge a depends-on b, a appears in
//	b.Dependents and b appears in a.Dependencies.
type GraphNode struct {
	Name       string
	Kind       NodeKind
	Location   ast.SourceLocation
	Expression string

	Dependencies map[string]struct{}
	Dependents   map[string]struct{}

	// placeholder marks a node created as an edge endpoint before any
	// fact defined it. A later defining fact backfills Location,
	// Expression, and Kind without touching the accumulated edges.
	placeholder bool
}

// Graph is the name-keyed data-flow graph.
type Graph struct {
	nodes     map[string]*GraphNode
	functions map[string]*ast.FunctionInfo
	calls     []ast.CallSite
	frozen    bool
}

// NewGraph returns an empty, unfrozen graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:     make(map[string]*GraphNode),
		functions: make(map[string]*ast.FunctionInfo),
		calls:     make([]ast.CallSite, 0),
	}
}

// Node returns the node for name, or nil when the name is unknown.
func (g *Graph) Node(name string) *GraphNode {
	return g.nodes[name]
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int { return len(g.nodes) }

// Function returns the recorded function info for name, or nil.
func (g *Graph) Function(name string) *ast.FunctionInfo {
	return g.functions[name]
}

// IsFrozen reports whether Freeze has been called.
func (g *Graph) IsFrozen() bool { return g.frozen }

// Freeze marks the graph immutable. Mutations after Freeze return
// ErrGraphFrozen; traversals before Freeze return ErrGraphNotReady.
func (g *Graph) Freeze() { g.frozen = true }

// ensureNode returns the node for name, creating a placeholder when the
// name has not been seen. Existing edges are always preserved.
func (g *Graph) ensureNode(name string) *GraphNode {
	if n, ok := g.nodes[name]; ok {
		return n
	}
	n := &GraphNode{
		Name:         name,
		Kind:         KindVariable,
		Dependencies: make(map[string]struct{}),
		Dependents:   make(map[string]struct{}),
		placeholder:  true,
	}
	g.nodes[name] = n
	return n
}

// define records a defining occurrence of name: the node's location,
// expression, and kind are set (or overwritten by the latest definition),
// and the node stops being a placeholder.
func (g *Graph) define(name string, kind NodeKind, loc ast.SourceLocation, expr string) *GraphNode {
	n := g.ensureNode(name)
	n.Kind = kind
	n.Location = loc
	n.Expression = expr
	n.placeholder = false
	return n
}

// AddDependency records that `from` reads `to`, maintaining edge symmetry.
//
// Outputs:
//   - error: ErrGraphFrozen after Freeze; ErrInvalidInput for empty names.
//     Self-edges are ignored without error.
func (g *Graph) AddDependency(from, to string) error {
	if g.frozen {
		return fmt.Errorf("%w: cannot add edge %s -> %s", ErrGraphFrozen, from, to)
	}
	if from == "" || to == "" {
		return fmt.Errorf("%w: edge endpoints must be non-empty", ErrInvalidInput)
	}
	if from == to {
		return nil
	}
	src := g.ensureNode(from)
	dst := g.ensureNode(to)
	src.Dependencies[to] = struct{}{}
	dst.Dependents[from] = struct{}{}
	return nil
}

// Validate checks edge symmetry across the whole graph.
//
// Outputs:
//   - error: The first asymmetric edge found, or nil when every edge has
//     its mirror.
func (g *Graph) Validate() error {
	for name, node := range g.nodes {
		for dep := range node.Dependencies {
			other, ok := g.nodes[dep]
			if !ok {
				return fmt.Errorf("%w: %s depends on unknown node %s", ErrInvalidInput, name, dep)
			}
			if _, ok := other.Dependents[name]; !ok {
				return fmt.Errorf("%w: edge %s -> %s missing its dependent mirror", ErrInvalidInput, name, dep)
			}
		}
		for dep := range node.Dependents {
			other, ok := g.nodes[dep]
			if !ok {
				return fmt.Errorf("%w: %s has unknown dependent %s", ErrInvalidInput, name, dep)
			}
			if _, ok := other.Dependencies[name]; !ok {
				return fmt.Errorf("%w: dependent edge %s <- %s missing its dependency mirror", ErrInvalidInput, name, dep)
			}
		}
	}
	return nil
}
