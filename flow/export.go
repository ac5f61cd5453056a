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

import "sort"

// SerializableNode is a GraphNode flattened for JSON export.
type SerializableNode struct {
	Name         string   `json:"name"`
	Kind         string   `json:"kind"`
	Location     string   `json:"location,omitempty"`
	Expression   string   `json:"expression,omitempty"`
	Dependencies []string `json:"dependencies"`
	Dependents   []string `json:"dependents"`
}

// SerializableGraph is the whole graph in deterministic export order.
type SerializableGraph struct {
	Nodes []SerializableNode `json:"nodes"`
}

// VisNode is a node shaped for graph visualization frontends.
type VisNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Group string `json:"group"`
}

// VisEdge is a directed dependency edge for visualization.
type VisEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// VisGraph is a node/edge list suitable for force-directed rendering.
type VisGraph struct {
	Nodes []VisNode `json:"nodes"`
	Edges []VisEdge `json:"edges"`
}

// ToSerializable flattens the graph with nodes and edge lists sorted by
// name, so exports of the same graph are byte-identical.
func (g *Graph) ToSerializable() *SerializableGraph {
	out := &SerializableGraph{Nodes: make([]SerializableNode, 0, len(g.nodes))}
	for _, name := range sortedNames(nodeSet(g)) {
		n := g.nodes[name]
		sn := SerializableNode{
			Name:         n.Name,
			Kind:         string(n.Kind),
			Expression:   n.Expression,
			Dependencies: sortedNames(n.Dependencies),
			Dependents:   sortedNames(n.Dependents),
		}
		if n.Location.FilePath != "" {
			sn.Location = n.Location.String()
		}
		out.Nodes = append(out.Nodes, sn)
	}
	return out
}

// ToVisualization shapes the graph for rendering. Edges point from a node
// to each of its dependencies, so arrows read "reads from".
func (g *Graph) ToVisualization() *VisGraph {
	out := &VisGraph{
		Nodes: make([]VisNode, 0, len(g.nodes)),
		Edges: make([]VisEdge, 0),
	}
	for _, name := range sortedNames(nodeSet(g)) {
		n := g.nodes[name]
		out.Nodes = append(out.Nodes, VisNode{
			ID:    n.Name,
			Label: n.Name,
			Group: string(n.Kind),
		})
		for _, dep := range sortedNames(n.Dependencies) {
			out.Edges = append(out.Edges, VisEdge{Source: n.Name, Target: dep})
		}
	}
	sort.Slice(out.Edges, func(i, j int) bool {
		if out.Edges[i].Source != out.Edges[j].Source {
			return out.Edges[i].Source < out.Edges[j].Source
		}
		return out.Edges[i].Target < out.Edges[j].Target
	})
	return out
}

func nodeSet(g *Graph) map[string]struct{} {
	set := make(map[string]struct{}, len(g.nodes))
	for name := range g.nodes {
		set[name] = struct{}{}
	}
	return set
}
