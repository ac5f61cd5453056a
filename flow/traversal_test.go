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
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/AleutianAI/tracekit/ast"
)

func frozenChain(t *testing.T) *Graph {
	t.Helper()
	g := NewGraph()
	if _, err := Build(context.Background(), g, []*ast.ExtractResult{chainResult()}); err != nil {
		t.Fatal(err)
	}
	g.Freeze()
	return g
}

func TestTrackForward_Chain(t *testing.T) {
	g := frozenChain(t)

	result, err := TrackForward(context.Background(), g, "a", -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Found {
		t.Fatal("a should be found")
	}
	if result.Total != 2 {
		t.Errorf("expected 2 impacted nodes, got %d", result.Total)
	}

	wantPaths := []string{"a → b", "a → b → c"}
	if len(result.Paths) != len(wantPaths) {
		t.Fatalf("expected paths %v, got %v", wantPaths, result.Paths)
	}
	for i, want := range wantPaths {
		if result.Paths[i] != want {
			t.Errorf("path %d: expected %q, got %q", i, want, result.Paths[i])
		}
	}

	t.Run("origin excluded from impacted set", func(t *testing.T) {
		for _, n := range result.Impacted {
			if n.Name == "a" {
				t.Error("origin must not appear among impacted nodes")
			}
		}
	})

	t.Run("impacted nodes carry locations", func(t *testing.T) {
		if result.Impacted[0].Location != "sample.py:2" {
			t.Errorf("expected sample.py:2, got %q", result.Impacted[0].Location)
		}
		if result.Impacted[0].Code == "" {
			t.Error("expected a code snippet")
		}
	})
}

func TestTrackBackward_Chain(t *testing.T) {
	g := frozenChain(t)

	result, err := TrackBackward(context.Background(), g, "c", -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Total != 2 {
		t.Errorf("expected 2 nodes, got %d", result.Total)
	}
	wantPaths := []string{"c → b", "c → b → a"}
	for i, want := range wantPaths {
		if result.Paths[i] != want {
			t.Errorf("path %d: expected %q, got %q", i, want, result.Paths[i])
		}
	}
}

func TestTrackBoth(t *testing.T) {
	g := frozenChain(t)

	result, err := TrackBoth(context.Background(), g, "b", -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Forward.Total != 1 || result.Forward.Paths[0] != "b → c" {
		t.Errorf("unexpected forward result: %+v", result.Forward)
	}
	if result.Backward.Total != 1 || result.Backward.Paths[0] != "b → a" {
		t.Errorf("unexpected backward result: %+v", result.Backward)
	}
}

func TestTrace_DepthLimit(t *testing.T) {
	g := frozenChain(t)
	ctx := context.Background()

	t.Run("depth one stops after direct dependents", func(t *testing.T) {
		result, err := TrackForward(ctx, g, "a", 1)
		if err != nil {
			t.Fatal(err)
		}
		if result.Total != 1 {
			t.Errorf("expected 1 node at depth 1, got %d", result.Total)
		}
	})

	t.Run("depth zero reaches nothing", func(t *testing.T) {
		result, err := TrackForward(ctx, g, "a", 0)
		if err != nil {
			t.Fatal(err)
		}
		if result.Total != 0 {
			t.Errorf("expected 0 nodes at depth 0, got %d", result.Total)
		}
		if !result.Found {
			t.Error("origin should still be found at depth 0")
		}
	})

	t.Run("negative depth is unlimited", func(t *testing.T) {
		result, err := TrackForward(ctx, g, "a", -5)
		if err != nil {
			t.Fatal(err)
		}
		if result.Total != 2 {
			t.Errorf("expected the full chain, got %d", result.Total)
		}
	})
}

func TestTrace_CycleTerminates(t *testing.T) {
	g := NewGraph()
	if err := g.AddDependency("a", "b"); err != nil {
		t.Fatal(err)
	}
	if err := g.AddDependency("b", "a"); err != nil {
		t.Fatal(err)
	}
	g.Freeze()

	result, err := TrackForward(context.Background(), g, "a", -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 1 {
		t.Errorf("a cycle should visit each node once, got %d", result.Total)
	}
}

func TestTrace_NotFoundIsAResult(t *testing.T) {
	g := frozenChain(t)

	result, err := TrackForward(context.Background(), g, "ghost", -1)
	if err != nil {
		t.Fatalf("a missing name must not be an error, got %v", err)
	}
	if result.Found {
		t.Error("ghost should not be found")
	}
	if result.Total != 0 || len(result.Impacted) != 0 {
		t.Errorf("expected an empty result, got %+v", result)
	}

	t.Run("report names the missing node", func(t *testing.T) {
		if !strings.Contains(result.Report(), "ghost") {
			t.Errorf("report should mention the queried name: %s", result.Report())
		}
	})
}

func TestTrace_PlaceholderNodeHasNoLocation(t *testing.T) {
	g := NewGraph()
	result := &ast.ExtractResult{
		FilePath: "sample.py",
		Language: "python",
		Assignments: []ast.Assignment{
			// "seed" is only ever read, so its node stays a placeholder
			// with no defining location.
			testAssignment("b", []string{"seed"}, 1, "seed + 1"),
		},
	}
	if _, err := Build(context.Background(), g, []*ast.ExtractResult{result}); err != nil {
		t.Fatal(err)
	}
	g.Freeze()

	trace, err := TrackBackward(context.Background(), g, "b", -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trace.Impacted) != 1 {
		t.Fatalf("expected 1 impacted node, got %d", len(trace.Impacted))
	}
	if got := trace.Impacted[0].Location; got != "" {
		t.Errorf("undefined node should have an empty location, got %q", got)
	}

	fwd, err := TrackForward(context.Background(), g, "seed", -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fwd.Location != "" {
		t.Errorf("placeholder origin should have an empty location, got %q", fwd.Location)
	}
}

func TestTrace_NotReadyBeforeFreeze(t *testing.T) {
	g := NewGraph()
	if _, err := TrackForward(context.Background(), g, "a", -1); !errors.Is(err, ErrGraphNotReady) {
		t.Errorf("expected ErrGraphNotReady, got %v", err)
	}
}

func TestTraceResult_JSONContract(t *testing.T) {
	g := frozenChain(t)

	result, err := TrackForward(context.Background(), g, "a", -1)
	if err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"name"`, `"direction"`, `"found"`, `"paths"`, `"total"`, `"impacted"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("JSON output missing %s: %s", key, data)
		}
	}
}

func TestTraceResult_Report(t *testing.T) {
	g := frozenChain(t)

	result, err := TrackForward(context.Background(), g, "a", -1)
	if err != nil {
		t.Fatal(err)
	}

	report := result.Report()
	if !strings.Contains(report, "a → b → c") {
		t.Errorf("report should include the full path, got:\n%s", report)
	}
	if !strings.Contains(report, "sample.py:2") {
		t.Errorf("report should include locations, got:\n%s", report)
	}
}

func TestExport_Deterministic(t *testing.T) {
	g := frozenChain(t)

	first := g.ToSerializable()
	second := g.ToSerializable()

	a, err := json.Marshal(first)
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(second)
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Error("serialized exports of the same graph should be identical")
	}

	if first.Nodes[0].Name != "a" {
		t.Errorf("nodes should be sorted by name, got %q first", first.Nodes[0].Name)
	}
}

func TestExport_Visualization(t *testing.T) {
	g := frozenChain(t)

	vis := g.ToVisualization()
	if len(vis.Nodes) != 3 {
		t.Errorf("expected 3 nodes, got %d", len(vis.Nodes))
	}
	if len(vis.Edges) != 2 {
		t.Errorf("expected 2 edges, got %d", len(vis.Edges))
	}
	// Edges point at dependencies: b reads a.
	if vis.Edges[0].Source != "b" || vis.Edges[0].Target != "a" {
		t.Errorf("expected edge b -> a first, got %+v", vis.Edges[0])
	}
}
