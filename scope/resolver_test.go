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
	"os"
	"path/filepath"
	"testing"
)

const pythonSample = `class Outer:
    def method(self):
        x = 1
        return x

def top(a):
    y = a + 1
    return y
`

const javaSample = `public class Calculator {
    private int total;

    public int add(int a, int b) {
        int sum = a + b;
        return sum;
    }

    public void reset() {
        total = 0;
    }
}
`

func TestResolver_PythonContext(t *testing.T) {
	r := NewResolver()
	ctx := context.Background()

	t.Run("line inside nested method", func(t *testing.T) {
		c := r.ContextForContent(ctx, "sample.py", []byte(pythonSample), 3)
		if c.Approximate {
			t.Error("native parse should not be approximate")
		}
		if got := c.Path(); got != "Outer.method" {
			t.Errorf("expected path Outer.method, got %q", got)
		}
		if len(c.Scopes) != 2 {
			t.Fatalf("expected 2 scopes, got %d", len(c.Scopes))
		}
		if c.Scopes[0].Kind != KindClass {
			t.Errorf("expected outermost scope to be a class, got %s", c.Scopes[0].Kind)
		}
		if c.Scopes[1].Kind != KindMethod {
			t.Errorf("expected inner scope to be a method, got %s", c.Scopes[1].Kind)
		}
	})

	t.Run("line inside top-level function", func(t *testing.T) {
		c := r.ContextForContent(ctx, "sample.py", []byte(pythonSample), 7)
		if got := c.Path(); got != "top" {
			t.Errorf("expected path top, got %q", got)
		}
		if c.Scopes[0].Kind != KindFunction {
			t.Errorf("expected function kind, got %s", c.Scopes[0].Kind)
		}
	})

	t.Run("line at module scope", func(t *testing.T) {
		c := r.ContextForContent(ctx, "sample.py", []byte(pythonSample), 5)
		if len(c.Scopes) != 0 {
			t.Errorf("expected no scopes at module level, got %d", len(c.Scopes))
		}
		if got := c.Breadcrumb(); got != "" {
			t.Errorf("expected empty breadcrumb, got %q", got)
		}
	})
}

func TestResolver_JavaContext(t *testing.T) {
	r := NewResolver()
	ctx := context.Background()

	t.Run("line inside method", func(t *testing.T) {
		c := r.ContextForContent(ctx, "Calculator.java", []byte(javaSample), 5)
		if got := c.Path(); got != "Calculator.add" {
			t.Errorf("expected path Calculator.add, got %q", got)
		}
		if len(c.Scopes) != 2 {
			t.Fatalf("expected 2 scopes, got %d", len(c.Scopes))
		}
		if c.Scopes[1].StartLine != 4 {
			t.Errorf("expected add to start on line 4, got %d", c.Scopes[1].StartLine)
		}
		if c.Scopes[1].EndLine != 7 {
			t.Errorf("expected add to end on line 7, got %d", c.Scopes[1].EndLine)
		}
	})

	t.Run("field line is class scope only", func(t *testing.T) {
		c := r.ContextForContent(ctx, "Calculator.java", []byte(javaSample), 2)
		if got := c.Path(); got != "Calculator" {
			t.Errorf("expected path Calculator, got %q", got)
		}
	})

	t.Run("breadcrumb format", func(t *testing.T) {
		c := r.ContextForContent(ctx, "Calculator.java", []byte(javaSample), 10)
		want := "Calculator(1-12) → reset(9-11)"
		if got := c.Breadcrumb(); got != want {
			t.Errorf("expected breadcrumb %q, got %q", want, got)
		}
	})
}

func TestResolver_CacheSingleParse(t *testing.T) {
	cache := NewParseCache()
	r := NewResolver(WithCache(cache))
	ctx := context.Background()

	r.ContextForContent(ctx, "sample.py", []byte(pythonSample), 3)
	r.ContextForContent(ctx, "sample.py", []byte(pythonSample), 7)
	r.ContextForContent(ctx, "sample.py", nil, 2)

	if got := cache.Len(); got != 1 {
		t.Errorf("expected one cache entry after repeated queries, got %d", got)
	}
}

func TestResolver_ContextFor_ReadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.py")
	if err := os.WriteFile(path, []byte(pythonSample), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewResolver()
	c, err := r.ContextFor(context.Background(), path, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.Path(); got != "Outer.method" {
		t.Errorf("expected path Outer.method, got %q", got)
	}
}

func TestResolver_ContextFor_MissingFile(t *testing.T) {
	r := NewResolver()
	if _, err := r.ContextFor(context.Background(), "/does/not/exist.py", 1); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestResolver_UnknownLanguageFallsBack(t *testing.T) {
	r := NewResolver()
	src := `function greet(name) {
    return "hi " + name;
}
`
	c := r.ContextForContent(context.Background(), "script.js", []byte(src), 2)
	if !c.Approximate {
		t.Error("unknown language should resolve approximately")
	}
}

func TestTextScan_Python(t *testing.T) {
	decls := pythonTextScan([]byte(pythonSample))

	byName := make(map[string]Scope, len(decls))
	for _, d := range decls {
		byName[d.Name] = d
	}

	outer, ok := byName["Outer"]
	if !ok {
		t.Fatal("expected class Outer in text scan results")
	}
	if !outer.Covers(3) {
		t.Errorf("Outer should cover line 3, got %d-%d", outer.StartLine, outer.EndLine)
	}

	method, ok := byName["method"]
	if !ok {
		t.Fatal("expected method in text scan results")
	}
	if method.Covers(7) {
		t.Errorf("method should not cover line 7, got %d-%d", method.StartLine, method.EndLine)
	}
}

func TestTextScan_Java(t *testing.T) {
	decls := braceTextScan([]byte(javaSample))

	byName := make(map[string]Scope, len(decls))
	for _, d := range decls {
		byName[d.Name] = d
	}

	if cls, ok := byName["Calculator"]; !ok {
		t.Fatal("expected class Calculator in text scan results")
	} else if cls.EndLine != 12 {
		t.Errorf("expected Calculator to end on line 12, got %d", cls.EndLine)
	}

	if m, ok := byName["add"]; !ok {
		t.Fatal("expected method add in text scan results")
	} else if m.StartLine != 4 || m.EndLine != 7 {
		t.Errorf("expected add on lines 4-7, got %d-%d", m.StartLine, m.EndLine)
	}
}
