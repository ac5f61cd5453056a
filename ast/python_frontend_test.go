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
	"errors"
	"testing"
)

func extractPython(t *testing.T, source string) *ExtractResult {
	t.Helper()
	fe := NewPythonFrontEnd()
	result, err := fe.Extract(context.Background(), []byte(source), "sample.py")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return result
}

// findAssignment returns the first assignment whose first target has the
// given name.
func findAssignment(t *testing.T, result *ExtractResult, target string) Assignment {
	t.Helper()
	for _, a := range result.Assignments {
		for _, tg := range a.Targets {
			if tg.Name == target {
				return a
			}
		}
	}
	t.Fatalf("no assignment to %q found among %d assignments", target, len(result.Assignments))
	return Assignment{}
}

func hasDep(a Assignment, name string) bool {
	for _, d := range a.Dependencies {
		if d == name {
			return true
		}
	}
	return false
}

func TestPythonFrontEnd_BasicFacts(t *testing.T) {
	source := `def f(p):
    q = p * 2
    return q

x = 1
r = f(x)
b = x + 2
`
	result := extractPython(t, source)

	t.Run("function info", func(t *testing.T) {
		if len(result.Functions) != 1 {
			t.Fatalf("expected 1 function, got %d", len(result.Functions))
		}
		fn := result.Functions[0]
		if fn.Name != "f" {
			t.Errorf("expected function f, got %q", fn.Name)
		}
		if len(fn.Parameters) != 1 || fn.Parameters[0] != "p" {
			t.Errorf("expected parameters [p], got %v", fn.Parameters)
		}
		if len(fn.Returns) != 1 || fn.Returns[0] != "q" {
			t.Errorf("expected returns [q], got %v", fn.Returns)
		}
	})

	t.Run("assignment dependencies", func(t *testing.T) {
		q := findAssignment(t, result, "q")
		if !hasDep(q, "p") {
			t.Errorf("q should depend on p, got %v", q.Dependencies)
		}

		x := findAssignment(t, result, "x")
		if len(x.Dependencies) != 0 {
			t.Errorf("x = 1 should have no dependencies, got %v", x.Dependencies)
		}

		b := findAssignment(t, result, "b")
		if !hasDep(b, "x") {
			t.Errorf("b should depend on x, got %v", b.Dependencies)
		}
	})

	t.Run("call value depends on arguments not callee", func(t *testing.T) {
		r := findAssignment(t, result, "r")
		if !hasDep(r, "x") {
			t.Errorf("r should depend on x, got %v", r.Dependencies)
		}
		if hasDep(r, "f") {
			t.Errorf("callee name must not be a data dependency, got %v", r.Dependencies)
		}
	})

	t.Run("call site", func(t *testing.T) {
		if len(result.Calls) != 1 {
			t.Fatalf("expected 1 call site, got %d", len(result.Calls))
		}
		call := result.Calls[0]
		if call.Callee != "f" {
			t.Errorf("expected callee f, got %q", call.Callee)
		}
		if call.Caller != "" {
			t.Errorf("module-level call should have no caller, got %q", call.Caller)
		}
		if call.ArgToParam["x"] != "p" {
			t.Errorf("expected x bound to p, got %v", call.ArgToParam)
		}
		if len(call.Targets) != 1 || call.Targets[0] != "r" {
			t.Errorf("expected call targets [r], got %v", call.Targets)
		}
	})

	t.Run("scope attached to locations", func(t *testing.T) {
		q := findAssignment(t, result, "q")
		if q.Location.Scope != "f" {
			t.Errorf("expected scope f for q, got %q", q.Location.Scope)
		}
		if q.Location.Line != 2 {
			t.Errorf("expected q on line 2, got %d", q.Location.Line)
		}
		x := findAssignment(t, result, "x")
		if x.Location.Scope != "" {
			t.Errorf("expected module scope for x, got %q", x.Location.Scope)
		}
	})
}

func TestPythonFrontEnd_Targets(t *testing.T) {
	source := `class Counter:
    def bump(self, step):
        self.total += step
        a, b = step, self.total
        obj.field = step
`
	result := extractPython(t, source)

	t.Run("augmented assignment reads its own target", func(t *testing.T) {
		a := findAssignment(t, result, "self.total")
		if len(a.Targets) != 1 || !a.Targets[0].Field {
			t.Fatalf("expected one field target, got %v", a.Targets)
		}
		if !hasDep(a, "self.total") || !hasDep(a, "step") {
			t.Errorf("augmented target should read itself and step, got %v", a.Dependencies)
		}
	})

	t.Run("tuple unpacking yields one target per name", func(t *testing.T) {
		a := findAssignment(t, result, "a")
		if len(a.Targets) != 2 {
			t.Fatalf("expected 2 targets, got %v", a.Targets)
		}
		if a.Targets[1].Name != "b" {
			t.Errorf("expected second target b, got %q", a.Targets[1].Name)
		}
	})

	t.Run("attribute target is a field write", func(t *testing.T) {
		a := findAssignment(t, result, "obj.field")
		if !a.Targets[0].Field {
			t.Error("attribute target should be marked as a field")
		}
	})
}

func TestPythonFrontEnd_MethodCallDependencies(t *testing.T) {
	source := `r = conn.fetch(key)
`
	result := extractPython(t, source)

	a := findAssignment(t, result, "r")
	if !hasDep(a, "conn") {
		t.Errorf("method call should depend on its receiver, got %v", a.Dependencies)
	}
	if !hasDep(a, "key") {
		t.Errorf("method call should depend on its arguments, got %v", a.Dependencies)
	}
	if hasDep(a, "fetch") {
		t.Errorf("method name must not be a dependency, got %v", a.Dependencies)
	}
}

func TestPythonFrontEnd_SyntaxErrorsArePartial(t *testing.T) {
	source := `x = 1
def broken(
y = x + 1
`
	result := extractPython(t, source)

	if len(result.Errors) == 0 {
		t.Error("expected syntax errors to be reported")
	}
	// Facts outside the damaged region still come through.
	found := false
	for _, a := range result.Assignments {
		if len(a.Targets) > 0 && a.Targets[0].Name == "x" {
			found = true
		}
	}
	if !found {
		t.Error("expected partial facts despite syntax errors")
	}
}

func TestPythonFrontEnd_InputGuards(t *testing.T) {
	fe := NewPythonFrontEnd(WithMaxFileSize(16))
	ctx := context.Background()

	t.Run("oversized content", func(t *testing.T) {
		_, err := fe.Extract(ctx, []byte("x = 1 # well beyond sixteen bytes"), "big.py")
		if !errors.Is(err, ErrFileTooLarge) {
			t.Errorf("expected ErrFileTooLarge, got %v", err)
		}
	})

	t.Run("invalid utf-8", func(t *testing.T) {
		_, err := fe.Extract(ctx, []byte{0xff, 0xfe, 0x20}, "bad.py")
		if !errors.Is(err, ErrInvalidContent) {
			t.Errorf("expected ErrInvalidContent, got %v", err)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := fe.Extract(canceled, []byte("x = 1"), "sample.py")
		if err == nil {
			t.Error("expected an error for a canceled context")
		}
	})
}

func TestPythonFrontEnd_NestedCallInArguments(t *testing.T) {
	source := `def inner(v):
    return v

def outer(w):
    return w

r = outer(inner(x))
`
	result := extractPython(t, source)

	if len(result.Calls) != 2 {
		t.Fatalf("expected 2 call sites, got %d", len(result.Calls))
	}
	for _, call := range result.Calls {
		switch call.Callee {
		case "outer":
			if len(call.Targets) != 1 || call.Targets[0] != "r" {
				t.Errorf("outer call should target r, got %v", call.Targets)
			}
		case "inner":
			if len(call.Targets) != 0 {
				t.Errorf("nested call must not inherit assignment targets, got %v", call.Targets)
			}
		default:
			t.Errorf("unexpected callee %q", call.Callee)
		}
	}
}
