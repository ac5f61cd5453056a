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

import "fmt"

// Size and recursion limits shared by the front-ends.
const (
	// DefaultMaxFileSize is the largest file a front-end will accept (10MB).
	DefaultMaxFileSize = 10 * 1024 * 1024

	// WarnFileSize is the size above which a warning is logged (1MB).
	WarnFileSize = 1 * 1024 * 1024

	// MaxExpressionDepth bounds recursive dependency extraction so
	// pathological expression nesting cannot overflow the stack.
	MaxExpressionDepth = 200
)

// SourceLocation pins a fact to its originating source position.
//
// Created once at extraction time and never mutated afterwards.
type SourceLocation struct {
	// FilePath is the path of the originating file.
	FilePath string `json:"file_path"`

	// Line is the 1-based line number.
	Line int `json:"line"`

	// Column is the 0-based column number.
	Column int `json:"column"`

	// Scope is the dotted enclosing-declaration chain, such as
	// "Outer.Inner.method". Empty at file scope.
	Scope string `json:"scope,omitempty"`

	// Snippet is the trimmed text of the originating source line.
	Snippet string `json:"snippet,omitempty"`
}

// String renders the location as "file:line".
func (l SourceLocation) String() string {
	return fmt.Sprintf("%s:%d", l.FilePath, l.Line)
}

// Target is one left-hand side of an assignment or declaration.
type Target struct {
	// Name is the assigned name. Member assignments keep their full
	// spelling, e.g. "self.total" or "this.count".
	Name string `json:"name"`

	// Field is true when the target is a member/attribute of an object
	// rather than a plain local name.
	Field bool `json:"field,omitempty"`
}

// Assignment is one extracted assignment or declaration fact: the targets,
// the set of names their new value is computed from, and where it happened.
type Assignment struct {
	// Targets are the assigned names, in declaration order.
	Targets []Target `json:"targets"`

	// Dependencies are the distinct names the right-hand expression reads,
	// in first-appearance order.
	Dependencies []string `json:"dependencies"`

	// Expression is the textual right-hand expression, for display.
	Expression string `json:"expression,omitempty"`

	// Location is where the assignment occurs.
	Location SourceLocation `json:"location"`
}

// CallSite records one call to a function declared earlier in the same file.
type CallSite struct {
	// Caller is the enclosing function name, or "" at file scope.
	Caller string `json:"caller,omitempty"`

	// Callee is the called function's declared name.
	Callee string `json:"callee"`

	// ArgToParam maps each plain-name positional argument to the formal
	// parameter it binds, by position. Keyword/named arguments and default
	// values are not resolved; non-name arguments are skipped.
	ArgToParam map[string]string `json:"arg_to_param,omitempty"`

	// Targets are the assignment targets receiving the call's value, when
	// the call is the right-hand side of an assignment.
	Targets []string `json:"targets,omitempty"`

	// Location is where the call occurs.
	Location SourceLocation `json:"location"`
}

// FunctionInfo describes one declared function or method.
//
// Lifecycle: created when the front-end enters the declaration, mutated while
// the body is walked (returns and calls accumulate), read-only after the
// file walk completes.
type FunctionInfo struct {
	// Name is the declared name, unqualified.
	Name string `json:"name"`

	// Parameters are the formal parameter names in declaration order.
	Parameters []string `json:"parameters"`

	// Returns are the distinct variable names appearing in return
	// expressions, collected across all return sites.
	Returns []string `json:"returns,omitempty"`

	// Location is the declaration site.
	Location SourceLocation `json:"location"`

	// Calls are the call sites recorded while walking the body.
	Calls []CallSite `json:"calls,omitempty"`
}

// ExtractResult is the language-agnostic fact stream produced by one
// front-end walk over one file.
type ExtractResult struct {
	// FilePath is the file the facts came from.
	FilePath string `json:"file_path"`

	// Language is the front-end's canonical language name.
	Language string `json:"language"`

	// Assignments are all assignment/declaration facts, in source order.
	Assignments []Assignment `json:"assignments"`

	// Functions are all declared functions/methods, in source order.
	Functions []*FunctionInfo `json:"functions"`

	// Calls are all recorded call sites, including those at file scope
	// (which have no owning FunctionInfo).
	Calls []CallSite `json:"calls,omitempty"`

	// Errors are non-fatal extraction problems, such as syntax errors in
	// the source. Facts before and after the problem are still present.
	Errors []string `json:"errors,omitempty"`
}
