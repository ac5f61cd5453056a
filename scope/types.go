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
	"fmt"
	"strings"
)

// Kind classifies an enclosing declaration.
type Kind string

// Declaration kinds reported by the resolver.
const (
	KindClass     Kind = "class"
	KindInterface Kind = "interface"
	KindEnum      Kind = "enum"
	KindFunction  Kind = "function"
	KindMethod    Kind = "method"
	KindLambda    Kind = "lambda"
	KindAnonymous Kind = "anonymous"
)

// Scope is one enclosing declaration covering a line.
//
// Scopes are value types produced by the resolver; callers must not assume
// the boundaries are exact when the resolver degraded to its text fallback.
type Scope struct {
	// Name is the declared identifier, or a synthetic ordinal tag such as
	// "lambda#2" for declarations with no identifier of their own.
	Name string `json:"name"`

	// StartLine is the 1-based line where the declaration begins.
	StartLine int `json:"start_line"`

	// EndLine is the 1-based line where the declaration's body ends.
	EndLine int `json:"end_line"`

	// Kind classifies the declaration.
	Kind Kind `json:"kind"`
}

// Covers reports whether the scope spans the given 1-based line.
func (s Scope) Covers(line int) bool {
	return s.StartLine <= line && line <= s.EndLine
}

// Context is the resolved enclosing hierarchy for one file position.
type Context struct {
	// FilePath is the path the query was made against.
	FilePath string `json:"file_path"`

	// Line is the 1-based line that was queried.
	Line int `json:"line"`

	// Scopes lists the enclosing declarations, outermost first. Empty when
	// the line sits at file/module scope.
	Scopes []Scope `json:"scopes"`

	// Approximate is true when the boundaries came from the text fallback
	// rather than a native parse.
	Approximate bool `json:"approximate,omitempty"`
}

// Breadcrumb renders the hierarchy as a display string.
//
// Example output: "Outer(10-50) → method(20-45)". Returns the empty string
// when the line is at file scope.
func (c *Context) Breadcrumb() string {
	if c == nil || len(c.Scopes) == 0 {
		return ""
	}
	parts := make([]string, 0, len(c.Scopes))
	for _, s := range c.Scopes {
		parts = append(parts, fmt.Sprintf("%s(%d-%d)", s.Name, s.StartLine, s.EndLine))
	}
	return strings.Join(parts, " → ")
}

// Path renders the hierarchy as a dotted name chain such as
// "Outer.Inner.method". Returns the empty string at file scope.
func (c *Context) Path() string {
	if c == nil || len(c.Scopes) == 0 {
		return ""
	}
	parts := make([]string, 0, len(c.Scopes))
	for _, s := range c.Scopes {
		parts = append(parts, s.Name)
	}
	return strings.Join(parts, ".")
}
