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
	"strings"
	"sync"

	"github.com/AleutianAI/tracekit/scope"
)

// FrontEnd defines the contract for language-specific fact extraction.
//
// Description:
//
//	FrontEnd implementations walk a parsed syntax tree and emit dependency
//	facts in the common ExtractResult format, so the graph builder stays
//	language-agnostic. Each implementation handles one language but all
//	produce the same fact shape.
//
//	Implementations must be:
//	- Context-aware: cancellation checked around the parse.
//	- Error-tolerant: partial facts returned for syntactically invalid
//	  code; unrecognized expression shapes degrade to recursing into
//	  children rather than failing.
//
// Thread Safety:
//
//	Implementations are safe for concurrent use; each Extract call creates
//	its own tree-sitter parser internally.
type FrontEnd interface {
	// Extract walks the source and returns its fact stream.
	//
	// Returns a non-nil ExtractResult on success, possibly with
	// ExtractResult.Errors populated for partial failures. A non-nil error
	// means no facts could be produced at all (invalid UTF-8, oversized
	// content, canceled context).
	Extract(ctx context.Context, content []byte, filePath string) (*ExtractResult, error)

	// Language returns the canonical lowercase language name.
	Language() string

	// Extensions returns the file extensions this front-end handles,
	// including the leading dot, lowercase.
	Extensions() []string
}

// Registry manages front-end instances by language and file extension.
//
// Thread Safety:
//
//	Registry is fully thread-safe. Registration uses write locks, lookups
//	use read locks.
type Registry struct {
	mu sync.RWMutex

	byLanguage  map[string]FrontEnd
	byExtension map[string]FrontEnd
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byLanguage:  make(map[string]FrontEnd),
		byExtension: make(map[string]FrontEnd),
	}
}

// Register adds a front-end under its Language() name and all its
// Extensions(). Existing registrations for the same keys are overwritten.
func (r *Registry) Register(fe FrontEnd) {
	if fe == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.byLanguage[fe.Language()] = fe
	for _, ext := range fe.Extensions() {
		r.byExtension[ext] = fe
	}
}

// GetByLanguage returns the front-end for a language name.
func (r *Registry) GetByLanguage(language string) (FrontEnd, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fe, ok := r.byLanguage[language]
	return fe, ok
}

// GetByExtension returns the front-end for a file extension (with dot).
func (r *Registry) GetByExtension(ext string) (FrontEnd, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fe, ok := r.byExtension[strings.ToLower(ext)]
	return fe, ok
}

// Languages returns all registered language names.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	languages := make([]string, 0, len(r.byLanguage))
	for lang := range r.byLanguage {
		languages = append(languages, lang)
	}
	return languages
}

// frontEndConfig holds settings shared by the concrete front-ends.
type frontEndConfig struct {
	maxFileSize int64
	resolver    *scope.Resolver
}

// FrontEndOption configures a front-end instance.
type FrontEndOption func(*frontEndConfig)

// WithMaxFileSize sets the maximum content size a front-end will accept.
func WithMaxFileSize(bytes int64) FrontEndOption {
	return func(c *frontEndConfig) {
		if bytes > 0 {
			c.maxFileSize = bytes
		}
	}
}

// WithScopeResolver sets the resolver used to compute each fact's enclosing
// scope string. Sharing one resolver (and its cache) across front-ends
// avoids re-walking files that both extraction and scope queries touch.
func WithScopeResolver(resolver *scope.Resolver) FrontEndOption {
	return func(c *frontEndConfig) {
		if resolver != nil {
			c.resolver = resolver
		}
	}
}

// newFrontEndConfig applies options over defaults.
func newFrontEndConfig(opts []FrontEndOption) frontEndConfig {
	cfg := frontEndConfig{
		maxFileSize: DefaultMaxFileSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.resolver == nil {
		cfg.resolver = scope.NewResolver()
	}
	return cfg
}

// sourceLines splits content for snippet lookup. Line numbers are 1-based.
type sourceLines []string

func splitLines(content []byte) sourceLines {
	return strings.Split(string(content), "\n")
}

// at returns the trimmed text of a 1-based line, or "" out of range.
func (s sourceLines) at(line int) string {
	if line < 1 || line > len(s) {
		return ""
	}
	return strings.TrimSpace(s[line-1])
}

// appendUnique appends name to names if not already present, preserving
// first-appearance order.
func appendUnique(names []string, name string) []string {
	if name == "" {
		return names
	}
	for _, n := range names {
		if n == name {
			return names
		}
	}
	return append(names, name)
}
