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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/python"
)

// DefaultMaxFileSize is the largest file the resolver will hand to a native
// parser. Larger files are resolved through the text fallback instead, to
// bound memory and latency.
const DefaultMaxFileSize = 10 * 1024 * 1024 // 10MB

// ResolverOption configures a Resolver instance.
type ResolverOption func(*Resolver)

// WithCache sets the parse cache the resolver should use. Passing a shared
// cache lets several components resolve against the same file set without
// re-walking files.
func WithCache(cache *ParseCache) ResolverOption {
	return func(r *Resolver) {
		if cache != nil {
			r.cache = cache
		}
	}
}

// WithMaxFileSize sets the native-parse size limit in bytes.
func WithMaxFileSize(bytes int64) ResolverOption {
	return func(r *Resolver) {
		if bytes > 0 {
			r.maxFileSize = bytes
		}
	}
}

// Resolver answers "which declarations enclose this line" queries.
//
// Description:
//
//	For each file the resolver collects every declaration (classes, nested
//	classes, methods, functions, lambdas, anonymous classes) with start and
//	end boundaries, caches the list, and filters it per query. Boundaries
//	come from an ordered chain of strategies: a native tree-sitter parse
//	first, then a regex scan over raw text when the parse fails. Python
//	trees carry usable end positions; Java bodies are brace-delimited, so
//	their end lines are recovered with FindBlockEnd.
//
// Thread Safety:
//
//	Resolver is safe for concurrent use; all mutable state lives in the
//	ParseCache, which locks internally.
type Resolver struct {
	cache       *ParseCache
	maxFileSize int64
}

// NewResolver creates a Resolver.
//
// Example:
//
//	resolver := scope.NewResolver(scope.WithCache(scope.NewParseCache()))
//	ctx, err := resolver.ContextFor(context.Background(), "src/Main.java", 42)
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		cache:       NewParseCache(),
		maxFileSize: DefaultMaxFileSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reset discards the resolver's cached file state.
func (r *Resolver) Reset() {
	r.cache.Reset()
}

// ContextFor resolves the enclosing declarations for a line in a file.
//
// Inputs:
//   - ctx: Context for tracing. The resolve itself is synchronous.
//   - path: Path to the source file. Read from disk on first query only.
//   - line: 1-based target line.
//
// Outputs:
//   - *Context: The enclosing hierarchy, outermost first. Scopes is empty
//     (not nil) when the line is at file scope.
//   - error: Non-nil only when the file cannot be read. Parse failures
//     degrade to the text fallback and are not errors.
func (r *Resolver) ContextFor(ctx context.Context, path string, line int) (*Context, error) {
	if _, ok := r.cache.get(path); !ok {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read source file: %w", err)
		}
		return r.ContextForContent(ctx, path, content, line), nil
	}
	return r.ContextForContent(ctx, path, nil, line), nil
}

// ContextForContent resolves enclosing declarations using content the caller
// already holds, avoiding a second disk read. The content is only consulted
// on the first query for a path; later queries hit the cache.
func (r *Resolver) ContextForContent(ctx context.Context, path string, content []byte, line int) *Context {
	ctx, span := startResolveSpan(ctx, path, line)
	defer span.End()
	start := time.Now()

	entry := r.declarations(ctx, path, content)

	out := &Context{
		FilePath:    path,
		Line:        line,
		Scopes:      make([]Scope, 0, 4),
		Approximate: entry.approximate,
	}
	for _, s := range entry.declarations {
		if s.Covers(line) {
			out.Scopes = append(out.Scopes, s)
		}
	}

	// Outermost first: wider spans enclose narrower ones. Earlier start
	// breaks ties so siblings of equal width stay in source order.
	sort.SliceStable(out.Scopes, func(i, j int) bool {
		wi := out.Scopes[i].EndLine - out.Scopes[i].StartLine
		wj := out.Scopes[j].EndLine - out.Scopes[j].StartLine
		if wi != wj {
			return wi > wj
		}
		return out.Scopes[i].StartLine < out.Scopes[j].StartLine
	})

	setResolveSpanResult(span, len(out.Scopes), entry.approximate)
	recordResolveMetrics(ctx, time.Since(start), entry.approximate)
	return out
}

// declarations returns the cached declaration list for a path, resolving it
// on first use. A nil content triggers a disk read on a cache miss.
func (r *Resolver) declarations(ctx context.Context, path string, content []byte) *cacheEntry {
	if e, ok := r.cache.get(path); ok {
		return e
	}

	if content == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("scope resolve: file unreadable, no declarations",
				slog.String("file", path),
				slog.String("error", err.Error()))
			e := &cacheEntry{declarations: []Scope{}, approximate: true}
			r.cache.put(path, e)
			return e
		}
		content = data
	}

	e := r.resolveDeclarations(ctx, path, content)
	r.cache.put(path, e)
	return e
}

// resolveDeclarations runs the strategy chain over one file's content.
func (r *Resolver) resolveDeclarations(ctx context.Context, path string, content []byte) *cacheEntry {
	lang := languageForPath(path)

	// Oversized files skip the native parser entirely.
	if int64(len(content)) > r.maxFileSize {
		slog.Warn("scope resolve: file exceeds parse limit, using text fallback",
			slog.String("file", path),
			slog.Int("size_bytes", len(content)),
			slog.Int64("limit_bytes", r.maxFileSize))
		return &cacheEntry{declarations: textScan(path, content), approximate: true}
	}

	if decls, ok := r.nativeParse(ctx, lang, content); ok {
		return &cacheEntry{declarations: decls}
	}

	recordFallback(ctx, lang)
	slog.Debug("scope resolve: native parse failed, using text fallback",
		slog.String("file", path),
		slog.String("language", lang))
	return &cacheEntry{declarations: textScan(path, content), approximate: true}
}

// languageForPath maps a file extension to a language tag.
func languageForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py", ".pyi":
		return "python"
	case ".java":
		return "java"
	default:
		return ""
	}
}

// nativeParse parses content with tree-sitter and walks the tree for
// declarations. Returns ok=false when no usable tree could be produced, so
// the caller can fall through to the text scan.
func (r *Resolver) nativeParse(ctx context.Context, lang string, content []byte) ([]Scope, bool) {
	var tsLang *sitter.Language
	switch lang {
	case "python":
		tsLang = python.GetLanguage()
	case "java":
		tsLang = java.GetLanguage()
	default:
		return nil, false
	}

	parser := sitter.NewParser()
	parser.SetLanguage(tsLang)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil || tree == nil {
		return nil, false
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, false
	}

	w := &declWalker{content: content}
	switch lang {
	case "python":
		w.walkPython(root, false)
	case "java":
		w.walkJava(root)
	}

	// A tree that is all errors and produced nothing is no better than the
	// text scan, which may still find declaration-looking lines.
	if root.HasError() && len(w.scopes) == 0 {
		return nil, false
	}
	return w.scopes, true
}

// declWalker accumulates declarations while descending a syntax tree.
type declWalker struct {
	content   []byte
	scopes    []Scope
	lambdaSeq int
	anonSeq   int
}

func (w *declWalker) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(w.content[n.StartByte():n.EndByte()])
}

// walkPython collects classes, functions, and lambdas. Python trees expose
// both start and end positions, so boundaries are taken directly.
func (w *declWalker) walkPython(node *sitter.Node, inClass bool) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}

		switch child.Type() {
		case "class_definition":
			name := w.text(child.ChildByFieldName("name"))
			if name != "" {
				w.scopes = append(w.scopes, Scope{
					Name:      name,
					StartLine: int(child.StartPoint().Row + 1),
					EndLine:   int(child.EndPoint().Row + 1),
					Kind:      KindClass,
				})
			}
			w.walkPython(child, true)

		case "function_definition":
			name := w.text(child.ChildByFieldName("name"))
			kind := KindFunction
			if inClass {
				kind = KindMethod
			}
			if name != "" {
				w.scopes = append(w.scopes, Scope{
					Name:      name,
					StartLine: int(child.StartPoint().Row + 1),
					EndLine:   int(child.EndPoint().Row + 1),
					Kind:      kind,
				})
			}
			w.walkPython(child, false)

		case "lambda":
			w.lambdaSeq++
			w.scopes = append(w.scopes, Scope{
				Name:      fmt.Sprintf("lambda#%d", w.lambdaSeq),
				StartLine: int(child.StartPoint().Row + 1),
				EndLine:   int(child.EndPoint().Row + 1),
				Kind:      KindLambda,
			})
			w.walkPython(child, false)

		default:
			w.walkPython(child, inClass)
		}
	}
}

// walkJava collects classes, interfaces, enums, methods, constructors,
// lambdas, and anonymous class bodies. Brace-delimited bodies get their end
// line from FindBlockEnd; expression-bodied lambdas keep the tree position.
func (w *declWalker) walkJava(node *sitter.Node) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}

		switch child.Type() {
		case "class_declaration", "interface_declaration", "enum_declaration", "record_declaration":
			name := w.text(child.ChildByFieldName("name"))
			if name != "" {
				start := int(child.StartPoint().Row + 1)
				w.scopes = append(w.scopes, Scope{
					Name:      name,
					StartLine: start,
					EndLine:   FindBlockEnd(w.content, start),
					Kind:      javaTypeKind(child.Type()),
				})
			}
			w.walkJava(child)

		case "method_declaration", "constructor_declaration":
			name := w.text(child.ChildByFieldName("name"))
			if name != "" {
				start := int(child.StartPoint().Row + 1)
				end := start
				if child.ChildByFieldName("body") != nil {
					end = FindBlockEnd(w.content, start)
				}
				w.scopes = append(w.scopes, Scope{
					Name:      name,
					StartLine: start,
					EndLine:   end,
					Kind:      KindMethod,
				})
			}
			w.walkJava(child)

		case "lambda_expression":
			w.lambdaSeq++
			start := int(child.StartPoint().Row + 1)
			end := int(child.EndPoint().Row + 1)
			if body := child.ChildByFieldName("body"); body != nil && body.Type() == "block" {
				end = FindBlockEnd(w.content, start)
			}
			w.scopes = append(w.scopes, Scope{
				Name:      fmt.Sprintf("lambda#%d", w.lambdaSeq),
				StartLine: start,
				EndLine:   end,
				Kind:      KindLambda,
			})
			w.walkJava(child)

		case "object_creation_expression":
			// An object creation with a class_body is an anonymous class.
			// The body contributes a nesting level of its own.
			if body := findChildOfType(child, "class_body"); body != nil {
				w.anonSeq++
				start := int(body.StartPoint().Row + 1)
				w.scopes = append(w.scopes, Scope{
					Name:      fmt.Sprintf("anon#%d", w.anonSeq),
					StartLine: start,
					EndLine:   FindBlockEnd(w.content, start),
					Kind:      KindAnonymous,
				})
			}
			w.walkJava(child)

		default:
			w.walkJava(child)
		}
	}
}

// javaTypeKind maps a java type declaration node to a scope kind.
func javaTypeKind(nodeType string) Kind {
	switch nodeType {
	case "interface_declaration":
		return KindInterface
	case "enum_declaration":
		return KindEnum
	default:
		return KindClass
	}
}

// findChildOfType returns the first direct child with the given node type.
func findChildOfType(node *sitter.Node, nodeType string) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child != nil && child.Type() == nodeType {
			return child
		}
	}
	return nil
}
