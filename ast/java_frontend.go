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
	"fmt"
	"time"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/AleutianAI/tracekit/scope"
)

// JavaFrontEnd extracts dependency facts from Java source code.
//
// Description:
//
//	JavaFrontEnd uses tree-sitter to parse Java source and walks the tree
//	emitting assignment, field, return, and call facts in the same shape
//	the Python front-end produces, so the graph builder never needs to
//	know which language a fact came from.
//
// Thread Safety:
//
//	JavaFrontEnd instances are safe for concurrent use. Each Extract call
//	creates its own tree-sitter parser instance internally.
type JavaFrontEnd struct {
	cfg frontEndConfig
}

// NewJavaFrontEnd creates a JavaFrontEnd with the given options.
func NewJavaFrontEnd(opts ...FrontEndOption) *JavaFrontEnd {
	return &JavaFrontEnd{cfg: newFrontEndConfig(opts)}
}

// Language returns "java".
func (j *JavaFrontEnd) Language() string { return "java" }

// Extensions returns the Java source extension.
func (j *JavaFrontEnd) Extensions() []string { return []string{".java"} }

// Extract parses Java source and returns its fact stream.
//
// Inputs:
//   - ctx: Context for cancellation. Checked before and after parsing.
//   - content: Raw source bytes. Must be valid UTF-8.
//   - filePath: Path for locations and scope resolution.
//
// Outputs:
//   - *ExtractResult: Facts and metadata. May carry partial results with
//     Errors populated for syntactically invalid code.
//   - error: Non-nil for complete failures: ErrFileTooLarge,
//     ErrInvalidContent, or context errors.
func (j *JavaFrontEnd) Extract(ctx context.Context, content []byte, filePath string) (*ExtractResult, error) {
	ctx, span := startExtractSpan(ctx, "java", filePath, len(content))
	defer span.End()

	start := time.Now()

	if err := ctx.Err(); err != nil {
		recordExtractMetrics(ctx, "java", time.Since(start), 0, false)
		return nil, fmt.Errorf("%w: %w", ErrContextCanceled, err)
	}
	if int64(len(content)) > j.cfg.maxFileSize {
		recordExtractMetrics(ctx, "java", time.Since(start), 0, false)
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(content), j.cfg.maxFileSize)
	}
	if !utf8.Valid(content) {
		recordExtractMetrics(ctx, "java", time.Since(start), 0, false)
		return nil, fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidContent)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(java.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		recordExtractMetrics(ctx, "java", time.Since(start), 0, false)
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	defer tree.Close()

	result := &ExtractResult{
		FilePath:    filePath,
		Language:    "java",
		Assignments: make([]Assignment, 0),
		Functions:   make([]*FunctionInfo, 0),
		Calls:       make([]CallSite, 0),
	}

	root := tree.RootNode()
	if root == nil {
		result.Errors = append(result.Errors, "tree-sitter returned nil root node")
		return result, nil
	}
	if root.HasError() {
		result.Errors = append(result.Errors, "source contains syntax errors")
	}

	e := &javaExtractor{
		ctx:      ctx,
		content:  content,
		filePath: filePath,
		lines:    splitLines(content),
		resolver: j.cfg.resolver,
		result:   result,
		declared: make(map[string]*FunctionInfo),
	}
	e.walk(root)

	factCount := len(result.Assignments) + len(result.Functions) + len(result.Calls)
	setExtractSpanResult(span, factCount, len(result.Errors))
	recordExtractMetrics(ctx, "java", time.Since(start), factCount, true)

	return result, nil
}

// javaExtractor accumulates facts while descending a Java syntax tree.
type javaExtractor struct {
	ctx      context.Context
	content  []byte
	filePath string
	lines    sourceLines
	resolver *scope.Resolver
	result   *ExtractResult

	funcStack []*FunctionInfo
	declared  map[string]*FunctionInfo
}

func (e *javaExtractor) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(e.content[n.StartByte():n.EndByte()])
}

func (e *javaExtractor) location(n *sitter.Node) SourceLocation {
	line := int(n.StartPoint().Row + 1)
	sc := e.resolver.ContextForContent(e.ctx, e.filePath, e.content, line)
	return SourceLocation{
		FilePath: e.filePath,
		Line:     line,
		Column:   int(n.StartPoint().Column),
		Scope:    sc.Path(),
		Snippet:  e.lines.at(line),
	}
}

func (e *javaExtractor) currentFunction() *FunctionInfo {
	if len(e.funcStack) == 0 {
		return nil
	}
	return e.funcStack[len(e.funcStack)-1]
}

// walk dispatches on statement-level node shapes, recursing into anything
// unrecognized.
func (e *javaExtractor) walk(node *sitter.Node) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}

		switch child.Type() {
		case "method_declaration", "constructor_declaration":
			e.enterFunction(child)
		case "local_variable_declaration":
			e.handleDeclarators(child, false)
		case "field_declaration":
			e.handleDeclarators(child, true)
		case "assignment_expression":
			e.handleAssignment(child)
		case "return_statement":
			e.handleReturn(child)
		case "method_invocation":
			e.scanCalls(child, nil)
		default:
			e.walk(child)
		}
	}
}

// enterFunction records a FunctionInfo for a method or constructor and walks
// its body with the function open.
func (e *javaExtractor) enterFunction(node *sitter.Node) {
	name := e.text(node.ChildByFieldName("name"))
	if name == "" {
		e.walk(node)
		return
	}

	fn := &FunctionInfo{
		Name:       name,
		Parameters: e.parameterNames(node.ChildByFieldName("parameters")),
		Location:   e.location(node),
	}
	e.result.Functions = append(e.result.Functions, fn)
	e.declared[name] = fn

	e.funcStack = append(e.funcStack, fn)
	if body := node.ChildByFieldName("body"); body != nil {
		e.walk(body)
	}
	e.funcStack = e.funcStack[:len(e.funcStack)-1]
}

// parameterNames extracts formal parameter names in declaration order.
func (e *javaExtractor) parameterNames(params *sitter.Node) []string {
	names := make([]string, 0, 4)
	if params == nil {
		return names
	}
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		if p == nil {
			continue
		}
		switch p.Type() {
		case "formal_parameter":
			names = append(names, e.text(p.ChildByFieldName("name")))
		case "spread_parameter":
			if id := findDescendantIdentifier(p); id != nil {
				names = append(names, e.text(id))
			}
		}
	}
	return names
}

// handleDeclarators emits one assignment fact per variable_declarator in a
// local variable or field declaration. Declarations without initializers
// still produce a fact with an empty dependency set, so the name exists in
// the graph at its defining location.
func (e *javaExtractor) handleDeclarators(node *sitter.Node, field bool) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		decl := node.NamedChild(i)
		if decl == nil || decl.Type() != "variable_declarator" {
			continue
		}

		name := e.text(decl.ChildByFieldName("name"))
		if name == "" {
			continue
		}
		value := decl.ChildByFieldName("value")

		deps := make([]string, 0, 4)
		e.collectDeps(value, 0, &deps)

		e.result.Assignments = append(e.result.Assignments, Assignment{
			Targets:      []Target{{Name: name, Field: field}},
			Dependencies: deps,
			Expression:   e.text(value),
			Location:     e.location(decl),
		})

		e.scanCalls(value, []string{name})
	}
}

// handleAssignment emits a fact for an assignment expression. Compound
// operators such as += make the target one of its own dependencies.
func (e *javaExtractor) handleAssignment(node *sitter.Node) {
	left := node.ChildByFieldName("left")
	right := node.ChildByFieldName("right")

	targets := e.targets(left)
	if len(targets) == 0 {
		return
	}

	deps := make([]string, 0, 4)
	if e.isCompound(node) {
		for _, t := range targets {
			deps = appendUnique(deps, t.Name)
		}
	}
	e.collectDeps(right, 0, &deps)

	e.result.Assignments = append(e.result.Assignments, Assignment{
		Targets:      targets,
		Dependencies: deps,
		Expression:   e.text(right),
		Location:     e.location(node),
	})

	e.scanCalls(right, targetNames(targets))
}

// isCompound reports whether an assignment uses a compound operator (+=,
// -=, etc.) rather than plain =.
func (e *javaExtractor) isCompound(node *sitter.Node) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil || child.IsNamed() {
			continue
		}
		op := child.Type()
		if len(op) > 1 && op[len(op)-1] == '=' && op != "==" && op != "<=" && op != ">=" && op != "!=" {
			return true
		}
	}
	return false
}

// handleReturn attributes returned names to the open function.
func (e *javaExtractor) handleReturn(node *sitter.Node) {
	fn := e.currentFunction()
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		if fn != nil {
			deps := make([]string, 0, 2)
			e.collectDeps(child, 0, &deps)
			for _, d := range deps {
				fn.Returns = appendUnique(fn.Returns, d)
			}
		}
		e.scanCalls(child, nil)
	}
}

// targets unwraps an assignment left-hand side into Target facts.
func (e *javaExtractor) targets(node *sitter.Node) []Target {
	if node == nil {
		return nil
	}
	switch node.Type() {
	case "identifier":
		return []Target{{Name: e.text(node)}}
	case "field_access", "array_access":
		return []Target{{Name: e.text(node), Field: true}}
	default:
		return nil
	}
}

// collectDeps unwraps an expression into the set of names it reads.
// Unrecognized shapes recurse into named children and contribute the union
// of whatever those children produce.
func (e *javaExtractor) collectDeps(node *sitter.Node, depth int, deps *[]string) {
	if node == nil || depth > MaxExpressionDepth {
		return
	}

	switch node.Type() {
	case "identifier":
		*deps = appendUnique(*deps, e.text(node))

	case "field_access":
		// Member chains depend on the base object: a.b.c reads a.
		e.collectDeps(node.ChildByFieldName("object"), depth+1, deps)

	case "method_invocation":
		e.collectDeps(node.ChildByFieldName("object"), depth+1, deps)
		e.collectDeps(node.ChildByFieldName("arguments"), depth+1, deps)

	case "object_creation_expression":
		e.collectDeps(node.ChildByFieldName("arguments"), depth+1, deps)

	case "lambda_expression":
		e.collectDeps(node.ChildByFieldName("body"), depth+1, deps)

	default:
		for i := 0; i < int(node.NamedChildCount()); i++ {
			e.collectDeps(node.NamedChild(i), depth+1, deps)
		}
	}
}

// scanCalls records call sites whose target is a previously declared
// same-file method called without a receiver. Receiver calls (obj.m()) are
// outside the name-based linkage and contribute dependencies only.
func (e *javaExtractor) scanCalls(node *sitter.Node, targets []string) {
	if node == nil {
		return
	}

	if node.Type() == "method_invocation" {
		name := e.text(node.ChildByFieldName("name"))
		if node.ChildByFieldName("object") == nil && name != "" {
			if callee, ok := e.declared[name]; ok {
				e.recordCall(node, callee, targets)
			}
		}
		if args := node.ChildByFieldName("arguments"); args != nil {
			for i := 0; i < int(args.NamedChildCount()); i++ {
				e.scanCalls(args.NamedChild(i), nil)
			}
		}
		return
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		e.scanCalls(node.NamedChild(i), targets)
	}
}

// recordCall binds positional plain-name arguments to the callee's formal
// parameters by index.
func (e *javaExtractor) recordCall(node *sitter.Node, callee *FunctionInfo, targets []string) {
	argMap := make(map[string]string)
	pos := 0
	if args := node.ChildByFieldName("arguments"); args != nil {
		for i := 0; i < int(args.NamedChildCount()); i++ {
			arg := args.NamedChild(i)
			if arg == nil {
				continue
			}
			if pos >= len(callee.Parameters) {
				break
			}
			if arg.Type() == "identifier" {
				argMap[e.text(arg)] = callee.Parameters[pos]
			}
			pos++
		}
	}

	site := CallSite{
		Callee:     callee.Name,
		ArgToParam: argMap,
		Targets:    targets,
		Location:   e.location(node),
	}
	if cur := e.currentFunction(); cur != nil {
		site.Caller = cur.Name
		cur.Calls = append(cur.Calls, site)
	}
	e.result.Calls = append(e.result.Calls, site)
}
