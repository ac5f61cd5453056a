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
	"github.com/smacker/go-tree-sitter/python"

	"github.com/AleutianAI/tracekit/scope"
)

// PythonFrontEnd extracts dependency facts from Python source code.
//
// Description:
//
//	PythonFrontEnd uses tree-sitter to parse Python source and walks the
//	tree emitting assignment, return, and call facts. It is error-tolerant:
//	syntactically invalid code produces partial facts plus entries in
//	ExtractResult.Errors.
//
// Thread Safety:
//
//	PythonFrontEnd instances are safe for concurrent use. Each Extract call
//	creates its own tree-sitter parser instance internally.
type PythonFrontEnd struct {
	cfg frontEndConfig
}

// NewPythonFrontEnd creates a PythonFrontEnd with the given options.
//
// Example:
//
//	fe := ast.NewPythonFrontEnd(ast.WithScopeResolver(resolver))
//	result, err := fe.Extract(ctx, content, "pkg/mod.py")
func NewPythonFrontEnd(opts ...FrontEndOption) *PythonFrontEnd {
	return &PythonFrontEnd{cfg: newFrontEndConfig(opts)}
}

// Language returns "python".
func (p *PythonFrontEnd) Language() string { return "python" }

// Extensions returns the Python source and stub extensions.
func (p *PythonFrontEnd) Extensions() []string { return []string{".py", ".pyi"} }

// Extract parses Python source and returns its fact stream.
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
func (p *PythonFrontEnd) Extract(ctx context.Context, content []byte, filePath string) (*ExtractResult, error) {
	ctx, span := startExtractSpan(ctx, "python", filePath, len(content))
	defer span.End()

	start := time.Now()

	if err := ctx.Err(); err != nil {
		recordExtractMetrics(ctx, "python", time.Since(start), 0, false)
		return nil, fmt.Errorf("%w: %w", ErrContextCanceled, err)
	}
	if int64(len(content)) > p.cfg.maxFileSize {
		recordExtractMetrics(ctx, "python", time.Since(start), 0, false)
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(content), p.cfg.maxFileSize)
	}
	if !utf8.Valid(content) {
		recordExtractMetrics(ctx, "python", time.Since(start), 0, false)
		return nil, fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidContent)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		recordExtractMetrics(ctx, "python", time.Since(start), 0, false)
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	defer tree.Close()

	result := &ExtractResult{
		FilePath:    filePath,
		Language:    "python",
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

	e := &pythonExtractor{
		ctx:      ctx,
		content:  content,
		filePath: filePath,
		lines:    splitLines(content),
		resolver: p.cfg.resolver,
		result:   result,
		declared: make(map[string]*FunctionInfo),
	}
	e.walk(root)

	factCount := len(result.Assignments) + len(result.Functions) + len(result.Calls)
	setExtractSpanResult(span, factCount, len(result.Errors))
	recordExtractMetrics(ctx, "python", time.Since(start), factCount, true)

	return result, nil
}

// pythonExtractor accumulates facts while descending a Python syntax tree.
type pythonExtractor struct {
	ctx      context.Context
	content  []byte
	filePath string
	lines    sourceLines
	resolver *scope.Resolver
	result   *ExtractResult

	// funcStack tracks the open function declarations, innermost last.
	funcStack []*FunctionInfo

	// declared maps function names seen so far to their info, so call
	// sites can bind positional arguments against the callee's parameter
	// order. Only functions declared before the call site are visible.
	declared map[string]*FunctionInfo
}

func (e *pythonExtractor) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(e.content[n.StartByte():n.EndByte()])
}

// location builds a fact location, resolving the enclosing scope chain.
func (e *pythonExtractor) location(n *sitter.Node) SourceLocation {
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

// currentFunction returns the innermost open function, or nil at file scope.
func (e *pythonExtractor) currentFunction() *FunctionInfo {
	if len(e.funcStack) == 0 {
		return nil
	}
	return e.funcStack[len(e.funcStack)-1]
}

// walk dispatches on statement-level node shapes. Anything unrecognized
// recurses into its children, so new syntax degrades to partial facts
// rather than failing.
func (e *pythonExtractor) walk(node *sitter.Node) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}

		switch child.Type() {
		case "function_definition":
			e.enterFunction(child)
		case "assignment":
			e.handleAssignment(child)
		case "augmented_assignment":
			e.handleAugmented(child)
		case "return_statement":
			e.handleReturn(child)
		case "call":
			e.scanCalls(child, nil)
		default:
			e.walk(child)
		}
	}
}

// enterFunction records a FunctionInfo and walks the body with the function
// open, so returns and calls inside attribute to it.
func (e *pythonExtractor) enterFunction(node *sitter.Node) {
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
func (e *pythonExtractor) parameterNames(params *sitter.Node) []string {
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
		case "identifier":
			names = append(names, e.text(p))
		case "typed_parameter", "list_splat_pattern", "dictionary_splat_pattern":
			if id := findDescendantIdentifier(p); id != nil {
				names = append(names, e.text(id))
			}
		case "default_parameter", "typed_default_parameter":
			names = append(names, e.text(p.ChildByFieldName("name")))
		}
	}
	return names
}

// handleAssignment emits an assignment fact: targets on the left, the
// dependency set unwrapped from the right-hand expression.
func (e *pythonExtractor) handleAssignment(node *sitter.Node) {
	left := node.ChildByFieldName("left")
	right := node.ChildByFieldName("right")

	targets := e.targets(left)
	if len(targets) == 0 {
		return
	}

	deps := make([]string, 0, 4)
	e.collectDeps(right, 0, &deps)

	e.result.Assignments = append(e.result.Assignments, Assignment{
		Targets:      targets,
		Dependencies: deps,
		Expression:   e.text(right),
		Location:     e.location(node),
	})

	e.scanCalls(right, targetNames(targets))

	// Chained assignment: a = b = expr nests a second assignment on the
	// right-hand side.
	if right != nil && right.Type() == "assignment" {
		e.handleAssignment(right)
	}
}

// handleAugmented emits a fact for "x += expr": the target is also one of
// its own dependencies.
func (e *pythonExtractor) handleAugmented(node *sitter.Node) {
	left := node.ChildByFieldName("left")
	right := node.ChildByFieldName("right")

	targets := e.targets(left)
	if len(targets) == 0 {
		return
	}

	deps := make([]string, 0, 4)
	for _, t := range targets {
		deps = appendUnique(deps, t.Name)
	}
	e.collectDeps(right, 0, &deps)

	e.result.Assignments = append(e.result.Assignments, Assignment{
		Targets:      targets,
		Dependencies: deps,
		Expression:   e.text(node),
		Location:     e.location(node),
	})

	e.scanCalls(right, targetNames(targets))
}

// handleReturn attributes returned names to the open function.
func (e *pythonExtractor) handleReturn(node *sitter.Node) {
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
func (e *pythonExtractor) targets(node *sitter.Node) []Target {
	if node == nil {
		return nil
	}
	switch node.Type() {
	case "identifier":
		return []Target{{Name: e.text(node)}}
	case "attribute", "subscript":
		return []Target{{Name: e.text(node), Field: true}}
	case "pattern_list", "tuple_pattern", "list_pattern":
		out := make([]Target, 0, int(node.NamedChildCount()))
		for i := 0; i < int(node.NamedChildCount()); i++ {
			out = append(out, e.targets(node.NamedChild(i))...)
		}
		return out
	default:
		return nil
	}
}

// collectDeps unwraps an expression into the set of names it reads.
//
// Recognized shapes get precise handling; anything else recurses into its
// named children and contributes the union of what they produce, so
// unrecognized syntax degrades to "some names found" rather than failing.
func (e *pythonExtractor) collectDeps(node *sitter.Node, depth int, deps *[]string) {
	if node == nil || depth > MaxExpressionDepth {
		return
	}

	switch node.Type() {
	case "identifier":
		*deps = appendUnique(*deps, e.text(node))

	case "attribute":
		// Member chains depend on the base object: a.b.c reads a.
		e.collectDeps(node.ChildByFieldName("object"), depth+1, deps)

	case "call":
		// A call's value is computed from its arguments, plus the receiver
		// for method calls. The callee name itself is not a data source.
		if fn := node.ChildByFieldName("function"); fn != nil && fn.Type() == "attribute" {
			e.collectDeps(fn.ChildByFieldName("object"), depth+1, deps)
		}
		e.collectDeps(node.ChildByFieldName("arguments"), depth+1, deps)

	case "keyword_argument":
		e.collectDeps(node.ChildByFieldName("value"), depth+1, deps)

	case "lambda":
		e.collectDeps(node.ChildByFieldName("body"), depth+1, deps)

	default:
		for i := 0; i < int(node.NamedChildCount()); i++ {
			e.collectDeps(node.NamedChild(i), depth+1, deps)
		}
	}
}

// scanCalls records call sites to previously declared same-file functions.
// targets carries the assignment targets receiving the outermost call's
// value; calls nested inside argument lists do not inherit them.
func (e *pythonExtractor) scanCalls(node *sitter.Node, targets []string) {
	if node == nil {
		return
	}

	if node.Type() == "call" {
		fnNode := node.ChildByFieldName("function")
		if fnNode != nil && fnNode.Type() == "identifier" {
			name := e.text(fnNode)
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
// parameters by index. Keyword arguments and defaults are not resolved.
func (e *pythonExtractor) recordCall(node *sitter.Node, callee *FunctionInfo, targets []string) {
	argMap := make(map[string]string)
	pos := 0
	if args := node.ChildByFieldName("arguments"); args != nil {
		for i := 0; i < int(args.NamedChildCount()); i++ {
			arg := args.NamedChild(i)
			if arg == nil || arg.Type() == "keyword_argument" {
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

// targetNames flattens targets to their names.
func targetNames(targets []Target) []string {
	out := make([]string, 0, len(targets))
	for _, t := range targets {
		out = append(out, t.Name)
	}
	return out
}

// findDescendantIdentifier returns the first identifier under a node, in
// document order.
func findDescendantIdentifier(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	if node.Type() == "identifier" {
		return node
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if found := findDescendantIdentifier(node.Child(i)); found != nil {
			return found
		}
	}
	return nil
}
