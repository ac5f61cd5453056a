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
	"fmt"
	"time"
)

// LinkResult summarizes one inter-procedural linking pass.
type LinkResult struct {
	CallsLinked    int
	SyntheticNodes int
}

// Link connects call sites to callee parameters and return values.
//
// Description:
//
//	For every retained call site, Link creates synthetic qualified nodes
//	named callee.param and callee.return, then bridges data across the
//	call boundary:
//
//	  - callee.param depends on the argument name bound to it, so a
//	    backward trace from inside the callee reaches caller data.
//	  - The plain parameter node depends on its qualified form, so
//	    traces written against the bare parameter name cross too.
//	  - callee.return depends on the names the callee returns.
//	  - Each assignment target receiving the call's result depends on
//	    callee.return, closing the r = f(x) chain from r back to x.
//
//	Linking is name-based: two functions with the same name are
//	conflated, which keeps results approximate rather than wrong for
//	impact analysis purposes.
//
// Inputs:
//   - ctx: Context for tracing.
//   - g: Graph previously populated by Build. Must not be frozen.
//
// Outputs:
//   - *LinkResult: Counts for logging.
//   - error: ErrGraphFrozen, or ErrInvalidInput for a nil graph.
func Link(ctx context.Context, g *Graph) (*LinkResult, error) {
	ctx, span := startLinkSpan(ctx)
	defer span.End()

	start := time.Now()

	if g == nil {
		return nil, fmt.Errorf("%w: nil graph", ErrInvalidInput)
	}
	if g.frozen {
		return nil, fmt.Errorf("%w: cannot link a frozen graph", ErrGraphFrozen)
	}

	lr := &LinkResult{}
	for _, call := range g.calls {
		callee, ok := g.functions[call.Callee]
		if !ok {
			continue
		}
		lr.CallsLinked++

		returnNode := call.Callee + ".return"
		if g.nodes[returnNode] == nil {
			lr.SyntheticNodes++
		}
		n := g.ensureNode(returnNode)
		if n.placeholder {
			n.Kind = KindReturn
			n.Location = callee.Location
			n.placeholder = false
		}
		for _, ret := range callee.Returns {
			if err := g.AddDependency(returnNode, ret); err != nil {
				return nil, err
			}
		}

		for arg, param := range call.ArgToParam {
			qualified := call.Callee + "." + param
			if g.nodes[qualified] == nil {
				lr.SyntheticNodes++
			}
			pn := g.ensureNode(qualified)
			if pn.placeholder {
				pn.Kind = KindParameter
				pn.Location = callee.Location
				pn.placeholder = false
			}
			if err := g.AddDependency(qualified, arg); err != nil {
				return nil, err
			}
			if err := g.AddDependency(param, qualified); err != nil {
				return nil, err
			}
		}

		for _, target := range call.Targets {
			if err := g.AddDependency(target, returnNode); err != nil {
				return nil, err
			}
		}
	}

	setLinkSpanResult(span, lr.CallsLinked, lr.SyntheticNodes)
	recordLinkMetrics(ctx, time.Since(start), lr.CallsLinked)

	return lr, nil
}
