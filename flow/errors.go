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

import "errors"

var (
	// ErrGraphFrozen indicates a mutation was attempted after Freeze.
	ErrGraphFrozen = errors.New("graph is frozen")

	// ErrGraphNotReady indicates a traversal was attempted before the
	// graph was built and frozen.
	ErrGraphNotReady = errors.New("graph is not ready")

	// ErrInvalidInput indicates a nil or malformed input to graph
	// construction.
	ErrInvalidInput = errors.New("invalid input")
)
