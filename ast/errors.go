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
	"errors"
	"fmt"
)

// Sentinel errors for common extraction failure conditions.
//
// These errors can be checked using errors.Is() to determine the category
// of failure without inspecting error messages.
var (
	// ErrUnsupportedLanguage indicates that no front-end is available for
	// the requested language or file extension.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrParseFailed indicates that parsing failed completely and no facts
	// could be produced. Partial failures are reported in
	// ExtractResult.Errors while still returning extracted facts.
	ErrParseFailed = errors.New("parse failed")

	// ErrInvalidContent indicates the provided content cannot be processed,
	// typically because it is nil or not valid UTF-8.
	ErrInvalidContent = errors.New("invalid content")

	// ErrFileTooLarge indicates the content exceeds the front-end's size
	// limit. Callers should skip the file rather than retry.
	ErrFileTooLarge = errors.New("file too large")

	// ErrContextCanceled indicates extraction was canceled via context.
	ErrContextCanceled = errors.New("extraction canceled")
)

// ExtractError provides detailed information about an extraction failure.
//
// It wraps an underlying error with the file the failure occurred in, and
// can be unwrapped with errors.As/errors.Is.
type ExtractError struct {
	// FilePath is the file where the failure occurred.
	FilePath string

	// Line is the 1-based line number, or 0 when not line-specific.
	Line int

	// Message describes the failure in human-readable form.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error returns a formatted message including the file location.
func (e *ExtractError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.FilePath, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.FilePath, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *ExtractError) Unwrap() error {
	return e.Cause
}

// WrapExtractError wraps an error with file context. Returns nil for a nil
// error and does not double-wrap ExtractErrors.
func WrapExtractError(err error, filePath string) error {
	if err == nil {
		return nil
	}

	var extractErr *ExtractError
	if errors.As(err, &extractErr) {
		return err
	}

	return &ExtractError{
		FilePath: filePath,
		Message:  err.Error(),
		Cause:    err,
	}
}
