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

// scanMode tracks which lexical region the block scanner is inside.
// The four non-code modes are mutually exclusive.
type scanMode int

const (
	modeCode scanMode = iota
	modeString
	modeChar
	modeLineComment
	modeBlockComment
)

// FindBlockEnd returns the 1-based line on which the outermost brace block
// of a declaration closes.
//
// Description:
//
//	Scans forward from the first '{' at or after startLine, counting braces
//	with a character-level state machine that is aware of string literals,
//	character literals, line comments, block comments, and backslash
//	escapes. Braces inside any of those regions are ignored, so a body
//	containing "{" in a string, or a closing brace followed by a trailing
//	line comment (`} // end`), still resolves to the correct line.
//
//	Only '{' and '}' participate in the count. Angle brackets from generics
//	and any other bracket pairs are irrelevant to block nesting and are
//	skipped.
//
// Inputs:
//   - source: Full source text of the file.
//   - startLine: 1-based line where the declaration begins. Values below 1
//     are treated as 1.
//
// Outputs:
//   - int: The 1-based line containing the brace that returns the running
//     count to zero. If no opening brace is found, or the block never
//     closes before end of file, the last line of the source is returned
//     as a degraded result. This function never fails.
func FindBlockEnd(source []byte, startLine int) int {
	if startLine < 1 {
		startLine = 1
	}

	line := 1
	mode := modeCode
	escaped := false
	depth := 0
	opened := false

	for i := 0; i < len(source); i++ {
		c := source[i]

		if c == '\n' {
			// A newline always terminates a line comment. Strings and
			// char literals are treated as terminated too: an unclosed
			// literal is malformed source and resynchronizing at the
			// line break keeps the scan from swallowing the rest of
			// the file.
			if mode == modeLineComment || mode == modeString || mode == modeChar {
				mode = modeCode
			}
			escaped = false
			line++
			continue
		}

		// Everything before the declaration line only advances the line
		// counter. The scan state starts fresh at startLine.
		if line < startLine {
			continue
		}

		switch mode {
		case modeString, modeChar:
			if escaped {
				escaped = false
				continue
			}
			switch c {
			case '\\':
				escaped = true
			case '"':
				if mode == modeString {
					mode = modeCode
				}
			case '\'':
				if mode == modeChar {
					mode = modeCode
				}
			}

		case modeLineComment:
			// Consumed until the newline handled above.

		case modeBlockComment:
			if c == '*' && i+1 < len(source) && source[i+1] == '/' {
				mode = modeCode
				i++
			}

		case modeCode:
			switch c {
			case '"':
				mode = modeString
			case '\'':
				mode = modeChar
			case '/':
				if i+1 < len(source) {
					switch source[i+1] {
					case '/':
						mode = modeLineComment
						i++
					case '*':
						mode = modeBlockComment
						i++
					}
				}
			case '{':
				depth++
				opened = true
			case '}':
				// A stray closer before any opener (startLine pointing
				// into the middle of a block) must not drive the count
				// negative, or it could never return to zero.
				if !opened {
					continue
				}
				depth--
				if depth == 0 {
					return line
				}
			}
		}
	}

	// Unresolved: no opening brace, or the block never closed. Degrade to
	// the last line of the file.
	if len(source) > 0 && source[len(source)-1] == '\n' && line > 1 {
		return line - 1
	}
	return line
}
