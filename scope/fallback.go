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
	"regexp"
	"strings"
)

// Last-resort declaration patterns for source the native parser rejected.
// These are approximate: they can both miss declarations and match
// declaration-looking lines inside strings or comments.
var (
	// pyDeclRe matches "class Foo" / "def foo" headers, capturing the
	// indentation so the body can be delimited by dedent.
	pyDeclRe = regexp.MustCompile(`^(\s*)(class|def)\s+([A-Za-z_]\w*)`)

	// javaTypeRe matches class/interface/enum/record headers.
	javaTypeRe = regexp.MustCompile(`^\s*(?:(?:public|private|protected|static|final|abstract|sealed|non-sealed|strictfp)\s+)*(class|interface|enum|record)\s+([A-Za-z_]\w*)`)

	// javaMethodRe matches method-looking lines: a name followed by a
	// parameter list and an opening brace on the same line.
	javaMethodRe = regexp.MustCompile(`^\s*(?:(?:public|private|protected|static|final|abstract|synchronized|native|default|strictfp)\s+)*[\w<>\[\]?.,\s]+?\s+([A-Za-z_]\w*)\s*\([^;{)]*\)(?:\s*throws[\w\s,.]+)?\s*\{`)
)

// textScan finds declaration-looking lines with regular expressions and
// delimits their bodies with FindBlockEnd (brace languages) or a dedent scan
// (Python). It is the degraded path for unparseable or oversized files.
func textScan(path string, content []byte) []Scope {
	if languageForPath(path) == "python" {
		return pythonTextScan(content)
	}
	return braceTextScan(content)
}

// pythonTextScan recovers class/def declarations by indentation.
func pythonTextScan(content []byte) []Scope {
	lines := strings.Split(string(content), "\n")
	scopes := make([]Scope, 0)

	for i, line := range lines {
		m := pyDeclRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		kind := KindClass
		if m[2] == "def" {
			kind = KindFunction
			if len(m[1]) > 0 {
				// Indented def: assume a method. This misclassifies
				// nested functions, which is acceptable for the
				// degraded path.
				kind = KindMethod
			}
		}

		scopes = append(scopes, Scope{
			Name:      m[3],
			StartLine: i + 1,
			EndLine:   pythonBodyEnd(lines, i, len(m[1])),
			Kind:      kind,
		})
	}
	return scopes
}

// pythonBodyEnd returns the last line of the suite starting at header line
// idx (0-based): the final non-blank line indented deeper than the header.
func pythonBodyEnd(lines []string, idx, headerIndent int) int {
	end := idx + 1
	for j := idx + 1; j < len(lines); j++ {
		trimmed := strings.TrimSpace(lines[j])
		if trimmed == "" {
			continue
		}
		if indentWidth(lines[j]) <= headerIndent {
			break
		}
		end = j + 1
	}
	return end
}

// indentWidth counts leading whitespace, tabs expanded to a single column.
func indentWidth(line string) int {
	n := 0
	for _, r := range line {
		if r != ' ' && r != '\t' {
			break
		}
		n++
	}
	return n
}

// braceTextScan recovers type and method declarations in brace-delimited
// source, delegating end lines to FindBlockEnd.
func braceTextScan(content []byte) []Scope {
	lines := strings.Split(string(content), "\n")
	scopes := make([]Scope, 0)

	for i, line := range lines {
		if m := javaTypeRe.FindStringSubmatch(line); m != nil {
			scopes = append(scopes, Scope{
				Name:      m[2],
				StartLine: i + 1,
				EndLine:   FindBlockEnd(content, i+1),
				Kind:      javaTypeKind(m[1] + "_declaration"),
			})
			continue
		}
		if m := javaMethodRe.FindStringSubmatch(line); m != nil {
			// Control-flow keywords parse like method names; skip them.
			switch m[1] {
			case "if", "for", "while", "switch", "catch", "synchronized", "return", "new":
				continue
			}
			scopes = append(scopes, Scope{
				Name:      m[1],
				StartLine: i + 1,
				EndLine:   FindBlockEnd(content, i+1),
				Kind:      KindMethod,
			})
		}
	}
	return scopes
}
