// Package pysource provides a lightweight line-oriented scanner for Python
// source. It extracts function and class blocks with enough structure
// (location, indentation, parameters, docstring presence) for rule-based
// analysis without a full Python parser.
package pysource

import (
	"regexp"
	"strings"
)

// BlockKind distinguishes the top-level constructs the scanner extracts
type BlockKind int

const (
	// KindFunction is a def or async def block
	KindFunction BlockKind = iota

	// KindClass is a class block
	KindClass
)

// String returns a string representation of the block kind
func (k BlockKind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindClass:
		return "class"
	default:
		return "unknown"
	}
}

// Block is a function or class definition located in the source
type Block struct {
	Kind            BlockKind
	Name            string
	StartLine       int // 1-based line of the def/class keyword
	EndLine         int // 1-based inclusive last line of the block body
	Indent          int
	Header          string
	Params          []string
	AnnotatedParams bool // any parameter carries a type annotation
	Decorators      []string
	HasDocstring    bool
}

// BodyLineCount returns the number of lines the block spans
func (b Block) BodyLineCount() int {
	return b.EndLine - b.StartLine + 1
}

// BalanceError reports the first unbalanced bracket found in the source
type BalanceError struct {
	Line      int // 1-based line of the offending delimiter
	Delimiter byte
}

var (
	defPattern   = regexp.MustCompile(`^(\s*)(?:async\s+)?def\s+([A-Za-z_]\w*)\s*\(`)
	classPattern = regexp.MustCompile(`^(\s*)class\s+([A-Za-z_]\w*)`)
)

// IsBlank reports whether a line contains only whitespace
func IsBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// IndentWidth returns the leading indentation of a line, counting tabs as
// four columns
func IndentWidth(line string) int {
	width := 0
	for _, r := range line {
		switch r {
		case ' ':
			width++
		case '\t':
			width += 4
		default:
			return width
		}
	}
	return width
}

// ExtractBlocks scans the lines for def and class definitions and returns
// them in source order. Nested definitions are reported as their own blocks.
func ExtractBlocks(lines []string) []Block {
	var blocks []Block
	var pendingDecorators []string

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "@") {
			pendingDecorators = append(pendingDecorators, trimmed)
			continue
		}

		var block *Block
		if m := defPattern.FindStringSubmatch(line); m != nil {
			params, annotated := parseParams(lines, i)
			block = &Block{
				Kind:            KindFunction,
				Name:            m[2],
				StartLine:       i + 1,
				Indent:          IndentWidth(line),
				Header:          trimmed,
				Params:          params,
				AnnotatedParams: annotated,
			}
		} else if m := classPattern.FindStringSubmatch(line); m != nil {
			block = &Block{
				Kind:      KindClass,
				Name:      m[2],
				StartLine: i + 1,
				Indent:    IndentWidth(line),
				Header:    trimmed,
			}
		}

		if block == nil {
			if trimmed != "" {
				pendingDecorators = nil
			}
			continue
		}

		block.Decorators = pendingDecorators
		pendingDecorators = nil
		block.EndLine = findBlockEnd(lines, i, block.Indent)
		block.HasDocstring = hasDocstring(lines, i, block.EndLine)
		blocks = append(blocks, *block)
	}

	return blocks
}

// findBlockEnd locates the last line belonging to the block that starts at
// startIdx with the given indentation
func findBlockEnd(lines []string, startIdx, indent int) int {
	end := startIdx
	for i := startIdx + 1; i < len(lines); i++ {
		if IsBlank(lines[i]) {
			continue
		}
		if IndentWidth(lines[i]) <= indent {
			break
		}
		end = i
	}
	return end + 1
}

// BlockEnd returns the 1-based inclusive last line of the indented block
// whose header sits at the 1-based startLine
func BlockEnd(lines []string, startLine int) int {
	idx := startLine - 1
	if idx < 0 || idx >= len(lines) {
		return startLine
	}
	return findBlockEnd(lines, idx, IndentWidth(lines[idx]))
}

// hasDocstring reports whether the first statement of the block body is a
// string literal
func hasDocstring(lines []string, startIdx, endLine int) bool {
	headerEnd := startIdx
	// Multi-line signatures end on the line whose code portion ends with ':'
	for i := startIdx; i < endLine && i < len(lines); i++ {
		if codeEndsWithColon(lines[i]) {
			headerEnd = i
			break
		}
	}

	for i := headerEnd + 1; i < endLine && i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}
		return isStringStart(trimmed)
	}
	return false
}

// isStringStart reports whether a statement begins with a string literal,
// allowing the r/b/u/f prefix letters
func isStringStart(s string) bool {
	i := 0
	for i < len(s) && i < 2 && strings.ContainsRune("rRbBuUfF", rune(s[i])) {
		i++
	}
	return i < len(s) && (s[i] == '"' || s[i] == '\'')
}

func codeEndsWithColon(line string) bool {
	code := line
	if idx := strings.Index(code, "#"); idx >= 0 {
		code = code[:idx]
	}
	return strings.HasSuffix(strings.TrimSpace(code), ":")
}

// parseParams extracts the parameter names of a def starting at startIdx,
// following the signature across lines until the opening parenthesis closes.
// The second return reports whether any parameter carries a type annotation.
func parseParams(lines []string, startIdx int) ([]string, bool) {
	var signature strings.Builder
	depth := 0
	started := false

	for i := startIdx; i < len(lines) && i < startIdx+50; i++ {
		for _, r := range lines[i] {
			if r == '(' {
				depth++
				started = true
				if depth == 1 {
					continue
				}
			}
			if r == ')' {
				depth--
				if started && depth == 0 {
					return splitParams(signature.String())
				}
			}
			if started && depth >= 1 {
				signature.WriteRune(r)
			}
		}
		signature.WriteRune(' ')
	}

	return splitParams(signature.String())
}

// splitParams splits a parameter list on top-level commas and strips
// annotations and defaults
func splitParams(signature string) ([]string, bool) {
	var params []string
	annotated := false
	depth := 0
	current := strings.Builder{}

	flush := func() {
		name := strings.TrimSpace(current.String())
		current.Reset()
		if name == "" {
			return
		}
		if strings.Contains(name, ":") {
			annotated = true
		}
		// Drop annotation and default portions
		if idx := strings.IndexAny(name, ":="); idx >= 0 {
			name = strings.TrimSpace(name[:idx])
		}
		name = strings.TrimLeft(name, "*")
		if name != "" {
			params = append(params, name)
		}
	}

	for _, r := range signature {
		switch r {
		case '(', '[', '{':
			depth++
			current.WriteRune(r)
		case ')', ']', '}':
			depth--
			current.WriteRune(r)
		case ',':
			if depth == 0 {
				flush()
			} else {
				current.WriteRune(r)
			}
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return params, annotated
}

// ParamCount returns the number of parameters excluding self and cls
func (b Block) ParamCount() int {
	count := 0
	for _, p := range b.Params {
		if p == "self" || p == "cls" {
			continue
		}
		count++
	}
	return count
}

// CheckBalance scans the source for unbalanced brackets outside strings and
// comments. It returns nil when the delimiters balance.
func CheckBalance(lines []string) *BalanceError {
	type opener struct {
		delim byte
		line  int
	}
	var stack []opener

	inTriple := false
	var tripleQuote byte

	for lineNo, line := range lines {
		i := 0
		for i < len(line) {
			c := line[i]

			if inTriple {
				if strings.HasPrefix(line[i:], strings.Repeat(string(tripleQuote), 3)) {
					inTriple = false
					i += 3
					continue
				}
				i++
				continue
			}

			switch c {
			case '#':
				i = len(line)
			case '"', '\'':
				if strings.HasPrefix(line[i:], strings.Repeat(string(c), 3)) {
					inTriple = true
					tripleQuote = c
					i += 3
					continue
				}
				// Skip a single-line string literal
				j := i + 1
				for j < len(line) {
					if line[j] == '\\' {
						j += 2
						continue
					}
					if line[j] == c {
						break
					}
					j++
				}
				i = j + 1
			case '(', '[', '{':
				stack = append(stack, opener{delim: c, line: lineNo + 1})
				i++
			case ')', ']', '}':
				if len(stack) == 0 || !matches(stack[len(stack)-1].delim, c) {
					return &BalanceError{Line: lineNo + 1, Delimiter: c}
				}
				stack = stack[:len(stack)-1]
				i++
			default:
				i++
			}
		}
	}

	if len(stack) > 0 {
		last := stack[len(stack)-1]
		return &BalanceError{Line: last.line, Delimiter: last.delim}
	}
	return nil
}

func matches(open, close byte) bool {
	switch open {
	case '(':
		return close == ')'
	case '[':
		return close == ']'
	case '{':
		return close == '}'
	default:
		return false
	}
}

var complexityPattern = regexp.MustCompile(`\b(if|elif|for|while|except|and|or|case)\b`)

// CountComplexity estimates cyclomatic complexity for a span of Python
// lines: one plus the number of branch points, loops, exception handlers,
// and boolean operators.
func CountComplexity(lines []string) int {
	complexity := 1
	for _, line := range lines {
		code := line
		if idx := strings.Index(code, "#"); idx >= 0 {
			code = code[:idx]
		}
		complexity += len(complexityPattern.FindAllString(code, -1))
	}
	return complexity
}
