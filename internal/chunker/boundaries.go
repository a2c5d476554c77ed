package chunker

import (
	"strings"
)

// braceBoundaries returns the ends of lines that close a top-level block or
// are blank at depth zero. Comments and string literals are skipped so that
// braces inside them do not count.
func braceBoundaries(text string) []int {
	var (
		boundaries []int
		depth      int
		closed     bool // a '}' on this line returned depth to zero
		blank      = true
		quote      byte // active string delimiter
		block      bool // inside /* */
		line       bool // inside //
	)

	endLine := func(i int) {
		if depth == 0 && !block && quote == 0 && (closed || blank) {
			boundaries = append(boundaries, i+1)
		}
		closed = false
		blank = true
		line = false
		// Only backtick strings span lines
		if quote != '`' {
			quote = 0
		}
	}

	for i := 0; i < len(text); i++ {
		ch := text[i]
		if ch == '\n' {
			endLine(i)
			continue
		}
		if ch != ' ' && ch != '\t' && ch != '\r' {
			blank = false
		}

		switch {
		case line:
		case block:
			if ch == '*' && i+1 < len(text) && text[i+1] == '/' {
				block = false
				i++
			}
		case quote != 0:
			if ch == '\\' && quote != '`' && i+1 < len(text) && text[i+1] != '\n' {
				i++
			} else if ch == quote {
				quote = 0
			}
		case ch == '/' && i+1 < len(text) && text[i+1] == '/':
			line = true
		case ch == '/' && i+1 < len(text) && text[i+1] == '*':
			block = true
			i++
		case ch == '"' || ch == '\'' || ch == '`':
			quote = ch
		case ch == '{':
			depth++
		case ch == '}':
			if depth > 0 {
				depth--
				if depth == 0 {
					closed = true
				}
			}
		}
	}

	return boundaries
}

// continuationKeywords start column-zero lines that belong to the
// preceding statement
var continuationKeywords = []string{"else", "elif", "except", "finally"}

// indentBoundaries returns the start offsets of column-zero statements that
// are outside brackets and triple-quoted strings. A statement directly below
// a decorator or a column-zero comment stays attached to it.
func indentBoundaries(text string) []int {
	var (
		boundaries []int
		depth      int
		triple     string // active """ or '''
		continued  bool   // previous line ended with a backslash
		attached   bool   // previous line was a decorator or comment
	)

	for start := 0; start < len(text); {
		end := strings.IndexByte(text[start:], '\n')
		if end < 0 {
			end = len(text)
		} else {
			end += start + 1
		}
		line := text[start:end]
		trimmed := strings.TrimRight(line, "\r\n")

		topLevel := depth == 0 && triple == "" && !continued
		startsStatement := trimmed != "" && trimmed[0] != ' ' && trimmed[0] != '\t'
		if topLevel && startsStatement {
			if start > 0 && !attached && !isContinuation(trimmed) {
				boundaries = append(boundaries, start)
			}
			attached = trimmed[0] == '@' || trimmed[0] == '#'
		} else if strings.TrimSpace(trimmed) != "" {
			attached = false
		}

		depth, triple = scanPython(trimmed, depth, triple)
		continued = triple == "" && strings.HasSuffix(trimmed, "\\")
		start = end
	}

	return boundaries
}

func isContinuation(line string) bool {
	for _, kw := range continuationKeywords {
		if strings.HasPrefix(line, kw) {
			rest := line[len(kw):]
			if rest == "" || rest[0] == ':' || rest[0] == ' ' {
				return true
			}
		}
	}
	return false
}

// scanPython updates the bracket depth and triple-quote state across one
// line
func scanPython(line string, depth int, triple string) (int, string) {
	for i := 0; i < len(line); i++ {
		if triple != "" {
			if strings.HasPrefix(line[i:], triple) {
				i += len(triple) - 1
				triple = ""
			} else if line[i] == '\\' {
				i++
			}
			continue
		}

		switch ch := line[i]; ch {
		case '#':
			return depth, triple
		case '"', '\'':
			delim := line[i : i+1]
			if strings.HasPrefix(line[i:], strings.Repeat(delim, 3)) {
				triple = strings.Repeat(delim, 3)
				i += 2
				continue
			}
			// Single-line string literal
			for i++; i < len(line) && line[i] != ch; i++ {
				if line[i] == '\\' {
					i++
				}
			}
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		}
	}
	return depth, triple
}
