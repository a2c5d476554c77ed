package chunker

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New()

// headingBoundaries returns the line starts of top-level headings and
// paragraphs. Lists, code blocks and quotes are never split by a boundary.
func headingBoundaries(src string) []int {
	source := []byte(src)
	doc := markdown.Parser().Parse(text.NewReader(source))

	var boundaries []int
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if n.Kind() != ast.KindHeading && n.Kind() != ast.KindParagraph {
			continue
		}
		lines := n.Lines()
		if lines.Len() == 0 {
			continue
		}

		// Segments start after any heading marker; back up to the line start
		start := lines.At(0).Start
		if i := strings.LastIndexByte(src[:start], '\n'); i >= 0 {
			start = i + 1
		} else {
			start = 0
		}

		if start == 0 {
			continue
		}
		if k := len(boundaries); k == 0 || boundaries[k-1] < start {
			boundaries = append(boundaries, start)
		}
	}
	return boundaries
}
