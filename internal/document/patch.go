package document

import (
	"regexp"
	"strings"
)

// minPatchLineLength keeps short lines such as headings from being rewritten
const minPatchLineLength = 10

var leadingWhitespace = regexp.MustCompile(`^\s*`)

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Apply replaces the first line containing originalSnippet whose trimmed
// length exceeds minPatchLineLength. The replacement keeps the line's
// indentation, and any line breaks in it become spaces so the line count
// never changes. applied is false when no line qualifies.
func Apply(doc, originalSnippet, replacement string) (string, bool) {
	lines := strings.Split(doc, "\n")
	flat := lineBreaks.Replace(replacement)

	for i, line := range lines {
		if !strings.Contains(line, originalSnippet) || len(strings.TrimSpace(line)) <= minPatchLineLength {
			continue
		}
		lines[i] = leadingWhitespace.FindString(line) + flat
		return strings.Join(lines, "\n"), true
	}

	return doc, false
}

// LineCount counts lines the way Apply splits them
func LineCount(doc string) int {
	return strings.Count(doc, "\n") + 1
}
