package document

import (
	"errors"
	"slices"
	"strings"
)

// ErrSectionNotFound is returned when a section has no heading or no content
var ErrSectionNotFound = errors.New("section not found in document")

// BoundaryStrategy decides which heading ends a section
type BoundaryStrategy int

const (
	// DocumentOrder ends a section at the next heading that actually follows
	// it in the document.
	DocumentOrder BoundaryStrategy = iota
	// EnumerationOrder ends a section at the heading of the next section in
	// enumeration order, wherever that heading sits. When headings appear out
	// of enumeration order the extracted text runs past the real section end.
	// Kept for compatibility with stored drafts analysed the old way.
	EnumerationOrder
)

func (s BoundaryStrategy) String() string {
	if s == EnumerationOrder {
		return "enumeration-order"
	}
	return "document-order"
}

// Extract returns the trimmed text from the first occurrence of headingToken
// up to the next token in tokens (searched after the heading), or to the end
// of the document. Returns "" when headingToken does not occur.
func Extract(doc, headingToken string, tokens []string) string {
	if headingToken == "" {
		return ""
	}
	start := strings.Index(doc, headingToken)
	if start < 0 {
		return ""
	}

	end := len(doc)
	if pos := slices.Index(tokens, headingToken); pos >= 0 && pos < len(tokens)-1 {
		searchFrom := start + len(headingToken)
		if next := strings.Index(doc[searchFrom:], tokens[pos+1]); next >= 0 {
			end = searchFrom + next
		}
	}

	return strings.TrimSpace(doc[start:end])
}

// Boundaries returns the token order the strategy uses for doc
func (s BoundaryStrategy) Boundaries(doc string, sections Sections) []string {
	if s == EnumerationOrder {
		return sections.Present()
	}
	return sections.InDocumentOrder(doc)
}

// ExtractSection indexes doc and extracts the named section
func ExtractSection(doc string, name SectionName, strategy BoundaryStrategy) (string, error) {
	sections := Index(doc)
	token, ok := sections.Token(name)
	if !ok {
		return "", ErrSectionNotFound
	}
	text := Extract(doc, token, strategy.Boundaries(doc, sections))
	if text == "" {
		return "", ErrSectionNotFound
	}
	return text, nil
}
