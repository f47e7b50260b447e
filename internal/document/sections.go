// Package document treats free-text resume content as a set of addressable
// sections and applies line-level rewrites to it.
package document

import (
	"regexp"
	"sort"
	"strings"
)

// SectionName identifies one of the fixed resume sections
type SectionName string

const (
	SectionSummary    SectionName = "Summary"
	SectionExperience SectionName = "Experience"
	SectionSkills     SectionName = "Skills"
	SectionEducation  SectionName = "Education"
)

// SectionNames is the enumeration order of the sections
var SectionNames = []SectionName{
	SectionSummary,
	SectionExperience,
	SectionSkills,
	SectionEducation,
}

var sectionPatterns = map[SectionName]*regexp.Regexp{
	SectionSummary:    regexp.MustCompile(`(?i)Summary|Profile|Objective`),
	SectionExperience: regexp.MustCompile(`(?i)Experience|Work History`),
	SectionSkills:     regexp.MustCompile(`(?i)Skills|Proficiencies`),
	SectionEducation:  regexp.MustCompile(`(?i)Education|Degrees`),
}

// ParseSectionName matches a section name case-insensitively
func ParseSectionName(name string) (SectionName, bool) {
	for _, section := range SectionNames {
		if strings.EqualFold(string(section), strings.TrimSpace(name)) {
			return section, true
		}
	}
	return "", false
}

// Sections maps each present section to the heading token found in the document.
// The token is the literal matched text, with the document's own casing.
type Sections map[SectionName]string

// Index finds the first heading token for every section. It is recomputed on
// every call; a section with no match is simply absent.
func Index(doc string) Sections {
	sections := make(Sections, len(SectionNames))
	for _, name := range SectionNames {
		if token := sectionPatterns[name].FindString(doc); token != "" {
			sections[name] = token
		}
	}
	return sections
}

// Token returns the heading token for name
func (s Sections) Token(name SectionName) (string, bool) {
	token, ok := s[name]
	return token, ok
}

// Names returns the present section names in enumeration order
func (s Sections) Names() []SectionName {
	names := make([]SectionName, 0, len(s))
	for _, name := range SectionNames {
		if _, ok := s[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// Present returns the present heading tokens in enumeration order
func (s Sections) Present() []string {
	tokens := make([]string, 0, len(s))
	for _, name := range s.Names() {
		tokens = append(tokens, s[name])
	}
	return tokens
}

// InDocumentOrder returns the present heading tokens sorted by where they
// first occur in doc. Ties keep enumeration order.
func (s Sections) InDocumentOrder(doc string) []string {
	tokens := s.Present()
	sort.SliceStable(tokens, func(i, j int) bool {
		return strings.Index(doc, tokens[i]) < strings.Index(doc, tokens[j])
	})
	return tokens
}
