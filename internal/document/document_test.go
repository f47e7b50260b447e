package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const orderedResume = `Summary
Backend engineer focused on payments.
Experience
Acme Corp 2019-2024, built ledger services
Skills
Go, SQL, Kubernetes
Education
BSc Computer Science`

// Skills precede Experience, which enumeration order does not expect
const misorderedResume = `Skills
Go, Kubernetes
Experience
Built payment systems at Acme
Education
BSc Computer Science`

func TestIndex(t *testing.T) {
	t.Run("all sections", func(t *testing.T) {
		sections := Index(orderedResume)
		assert.Equal(t, []string{"Summary", "Experience", "Skills", "Education"}, sections.Present())
	})

	t.Run("alternate headings keep document casing", func(t *testing.T) {
		doc := "PROFILE\nCurious builder\nWork History\nAcme\nDegrees\nBSc"
		sections := Index(doc)

		token, ok := sections.Token(SectionSummary)
		require.True(t, ok)
		assert.Equal(t, "PROFILE", token)
		assert.Equal(t, []SectionName{SectionSummary, SectionExperience, SectionEducation}, sections.Names())

		_, ok = sections.Token(SectionSkills)
		assert.False(t, ok)
	})

	t.Run("first match wins", func(t *testing.T) {
		doc := "Objective\nLead teams\nSummary\nTen years"
		token, _ := Index(doc).Token(SectionSummary)
		assert.Equal(t, "Objective", token)
	})

	t.Run("empty document", func(t *testing.T) {
		assert.Empty(t, Index(""))
	})
}

func TestInDocumentOrder(t *testing.T) {
	sections := Index(misorderedResume)
	assert.Equal(t, []string{"Experience", "Skills", "Education"}, sections.Present())
	assert.Equal(t, []string{"Skills", "Experience", "Education"}, sections.InDocumentOrder(misorderedResume))
}

func TestExtractEnumerationOrder(t *testing.T) {
	tokens := Index(orderedResume).Present()

	tests := []struct {
		token string
		want  string
	}{
		{"Summary", "Summary\nBackend engineer focused on payments."},
		{"Experience", "Experience\nAcme Corp 2019-2024, built ledger services"},
		{"Skills", "Skills\nGo, SQL, Kubernetes"},
		{"Education", "Education\nBSc Computer Science"},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(orderedResume, tt.token, tokens))
		})
	}
}

func TestExtractMisorderedHeadings(t *testing.T) {
	sections := Index(misorderedResume)

	t.Run("enumeration order overruns the section", func(t *testing.T) {
		tokens := EnumerationOrder.Boundaries(misorderedResume, sections)
		assert.Equal(t,
			"Skills\nGo, Kubernetes\nExperience\nBuilt payment systems at Acme",
			Extract(misorderedResume, "Skills", tokens))
		assert.Equal(t,
			"Experience\nBuilt payment systems at Acme\nEducation\nBSc Computer Science",
			Extract(misorderedResume, "Experience", tokens))
	})

	t.Run("document order stops at the next heading", func(t *testing.T) {
		tokens := DocumentOrder.Boundaries(misorderedResume, sections)
		assert.Equal(t, "Skills\nGo, Kubernetes", Extract(misorderedResume, "Skills", tokens))
		assert.Equal(t, "Experience\nBuilt payment systems at Acme", Extract(misorderedResume, "Experience", tokens))
	})
}

func TestExtractEdgeCases(t *testing.T) {
	assert.Equal(t, "", Extract(orderedResume, "Projects", []string{"Projects"}))
	assert.Equal(t, "", Extract(orderedResume, "", nil))
	// token outside the list runs to the end of the document
	assert.Equal(t, "Education\nBSc Computer Science", Extract(orderedResume, "Education", nil))
	// next token only searched after the heading
	doc := "Skills at a glance\nSummary\nDone"
	assert.Equal(t, "Summary\nDone", Extract(doc, "Summary", []string{"Summary", "Skills"}))
}

func TestExtractSection(t *testing.T) {
	text, err := ExtractSection(misorderedResume, SectionSkills, DocumentOrder)
	require.NoError(t, err)
	assert.Equal(t, "Skills\nGo, Kubernetes", text)

	_, err = ExtractSection(misorderedResume, SectionSummary, DocumentOrder)
	assert.ErrorIs(t, err, ErrSectionNotFound)
}

func TestParseSectionName(t *testing.T) {
	name, ok := ParseSectionName(" skills ")
	assert.True(t, ok)
	assert.Equal(t, SectionSkills, name)

	_, ok = ParseSectionName("projects")
	assert.False(t, ok)
}

func TestApply(t *testing.T) {
	doc := "Experience\n  - Managed team of developers\n  - Managed team budget of 1M\nSkills"

	tests := []struct {
		name        string
		doc         string
		snippet     string
		replacement string
		want        string
		applied     bool
	}{
		{
			name:        "first matching line keeps indentation",
			doc:         doc,
			snippet:     "Managed team",
			replacement: "- Led a team of 5 developers",
			want:        "Experience\n  - Led a team of 5 developers\n  - Managed team budget of 1M\nSkills",
			applied:     true,
		},
		{
			name:        "short lines are skipped",
			doc:         doc,
			snippet:     "Skills",
			replacement: "Core Skills",
			want:        doc,
			applied:     false,
		},
		{
			name:        "exactly ten characters is too short",
			doc:         "0123456789\n\t01234567890",
			snippet:     "0123456789",
			replacement: "done",
			want:        "0123456789\n\tdone",
			applied:     true,
		},
		{
			name:        "no match",
			doc:         doc,
			snippet:     "Kubernetes",
			replacement: "anything",
			want:        doc,
			applied:     false,
		},
		{
			name:        "line breaks in replacement are flattened",
			doc:         doc,
			snippet:     "budget",
			replacement: "- Owned a 1M budget\n- Cut costs 20%",
			want:        "Experience\n  - Managed team of developers\n  - Owned a 1M budget - Cut costs 20%\nSkills",
			applied:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, applied := Apply(tt.doc, tt.snippet, tt.replacement)
			assert.Equal(t, tt.applied, applied)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, LineCount(tt.doc), LineCount(got))
		})
	}
}

func TestApplyNoOpIsIdempotent(t *testing.T) {
	once, applied := Apply(orderedResume, "not in the resume", "x")
	require.False(t, applied)
	twice, applied := Apply(once, "not in the resume", "x")
	require.False(t, applied)
	assert.Equal(t, orderedResume, once)
	assert.Equal(t, once, twice)
}

func TestApplyPreservesLineCount(t *testing.T) {
	replacements := []string{"", "one line", "two\nlines", "crlf\r\nline", "\n\n\n"}
	for _, replacement := range replacements {
		got, applied := Apply(orderedResume, "ledger", replacement)
		assert.True(t, applied)
		assert.Equal(t, LineCount(orderedResume), LineCount(got), "replacement %q", replacement)
	}
}

func TestExtractAndPatchEndToEnd(t *testing.T) {
	section, err := ExtractSection(orderedResume, SectionExperience, DocumentOrder)
	require.NoError(t, err)
	require.Contains(t, section, "ledger services")

	patched, applied := Apply(orderedResume, "built ledger services", "Acme Corp 2019-2024, scaled ledger services to 3x volume")
	require.True(t, applied)

	section, err = ExtractSection(patched, SectionExperience, DocumentOrder)
	require.NoError(t, err)
	assert.Equal(t, "Experience\nAcme Corp 2019-2024, scaled ledger services to 3x volume", section)
}

func BenchmarkExtractSection(b *testing.B) {
	doc := strings.Repeat(orderedResume+"\n", 20)
	for b.Loop() {
		_, _ = ExtractSection(doc, SectionSkills, DocumentOrder)
	}
}

func BenchmarkApply(b *testing.B) {
	doc := strings.Repeat(orderedResume+"\n", 20)
	for b.Loop() {
		_, _ = Apply(doc, "Kubernetes", "Go, SQL, Kubernetes, Terraform")
	}
}
