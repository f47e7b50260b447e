package formatters

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"resumeforge/internal/types"

	"gopkg.in/yaml.v3"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("yaml", "any", &YAMLFormatter{})

	for _, style := range []outputStyle{textStyle, markdownStyle} {
		registry.RegisterFormatter(style.name, "AnalysisResult", &analysisFormatter{style})
		registry.RegisterFormatter(style.name, "TemplateRecommendation", &templateFormatter{style})
		registry.RegisterFormatter(style.name, "InitialDraftOutput", &draftFormatter{style})
		registry.RegisterFormatter(style.name, "SectionRefinement", &refinementFormatter{style})
		registry.RegisterFormatter(style.name, "SkillGapOutput", &skillsFormatter{style})
		registry.RegisterFormatter(style.name, "BulletPointsOutput", &bulletsFormatter{style})
		registry.RegisterFormatter(style.name, "HistoryResponse", &historyFormatter{style})
		registry.RegisterFormatter(style.name, "SectionListing", &sectionsFormatter{style})
	}

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

func getDataType(data any) string {
	switch data.(type) {
	case types.AnalysisResult:
		return "AnalysisResult"
	case types.TemplateRecommendation:
		return "TemplateRecommendation"
	case types.InitialDraftOutput:
		return "InitialDraftOutput"
	case types.SectionRefinement:
		return "SectionRefinement"
	case types.SkillGapOutput:
		return "SkillGapOutput"
	case types.BulletPointsOutput:
		return "BulletPointsOutput"
	case types.HistoryResponse:
		return "HistoryResponse"
	case types.SectionListing:
		return "SectionListing"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// YAMLFormatter renders any data type as YAML using its JSON field names
type YAMLFormatter struct{}

func (yf *YAMLFormatter) Format(data any) (string, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	// JSON is valid YAML; decoding into a node keeps the field order
	var node yaml.Node
	if err := yaml.Unmarshal(jsonData, &node); err != nil {
		return "", err
	}
	clearStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (yf *YAMLFormatter) SupportedType() string {
	return "any"
}

// clearStyle drops the flow and quoting styles inherited from JSON
func clearStyle(n *yaml.Node) {
	n.Style = 0
	for _, child := range n.Content {
		clearStyle(child)
	}
}

// outputStyle holds the markup that differs between text and markdown
type outputStyle struct {
	name    string
	title   func(string) string
	heading func(string) string
	bullet  string
	bold    func(string) string
}

var textStyle = outputStyle{
	name:    "text",
	title:   func(s string) string { return "=== " + strings.ToUpper(s) + " ===\n\n" },
	heading: func(s string) string { return s + ":\n" },
	bullet:  "  - ",
	bold:    func(s string) string { return s },
}

var markdownStyle = outputStyle{
	name:    "markdown",
	title:   func(s string) string { return "# " + s + "\n\n" },
	heading: func(s string) string { return "## " + s + "\n\n" },
	bullet:  "- ",
	bold:    func(s string) string { return "**" + s + "**" },
}

func (st outputStyle) list(out *strings.Builder, heading string, items []string) {
	out.WriteString(st.heading(heading))
	if len(items) == 0 {
		out.WriteString(st.bullet + "(none)\n\n")
		return
	}
	for _, item := range items {
		out.WriteString(st.bullet + item + "\n")
	}
	out.WriteString("\n")
}

func (st outputStyle) advice(out *strings.Builder, heading string, items []types.Advice) {
	lines := make([]string, 0, len(items))
	for _, a := range items {
		lines = append(lines, fmt.Sprintf("[%s] %s", a.Type, a.Detail))
	}
	st.list(out, heading, lines)
}

func mismatch[T any](data any) error {
	var want T
	return fmt.Errorf("expected %T, got %T", want, data)
}

type analysisFormatter struct{ style outputStyle }

func (f *analysisFormatter) Format(data any) (string, error) {
	result, ok := data.(types.AnalysisResult)
	if !ok {
		return "", mismatch[types.AnalysisResult](data)
	}
	st := f.style

	var out strings.Builder
	out.WriteString(st.title("ATS Analysis"))
	out.WriteString(fmt.Sprintf("%s %d/100\n\n", st.bold("Score:"), result.ATSScore))
	st.list(&out, "Keyword Gaps", result.Feedback.KeywordGaps)
	st.list(&out, "Keyword Strengths", result.Feedback.KeywordStrengths)
	st.advice(&out, "Content Improvements", result.Feedback.ContentImprovements)
	st.advice(&out, "Formatting Advice", result.Feedback.FormattingAdvice)
	return strings.TrimRight(out.String(), "\n") + "\n", nil
}

func (f *analysisFormatter) SupportedType() string { return "AnalysisResult" }

type templateFormatter struct{ style outputStyle }

func (f *templateFormatter) Format(data any) (string, error) {
	rec, ok := data.(types.TemplateRecommendation)
	if !ok {
		return "", mismatch[types.TemplateRecommendation](data)
	}
	st := f.style

	var out strings.Builder
	out.WriteString(st.title("Template Recommendation"))
	out.WriteString(fmt.Sprintf("%s %s\n\n", st.bold("Best template:"), rec.BestTemplateType))
	if rec.Justification != "" {
		out.WriteString(rec.Justification + "\n\n")
	}
	lines := make([]string, 0, len(rec.AvailableTemplates))
	for _, tpl := range rec.AvailableTemplates {
		lines = append(lines, fmt.Sprintf("%s (%d%%): %s", tpl.TemplateName, tpl.CompatibilityScore, tpl.Reason))
	}
	st.list(&out, "Templates", lines)
	return strings.TrimRight(out.String(), "\n") + "\n", nil
}

func (f *templateFormatter) SupportedType() string { return "TemplateRecommendation" }

type draftFormatter struct{ style outputStyle }

func (f *draftFormatter) Format(data any) (string, error) {
	draft, ok := data.(types.InitialDraftOutput)
	if !ok {
		return "", mismatch[types.InitialDraftOutput](data)
	}
	return f.style.title("Optimized Draft") + strings.TrimRight(draft.ModifiedDraft, "\n") + "\n", nil
}

func (f *draftFormatter) SupportedType() string { return "InitialDraftOutput" }

type refinementFormatter struct{ style outputStyle }

func (f *refinementFormatter) Format(data any) (string, error) {
	ref, ok := data.(types.SectionRefinement)
	if !ok {
		return "", mismatch[types.SectionRefinement](data)
	}
	st := f.style

	var out strings.Builder
	title := "Section Refinement"
	if ref.SectionTitle != "" {
		title += ": " + ref.SectionTitle
	}
	out.WriteString(st.title(title))
	if len(ref.SuggestedRewrites) == 0 {
		out.WriteString("No rewrites suggested.\n")
		return out.String(), nil
	}
	for i, s := range ref.SuggestedRewrites {
		out.WriteString(st.heading(fmt.Sprintf("Rewrite %d", i+1)))
		out.WriteString(st.bullet + st.bold("Original:") + " " + s.OriginalTextSnippet + "\n")
		out.WriteString(st.bullet + st.bold("Suggested:") + " " + s.SuggestedBullet + "\n\n")
	}
	return strings.TrimRight(out.String(), "\n") + "\n", nil
}

func (f *refinementFormatter) SupportedType() string { return "SectionRefinement" }

type skillsFormatter struct{ style outputStyle }

func (f *skillsFormatter) Format(data any) (string, error) {
	gaps, ok := data.(types.SkillGapOutput)
	if !ok {
		return "", mismatch[types.SkillGapOutput](data)
	}
	lines := make([]string, 0, len(gaps.Suggestions))
	for _, s := range gaps.Suggestions {
		lines = append(lines, f.style.bold(s.Skill+":")+" "+s.Bullet)
	}

	var out strings.Builder
	out.WriteString(f.style.title("Skill Gap Suggestions"))
	f.style.list(&out, "Suggestions", lines)
	return strings.TrimRight(out.String(), "\n") + "\n", nil
}

func (f *skillsFormatter) SupportedType() string { return "SkillGapOutput" }

type bulletsFormatter struct{ style outputStyle }

func (f *bulletsFormatter) Format(data any) (string, error) {
	bullets, ok := data.(types.BulletPointsOutput)
	if !ok {
		return "", mismatch[types.BulletPointsOutput](data)
	}
	var out strings.Builder
	out.WriteString(f.style.title("Bullet Points"))
	f.style.list(&out, bullets.JobTitle, bullets.GeneratedBullets)
	return strings.TrimRight(out.String(), "\n") + "\n", nil
}

func (f *bulletsFormatter) SupportedType() string { return "BulletPointsOutput" }

type historyFormatter struct{ style outputStyle }

func (f *historyFormatter) Format(data any) (string, error) {
	history, ok := data.(types.HistoryResponse)
	if !ok {
		return "", mismatch[types.HistoryResponse](data)
	}
	lines := make([]string, 0, len(history.History))
	for _, h := range history.History {
		lines = append(lines, fmt.Sprintf("#%d %s  %s  ATS %d%%",
			h.ID, h.CreatedAt.UTC().Format(types.HistoryTimeLayout), h.TargetJobTitle, h.ATSScore))
	}

	var out strings.Builder
	out.WriteString(f.style.title("Saved Analyses"))
	f.style.list(&out, fmt.Sprintf("%d saved", len(lines)), lines)
	return strings.TrimRight(out.String(), "\n") + "\n", nil
}

func (f *historyFormatter) SupportedType() string { return "HistoryResponse" }

type sectionsFormatter struct{ style outputStyle }

func (f *sectionsFormatter) Format(data any) (string, error) {
	listing, ok := data.(types.SectionListing)
	if !ok {
		return "", mismatch[types.SectionListing](data)
	}
	st := f.style

	var out strings.Builder
	out.WriteString(st.title("Sections"))
	if len(listing.Sections) == 0 {
		out.WriteString("No known sections found.\n")
		return out.String(), nil
	}
	for _, s := range listing.Sections {
		out.WriteString(st.heading(fmt.Sprintf("%s (%q, %d lines)", s.Name, s.Heading, s.Lines)))
		out.WriteString(strings.TrimRight(s.Text, "\n") + "\n\n")
	}
	return strings.TrimRight(out.String(), "\n") + "\n", nil
}

func (f *sectionsFormatter) SupportedType() string { return "SectionListing" }
