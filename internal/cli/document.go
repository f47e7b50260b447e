package cli

import (
	"fmt"

	"resumeforge/internal/common"
	"resumeforge/internal/document"
	"resumeforge/internal/types"

	"github.com/spf13/cobra"
)

func newSectionsCmd() *cobra.Command {
	var (
		out      common.CommandConfig
		strategy string
	)
	cmd := &cobra.Command{
		Use:   "sections [file]",
		Short: "Show the sections found in a resume or draft",
		Long: `List the Summary, Experience, Skills and Education sections of a document
in the order they appear, with the text each one covers. This is the text
'refine' sends for rewriting.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			boundary, err := parseBoundaryStrategy(strategy)
			if err != nil {
				return err
			}
			runner := newRunner(cmd, out)
			contents, err := runner.Files.ValidateAndReadFiles(args...)
			if err != nil {
				return err
			}
			return runner.Output.HandleOutput(listSections(contents[0], boundary), out)
		},
	}
	cmd.Flags().StringVar(&strategy, "boundary", document.DocumentOrder.String(), "Where a section ends: document-order or enumeration-order")
	addOutputFlags(cmd, &out)
	return cmd
}

// listSections extracts every present section in document order
func listSections(doc string, boundary document.BoundaryStrategy) types.SectionListing {
	sections := document.Index(doc)
	tokens := boundary.Boundaries(doc, sections)
	byToken := make(map[string]document.SectionName, len(sections))
	for name, token := range sections {
		byToken[token] = name
	}

	listing := types.SectionListing{Sections: []types.DocumentSection{}}
	for _, token := range sections.InDocumentOrder(doc) {
		text := document.Extract(doc, token, tokens)
		if text == "" {
			continue
		}
		listing.Sections = append(listing.Sections, types.DocumentSection{
			Name:    string(byToken[token]),
			Heading: token,
			Lines:   document.LineCount(text),
			Text:    text,
		})
	}
	return listing
}

func newPatchCmd() *cobra.Command {
	var (
		out         common.CommandConfig
		original    string
		replacement string
	)
	cmd := &cobra.Command{
		Use:   "patch [draft-file]",
		Short: "Replace one line of a draft",
		Long: `Replace the first line of the draft that contains --original with
--replacement, keeping the line's indentation. Short lines such as headings
are never replaced and the line count never changes. The patched draft is
written to --output or standard output.`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfigFromContext(cmd.Context())
			out.MaxFileSize = cfg.App.MaxFileSize
			if original == "" {
				return fmt.Errorf("--original is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := newRunner(cmd, out)
			contents, err := runner.Files.ValidateAndReadFiles(args...)
			if err != nil {
				return err
			}

			patched, applied := document.Apply(contents[0], original, replacement)
			if !applied {
				return fmt.Errorf("no line longer than a heading contains %q", original)
			}
			return runner.Output.Write(patched, out)
		},
	}
	cmd.Flags().StringVar(&original, "original", "", "Snippet identifying the line to replace")
	cmd.Flags().StringVar(&replacement, "replacement", "", "New text for the line")
	cmd.Flags().StringVarP(&out.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	return cmd
}
