package utils

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// lineTags sit on their own line; paragraphTags also get a blank line around them
var (
	lineTags = map[string]bool{
		"div": true, "li": true, "tr": true, "dt": true, "dd": true,
		"ul": true, "ol": true, "table": true, "pre": true,
	}
	paragraphTags = map[string]bool{
		"p": true, "section": true, "article": true, "header": true, "footer": true,
		"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
		"blockquote": true, "hr": true,
	}
)

// HTMLToText extracts the readable text of an HTML document. Scripts and
// styles are dropped, list items become "- " lines and each block element
// starts on its own line.
func HTMLToText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find("script, style, noscript, template, head").Remove()

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}

	var w textWriter
	for _, n := range root.Nodes {
		w.node(n)
	}
	return tidyLines(string(w.buf)), nil
}

type textWriter struct {
	buf []byte
}

// breakLine ends the output with at least n newlines
func (w *textWriter) breakLine(n int) {
	if n == 0 {
		return
	}
	w.buf = []byte(strings.TrimRight(string(w.buf), " \t"))
	if len(w.buf) == 0 {
		return
	}
	have := len(w.buf) - len(strings.TrimRight(string(w.buf), "\n"))
	for ; have < n; have++ {
		w.buf = append(w.buf, '\n')
	}
}

func (w *textWriter) node(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.buf = append(w.buf, collapseSpace(n.Data)...)
		return
	case html.CommentNode:
		return
	}

	breaks := 0
	if n.Type == html.ElementNode {
		switch {
		case n.Data == "br":
			w.buf = append(w.buf, '\n')
			return
		case paragraphTags[n.Data]:
			breaks = 2
		case lineTags[n.Data]:
			breaks = 1
		}
	}

	w.breakLine(breaks)
	if n.Type == html.ElementNode && n.Data == "li" {
		w.buf = append(w.buf, "- "...)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.node(c)
	}
	w.breakLine(breaks)
}

// collapseSpace folds whitespace runs to one space, keeping a single space
// at either edge so adjacent inline elements stay separated
func collapseSpace(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if s != "" {
			return " "
		}
		return ""
	}
	out := strings.Join(fields, " ")
	if unicode.IsSpace(rune(s[0])) {
		out = " " + out
	}
	if unicode.IsSpace(rune(s[len(s)-1])) {
		out += " "
	}
	return out
}

// tidyLines trims every line and keeps at most one blank line in a row
func tidyLines(s string) string {
	var out []string
	blank := false
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			blank = len(out) > 0
			continue
		}
		if blank {
			out = append(out, "")
			blank = false
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// IsHTMLFile reports whether filename has an HTML extension
func IsHTMLFile(filename string) bool {
	ext := GetFileExtension(filename)
	return ext == ".html" || ext == ".htm"
}
