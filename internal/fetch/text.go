package fetch

import (
	"fmt"
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/atom"
	nethtml "golang.org/x/net/html"
)

// blockElements start a new line when rendered to text.
var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Li: true, atom.Ul: true, atom.Ol: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Tr: true, atom.Td: true, atom.Th: true, atom.Table: true, atom.Section: true,
	atom.Article: true, atom.Header: true, atom.Footer: true, atom.Blockquote: true, atom.Pre: true,
	atom.Hr: true, atom.Dd: true, atom.Dt: true,
}

// HTMLToText converts an HTML fragment to plain text. Block elements and <br>
// become line breaks so text in separate blocks never fuses together. Inline
// elements render in place, the way a browser shows them: "Java<b>Script</b>"
// stays "JavaScript" and "<b>8</b>+ years" stays "8+ years". Entities are
// decoded. Plain text input passes through with whitespace collapsed.
func HTMLToText(fragment string) (string, error) {
	if !strings.ContainsAny(fragment, "<&") {
		return cleanWhitespace(fragment), nil
	}

	// Some providers double-escape their HTML ("&lt;p&gt;").
	if !strings.Contains(fragment, "<") && strings.Contains(fragment, "&lt;") {
		fragment = html.UnescapeString(fragment)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find("script, style, noscript").Remove()

	var sb strings.Builder
	for _, n := range doc.Find("body").Nodes {
		renderText(&sb, n)
	}
	return cleanWhitespace(sb.String()), nil
}

func renderText(sb *strings.Builder, n *nethtml.Node) {
	switch n.Type {
	case nethtml.TextNode:
		sb.WriteString(n.Data)
		return
	case nethtml.ElementNode:
		if blockElements[n.DataAtom] {
			sb.WriteString("\n")
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderText(sb, c)
	}

	if n.Type == nethtml.ElementNode && blockElements[n.DataAtom] {
		sb.WriteString("\n")
	}
}

// cleanWhitespace collapses runs of spaces within lines and drops blank lines.
func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
