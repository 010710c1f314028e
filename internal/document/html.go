package document

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// LoadHTML reads a CDS published as a web page. Table rows become lines with
// one cell per <td>/<th>; headings, paragraphs and list items become
// single-cell lines. The whole page is returned as one Document page.
func LoadHTML(data []byte, source string) (Document, error) {
	node, err := html.Parse(bytes.NewReader(data))
	if err != nil || node == nil {
		return Document{}, fmt.Errorf("%w: %s: %v", ErrUnreadable, source, err)
	}
	root := findFirst(node, "body")
	if root == nil {
		root = node
	}
	var lines []Line
	collectLines(&lines, root)
	doc := Document{Source: source, Pages: []Page{{Number: 1, Lines: lines, Grid: DetectGrid(lines)}}}
	if doc.Empty() {
		return Document{}, fmt.Errorf("%w: %s: no extractable text", ErrUnreadable, source)
	}
	return doc, nil
}

func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && strings.EqualFold(n.Data, tag) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if f := findFirst(c, tag); f != nil {
			return f
		}
	}
	return nil
}

func collectLines(out *[]Line, n *html.Node) {
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "script", "style", "noscript", "nav", "footer", "iframe":
			return
		case "tr":
			var cells []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
					cells = append(cells, textOf(c))
				}
			}
			if l := NewLine(cells...); l.Text != "" {
				*out = append(*out, l)
			}
			return
		case "p", "h1", "h2", "h3", "h4", "h5", "h6", "li", "caption", "dt", "dd":
			if l := NewLine(textOf(n)); l.Text != "" {
				*out = append(*out, l)
			}
			return
		}
	}
	if n.Type == html.TextNode && n.Parent != nil && isLooseTextParent(n.Parent) {
		if l := NewLine(n.Data); l.Text != "" {
			*out = append(*out, l)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectLines(out, c)
	}
}

// isLooseTextParent reports whether bare text directly under this element
// should become its own line.
func isLooseTextParent(n *html.Node) bool {
	switch strings.ToLower(n.Data) {
	case "body", "div", "section", "article", "main":
		return true
	}
	return false
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		switch cur.Type {
		case html.TextNode:
			b.WriteString(cur.Data)
		case html.ElementNode:
			switch strings.ToLower(cur.Data) {
			case "script", "style":
				return
			case "br":
				b.WriteByte(' ')
			}
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if cur.Type == html.ElementNode {
			switch strings.ToLower(cur.Data) {
			case "p", "div", "span", "td", "th":
				b.WriteByte(' ')
			}
		}
	}
	walk(n)
	return b.String()
}
