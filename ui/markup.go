package ui

import (
	"strings"

	"github.com/rivo/tview"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// blockTags are rendered as their own line; everything else flows inline.
var blockTags = map[string]bool{
	"p": true, "div": true, "li": true, "tr": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "table": true, "ul": true, "ol": true,
	"section": true, "article": true, "header": true, "footer": true,
}

// flattenMarkup converts a portal HTML fragment into plain display text.
// Block elements break lines, cell boundaries become column gaps, and
// everything tview would misread as a color tag is escaped. A fragment that
// fails to parse is shown escaped rather than dropped; stale text beats a
// blank region.
func flattenMarkup(fragment string) string {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		return tview.Escape(strings.TrimSpace(fragment))
	}
	var b strings.Builder
	for _, node := range nodes {
		flattenNode(&b, node)
	}
	return tidyLines(b.String())
}

func flattenNode(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		text := strings.Join(strings.Fields(n.Data), " ")
		if text != "" {
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
				b.WriteByte(' ')
			}
			b.WriteString(tview.Escape(text))
		}
		return
	case html.ElementNode:
		switch n.Data {
		case "br":
			b.WriteByte('\n')
			return
		case "script", "style":
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		flattenNode(b, c)
	}
	if n.Type == html.ElementNode && blockTags[n.Data] {
		b.WriteByte('\n')
	}
}

// tidyLines trims per-line whitespace and collapses runs of blank lines.
func tidyLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := true
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}
