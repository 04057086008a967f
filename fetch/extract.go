package fetch

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// ExtractRegions parses an HTML document and returns the inner markup of each
// element whose id is in the allow list. Ids absent from the document are
// simply missing from the result; the caller decides whether that matters.
func ExtractRegions(body []byte, allow []string) (map[string]string, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("fetch: parse document: %w", err)
	}
	wanted := make(map[string]bool, len(allow))
	for _, id := range allow {
		wanted[id] = true
	}
	regions := make(map[string]string, len(allow))
	walk(doc, wanted, regions)
	return regions, nil
}

func walk(n *html.Node, wanted map[string]bool, out map[string]string) {
	if n.Type == html.ElementNode {
		if id := nodeID(n); id != "" && wanted[id] {
			out[id] = innerMarkup(n)
			// Allow-listed regions do not nest; no need to descend further.
			return
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		walk(child, wanted, out)
	}
}

func nodeID(n *html.Node) string {
	for _, attr := range n.Attr {
		if attr.Key == "id" {
			return strings.TrimSpace(attr.Val)
		}
	}
	return ""
}

func innerMarkup(n *html.Node) string {
	var buf bytes.Buffer
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		_ = html.Render(&buf, child)
	}
	return strings.TrimSpace(buf.String())
}
