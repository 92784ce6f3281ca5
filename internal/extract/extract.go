package extract

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// VisibleText returns the text of an HTML document with script, style and
// noscript content removed. Each non-blank text run becomes one trimmed
// line; blank runs are dropped.
func VisibleText(input []byte) string {
	node, err := html.Parse(bytes.NewReader(input))
	if err != nil || node == nil {
		return ""
	}
	var lines []string
	collectText(node, &lines)
	return strings.Join(lines, "\n")
}

func collectText(n *html.Node, lines *[]string) {
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "script", "style", "noscript", "template":
			return
		}
	}
	if n.Type == html.TextNode {
		for _, line := range strings.Split(n.Data, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				*lines = append(*lines, trimmed)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, lines)
	}
}
