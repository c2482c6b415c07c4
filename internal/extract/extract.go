package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// DefaultLimit bounds extracted text so prompts stay small enough for
// the inference API.
const DefaultLimit = 5000

// skipElements are non-content tags whose subtrees carry no readable text.
var skipElements = map[string]bool{
	"style":    true,
	"script":   true,
	"noscript": true,
	"iframe":   true,
	"head":     true,
	"meta":     true,
	"link":     true,
	"title":    true,
}

// Text converts a raw message body (HTML or plain text) into normalized
// plain text suitable for inference. Markup is stripped, whitespace is
// collapsed to single spaces, and the result is truncated to limit runes
// (DefaultLimit when limit <= 0). Unparseable input yields an empty
// string, never an error.
func Text(raw string, limit int) string {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return ""
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipElements[strings.ToLower(n.Data)] {
			return
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if b.Len() > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return truncate(collapse(b.String()), limit)
}

// collapse normalizes all runs of whitespace to single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
