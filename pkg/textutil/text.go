package textutil

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// SummaryLength is the rune limit for derived summaries.
const SummaryLength = 200

// PlainText strips markup and collapses whitespace. Script and style bodies
// are dropped.
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return normalizeText(s)
	}
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return normalizeText(s)
	}
	return normalizeText(extractText(doc))
}

// Summarize returns the plain text of s cut to at most limit runes, on a
// word boundary when one exists. A cut summary ends with "…".
func Summarize(s string, limit int) string {
	text := PlainText(s)
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	cut := string(runes[:limit])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}

func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\x00", " ")
	text = strings.ToValidUTF8(text, "")
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	return strings.Join(strings.Fields(text), " ")
}

func extractText(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		switch node.Type {
		case html.TextNode:
			buf.WriteString(node.Data)
		case html.ElementNode:
			if node.Data == "script" || node.Data == "style" {
				return
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
		if node.Type == html.ElementNode && blockElement(node.Data) {
			buf.WriteString(" ")
		}
	}
	walk(n)
	return buf.String()
}

func blockElement(tag string) bool {
	switch tag {
	case "p", "br", "div", "li", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "pre", "tr":
		return true
	}
	return false
}
