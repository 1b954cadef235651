package catalog

import (
	"html"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// markupPattern detects the tags catalog descriptions commonly carry.
var markupPattern = regexp.MustCompile(`(?i)<(p|br|div|span|b|i|strong|em|a|ul|ol|li|h[1-6]|blockquote)[\s>/]`)

// htmlToMarkdown converts an HTML description to markdown.
// Plain text only has its character references decoded.
func htmlToMarkdown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if !markupPattern.MatchString(s) {
		return html.UnescapeString(s)
	}

	md, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return html.UnescapeString(s)
	}
	return strings.TrimSpace(md)
}
