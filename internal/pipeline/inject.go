package pipeline

import (
	"html"
	"strings"
)

// InjectCSS inserts a <style> block into HTML content.
// Tries </head> first, then <body>, then prepends to the HTML.
// CSS content is sanitized so it cannot close the style element.
func InjectCSS(htmlContent, cssContent string) string {
	if cssContent == "" {
		return htmlContent
	}

	styleBlock := "<style>" + sanitizeCSS(cssContent) + "</style>"
	lowerHTML := strings.ToLower(htmlContent)

	if idx := strings.Index(lowerHTML, "</head>"); idx != -1 {
		return htmlContent[:idx] + styleBlock + htmlContent[idx:]
	}

	if pos := afterOpenTag(htmlContent, lowerHTML, "<body"); pos != -1 {
		return htmlContent[:pos] + styleBlock + htmlContent[pos:]
	}

	return styleBlock + htmlContent
}

// InjectBase inserts <base href> so relative references resolve against baseURL.
// The element goes first in <head>, where it applies to every later reference.
// An existing <base> element is left alone.
func InjectBase(htmlContent, baseURL string) string {
	if baseURL == "" {
		return htmlContent
	}

	lowerHTML := strings.ToLower(htmlContent)
	if hasBaseElement(lowerHTML) {
		return htmlContent
	}

	baseTag := `<base href="` + html.EscapeString(baseURL) + `">`

	if pos := afterOpenTag(htmlContent, lowerHTML, "<head"); pos != -1 {
		return htmlContent[:pos] + baseTag + htmlContent[pos:]
	}

	if pos := afterOpenTag(htmlContent, lowerHTML, "<html"); pos != -1 {
		return htmlContent[:pos] + "<head>" + baseTag + "</head>" + htmlContent[pos:]
	}

	return baseTag + htmlContent
}

// afterOpenTag returns the index just past the '>' closing the first tag
// starting with prefix, or -1. The match must end the tag name, so "<head"
// does not match "<header>".
func afterOpenTag(htmlContent, lowerHTML, prefix string) int {
	from := 0
	for {
		idx := strings.Index(lowerHTML[from:], prefix)
		if idx == -1 {
			return -1
		}
		idx += from
		end := idx + len(prefix)
		if end < len(lowerHTML) && isTagNameEnd(lowerHTML[end]) {
			closeIdx := strings.IndexByte(htmlContent[end:], '>')
			if closeIdx == -1 {
				return -1
			}
			return end + closeIdx + 1
		}
		from = end
	}
}

func isTagNameEnd(c byte) bool {
	switch c {
	case '>', ' ', '\t', '\n', '\r', '/':
		return true
	}
	return false
}

func hasBaseElement(lowerHTML string) bool {
	return afterOpenTag(lowerHTML, lowerHTML, "<base") != -1
}

// sanitizeCSS escapes sequences that could break out of a <style> block.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}
