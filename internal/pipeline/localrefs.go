package pipeline

import (
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Documents are rendered from a temp file, so a relative reference would
// resolve against the temp directory instead of the source tree. These are
// the references rewritten to absolute file:// URLs.
//
// Not rewritten: script[src], srcset, CSS url() and media elements.
var localRefAttrs = map[atom.Atom]string{
	atom.Img:  "src",
	atom.A:    "href",
	atom.Link: "href",
}

// ResolveLocalReferences rewrites relative img, a and link references to
// absolute file:// URLs under sourceDir.
// References escaping sourceDir are left untouched.
// If sourceDir is empty, returns the HTML unchanged.
func ResolveLocalReferences(htmlContent, sourceDir string) (string, error) {
	if sourceDir == "" {
		return htmlContent, nil
	}

	absSourceDir, err := filepath.Abs(sourceDir)
	if err != nil {
		return "", err
	}

	doc, isFragment, err := parseHTML(htmlContent)
	if err != nil {
		return "", err
	}

	for n := range doc.Descendants() {
		if n.Type != html.ElementNode {
			continue
		}
		if attr, ok := localRefAttrs[n.DataAtom]; ok {
			rewriteAttr(n, attr, absSourceDir)
		}
	}

	return renderHTML(doc, isFragment)
}

// parseHTML parses a full document or a fragment.
// Fragments are parsed in body context so no <html><body> wrapper is added.
func parseHTML(content string) (*html.Node, bool, error) {
	trimmed := strings.ToLower(strings.TrimSpace(content))

	if strings.HasPrefix(trimmed, "<!doctype") || strings.HasPrefix(trimmed, "<html") {
		doc, err := html.Parse(strings.NewReader(content))
		return doc, false, err
	}

	body := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
	nodes, err := html.ParseFragment(strings.NewReader(content), body)
	if err != nil {
		return nil, true, err
	}

	container := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return container, true, nil
}

func renderHTML(doc *html.Node, isFragment bool) (string, error) {
	var buf strings.Builder

	if !isFragment {
		if err := html.Render(&buf, doc); err != nil {
			return "", err
		}
		return buf.String(), nil
	}

	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func rewriteAttr(n *html.Node, key, sourceDir string) {
	for i, attr := range n.Attr {
		if attr.Key != key || !isRelativePath(attr.Val) {
			continue
		}

		// Keep any #fragment or ?query out of the filesystem join.
		p, suffix := splitPathSuffix(attr.Val)
		absPath := filepath.Join(sourceDir, filepath.FromSlash(p))
		if !isPathUnderDir(absPath, sourceDir) {
			continue
		}
		n.Attr[i].Val = pathToFileURL(absPath) + suffix
	}
}

// splitPathSuffix separates a reference into its path and a ?query or
// #fragment suffix.
func splitPathSuffix(ref string) (path, suffix string) {
	if i := strings.IndexAny(ref, "?#"); i > 0 {
		return ref[:i], ref[i:]
	}
	return ref, ""
}

// isRelativePath reports whether ref is a relative filesystem reference.
func isRelativePath(ref string) bool {
	if ref == "" || strings.HasPrefix(ref, "#") || strings.HasPrefix(ref, "//") {
		return false
	}
	if u, err := url.Parse(ref); err == nil && u.Scheme != "" {
		return false
	}
	return !filepath.IsAbs(ref) && !strings.HasPrefix(ref, "/")
}

// isPathUnderDir checks that absPath does not escape dir.
func isPathUnderDir(absPath, dir string) bool {
	rel, err := filepath.Rel(dir, absPath)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// pathToFileURL converts an absolute path to a file:// URL.
func pathToFileURL(absPath string) string {
	p := filepath.ToSlash(absPath)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p // C:/x becomes /C:/x
	}
	u := url.URL{Scheme: "file", Path: p}
	return u.String()
}
