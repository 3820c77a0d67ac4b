package pipeline

// Notes:
// - InjectCSS/InjectBase operate on raw strings; we assert on the resulting
//   markup rather than parsing it back, matching how Chrome consumes it.
// - Malformed tags without a closing '>' fall through to the prepend branch;
//   one case covers it.

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestSanitizeCSS - Style Block Escaping
// ---------------------------------------------------------------------------

func TestSanitizeCSS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain css unchanged", "body { color: red; }", "body { color: red; }"},
		{"closing style escaped", "a{}</style><script>", `a{}<\/style><script>`},
		{"every closing sequence escaped", "</a></b>", `<\/a><\/b>`},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := sanitizeCSS(tt.input); got != tt.want {
				t.Errorf("sanitizeCSS(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestInjectCSS - Style Placement
// ---------------------------------------------------------------------------

func TestInjectCSS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		css  string
		want string
	}{
		{
			name: "empty css returns html unchanged",
			html: "<html><head></head><body></body></html>",
			css:  "",
			want: "<html><head></head><body></body></html>",
		},
		{
			name: "inserted before closing head",
			html: "<html><head><title>x</title></head><body></body></html>",
			css:  "p{}",
			want: "<html><head><title>x</title><style>p{}</style></head><body></body></html>",
		},
		{
			name: "uppercase head matched",
			html: "<HTML><HEAD></HEAD><BODY></BODY></HTML>",
			css:  "p{}",
			want: "<HTML><HEAD><style>p{}</style></HEAD><BODY></BODY></HTML>",
		},
		{
			name: "inserted after body when no head",
			html: `<body class="doc"><p>x</p></body>`,
			css:  "p{}",
			want: `<body class="doc"><style>p{}</style><p>x</p></body>`,
		},
		{
			name: "prepended to fragment",
			html: "<p>x</p>",
			css:  "p{}",
			want: "<style>p{}</style><p>x</p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := InjectCSS(tt.html, tt.css); got != tt.want {
				t.Errorf("InjectCSS() = %q, want %q", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestInjectBase - Base URL Placement
// ---------------------------------------------------------------------------

func TestInjectBase(t *testing.T) {
	t.Parallel()

	const base = "https://example.com/assets/"

	tests := []struct {
		name    string
		html    string
		baseURL string
		want    string
	}{
		{
			name:    "empty base url returns html unchanged",
			html:    "<html><head></head></html>",
			baseURL: "",
			want:    "<html><head></head></html>",
		},
		{
			name:    "first element of head",
			html:    "<html><head><title>x</title></head><body></body></html>",
			baseURL: base,
			want:    `<html><head><base href="https://example.com/assets/"><title>x</title></head><body></body></html>`,
		},
		{
			name:    "head with attributes",
			html:    `<html><head lang="en"></head></html>`,
			baseURL: base,
			want:    `<html><head lang="en"><base href="https://example.com/assets/"></head></html>`,
		},
		{
			name:    "header element is not head",
			html:    "<html><body><header>x</header></body></html>",
			baseURL: base,
			want:    `<html><head><base href="https://example.com/assets/"></head><body><header>x</header></body></html>`,
		},
		{
			name:    "prepended to fragment",
			html:    "<p>x</p>",
			baseURL: base,
			want:    `<base href="https://example.com/assets/"><p>x</p>`,
		},
		{
			name:    "existing base kept",
			html:    `<html><head><base href="/other/"></head></html>`,
			baseURL: base,
			want:    `<html><head><base href="/other/"></head></html>`,
		},
		{
			name:    "unterminated head tag falls back to prepend",
			html:    "<head",
			baseURL: base,
			want:    `<base href="https://example.com/assets/"><head`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := InjectBase(tt.html, tt.baseURL); got != tt.want {
				t.Errorf("InjectBase() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInjectBase_EscapesURL(t *testing.T) {
	t.Parallel()

	got := InjectBase("<p>x</p>", `https://example.com/"><script>`)
	if strings.Contains(got, `"><script>`) {
		t.Errorf("base URL not escaped: %q", got)
	}
	if !strings.Contains(got, "&#34;&gt;&lt;script&gt;") {
		t.Errorf("expected escaped quote and brackets, got %q", got)
	}
}
