package hints

// Notes:
// - ForBrowserConnect and ForCloudStorage tests cannot use t.Parallel() because they:
//   1. Use t.Setenv() which modifies process environment
//   2. Modify the package-level IsInContainer variable
// These are acceptable gaps: we test observable behavior through environment manipulation.

import (
	"strings"
	"testing"
)

func stubContainer(t *testing.T, inContainer bool) {
	t.Helper()
	orig := IsInContainer
	t.Cleanup(func() { IsInContainer = orig })
	IsInContainer = func() bool { return inContainer }
}

func clearCI(t *testing.T) {
	t.Helper()
	for _, k := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL"} {
		t.Setenv(k, "")
	}
}

// ---------------------------------------------------------------------------
// TestForBrowserConnect - Environment-Aware Suggestions
// ---------------------------------------------------------------------------

func TestForBrowserConnect(t *testing.T) {
	tests := []struct {
		name        string
		container   bool
		ci          string
		noSandbox   string
		browserBin  string
		wantSandbox bool
		wantBin     bool
	}{
		{"in CI", false, "true", "", "", true, true},
		{"in Docker", true, "", "", "", true, true},
		{"sandbox already disabled", true, "", "1", "", false, true},
		{"browser bin set", false, "", "", "/usr/bin/chrome", false, false},
		{"all configured", true, "true", "1", "/usr/bin/chrome", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubContainer(t, tt.container)
			clearCI(t)
			t.Setenv("CI", tt.ci)
			t.Setenv("ROD_NO_SANDBOX", tt.noSandbox)
			t.Setenv("ROD_BROWSER_BIN", tt.browserBin)

			hint := ForBrowserConnect()

			if !strings.HasPrefix(hint, "\n  hint: ") {
				t.Errorf("hint format inconsistent: %q", hint)
			}
			if got := strings.Contains(hint, "ROD_NO_SANDBOX"); got != tt.wantSandbox {
				t.Errorf("ROD_NO_SANDBOX suggested = %v, want %v (%q)", got, tt.wantSandbox, hint)
			}
			if got := strings.Contains(hint, "ROD_BROWSER_BIN"); got != tt.wantBin {
				t.Errorf("ROD_BROWSER_BIN suggested = %v, want %v (%q)", got, tt.wantBin, hint)
			}
			if !strings.Contains(hint, "html2pdf doctor") {
				t.Error("expected doctor suggestion")
			}
		})
	}
}

func TestInCI(t *testing.T) {
	clearCI(t)
	if InCI() {
		t.Error("InCI() = true with no CI variables")
	}

	t.Setenv("GITHUB_ACTIONS", "true")
	if !InCI() {
		t.Error("InCI() = false with GITHUB_ACTIONS set")
	}
}

func TestForCloudStorage(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	if hint := ForCloudStorage(); !strings.Contains(hint, "GOOGLE_APPLICATION_CREDENTIALS") {
		t.Errorf("expected credentials suggestion, got %q", hint)
	}

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/secrets/sa.json")
	if hint := ForCloudStorage(); !strings.Contains(hint, "service account") {
		t.Errorf("expected permission suggestion, got %q", hint)
	}
}

// ---------------------------------------------------------------------------
// TestStaticHints - Fixed Suggestions
// ---------------------------------------------------------------------------

func TestStaticHints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		hint     string
		contains []string
	}{
		{"render timeout", ForRenderTimeout(), []string{"--timeout", "--workers"}},
		{"pool timeout", ForPoolTimeout(), []string{"--pool-size", "--retries"}},
		{"output directory", ForOutputDirectory(), []string{"parent directory", "--no-mkdir"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if !strings.HasPrefix(tt.hint, "\n  hint: ") {
				t.Errorf("hint format inconsistent: %q", tt.hint)
			}
			for _, want := range tt.contains {
				if !strings.Contains(tt.hint, want) {
					t.Errorf("hint %q missing %q", tt.hint, want)
				}
			}
		})
	}
}

func TestForConfigNotFound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		paths    []string
		contains string
	}{
		{"empty paths", []string{}, "--config"},
		{"with user path", []string{"./foo.yaml", "/home/u/.config/go-html2pdf/foo.yaml"}, "create /home/u/.config/go-html2pdf/foo.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hint := ForConfigNotFound(tt.paths)
			if !strings.Contains(hint, "hint:") {
				t.Error("expected hint prefix")
			}
			if !strings.Contains(hint, tt.contains) {
				t.Errorf("expected hint to contain %q, got %q", tt.contains, hint)
			}
		})
	}
}

func TestForPageSize(t *testing.T) {
	t.Parallel()

	if hint := ForPageSize(nil); hint != "" {
		t.Errorf("ForPageSize(nil) = %q, want empty", hint)
	}
	if hint := ForPageSize([]string{"letter", "a4"}); !strings.Contains(hint, "available: letter, a4") {
		t.Errorf("ForPageSize() = %q", hint)
	}
}
