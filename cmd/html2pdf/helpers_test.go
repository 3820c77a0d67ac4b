package main

// Notes:
// - Shared test infrastructure for the CLI: a fake engine that records what
//   it was asked to render, and an Environment wired to it with buffered
//   stdout/stderr. No test in this package launches Chrome.
// No coverage gaps: this is test infrastructure, not production code.

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alnah/go-html2pdf"
)

// ---------------------------------------------------------------------------
// Fake Engine - Records renders instead of launching Chrome
// ---------------------------------------------------------------------------

var errFakeRender = errors.New("fake render failure")

// fakePDF passes the converter's magic-bytes check.
var fakePDF = []byte("%PDF-1.4\n% fake\n%%EOF\n")

// renderLog collects every render across the engines of one pool.
type renderLog struct {
	mu    sync.Mutex
	htmls []string
	cfgs  []html2pdf.Configuration
}

func (l *renderLog) record(html string, cfg *html2pdf.Configuration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.htmls = append(l.htmls, html)
	l.cfgs = append(l.cfgs, *cfg)
}

// rendered returns the recorded HTML sources.
func (l *renderLog) rendered() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.htmls...)
}

// lastConfig returns the configuration of the most recent render.
func (l *renderLog) lastConfig(t *testing.T) html2pdf.Configuration {
	t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.cfgs) == 0 {
		t.Fatal("no render recorded")
	}
	return l.cfgs[len(l.cfgs)-1]
}

// fakeEngine fails any document containing failOn.
type fakeEngine struct {
	log    *renderLog
	failOn string
}

func (e *fakeEngine) Render(_ context.Context, html string, cfg *html2pdf.Configuration) ([]byte, error) {
	e.log.record(html, cfg)
	if e.failOn != "" && strings.Contains(html, e.failOn) {
		return nil, errFakeRender
	}
	return fakePDF, nil
}

func (e *fakeEngine) Close() error { return nil }

// ---------------------------------------------------------------------------
// Test Environment
// ---------------------------------------------------------------------------

type testEnv struct {
	*Environment
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	log    *renderLog
}

// newTestEnv returns an Environment whose engines fail documents containing
// failOn (empty means never).
func newTestEnv(failOn string) *testEnv {
	var stdout, stderr bytes.Buffer
	log := &renderLog{}
	return &testEnv{
		Environment: &Environment{
			Now:    time.Now,
			Stdout: &stdout,
			Stderr: &stderr,
			EngineFactory: func() html2pdf.Engine {
				return &fakeEngine{log: log, failOn: failOn}
			},
		},
		stdout: &stdout,
		stderr: &stderr,
		log:    log,
	}
}

// writeFile creates dir/name with content, making parent directories.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// assertFile fails unless path exists and holds a PDF.
func assertFile(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected output %s: %v", path, err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("%s is not a PDF: %q", path, data)
	}
}
