package html2pdf

// Notes:
// - Shared fakes for unit tests. fakeEngine stands in for Chrome; the fleet
//   records every engine a factory built and the peak number of renders
//   running at once across the whole pool.
// - minimalPDF builds a structurally valid PDF with a correct xref table so
//   pdfcpu can parse it.

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var errFakeRender = errors.New("fake engine failure")

// fakeEngine is a scriptable Engine.
type fakeEngine struct {
	fleet *fakeFleet

	delay  time.Duration
	hang   bool          // block until ctx ends
	stall  time.Duration // sleep this long, ignoring ctx
	err    error         // returned for every render
	output []byte        // nil means minimalPDF(1)
	failIf func(html string) bool

	renders atomic.Int64
	active  atomic.Int32
	overlap atomic.Bool
	closes  atomic.Int32
	lastCfg atomic.Pointer[Configuration]
}

func (e *fakeEngine) Render(ctx context.Context, html string, cfg *Configuration) ([]byte, error) {
	if e.active.Add(1) > 1 {
		e.overlap.Store(true)
	}
	defer e.active.Add(-1)

	if e.fleet != nil {
		e.fleet.enter()
		defer e.fleet.leave()
	}

	e.renders.Add(1)
	e.lastCfg.Store(cfg)

	if e.stall > 0 {
		time.Sleep(e.stall)
		return minimalPDF(1), nil
	}
	if e.hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if e.delay > 0 {
		select {
		case <-time.After(e.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if e.failIf != nil && e.failIf(html) {
		return nil, errFakeRender
	}
	if e.err != nil {
		return nil, e.err
	}
	if e.output != nil {
		return e.output, nil
	}
	return minimalPDF(1), nil
}

func (e *fakeEngine) Close() error {
	e.closes.Add(1)
	return nil
}

// fakeFleet builds fakeEngines from a template and tracks them.
type fakeFleet struct {
	template func(*fakeEngine)

	mu      sync.Mutex
	engines []*fakeEngine

	running atomic.Int32
	peak    atomic.Int32
}

func newFakeFleet(template func(*fakeEngine)) *fakeFleet {
	return &fakeFleet{template: template}
}

func (f *fakeFleet) factory() Engine {
	e := &fakeEngine{fleet: f}
	if f.template != nil {
		f.template(e)
	}
	f.mu.Lock()
	f.engines = append(f.engines, e)
	f.mu.Unlock()
	return e
}

func (f *fakeFleet) enter() {
	n := f.running.Add(1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			return
		}
	}
}

func (f *fakeFleet) leave() {
	f.running.Add(-1)
}

func (f *fakeFleet) totalRenders() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, e := range f.engines {
		n += e.renders.Load()
	}
	return n
}

func (f *fakeFleet) anyOverlap() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.engines {
		if e.overlap.Load() {
			return true
		}
	}
	return false
}

// newTestConverter builds a converter backed by a fake fleet.
func newTestConverter(t *testing.T, poolSize int, template func(*fakeEngine), opts ...Option) (*Converter, *fakeFleet) {
	t.Helper()

	fleet := newFakeFleet(template)
	all := append([]Option{
		WithPoolSize(poolSize),
		WithEngineFactory(fleet.factory),
		WithAcquireRetry(DefaultAcquireAttempts, 50*time.Millisecond),
	}, opts...)

	conv, err := NewConverter(all...)
	if err != nil {
		t.Fatalf("NewConverter() error = %v", err)
	}
	t.Cleanup(func() { _ = conv.Close() })
	return conv, fleet
}

// numberedDocs returns n documents written to dir/1.pdf .. dir/n.pdf.
func numberedDocs(dir string, n int) []Document {
	htmls := make([]string, n)
	for i := range htmls {
		htmls[i] = fmt.Sprintf("<h1>doc %d</h1>", i+1)
	}
	return DocumentsFromHTML(dir, htmls, nil)
}

// countPDFs counts .pdf files under dir, recursively.
func countPDFs(t *testing.T, dir string) int {
	t.Helper()
	n := 0
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".pdf") {
			n++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walking %s: %v", dir, err)
	}
	return n
}

// minimalPDF returns a valid PDF with the given number of empty Letter pages.
func minimalPDF(pages int) []byte {
	var buf bytes.Buffer
	var offsets []int

	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")

	kids := make([]string, pages)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pages))
	for range pages {
		obj("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> >>")
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

// recordingSink wraps LocalSink and records calls.
type recordingSink struct {
	LocalSink

	mu       sync.Mutex
	mkdirs   []string
	writes   []string
	mkdirErr error
	writeErr error
}

func (s *recordingSink) MkdirAll(ctx context.Context, dir string) error {
	s.mu.Lock()
	s.mkdirs = append(s.mkdirs, dir)
	err := s.mkdirErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.LocalSink.MkdirAll(ctx, dir)
}

func (s *recordingSink) WriteFile(ctx context.Context, path string, data []byte) error {
	s.mu.Lock()
	s.writes = append(s.writes, path)
	err := s.writeErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.LocalSink.WriteFile(ctx, path, data)
}
