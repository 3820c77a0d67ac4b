package html2pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"cloud.google.com/go/storage"

	"github.com/alnah/go-html2pdf/internal/fileutil"
)

// Sink is where rendered PDFs land.
// Implementations must be safe for concurrent use by every batch worker.
type Sink interface {
	// MkdirAll creates dir and its parents. Existing directories are not an error.
	MkdirAll(ctx context.Context, dir string) error
	// WriteFile stores data at path. A reader never observes a partial file.
	WriteFile(ctx context.Context, path string, data []byte) error
}

// Compile-time interface checks
var (
	_ Sink = LocalSink{}
	_ Sink = (*GCSSink)(nil)
	_ Sink = (*RoutingSink)(nil)
)

// Permissions for local outputs.
const (
	dirPerm  os.FileMode = 0o750
	filePerm os.FileMode = 0o644
)

// LocalSink writes to the local filesystem.
type LocalSink struct{}

// MkdirAll creates dir with 0750 permissions.
func (LocalSink) MkdirAll(_ context.Context, dir string) error {
	return os.MkdirAll(dir, dirPerm)
}

// WriteFile writes data atomically with 0644 permissions.
func (LocalSink) WriteFile(_ context.Context, path string, data []byte) error {
	return fileutil.WriteFileAtomic(path, data, filePerm)
}

// gcsScheme prefixes Cloud Storage targets.
const gcsScheme = "gs://"

func isGCSPath(p string) bool {
	return strings.HasPrefix(p, gcsScheme)
}

// parseGCSPath splits gs://bucket/object into its parts.
func parseGCSPath(p string) (bucket, object string, err error) {
	if !isGCSPath(p) {
		return "", "", fmt.Errorf("not a %s URL: %q", gcsScheme, p)
	}
	rest := strings.TrimPrefix(p, gcsScheme)
	bucket, object, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" || strings.HasSuffix(object, "/") {
		return "", "", fmt.Errorf("malformed Cloud Storage URL %q: want gs://bucket/object", p)
	}
	return bucket, object, nil
}

// GCSSink writes to Google Cloud Storage.
// Objects become visible only when the upload completes.
type GCSSink struct {
	client *storage.Client
}

// NewGCSSink wraps an existing client. The caller keeps ownership of it.
func NewGCSSink(client *storage.Client) *GCSSink {
	return &GCSSink{client: client}
}

// MkdirAll is a no-op: Cloud Storage has no directories.
func (s *GCSSink) MkdirAll(_ context.Context, _ string) error {
	return nil
}

// WriteFile uploads data to a gs://bucket/object path.
func (s *GCSSink) WriteFile(ctx context.Context, path string, data []byte) error {
	bucket, object, err := parseGCSPath(path)
	if err != nil {
		return err
	}

	w := s.client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = "application/pdf"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("uploading %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing %s: %w", path, err)
	}
	return nil
}

// RoutingSink sends gs:// paths to Cloud Storage and everything else to disk.
// The storage client is created on the first gs:// target, so purely local
// batches never need Google credentials.
type RoutingSink struct {
	Local Sink

	newRemote func(ctx context.Context) (Sink, func() error, error)

	mu        sync.Mutex
	remote    Sink
	closeFunc func() error
}

// NewRoutingSink returns a sink that routes between LocalSink and GCSSink.
func NewRoutingSink() *RoutingSink {
	return &RoutingSink{
		Local:     LocalSink{},
		newRemote: newDefaultGCSSink,
	}
}

func newDefaultGCSSink(ctx context.Context) (Sink, func() error, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("creating storage client: %w", err)
	}
	return NewGCSSink(client), client.Close, nil
}

func (s *RoutingSink) route(ctx context.Context, p string) (Sink, error) {
	if !isGCSPath(p) {
		return s.Local, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.remote != nil {
		return s.remote, nil
	}
	if s.newRemote == nil {
		return nil, fmt.Errorf("no Cloud Storage sink configured for %q", p)
	}
	remote, closeFn, err := s.newRemote(ctx)
	if err != nil {
		return nil, err
	}
	s.remote = remote
	s.closeFunc = closeFn
	return remote, nil
}

// MkdirAll routes to the sink owning dir.
func (s *RoutingSink) MkdirAll(ctx context.Context, dir string) error {
	sink, err := s.route(ctx, dir)
	if err != nil {
		return err
	}
	return sink.MkdirAll(ctx, dir)
}

// WriteFile routes to the sink owning path.
func (s *RoutingSink) WriteFile(ctx context.Context, path string, data []byte) error {
	sink, err := s.route(ctx, path)
	if err != nil {
		return err
	}
	return sink.WriteFile(ctx, path, data)
}

// Close releases the storage client if one was created.
func (s *RoutingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closeFunc == nil {
		return nil
	}
	err := s.closeFunc()
	s.closeFunc = nil
	s.remote = nil
	return err
}

// outputDir returns the parent of a local path or gs:// object.
func outputDir(p string) string {
	if isGCSPath(p) {
		i := strings.LastIndex(p, "/")
		if i < len(gcsScheme) {
			return p
		}
		return p[:i]
	}
	return filepath.Dir(p)
}
