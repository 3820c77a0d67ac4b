package html2pdf

import (
	"context"
	"errors"
	"io"
	"iter"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Converter renders documents through a pool of engines.
// Create with NewConverter, render with RenderBatch, RenderBatchStreaming or
// RenderDocument, and Close when done. A Converter is safe for concurrent
// use; concurrent batches share its pool.
type Converter struct {
	cfg      converterConfig
	pool     *Pool
	ownsPool bool
	sink     Sink
	ownsSink bool
	logger   logrus.FieldLogger
	limiter  *rate.Limiter
}

// NewConverter creates a Converter. Without options it renders A4 portrait
// pages with headless Chrome, one engine per available CPU.
// Returns an error if the page configuration is invalid.
func NewConverter(opts ...Option) (*Converter, error) {
	c := &Converter{
		cfg:      defaultConverterConfig(),
		ownsPool: true,
	}

	for _, opt := range opts {
		opt(c)
	}

	if err := c.cfg.configuration.Validate(); err != nil {
		return nil, err
	}

	if c.pool == nil {
		factory := c.cfg.factory
		if factory == nil {
			factory = RodEngineFactory(c.cfg.timeout)
		}
		c.pool = NewPool(ResolvePoolSize(c.cfg.poolSize), factory)
		c.ownsPool = true
	}

	if c.cfg.workers == 0 {
		c.cfg.workers = c.pool.Capacity()
	}

	if c.sink == nil {
		c.sink = NewRoutingSink()
		c.ownsSink = true
	}

	if c.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		c.logger = l
	}

	if c.cfg.rateLimit > 0 {
		c.limiter = rate.NewLimiter(c.cfg.rateLimit, c.cfg.rateBurst)
	}

	return c, nil
}

// Configuration returns a copy of the page configuration.
func (c *Converter) Configuration() Configuration {
	return c.cfg.configuration
}

// Pool returns the engine pool.
func (c *Converter) Pool() *Pool {
	return c.pool
}

// Workers returns the number of workers each batch starts.
func (c *Converter) Workers() int {
	return c.cfg.workers
}

// Close releases the pool and sink if the converter created them.
func (c *Converter) Close() error {
	var errs []error
	if c.ownsPool && c.pool != nil {
		errs = append(errs, c.pool.Close())
	}
	if closer, ok := c.sink.(io.Closer); ok && c.ownsSink {
		errs = append(errs, closer.Close())
	}
	return errors.Join(errs...)
}

// defaultConverter backs the package-level RenderBatch. It lives for the
// whole process.
var defaultConverter = sync.OnceValues(func() (*Converter, error) {
	return NewConverter()
})

// RenderBatch renders docs with the shared process-wide converter, using cfg
// for page geometry. Prefer a Converter of your own when you need options or
// an explicit Close.
func RenderBatch(ctx context.Context, docs iter.Seq[Document], cfg Configuration) (BatchSummary, error) {
	if err := cfg.Validate(); err != nil {
		return BatchSummary{}, err
	}
	c, err := defaultConverter()
	if err != nil {
		return BatchSummary{}, err
	}
	return c.runBatch(ctx, docs, &cfg, nil)
}
