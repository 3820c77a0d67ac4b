package html2pdf

import (
	"context"
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// BatchSummary counts the outcome of one batch.
type BatchSummary struct {
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// RenderAll renders a slice of documents. See RenderBatch.
func (c *Converter) RenderAll(ctx context.Context, docs []Document) (BatchSummary, error) {
	return c.RenderBatch(ctx, slices.Values(docs))
}

// RenderBatch renders every document of docs with a fixed set of workers
// sharing the converter's pool. docs may be a lazy generator; each document
// is pulled by exactly one worker.
//
// A failing document never stops the others: every document is attempted,
// and the batch returns a *BatchError listing all failures once the workers
// are done. Canceling ctx lets in-flight renders finish, stops further pulls,
// and is reported as the BatchError cause. Outputs already written stay.
//
// An empty docs returns immediately without touching the pool.
func (c *Converter) RenderBatch(ctx context.Context, docs iter.Seq[Document]) (BatchSummary, error) {
	return c.runBatch(ctx, docs, &c.cfg.configuration, nil)
}

// docSource hands out documents from a possibly lazy sequence to
// concurrent workers.
type docSource struct {
	mu        sync.Mutex
	next      func() (Document, bool)
	stop      func()
	head      *Document
	exhausted bool
}

func newDocSource(docs iter.Seq[Document]) *docSource {
	next, stop := iter.Pull(docs)
	return &docSource{next: next, stop: stop}
}

// prime pulls the first document ahead of the workers. It reports false
// for an empty sequence.
func (s *docSource) prime() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.next()
	if !ok {
		s.exhausted = true
		return false
	}
	s.head = &doc
	return true
}

func (s *docSource) pull() (Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.head != nil {
		doc := *s.head
		s.head = nil
		return doc, true
	}
	if s.exhausted {
		return Document{}, false
	}
	doc, ok := s.next()
	if !ok {
		s.exhausted = true
	}
	return doc, ok
}

func (s *docSource) drained() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exhausted && s.head == nil
}

func (s *docSource) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stop()
}

// batchState collects outcomes from every worker.
type batchState struct {
	mu        sync.Mutex
	succeeded int
	failures  []DocumentError
}

func (b *batchState) succeed() {
	b.mu.Lock()
	b.succeeded++
	b.mu.Unlock()
}

func (b *batchState) fail(output string, err error) {
	b.mu.Lock()
	b.failures = append(b.failures, DocumentError{Output: output, Err: err})
	b.mu.Unlock()
}

// runBatch is shared by RenderBatch, the streaming API and the package-level
// RenderBatch. emit, when set, receives each completion after its output is
// written.
func (c *Converter) runBatch(ctx context.Context, docs iter.Seq[Document], cfg *Configuration, emit func(Completion)) (BatchSummary, error) {
	start := time.Now()

	src := newDocSource(docs)
	defer src.close()

	if !src.prime() {
		return BatchSummary{}, nil
	}

	workers := c.cfg.workers
	log := c.logger.WithFields(logrus.Fields{
		"batch":   uuid.NewString(),
		"workers": workers,
	})
	log.Debug("batch started")

	var (
		state batchState
		g     errgroup.Group
	)
	for w := range workers {
		g.Go(func() error {
			c.work(ctx, w, src, cfg, &state, emit, log)
			return nil
		})
	}
	_ = g.Wait()

	summary := BatchSummary{
		Succeeded: state.succeeded,
		Failed:    len(state.failures),
		Duration:  time.Since(start),
	}

	var cause error
	if ctx.Err() != nil && !src.drained() {
		cause = context.Cause(ctx)
	}

	log.WithFields(logrus.Fields{
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
		"duration":  summary.Duration,
	}).Info("batch finished")

	if summary.Failed == 0 && cause == nil {
		return summary, nil
	}
	return summary, &BatchError{
		Succeeded: summary.Succeeded,
		Failures:  state.failures,
		Cause:     cause,
	}
}

// work is one worker's loop: pull, acquire, render, release, record.
func (c *Converter) work(ctx context.Context, id int, src *docSource, cfg *Configuration, state *batchState, emit func(Completion), log logrus.FieldLogger) {
	log = log.WithField("worker", id)

	for ctx.Err() == nil {
		doc, ok := src.pull()
		if !ok {
			return
		}

		docLog := log.WithField("output", doc.Output)

		completion, err := c.renderPooled(ctx, doc, cfg, true)
		if err != nil {
			state.fail(doc.Output, err)
			docLog.WithError(err).Warn("document failed")
			continue
		}

		state.succeed()
		docLog.WithField("duration", completion.Duration).Debug("document rendered")
		if emit != nil {
			emit(completion)
		}
	}
}

// renderPooled renders doc on an engine borrowed from the pool.
// With detach set, the render ignores ctx cancellation and is bounded by its
// own timeout, so a canceled batch finishes the documents it already started.
func (c *Converter) renderPooled(ctx context.Context, doc Document, cfg *Configuration, detach bool) (Completion, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Completion{}, err
		}
	}

	e, err := c.pool.AcquireWithRetry(ctx, c.cfg.attempts, c.cfg.retryDelay)
	if err != nil {
		return Completion{}, err
	}
	l := &lease{release: func() {
		if err := c.pool.Release(e); err != nil {
			c.logger.WithError(err).Error("releasing engine")
		}
	}}
	defer func() {
		if !l.abandoned {
			l.release()
		}
	}()

	renderCtx := ctx
	if detach {
		renderCtx = context.WithoutCancel(ctx)
	}
	return c.renderDocument(renderCtx, e, l, doc, cfg)
}
