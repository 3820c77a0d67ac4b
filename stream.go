package html2pdf

import (
	"context"
	"errors"
	"iter"
	"sync/atomic"
)

// ErrStreamStopped is the cancellation cause recorded when the consumer of
// a Stream stops iterating before the batch is done.
var ErrStreamStopped = errors.New("stream consumer stopped early")

// Stream delivers the results of a batch as they complete.
// Only one of Outputs or Completions may be consumed, once.
type Stream struct {
	completions chan Completion
	done        chan struct{}
	cancel      context.CancelCauseFunc
	claimed     atomic.Bool

	summary BatchSummary
	err     error
}

// RenderBatchStreaming starts rendering docs in the background and returns
// a Stream of the written outputs. Failed documents are not yielded; they
// are logged and reported by Err.
//
// Breaking out of the iteration cancels the batch: workers finish their
// current document, the stream drains, and every engine is returned.
// Once ctx ends, documents still finishing are written and counted in
// Summary but are not yielded. A Stream that is neither iterated nor
// waited on with Err holds its workers until ctx ends.
func (c *Converter) RenderBatchStreaming(ctx context.Context, docs iter.Seq[Document]) *Stream {
	ctx, cancel := context.WithCancelCause(ctx)

	s := &Stream{
		completions: make(chan Completion),
		done:        make(chan struct{}),
		cancel:      cancel,
	}

	go func() {
		defer close(s.done)
		defer cancel(nil)

		s.summary, s.err = c.runBatch(ctx, docs, &c.cfg.configuration, func(comp Completion) {
			select {
			case s.completions <- comp:
			case <-ctx.Done():
			}
		})
		close(s.completions)
	}()

	return s
}

// Completions yields each successful document in completion order. Its
// output exists in the sink by the time it is yielded.
func (s *Stream) Completions() iter.Seq[Completion] {
	return func(yield func(Completion) bool) {
		if !s.claimed.CompareAndSwap(false, true) {
			return
		}
		for comp := range s.completions {
			if !yield(comp) {
				s.cancel(ErrStreamStopped)
				s.drain()
				return
			}
		}
	}
}

// Outputs yields the output location of each successful document.
func (s *Stream) Outputs() iter.Seq[string] {
	return func(yield func(string) bool) {
		for comp := range s.Completions() {
			if !yield(comp.Output) {
				return
			}
		}
	}
}

// Err waits for the batch to finish and returns the error RenderBatch would
// have returned. If the stream was never consumed, its results are discarded.
func (s *Stream) Err() error {
	if s.claimed.CompareAndSwap(false, true) {
		s.drain()
	}
	<-s.done
	return s.err
}

// Summary waits for the batch to finish and returns its counts.
func (s *Stream) Summary() BatchSummary {
	_ = s.Err()
	return s.summary
}

func (s *Stream) drain() {
	for range s.completions {
	}
}
