package html2pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"
)

// Completion describes one document written successfully.
type Completion struct {
	Output   string
	Pages    int // set only with WithVerify
	Duration time.Duration
}

// pdfMagic starts every PDF file.
var pdfMagic = []byte("%PDF-")

// abandonGrace is how long a timed-out render may take to notice
// cancellation before the worker stops waiting for it.
const abandonGrace = 2 * time.Second

// lease is a pooled engine on loan to one render. When the render is
// abandoned, the engine goes back to the pool only once Render returns.
type lease struct {
	release   func()
	abandoned bool
}

// Render renders one document on an engine borrowed from the pool and
// returns the engine afterwards. Canceling ctx abandons the render.
//
// Errors wrap ErrEmptyOutput, ErrPoolTimeout, ErrPoolClosed, ErrIO,
// ErrRenderTimeout or ErrRender.
func (c *Converter) Render(ctx context.Context, doc Document) (Completion, error) {
	if doc.Output == "" {
		return Completion{}, ErrEmptyOutput
	}
	return c.renderPooled(ctx, doc, &c.cfg.configuration, false)
}

// RenderDocument renders doc with e and writes the result to doc.Output.
// The caller owns e: RenderDocument neither acquires nor releases it.
//
// Errors wrap ErrEmptyOutput, ErrIO, ErrRenderTimeout or ErrRender.
func (c *Converter) RenderDocument(ctx context.Context, e Engine, doc Document) (Completion, error) {
	return c.renderDocument(ctx, e, nil, doc, &c.cfg.configuration)
}

// renderDocument renders doc with e. l is nil when the caller owns e.
func (c *Converter) renderDocument(ctx context.Context, e Engine, l *lease, doc Document, cfg *Configuration) (Completion, error) {
	start := time.Now()

	if doc.Output == "" {
		return Completion{}, ErrEmptyOutput
	}

	if c.cfg.createDirs {
		if err := c.sink.MkdirAll(ctx, outputDir(doc.Output)); err != nil {
			return Completion{}, fmt.Errorf("%w: creating directory for %s: %w", ErrIO, doc.Output, err)
		}
	}

	pdf, err := c.render(ctx, e, l, doc.HTML, cfg)
	if err != nil {
		return Completion{}, err
	}

	completion := Completion{Output: doc.Output}

	if c.cfg.verify {
		pages, err := verifyPDF(pdf)
		if err != nil {
			return Completion{}, fmt.Errorf("%w: %w", ErrRender, err)
		}
		completion.Pages = pages
	}

	if err := c.sink.WriteFile(ctx, doc.Output, pdf); err != nil {
		return Completion{}, fmt.Errorf("%w: writing %s: %w", ErrIO, doc.Output, err)
	}

	completion.Duration = time.Since(start)
	return completion, nil
}

// render runs the engine under the converter timeout.
// The engine reports through a one-shot buffered channel, so its goroutine
// never blocks even when nobody is left to receive. An engine still busy
// after abandonGrace is handed to that goroutine, which releases l once
// Render returns.
func (c *Converter) render(ctx context.Context, e Engine, l *lease, html string, cfg *Configuration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.timeout)
	defer cancel()

	type result struct {
		pdf []byte
		err error
	}

	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("engine panic: %v", r)}
			}
		}()
		pdf, err := e.Render(ctx, html, cfg)
		done <- result{pdf: pdf, err: err}
	}()

	select {
	case r := <-done:
		return c.checkResult(r.pdf, r.err)
	case <-ctx.Done():
	}

	// Give the engine a moment to observe cancellation so it is idle before
	// it goes back to the pool.
	timer := time.NewTimer(abandonGrace)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		if l != nil {
			l.abandoned = true
			go func() {
				<-done
				l.release()
			}()
		}
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w after %v", ErrRenderTimeout, c.cfg.timeout)
	}
	return nil, ctx.Err()
}

func (c *Converter) checkResult(pdf []byte, err error) ([]byte, error) {
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %v: %w", ErrRenderTimeout, c.cfg.timeout, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	if !bytes.HasPrefix(pdf, pdfMagic) {
		return nil, fmt.Errorf("%w: engine output is not a PDF (%d bytes)", ErrRender, len(pdf))
	}
	return pdf, nil
}
