package html2pdf

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for library operations.
var (
	// Pool errors.
	ErrPoolTimeout   = errors.New("no renderer available within retry budget")
	ErrPoolClosed    = errors.New("renderer pool is closed")
	ErrForeignHandle = errors.New("renderer does not belong to this pool")
	ErrDoubleRelease = errors.New("renderer released twice")

	// Render errors.
	ErrRenderTimeout = errors.New("render timed out")
	ErrRender        = errors.New("render failed")
	ErrEmptyOutput   = errors.New("document output cannot be empty")
	ErrIO            = errors.New("output I/O failed")

	// Browser errors, reported wrapped in ErrRender.
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrPDFGeneration  = errors.New("PDF generation failed")

	// Configuration validation errors.
	ErrInvalidPageSize    = errors.New("invalid page size")
	ErrInvalidOrientation = errors.New("invalid orientation")
	ErrInvalidMargin      = errors.New("invalid margin")
	ErrInvalidBaseURL     = errors.New("invalid base URL")
)

// DocumentError associates a render failure with the document it belongs to.
type DocumentError struct {
	Output string
	Err    error
}

func (e DocumentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Output, e.Err)
}

func (e DocumentError) Unwrap() error {
	return e.Err
}

// BatchError is returned when at least one document of a batch failed or the
// batch was canceled before the source was drained.
// Documents that succeeded stay on disk; nothing is rolled back.
type BatchError struct {
	Succeeded int
	Failures  []DocumentError // detection order
	Cause     error           // non-nil when the batch was canceled
}

func (e *BatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "rendering batch: %d succeeded, %d failed", e.Succeeded, len(e.Failures))
	if len(e.Failures) > 0 {
		fmt.Fprintf(&b, ": first failure %v", e.Failures[0])
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, " (stopped: %v)", e.Cause)
	}
	return b.String()
}

// Unwrap exposes every failure and the cancellation cause to errors.Is/As.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures)+1)
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// First returns the first failure by detection order, or nil.
func (e *BatchError) First() error {
	if len(e.Failures) == 0 {
		return e.Cause
	}
	return e.Failures[0]
}
