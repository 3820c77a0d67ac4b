package main

import (
	"io"
	"os"
	"time"

	"github.com/alnah/go-html2pdf"
)

// Environment holds injectable dependencies for testability.
// Includes I/O, time, and the rendering backend.
type Environment struct {
	Now    func() time.Time
	Stdout io.Writer
	Stderr io.Writer

	// EngineFactory overrides headless Chrome. Nil means html2pdf.RodEngineFactory.
	EngineFactory html2pdf.EngineFactory
	// Sink overrides the local/Cloud Storage routing sink. Nil means the default.
	Sink html2pdf.Sink
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:    time.Now,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}
