// Package pipeline prepares HTML for rendering.
//
// It covers the steps that happen before a document reaches the browser:
//   - Markdown to HTML conversion via Goldmark, for Markdown inputs
//   - <base href> and <style> injection
//   - rewriting relative references to absolute file:// URLs
//
// Page geometry and PDF output are handled by the root html2pdf package.
package pipeline
