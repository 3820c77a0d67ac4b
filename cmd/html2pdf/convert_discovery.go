package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/alnah/go-html2pdf"
)

// Sentinel errors for discovery.
var (
	ErrInvalidExtension   = errors.New("file must have .html, .htm, .md or .markdown extension")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
)

// maxWorkers bounds --workers. Workers beyond the pool size only queue.
const maxWorkers = 4 * html2pdf.MaxPoolSize

const gcsPrefix = "gs://"

// Input extensions by kind.
var (
	htmlExtensions     = []string{".html", ".htm"}
	markdownExtensions = []string{".md", ".markdown"}
)

// FileToConvert represents a single file to process.
type FileToConvert struct {
	InputPath  string
	OutputPath string
}

// isMarkdown reports whether path is a Markdown source.
func isMarkdown(path string) bool {
	return slices.Contains(markdownExtensions, strings.ToLower(filepath.Ext(path)))
}

// isSupportedInput reports whether path has an HTML or Markdown extension.
func isSupportedInput(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return slices.Contains(htmlExtensions, ext) || slices.Contains(markdownExtensions, ext)
}

// discoverFiles finds all HTML and Markdown files to convert.
// Directories are walked recursively in lexical order.
func discoverFiles(inputPath, outputDir string) ([]FileToConvert, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if err := validateInputExtension(inputPath); err != nil {
			return nil, err
		}
		outPath := resolveOutputPath(inputPath, outputDir, "")
		return []FileToConvert{{InputPath: inputPath, OutputPath: outPath}}, nil
	}

	var files []FileToConvert
	err = filepath.WalkDir(inputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isSupportedInput(path) {
			return nil
		}
		outPath := resolveOutputPath(path, outputDir, inputPath)
		files = append(files, FileToConvert{InputPath: path, OutputPath: outPath})
		return nil
	})

	return files, err
}

// resolveOutputPath determines the PDF output path for an input file.
// An empty outputDir writes next to the source. An outputDir ending in .pdf
// is a single-file target. Otherwise the layout below baseInputDir is
// mirrored under outputDir, which may be a gs://bucket/prefix.
func resolveOutputPath(inputPath, outputDir, baseInputDir string) string {
	ext := filepath.Ext(inputPath)
	base := strings.TrimSuffix(filepath.Base(inputPath), ext) + ".pdf"

	if outputDir == "" {
		return filepath.Join(filepath.Dir(inputPath), base)
	}

	if strings.HasSuffix(outputDir, ".pdf") {
		return outputDir
	}

	relDir := "."
	if baseInputDir != "" {
		if relPath, err := filepath.Rel(baseInputDir, inputPath); err == nil {
			relDir = filepath.Dir(relPath)
		}
	}

	if strings.HasPrefix(outputDir, gcsPrefix) {
		prefix := strings.TrimPrefix(outputDir, gcsPrefix)
		return gcsPrefix + path.Join(prefix, filepath.ToSlash(relDir), base)
	}
	return filepath.Join(outputDir, relDir, base)
}

// validateInputExtension checks that the file is HTML or Markdown.
func validateInputExtension(path string) error {
	if !isSupportedInput(path) {
		return fmt.Errorf("%w: got %q", ErrInvalidExtension, filepath.Ext(path))
	}
	return nil
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means pool size)", ErrInvalidWorkerCount, n)
	}
	if n > maxWorkers {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, maxWorkers)
	}
	return nil
}
