package html2pdf

import (
	"fmt"
	"math"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
)

// PageSize holds portrait page dimensions in inches.
type PageSize struct {
	Width  float64
	Height float64
}

// Named page sizes.
var (
	PageLetter = PageSize{Width: 8.5, Height: 11}
	PageA4     = PageSize{Width: 8.27, Height: 11.69}
	PageLegal  = PageSize{Width: 8.5, Height: 14}
)

// Page size names accepted by PageSizeByName.
const (
	PageSizeLetter = "letter"
	PageSizeA4     = "a4"
	PageSizeLegal  = "legal"
)

// PageSizeByName returns the named page size (case-insensitive).
func PageSizeByName(name string) (PageSize, error) {
	switch strings.ToLower(name) {
	case PageSizeLetter:
		return PageLetter, nil
	case PageSizeA4:
		return PageA4, nil
	case PageSizeLegal:
		return PageLegal, nil
	}
	return PageSize{}, fmt.Errorf("%w: %q", ErrInvalidPageSize, name)
}

// Orientation of the printed page.
type Orientation string

// Orientation constants.
const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

// ParseOrientation parses "portrait" or "landscape" (case-insensitive).
// An empty string means Portrait.
func ParseOrientation(s string) (Orientation, error) {
	switch Orientation(strings.ToLower(s)) {
	case "", Portrait:
		return Portrait, nil
	case Landscape:
		return Landscape, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidOrientation, s)
}

// Margins in inches.
type Margins struct {
	Top    float64
	Left   float64
	Bottom float64
	Right  float64
}

// UniformMargins returns margins with the same value on every side.
func UniformMargins(v float64) Margins {
	return Margins{Top: v, Left: v, Bottom: v, Right: v}
}

// DefaultMargin is 36pt, the margin of the A4 preset.
const DefaultMargin = 0.5

// Configuration describes the page geometry shared by every render of a batch.
// It is copied into the Converter and never mutated afterwards.
type Configuration struct {
	Size        PageSize
	Orientation Orientation
	Margins     Margins
	BaseURL     string // resolves relative references in the HTML (optional)
}

// A4 returns the default configuration: A4 portrait with 0.5in margins.
func A4() Configuration {
	return Configuration{
		Size:        PageA4,
		Orientation: Portrait,
		Margins:     UniformMargins(DefaultMargin),
	}
}

// Dimensions returns the effective page width and height, after orientation.
func (c *Configuration) Dimensions() (width, height float64) {
	if c.Orientation == Landscape {
		return c.Size.Height, c.Size.Width
	}
	return c.Size.Width, c.Size.Height
}

// Validate checks that the printable area is not degenerate.
// Each margin may use at most half of the matching page dimension.
func (c *Configuration) Validate() error {
	if !isFinitePositive(c.Size.Width) || !isFinitePositive(c.Size.Height) {
		return fmt.Errorf("%w: %.2fx%.2f (dimensions must be positive)", ErrInvalidPageSize, c.Size.Width, c.Size.Height)
	}

	if _, err := ParseOrientation(string(c.Orientation)); err != nil {
		return err
	}

	width, height := c.Dimensions()
	checks := []struct {
		side   string
		value  float64
		extent float64
	}{
		{"top", c.Margins.Top, height},
		{"bottom", c.Margins.Bottom, height},
		{"left", c.Margins.Left, width},
		{"right", c.Margins.Right, width},
	}
	for _, m := range checks {
		if math.IsNaN(m.value) || math.IsInf(m.value, 0) {
			return fmt.Errorf("%w: %s %v (must be a finite number)", ErrInvalidMargin, m.side, m.value)
		}
		if m.value < 0 {
			return fmt.Errorf("%w: %s %.2f (must not be negative)", ErrInvalidMargin, m.side, m.value)
		}
		if m.value > m.extent/2 {
			return fmt.Errorf("%w: %s %.2f exceeds half the page (%.2f)", ErrInvalidMargin, m.side, m.value, m.extent/2)
		}
	}

	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || u.Scheme == "" {
			return fmt.Errorf("%w: %q", ErrInvalidBaseURL, c.BaseURL)
		}
	}

	return nil
}

func isFinitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

// Document is one HTML source and the location its PDF is written to.
type Document struct {
	Output string // local path or gs://bucket/object
	HTML   string
}

// divisionSlash replaces "/" in titles so a title never introduces a directory.
const divisionSlash = "∕"

// TitledDocument returns a document written to dir/<title>.pdf.
func TitledDocument(dir, title, html string) Document {
	name := strings.ReplaceAll(title, "/", divisionSlash)
	return Document{
		Output: joinOutput(dir, name+".pdf"),
		HTML:   html,
	}
}

// DocumentsFromHTML pairs each HTML string with dir/<filename(i)>.pdf.
// A nil filename numbers files from 1.
func DocumentsFromHTML(dir string, htmls []string, filename func(int) string) []Document {
	if filename == nil {
		filename = func(i int) string { return strconv.Itoa(i + 1) }
	}
	docs := make([]Document, len(htmls))
	for i, h := range htmls {
		docs[i] = Document{
			Output: joinOutput(dir, filename(i)+".pdf"),
			HTML:   h,
		}
	}
	return docs
}

// joinOutput joins a file name onto a local directory or a gs:// prefix.
func joinOutput(dir, name string) string {
	if isGCSPath(dir) {
		return strings.TrimSuffix(dir, "/") + "/" + name
	}
	return filepath.Join(dir, name)
}
