package html2pdf

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// disablePDFConfigDir keeps pdfcpu from creating its config directory in
// the user's home on first use.
var disablePDFConfigDir = sync.OnceFunc(api.DisableConfigDir)

// verifyPDF parses pdf and returns its page count.
func verifyPDF(pdf []byte) (int, error) {
	disablePDFConfigDir()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	if err := api.Validate(bytes.NewReader(pdf), conf); err != nil {
		return 0, fmt.Errorf("validating PDF: %w", err)
	}

	pages, err := api.PageCount(bytes.NewReader(pdf), conf)
	if err != nil {
		return 0, fmt.Errorf("counting pages: %w", err)
	}
	if pages < 1 {
		return 0, fmt.Errorf("PDF has no pages")
	}
	return pages, nil
}
