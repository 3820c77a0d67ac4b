// Package html2pdf renders batches of HTML documents to PDF with a bounded
// pool of headless Chrome instances.
//
// # Quick Start
//
// Create a converter, render a batch, and close when done:
//
//	conv, err := html2pdf.NewConverter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conv.Close()
//
//	docs := html2pdf.DocumentsFromHTML("out", []string{"<h1>One</h1>", "<h1>Two</h1>"}, nil)
//	summary, err := conv.RenderAll(ctx, docs)
//	if err != nil {
//	    log.Fatal(err) // *html2pdf.BatchError lists every failed document
//	}
//	fmt.Println(summary.Succeeded, "written") // out/1.pdf, out/2.pdf
//
// A single document can be rendered on a pooled engine with Render:
//
//	doc := html2pdf.TitledDocument("out", "Q3/Q4 report", html)
//	completion, err := conv.Render(ctx, doc) // out/Q3∕Q4 report.pdf
//
// # Rendering Pipeline
//
// A batch runs a fixed number of workers over a shared document source:
//
//  1. A worker pulls the next document (sources may be lazy iterators)
//  2. It borrows an engine from the Pool, retrying while all are busy
//  3. It creates the output directory and renders under a timeout
//  4. It writes the PDF atomically through the Sink and returns the engine
//
// Failures never stop the other workers. Once the source is drained the
// batch returns a *BatchError naming each failed document.
//
// # Streaming
//
// RenderBatchStreaming yields outputs as they are written:
//
//	stream := conv.RenderBatchStreaming(ctx, slices.Values(docs))
//	for path := range stream.Outputs() {
//	    fmt.Println("wrote", path)
//	}
//	if err := stream.Err(); err != nil {
//	    log.Print(err)
//	}
//
// # Configuration
//
// Use functional options to customize the converter:
//
//	conv, err := html2pdf.NewConverter(
//	    html2pdf.WithPoolSize(4),
//	    html2pdf.WithTimeout(time.Minute),
//	    html2pdf.WithConfiguration(html2pdf.Configuration{
//	        Size:        html2pdf.PageLetter,
//	        Orientation: html2pdf.Landscape,
//	        Margins:     html2pdf.UniformMargins(0.75),
//	    }),
//	    html2pdf.WithLogger(logrus.StandardLogger()),
//	)
//
// # Outputs
//
// Output paths are local files or gs://bucket/object URLs. Cloud Storage
// credentials are only looked up when the first gs:// output is written.
//
// # Browser Requirements
//
// PDF generation requires Chrome/Chromium. The go-rod library automatically
// downloads a managed Chromium instance on first run (~/.cache/rod/browser/).
//
// For containers and CI environments, set ROD_NO_SANDBOX=1 to disable the
// Chrome sandbox. Use ROD_BROWSER_BIN to specify a custom Chrome binary.
package html2pdf
