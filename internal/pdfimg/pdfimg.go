// Package pdfimg renders PDF pages to PNG images so vision models can read
// them. Rendering shells out to pdftoppm (poppler-utils); pdfcpu is used
// for page counting because pdftoppm has no cheap way to report it.
package pdfimg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// renderDPI is the pdftoppm output resolution. 300 keeps small print
// legible for OCR.
const renderDPI = "300"

// PageCount returns the number of pages in the PDF at path.
func PageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	count, err := api.PageCount(f, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}
	return count, nil
}

// RenderPages renders every page of the PDF to PNG bytes, in page order.
// Pages render concurrently, bounded by the CPU count.
func RenderPages(ctx context.Context, pdfPath string) ([][]byte, error) {
	pageCount, err := PageCount(pdfPath)
	if err != nil {
		return nil, err
	}

	type result struct {
		page int
		data []byte
		err  error
	}

	maxWorkers := runtime.NumCPU()
	results := make(chan result, pageCount)
	sem := make(chan struct{}, maxWorkers)

	for page := 1; page <= pageCount; page++ {
		sem <- struct{}{} // acquire
		go func(page int) {
			defer func() { <-sem }() // release
			data, err := RenderPage(ctx, pdfPath, page)
			results <- result{page: page, data: data, err: err}
		}(page)
	}

	pages := make([][]byte, pageCount)
	for i := 0; i < pageCount; i++ {
		r := <-results
		if r.err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", r.page, r.err)
		}
		pages[r.page-1] = r.data
	}
	return pages, nil
}

// RenderPage renders one page (1-based) of the PDF to PNG bytes.
func RenderPage(ctx context.Context, pdfPath string, page int) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "lmdesk-page-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	outputPrefix := filepath.Join(tmpDir, "page")

	// -f/-l select the single page, -singlefile drops the page suffix.
	pageStr := fmt.Sprintf("%d", page)
	cmd := exec.CommandContext(ctx, "pdftoppm",
		"-png",
		"-f", pageStr,
		"-l", pageStr,
		"-r", renderDPI,
		"-singlefile",
		pdfPath,
		outputPrefix,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w (output: %s)", err, string(output))
	}

	data, err := os.ReadFile(outputPrefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("pdftoppm did not create expected output: %w", err)
	}
	return data, nil
}
