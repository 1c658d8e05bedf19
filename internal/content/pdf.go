package content

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractionError reports a training document that could not be read or
// parsed. It is fatal for the action that needed the text.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// PageText is the extractable text of one document page.
type PageText struct {
	Page int
	Text string
}

// ExtractPages returns the text of each page of a PDF, in order. Pages with
// no extractable text are skipped rather than returned empty. Failure to
// open or parse the document returns an *ExtractionError.
func ExtractPages(path string) ([]PageText, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, &ExtractionError{Path: path, Err: err}
	}
	defer f.Close()

	var pages []PageText
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			// A single unparseable page is treated like a page with no text.
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, PageText{Page: i, Text: text})
	}
	return pages, nil
}

// PDFExtractor extracts text from PDF documents on disk.
type PDFExtractor struct{}

// Pages implements the extraction contract over ExtractPages.
func (PDFExtractor) Pages(path string) ([]PageText, error) {
	return ExtractPages(path)
}

// JoinPages renders page-tagged text for prompt building, so generated
// questions can cite a source page.
func JoinPages(pages []PageText) string {
	var sb strings.Builder
	for _, p := range pages {
		fmt.Fprintf(&sb, "[Page %d]\n%s\n", p.Page, p.Text)
	}
	return sb.String()
}
