package extract

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

// pdfPageTexts extracts plain text from at most the first pageCap pages.
// The reader panics on some malformed files, so the whole read is fenced.
func pdfPageTexts(path string, pageCap int) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic for %s: %v", path, r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only handle

	n := reader.NumPage()
	if n > pageCap {
		n = pageCap
	}
	for i := 1; i <= n; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return pages, fmt.Errorf("extract page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}
