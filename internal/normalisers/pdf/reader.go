package pdf

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// plainTextReader extracts page text with ledongthuc/pdf.
type plainTextReader struct{}

// Pages returns the plain text of every page.
// The parser panics on some malformed streams; those are reported as errors.
func (plainTextReader) Pages(content []byte) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, err
	}

	n := reader.NumPage()
	pages = make([]string, 0, n)
	for i := 1; i <= n; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}
