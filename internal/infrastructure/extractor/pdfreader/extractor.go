// Package pdfreader extracts embedded text from PDF documents page by
// page. Image-only pages contribute nothing; the PDF variant performs no
// OCR.
package pdfreader

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(ctx context.Context, location string) (string, error) {
	f, reader, err := pdf.Open(location)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var text strings.Builder
	total := reader.NumPage()
	for pageNum := 1; pageNum <= total; pageNum++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract page %d of %d: %w", pageNum, total, err)
		}
		text.WriteString(content)
	}

	return text.String(), nil
}
