// Package ocr recognizes text in image documents through Tesseract.
// A blank recognition is not an error: an unreadable image yields an empty
// string and the caller grades confidence from the length.
package ocr

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

type Extractor struct {
	languages []string
}

// New builds the OCR variant. languages are Tesseract language codes such
// as "eng"; an empty list keeps the engine default.
func New(languages ...string) *Extractor {
	return &Extractor{languages: languages}
}

func (e *Extractor) Extract(ctx context.Context, location string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// gosseract clients are not safe for concurrent use, so each
	// extraction gets its own.
	client := gosseract.NewClient()
	defer client.Close()

	if len(e.languages) > 0 {
		if err := client.SetLanguage(e.languages...); err != nil {
			return "", fmt.Errorf("set ocr languages: %w", err)
		}
	}
	if err := client.SetImage(location); err != nil {
		return "", fmt.Errorf("load image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return text, nil
}
