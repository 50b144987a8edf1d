// Package extractor dispatches documents to the extraction variant for
// their format. The variants themselves live in subpackages; this package
// only routes.
package extractor

import (
	"context"
	"fmt"

	"github.com/caregrid/docpipeline/internal/core/domain"
)

// Variant produces plain text for one document format.
type Variant interface {
	Extract(ctx context.Context, location string) (string, error)
}

type Extractor struct {
	variants map[domain.Format]Variant
}

func New(pdf, image Variant) *Extractor {
	return &Extractor{
		variants: map[domain.Format]Variant{
			domain.FormatPDF:   pdf,
			domain.FormatImage: image,
		},
	}
}

func (e *Extractor) Extract(ctx context.Context, location string, format domain.Format) (string, error) {
	variant, ok := e.variants[format]
	if !ok || variant == nil {
		return "", fmt.Errorf("no extractor registered for format %q", format)
	}
	return variant.Extract(ctx, location)
}
