package ports

import (
	"context"
	"io"

	"github.com/caregrid/docpipeline/internal/core/domain"
)

// DocumentAnalyzer is the inbound contract for synchronous document analysis.
type DocumentAnalyzer interface {
	Process(ctx context.Context, ref domain.DocumentRef) domain.ProcessingOutcome
	ProcessAndRecord(ctx context.Context, ref domain.DocumentRef) (domain.ProcessingOutcome, error)
}

// DocumentSubmitter is the inbound contract for staging a document and
// queueing it for asynchronous analysis.
type DocumentSubmitter interface {
	Submit(ctx context.Context, filename string, category domain.Category, ownerID string, body io.Reader) (*domain.DocumentRecord, error)
}

// SubmissionProcessor is the inbound contract for draining queued submissions.
type SubmissionProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}
