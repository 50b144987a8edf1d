package ports

import (
	"context"
	"io"

	"github.com/caregrid/docpipeline/internal/core/domain"
)

// TextExtractor produces plain text from a document using the strategy for
// its detected format.
type TextExtractor interface {
	Extract(ctx context.Context, location string, format domain.Format) (string, error)
}

// Summarizer performs one prompt-in, text-out generation call. A single
// attempt per invocation: implementations must not retry internally.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// OutcomeRecorder persists a finished analysis for human review.
type OutcomeRecorder interface {
	RecordOutcome(ctx context.Context, ownerID, documentID string, outcome domain.ProcessingOutcome) error
}

// DocumentStore persists and reads submission state.
type DocumentStore interface {
	OutcomeRecorder
	Create(ctx context.Context, rec *domain.DocumentRecord) error
	GetByID(ctx context.Context, id string) (*domain.DocumentRecord, error)
	UpdateStatus(ctx context.Context, id string, status domain.SubmissionStatus, errMessage string) error
}

// ObjectStorage stages submitted source documents on storage shared with
// the workers.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Path(key string) string
}

// MessageQueue publishes/consumes submission events.
type MessageQueue interface {
	PublishDocumentSubmitted(ctx context.Context, documentID string) error
	SubscribeDocumentSubmitted(ctx context.Context, handler func(context.Context, string) error) error
}
