package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/caregrid/docpipeline/internal/core/domain"
	"github.com/caregrid/docpipeline/internal/core/ports"
)

type SubmitDocumentUseCase struct {
	store   ports.DocumentStore
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewSubmitDocumentUseCase(
	store ports.DocumentStore,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *SubmitDocumentUseCase {
	return &SubmitDocumentUseCase{
		store:   store,
		storage: storage,
		queue:   queue,
	}
}

// Submit stages a document on shared storage, creates its pending record
// and publishes a submission event for the workers. Unsupported file
// formats are rejected here instead of queueing a guaranteed failure.
func (uc *SubmitDocumentUseCase) Submit(
	ctx context.Context,
	filename string,
	category domain.Category,
	ownerID string,
	body io.Reader,
) (*domain.DocumentRecord, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "submit document", errors.New("owner id is required"))
	}
	if _, err := domain.DetectFormat(filename); err != nil {
		return nil, err
	}

	storageKey := fmt.Sprintf("%s_%s", uuid.NewString(), sanitizeFilename(filename))

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	rec := &domain.DocumentRecord{
		ID:          storageKey,
		OwnerID:     ownerID,
		Filename:    filename,
		StoragePath: storageKey,
		Category:    category,
		Status:      domain.SubmissionPending,
		SubmittedAt: time.Now().UTC(),
	}

	if err := uc.store.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("create submission record: %w", err)
	}

	if err := uc.queue.PublishDocumentSubmitted(ctx, rec.ID); err != nil {
		return nil, fmt.Errorf("publish submission event: %w", err)
	}

	return rec, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}
