package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/caregrid/docpipeline/internal/core/domain"
	"github.com/caregrid/docpipeline/internal/core/ports"
)

type ProcessSubmissionUseCase struct {
	store    ports.DocumentStore
	storage  ports.ObjectStorage
	pipeline ports.DocumentAnalyzer
}

func NewProcessSubmissionUseCase(
	store ports.DocumentStore,
	storage ports.ObjectStorage,
	pipeline ports.DocumentAnalyzer,
) *ProcessSubmissionUseCase {
	return &ProcessSubmissionUseCase{
		store:    store,
		storage:  storage,
		pipeline: pipeline,
	}
}

// ProcessByID drains one queued submission: it resolves the stored record,
// runs the analysis pipeline against the staged file and leaves the record
// in a terminal state. Successful analyses are recorded by the pipeline
// itself; everything else is marked failed with the reason.
func (uc *ProcessSubmissionUseCase) ProcessByID(ctx context.Context, documentID string) error {
	rec, err := uc.store.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("fetch submission by id: %w", err)
	}

	if err := uc.store.UpdateStatus(ctx, documentID, domain.SubmissionProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	ref := domain.NewDocumentRef(uc.storage.Path(rec.StoragePath), rec.Category, rec.OwnerID)

	outcome, err := uc.pipeline.ProcessAndRecord(ctx, ref)
	if err != nil {
		// the analysis stands; only its completed row could not be written
		if failErr := uc.markFailed(ctx, documentID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if outcome.Status == domain.StatusError {
		if failErr := uc.markFailed(ctx, documentID, errors.New(outcome.Error)); failErr != nil {
			return fmt.Errorf("mark failed status: %v", failErr)
		}
		return fmt.Errorf("process submission %s: %s", documentID, outcome.Error)
	}

	return nil
}

func (uc *ProcessSubmissionUseCase) markFailed(ctx context.Context, documentID string, cause error) error {
	if cause == nil {
		return nil
	}
	return uc.store.UpdateStatus(ctx, documentID, domain.SubmissionFailed, cause.Error())
}
