package usecase

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/caregrid/docpipeline/internal/core/domain"
)

type statusCall struct {
	status domain.SubmissionStatus
	errMsg string
}

type processStoreFake struct {
	rec         *domain.DocumentRecord
	getErr      error
	statusErr   error
	recordErr   error
	statusCalls []statusCall
	outcomes    map[string]domain.ProcessingOutcome
}

func (f *processStoreFake) Create(context.Context, *domain.DocumentRecord) error { return nil }

func (f *processStoreFake) GetByID(context.Context, string) (*domain.DocumentRecord, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	copyRec := *f.rec
	return &copyRec, nil
}

func (f *processStoreFake) UpdateStatus(_ context.Context, _ string, status domain.SubmissionStatus, errMessage string) error {
	f.statusCalls = append(f.statusCalls, statusCall{status: status, errMsg: errMessage})
	if f.statusErr != nil {
		return f.statusErr
	}
	return nil
}

func (f *processStoreFake) RecordOutcome(_ context.Context, ownerID, documentID string, outcome domain.ProcessingOutcome) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	if f.outcomes == nil {
		f.outcomes = map[string]domain.ProcessingOutcome{}
	}
	f.outcomes[ownerID+"/"+documentID] = outcome
	return nil
}

type processStorageFake struct {
	base string
}

func (f *processStorageFake) Save(context.Context, string, io.Reader) error { return nil }

func (f *processStorageFake) Path(key string) string { return filepath.Join(f.base, key) }

func submissionRecord() *domain.DocumentRecord {
	return &domain.DocumentRecord{
		ID:          "ab12_license.pdf",
		OwnerID:     "u42",
		Filename:    "license.pdf",
		StoragePath: "ab12_license.pdf",
		Category:    domain.CategoryCertification,
		Status:      domain.SubmissionPending,
	}
}

func TestProcessByIDSuccess(t *testing.T) {
	store := &processStoreFake{rec: submissionRecord()}
	storage := &processStorageFake{base: "/srv/docs"}
	extractor := &extractorFake{text: strings.Repeat("a", 150)}
	pipeline := NewDocumentPipeline(extractor, &summarizerFake{summary: "valid license"}, store)
	uc := NewProcessSubmissionUseCase(store, storage, pipeline)

	if err := uc.ProcessByID(context.Background(), "ab12_license.pdf"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.statusCalls) != 1 || store.statusCalls[0].status != domain.SubmissionProcessing {
		t.Fatalf("expected a single transition to processing, got %v", store.statusCalls)
	}
	if extractor.lastLocation != filepath.Join("/srv/docs", "ab12_license.pdf") {
		t.Fatalf("pipeline must read the staged file, got %q", extractor.lastLocation)
	}
	outcome, ok := store.outcomes["u42/ab12_license.pdf"]
	if !ok {
		t.Fatalf("expected a recorded outcome for the owner/document pair, got %v", store.outcomes)
	}
	if outcome.Status != domain.StatusSuccess {
		t.Fatalf("expected recorded success, got %q", outcome.Status)
	}
}

func TestProcessByIDMarksFailedOnErrorOutcome(t *testing.T) {
	store := &processStoreFake{rec: submissionRecord()}
	pipeline := NewDocumentPipeline(&extractorFake{err: errors.New("corrupt xref table")}, &summarizerFake{}, store)
	uc := NewProcessSubmissionUseCase(store, &processStorageFake{base: "/srv/docs"}, pipeline)

	err := uc.ProcessByID(context.Background(), "ab12_license.pdf")
	if err == nil {
		t.Fatalf("expected a processing error")
	}

	last := store.statusCalls[len(store.statusCalls)-1]
	if last.status != domain.SubmissionFailed {
		t.Fatalf("expected terminal failed status, got %v", store.statusCalls)
	}
	if !strings.Contains(last.errMsg, "corrupt xref table") {
		t.Fatalf("failed status must carry the cause, got %q", last.errMsg)
	}
	if len(store.outcomes) != 0 {
		t.Fatalf("error outcomes must never be recorded")
	}
}

func TestProcessByIDUnknownSubmission(t *testing.T) {
	store := &processStoreFake{getErr: domain.ErrDocumentNotFound}
	pipeline := NewDocumentPipeline(&extractorFake{}, &summarizerFake{}, store)
	uc := NewProcessSubmissionUseCase(store, &processStorageFake{}, pipeline)

	err := uc.ProcessByID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected not found kind, got %v", err)
	}
	if len(store.statusCalls) != 0 {
		t.Fatalf("no status transitions for unknown submissions")
	}
}

func TestProcessByIDPersistenceFailure(t *testing.T) {
	store := &processStoreFake{rec: submissionRecord(), recordErr: errors.New("connection reset")}
	pipeline := NewDocumentPipeline(&extractorFake{text: strings.Repeat("a", 150)}, &summarizerFake{summary: "ok"}, store)
	uc := NewProcessSubmissionUseCase(store, &processStorageFake{base: "/srv/docs"}, pipeline)

	err := uc.ProcessByID(context.Background(), "ab12_license.pdf")
	if !domain.IsKind(err, domain.ErrPersistenceFailed) {
		t.Fatalf("expected persistence kind, got %v", err)
	}

	last := store.statusCalls[len(store.statusCalls)-1]
	if last.status != domain.SubmissionFailed {
		t.Fatalf("a lost outcome write must leave the record failed, got %v", store.statusCalls)
	}
}

func TestProcessByIDDegradedAnalysisCompletes(t *testing.T) {
	store := &processStoreFake{rec: submissionRecord()}
	pipeline := NewDocumentPipeline(
		&extractorFake{text: strings.Repeat("a", 150)},
		&summarizerFake{err: errors.New("model unavailable")},
		store,
	)
	uc := NewProcessSubmissionUseCase(store, &processStorageFake{base: "/srv/docs"}, pipeline)

	if err := uc.ProcessByID(context.Background(), "ab12_license.pdf"); err != nil {
		t.Fatalf("degraded analyses complete normally, got %v", err)
	}

	outcome := store.outcomes["u42/ab12_license.pdf"]
	if outcome.Analysis.Summary != domain.DegradedSummary {
		t.Fatalf("expected recorded placeholder summary, got %q", outcome.Analysis.Summary)
	}
	for _, call := range store.statusCalls {
		if call.status == domain.SubmissionFailed {
			t.Fatalf("degraded analyses must not mark the record failed")
		}
	}
}
