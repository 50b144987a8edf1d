package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/caregrid/docpipeline/internal/core/domain"
)

func newStoreWithMock(t *testing.T) (*DocumentStore, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &DocumentStore{db: db}, mock, func() { _ = db.Close() }
}

func TestCreateInsertsSubmission(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	submittedAt := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO caregiver_documents").
		WithArgs("ab12_license.pdf", "u42", "license.pdf", "ab12_license.pdf", "certification", "pending", "", false, submittedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Create(context.Background(), &domain.DocumentRecord{
		ID:          "ab12_license.pdf",
		OwnerID:     "u42",
		Filename:    "license.pdf",
		StoragePath: "ab12_license.pdf",
		Category:    domain.CategoryCertification,
		Status:      domain.SubmissionPending,
		SubmittedAt: submittedAt,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDReturnsDomainNotFound(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, owner_id, filename, storage_path").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetByID(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDScansRecord(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	submittedAt := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "owner_id", "filename", "storage_path", "category",
		"processing_status", "error_message", "requires_review", "submitted_at", "processed_at",
	}).AddRow(
		"ab12_license.pdf", "u42", "license.pdf", "ab12_license.pdf", "certification",
		"pending", "", false, submittedAt, nil,
	)
	mock.ExpectQuery("SELECT id, owner_id, filename, storage_path").
		WithArgs("ab12_license.pdf").
		WillReturnRows(rows)

	rec, err := store.GetByID(context.Background(), "ab12_license.pdf")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if rec.Category != domain.CategoryCertification {
		t.Fatalf("expected certification category, got %q", rec.Category)
	}
	if rec.Status != domain.SubmissionPending {
		t.Fatalf("expected pending status, got %q", rec.Status)
	}
	if rec.ProcessedAt != nil {
		t.Fatalf("unprocessed submissions carry no processing time")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateStatusReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE caregiver_documents").
		WithArgs("missing", string(domain.SubmissionProcessing), "").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.UpdateStatus(context.Background(), "missing", domain.SubmissionProcessing, "")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRecordOutcomeWritesAnalysis(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	outcome := domain.SuccessOutcome(
		domain.CategoryCertification,
		domain.NewExtractionResult(strings.Repeat("a", 150)),
		domain.AnalysisResult{Summary: "valid license", Confidence: domain.ConfidenceHigh},
	)
	analysisJSON, err := json.Marshal(outcome)
	if err != nil {
		t.Fatalf("marshal outcome: %v", err)
	}

	mock.ExpectExec("UPDATE caregiver_documents").
		WithArgs("ab12_license.pdf", "u42", string(domain.SubmissionCompleted), analysisJSON).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.RecordOutcome(context.Background(), "u42", "ab12_license.pdf", outcome); err != nil {
		t.Fatalf("RecordOutcome() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRecordOutcomeReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	outcome := domain.SuccessOutcome(
		domain.CategoryGeneric,
		domain.NewExtractionResult("text"),
		domain.AnalysisResult{Summary: "s", Confidence: domain.ConfidenceLow},
	)

	mock.ExpectExec("UPDATE caregiver_documents").
		WithArgs("missing", "u42", string(domain.SubmissionCompleted), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.RecordOutcome(context.Background(), "u42", "missing", outcome)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
