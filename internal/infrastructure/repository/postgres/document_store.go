package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/caregrid/docpipeline/internal/core/domain"
)

type DocumentStore struct {
	db *sql.DB
}

func NewDocumentStore(db *sql.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (s *DocumentStore) EnsureSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082201)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS caregiver_documents (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	filename TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	category TEXT NOT NULL,
	processing_status TEXT NOT NULL,
	analysis JSONB,
	error_message TEXT NOT NULL DEFAULT '',
	requires_review BOOLEAN NOT NULL DEFAULT FALSE,
	submitted_at TIMESTAMPTZ NOT NULL,
	processed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_caregiver_documents_owner ON caregiver_documents(owner_id);
CREATE INDEX IF NOT EXISTS idx_caregiver_documents_status ON caregiver_documents(processing_status);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (s *DocumentStore) Create(ctx context.Context, rec *domain.DocumentRecord) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO caregiver_documents (
	id, owner_id, filename, storage_path, category, processing_status, error_message, requires_review, submitted_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`,
		rec.ID, rec.OwnerID, rec.Filename, rec.StoragePath, string(rec.Category),
		string(rec.Status), rec.Error, rec.RequiresReview, rec.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (s *DocumentStore) GetByID(ctx context.Context, id string) (*domain.DocumentRecord, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, owner_id, filename, storage_path, category, processing_status, error_message, requires_review, submitted_at, processed_at
FROM caregiver_documents
WHERE id = $1
`, id)

	var rec domain.DocumentRecord
	var category, status string
	var processedAt sql.NullTime

	err := row.Scan(
		&rec.ID, &rec.OwnerID, &rec.Filename, &rec.StoragePath, &category,
		&status, &rec.Error, &rec.RequiresReview, &rec.SubmittedAt, &processedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get submission", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan submission: %w", err)
	}

	rec.Category = domain.Category(category)
	rec.Status = domain.SubmissionStatus(status)
	if processedAt.Valid {
		rec.ProcessedAt = &processedAt.Time
	}
	return &rec, nil
}

func (s *DocumentStore) UpdateStatus(ctx context.Context, id string, status domain.SubmissionStatus, errMessage string) error {
	result, err := s.db.ExecContext(ctx, `
UPDATE caregiver_documents
SET processing_status = $2, error_message = $3
WHERE id = $1
`, id, string(status), errMessage)
	if err != nil {
		return fmt.Errorf("update submission status: %w", err)
	}
	return requireRowAffected(result, "update submission status", id)
}

// RecordOutcome marks a submission completed and stores its analysis for
// review. The processing timestamp comes from the database server, and
// every recorded outcome is flagged for human review.
func (s *DocumentStore) RecordOutcome(ctx context.Context, ownerID, documentID string, outcome domain.ProcessingOutcome) error {
	analysisJSON, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
UPDATE caregiver_documents
SET processing_status = $3, analysis = $4, processed_at = now(), requires_review = TRUE, error_message = ''
WHERE id = $1 AND owner_id = $2
`, documentID, ownerID, string(domain.SubmissionCompleted), analysisJSON)
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	return requireRowAffected(result, "record outcome", documentID)
}

func requireRowAffected(result sql.Result, operation, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, operation, fmt.Errorf("id %s", id))
	}
	return nil
}
