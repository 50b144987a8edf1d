package domain

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

// Format identifies the text extraction strategy for a document. It is
// derived from the file name suffix alone; content sniffing is deliberately
// out of scope.
type Format string

const (
	FormatPDF   Format = "pdf"
	FormatImage Format = "image"
)

// DetectFormat maps a file location to its extraction format by suffix,
// case-insensitively. Unknown suffixes return an UnsupportedFormatError
// whose message is the exact string recorded on the outcome.
func DetectFormat(location string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(location))
	switch ext {
	case ".pdf":
		return FormatPDF, nil
	case ".jpg", ".jpeg", ".png":
		return FormatImage, nil
	default:
		return "", &UnsupportedFormatError{Ext: ext}
	}
}

// Category labels the kind of caregiver document under review. Unknown
// labels are not rejected; the prompt registry falls back to the generic
// analysis prompt for them.
type Category string

const (
	CategoryCertification   Category = "certification"
	CategoryBackgroundCheck Category = "background_check"
	CategoryIdentification  Category = "identification"
	CategoryGeneric         Category = "generic"
)

// DocumentRef identifies one document submitted for analysis: where its
// bytes live, what kind of document it claims to be, and who owns it.
type DocumentRef struct {
	Location string
	Category Category
	OwnerID  string
}

func NewDocumentRef(location string, category Category, ownerID string) DocumentRef {
	return DocumentRef{Location: location, Category: category, OwnerID: ownerID}
}

// DocumentID derives the persistence key from the location's base name.
func (r DocumentRef) DocumentID() string {
	return filepath.Base(r.Location)
}

const (
	// PreviewLimit bounds the extracted-text excerpt carried on outcomes.
	PreviewLimit = 500
	// ConfidenceThreshold is the extracted-text length above which an
	// analysis is graded high confidence.
	ConfidenceThreshold = 100
)

// ExtractionResult holds the full text pulled out of a document. Length is
// counted in characters (runes), not bytes, so multibyte text grades the
// same regardless of encoding width.
type ExtractionResult struct {
	Text   string
	Length int
}

func NewExtractionResult(text string) ExtractionResult {
	return ExtractionResult{Text: text, Length: utf8.RuneCountInString(text)}
}

// Preview returns the first PreviewLimit characters of the extracted text.
func (r ExtractionResult) Preview() string {
	runes := []rune(r.Text)
	if len(runes) <= PreviewLimit {
		return r.Text
	}
	return string(runes[:PreviewLimit])
}

// Confidence grades how much source text backed an analysis. It reflects
// extraction volume only; a degraded summarization keeps the grade earned
// by its text.
type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	ConfidenceLow  Confidence = "low"
)

func ConfidenceForLength(length int) Confidence {
	if length > ConfidenceThreshold {
		return ConfidenceHigh
	}
	return ConfidenceLow
}

// DegradedSummary is the placeholder recorded when summarization fails but
// extraction succeeded.
const DegradedSummary = "Unable to analyze document"

// AnalysisResult is the summarization verdict for one document. Error is
// set only on degraded analyses, alongside the placeholder summary.
type AnalysisResult struct {
	Summary    string     `json:"summary"`
	Confidence Confidence `json:"confidence"`
	Error      string     `json:"error,omitempty"`
}

// Degraded builds the analysis recorded when the summarizer fails: the
// placeholder summary plus the failure reason, keeping the confidence the
// extracted text earned.
func Degraded(confidence Confidence, cause error) AnalysisResult {
	return AnalysisResult{
		Summary:    DegradedSummary,
		Confidence: confidence,
		Error:      cause.Error(),
	}
}

// Status is the terminal state of a pipeline invocation.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ProcessingOutcome is the single terminal value of a pipeline run. Exactly
// one is produced per invocation: either a success carrying the extraction
// excerpt and analysis, or an error carrying a message.
type ProcessingOutcome struct {
	Status         Status
	ExtractedText  string
	FullTextLength int
	Analysis       AnalysisResult
	DocumentType   Category
	Error          string
}

func SuccessOutcome(category Category, extraction ExtractionResult, analysis AnalysisResult) ProcessingOutcome {
	return ProcessingOutcome{
		Status:         StatusSuccess,
		ExtractedText:  extraction.Preview(),
		FullTextLength: extraction.Length,
		Analysis:       analysis,
		DocumentType:   category,
	}
}

func ErrorOutcome(err error) ProcessingOutcome {
	return ProcessingOutcome{Status: StatusError, Error: err.Error()}
}

// MarshalJSON emits the outcome's wire shape: success outcomes carry the
// extraction and analysis fields, error outcomes carry only status and
// error. Zero values like an empty extracted_text stay present on success.
func (o ProcessingOutcome) MarshalJSON() ([]byte, error) {
	if o.Status == StatusError {
		return json.Marshal(struct {
			Status Status `json:"status"`
			Error  string `json:"error"`
		}{Status: o.Status, Error: o.Error})
	}
	return json.Marshal(struct {
		Status         Status         `json:"status"`
		ExtractedText  string         `json:"extracted_text"`
		FullTextLength int            `json:"full_text_length"`
		Analysis       AnalysisResult `json:"analysis"`
		DocumentType   Category       `json:"document_type"`
	}{
		Status:         o.Status,
		ExtractedText:  o.ExtractedText,
		FullTextLength: o.FullTextLength,
		Analysis:       o.Analysis,
		DocumentType:   o.DocumentType,
	})
}

// SubmissionStatus tracks a stored document through the asynchronous flow.
type SubmissionStatus string

const (
	SubmissionPending    SubmissionStatus = "pending"
	SubmissionProcessing SubmissionStatus = "processing"
	SubmissionCompleted  SubmissionStatus = "completed"
	SubmissionFailed     SubmissionStatus = "failed"
)

// DocumentRecord is the stored submission row. ID doubles as the storage
// key and as the outcome's document identifier.
type DocumentRecord struct {
	ID             string           `json:"id"`
	OwnerID        string           `json:"owner_id"`
	Filename       string           `json:"filename"`
	StoragePath    string           `json:"storage_path"`
	Category       Category         `json:"category"`
	Status         SubmissionStatus `json:"status"`
	Error          string           `json:"error,omitempty"`
	RequiresReview bool             `json:"requires_review"`
	SubmittedAt    time.Time        `json:"submitted_at"`
	ProcessedAt    *time.Time       `json:"processed_at,omitempty"`
}
