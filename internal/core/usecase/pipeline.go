package usecase

import (
	"context"

	"github.com/caregrid/docpipeline/internal/core/domain"
	"github.com/caregrid/docpipeline/internal/core/ports"
	"github.com/caregrid/docpipeline/internal/core/prompt"
)

// DocumentPipeline runs the analysis flow for one document: format
// dispatch, text extraction, prompt-driven summarization, outcome
// assembly. Every stage runs at most once per invocation; there are no
// internal retries. Extraction failures are terminal, summarization
// failures degrade into the outcome.
type DocumentPipeline struct {
	extractor  ports.TextExtractor
	summarizer ports.Summarizer
	recorder   ports.OutcomeRecorder
}

// NewDocumentPipeline wires the pipeline. The recorder may be nil for
// analyze-only setups; ProcessAndRecord then skips the datastore write.
func NewDocumentPipeline(
	extractor ports.TextExtractor,
	summarizer ports.Summarizer,
	recorder ports.OutcomeRecorder,
) *DocumentPipeline {
	return &DocumentPipeline{
		extractor:  extractor,
		summarizer: summarizer,
		recorder:   recorder,
	}
}

// Process analyzes one document and always terminates in exactly one
// outcome: failures surface as error outcomes, never as Go errors.
func (p *DocumentPipeline) Process(ctx context.Context, ref domain.DocumentRef) domain.ProcessingOutcome {
	format, err := domain.DetectFormat(ref.Location)
	if err != nil {
		return domain.ErrorOutcome(err)
	}

	extraction, err := p.extract(ctx, ref.Location, format)
	if err != nil {
		return domain.ErrorOutcome(err)
	}

	analysis := p.analyze(ctx, ref.Category, extraction)

	return domain.SuccessOutcome(ref.Category, extraction, analysis)
}

// ProcessAndRecord runs Process and persists successful outcomes for
// review. A recording failure does not change the outcome: the analysis
// stands, and the failure is returned as a distinct persistence error.
// Error outcomes are never recorded.
func (p *DocumentPipeline) ProcessAndRecord(ctx context.Context, ref domain.DocumentRef) (domain.ProcessingOutcome, error) {
	outcome := p.Process(ctx, ref)
	if outcome.Status != domain.StatusSuccess || p.recorder == nil {
		return outcome, nil
	}
	if err := p.recorder.RecordOutcome(ctx, ref.OwnerID, ref.DocumentID(), outcome); err != nil {
		return outcome, domain.WrapError(domain.ErrPersistenceFailed, "record outcome", err)
	}
	return outcome, nil
}

func (p *DocumentPipeline) extract(ctx context.Context, location string, format domain.Format) (domain.ExtractionResult, error) {
	text, err := p.extractor.Extract(ctx, location, format)
	if err != nil {
		return domain.ExtractionResult{}, domain.WrapError(domain.ErrExtractionFailed, "extract text", err)
	}
	return domain.NewExtractionResult(text), nil
}

// analyze never fails. A summarizer error produces a placeholder analysis
// carrying the failure reason; confidence is graded from the extracted
// length either way.
func (p *DocumentPipeline) analyze(ctx context.Context, category domain.Category, extraction domain.ExtractionResult) domain.AnalysisResult {
	confidence := domain.ConfidenceForLength(extraction.Length)

	summary, err := p.summarizer.Summarize(ctx, prompt.Render(category, extraction.Text))
	if err != nil {
		return domain.Degraded(confidence, err)
	}

	return domain.AnalysisResult{Summary: summary, Confidence: confidence}
}
