package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/caregrid/docpipeline/internal/config"
	"github.com/caregrid/docpipeline/internal/core/ports"
	"github.com/caregrid/docpipeline/internal/core/usecase"
	"github.com/caregrid/docpipeline/internal/infrastructure/extractor"
	"github.com/caregrid/docpipeline/internal/infrastructure/extractor/ocr"
	"github.com/caregrid/docpipeline/internal/infrastructure/extractor/pdfreader"
	"github.com/caregrid/docpipeline/internal/infrastructure/llm/gemini"
	"github.com/caregrid/docpipeline/internal/infrastructure/queue/nats"
	"github.com/caregrid/docpipeline/internal/infrastructure/repository/postgres"
	"github.com/caregrid/docpipeline/internal/infrastructure/resilience"
	"github.com/caregrid/docpipeline/internal/infrastructure/storage/localfs"
)

// App holds the wired pipeline. Store and Queue are nil when the config
// carries no DSN or broker URL; SubmitUC and ProcessUC are nil whenever a
// dependency they need is missing, and the binaries check for that.
type App struct {
	Config config.Config

	Store   ports.DocumentStore
	Storage ports.ObjectStorage
	Queue   ports.MessageQueue

	Pipeline  ports.DocumentAnalyzer
	SubmitUC  ports.DocumentSubmitter
	ProcessUC ports.SubmissionProcessor

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	var (
		db    *sql.DB
		store ports.DocumentStore
	)
	if cfg.PostgresDSN != "" {
		var err error
		db, err = postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		documentStore := postgres.NewDocumentStore(db)
		if err := documentStore.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		store = documentStore
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	var queue ports.MessageQueue
	var queueClose func()
	if cfg.NATSURL != "" {
		resilienceCfg := resilience.DefaultConfig()
		natsQueue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			Resilience: &resilienceCfg,
		})
		if err != nil {
			if db != nil {
				_ = db.Close()
			}
			return nil, fmt.Errorf("init message queue: %w", err)
		}
		queue = natsQueue
		queueClose = natsQueue.Close
	}

	var summarizer ports.Summarizer
	if cfg.GeminiAPIKey != "" {
		client, err := gemini.New(ctx, gemini.Config{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			BaseURL: cfg.GeminiBaseURL,
		})
		if err != nil {
			if queueClose != nil {
				queueClose()
			}
			if db != nil {
				_ = db.Close()
			}
			return nil, fmt.Errorf("init gemini client: %w", err)
		}
		summarizer = client
	} else {
		summarizer = unconfiguredSummarizer{}
	}

	extract := extractor.New(pdfreader.New(), ocr.New(splitLanguages(cfg.OCRLanguages)...))

	var recorder ports.OutcomeRecorder
	if store != nil {
		recorder = store
	}
	pipeline := usecase.NewDocumentPipeline(extract, summarizer, recorder)

	var submitUC ports.DocumentSubmitter
	if store != nil && queue != nil {
		submitUC = usecase.NewSubmitDocumentUseCase(store, storage, queue)
	}

	var processUC ports.SubmissionProcessor
	if store != nil {
		processUC = usecase.NewProcessSubmissionUseCase(store, storage, pipeline)
	}

	return &App{
		Config: cfg,

		Store:   store,
		Storage: storage,
		Queue:   queue,

		Pipeline:  pipeline,
		SubmitUC:  submitUC,
		ProcessUC: processUC,

		closeFn: func() {
			if queueClose != nil {
				queueClose()
			}
			if db != nil {
				_ = db.Close()
			}
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// unconfiguredSummarizer stands in when no Gemini API key is set. Every
// summarization fails, which the pipeline turns into the degraded
// placeholder summary instead of failing the document.
type unconfiguredSummarizer struct{}

func (unconfiguredSummarizer) Summarize(context.Context, string) (string, error) {
	return "", errors.New("gemini api key not configured")
}

func splitLanguages(raw string) []string {
	var languages []string
	for _, lang := range strings.Split(raw, ",") {
		if lang = strings.TrimSpace(lang); lang != "" {
			languages = append(languages, lang)
		}
	}
	return languages
}
