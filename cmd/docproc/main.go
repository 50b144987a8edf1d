package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/caregrid/docpipeline/internal/bootstrap"
	"github.com/caregrid/docpipeline/internal/config"
	"github.com/caregrid/docpipeline/internal/core/domain"
	"github.com/caregrid/docpipeline/internal/observability/logging"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	noStore := flag.Bool("no-store", false, "analyze without writing the outcome to the datastore")
	submit := flag.Bool("submit", false, "stage the file and queue it for a worker instead of processing inline")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: docproc [flags] <file> [category] [owner]\n\n")
		fmt.Fprintf(flag.CommandLine.Output(), "categories: certification, background_check, identification, generic\n\nflags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	file := flag.Arg(0)
	category := domain.CategoryGeneric
	if flag.NArg() > 1 {
		category = domain.Category(flag.Arg(1))
	}
	var owner string
	if flag.NArg() > 2 {
		owner = flag.Arg(2)
	}

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if *noStore {
		cfg.PostgresDSN = ""
	}
	// stdout carries only the result JSON; logs go to stderr.
	slog.SetDefault(logging.NewTextLogger("docproc", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	if *submit {
		submitDocument(ctx, app, file, category, owner)
		return
	}
	processInline(ctx, app, file, category, owner)
}

// processInline runs the pipeline in this process and prints the outcome.
// The outcome JSON always reaches stdout; the exit code reports failures.
func processInline(ctx context.Context, app *bootstrap.App, file string, category domain.Category, owner string) {
	ref := domain.NewDocumentRef(file, category, owner)
	outcome, err := app.Pipeline.ProcessAndRecord(ctx, ref)

	payload, marshalErr := json.MarshalIndent(outcome, "", "  ")
	if marshalErr != nil {
		log.Fatalf("encode outcome: %v", marshalErr)
	}
	fmt.Println(string(payload))

	if err != nil {
		slog.Error("outcome not recorded", "document", ref.DocumentID(), "error", err)
		os.Exit(1)
	}
	if outcome.Status != domain.StatusSuccess {
		os.Exit(1)
	}
}

// submitDocument stages the file and queues it for asynchronous processing.
func submitDocument(ctx context.Context, app *bootstrap.App, file string, category domain.Category, owner string) {
	if app.SubmitUC == nil {
		log.Fatal("submit requires POSTGRES_DSN and NATS_URL")
	}

	f, err := os.Open(file)
	if err != nil {
		log.Fatalf("open file: %v", err)
	}
	defer f.Close()

	rec, err := app.SubmitUC.Submit(ctx, filepath.Base(file), category, owner, f)
	if err != nil {
		log.Fatalf("submit error: %v", err)
	}

	payload, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		log.Fatalf("encode record: %v", err)
	}
	fmt.Println(string(payload))
}
