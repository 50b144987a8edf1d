package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	mcpadapter "github.com/caregrid/docpipeline/internal/adapters/mcp"
	"github.com/caregrid/docpipeline/internal/bootstrap"
	"github.com/caregrid/docpipeline/internal/config"
	"github.com/caregrid/docpipeline/internal/observability/logging"
)

func main() {
	cfg, err := config.LoadFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	// MCP tools process inline only: no datastore, no broker.
	cfg.PostgresDSN = ""
	cfg.NATSURL = ""
	// stdout carries the MCP protocol; logs go to stderr.
	slog.SetDefault(logging.NewTextLogger("docpipeline-mcp", cfg.LogLevel))

	app, err := bootstrap.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	if err := mcpadapter.NewServer(app.Pipeline).Serve(); err != nil {
		log.Fatalf("mcp server error: %v", err)
	}
}
