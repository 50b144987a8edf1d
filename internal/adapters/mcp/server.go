package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/caregrid/docpipeline/internal/core/domain"
	"github.com/caregrid/docpipeline/internal/core/ports"
)

// Server exposes the document pipeline as MCP tools over stdio. Tools run
// the pipeline inline and return the outcome as JSON; nothing is persisted.
type Server struct {
	pipeline ports.DocumentAnalyzer
	mcp      *server.MCPServer
}

func NewServer(pipeline ports.DocumentAnalyzer) *Server {
	s := &Server{pipeline: pipeline}
	s.mcp = server.NewMCPServer(
		"caregrid-docpipeline",
		"1.0.0",
		server.WithToolCapabilities(false),
	)
	s.mcp.AddTool(processDocumentTool(), s.handleProcessDocument)
	s.mcp.AddTool(detectFormatTool(), s.handleDetectFormat)
	return s
}

// Serve reads MCP requests from stdin until the stream closes.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}

func processDocumentTool() mcp.Tool {
	return mcp.NewTool("process_document",
		mcp.WithDescription("Extract text from a caregiver document (PDF or image) and summarize it with the category prompt. Returns the processing outcome as JSON."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the document file"),
		),
		mcp.WithString("category",
			mcp.Description("Document category: certification, background_check, identification or generic"),
		),
		mcp.WithString("owner",
			mcp.Description("Identifier of the caregiver who owns the document"),
		),
	)
}

func (s *Server) handleProcessDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	category := domain.Category(request.GetString("category", string(domain.CategoryGeneric)))
	owner := request.GetString("owner", "")

	outcome := s.pipeline.Process(ctx, domain.NewDocumentRef(path, category, owner))
	payload, err := json.Marshal(outcome)
	if err != nil {
		return nil, fmt.Errorf("encode outcome: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func detectFormatTool() mcp.Tool {
	return mcp.NewTool("detect_format",
		mcp.WithDescription("Detect the processing format of a document from its file suffix."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path or filename to inspect"),
		),
	)
}

func (s *Server) handleDetectFormat(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format, err := domain.DetectFormat(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	payload, err := json.Marshal(struct {
		Format string `json:"format"`
	}{Format: string(format)})
	if err != nil {
		return nil, fmt.Errorf("encode format: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}
