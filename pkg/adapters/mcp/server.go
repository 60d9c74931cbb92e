package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/conduit"
	"github.com/aretw0/conduit/internal/presentation/graph"
	"github.com/aretw0/conduit/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	reportsURI        = "conduit://reports"
	reportTemplateURI = "conduit://reports/{id}"
)

// Reports serves and caches analyses; *analysis.Manager satisfies it.
type Reports interface {
	Analyze(ctx context.Context, c *domain.Contract) (*domain.Report, bool, error)
	Load(ctx context.Context, id string) (*domain.Report, error)
	List(ctx context.Context) ([]string, error)
}

// Engine parses, compiles and runs uncached analyses; *conduit.Engine satisfies it.
type Engine interface {
	Parse(data []byte) (*domain.Contract, error)
	Compile(code []domain.Instruction) *domain.Graph
	AnalyzeLimit(ctx context.Context, c *domain.Contract, maxSteps int) (*domain.Report, error)
}

// Server exposes Conduit analyses as MCP tools and resources.
type Server struct {
	reports   Reports
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(reports Reports, engine Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		reports:   reports,
		engine:    engine,
		logger:    logger,
		mcpServer: server.NewMCPServer("conduit-mcp", strings.TrimSpace(conduit.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("analyze_contract",
		mcp.WithDescription("Symbolically execute a Michelson contract and list every terminating and failing path."),
		mcp.WithString("contract", mcp.Required(), mcp.Description("Micheline JSON of the contract (script array or {script: ...} envelope)")),
		mcp.WithNumber("max_steps", mcp.Description("Step limit for this run only; results are then not cached")),
	), s.handleAnalyze)

	s.mcpServer.AddTool(mcp.NewTool("contract_graph",
		mcp.WithDescription("Compile a contract and return its control-flow graph as a Mermaid flowchart."),
		mcp.WithString("contract", mcp.Required(), mcp.Description("Micheline JSON of the contract")),
		mcp.WithString("path", mcp.Description("Comma separated node IDs to highlight, e.g. 1,3,0")),
	), s.handleGraph)

	s.mcpServer.AddTool(mcp.NewTool("list_reports",
		mcp.WithDescription("List the IDs of stored analysis reports."),
	), s.handleListReports)
}

func (s *Server) handleAnalyze(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, errResult := s.contract(request)
	if errResult != nil {
		return errResult, nil
	}

	var (
		report *domain.Report
		err    error
	)
	if limit := request.GetInt("max_steps", 0); limit > 0 {
		report, err = s.engine.AnalyzeLimit(ctx, c, limit)
	} else {
		report, _, err = s.reports.Analyze(ctx, c)
	}
	if err != nil {
		s.logger.Warn("MCP analyze failed", "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}
	return jsonResult(report)
}

func (s *Server) handleGraph(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, errResult := s.contract(request)
	if errResult != nil {
		return errResult, nil
	}

	var overlay *graph.GraphOverlay
	if raw := request.GetString("path", ""); raw != "" {
		var path []int
		for _, part := range strings.Split(raw, ",") {
			var id int
			if _, err := fmt.Sscanf(strings.TrimSpace(part), "%d", &id); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("invalid node id %q in path", part)), nil
			}
			path = append(path, id)
		}
		overlay = graph.NewOverlay(path)
	}
	return mcp.NewToolResultText(graph.GenerateMermaid(s.engine.Compile(c.Code), overlay)), nil
}

func (s *Server) handleListReports(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := s.reports.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	if ids == nil {
		ids = []string{}
	}
	return jsonResult(ids)
}

func (s *Server) contract(request mcp.CallToolRequest) (*domain.Contract, *mcp.CallToolResult) {
	raw, err := request.RequireString("contract")
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	c, err := s.engine.Parse([]byte(raw))
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("invalid contract: %v", err))
	}
	return c, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(reportsURI, "Stored analysis reports",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.reports.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list reports: %w", err)
		}
		return jsonResource(reportsURI, ids)
	})

	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(reportTemplateURI, "Analysis report",
		mcp.WithTemplateMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		uri := request.Params.URI
		id := strings.TrimPrefix(uri, reportsURI+"/")
		report, err := s.reports.Load(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load report %s: %w", id, err)
		}
		return jsonResource(uri, report)
	})
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
