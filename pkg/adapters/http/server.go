package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/aretw0/conduit"
	"github.com/aretw0/conduit/internal/presentation/graph"
	"github.com/aretw0/conduit/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxBody caps contract uploads.
const maxBody = 4 << 20

// Reports serves and caches analyses; *analysis.Manager satisfies it.
type Reports interface {
	Analyze(ctx context.Context, c *domain.Contract) (*domain.Report, bool, error)
	Load(ctx context.Context, id string) (*domain.Report, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
}

// Compiler parses and compiles contracts; *conduit.Engine satisfies it.
type Compiler interface {
	Parse(data []byte) (*domain.Contract, error)
	Compile(code []domain.Instruction) *domain.Graph
	Validate(g *domain.Graph) error
}

// AnalyzeResponse wraps a report with its cache status.
type AnalyzeResponse struct {
	Report *domain.Report `json:"report"`
	Cached bool           `json:"cached"`
}

// Server exposes the analysis API over HTTP.
type Server struct {
	Reports  Reports
	Compiler Compiler
	Streams  *StreamManager
	Logger   *slog.Logger
}

// NewHandler creates the HTTP handler. Extra routes (such as /metrics) can
// be mounted on the returned router by the caller.
func NewHandler(reports Reports, compiler Compiler, logger *slog.Logger) chi.Router {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		Reports:  reports,
		Compiler: compiler,
		Streams:  NewStreamManager(logger),
		Logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Post("/analyze", s.Analyze)
	r.Post("/graph", s.Graph)
	r.Get("/events", s.SubscribeEvents)
	r.Route("/reports", func(r chi.Router) {
		r.Get("/", s.ListReports)
		r.Get("/{id}", s.GetReport)
		r.Delete("/{id}", s.DeleteReport)
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Analyze handles POST /analyze with a Micheline contract body.
func (s *Server) Analyze(w http.ResponseWriter, r *http.Request) {
	c, ok := s.readContract(w, r)
	if !ok {
		return
	}

	report, cached, err := s.Reports.Analyze(r.Context(), c)
	if err != nil {
		s.Logger.Error("Analyze failed", "err", err)
		http.Error(w, fmt.Sprintf("Analyze error: %v", err), statusFor(err))
		return
	}

	if !cached {
		if data, err := json.Marshal(summarize(report)); err == nil {
			s.Streams.Broadcast(string(data))
		}
	}
	s.writeJSON(w, AnalyzeResponse{Report: report, Cached: cached})
}

// Graph handles POST /graph and answers with Mermaid text. An optional
// ?path=1,2,3 query highlights a node trail.
func (s *Server) Graph(w http.ResponseWriter, r *http.Request) {
	c, ok := s.readContract(w, r)
	if !ok {
		return
	}

	var overlay *graph.GraphOverlay
	if raw := r.URL.Query().Get("path"); raw != "" {
		path, err := ParsePath(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		overlay = graph.NewOverlay(path)
	}

	g := s.Compiler.Compile(c.Code)
	if err := s.Compiler.Validate(g); err != nil {
		http.Error(w, fmt.Sprintf("Invalid graph: %v", err), http.StatusUnprocessableEntity)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, graph.GenerateMermaid(g, overlay))
}

// ListReports handles GET /reports.
func (s *Server) ListReports(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Reports.List(r.Context())
	if err != nil {
		s.Logger.Error("List failed", "err", err)
		http.Error(w, fmt.Sprintf("List error: %v", err), http.StatusInternalServerError)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, ids)
}

// GetReport handles GET /reports/{id}.
func (s *Server) GetReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.Reports.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	s.writeJSON(w, report)
}

// DeleteReport handles DELETE /reports/{id}.
func (s *Server) DeleteReport(w http.ResponseWriter, r *http.Request) {
	if err := s.Reports.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]any{
		"app":         "conduit-http",
		"version":     strings.TrimSpace(conduit.Version),
		"subscribers": s.Streams.Subscribers(),
	})
}

func (s *Server) readContract(w http.ResponseWriter, r *http.Request) (*domain.Contract, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.Logger.Warn("Invalid request body", "err", err)
		return nil, false
	}
	c, err := s.Compiler.Parse(body)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid contract: %v", err), http.StatusBadRequest)
		return nil, false
	}
	return c, true
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "err", err)
	}
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrReportNotFound), errors.Is(err, domain.ErrContractNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnsupportedInstruction), errors.Is(err, domain.ErrStackUnderflow),
		errors.Is(err, domain.ErrInvalidGraph):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// ParsePath reads a comma separated node trail such as "1,3,0".
func ParsePath(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	path := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid node id %q in path", p)
		}
		path = append(path, id)
	}
	return path, nil
}
