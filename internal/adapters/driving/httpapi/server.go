// Package httpapi serves the report drafter over a small JSON API.
//
// Routes:
//
//	GET  /api/health    liveness probe
//	POST /api/generate  draft a report
//	GET  /api/sections  the section catalog
//	GET  /metrics       prometheus metrics
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/sred-drafter/internal/core/domain"
	"github.com/custodia-labs/sred-drafter/internal/core/ports/driving"
	"github.com/custodia-labs/sred-drafter/internal/logger"
	"github.com/custodia-labs/sred-drafter/internal/metrics"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// GenerateRequest is the body of POST /api/generate.
type GenerateRequest struct {
	Industry           string `json:"industry"`
	TechCode           string `json:"tech_code"`
	ProjectDescription string `json:"project_description"`
	CompanySummary     string `json:"company_summary"`
}

// GenerateResponse is the body of a successful POST /api/generate.
type GenerateResponse struct {
	ReportID string            `json:"report_id"`
	Sections map[string]string `json:"sections"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Section string `json:"section,omitempty"`
	Stage   string `json:"stage,omitempty"`
}

// Server routes HTTP requests to the report service.
type Server struct {
	reports driving.ReportService
	catalog *domain.SectionCatalog
	metrics *metrics.Recorder
	mux     *http.ServeMux
}

// NewServer creates the API. catalog and rec may be nil.
func NewServer(reports driving.ReportService, catalog driving.SectionCatalogProvider, rec *metrics.Recorder) *Server {
	s := &Server{
		reports: reports,
		catalog: domain.DefaultSectionCatalog(),
		metrics: rec,
		mux:     http.NewServeMux(),
	}
	if catalog != nil {
		s.catalog = catalog.Catalog()
	}

	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("POST /api/generate", s.handleGenerate)
	s.mux.HandleFunc("GET /api/sections", s.handleSections)
	s.mux.Handle("GET /metrics", rec.Handler())
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	s.mux.ServeHTTP(w, r)
	logger.Debug("http %s %s (%s)", r.Method, r.URL.Path, time.Since(start).Round(time.Millisecond))
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body: " + err.Error()})
		return
	}

	project := domain.ProjectContext{
		Industry:           req.Industry,
		TechCode:           req.TechCode,
		ProjectDescription: req.ProjectDescription,
		CompanySummary:     req.CompanySummary,
	}.Trimmed()

	if err := project.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: errorMessage(err)})
		return
	}
	if err := project.ValidateDescription(); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: errorMessage(err)})
		return
	}

	report, err := s.reports.GenerateReport(r.Context(), project)
	if err != nil {
		logger.Error("generate report: %v", err)
		writeJSON(w, statusFor(err), failure(err))
		return
	}

	writeJSON(w, http.StatusOK, GenerateResponse{
		ReportID: report.ID,
		Sections: report.SectionTexts(),
	})
}

func (s *Server) handleSections(w http.ResponseWriter, _ *http.Request) {
	type section struct {
		Key      string `json:"key"`
		Label    string `json:"label"`
		MinWords int    `json:"min_words"`
		MaxWords int    `json:"max_words"`
	}
	specs := s.catalog.Specs()
	out := make([]section, len(specs))
	for i, spec := range specs {
		out[i] = section{Key: string(spec.Key), Label: spec.Label, MinWords: spec.Words.Min, MaxWords: spec.Words.Max}
	}
	writeJSON(w, http.StatusOK, out)
}

// statusFor maps pipeline failures onto HTTP status codes. A failure inside
// a section pipeline is always a server error.
func statusFor(err error) int {
	var sectionErr *domain.SectionError
	switch {
	case errors.As(err, &sectionErr):
		return http.StatusInternalServerError
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrCollectionNotFound),
		errors.Is(err, domain.ErrLLMUnavailable),
		errors.Is(err, domain.ErrEmbeddingUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func failure(err error) ErrorResponse {
	resp := ErrorResponse{Error: err.Error()}
	var sectionErr *domain.SectionError
	if errors.As(err, &sectionErr) {
		resp.Section = string(sectionErr.Section)
		resp.Stage = string(sectionErr.Stage)
	}
	return resp
}

// errorMessage strips the sentinel prefix from validation errors.
func errorMessage(err error) string {
	return strings.TrimPrefix(err.Error(), domain.ErrInvalidInput.Error()+": ")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("write response: %v", err)
	}
}
