// Package chi is the HTTP surface over the answer engine: document upload,
// text and vision questions, index reset, health and metrics. Thin glue —
// all behavior lives in the usecase layer.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/emmystark/Rag-chatbot/internal/domain"
	"github.com/emmystark/Rag-chatbot/internal/logger"
	"github.com/emmystark/Rag-chatbot/internal/metrics"
	healthuc "github.com/emmystark/Rag-chatbot/internal/usecase/health"
)

// Ingestor runs document ingestion and index reset.
type Ingestor interface {
	AddDocument(ctx context.Context, path string) (int, error)
	Clear(ctx context.Context) error
}

// Answerer answers text and vision questions. Never fails outward.
type Answerer interface {
	QueryText(ctx context.Context, question string) domain.Answer
	QueryVision(ctx context.Context, question string, image []byte) domain.Answer
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Config holds transport settings.
type Config struct {
	UploadDir   string
	MaxUploadMB int
	CORSOrigins []string
	Supported   func(path string) bool
}

// Server is the HTTP API server.
type Server struct {
	ingest Ingestor
	answer Answerer
	health HealthChecker
	cfg    Config
	logger *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(ingest Ingestor, answer Answerer, health HealthChecker, cfg Config, logger *zap.Logger) *Server {
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 32
	}
	return &Server{ingest: ingest, answer: answer, health: health, cfg: cfg, logger: logger}
}

// Router builds the chi router with middleware and all routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(corsMiddleware(s.cfg.CORSOrigins))
	r.Use(metrics.Middleware())

	r.Get("/", s.handleRoot)
	r.Post("/upload", s.handleUpload)
	r.Post("/ask", s.handleAsk)
	r.Post("/vision", s.handleVision)
	r.Delete("/clear", s.handleClear)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

// requestLogger stores a request-scoped logger in the context so handlers
// and services can correlate log lines by request id.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := s.logger
		if reqID := chiMiddleware.GetReqID(r.Context()); reqID != "" {
			l = l.With(zap.String("request_id", reqID))
		}
		next.ServeHTTP(w, r.WithContext(logger.ContextWithLogger(r.Context(), l)))
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Local RAG + Vision API ready"})
}

// handleUpload receives a multipart document, saves it under the upload
// directory, and ingests it. Unsupported extensions are rejected before the
// file is written.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(int64(s.cfg.MaxUploadMB) << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if s.cfg.Supported != nil && !s.cfg.Supported(name) {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("unsupported file type: %s", filepath.Ext(name)))
		return
	}

	path, err := s.saveUpload(file, name)
	if err != nil {
		logger.FromContext(r.Context()).Error("failed to save upload",
			zap.String("filename", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save file")
		return
	}

	chunks, err := s.ingest.AddDocument(r.Context(), path)
	if err != nil {
		s.writeIngestError(w, r, name, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Message:  "Uploaded & indexed",
		Filename: name,
		Chunks:   chunks,
	})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	// Never fails outward: a degraded answer is still an answer.
	answer := s.answer.QueryText(r.Context(), req.Question)
	writeJSON(w, http.StatusOK, answer)
}

func (s *Server) handleVision(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(int64(s.cfg.MaxUploadMB) << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	question := r.FormValue("question")
	if question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing image field")
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read image")
		return
	}

	answer := s.answer.QueryVision(r.Context(), question, image)
	writeJSON(w, http.StatusOK, answer)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.ingest.Clear(r.Context()); err != nil {
		logger.FromContext(r.Context()).Error("failed to clear index", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to clear index")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "All documents cleared"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// saveUpload streams the uploaded file into the upload directory.
func (s *Server) saveUpload(src io.Reader, name string) (string, error) {
	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	path := filepath.Join(s.cfg.UploadDir, name)
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

// writeIngestError maps ingestion faults onto HTTP statuses. Unsupported
// format and load failures are actionable by the uploader; anything else is
// an internal error.
func (s *Server) writeIngestError(w http.ResponseWriter, r *http.Request, name string, err error) {
	switch {
	case errors.Is(err, domain.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrLoadFailure):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		logger.FromContext(r.Context()).Error("ingestion failed",
			zap.String("filename", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "ingestion failed")
	}
}
