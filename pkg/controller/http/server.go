package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"

	"github.com/finderslab/toolscout/pkg/domain/model"
	"github.com/finderslab/toolscout/pkg/usecase"
	"github.com/finderslab/toolscout/pkg/utils/errutil"
	"github.com/finderslab/toolscout/pkg/utils/logging"
	"github.com/finderslab/toolscout/pkg/utils/safe"
)

type Server struct {
	router *chi.Mux
	uc     *usecase.UseCases
}

func New(uc *usecase.UseCases) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Post("/ingest", s.ingestHandler)
		r.Get("/search", s.searchHandler)
		r.Get("/tools", s.toolsHandler)
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

type ingestResponse struct {
	RunID     string `json:"run_id"`
	Success   bool   `json:"success"`
	Sources   int    `json:"sources"`
	Processed int    `json:"processed"`
	Embedded  int    `json:"embedded"`
	Committed int    `json:"committed"`
	Duration  string `json:"duration"`
	Message   string `json:"message,omitempty"`
}

// ingestHandler triggers one synchronous ingestion run. Failures are
// reported in the body with a 502: the summary always describes what
// happened, including partial progress.
func (s *Server) ingestHandler(w http.ResponseWriter, r *http.Request) {
	summary := s.uc.Ingest(r.Context())

	status := http.StatusOK
	if !summary.Success {
		status = http.StatusBadGateway
	}

	writeJSON(w, r, status, ingestResponse{
		RunID:     string(summary.RunID),
		Success:   summary.Success,
		Sources:   summary.SourceCount,
		Processed: summary.ProcessedCount,
		Embedded:  summary.EmbeddedCount,
		Committed: summary.CommittedCount,
		Duration:  summary.Duration.String(),
		Message:   summary.Message,
	})
}

type toolResponse struct {
	StableID     string `json:"stable_id"`
	Slug         string `json:"slug"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	WebsiteURL   string `json:"website_url,omitempty"`
	Category     string `json:"category,omitempty"`
	PricingModel string `json:"pricing_model,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
	LaunchDate   string `json:"launch_date"`
}

type toolListResponse struct {
	Tools []toolResponse `json:"tools"`
}

func toToolResponse(tools []*model.Tool) toolListResponse {
	resp := toolListResponse{Tools: make([]toolResponse, len(tools))}
	for i, tool := range tools {
		resp.Tools[i] = toolResponse{
			StableID:     tool.StableID,
			Slug:         tool.Slug,
			Name:         tool.Name,
			Description:  tool.Description,
			WebsiteURL:   tool.WebsiteURL,
			Category:     tool.Category,
			PricingModel: tool.PricingModel,
			ImageURL:     tool.ImageURL,
			LaunchDate:   tool.LaunchDate.Format(time.RFC3339),
		}
	}
	return resp
}

func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := parseLimit(r.URL.Query().Get("limit"))

	tools := s.uc.Search(r.Context(), query, limit)
	writeJSON(w, r, http.StatusOK, toToolResponse(tools))
}

func (s *Server) toolsHandler(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = usecase.DefaultSearchLimit
	}

	tools, err := s.uc.Latest(r.Context(), limit)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to list latest tools"), http.StatusInternalServerError)
		return
	}
	writeJSON(w, r, http.StatusOK, toToolResponse(tools))
}

func parseLimit(raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(r.Context(), w, data)
}
