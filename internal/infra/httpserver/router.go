package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"k8s.io/klog/v2"

	appanalysis "github.com/bryanwahyu/repo-audit/internal/application/analysis"
	domain "github.com/bryanwahyu/repo-audit/internal/domain/analysis"
	"github.com/bryanwahyu/repo-audit/internal/middleware"
)

// maxBodyBytes bounds the analyze request body.
const maxBodyBytes = 64 << 10

// Analyzer is the application surface the handlers need.
type Analyzer interface {
	Analyze(ctx context.Context, cmd appanalysis.AnalyzeCommand) appanalysis.AnalyzeResult
	Get(ctx context.Context, id domain.RunID) (*domain.Run, error)
	Latest(ctx context.Context, limit int) ([]*domain.Run, error)
}

// Options carries the optional router collaborators.
type Options struct {
	Metrics        *middleware.Metrics
	HealthCheckers map[string]middleware.HealthChecker
	AllowedOrigins []string
}

type Router struct {
	svc Analyzer
}

func NewRouter(svc Analyzer, opts Options) http.Handler {
	r := &Router{svc: svc}
	mux := chi.NewRouter()

	mux.Use(chimw.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(middleware.LoggingMiddleware)
	if opts.Metrics != nil {
		mux.Use(opts.Metrics.Middleware)
	}
	mux.Use(chimw.Recoverer)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	mux.Get("/health", middleware.HealthHandler(opts.HealthCheckers))
	if opts.Metrics != nil {
		mux.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	mux.Post("/analyze", r.wrap(r.handleLegacyAnalyze))
	mux.Post("/v1/analyses", r.wrap(r.handleAnalyze))
	mux.Get("/v1/analyses/latest", r.wrap(r.handleLatest))
	mux.Get("/v1/analyses/{id}", r.wrap(r.handleGet))

	return mux
}

// badRequest is a client error whose message is safe to echo back.
type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		var br badRequest
		switch {
		case errors.As(err, &br):
			writeError(w, http.StatusBadRequest, br.msg)
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "not found")
		case errors.Is(err, appanalysis.ErrHistoryDisabled):
			writeError(w, http.StatusNotImplemented, err.Error())
		default:
			klog.Errorf("%s %s: %v", req.Method, req.URL.Path, err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
	}
}

// POST /v1/analyses
// Body: {"repository_url": "..."} or {"github_url": "..."}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	url, err := decodeRepoURL(req)
	if err != nil {
		return err
	}
	res := r.svc.Analyze(req.Context(), appanalysis.AnalyzeCommand{RepositoryURL: url})
	return writeJSON(w, http.StatusOK, res)
}

// legacyAnalyzeResponse keeps the response keys of the original /analyze
// endpoint, plus the run status fields.
type legacyAnalyzeResponse struct {
	Response      domain.Report                 `json:"response"`
	TempFile      string                        `json:"temp_file"`
	ErrorsFile    string                        `json:"errors_file"`
	GeminiSummary string                        `json:"gemini_summary"`
	ID            domain.RunID                  `json:"id"`
	Status        domain.RunStatus              `json:"status"`
	Statuses      map[domain.Slot]domain.Status `json:"statuses"`
}

// POST /analyze
// Body: {"github_url": "..."}
func (r *Router) handleLegacyAnalyze(w http.ResponseWriter, req *http.Request) error {
	url, err := decodeRepoURL(req)
	if err != nil {
		return err
	}
	res := r.svc.Analyze(req.Context(), appanalysis.AnalyzeCommand{RepositoryURL: url})
	return writeJSON(w, http.StatusOK, legacyAnalyzeResponse{
		Response:      res.Report,
		TempFile:      res.ReportFile,
		ErrorsFile:    res.SummaryFile,
		GeminiSummary: res.Summary,
		ID:            res.ID,
		Status:        res.Status,
		Statuses:      res.Statuses,
	})
}

func decodeRepoURL(req *http.Request) (string, error) {
	var body struct {
		GithubURL     string `json:"github_url"`
		RepositoryURL string `json:"repository_url"`
	}
	dec := json.NewDecoder(io.LimitReader(req.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		return "", badRequest{msg: "invalid JSON body"}
	}

	url := middleware.SanitizeString(body.RepositoryURL)
	if url == "" {
		url = middleware.SanitizeString(body.GithubURL)
	}
	if url == "" {
		return "", badRequest{msg: "github_url or repository_url is required"}
	}
	if err := middleware.ValidateRepoURL(url); err != nil {
		return "", badRequest{msg: err.Error()}
	}
	return url, nil
}

// GET /v1/analyses/latest?limit=20
func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.svc.Latest(req.Context(), middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	if list == nil {
		list = []*domain.Run{}
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/analyses/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateRunID(id); err != nil {
		return badRequest{msg: err.Error()}
	}

	run, err := r.svc.Get(req.Context(), domain.RunID(id))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, run)
}

func writeJSON(w http.ResponseWriter, code int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	_ = writeJSON(w, code, map[string]string{"error": msg})
}
