package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	appanalysis "github.com/bryanwahyu/sitecategory/internal/application/analysis"
	apphistory "github.com/bryanwahyu/sitecategory/internal/application/history"
	domain "github.com/bryanwahyu/sitecategory/internal/domain/analysis"
	"github.com/bryanwahyu/sitecategory/internal/infra/ai/prompt"
	"github.com/bryanwahyu/sitecategory/internal/middleware"
)

const (
	maxHistoryLimit = 50
	maxBatchSize    = 100
)

// Capturer renders a page screenshot.
type Capturer interface {
	Capture(ctx context.Context, url string) ([]byte, error)
}

// ObjectStore persists screenshot bytes and returns a URL.
type ObjectStore interface {
	UploadBytes(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

type Router struct {
	analysisSvc *appanalysis.Service
	historySvc  *apphistory.Service
	capturer    Capturer
	shots       ObjectStore
}

type Options struct {
	AllowedOrigins []string
	Capturer       Capturer
	Shots          ObjectStore
	DB             *sql.DB
}

func NewRouter(analysisSvc *appanalysis.Service, historySvc *apphistory.Service, opts Options) http.Handler {
	r := &Router{
		analysisSvc: analysisSvc,
		historySvc:  historySvc,
		capturer:    opts.Capturer,
		shots:       opts.Shots,
	}
	mux := chi.NewRouter()

	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.RateLimitMiddleware(60, 1))
	if len(opts.AllowedOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))
	}

	checkers := map[string]middleware.HealthChecker{}
	if opts.DB != nil {
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: opts.DB}
	}
	mux.Get("/health", middleware.HealthHandler(checkers))
	mux.Get("/health/live", middleware.LivenessHandler)
	mux.Get("/health/ready", middleware.ReadinessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/api", func(rt chi.Router) {
		rt.Post("/analyze", r.wrap(r.handleAnalyze))
		rt.Post("/analyze-batch", r.wrap(r.handleAnalyzeBatch))
		rt.Get("/history", r.wrap(r.handleHistoryList))
		rt.Get("/history/categories", r.wrap(r.handleHistoryCategories))
		rt.Get("/history/{id}", r.wrap(r.handleHistoryDetail))
		rt.Get("/categories/main", r.wrap(r.handleMainCategories))
		if r.capturer != nil && r.shots != nil {
			rt.Post("/screenshot", r.wrap(r.handleScreenshot))
		}
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			var badReq *badRequestError
			if errors.As(err, &badReq) {
				http.Error(w, badReq.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

type badRequestError struct{ msg string }

func (e *badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

func forceRefresh(req *http.Request) bool {
	v := req.URL.Query().Get("force_refresh")
	return v == "true" || v == "1"
}

// POST /api/analyze?force_refresh=
// Body: {"url": "<url>"}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	if body.URL == "" {
		return badRequest("url is required")
	}

	res := r.analysisSvc.AnalyzeURL(req.Context(), body.URL, forceRefresh(req))
	countAnalysis(res)

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(res)
}

func countAnalysis(res *domain.Result) {
	middleware.IncrementAnalyses()
	if res.FromCache {
		middleware.IncrementCacheHits()
	}
	if res.Status == domain.StatusFailed {
		middleware.IncrementAnalysesFailed()
	}
}

// POST /api/analyze-batch?force_refresh=
// Body: {"urls": ["<url>", ...]}
func (r *Router) handleAnalyzeBatch(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		URLs []string `json:"urls"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	if len(body.URLs) == 0 {
		return badRequest("urls is required")
	}
	if len(body.URLs) > maxBatchSize {
		return badRequest("too many urls: %d (max %d)", len(body.URLs), maxBatchSize)
	}

	res := r.analysisSvc.AnalyzeBatch(req.Context(), body.URLs, forceRefresh(req))
	middleware.IncrementBatches()
	for _, item := range res.Results {
		countAnalysis(item)
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(res)
}

// GET /api/history?page=&limit=&sort=&status=&main_category=&url_contains=
func (r *Router) handleHistoryList(w http.ResponseWriter, req *http.Request) error {
	q := req.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	list, err := r.historySvc.List(req.Context(), apphistory.ListRequest{
		Page:         page,
		Limit:        limit,
		Sort:         q.Get("sort"),
		Status:       q.Get("status"),
		MainCategory: q.Get("main_category"),
		URLContains:  q.Get("url_contains"),
	})
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /api/history/categories
func (r *Router) handleHistoryCategories(w http.ResponseWriter, req *http.Request) error {
	cats, err := r.historySvc.Categories(req.Context())
	if err != nil {
		return err
	}
	if cats == nil {
		cats = []string{}
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(cats)
}

// GET /api/history/{id}
func (r *Router) handleHistoryDetail(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")

	rec, err := r.historySvc.Get(req.Context(), domain.RecordID(id))
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(rec)
}

// GET /api/categories/main — the fixed candidate list the classifier
// chooses from.
func (r *Router) handleMainCategories(w http.ResponseWriter, req *http.Request) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(prompt.MainCategories)
}

// POST /api/screenshot
// Body: {"url": "<url>"}
func (r *Router) handleScreenshot(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	if body.URL == "" {
		return badRequest("url is required")
	}

	img, err := r.capturer.Capture(req.Context(), body.URL)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("screenshots/%s.jpg", uuid.New().String())
	url, err := r.shots.UploadBytes(req.Context(), key, img, "image/jpeg")
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(map[string]string{"url": url})
}
