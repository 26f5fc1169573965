package analysis

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/sitecategory/internal/application"
	domain "github.com/bryanwahyu/sitecategory/internal/domain/analysis"
	domai "github.com/bryanwahyu/sitecategory/internal/domain/ai"
)

// Service implements the analysis use-cases: single-URL and batch
// classification with cache-or-analyze semantics. Safe for concurrent use.
type Service struct {
	Repo          domain.Repository
	Fetcher       domain.Fetcher
	AI            domai.Client
	Clock         application.Clock
	CacheWindow   time.Duration // freshness window for cache hits
	MaxConcurrent int           // batch fan-out bound
}

// AnalyzeURL runs the single-URL pipeline: normalize, consult the cache
// unless forceRefresh, otherwise fetch + classify, persist the outcome, and
// return a result keyed by the caller's original URL. It never returns an
// error; every failure becomes a failed result.
func (s *Service) AnalyzeURL(ctx context.Context, url string, forceRefresh bool) *domain.Result {
	normalized := domain.NormalizeURL(url)

	if !forceRefresh {
		if hit := s.checkCache(ctx, normalized); hit != nil {
			slog.Info("cache hit", "url", url, "normalized", normalized)
			return hit
		}
	}

	result := s.freshAnalyze(ctx, url)

	// Persistence failures must never change the user-visible outcome.
	if err := s.persist(ctx, normalized, result, false, ""); err != nil {
		slog.Error("failed to persist analysis record", "url", normalized, "error", err)
	}

	return result
}

// freshAnalyze fetches page content and runs the AI classification. A fetch
// failure short-circuits: the analyzer is never called with nothing to read.
func (s *Service) freshAnalyze(ctx context.Context, url string) *domain.Result {
	content, err := s.Fetcher.Fetch(ctx, url)
	if err != nil {
		ferr := &domain.FetchError{URL: url, Err: err}
		slog.Error("content fetch failed", "url", url, "error", err)
		return &domain.Result{URL: url, Status: domain.StatusFailed, Error: ferr.Error()}
	}

	raw, err := s.AI.Classify(ctx, url, content)
	if err != nil {
		aerr := &domain.AnalyzerError{URL: url, Err: err}
		slog.Error("ai classification failed", "url", url, "error", err)
		return &domain.Result{URL: url, Status: domain.StatusFailed, Error: aerr.Error()}
	}

	parsed, err := domain.ParseAnalysis(raw)
	if err != nil {
		aerr := &domain.AnalyzerError{URL: url, Err: err}
		slog.Error("ai output unparseable", "url", url, "error", err)
		return &domain.Result{URL: url, Status: domain.StatusFailed, Error: aerr.Error()}
	}

	return &domain.Result{URL: url, Status: domain.StatusSuccess, Analysis: parsed}
}

// AnalyzeBatch runs the batch pipeline: one batched cache lookup, bounded
// concurrent forced-refresh analyses for the misses, re-assembly in input
// order, and persistence of the whole batch under a shared batch id.
func (s *Service) AnalyzeBatch(ctx context.Context, urls []string, forceRefresh bool) *domain.BatchResult {
	normalized := make([]string, len(urls))
	for i, u := range urls {
		normalized[i] = domain.NormalizeURL(u)
	}

	cached := map[string]*domain.Result{}
	if !forceRefresh {
		cached = s.batchCheckCache(ctx, normalized)
	}

	// Duplicate input URLs collapse to one analysis; each slot still gets a
	// result below.
	seen := make(map[string]bool, len(urls))
	var toAnalyze []string
	for i, u := range urls {
		if _, ok := cached[normalized[i]]; ok {
			continue
		}
		if seen[u] {
			continue
		}
		seen[u] = true
		toAnalyze = append(toAnalyze, u)
	}

	fresh := make(map[string]*domain.Result, len(toAnalyze))
	var mu sync.Mutex

	limit := s.MaxConcurrent
	if limit <= 0 {
		limit = len(toAnalyze)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, u := range toAnalyze {
		u := u
		g.Go(func() error {
			// Forced refresh: the batched lookup above already decided these
			// are misses. Failures stay inside the per-URL result so one bad
			// URL cannot abort its siblings.
			res := s.AnalyzeURL(gctx, u, true)
			mu.Lock()
			fresh[u] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	results := make([]*domain.Result, 0, len(urls))
	for i, u := range urls {
		switch {
		case cached[normalized[i]] != nil:
			hit := *cached[normalized[i]]
			hit.URL = u // hand the caller back the URL they supplied
			results = append(results, &hit)
		case fresh[u] != nil:
			results = append(results, fresh[u])
		default:
			// Defensive: every input URL must occupy its slot.
			results = append(results, &domain.Result{URL: u, Status: domain.StatusFailed, Error: "analysis failed"})
		}
	}

	batchID := domain.NewBatchID()
	for i, res := range results {
		if err := s.persist(ctx, normalized[i], res, true, batchID); err != nil {
			slog.Error("failed to persist batch record", "url", normalized[i], "batch_id", batchID, "error", err)
		}
	}

	success := 0
	for _, res := range results {
		if res.Status == domain.StatusSuccess {
			success++
		}
	}

	return &domain.BatchResult{
		Results: results,
		Total:   len(results),
		Success: success,
		Failed:  len(results) - success,
	}
}

// persist writes one history record mirroring the result. The record always
// carries the normalized URL.
func (s *Service) persist(ctx context.Context, normalizedURL string, res *domain.Result, isBatch bool, batchID string) error {
	var rec *domain.Record
	if res.Status == domain.StatusSuccess {
		rec = domain.NewSuccessRecord(normalizedURL, s.Clock.Now(), res.Analysis)
	} else {
		rec = domain.NewFailedRecord(normalizedURL, s.Clock.Now(), res.Error)
	}
	rec.IsBatch = isBatch
	rec.BatchID = batchID
	return s.Repo.Insert(ctx, rec)
}
