package analysis

import (
	"context"
	"log/slog"

	domain "github.com/bryanwahyu/sitecategory/internal/domain/analysis"
)

// checkCache returns the most recent successful analysis for a normalized
// URL inside the freshness window, or nil on a miss. Lookup errors degrade
// to a miss; the pipeline just re-analyzes.
func (s *Service) checkCache(ctx context.Context, normalizedURL string) *domain.Result {
	since := s.Clock.Now().Add(-s.CacheWindow)
	rec, err := s.Repo.LatestSuccess(ctx, normalizedURL, since)
	if err != nil {
		slog.Warn("cache lookup failed", "url", normalizedURL, "error", err)
		return nil
	}
	if rec == nil {
		return nil
	}
	return cacheResult(normalizedURL, rec)
}

// batchCheckCache is the batched form: one store round-trip for the whole
// URL set, reduced per URL to the most recent qualifying record. Equivalent
// to independent per-URL lookups.
func (s *Service) batchCheckCache(ctx context.Context, normalizedURLs []string) map[string]*domain.Result {
	since := s.Clock.Now().Add(-s.CacheWindow)
	recs, err := s.Repo.LatestSuccessIn(ctx, uniqueStrings(normalizedURLs), since)
	if err != nil {
		slog.Warn("batch cache lookup failed", "error", err)
		return map[string]*domain.Result{}
	}
	out := make(map[string]*domain.Result, len(recs))
	for url, rec := range recs {
		out[url] = cacheResult(url, rec)
	}
	return out
}

func cacheResult(normalizedURL string, rec *domain.Record) *domain.Result {
	return &domain.Result{
		URL:       normalizedURL,
		Status:    domain.StatusSuccess,
		Analysis:  rec.Analysis,
		FromCache: true,
	}
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
