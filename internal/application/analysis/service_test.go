package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	domain "github.com/bryanwahyu/sitecategory/internal/domain/analysis"
)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

// fakeRepo is an in-memory Repository. Inserted records accumulate in order;
// cache lookups scan them the way the SQL repos do.
type fakeRepo struct {
	mu        sync.Mutex
	records   []*domain.Record
	insertErr error
	lookupErr error
}

func (r *fakeRepo) Insert(ctx context.Context, rec *domain.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	r.records = append(r.records, rec)
	return nil
}

func (r *fakeRepo) LatestSuccess(ctx context.Context, url string, since time.Time) (*domain.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lookupErr != nil {
		return nil, r.lookupErr
	}
	var best *domain.Record
	for _, rec := range r.records {
		if rec.URL != url || rec.Status != domain.StatusSuccess || rec.Timestamp.Before(since) {
			continue
		}
		if best == nil || rec.Timestamp.After(best.Timestamp) {
			best = rec
		}
	}
	return best, nil
}

func (r *fakeRepo) LatestSuccessIn(ctx context.Context, urls []string, since time.Time) (map[string]*domain.Record, error) {
	if r.lookupErr != nil {
		return nil, r.lookupErr
	}
	out := map[string]*domain.Record{}
	for _, u := range urls {
		rec, err := r.LatestSuccess(ctx, u, since)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			out[u] = rec
		}
	}
	return out, nil
}

func (r *fakeRepo) Page(ctx context.Context, q domain.HistoryQuery) ([]*domain.Record, int64, error) {
	return nil, 0, errors.New("not implemented")
}

func (r *fakeRepo) DistinctCategories(ctx context.Context) ([]string, error) {
	return nil, errors.New("not implemented")
}

func (r *fakeRepo) GetByID(ctx context.Context, id domain.RecordID) (*domain.Record, error) {
	return nil, errors.New("not implemented")
}

func (r *fakeRepo) inserted() []*domain.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Record, len(r.records))
	copy(out, r.records)
	return out
}

type fakeFetcher struct {
	mu      sync.Mutex
	calls   []string
	content map[string]string
	errs    map[string]error
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()
	if err, ok := f.errs[url]; ok {
		return "", err
	}
	if c, ok := f.content[url]; ok {
		return c, nil
	}
	return "some page content", nil
}

type fakeAI struct {
	mu       sync.Mutex
	calls    int
	response string
	err      error
	perURL   map[string]string
}

func (a *fakeAI) Classify(ctx context.Context, url, content string) (string, error) {
	a.mu.Lock()
	a.calls++
	a.mu.Unlock()
	if a.err != nil {
		return "", a.err
	}
	if r, ok := a.perURL[url]; ok {
		return r, nil
	}
	if a.response != "" {
		return a.response, nil
	}
	return `{"main_category": "Technology", "confidence": 0.9}`, nil
}

func newTestService(repo *fakeRepo, fetcher *fakeFetcher, ai *fakeAI, now time.Time) *Service {
	return &Service{
		Repo:          repo,
		Fetcher:       fetcher,
		AI:            ai,
		Clock:         fixedClock{at: now},
		CacheWindow:   7 * 24 * time.Hour,
		MaxConcurrent: 4,
	}
}

func TestAnalyzeURLFreshSuccess(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := &fakeRepo{}
	svc := newTestService(repo, &fakeFetcher{}, &fakeAI{}, now)

	res := svc.AnalyzeURL(context.Background(), "http://example.com/shop/", false)

	if res.Status != domain.StatusSuccess {
		t.Fatalf("status = %q, want success (err %q)", res.Status, res.Error)
	}
	if res.FromCache {
		t.Error("FromCache = true for a fresh analysis")
	}
	if res.Analysis == nil || res.Analysis.MainCategory != "Technology" {
		t.Fatalf("Analysis = %#v, want Technology", res.Analysis)
	}

	recs := repo.inserted()
	if len(recs) != 1 {
		t.Fatalf("persisted %d records, want 1", len(recs))
	}
	if recs[0].URL != "https://example.com/shop" {
		t.Errorf("persisted URL = %q, want normalized https://example.com/shop", recs[0].URL)
	}
	if !strings.HasPrefix(string(recs[0].ID), "hist_") {
		t.Errorf("record id = %q, want hist_ prefix", recs[0].ID)
	}
	if recs[0].IsBatch {
		t.Error("single analysis persisted with IsBatch set")
	}
}

func TestAnalyzeURLCacheFreshnessBoundary(t *testing.T) {
	now := time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)
	window := 7 * 24 * time.Hour

	cases := []struct {
		name     string
		recordAt time.Time
		wantHit  bool
	}{
		{"well inside window", now.Add(-time.Hour), true},
		{"exactly at boundary", now.Add(-window), true},
		{"one second too old", now.Add(-window - time.Second), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeRepo{records: []*domain.Record{{
				ID:           domain.NewRecordID(),
				URL:          "https://example.com/",
				Timestamp:    tc.recordAt,
				Status:       domain.StatusSuccess,
				MainCategory: "Finance",
				Analysis:     &domain.CategoryAnalysis{MainCategory: "Finance"},
			}}}
			ai := &fakeAI{}
			svc := newTestService(repo, &fakeFetcher{}, ai, now)

			res := svc.AnalyzeURL(context.Background(), "http://example.com", false)

			if res.FromCache != tc.wantHit {
				t.Fatalf("FromCache = %v, want %v", res.FromCache, tc.wantHit)
			}
			if tc.wantHit {
				if ai.calls != 0 {
					t.Errorf("classifier called %d times on a cache hit", ai.calls)
				}
				if res.Analysis.MainCategory != "Finance" {
					t.Errorf("Analysis.MainCategory = %q, want cached Finance", res.Analysis.MainCategory)
				}
				if res.URL != "https://example.com/" {
					t.Errorf("cache hit URL = %q, want normalized form", res.URL)
				}
			} else if ai.calls != 1 {
				t.Errorf("classifier called %d times on a miss, want 1", ai.calls)
			}
		})
	}
}

func TestAnalyzeURLForceRefreshSkipsCache(t *testing.T) {
	now := time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)
	repo := &fakeRepo{records: []*domain.Record{{
		ID:        domain.NewRecordID(),
		URL:       "https://example.com/",
		Timestamp: now.Add(-time.Hour),
		Status:    domain.StatusSuccess,
		Analysis:  &domain.CategoryAnalysis{MainCategory: "Finance"},
	}}}
	ai := &fakeAI{}
	svc := newTestService(repo, &fakeFetcher{}, ai, now)

	res := svc.AnalyzeURL(context.Background(), "https://example.com", true)

	if res.FromCache {
		t.Error("FromCache = true under forceRefresh")
	}
	if ai.calls != 1 {
		t.Errorf("classifier called %d times, want 1", ai.calls)
	}
}

func TestAnalyzeURLFailedRecordsIgnoredByCache(t *testing.T) {
	now := time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)
	repo := &fakeRepo{records: []*domain.Record{{
		ID:        domain.NewRecordID(),
		URL:       "https://example.com/",
		Timestamp: now.Add(-time.Hour),
		Status:    domain.StatusFailed,
		Error:     "boom",
	}}}
	ai := &fakeAI{}
	svc := newTestService(repo, &fakeFetcher{}, ai, now)

	res := svc.AnalyzeURL(context.Background(), "https://example.com", false)

	if res.FromCache {
		t.Error("FromCache = true; failed records must not satisfy the cache")
	}
	if ai.calls != 1 {
		t.Errorf("classifier called %d times, want 1", ai.calls)
	}
	_ = res
}

func TestAnalyzeURLFetchFailureShortCircuits(t *testing.T) {
	now := time.Now()
	repo := &fakeRepo{}
	fetcher := &fakeFetcher{errs: map[string]error{"https://down.example.com": errors.New("connection refused")}}
	ai := &fakeAI{}
	svc := newTestService(repo, fetcher, ai, now)

	res := svc.AnalyzeURL(context.Background(), "https://down.example.com", false)

	if res.Status != domain.StatusFailed {
		t.Fatalf("status = %q, want failed", res.Status)
	}
	if !strings.Contains(res.Error, "failed to fetch content") {
		t.Errorf("Error = %q, want fetch error message", res.Error)
	}
	if ai.calls != 0 {
		t.Errorf("classifier called %d times after a fetch failure", ai.calls)
	}

	recs := repo.inserted()
	if len(recs) != 1 || recs[0].Status != domain.StatusFailed {
		t.Fatalf("persisted %#v, want one failed record", recs)
	}
	if recs[0].Analysis != nil {
		t.Error("failed record carries an analysis payload")
	}
}

func TestAnalyzeURLAnalyzerFailure(t *testing.T) {
	repo := &fakeRepo{}
	ai := &fakeAI{err: errors.New("model overloaded")}
	svc := newTestService(repo, &fakeFetcher{}, ai, time.Now())

	res := svc.AnalyzeURL(context.Background(), "https://example.com", false)

	if res.Status != domain.StatusFailed {
		t.Fatalf("status = %q, want failed", res.Status)
	}
	if !strings.Contains(res.Error, "analysis failed") {
		t.Errorf("Error = %q, want analyzer error message", res.Error)
	}
}

func TestAnalyzeURLUnparseableOutput(t *testing.T) {
	repo := &fakeRepo{}
	ai := &fakeAI{response: "I refuse to answer in JSON"}
	svc := newTestService(repo, &fakeFetcher{}, ai, time.Now())

	res := svc.AnalyzeURL(context.Background(), "https://example.com", false)

	if res.Status != domain.StatusFailed {
		t.Fatalf("status = %q, want failed", res.Status)
	}
}

func TestAnalyzeURLPersistenceFailureSwallowed(t *testing.T) {
	repo := &fakeRepo{insertErr: errors.New("disk full")}
	svc := newTestService(repo, &fakeFetcher{}, &fakeAI{}, time.Now())

	res := svc.AnalyzeURL(context.Background(), "https://example.com", false)

	if res.Status != domain.StatusSuccess {
		t.Fatalf("status = %q, want success despite persistence failure", res.Status)
	}
}

func TestAnalyzeURLCacheLookupFailureDegradesToMiss(t *testing.T) {
	repo := &fakeRepo{lookupErr: errors.New("connection reset")}
	ai := &fakeAI{}
	svc := newTestService(repo, &fakeFetcher{}, ai, time.Now())

	res := svc.AnalyzeURL(context.Background(), "https://example.com", false)

	if res.Status != domain.StatusSuccess {
		t.Fatalf("status = %q, want success via fresh analysis", res.Status)
	}
	if ai.calls != 1 {
		t.Errorf("classifier called %d times, want 1", ai.calls)
	}
}

func TestAnalyzeBatchOrderAndCounts(t *testing.T) {
	now := time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)
	// u2 has a fresh cached success, u3's fetch fails, u1 analyzes fresh.
	repo := &fakeRepo{records: []*domain.Record{{
		ID:        domain.NewRecordID(),
		URL:       "https://two.example.com/",
		Timestamp: now.Add(-time.Hour),
		Status:    domain.StatusSuccess,
		Analysis:  &domain.CategoryAnalysis{MainCategory: "Education"},
	}}}
	fetcher := &fakeFetcher{errs: map[string]error{"https://three.example.com": errors.New("timeout")}}
	svc := newTestService(repo, fetcher, &fakeAI{}, now)

	urls := []string{"https://one.example.com", "https://two.example.com", "https://three.example.com"}
	batch := svc.AnalyzeBatch(context.Background(), urls, false)

	if batch.Total != 3 || batch.Success != 2 || batch.Failed != 1 {
		t.Fatalf("totals = %d/%d/%d, want 3/2/1", batch.Total, batch.Success, batch.Failed)
	}
	for i, u := range urls {
		if batch.Results[i].URL != u {
			t.Errorf("result[%d].URL = %q, want input order %q", i, batch.Results[i].URL, u)
		}
	}
	if !batch.Results[1].FromCache {
		t.Error("result[1] not marked FromCache")
	}
	if batch.Results[0].FromCache || batch.Results[2].FromCache {
		t.Error("fresh results marked FromCache")
	}
	if batch.Results[2].Status != domain.StatusFailed {
		t.Errorf("result[2].Status = %q, want failed", batch.Results[2].Status)
	}
}

func TestAnalyzeBatchPersistsSharedBatchID(t *testing.T) {
	now := time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)
	repo := &fakeRepo{records: []*domain.Record{{
		ID:        domain.NewRecordID(),
		URL:       "https://cached.example.com/",
		Timestamp: now.Add(-time.Hour),
		Status:    domain.StatusSuccess,
		Analysis:  &domain.CategoryAnalysis{MainCategory: "Media"},
	}}}
	svc := newTestService(repo, &fakeFetcher{}, &fakeAI{}, now)

	svc.AnalyzeBatch(context.Background(), []string{"https://cached.example.com", "https://fresh.example.com"}, false)

	var batchRecs []*domain.Record
	for _, rec := range repo.inserted() {
		if rec.IsBatch {
			batchRecs = append(batchRecs, rec)
		}
	}
	// Cache hits are re-persisted as batch members too.
	if len(batchRecs) != 2 {
		t.Fatalf("persisted %d batch records, want 2", len(batchRecs))
	}
	if batchRecs[0].BatchID == "" || batchRecs[0].BatchID != batchRecs[1].BatchID {
		t.Errorf("batch ids %q and %q, want one shared non-empty id", batchRecs[0].BatchID, batchRecs[1].BatchID)
	}
	if !strings.HasPrefix(batchRecs[0].BatchID, "batch_") {
		t.Errorf("batch id = %q, want batch_ prefix", batchRecs[0].BatchID)
	}
}

func TestAnalyzeBatchDeduplicatesInput(t *testing.T) {
	repo := &fakeRepo{}
	fetcher := &fakeFetcher{}
	svc := newTestService(repo, fetcher, &fakeAI{}, time.Now())

	urls := []string{"https://dup.example.com", "https://dup.example.com"}
	batch := svc.AnalyzeBatch(context.Background(), urls, false)

	if len(fetcher.calls) != 1 {
		t.Errorf("fetched %d times for duplicate input, want 1", len(fetcher.calls))
	}
	if batch.Total != 2 || batch.Success != 2 {
		t.Fatalf("totals = %d/%d, want both slots filled", batch.Total, batch.Success)
	}
	if batch.Results[0].Status != batch.Results[1].Status {
		t.Error("duplicate slots disagree on status")
	}
}

func TestAnalyzeBatchForceRefreshBypassesCache(t *testing.T) {
	now := time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)
	repo := &fakeRepo{records: []*domain.Record{{
		ID:        domain.NewRecordID(),
		URL:       "https://cached.example.com/",
		Timestamp: now.Add(-time.Hour),
		Status:    domain.StatusSuccess,
		Analysis:  &domain.CategoryAnalysis{MainCategory: "Media"},
	}}}
	ai := &fakeAI{}
	svc := newTestService(repo, &fakeFetcher{}, ai, now)

	batch := svc.AnalyzeBatch(context.Background(), []string{"https://cached.example.com"}, true)

	if batch.Results[0].FromCache {
		t.Error("FromCache = true under forceRefresh")
	}
	if ai.calls != 1 {
		t.Errorf("classifier called %d times, want 1", ai.calls)
	}
}

func TestAnalyzeBatchLargeInputRespectsOrder(t *testing.T) {
	repo := &fakeRepo{}
	ai := &fakeAI{perURL: map[string]string{}}
	urls := make([]string, 20)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://site-%02d.example.com", i)
		ai.perURL[urls[i]] = fmt.Sprintf(`{"main_category": "cat-%02d", "confidence": 0.5}`, i)
	}
	svc := newTestService(repo, &fakeFetcher{}, ai, time.Now())
	svc.MaxConcurrent = 3

	batch := svc.AnalyzeBatch(context.Background(), urls, false)

	if batch.Total != len(urls) || batch.Failed != 0 {
		t.Fatalf("totals = %d/%d, want %d/0", batch.Total, batch.Failed, len(urls))
	}
	for i := range urls {
		want := fmt.Sprintf("cat-%02d", i)
		if got := batch.Results[i].Analysis.MainCategory; got != want {
			t.Fatalf("result[%d].MainCategory = %q, want %q: order lost under fan-out", i, got, want)
		}
	}
}

func TestAnalyzeBatchEmptyInput(t *testing.T) {
	svc := newTestService(&fakeRepo{}, &fakeFetcher{}, &fakeAI{}, time.Now())
	batch := svc.AnalyzeBatch(context.Background(), nil, false)
	if batch.Total != 0 || len(batch.Results) != 0 {
		t.Fatalf("batch = %#v, want empty", batch)
	}
}
