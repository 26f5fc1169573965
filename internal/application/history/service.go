package history

import (
	"context"
	"math"

	domain "github.com/bryanwahyu/sitecategory/internal/domain/analysis"
)

// Sort orders accepted by List. Anything else falls back to newest-first.
const (
	SortTimestampDesc = "timestamp_desc"
	SortTimestampAsc  = "timestamp_asc"
)

// Service implements read-only use-cases over analysis history. It shares
// the entity model with the analysis pipeline but not its write path.
type Service struct {
	Repo domain.Repository
}

// ListRequest carries the page, sort and filter parameters for List.
// Empty filter fields mean "no filter"; Status "all" is treated as empty.
type ListRequest struct {
	Page         int
	Limit        int
	Sort         string
	Status       string
	MainCategory string
	URLContains  string
}

// List returns one page of history records, filtered conjunctively and
// sorted by timestamp.
func (s *Service) List(ctx context.Context, req ListRequest) (*domain.HistoryPage, error) {
	page := req.Page
	if page <= 0 {
		page = 1
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}

	q := domain.HistoryQuery{
		MainCategory: req.MainCategory,
		URLContains:  req.URLContains,
		SortAsc:      req.Sort == SortTimestampAsc,
		Offset:       (page - 1) * limit,
		Limit:        limit,
	}
	switch req.Status {
	case string(domain.StatusSuccess), string(domain.StatusFailed):
		q.Status = domain.Status(req.Status)
	}

	items, total, err := s.Repo.Page(ctx, q)
	if err != nil {
		return nil, err
	}

	pages := int(math.Ceil(float64(total) / float64(limit)))
	if pages < 1 {
		pages = 1
	}

	return &domain.HistoryPage{
		Items: items,
		Total: total,
		Page:  page,
		Limit: limit,
		Pages: pages,
	}, nil
}

// Categories returns the sorted distinct main categories seen in history.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.Repo.DistinctCategories(ctx)
}

// Get returns the full detail record for an id. The analysis payload is only
// present on success records; failed records never stored one.
func (s *Service) Get(ctx context.Context, id domain.RecordID) (*domain.Record, error) {
	return s.Repo.GetByID(ctx, id)
}
