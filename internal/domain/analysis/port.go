package analysis

import (
	"context"
	"time"
)

// HistoryQuery describes one page request over stored records. Filters are
// conjunctive; zero values mean "no filter".
type HistoryQuery struct {
	Status       Status
	MainCategory string
	URLContains  string
	SortAsc      bool
	Offset       int
	Limit        int
}

// Repository port (interface untuk persistence)
type Repository interface {
	Insert(ctx context.Context, r *Record) error

	// LatestSuccess returns the most recent success record for the URL at
	// or after since, or nil when none qualifies.
	LatestSuccess(ctx context.Context, url string, since time.Time) (*Record, error)

	// LatestSuccessIn is the batched form: one round-trip, reduced to the
	// most recent qualifying record per URL. URLs without a hit are absent
	// from the map.
	LatestSuccessIn(ctx context.Context, urls []string, since time.Time) (map[string]*Record, error)

	Page(ctx context.Context, q HistoryQuery) ([]*Record, int64, error)
	DistinctCategories(ctx context.Context) ([]string, error)
	GetByID(ctx context.Context, id RecordID) (*Record, error)
}

// Fetcher port (interface untuk pengambilan konten halaman)
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}
