package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	domain "github.com/bryanwahyu/sitecategory/internal/domain/analysis"
)

type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Insert writes one history record. Records are never updated afterwards.
func (r *HistoryRepository) Insert(ctx context.Context, rec *domain.Record) error {
	const q = `
INSERT INTO analysis_history
(id, url, timestamp, status, main_category, confidence, error, analysis, is_batch, batch_id)
VALUES (?,?,?,?,?,?,?,?,?,?);
`
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	analysisJSON, err := marshalAnalysis(rec)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, q,
		rec.ID, rec.URL, ts, rec.Status,
		nullString(rec.MainCategory), nullFloat(rec.Status == domain.StatusSuccess, rec.Confidence),
		nullString(rec.Error), analysisJSON,
		rec.IsBatch, nullString(rec.BatchID),
	)
	return err
}

// LatestSuccess returns the freshest success record for a URL at or after
// since, or nil when none qualifies.
func (r *HistoryRepository) LatestSuccess(ctx context.Context, url string, since time.Time) (*domain.Record, error) {
	const q = `
SELECT id, url, timestamp, status, main_category, confidence, error, analysis, is_batch, batch_id
FROM analysis_history
WHERE url=? AND status=? AND timestamp>=?
ORDER BY timestamp DESC
LIMIT 1;
`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, q, url, domain.StatusSuccess, since))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

// LatestSuccessIn fetches qualifying success records for the whole URL set
// in one query, then keeps the most recent per URL.
func (r *HistoryRepository) LatestSuccessIn(ctx context.Context, urls []string, since time.Time) (map[string]*domain.Record, error) {
	if len(urls) == 0 {
		return map[string]*domain.Record{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(urls)), ",")
	q := fmt.Sprintf(`
SELECT id, url, timestamp, status, main_category, confidence, error, analysis, is_batch, batch_id
FROM analysis_history
WHERE url IN (%s) AND status=? AND timestamp>=?;`, placeholders)

	args := make([]any, 0, len(urls)+2)
	for _, u := range urls {
		args = append(args, u)
	}
	args = append(args, domain.StatusSuccess, since)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	latest := make(map[string]*domain.Record)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		if prev, ok := latest[rec.URL]; !ok || rec.Timestamp.After(prev.Timestamp) {
			latest[rec.URL] = rec
		}
	}
	return latest, rows.Err()
}

// Page lists history with conjunctive filters, offset pagination and a
// timestamp sort. The analysis payload column is skipped; it only appears in
// detail reads.
func (r *HistoryRepository) Page(ctx context.Context, q domain.HistoryQuery) ([]*domain.Record, int64, error) {
	where, args := historyFilter(q)

	order := "DESC"
	if q.SortAsc {
		order = "ASC"
	}
	query := fmt.Sprintf(`
SELECT id, url, timestamp, status, main_category, confidence, error, NULL, is_batch, batch_id
FROM analysis_history
%s
ORDER BY timestamp %s
LIMIT ? OFFSET ?;`, where, order)

	rows, err := r.db.QueryContext(ctx, query, append(args, q.Limit, q.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var out []*domain.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	countQ := "SELECT COUNT(*) FROM analysis_history " + where
	if err := r.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting history: %w", err)
	}
	return out, total, nil
}

// DistinctCategories lists the distinct non-null main categories, sorted.
func (r *HistoryRepository) DistinctCategories(ctx context.Context) ([]string, error) {
	const q = `
SELECT DISTINCT main_category
FROM analysis_history
WHERE main_category IS NOT NULL AND main_category <> ''
ORDER BY main_category;`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetByID returns the full record including the analysis payload.
// sql.ErrNoRows propagates so the HTTP layer can map it to 404.
func (r *HistoryRepository) GetByID(ctx context.Context, id domain.RecordID) (*domain.Record, error) {
	const q = `
SELECT id, url, timestamp, status, main_category, confidence, error, analysis, is_batch, batch_id
FROM analysis_history
WHERE id=? LIMIT 1;
`
	return scanRecord(r.db.QueryRowContext(ctx, q, id))
}

func historyFilter(q domain.HistoryQuery) (string, []any) {
	clauses := []string{"1=1"}
	var args []any
	if q.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, q.Status)
	}
	if q.MainCategory != "" {
		clauses = append(clauses, "main_category = ?")
		args = append(args, q.MainCategory)
	}
	if q.URLContains != "" {
		clauses = append(clauses, "url LIKE ?")
		args = append(args, "%"+q.URLContains+"%")
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}
