package mysql

import (
	"database/sql"
	"encoding/json"

	domain "github.com/bryanwahyu/sitecategory/internal/domain/analysis"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// scanRecord maps one row onto a Record, unfolding the nullable
// success/failure columns.
func scanRecord(row rowScanner) (*domain.Record, error) {
	var (
		rec      domain.Record
		category sql.NullString
		conf     sql.NullFloat64
		errMsg   sql.NullString
		analysis sql.NullString
		batchID  sql.NullString
	)
	if err := row.Scan(
		&rec.ID, &rec.URL, &rec.Timestamp, &rec.Status,
		&category, &conf, &errMsg, &analysis,
		&rec.IsBatch, &batchID,
	); err != nil {
		return nil, err
	}
	rec.MainCategory = category.String
	rec.Confidence = conf.Float64
	rec.Error = errMsg.String
	rec.BatchID = batchID.String
	if analysis.Valid && analysis.String != "" {
		var a domain.CategoryAnalysis
		if err := json.Unmarshal([]byte(analysis.String), &a); err == nil {
			rec.Analysis = &a
		}
	}
	return &rec, nil
}

// marshalAnalysis serializes the payload column; failed records store NULL.
func marshalAnalysis(rec *domain.Record) (any, error) {
	if rec.Analysis == nil {
		return nil, nil
	}
	b, err := json.Marshal(rec.Analysis)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullFloat(valid bool, f float64) any {
	if !valid {
		return nil
	}
	return f
}
