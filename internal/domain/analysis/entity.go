package analysis

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RecordID tipe untuk history record
type RecordID string

// Status enum
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// UnknownCategory is the sentinel used when the provider output carries no
// main_category.
const UnknownCategory = "unknown"

// SubCategory value object
type SubCategory struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// CategoryAnalysis is the typed classification produced by an AI provider,
// after conversion from its raw output.
type CategoryAnalysis struct {
	MainCategory     string        `json:"main_category"`
	SubCategories    []SubCategory `json:"sub_categories"`
	Confidence       float64       `json:"confidence"`
	Description      string        `json:"description,omitempty"`
	TargetAudience   string        `json:"target_audience,omitempty"`
	ValueProposition string        `json:"value_proposition,omitempty"`
}

// Aggregate Root: Record, one row of analysis history. Records are
// insert-only; corrections are new records.
type Record struct {
	ID           RecordID          `json:"id"`
	URL          string            `json:"url"` // normalized form
	Timestamp    time.Time         `json:"timestamp"`
	Status       Status            `json:"status"`
	MainCategory string            `json:"main_category,omitempty"`
	Confidence   float64           `json:"confidence,omitempty"`
	Error        string            `json:"error,omitempty"`
	Analysis     *CategoryAnalysis `json:"analysis,omitempty"`
	IsBatch      bool              `json:"is_batch"`
	BatchID      string            `json:"batch_id,omitempty"`
}

// NewRecordID generates a unique history record id ("hist_" + uuid hex).
func NewRecordID() RecordID {
	return RecordID("hist_" + strings.ReplaceAll(uuid.New().String(), "-", ""))
}

// NewBatchID generates a shared id for one batch invocation.
func NewBatchID() string {
	return "batch_" + strings.ReplaceAll(uuid.New().String(), "-", "")
}

// NewSuccessRecord builds a success record for a normalized URL. Exactly one
// of the success/failure field sets is populated, selected by Status.
func NewSuccessRecord(url string, at time.Time, a *CategoryAnalysis) *Record {
	r := &Record{
		ID:        NewRecordID(),
		URL:       url,
		Timestamp: at,
		Status:    StatusSuccess,
	}
	if a != nil {
		r.MainCategory = a.MainCategory
		r.Confidence = a.Confidence
		r.Analysis = a
	}
	return r
}

// NewFailedRecord builds a failure record carrying the error message.
func NewFailedRecord(url string, at time.Time, errMsg string) *Record {
	return &Record{
		ID:        NewRecordID(),
		URL:       url,
		Timestamp: at,
		Status:    StatusFailed,
		Error:     errMsg,
	}
}
