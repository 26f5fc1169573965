package mysql

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	domain "github.com/bryanwahyu/sitecategory/internal/domain/analysis"
)

// fakeRow feeds canned column values into scanRecord.
type fakeRow struct {
	vals []any
}

func (r *fakeRow) Scan(dest ...any) error {
	for i, d := range dest {
		switch v := d.(type) {
		case *domain.RecordID:
			*v = r.vals[i].(domain.RecordID)
		case *string:
			*v = r.vals[i].(string)
		case *domain.Status:
			*v = r.vals[i].(domain.Status)
		case *bool:
			*v = r.vals[i].(bool)
		default:
			if s, ok := r.vals[i].(string); ok {
				if ns, ok := d.(interface{ Scan(any) error }); ok {
					if err := ns.Scan(s); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

func TestScanRecordUnfoldsNullables(t *testing.T) {
	row := &fakeRow{vals: []any{
		domain.RecordID("hist_abc"),
		"https://example.com",
		nil, // timestamp left zero
		domain.StatusSuccess,
		"Fashion",
		"0.8",
		"",
		`{"main_category":"Fashion","confidence":0.8}`,
		false,
		"batch_xyz",
	}}

	rec, err := scanRecord(row)
	if err != nil {
		t.Fatalf("scanRecord error: %v", err)
	}
	if rec.MainCategory != "Fashion" || rec.BatchID != "batch_xyz" {
		t.Errorf("record = %+v, want Fashion / batch_xyz", rec)
	}
	if rec.Analysis == nil || rec.Analysis.MainCategory != "Fashion" {
		t.Errorf("analysis payload not decoded: %+v", rec.Analysis)
	}
}

func TestMarshalAnalysis(t *testing.T) {
	got, err := marshalAnalysis(&domain.Record{Status: domain.StatusFailed})
	if err != nil || got != nil {
		t.Errorf("failed record column = %v, %v; want NULL", got, err)
	}

	got, err = marshalAnalysis(&domain.Record{
		Analysis: &domain.CategoryAnalysis{MainCategory: "Fashion"},
	})
	if err != nil {
		t.Fatalf("marshalAnalysis error: %v", err)
	}
	s, ok := got.(string)
	if !ok || !strings.Contains(s, `"main_category":"Fashion"`) {
		t.Errorf("column = %v, want JSON string", got)
	}
}

func TestHistoryFilter(t *testing.T) {
	cases := []struct {
		name     string
		q        domain.HistoryQuery
		want     string
		wantArgs []any
	}{
		{
			name: "no filters",
			want: "WHERE 1=1",
		},
		{
			name:     "status only",
			q:        domain.HistoryQuery{Status: domain.StatusFailed},
			want:     "WHERE 1=1 AND status = ?",
			wantArgs: []any{domain.StatusFailed},
		},
		{
			name: "all filters conjoined",
			q: domain.HistoryQuery{
				Status:       domain.StatusSuccess,
				MainCategory: "Fashion",
				URLContains:  "example",
			},
			want:     "WHERE 1=1 AND status = ? AND main_category = ? AND url LIKE ?",
			wantArgs: []any{domain.StatusSuccess, "Fashion", "%example%"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			where, args := historyFilter(tc.q)
			if where != tc.want {
				t.Errorf("where = %q, want %q", where, tc.want)
			}
			if diff := cmp.Diff(tc.wantArgs, args); diff != "" {
				t.Errorf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
