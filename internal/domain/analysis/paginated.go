package analysis

// HistoryPage represents a paginated history response with data and metadata
type HistoryPage struct {
	Items []*Record `json:"items"`
	Total int64     `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
	Pages int       `json:"pages"`
}
