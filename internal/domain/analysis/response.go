package analysis

// Result is the user-facing outcome for one URL. The pipeline always
// produces one, success or failed, never an error.
type Result struct {
	URL       string            `json:"url"`
	Status    Status            `json:"status"`
	Analysis  *CategoryAnalysis `json:"analysis,omitempty"`
	Error     string            `json:"error,omitempty"`
	FromCache bool              `json:"from_cache,omitempty"`
}

// BatchResult aggregates per-URL results in the caller's input order.
type BatchResult struct {
	Results []*Result `json:"results"`
	Total   int       `json:"total"`
	Success int       `json:"success"`
	Failed  int       `json:"failed"`
}
