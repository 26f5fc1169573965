package analysis

import "fmt"

// FetchError means the page content could not be retrieved (network, DNS,
// timeout, non-2xx). The analyzer is never invoked after one.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch content from %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// AnalyzerError means the provider call failed or returned output we could
// not turn into a CategoryAnalysis.
type AnalyzerError struct {
	URL string
	Err error
}

func (e *AnalyzerError) Error() string {
	return fmt.Sprintf("analysis failed for %s: %v", e.URL, e.Err)
}

func (e *AnalyzerError) Unwrap() error { return e.Err }
