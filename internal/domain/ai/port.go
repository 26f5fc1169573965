package ai

import "context"

// Client is the provider-agnostic classification capability. Implementations
// return raw model text; shaping it into a CategoryAnalysis happens in the
// analysis domain.
type Client interface {
	Classify(ctx context.Context, url, content string) (string, error)
}
