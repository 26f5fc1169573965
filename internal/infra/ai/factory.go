package ai

import (
	"fmt"
	"log/slog"
	"strings"

	domai "github.com/bryanwahyu/sitecategory/internal/domain/ai"
	"github.com/bryanwahyu/sitecategory/internal/infra/ai/gemini"
	"github.com/bryanwahyu/sitecategory/internal/infra/ai/openai"
)

// NewClient selects a provider implementation from configuration. The
// orchestrator only ever sees the ai.Client port.
func NewClient(provider, apiKey, model string, maxChars int) (domai.Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("ai api key is not configured")
	}
	switch strings.ToLower(provider) {
	case "gemini":
		slog.Info("using gemini ai client", "model", model)
		return gemini.NewClient(apiKey, model, maxChars), nil
	case "openai", "":
		slog.Info("using openai ai client", "model", model)
		return openai.NewClient(apiKey, model, maxChars), nil
	default:
		return nil, fmt.Errorf("unknown ai provider: %q", provider)
	}
}
