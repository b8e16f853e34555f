// File path: internal/llm/provider.go
package llm

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go/v2/option"

	"github.com/GH-TeamBID/gober-api/internal/common"
)

// Message is one chat turn.
type Message struct {
	Role    string
	Content string
}

// Provider generates text from a chat transcript.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
	Name() string
}

// NewProvider selects the provider from the environment: OpenAI when an API
// key is present, the local echo provider otherwise so the pipeline stays
// exercisable in development.
func NewProvider() Provider {
	logger := common.Logger()
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		logger.Warn("llm: OPENAI_API_KEY not set; falling back to local provider")
		return NewLocalProvider()
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if raw := strings.TrimSpace(os.Getenv("OPENAI_HTTP_TIMEOUT")); raw != "" {
		if timeout, err := time.ParseDuration(raw); err == nil {
			opts = append(opts, option.WithRequestTimeout(timeout))
		} else {
			logger.Warn("llm: invalid OPENAI_HTTP_TIMEOUT, using default", "value", raw, "error", err)
		}
	}
	if endpoint := strings.TrimSpace(os.Getenv("OPENAI_ENDPOINT")); endpoint != "" {
		logger.Info("llm: using custom OpenAI endpoint", "endpoint", endpoint)
		opts = append(opts, option.WithBaseURL(endpoint))
	}
	logger.Info("llm: OpenAI provider selected")
	return NewOpenAIProvider(opts...)
}
