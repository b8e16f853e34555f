// File path: internal/llm/local.go
package llm

import (
	"context"
	"errors"
	"strings"
)

// LocalProvider is a development fallback that echoes the last message. It
// keeps the summary pipeline runnable without credentials.
type LocalProvider struct{}

func NewLocalProvider() *LocalProvider {
	return &LocalProvider{}
}

func (l *LocalProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("no messages provided")
	}
	last := messages[len(messages)-1].Content
	return "[local-stub] " + strings.TrimSpace(last), nil
}

func (l *LocalProvider) Name() string {
	return "local"
}
