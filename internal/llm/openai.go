// File path: internal/llm/openai.go
package llm

import (
	"context"
	"errors"
	"os"
	"strings"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/GH-TeamBID/gober-api/internal/common"
)

// OpenAIProvider generates text through the OpenAI chat completions API.
type OpenAIProvider struct {
	client    openai.Client
	chatModel string
}

// NewOpenAIProvider builds a provider with the given client options. The
// chat model defaults to gpt-4o and can be overridden via OPENAI_CHAT_MODEL.
func NewOpenAIProvider(opts ...option.RequestOption) *OpenAIProvider {
	chatModel := strings.TrimSpace(os.Getenv("OPENAI_CHAT_MODEL"))
	if chatModel == "" {
		chatModel = "gpt-4o"
	}
	common.Logger().Info("llm: OpenAI provider configured", "chat_model", chatModel)
	return &OpenAIProvider{client: openai.NewClient(opts...), chatModel: chatModel}
}

func (o *OpenAIProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("no messages provided")
	}
	logger := common.Logger()
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.chatModel),
		Messages: make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)),
	}
	for _, msg := range messages {
		switch strings.ToLower(msg.Role) {
		case "system":
			params.Messages = append(params.Messages, openai.SystemMessage(msg.Content))
		case "assistant":
			params.Messages = append(params.Messages, openai.AssistantMessage(msg.Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(msg.Content))
		}
	}
	logger.Debug("llm: sending chat completion request", "model", o.chatModel, "messages", len(messages))
	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		logger.Error("llm: chat completion failed", "error", err)
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

func (o *OpenAIProvider) Name() string {
	return "openai"
}
