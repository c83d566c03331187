// Package openai generates script text through OpenAI chat completions.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const defaultModel = openai.ChatModelGPT4oMini

type Adapter struct {
	client openai.Client
	model  string
}

// New builds a client for apiKey. Extra request options (base URL, retries)
// are passed through to the SDK.
func New(apiKey, model string, opts ...option.RequestOption) *Adapter {
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Adapter{client: openai.NewClient(opts...), model: model}
}

func (a *Adapter) Generate(ctx context.Context, prompt string) (string, error) {
	completion, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: a.model,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion (model=%s): %w", a.model, err)
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("openai: no choices")
	}
	content := completion.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", errors.New("openai: empty content")
	}
	return content, nil
}
