// Package openai implements provider.Completer on top of the OpenAI chat
// completions API.
package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/scteam/adaprov/provider"
)

// DefaultModel is used when no model is configured.
const DefaultModel = openai.ChatModelGPT4o

type Completer struct {
	client *openai.Client
	model  string
}

var _ provider.Completer = (*Completer)(nil)

// New creates a Completer for the given model. Credentials come from the
// standard OPENAI_API_KEY environment variable unless overridden through
// request options.
func New(model string, options ...option.RequestOption) *Completer {
	if model == "" {
		model = DefaultModel
	}
	return &Completer{
		client: openai.NewClient(options...),
		model:  model,
	}
}

func (c *Completer) Complete(ctx context.Context, req provider.CompletionRequest) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		}),
		Model: openai.F(c.model),
		N:     openai.Int(1),
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(req.MaxTokens)
	}

	chat, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(chat.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return chat.Choices[0].Message.Content, nil
}
