package translate

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const defModel = openai.GPT3Dot5Turbo

// GPT translates via an OpenAI-compatible chat completion endpoint.
type GPT struct {
	cli  *openai.Client
	opts *GPTOptions
}

type GPTOptions struct {
	APIKey string
	// BaseURL overrides the API endpoint, eg. for a compatible proxy.
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
}

func NewGPT(opts *GPTOptions) (*GPT, error) {
	if opts == nil || opts.APIKey == "" {
		return nil, fmt.Errorf("translation api key not configured")
	}
	if opts.Model == "" {
		opts.Model = defModel
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 2048
	}
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	return &GPT{cli: openai.NewClientWithConfig(cfg), opts: opts}, nil
}

func (g *GPT) Translate(ctx context.Context, text string) (string, error) {
	resp, err := g.cli.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.opts.Model,
		MaxTokens:   g.opts.MaxTokens,
		Temperature: g.opts.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "Translate the given text to English. Reply with the translation only."},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
