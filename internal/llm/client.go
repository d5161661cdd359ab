// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm wraps the language model provider API behind a small
// interface so the research engine and tests can swap implementations.
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"github.com/meshintel/counsel-engine/pkg/types"
)

// Message is one turn of provider conversation context.
type Message struct {
	Role    string
	Content string
}

// Provider abstracts the LLM API per the Strategy pattern. Stream invokes
// onToken for each generated fragment and returns the full text.
type Provider interface {
	Complete(ctx context.Context, messages []Message) (string, error)
	Stream(ctx context.Context, messages []Message, onToken func(string) error) (string, error)
}

// OpenAIProvider calls the OpenAI chat completions API.
type OpenAIProvider struct {
	client     *openai.Client
	model      string
	maxRetries int
}

// NewOpenAIProvider builds a provider from config. The API key is
// required; BaseURL may point at any OpenAI-compatible endpoint.
func NewOpenAIProvider(cfg types.LLMConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("LLM API key not configured")
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIProvider{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      model,
		maxRetries: maxRetries,
	}, nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return out
}

// Complete runs a non-streaming completion with fixed-count retry.
func (p *OpenAIProvider) Complete(ctx context.Context, messages []Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: toOpenAIMessages(messages),
	}

	var lastErr error
	for attempt := 0; attempt < p.maxRetries; attempt++ {
		resp, err := p.client.CreateChatCompletion(ctx, req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			continue
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("provider returned no choices")
		}
		return resp.Choices[0].Message.Content, nil
	}
	return "", fmt.Errorf("provider call failed after %d attempts: %w", p.maxRetries, lastErr)
}

// Stream runs a streaming completion, invoking onToken per fragment.
// A non-nil onToken error aborts the stream and is returned unwrapped.
func (p *OpenAIProvider) Stream(ctx context.Context, messages []Message, onToken func(string) error) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: toOpenAIMessages(messages),
		Stream:   true,
	}

	stream, err := p.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return "", fmt.Errorf("opening completion stream: %w", err)
	}
	defer stream.Close()

	var full []byte
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return string(full), nil
		}
		if err != nil {
			return string(full), fmt.Errorf("reading completion stream: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		full = append(full, delta...)
		if onToken != nil {
			if cbErr := onToken(delta); cbErr != nil {
				return string(full), cbErr
			}
		}
	}
}
