package mcq

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"videomcq/internal/stream"
)

// OpenAIGenerator streams chat completions from any OpenAI-compatible API.
type OpenAIGenerator struct {
	client       *openai.Client
	model        string
	temperature  float32
	chunkTimeout time.Duration
}

// OpenAIOption is a functional option for OpenAIGenerator.
type OpenAIOption func(*openai.ClientConfig, *OpenAIGenerator)

// WithOpenAIBaseURL points the client at a compatible server.
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(c *openai.ClientConfig, _ *OpenAIGenerator) {
		c.BaseURL = url
	}
}

// WithOpenAITemperature sets the sampling temperature. Default 0.7.
func WithOpenAITemperature(t float32) OpenAIOption {
	return func(_ *openai.ClientConfig, g *OpenAIGenerator) {
		g.temperature = t
	}
}

// WithOpenAIChunkTimeout bounds the wait for the response headers and for
// each streamed chunk after them. Zero disables the bound.
func WithOpenAIChunkTimeout(d time.Duration) OpenAIOption {
	return func(_ *openai.ClientConfig, g *OpenAIGenerator) {
		g.chunkTimeout = d
	}
}

// NewOpenAIGenerator returns a generator using apiKey and model.
func NewOpenAIGenerator(apiKey, model string, opts ...OpenAIOption) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("mcq: openai api key must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("mcq: model must not be empty")
	}
	cfg := openai.DefaultConfig(apiKey)
	g := &OpenAIGenerator{model: model, temperature: 0.7}
	for _, o := range opts {
		o(&cfg, g)
	}
	g.client = openai.NewClientWithConfig(cfg)
	return g, nil
}

// Complete implements Generator.
func (g *OpenAIGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
		Stream:      true,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	// A stalled stream cancels streamCtx only; ctx keeps its own meaning.
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	var timedOut atomic.Bool
	reset := func() {}
	if g.chunkTimeout > 0 {
		timer := time.AfterFunc(g.chunkTimeout, func() {
			timedOut.Store(true)
			cancel()
		})
		defer timer.Stop()
		reset = func() { timer.Reset(g.chunkTimeout) }
	}
	fail := func(err error) (string, error) {
		switch {
		case ctx.Err() != nil:
			return "", ctx.Err()
		case timedOut.Load():
			return "", fmt.Errorf("%w: %w", ErrGeneration, stream.ErrReadTimeout)
		}
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	s, err := g.client.CreateChatCompletionStream(streamCtx, req)
	if err != nil {
		return fail(err)
	}
	defer s.Close()

	var text strings.Builder
	for {
		resp, err := s.Recv()
		if errors.Is(err, io.EOF) {
			return text.String(), nil
		}
		if err != nil {
			return fail(err)
		}
		reset()
		if len(resp.Choices) > 0 {
			text.WriteString(resp.Choices[0].Delta.Content)
		}
	}
}
