package mcq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"videomcq/internal/stream"
)

// OllamaGenerator calls the /api/generate endpoint of an Ollama server and
// accumulates the "response" field of its newline-delimited JSON stream.
type OllamaGenerator struct {
	baseURL      string
	model        string
	temperature  float64
	httpClient   *http.Client
	chunkTimeout time.Duration
	logger       logrus.FieldLogger
}

// OllamaOption is a functional option for OllamaGenerator.
type OllamaOption func(*OllamaGenerator)

// WithOllamaHTTPClient replaces the default HTTP client.
func WithOllamaHTTPClient(hc *http.Client) OllamaOption {
	return func(g *OllamaGenerator) {
		g.httpClient = hc
	}
}

// WithOllamaChunkTimeout bounds the wait for each streamed chunk.
func WithOllamaChunkTimeout(d time.Duration) OllamaOption {
	return func(g *OllamaGenerator) {
		g.chunkTimeout = d
	}
}

// WithOllamaTemperature sets the sampling temperature. Default 0.7.
func WithOllamaTemperature(t float64) OllamaOption {
	return func(g *OllamaGenerator) {
		g.temperature = t
	}
}

// WithOllamaLogger sets the logger used for dropped lines.
func WithOllamaLogger(l logrus.FieldLogger) OllamaOption {
	return func(g *OllamaGenerator) {
		g.logger = l
	}
}

// NewOllamaGenerator returns a generator for the server at baseURL, e.g.
// http://localhost:11434.
func NewOllamaGenerator(baseURL, model string, opts ...OllamaOption) (*OllamaGenerator, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("mcq: ollama base URL must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("mcq: model must not be empty")
	}
	g := &OllamaGenerator{
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		temperature: 0.7,
		httpClient:  &http.Client{},
		logger:      logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(g)
	}
	return g, nil
}

type ollamaRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaChunk struct {
	Response *string `json:"response"`
	Done     bool    `json:"done"`
	Error    string  `json:"error"`
}

// Complete implements Generator.
func (g *OllamaGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(ollamaRequest{
		Model:   g.model,
		Prompt:  prompt,
		Stream:  true,
		Options: map[string]any{"temperature": g.temperature},
	})
	if err != nil {
		return "", fmt.Errorf("mcq: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", ErrGeneration, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: status %d: %s", ErrGeneration, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var (
		text      strings.Builder
		remoteErr string
		dropped   int
	)
	err = stream.Pump(ctx, resp.Body, stream.NewDecoder(stream.FramingJSONLines),
		stream.PumpOptions{ChunkTimeout: g.chunkTimeout},
		func(line string) bool {
			var c ollamaChunk
			if err := json.Unmarshal([]byte(line), &c); err != nil {
				dropped++
				g.logger.WithError(err).Warn("Dropping generation line")
				return true
			}
			if c.Error != "" {
				remoteErr = c.Error
				return false
			}
			if c.Response != nil {
				text.WriteString(*c.Response)
			}
			return true
		})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if remoteErr != "" {
		return "", fmt.Errorf("%w: %s", ErrGeneration, remoteErr)
	}
	if dropped > 0 {
		g.logger.WithField("dropped", dropped).Debug("Generation stream had malformed lines")
	}
	return text.String(), nil
}
