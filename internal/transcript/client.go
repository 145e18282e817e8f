package transcript

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Client streams a media file to the speech-to-text service and aggregates
// the event stream it returns.
type Client struct {
	endpoint     string
	httpClient   *http.Client
	window       float64
	chunkTimeout time.Duration
	logger       logrus.FieldLogger
}

// Option is a functional option for Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithWindow sets the segment length in seconds.
func WithWindow(seconds float64) Option {
	return func(c *Client) {
		c.window = seconds
	}
}

// WithChunkTimeout bounds the wait for each streamed chunk.
func WithChunkTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.chunkTimeout = d
	}
}

// WithLogger sets the logger used for dropped records.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient returns a Client posting to endpoint, e.g. http://localhost:8000/transcribe-stream.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("transcript: endpoint must not be empty")
	}
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{},
		window:     DefaultWindow,
		logger:     logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Transcribe uploads media as multipart field "file" and windows the
// resulting stream. duration is the video length in seconds.
func (c *Client) Transcribe(ctx context.Context, filename string, media io.Reader, duration float64, onProgress ProgressFunc) (Result, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(filename))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, media); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, pr)
	if err != nil {
		pr.Close()
		return Result{}, fmt.Errorf("%w: create request: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		pr.Close()
		if ctx.Err() != nil {
			return Result{Abandoned: true}, nil
		}
		return Result{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Result{}, fmt.Errorf("%w: status %d: %s", ErrTransport, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	c.logger.WithFields(logrus.Fields{
		"endpoint": c.endpoint,
		"file":     filepath.Base(filename),
		"duration": duration,
	}).Info("Transcription stream opened")

	return Aggregate(ctx, resp.Body, Options{
		Window:       c.window,
		Duration:     duration,
		ChunkTimeout: c.chunkTimeout,
		Logger:       c.logger,
	}, onProgress)
}
