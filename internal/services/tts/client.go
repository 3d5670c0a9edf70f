package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout = 60 * time.Second
	defaultRetryDelay  = 2 * time.Second
)

// Config captures the runtime settings required to talk to the speech service.
type Config struct {
	APIKey         string
	BaseURL        string
	Voice          string
	TimeoutSeconds int
}

// Client wraps an LMNT-style speech synthesis API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	retryDelay time.Duration
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryDelay overrides the delay before the single retry attempt.
func WithRetryDelay(delay time.Duration) Option {
	return func(c *Client) {
		c.retryDelay = delay
	}
}

// NewClient constructs a speech synthesis client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Voice:          strings.TrimSpace(cfg.Voice),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
		retryDelay: defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type synthesisRequest struct {
	Text   string  `json:"text"`
	Voice  string  `json:"voice"`
	Format string  `json:"format"`
	Speed  float64 `json:"speed,omitempty"`
}

// Synthesize converts text to speech and returns the encoded audio bytes.
// Voice overrides the configured default when non-empty. One retry is
// attempted for transient failures before the error is returned.
func (c *Client) Synthesize(ctx context.Context, text, voice string, speed float64) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("tts synthesize: text required")
	}
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, errors.New("tts synthesize: api key required")
	}
	if voice = strings.TrimSpace(voice); voice == "" {
		voice = c.cfg.Voice
	}

	audio, err := c.synthesizeOnce(ctx, text, voice, speed)
	if err == nil {
		return audio, nil
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	timer := time.NewTimer(c.retryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}
	return c.synthesizeOnce(ctx, text, voice, speed)
}

func (c *Client) synthesizeOnce(ctx context.Context, text, voice string, speed float64) ([]byte, error) {
	payload := synthesisRequest{Text: text, Voice: voice, Format: "mp3", Speed: speed}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("tts request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("tts request: new request: %w", err)
	}
	req.Header.Set("X-API-Key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request: http error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tts request: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tts request: http %d: %s", resp.StatusCode, summarizeBody(body))
	}
	if len(body) == 0 {
		return nil, errors.New("tts request: empty audio payload")
	}
	return body, nil
}

func summarizeBody(body []byte) string {
	const maxLen = 160
	s := strings.Join(strings.Fields(string(body)), " ")
	if len(s) > maxLen {
		s = s[:maxLen] + "..."
	}
	return s
}
