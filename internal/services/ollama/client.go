package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shelf/internal/services"
)

const (
	defaultBaseURL     = "http://127.0.0.1:11434"
	defaultHTTPTimeout = 60 * time.Second
	retryBaseDelay     = 2 * time.Second

	// One retry after the initial attempt.
	maxAttempts = 2
)

// Config captures the runtime settings for the Ollama connection.
type Config struct {
	BaseURL        string
	TimeoutSeconds int
}

// Client talks to a local Ollama server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	sleeper    func(time.Duration)
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

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		if sleeper != nil {
			c.sleeper = sleeper
		}
	}
}

// NewClient constructs a client from cfg, applying defaults for unset
// fields.
func NewClient(cfg Config, opts ...Option) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: timeout},
		sleeper:    time.Sleep,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// ChatRequest is a single-turn chat call. Images are raw bytes and are
// base64-encoded on the wire. Format, when set, is a JSON schema the
// model's reply must conform to.
type ChatRequest struct {
	Model  string
	Prompt string
	Images [][]byte
	Format json.RawMessage
}

type wireMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type wireChatRequest struct {
	Model    string          `json:"model"`
	Messages []wireMessage   `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   json.RawMessage `json:"format,omitempty"`
}

type wireChatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done  bool   `json:"done"`
	Error string `json:"error"`
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("ollama: http %d: %s", e.StatusCode, e.Body)
}

// Chat sends a single-turn request and returns the model's reply
// content. Transient failures are retried once; every other failure is
// returned wrapped in the service error taxonomy.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (string, error) {
	if strings.TrimSpace(req.Model) == "" {
		return "", services.Wrap(services.ErrConfigInvalid, "ollama", "chat", "model required", errors.New("empty model"))
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		content, err := c.chatOnce(ctx, req)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if attempt == maxAttempts || !retryable(ctx, err) {
			break
		}
		if err := c.sleep(ctx, retryBaseDelay*time.Duration(attempt)); err != nil {
			return "", services.Wrap(services.ErrTimeout, "ollama", "chat", req.Model, err)
		}
	}

	marker := services.ErrNaming
	if isTimeout(lastErr) {
		marker = services.ErrTimeout
	}
	return "", services.Wrap(marker, "ollama", "chat", req.Model, lastErr)
}

func (c *Client) chatOnce(ctx context.Context, req ChatRequest) (string, error) {
	msg := wireMessage{Role: "user", Content: req.Prompt}
	for _, img := range req.Images {
		msg.Images = append(msg.Images, base64.StdEncoding.EncodeToString(img))
	}
	encoded, err := json.Marshal(wireChatRequest{
		Model:    req.Model,
		Messages: []wireMessage{msg},
		Stream:   false,
		Format:   req.Format,
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", &httpStatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var reply wireChatResponse
	if err := json.Unmarshal(body, &reply); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if reply.Error != "" {
		return "", fmt.Errorf("api error: %s", reply.Error)
	}
	content := strings.TrimSpace(reply.Message.Content)
	if content == "" {
		return "", errors.New("empty reply content")
	}
	return content, nil
}

// Ping checks that the server is reachable. Used for status reporting,
// never on the task path.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("ollama ping: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama ping: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama ping: http %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if c.sleeper != nil && ctx.Err() == nil {
		c.sleeper(delay)
	}
	return ctx.Err()
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests ||
			statusErr.StatusCode >= http.StatusInternalServerError
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
