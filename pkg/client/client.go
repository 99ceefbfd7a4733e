// Package client talks to a recipe assistant API over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/papercomputeco/sous/pkg/llm"
)

// maxErrorBody caps how much of a failed response is kept for logging.
const maxErrorBody = 512

// Config is the client configuration.
type Config struct {
	// BaseURL of the API (e.g., "http://localhost:8000")
	BaseURL string

	// TopK asks the server for this many sources. Zero leaves the choice to the server.
	TopK int

	// HTTPClient overrides the transport. The default client has no timeout:
	// deadlines come from the caller's context.
	HTTPClient *http.Client
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server returned %d", e.Code)
	}
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Body)
}

// Client is a recipe assistant API client. It holds no per-request state and
// is safe for concurrent use.
type Client struct {
	baseURL    string
	topK       int
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a new Client.
func New(config Config, logger *zap.Logger) *Client {
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		topK:       config.TopK,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Chat sends message verbatim to POST /api/chat with the configured TopK.
func (c *Client) Chat(ctx context.Context, message string) (*llm.ChatResponse, error) {
	req := llm.ChatRequest{Message: message}
	if c.topK > 0 {
		topK := c.topK
		req.TopK = &topK
	}

	return c.Send(ctx, req)
}

// Send posts req to POST /api/chat as is.
func (c *Client) Send(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	var resp llm.ChatResponse
	if err := c.do(ctx, http.MethodPost, "/api/chat", &req, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// Feedback rates an earlier answer by its query ID.
func (c *Client) Feedback(ctx context.Context, req llm.FeedbackRequest) (*llm.FeedbackResponse, error) {
	var resp llm.FeedbackResponse
	if err := c.do(ctx, http.MethodPost, "/api/feedback", &req, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// ListFeedback fetches stored ratings, oldest first. An empty queryID lists
// every rating.
func (c *Client) ListFeedback(ctx context.Context, queryID string) (*llm.FeedbackListResponse, error) {
	path := "/api/feedback"
	if queryID != "" {
		path += "?" + url.Values{"query_id": {queryID}}.Encode()
	}

	var resp llm.FeedbackListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (*llm.HealthResponse, error) {
	var resp llm.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	target := c.baseURL + path
	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")

	c.logger.Debug("sending request", zap.String("method", method), zap.String("url", target))

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBody))
		return &StatusError{Code: httpResp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if err := json.NewDecoder(httpResp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
