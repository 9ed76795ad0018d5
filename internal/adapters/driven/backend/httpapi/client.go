package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
	"go.uber.org/zap"

	"github.com/custodia-labs/wikiqa-cli/internal/core/domain"
	"github.com/custodia-labs/wikiqa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/wikiqa-cli/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.Backend = (*Client)(nil)

// HeaderRequestID carries a per-request identifier for backend log correlation.
const HeaderRequestID = "X-Request-ID"

// Failure messages per operation.
const (
	msgStatusFailed  = "Failed to fetch status"
	msgSearchFailed  = "Search failed"
	msgBuildFailed   = "Build failed"
	msgHistoryFailed = "Failed to fetch history"
	msgClearFailed   = "Failed to clear history"
)

// Config holds configuration for the HTTP backend client.
type Config struct {
	// BaseURL is the backend root (default: http://localhost:8000).
	BaseURL string

	// Timeout bounds each request. Zero leaves timeouts to the caller's context.
	Timeout time.Duration

	// RequestsPerSecond throttles requests when positive.
	RequestsPerSecond float64

	// HTTPClient overrides the underlying client (useful for tests).
	HTTPClient *http.Client
}

// ConfigFromSettings builds a client config from client settings.
func ConfigFromSettings(s domain.ClientSettings) Config {
	return Config{
		BaseURL:           s.BaseURL,
		Timeout:           s.Timeout,
		RequestsPerSecond: s.RequestsPerSecond,
	}
}

// Client talks to the wikiqa backend over HTTP.
type Client struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
}

// buildRequest is the /api/build request format.
type buildRequest struct {
	Topic       string `json:"topic"`
	MaxArticles int    `json:"max_articles"`
}

// askRequest is the /api/ask request format.
type askRequest struct {
	Question string `json:"question"`
}

// searchResponse is the /api/search response format.
type searchResponse struct {
	Titles []string `json:"titles"`
}

// errorResponse is the error body format produced by the backend.
type errorResponse struct {
	Detail string `json:"detail"`
}

// historyMessage is the /api/history item format.
type historyMessage struct {
	Role      string             `json:"role"`
	Content   string             `json:"content"`
	Sources   []domain.SourceRef `json:"sources"`
	Timestamp string             `json:"timestamp"`
}

// NewClient creates a new backend client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = domain.DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	c := &Client{
		client:  httpClient,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return c
}

// BaseURL returns the backend root this client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchStatus returns the backend's knowledge base snapshot.
func (c *Client) FetchStatus(ctx context.Context) (domain.StatusSnapshot, error) {
	var snap domain.StatusSnapshot
	resp, err := c.do(ctx, http.MethodGet, "/api/status", nil)
	if err != nil {
		return snap, transportError("status", msgStatusFailed, 0, err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return snap, transportError("status", msgStatusFailed, resp.StatusCode, nil)
	}
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return snap, transportError("status", msgStatusFailed, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	return snap, nil
}

// Search looks up article titles matching query. A limit <= 0 uses the default.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error) {
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))

	resp, err := c.do(ctx, http.MethodGet, "/api/search?"+q.Encode(), nil)
	if err != nil {
		return nil, transportError("search", msgSearchFailed, 0, err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, transportError("search", msgSearchFailed, resp.StatusCode, nil)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, transportError("search", msgSearchFailed, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}

	hits := make([]domain.SearchHit, 0, len(body.Titles))
	for _, title := range body.Titles {
		hits = append(hits, domain.SearchHit{Title: title})
	}
	return hits, nil
}

// Build constructs the knowledge base for topic. A maxArticles <= 0 uses the default.
func (c *Client) Build(ctx context.Context, topic string, maxArticles int) (domain.BuildResult, error) {
	var result domain.BuildResult
	if maxArticles <= 0 {
		maxArticles = domain.DefaultMaxArticles
	}

	resp, err := c.doJSON(ctx, http.MethodPost, "/api/build", buildRequest{Topic: topic, MaxArticles: maxArticles})
	if err != nil {
		return result, transportError("build", msgBuildFailed, 0, err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return result, transportError("build", msgBuildFailed, resp.StatusCode, nil)
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return result, transportError("build", msgBuildFailed, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	return result, nil
}

// Ask answers a question. Failures carry the backend's detail when present.
func (c *Client) Ask(ctx context.Context, question string) (domain.Answer, error) {
	var answer domain.Answer

	resp, err := c.doJSON(ctx, http.MethodPost, "/api/ask", askRequest{Question: question})
	if err != nil {
		return answer, &domain.AskError{Detail: err.Error()}
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return answer, &domain.AskError{StatusCode: resp.StatusCode, Detail: readDetail(resp.Body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return answer, &domain.AskError{StatusCode: resp.StatusCode, Detail: fmt.Sprintf("decode response: %v", err)}
	}
	if answer.Sources == nil {
		answer.Sources = []domain.SourceRef{}
	}
	return answer, nil
}

// GetHistory returns the backend-owned conversation history.
func (c *Client) GetHistory(ctx context.Context) ([]domain.Message, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/history", nil)
	if err != nil {
		return nil, transportError("history", msgHistoryFailed, 0, err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, transportError("history", msgHistoryFailed, resp.StatusCode, nil)
	}

	var items []historyMessage
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, transportError("history", msgHistoryFailed, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}

	messages := make([]domain.Message, 0, len(items))
	for _, item := range items {
		role, err := domain.ParseRole(item.Role)
		if err != nil {
			logger.Warn("history: skipping message with %v", err)
			continue
		}
		msg := domain.Message{Role: role, Content: item.Content, Sources: item.Sources}
		if msg.Sources == nil {
			msg.Sources = []domain.SourceRef{}
		}
		msg.Timestamp = parseTimestamp(item.Timestamp)
		messages = append(messages, msg)
	}
	return messages, nil
}

// ClearHistory deletes the backend-owned conversation history.
func (c *Client) ClearHistory(ctx context.Context) (domain.ClearAck, error) {
	var ack domain.ClearAck
	resp, err := c.do(ctx, http.MethodDelete, "/api/history", nil)
	if err != nil {
		return ack, transportError("clear_history", msgClearFailed, 0, err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return ack, transportError("clear_history", msgClearFailed, resp.StatusCode, nil)
	}
	// The acknowledgement body is informational only.
	_ = json.NewDecoder(resp.Body).Decode(&ack)
	return ack, nil
}

// doJSON sends body encoded as JSON.
func (c *Client) doJSON(ctx context.Context, method, path string, body any) (*http.Response, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return c.do(ctx, method, path, bytes.NewReader(jsonBody))
}

// do performs a single request. It never retries.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	if body == nil {
		body = http.NoBody
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set(HeaderRequestID, requestID)
	req.Header.Set("Accept", "application/json")
	if body != http.NoBody {
		req.Header.Set("Content-Type", "application/json")
	}

	logger.L().Debug("backend request",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	logger.L().Debug("backend response",
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode))
	return resp, nil
}

// isSuccess reports whether status is 2xx.
func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// transportError builds a *domain.TransportError.
func transportError(op, message string, status int, cause error) error {
	return &domain.TransportError{Op: op, StatusCode: status, Message: message, Err: cause}
}

// readDetail extracts the "detail" field from an error body.
func readDetail(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 1<<20))
	if err != nil || len(data) == 0 {
		return domain.GenericAskFailure
	}
	var body errorResponse
	if err := json.Unmarshal(data, &body); err != nil || body.Detail == "" {
		return domain.GenericAskFailure
	}
	return body.Detail
}

// timestampLayouts covers RFC 3339 and naive ISO 8601 timestamps.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// parseTimestamp parses a history timestamp. Naive timestamps are UTC.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
