package arr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/mmcdole/arrdeck/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "arrdeck/1.0"
	apiPrefix      = "/api/v3"
)

// Options configures the HTTP client
type Options struct {
	Timeout   time.Duration
	RateLimit float64 // requests per second per instance, 0 disables limiting
	Burst     int
}

// Client implements domain.Client for Radarr and Sonarr v3 APIs.
// It holds no instance state; every call names the instance it targets.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

var _ domain.Client = (*Client)(nil)

// NewClient creates a new API client
func NewClient(opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		logger:     logger,
		limiters:   make(map[string]*rate.Limiter),
		limit:      limit,
		burst:      opts.Burst,
	}
}

// limiter returns the rate limiter for an instance, creating one if needed
func (c *Client) limiter(instanceID string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.limiters[instanceID]
	if !ok {
		l = rate.NewLimiter(c.limit, c.burst)
		c.limiters[instanceID] = l
	}
	return l
}

// Forget drops per-instance state for a removed instance
func (c *Client) Forget(instanceID string) {
	c.mu.Lock()
	delete(c.limiters, instanceID)
	c.mu.Unlock()
}

// doRequest performs an authenticated request and decodes the JSON response into out.
// out may be nil for requests whose body is ignored.
func (c *Client) doRequest(ctx context.Context, inst domain.Instance, method, path string, query url.Values, body, out any) error {
	if inst.IsVoid() {
		return domain.ErrNoInstance
	}

	if err := c.limiter(inst.ID).Wait(ctx); err != nil {
		return classify(ctx, err)
	}

	reqURL := inst.BaseURL() + apiPrefix + path
	if len(query) > 0 {
		reqURL = reqURL + "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return &domain.APIError{Kind: domain.ErrorNotConnected, Err: err}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", inst.APIKey)
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range inst.Headers {
		req.Header.Set(k, v)
	}

	c.logger.Debug("arr request", "instance", inst.ID, "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		classified := classify(ctx, err)
		if !domain.IsCancelled(classified) {
			c.logger.Error("arr request failed", "instance", inst.ID, "path", path, "error", err)
		}
		return classified
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return classify(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("arr request error", "instance", inst.ID, "path", path, "status", resp.StatusCode)
		return statusError(resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.logger.Error("json parse error", "instance", inst.ID, "path", path, "error", err, "bodyLen", len(data))
		return &domain.APIError{Kind: domain.ErrorDecodeFailure, StatusCode: resp.StatusCode, Err: err}
	}
	return nil
}

// classify maps transport errors onto domain error kinds
func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) || ctx.Err() == context.Canceled {
		return &domain.APIError{Kind: domain.ErrorCancelled, Err: context.Canceled}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.APIError{Kind: domain.ErrorTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &domain.APIError{Kind: domain.ErrorTimeout, Err: err}
	}
	return &domain.APIError{Kind: domain.ErrorNotConnected, Err: err}
}

// serverMessage is the error body shape returned by the servers
type serverMessage struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// validationFailure is one entry of a 400 validation response
type validationFailure struct {
	PropertyName string `json:"propertyName"`
	ErrorMessage string `json:"errorMessage"`
}

// statusError builds a ServerError when the body carries a message, else BadStatusCode
func statusError(code int, body []byte) error {
	if msg := extractMessage(body); msg != "" {
		return &domain.APIError{Kind: domain.ErrorServerError, StatusCode: code, Message: msg}
	}
	return &domain.APIError{Kind: domain.ErrorBadStatusCode, StatusCode: code}
}

func extractMessage(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}

	switch trimmed[0] {
	case '{':
		var m serverMessage
		if err := json.Unmarshal(trimmed, &m); err == nil {
			if m.Message != "" {
				return m.Message
			}
			return m.Error
		}
	case '[':
		var failures []validationFailure
		if err := json.Unmarshal(trimmed, &failures); err == nil {
			msgs := make([]string, 0, len(failures))
			for _, f := range failures {
				if f.ErrorMessage != "" {
					msgs = append(msgs, f.ErrorMessage)
				}
			}
			return strings.Join(msgs, "; ")
		}
	}
	return ""
}

// get is a typed helper for GET requests
func get[T any](ctx context.Context, c *Client, inst domain.Instance, path string, query url.Values) (T, error) {
	var out T
	err := c.doRequest(ctx, inst, http.MethodGet, path, query, nil, &out)
	return out, err
}

func apiDate(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
