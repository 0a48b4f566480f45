package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// DefaultBaseURL is the public GitHub REST API root.
const DefaultBaseURL = "https://api.github.com"

// Retry and backoff constants.
const (
	defaultMaxRetries = 5
	baseBackoff       = 1 * time.Second
	maxBackoff        = 60 * time.Second
	backoffFactor     = 2.0
	jitterFraction    = 0.25
	maxErrorBody      = 1024
	apiVersion        = "2022-11-28"
	acceptHeader      = "application/vnd.github+json"
)

// Observer receives per-request outcomes. status is 0 when no HTTP response
// was received. *metrics.Metrics implements it.
type Observer interface {
	ObserveRequest(method string, status int)
	ObserveRetry(method string)
}

// Client is an HTTP client for the GitHub REST API. It handles request
// construction, authentication, retry with exponential backoff, and error
// classification.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      oauth2.TokenSource
	logger     *slog.Logger
	userAgent  string
	maxRetries int
	observer   Observer

	// sleepFunc is called to wait between retries. Defaults to timeSleep.
	// Tests override this to avoid real delays.
	sleepFunc func(ctx context.Context, d time.Duration) error
}

// NewClient creates a GitHub API client. baseURL is typically DefaultBaseURL.
func NewClient(baseURL string, httpClient *http.Client, token oauth2.TokenSource, logger *slog.Logger, userAgent string) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		token:      token,
		logger:     logger,
		userAgent:  userAgent,
		maxRetries: defaultMaxRetries,
		sleepFunc:  timeSleep,
	}
}

// SetMaxRetries changes how many times a retryable failure is retried.
func (c *Client) SetMaxRetries(n int) {
	if n < 0 {
		n = 0
	}

	c.maxRetries = n
}

// SetObserver registers o to receive request outcomes.
func (c *Client) SetObserver(o Observer) {
	c.observer = o
}

// Do executes an HTTP request against the API. path is appended to the base
// URL. body is resent unchanged on every retry. On success the caller must
// close the response body. Non-2xx responses are returned as *APIError.
func (c *Client) Do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	url := c.baseURL + path

	var attempt int
	for {
		resp, err := c.doOnce(ctx, method, url, body)
		if err != nil {
			c.observe(method, 0)

			// Context cancellation is not retryable.
			if ctx.Err() != nil {
				return nil, fmt.Errorf("github: request canceled: %w", ctx.Err())
			}

			if attempt < c.maxRetries {
				backoff := c.calcBackoff(attempt)
				c.logger.Warn("retrying after network error",
					slog.String("method", method),
					slog.String("path", path),
					slog.Int("attempt", attempt+1),
					slog.Duration("backoff", backoff),
					slog.String("error", err.Error()),
				)

				if sleepErr := c.sleepFunc(ctx, backoff); sleepErr != nil {
					return nil, fmt.Errorf("github: request canceled: %w", sleepErr)
				}

				c.observeRetry(method)
				attempt++

				continue
			}

			return nil, fmt.Errorf("github: %s %s failed after %d retries: %w: %w",
				method, path, attempt, ErrTransport, err)
		}

		c.observe(method, resp.StatusCode)

		// 2xx: success.
		if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
			c.logger.Debug("request succeeded",
				slog.String("method", method),
				slog.String("path", path),
				slog.Int("status", resp.StatusCode),
			)

			return resp, nil
		}

		// Read and close body for error responses.
		errBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()

		if readErr != nil {
			errBody = []byte("(failed to read response body)")
		}

		status := resp.StatusCode
		rateLimited := isRateLimited(resp)

		if (isRetryable(status) || rateLimited) && attempt < c.maxRetries {
			backoff := c.retryBackoff(resp, attempt)
			c.logger.Warn("retrying after HTTP error",
				slog.String("method", method),
				slog.String("path", path),
				slog.Int("status", status),
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", backoff),
			)

			if err := c.sleepFunc(ctx, backoff); err != nil {
				return nil, fmt.Errorf("github: request canceled: %w", err)
			}

			c.observeRetry(method)
			attempt++

			continue
		}

		sentinel := classifyStatus(status)
		if rateLimited {
			sentinel = ErrThrottled
		}

		apiErr := &APIError{
			StatusCode: status,
			RequestID:  resp.Header.Get("X-GitHub-Request-Id"),
			Message:    errorMessage(errBody, status),
			Err:        sentinel,
		}

		if attempt > 0 {
			c.logger.Error("request failed after retries",
				slog.String("method", method),
				slog.String("path", path),
				slog.Int("status", status),
				slog.Int("attempts", attempt+1),
			)
		}

		return nil, apiErr
	}
}

// doOnce executes a single HTTP request (no retry).
func (c *Client) doOnce(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	tok, err := c.token.Token()
	if err != nil {
		return nil, fmt.Errorf("obtaining token: %w", err)
	}

	tok.SetAuthHeader(req)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

// errorMessage extracts the "message" field GitHub puts in error bodies,
// falling back to the raw body, then to the status text.
func errorMessage(body []byte, status int) string {
	var parsed struct {
		Message string `json:"message"`
	}

	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		return parsed.Message
	}

	if trimmed := strings.TrimSpace(string(body)); trimmed != "" {
		return trimmed
	}

	return http.StatusText(status)
}

// isRateLimited detects GitHub's primary rate limit, which arrives as a 403
// with no requests remaining, and secondary limits, which carry Retry-After.
func isRateLimited(resp *http.Response) bool {
	if resp.StatusCode != http.StatusForbidden {
		return false
	}

	return resp.Header.Get("X-RateLimit-Remaining") == "0" || resp.Header.Get("Retry-After") != ""
}

// retryBackoff returns the backoff duration for a retryable response.
// A Retry-After header, when present, wins over the computed backoff.
func (c *Client) retryBackoff(resp *http.Response, attempt int) time.Duration {
	if ra := resp.Header.Get("Retry-After"); ra != "" {
		if seconds, err := strconv.Atoi(ra); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}

	return c.calcBackoff(attempt)
}

// calcBackoff computes exponential backoff with ±25% jitter.
func (c *Client) calcBackoff(attempt int) time.Duration {
	backoff := float64(baseBackoff) * math.Pow(backoffFactor, float64(attempt))
	if backoff > float64(maxBackoff) {
		backoff = float64(maxBackoff)
	}

	jitter := backoff * jitterFraction * (rand.Float64()*2 - 1) //nolint:gosec // jitter does not need crypto rand
	backoff += jitter

	return time.Duration(backoff)
}

func (c *Client) observe(method string, status int) {
	if c.observer != nil {
		c.observer.ObserveRequest(method, status)
	}
}

func (c *Client) observeRetry(method string) {
	if c.observer != nil {
		c.observer.ObserveRetry(method)
	}
}

// timeSleep waits for the given duration or until the context is canceled.
// It is the default sleepFunc for Client.
func timeSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
