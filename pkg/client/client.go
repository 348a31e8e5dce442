// Package client talks to a running secdash instance over its JSON API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"secdash/pkg/models"
)

const (
	pathSecurityMetrics = "/api/crowdsec-metrics"
	pathSystemMetrics   = "/api/system-metrics"
	pathHealth          = "/api/health"

	defaultRetryMax     = 2
	defaultRetryWaitMin = 200 * time.Millisecond
	defaultRetryWaitMax = 2 * time.Second
	defaultTimeout      = 15 * time.Second

	// Error bodies larger than this are not worth decoding.
	maxErrorBody = 64 << 10
)

// ErrUnexpectedStatus is wrapped by APIError.
var ErrUnexpectedStatus = errors.New("unexpected status")

// APIError is returned when the server answers with a non-200 status.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return ErrUnexpectedStatus
}

// Options tunes retries and timeouts. Zero values select defaults.
type Options struct {
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Timeout      time.Duration
}

// Client is a typed wrapper over the metrics endpoints.
type Client struct {
	baseURL string
	http    *retryablehttp.Client
}

// New creates a Client for the instance at baseURL, e.g. http://localhost:3456.
func New(baseURL string, opts Options) *Client {
	if opts.RetryMax == 0 {
		opts.RetryMax = defaultRetryMax
	}
	if opts.RetryWaitMin == 0 {
		opts.RetryWaitMin = defaultRetryWaitMin
	}
	if opts.RetryWaitMax == 0 {
		opts.RetryWaitMax = defaultRetryWaitMax
	}
	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}

	httpClient := CreateRetryableClient(opts.RetryMax, opts.RetryWaitMin, opts.RetryWaitMax)
	httpClient.HTTPClient.Timeout = opts.Timeout

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// CreateRetryableClient creates a retryable HTTP client that only retries
// when no response was received.
func CreateRetryableClient(retryMax int, retryWaitMin, retryWaitMax time.Duration) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = retryMax
	client.RetryWaitMin = retryWaitMin
	client.RetryWaitMax = retryWaitMax
	client.Logger = nil
	client.CheckRetry = connectionRetryPolicy
	// Return the last response instead of a generic "giving up" error.
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return client
}

// connectionRetryPolicy retries connection and timeout errors only. A 500
// from the server is a real answer (a failed probe) and is returned as is.
func connectionRetryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if resp != nil {
		return false, nil
	}
	if err != nil {
		return true, nil //nolint:nilerr // retryablehttp reports the final error
	}
	return false, nil
}

// Health fetches the health status.
func (c *Client) Health(ctx context.Context) (*models.HealthStatus, error) {
	var status models.HealthStatus
	if err := c.getJSON(ctx, pathHealth, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// SecurityMetrics fetches the security decision counters.
func (c *Client) SecurityMetrics(ctx context.Context) ([]models.SecurityDecision, error) {
	var decisions []models.SecurityDecision
	if err := c.getJSON(ctx, pathSecurityMetrics, &decisions); err != nil {
		return nil, err
	}
	return decisions, nil
}

// SystemMetrics fetches the host metrics snapshot.
func (c *Client) SystemMetrics(ctx context.Context) (*models.SystemSnapshot, error) {
	var snapshot models.SystemSnapshot
	if err := c.getJSON(ctx, pathSystemMetrics, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return apiErr
	}

	var envelope models.ErrorResponse
	if json.Unmarshal(body, &envelope) == nil && envelope.Message != "" {
		apiErr.Message = envelope.Message
	}
	return apiErr
}
