// Package jstris fetches replays and sprint leaderboards from the jstris
// website.
//
// # Usage
//
//	client := jstris.NewClient(jstris.Config{})
//
//	r, err := client.FetchReplay(ctx, 70293904)
//
//	for entry, err := range client.Leaderboard(ctx, replay.Mode40L) {
//	    ...
//	}
package jstris

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/time/rate"

	"github.com/MJE43/jstris-replay-go/internal/replay"
)

// DefaultBaseURL is the public jstris site.
const DefaultBaseURL = "https://jstris.jezevec10.com"

// Config holds configuration for the jstris client.
type Config struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// MaxRetries is the maximum number of retry attempts for retryable errors.
	// Defaults to 3 if zero.
	MaxRetries int

	// BaseRetryDelay is the initial delay before the first retry.
	// Defaults to 2 seconds if zero.
	BaseRetryDelay time.Duration

	// MaxRetryDelay caps the exponential backoff delay.
	// Defaults to 10 seconds if zero.
	MaxRetryDelay time.Duration

	// RequestsPerSecond limits outgoing requests. Defaults to 2; negative
	// disables limiting.
	RequestsPerSecond float64

	// HTTPClient allows injecting a custom HTTP client (useful for testing).
	// Defaults to a client with 30s timeout.
	HTTPClient *http.Client

	// UserAgent overrides the User-Agent header. Optional.
	UserAgent string

	// Codec decodes fetched replays. Defaults to replay.DefaultCodec.
	Codec *replay.Codec

	Logger hclog.Logger
}

// Client is a jstris website client. It is safe for concurrent use.
type Client struct {
	config  Config
	base    *url.URL
	http    *http.Client
	limiter *rate.Limiter
	codec   replay.Codec
	logger  hclog.Logger
}

// NewClient creates a client, filling in defaults.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BaseRetryDelay == 0 {
		cfg.BaseRetryDelay = 2 * time.Second
	}
	if cfg.MaxRetryDelay == 0 {
		cfg.MaxRetryDelay = 10 * time.Second
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = 2
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("jstris: invalid base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("jstris: base URL %q must be http or https", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	codec := replay.DefaultCodec
	if cfg.Codec != nil {
		codec = *cfg.Codec
	}

	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &Client{
		config:  cfg,
		base:    base,
		http:    httpClient,
		limiter: limiter,
		codec:   codec,
		logger:  logger.Named("jstris"),
	}, nil
}

// BaseURL returns the configured site root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// FetchReplay downloads and decodes a replay by its numeric id.
func (c *Client) FetchReplay(ctx context.Context, id uint64) (*replay.Replay, error) {
	body, err := c.getWithRetry(ctx, "/replay/data", url.Values{
		"id":   {strconv.FormatUint(id, 10)},
		"type": {"0"},
	})
	if err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %d", ErrReplayNotFound, id)
		}
		return nil, err
	}

	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || trimmed == "null" || strings.HasPrefix(trimmed, "<") {
		return nil, fmt.Errorf("%w: %d", ErrReplayNotFound, id)
	}

	r, err := c.codec.DecodeJSON(body)
	if err != nil {
		return nil, fmt.Errorf("jstris: replay %d: %w", id, err)
	}
	c.logger.Debug("fetched replay", "id", id, "events", len(r.Events), "seed", r.Metadata.Seed)
	return r, nil
}

// ReplayURL returns the public page of a replay.
func (c *Client) ReplayURL(id uint64) string {
	return c.base.JoinPath("replay", strconv.FormatUint(id, 10)).String()
}

// get sends a single GET request and returns the body of a 200 response.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.base.JoinPath(path)
	u.RawQuery = query.Encode()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("jstris: create request: %w", err)
	}
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jstris: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("jstris: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// getWithRetry retries rate limits and server errors with exponential
// backoff.
func (c *Client) getWithRetry(ctx context.Context, path string, query url.Values) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay(attempt)
			c.logger.Warn("retrying request", "path", path, "attempt", attempt, "delay", delay, "error", lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		body, err := c.get(ctx, path, query)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.IsRetryable() {
			continue
		}
		return nil, err
	}

	return nil, fmt.Errorf("jstris: max retries exceeded: %w", lastErr)
}

// retryDelay calculates the backoff delay for a given attempt number.
func (c *Client) retryDelay(attempt int) time.Duration {
	delay := c.config.BaseRetryDelay * time.Duration(math.Pow(2, float64(attempt-1)))
	if delay > c.config.MaxRetryDelay {
		delay = c.config.MaxRetryDelay
	}
	return delay
}
