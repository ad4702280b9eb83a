package jstris

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrReplayNotFound is returned when the site has no replay for an id.
var ErrReplayNotFound = errors.New("jstris: replay not found")

// ErrNoEntries is returned when a leaderboard page has no replay links.
var ErrNoEntries = errors.New("jstris: leaderboard page has no replay entries")

// HTTPError represents a non-200 HTTP response from the site.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("jstris: HTTP %d: %s", e.StatusCode, body)
}

// IsRateLimited returns true for 403 and 429 responses.
func (e *HTTPError) IsRateLimited() bool {
	return e.StatusCode == http.StatusForbidden || e.StatusCode == http.StatusTooManyRequests
}

// IsRetryable returns true for rate limits and server errors (5xx).
func (e *HTTPError) IsRetryable() bool {
	return e.IsRateLimited() || e.StatusCode >= 500
}

// ParseError reports a leaderboard page the scraper could not understand.
type ParseError struct {
	Page string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("jstris: parse leaderboard page %q: %v", e.Page, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
