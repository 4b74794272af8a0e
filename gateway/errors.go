/*
Copyright © 2025 EthosView contributors.

Released under MIT license.
*/

package gateway

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrRateLimited is matched (errors.Is) by RateLimitedError.
var ErrRateLimited = errors.New("rate limited by upstream")

const maxErrorBodySize = 64 * 1024

// NetworkError is returned when the upstream could not be reached or the response could not be read.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("request %s: %v", e.URL, e.Err)
}

// Unwrap returns the next error in the error chain.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// RateLimitedError is returned when the upstream kept answering 429 until attempts were exhausted.
type RateLimitedError struct {
	URL        string
	StatusCode int
	Status     string
	Body       string
	RetryAfter string
}

func (e *RateLimitedError) Error() string {
	return httpErrorMessage(e.Status, e.Body)
}

// Is reports whether target is ErrRateLimited.
func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}

// HTTPError is returned for any non-2xx response other than 429.
type HTTPError struct {
	URL        string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	return httpErrorMessage(e.Status, e.Body)
}

// ParseError is returned when a successful response is not valid JSON
// or can't be decoded into the requested type.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse response from %s: %v", e.URL, e.Err)
}

// Unwrap returns the next error in the error chain.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsRateLimited reports whether err was caused by upstream rate limiting.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsHTTPStatus reports whether err carries the given upstream HTTP status code.
func IsHTTPStatus(err error, statusCode int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == statusCode
	}
	var rlErr *RateLimitedError
	if errors.As(err, &rlErr) {
		return rlErr.StatusCode == statusCode
	}
	return false
}

// "HTTP 500 Internal Server Error: <body>"
func httpErrorMessage(status, body string) string {
	if body == "" {
		return "HTTP " + status
	}
	return "HTTP " + status + ": " + body
}

func readErrorBody(resp *http.Response) string {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	return string(b)
}
