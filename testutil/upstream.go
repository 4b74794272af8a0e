/*
Copyright © 2025 EthosView contributors.

Released under MIT license.
*/

package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// Upstream is a fake upstream JSON API. Handlers are registered per path (query string excluded),
// calls are counted per request URI (query string included).
type Upstream struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	calls    map[string]int
	headers  map[string]http.Header

	total         atomic.Int32
	inProgress    atomic.Int32
	maxInProgress atomic.Int32
}

// NewUpstream starts a new fake upstream. The caller must Close it.
func NewUpstream() *Upstream {
	u := &Upstream{
		handlers: make(map[string]http.HandlerFunc),
		calls:    make(map[string]int),
		headers:  make(map[string]http.Header),
	}
	u.Server = httptest.NewServer(http.HandlerFunc(u.serveHTTP))
	return u
}

// Handle registers the handler for the path.
func (u *Upstream) Handle(path string, h http.HandlerFunc) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.handlers[path] = h
}

// Calls returns how many times the request URI (path with query) was requested.
func (u *Upstream) Calls(requestURI string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls[requestURI]
}

// TotalCalls returns the number of all received requests.
func (u *Upstream) TotalCalls() int {
	return int(u.total.Load())
}

// InProgress returns the number of requests being handled right now.
func (u *Upstream) InProgress() int {
	return int(u.inProgress.Load())
}

// MaxInProgress returns the highest number of requests ever handled at the same time.
func (u *Upstream) MaxInProgress() int {
	return int(u.maxInProgress.Load())
}

// LastHeader returns the headers of the last request for the request URI.
func (u *Upstream) LastHeader(requestURI string) http.Header {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.headers[requestURI]
}

func (u *Upstream) serveHTTP(rw http.ResponseWriter, r *http.Request) {
	cur := u.inProgress.Inc()
	defer u.inProgress.Dec()
	for {
		prev := u.maxInProgress.Load()
		if cur <= prev || u.maxInProgress.CompareAndSwap(prev, cur) {
			break
		}
	}
	u.total.Inc()

	u.mu.Lock()
	u.calls[r.URL.RequestURI()]++
	u.headers[r.URL.RequestURI()] = r.Header.Clone()
	h, ok := u.handlers[r.URL.Path]
	u.mu.Unlock()

	if !ok {
		JSONResponse(http.StatusNotFound, `{"detail":"Not Found"}`)(rw, r)
		return
	}
	h(rw, r)
}

// JSONResponse returns a handler that answers with the status and the JSON body.
func JSONResponse(status int, body string) http.HandlerFunc {
	return func(rw http.ResponseWriter, _ *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		rw.WriteHeader(status)
		_, _ = fmt.Fprint(rw, body)
	}
}

// TooManyRequests returns a handler that answers 429 with the Retry-After header (omitted when empty).
func TooManyRequests(retryAfter string) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if retryAfter != "" {
			rw.Header().Set("Retry-After", retryAfter)
		}
		JSONResponse(http.StatusTooManyRequests, `{"detail":"Too Many Requests"}`)(rw, r)
	}
}

// Delayed returns a handler that sleeps for d (or until the request is canceled) before calling h.
func Delayed(d time.Duration, h http.HandlerFunc) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(d):
		case <-r.Context().Done():
			return
		}
		h(rw, r)
	}
}

// Blocking returns a handler that waits until release is closed before calling h.
func Blocking(release <-chan struct{}, h http.HandlerFunc) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		h(rw, r)
	}
}

// Sequence returns a handler that uses the given handlers one per request, in order.
// The last handler serves all requests after the sequence is exhausted.
func Sequence(handlers ...http.HandlerFunc) http.HandlerFunc {
	var mu sync.Mutex
	next := 0
	return func(rw http.ResponseWriter, r *http.Request) {
		mu.Lock()
		h := handlers[next]
		if next < len(handlers)-1 {
			next++
		}
		mu.Unlock()
		h(rw, r)
	}
}
