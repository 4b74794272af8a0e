/*
Copyright © 2025 EthosView contributors.

Released under MIT license.
*/

package gateway

import "net/http"

// DefaultRequestType labels upstream requests made without WithRequestType.
const DefaultRequestType = "gateway"

// RequestOption customizes a single Get call.
type RequestOption func(*requestOptions)

type requestOptions struct {
	lowPriority bool
	header      http.Header
	requestType string
}

// WithLowPriority delays the upstream dispatch by a small random jitter
// even if the path is not configured as low-priority.
func WithLowPriority() RequestOption {
	return func(o *requestOptions) {
		o.lowPriority = true
	}
}

// WithHeader adds a header to the upstream request.
// Headers do not take part in the cache key.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.header == nil {
			o.header = make(http.Header)
		}
		o.header.Add(key, value)
	}
}

// WithRequestType sets the label used for the request in logs and http client metrics.
func WithRequestType(requestType string) RequestOption {
	return func(o *requestOptions) {
		o.requestType = requestType
	}
}
