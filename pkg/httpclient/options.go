package httpclient

import (
	"net/url"
	"time"
)

// RequestOptions configures a single request. Body takes precedence over Form.
type RequestOptions struct {
	Headers     map[string]string
	Query       url.Values
	Form        url.Values
	Body        any
	ContentType string
}

// Observer is notified after every dispatched request. status is zero when the
// transport failed.
type Observer func(method string, status int, elapsed time.Duration, err error)

// Option customizes a RestyClient.
type Option func(*clientOptions)

type clientOptions struct {
	userAgent    string
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
	rateLimit    float64
	log          Logger
	observer     Observer
}

// WithUserAgent sets the default User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *clientOptions) { o.userAgent = ua }
}

// WithRetry routes requests through a retrying transport. Retries are a
// transport concern; the client itself never re-issues a request.
func WithRetry(max int, waitMin, waitMax time.Duration) Option {
	return func(o *clientOptions) {
		o.retryMax = max
		o.retryWaitMin = waitMin
		o.retryWaitMax = waitMax
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables the limit.
func WithRateLimit(rps float64) Option {
	return func(o *clientOptions) { o.rateLimit = rps }
}

func WithLogger(log Logger) Option {
	return func(o *clientOptions) { o.log = log }
}

func WithObserver(fn Observer) Option {
	return func(o *clientOptions) { o.observer = fn }
}
