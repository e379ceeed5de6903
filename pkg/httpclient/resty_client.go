package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

const (
	contentTypeJSON = "application/json"
	contentTypeXML  = "text/xml; charset=utf-8"
	contentTypeForm = "application/x-www-form-urlencoded"
)

// RestyClient adapts resty.Client to the Dispatcher interface.
type RestyClient struct {
	client   *resty.Client
	limiter  *rate.Limiter
	log      Logger
	observer Observer
}

var _ Dispatcher = (*RestyClient)(nil)

// NewRestyClient creates a new RestyClient with the specified timeout.
func NewRestyClient(timeout time.Duration, opts ...Option) *RestyClient {
	o := clientOptions{log: noopLogger{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = noopLogger{}
	}

	c := newRestyBaseClient(timeout)
	if o.userAgent != "" {
		c.SetHeader("User-Agent", o.userAgent)
	}
	if o.retryMax > 0 {
		c.SetTransport(newRetryTransport(o))
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if o.rateLimit > 0 {
		burst := int(o.rateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(o.rateLimit), burst)
	}

	return &RestyClient{
		client:   c,
		limiter:  limiter,
		log:      o.log,
		observer: o.observer,
	}
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
func newRestyBaseClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	c.SetTimeout(timeout)
	c.JSONMarshal = sonic.Marshal
	c.JSONUnmarshal = sonic.Unmarshal
	return c
}

func newRetryTransport(o clientOptions) http.RoundTripper {
	rc := retryablehttp.NewClient()
	rc.RetryMax = o.retryMax
	if o.retryWaitMin > 0 {
		rc.RetryWaitMin = o.retryWaitMin
	}
	if o.retryWaitMax > 0 {
		rc.RetryWaitMax = o.retryWaitMax
	}
	rc.Logger = nil
	// Hand the last response back once retries run out; status is the caller's call.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return &retryablehttp.RoundTripper{Client: rc}
}

// Get performs a GET request with the given query parameters.
func (r *RestyClient) Get(ctx context.Context, endpoint string, query url.Values) (*Response, error) {
	return r.Do(ctx, http.MethodGet, endpoint, RequestOptions{Query: query})
}

// GetJSON performs a GET request asking the server for a JSON representation.
func (r *RestyClient) GetJSON(ctx context.Context, endpoint string, query url.Values) (*Response, error) {
	return r.Do(ctx, http.MethodGet, endpoint, RequestOptions{
		Query:   query,
		Headers: map[string]string{"Accept": contentTypeJSON},
	})
}

// Post submits form as an urlencoded body.
func (r *RestyClient) Post(ctx context.Context, endpoint string, form url.Values) (*Response, error) {
	return r.Do(ctx, http.MethodPost, endpoint, RequestOptions{Form: form})
}

// PostJSON submits data encoded as JSON.
func (r *RestyClient) PostJSON(ctx context.Context, endpoint string, data any, query url.Values) (*Response, error) {
	return r.Do(ctx, http.MethodPost, endpoint, RequestOptions{
		Query:       query,
		Body:        data,
		ContentType: contentTypeJSON,
	})
}

// PostXML submits data encoded by EncodeXML.
func (r *RestyClient) PostXML(ctx context.Context, endpoint string, data any, query url.Values) (*Response, error) {
	body, err := EncodeXML(data, "")
	if err != nil {
		return nil, err
	}
	return r.Do(ctx, http.MethodPost, endpoint, RequestOptions{
		Query:       query,
		Body:        body,
		ContentType: contentTypeXML,
	})
}

// Put submits form as an urlencoded body.
func (r *RestyClient) Put(ctx context.Context, endpoint string, form url.Values) (*Response, error) {
	return r.Do(ctx, http.MethodPut, endpoint, RequestOptions{Form: form})
}

// PutJSON submits data encoded as JSON.
func (r *RestyClient) PutJSON(ctx context.Context, endpoint string, data any, query url.Values) (*Response, error) {
	return r.Do(ctx, http.MethodPut, endpoint, RequestOptions{
		Query:       query,
		Body:        data,
		ContentType: contentTypeJSON,
	})
}

// Do builds and executes a request. Transport failures are returned as
// *TransportError; non-2xx statuses are not errors.
func (r *RestyClient) Do(ctx context.Context, method, endpoint string, opts RequestOptions) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, &TransportError{Method: method, URL: endpoint, Err: fmt.Errorf("rate limit: %w", err)}
	}

	req := r.client.R().SetContext(ctx)
	if len(opts.Headers) > 0 {
		req.SetHeaders(opts.Headers)
	}
	if len(opts.Query) > 0 {
		req.SetQueryParamsFromValues(opts.Query)
	}
	switch {
	case opts.Body != nil:
		req.SetBody(opts.Body)
	case len(opts.Form) > 0:
		req.SetFormDataFromValues(opts.Form)
		if opts.ContentType == "" {
			opts.ContentType = contentTypeForm
		}
	}
	if opts.ContentType != "" {
		req.SetHeader("Content-Type", opts.ContentType)
	}

	start := time.Now()
	resp, err := req.Execute(method, endpoint)
	elapsed := time.Since(start)
	if err != nil {
		r.observe(method, 0, elapsed, err)
		r.log.WarnObj("http request failed", "http_error", map[string]any{
			"method": method,
			"url":    endpoint,
			"error":  err.Error(),
		})
		return nil, &TransportError{Method: method, URL: endpoint, Err: err}
	}

	r.observe(method, resp.StatusCode(), elapsed, nil)
	r.log.DebugObj("http request completed", "http_result", map[string]any{
		"method":     method,
		"url":        endpoint,
		"status":     resp.StatusCode(),
		"elapsed_ms": elapsed.Milliseconds(),
		"bytes":      len(resp.Body()),
	})
	return newRestyResponse(method, endpoint, resp), nil
}

func (r *RestyClient) observe(method string, status int, elapsed time.Duration, err error) {
	if r.observer != nil {
		r.observer(method, status, elapsed, err)
	}
}
