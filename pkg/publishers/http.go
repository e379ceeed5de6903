package publishers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-httpkit/pkg/httpclient"
)

// httpPublisher posts events as JSON to a webhook through the same
// dispatcher used for profile requests.
type httpPublisher struct {
	id      string
	typ     string
	method  string
	url     string
	headers map[string]string
	client  httpclient.Dispatcher
	log     Logger
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}
	log = orDiscard(log)

	timeout := time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second
	return &httpPublisher{
		id:      cfg.ID,
		typ:     TypeHTTP,
		method:  cfg.HTTP.Method,
		url:     cfg.HTTP.URL,
		headers: cfg.HTTP.Headers,
		client:  httpclient.NewRestyClient(timeout, httpclient.WithLogger(log)),
		log:     log,
	}, nil
}

func (h *httpPublisher) ID() string   { return h.id }
func (h *httpPublisher) Type() string { return h.typ }

func (h *httpPublisher) Publish(ctx context.Context, evt Event) error {
	resp, err := h.client.Do(ctx, h.method, h.url, httpclient.RequestOptions{
		Headers:     h.headers,
		Body:        evt,
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	if !resp.IsOK() {
		return fmt.Errorf("http response status %d: %s", resp.StatusCode(), bodySnippet(resp.Content()))
	}
	h.log.DebugObj("http publisher delivered event", "publisher_http_delivery", map[string]any{
		"publisher_id": h.id,
		"status":       resp.StatusCode(),
	})
	return nil
}

func bodySnippet(body []byte) string {
	if len(body) > 512 {
		body = body[:512]
	}
	return strings.TrimSpace(string(body))
}
