package httpclient

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

// Response is an immutable snapshot of a completed HTTP exchange. Structured
// data is decoded on first access and cached for the lifetime of the value.
type Response struct {
	method     string
	url        string
	statusCode int
	header     http.Header
	body       []byte
	receivedAt time.Time
	format     Format

	decodeOnce sync.Once
	data       any
	decodeErr  error
}

// NewResponse snapshots the given status, headers and body. Header and body are
// copied so later mutation by the caller does not leak into the response.
func NewResponse(method, url string, statusCode int, header http.Header, body []byte) *Response {
	h := header.Clone()
	if h == nil {
		h = http.Header{}
	}
	r := &Response{
		method:     method,
		url:        url,
		statusCode: statusCode,
		header:     h,
		body:       bytes.Clone(body),
		receivedAt: time.Now().UTC(),
	}
	r.format = DetectFormat(r.ContentType(), r.body)
	return r
}

func newRestyResponse(method, url string, resp *resty.Response) *Response {
	r := NewResponse(method, url, resp.StatusCode(), resp.Header(), resp.Body())
	if at := resp.ReceivedAt(); !at.IsZero() {
		r.receivedAt = at.UTC()
	}
	return r
}

func (r *Response) Method() string        { return r.method }
func (r *Response) URL() string           { return r.url }
func (r *Response) StatusCode() int       { return r.statusCode }
func (r *Response) ReceivedAt() time.Time { return r.receivedAt }
func (r *Response) Format() Format        { return r.format }

// Header returns a copy of the response headers.
func (r *Response) Header() http.Header { return r.header.Clone() }

// HeaderLine returns all values of the named header joined by ", ".
func (r *Response) HeaderLine(name string) string {
	return strings.Join(r.header.Values(name), ", ")
}

// Content returns the raw body. The slice is shared and must not be modified.
func (r *Response) Content() []byte { return r.body }

func (r *Response) String() string { return string(r.body) }

func (r *Response) ContentType() string { return r.header.Get("Content-Type") }

// Data returns the body decoded according to Format. Decoding runs at most
// once; the result, including any error, is cached. Undetected formats yield
// nil data and a nil error.
func (r *Response) Data() (any, error) {
	r.decodeOnce.Do(func() {
		r.data, r.decodeErr = Decode(r.format, r.body)
	})
	return r.data, r.decodeErr
}

// DataMap returns Data when it decoded to an object, nil otherwise.
func (r *Response) DataMap() map[string]any {
	data, err := r.Data()
	if err != nil {
		return nil
	}
	m, _ := data.(map[string]any)
	return m
}

// Document parses the body as HTML.
func (r *Response) Document() (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// IsHTML reports whether the Content-Type names an HTML document.
func (r *Response) IsHTML() bool {
	return strings.Contains(strings.ToLower(r.ContentType()), "html")
}

func (r *Response) IsInvalid() bool       { return IsInvalid(r.statusCode) }
func (r *Response) IsInformational() bool { return IsInformational(r.statusCode) }
func (r *Response) IsOK() bool            { return IsOK(r.statusCode) }
func (r *Response) IsRedirection() bool   { return IsRedirection(r.statusCode) }
func (r *Response) IsClientError() bool   { return IsClientError(r.statusCode) }
func (r *Response) IsServerError() bool   { return IsServerError(r.statusCode) }
func (r *Response) IsForbidden() bool     { return IsForbidden(r.statusCode) }
func (r *Response) IsNotFound() bool      { return IsNotFound(r.statusCode) }
func (r *Response) IsEmpty() bool         { return IsEmpty(r.statusCode) }
