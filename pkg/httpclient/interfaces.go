package httpclient

import (
	"context"
	"net/url"
)

// Dispatcher issues requests and wraps their responses. RestyClient is the
// production implementation; callers depend on this interface so tests can
// substitute fakes.
type Dispatcher interface {
	Get(ctx context.Context, endpoint string, query url.Values) (*Response, error)
	GetJSON(ctx context.Context, endpoint string, query url.Values) (*Response, error)
	Post(ctx context.Context, endpoint string, form url.Values) (*Response, error)
	PostJSON(ctx context.Context, endpoint string, data any, query url.Values) (*Response, error)
	PostXML(ctx context.Context, endpoint string, data any, query url.Values) (*Response, error)
	Put(ctx context.Context, endpoint string, form url.Values) (*Response, error)
	PutJSON(ctx context.Context, endpoint string, data any, query url.Values) (*Response, error)
	Do(ctx context.Context, method, endpoint string, opts RequestOptions) (*Response, error)
}

// Logger is the logging surface the client reports through.
type Logger interface {
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) DebugObj(string, string, interface{}) {}
func (noopLogger) WarnObj(string, string, interface{})  {}
