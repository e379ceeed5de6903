package profiles

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/samvad-hq/samvad-httpkit/pkg/httpclient"
)

// Dispatch issues the profile's request. Profiles without custom headers go
// through the dispatcher's convenience verbs; the rest are built explicitly.
func (p Profile) Dispatch(ctx context.Context, d httpclient.Dispatcher) (*httpclient.Response, error) {
	if d == nil {
		return nil, fmt.Errorf("profile %q: dispatcher is nil", p.ID)
	}
	if len(p.Headers) > 0 || p.BodyFormat == BodyRaw {
		opts, err := p.RequestOptions()
		if err != nil {
			return nil, err
		}
		return d.Do(ctx, p.Method, p.URL, opts)
	}

	query := toValues(p.Query)
	switch {
	case p.Method == http.MethodGet && p.Expect == ExpectJSON:
		return d.GetJSON(ctx, p.URL, query)
	case p.Method == http.MethodGet:
		return d.Get(ctx, p.URL, query)
	case p.BodyFormat == BodyJSON && p.Method == http.MethodPost:
		return d.PostJSON(ctx, p.URL, p.Body, query)
	case p.BodyFormat == BodyJSON:
		return d.PutJSON(ctx, p.URL, p.Body, query)
	case p.BodyFormat == BodyXML && p.Method == http.MethodPost:
		return d.PostXML(ctx, p.URL, p.Body, query)
	case p.BodyFormat == BodyXML:
		opts, err := p.RequestOptions()
		if err != nil {
			return nil, err
		}
		return d.Do(ctx, p.Method, p.URL, opts)
	case len(query) == 0 && p.Method == http.MethodPost:
		return d.Post(ctx, p.URL, toValues(p.Form))
	case len(query) == 0:
		return d.Put(ctx, p.URL, toValues(p.Form))
	}

	opts, err := p.RequestOptions()
	if err != nil {
		return nil, err
	}
	return d.Do(ctx, p.Method, p.URL, opts)
}

// RequestOptions converts the profile into explicit request options.
func (p Profile) RequestOptions() (httpclient.RequestOptions, error) {
	opts := httpclient.RequestOptions{
		Headers: make(map[string]string, len(p.Headers)+1),
		Query:   toValues(p.Query),
	}
	for k, v := range p.Headers {
		opts.Headers[k] = v
	}
	if p.Expect == ExpectJSON {
		if _, ok := opts.Headers["Accept"]; !ok {
			opts.Headers["Accept"] = "application/json"
		}
	}

	switch p.BodyFormat {
	case BodyJSON:
		opts.Body = p.Body
		opts.ContentType = "application/json"
	case BodyXML:
		raw, err := httpclient.EncodeXML(p.Body, "")
		if err != nil {
			return httpclient.RequestOptions{}, fmt.Errorf("profile %q: %w", p.ID, err)
		}
		opts.Body = raw
		opts.ContentType = "text/xml; charset=utf-8"
	case BodyForm:
		opts.Form = toValues(p.Form)
	case BodyRaw:
		if s, ok := p.Body.(string); ok {
			opts.Body = []byte(s)
		}
	}
	return opts, nil
}

func toValues(m map[string]string) url.Values {
	if len(m) == 0 {
		return nil
	}
	out := make(url.Values, len(m))
	for k, v := range m {
		out.Set(k, v)
	}
	return out
}
