package profiles

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/samvad-hq/samvad-httpkit/pkg/httpclient"
)

// recordingDispatcher records which verb a profile was routed to.
type recordingDispatcher struct {
	verb   string
	method string
	url    string
	query  url.Values
	form   url.Values
	data   any
	opts   httpclient.RequestOptions
}

func (r *recordingDispatcher) reply() *httpclient.Response {
	return httpclient.NewResponse(r.method, r.url, http.StatusOK, nil, nil)
}

func (r *recordingDispatcher) Get(_ context.Context, u string, q url.Values) (*httpclient.Response, error) {
	r.verb, r.method, r.url, r.query = "Get", http.MethodGet, u, q
	return r.reply(), nil
}

func (r *recordingDispatcher) GetJSON(_ context.Context, u string, q url.Values) (*httpclient.Response, error) {
	r.verb, r.method, r.url, r.query = "GetJSON", http.MethodGet, u, q
	return r.reply(), nil
}

func (r *recordingDispatcher) Post(_ context.Context, u string, f url.Values) (*httpclient.Response, error) {
	r.verb, r.method, r.url, r.form = "Post", http.MethodPost, u, f
	return r.reply(), nil
}

func (r *recordingDispatcher) PostJSON(_ context.Context, u string, d any, q url.Values) (*httpclient.Response, error) {
	r.verb, r.method, r.url, r.data, r.query = "PostJSON", http.MethodPost, u, d, q
	return r.reply(), nil
}

func (r *recordingDispatcher) PostXML(_ context.Context, u string, d any, q url.Values) (*httpclient.Response, error) {
	r.verb, r.method, r.url, r.data, r.query = "PostXML", http.MethodPost, u, d, q
	return r.reply(), nil
}

func (r *recordingDispatcher) Put(_ context.Context, u string, f url.Values) (*httpclient.Response, error) {
	r.verb, r.method, r.url, r.form = "Put", http.MethodPut, u, f
	return r.reply(), nil
}

func (r *recordingDispatcher) PutJSON(_ context.Context, u string, d any, q url.Values) (*httpclient.Response, error) {
	r.verb, r.method, r.url, r.data, r.query = "PutJSON", http.MethodPut, u, d, q
	return r.reply(), nil
}

func (r *recordingDispatcher) Do(_ context.Context, m, u string, o httpclient.RequestOptions) (*httpclient.Response, error) {
	r.verb, r.method, r.url, r.opts = "Do", m, u, o
	return r.reply(), nil
}

func mustProfile(t *testing.T, p Profile) Profile {
	t.Helper()
	reg, err := NewRegistry([]Profile{p})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg.All()[0]
}

func TestDispatchRoutesToVerbs(t *testing.T) {
	cases := []struct {
		name    string
		profile Profile
		verb    string
	}{
		{"get", Profile{ID: "a", URL: "u", Query: map[string]string{"q": "1"}}, "Get"},
		{"get json", Profile{ID: "a", URL: "u", Expect: "json"}, "GetJSON"},
		{"post form", Profile{ID: "a", URL: "u", Method: "POST", Form: map[string]string{"k": "v"}}, "Post"},
		{"post json", Profile{ID: "a", URL: "u", Method: "POST", Body: map[string]any{"k": "v"}}, "PostJSON"},
		{"post xml", Profile{ID: "a", URL: "u", Method: "POST", BodyFormat: "xml", Body: map[string]any{"k": "v"}}, "PostXML"},
		{"put form", Profile{ID: "a", URL: "u", Method: "PUT", Form: map[string]string{"k": "v"}}, "Put"},
		{"put json", Profile{ID: "a", URL: "u", Method: "PUT", Body: []any{1}}, "PutJSON"},
		{"put xml", Profile{ID: "a", URL: "u", Method: "PUT", BodyFormat: "xml", Body: map[string]any{"k": "v"}}, "Do"},
		{"form with query", Profile{ID: "a", URL: "u", Method: "POST", Form: map[string]string{"k": "v"}, Query: map[string]string{"q": "1"}}, "Do"},
		{"headers", Profile{ID: "a", URL: "u", Headers: map[string]string{"X-Key": "1"}}, "Do"},
		{"raw", Profile{ID: "a", URL: "u", Method: "POST", BodyFormat: "raw", Body: "payload"}, "Do"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := &recordingDispatcher{}
			resp, err := mustProfile(t, tc.profile).Dispatch(context.Background(), d)
			if err != nil {
				t.Fatalf("Dispatch: %v", err)
			}
			if resp == nil {
				t.Fatalf("expected response")
			}
			if d.verb != tc.verb {
				t.Fatalf("routed to %s want %s", d.verb, tc.verb)
			}
		})
	}
}

func TestDispatchPutXMLCarriesBody(t *testing.T) {
	d := &recordingDispatcher{}
	p := mustProfile(t, Profile{ID: "sync", URL: "u", Method: "PUT", BodyFormat: "xml", Body: map[string]any{"a": "1"}})
	if _, err := p.Dispatch(context.Background(), d); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if d.verb != "Do" || d.method != http.MethodPut {
		t.Fatalf("routed to %s %s want Do PUT", d.verb, d.method)
	}
	body, ok := d.opts.Body.([]byte)
	if !ok || string(body) != "<xml><a>1</a></xml>" {
		t.Fatalf("unexpected body %#v", d.opts.Body)
	}
	if d.opts.ContentType != "text/xml; charset=utf-8" {
		t.Fatalf("unexpected content type %q", d.opts.ContentType)
	}
}

func TestRequestOptionsEncodesBodies(t *testing.T) {
	xmlProfile := mustProfile(t, Profile{ID: "x", URL: "u", Method: "PUT", BodyFormat: "xml", Body: map[string]any{"k": "v"}})
	opts, err := xmlProfile.RequestOptions()
	if err != nil {
		t.Fatalf("RequestOptions: %v", err)
	}
	if raw, ok := opts.Body.([]byte); !ok || string(raw) != "<xml><k>v</k></xml>" {
		t.Fatalf("unexpected xml body %#v", opts.Body)
	}

	raw := mustProfile(t, Profile{ID: "r", URL: "u", Method: "POST", BodyFormat: "raw", Body: "payload"})
	opts, _ = raw.RequestOptions()
	if b, ok := opts.Body.([]byte); !ok || string(b) != "payload" {
		t.Fatalf("unexpected raw body %#v", opts.Body)
	}
}

func TestRequestOptionsDoesNotMutateProfileHeaders(t *testing.T) {
	p := mustProfile(t, Profile{ID: "h", URL: "u", Expect: "json", Headers: map[string]string{"X-Key": "1"}})
	opts, err := p.RequestOptions()
	if err != nil {
		t.Fatalf("RequestOptions: %v", err)
	}
	if opts.Headers["Accept"] != "application/json" {
		t.Fatalf("expected Accept header, got %#v", opts.Headers)
	}
	if _, ok := p.Headers["Accept"]; ok {
		t.Fatalf("profile headers were mutated")
	}
}

func TestDispatchRejectsNilDispatcher(t *testing.T) {
	if _, err := (Profile{ID: "a"}).Dispatch(context.Background(), nil); err == nil {
		t.Fatalf("expected error")
	}
}
