package runner

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-httpkit/pkg/httpclient"
	"github.com/samvad-hq/samvad-httpkit/pkg/profiles"
	"github.com/samvad-hq/samvad-httpkit/pkg/publishers"
)

// fakePublisher records published events and can inject errors.
type fakePublisher struct {
	mu      sync.Mutex
	events  []publishers.Event
	errOnID string
}

func (f *fakePublisher) Publish(_ context.Context, evt publishers.Event) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	if evt.ProfileID == f.errOnID {
		return 0, errors.New("boom")
	}
	return 1, nil
}

// fakeLedger keeps digests in memory.
type fakeLedger struct {
	mu      sync.Mutex
	entries map[string]string
	failErr error
}

func (f *fakeLedger) Lookup(digest string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return "", false, f.failErr
	}
	name, ok := f.entries[digest]
	return name, ok, nil
}

func (f *fakeLedger) Record(digest, filename string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.entries == nil {
		f.entries = make(map[string]string)
	}
	f.entries[digest] = filename
	return nil
}

type fakeRecorder struct {
	saves     map[string]int
	published int
}

func (f *fakeRecorder) RecordSave(result string) {
	if f.saves == nil {
		f.saves = make(map[string]int)
	}
	f.saves[result]++
}

func (f *fakeRecorder) RecordPublished() { f.published++ }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><meta property="og:title" content=" Daily Report "><title>ignored</title></head><body>hi</body></html>`))
	})
	mux.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":7}`))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRunProfileSavesAndPublishes(t *testing.T) {
	srv := newTestServer(t)
	dir := t.TempDir()
	pub := &fakePublisher{}
	ledger := &fakeLedger{}
	rec := &fakeRecorder{}
	svc := NewService(httpclient.NewRestyClient(5*time.Second), ledger, pub, rec, nil)

	cfg := profiles.Profile{
		ID:     "page",
		Method: http.MethodGet,
		URL:    srv.URL + "/page",
		Save:   &profiles.SaveConfig{Dir: dir, Filename: "report"},
	}

	evt, err := svc.RunProfile(context.Background(), cfg)
	if err != nil {
		t.Fatalf("RunProfile: %v", err)
	}
	if evt.StatusCode != http.StatusOK || evt.Title != "Daily Report" {
		t.Fatalf("unexpected event %#v", evt)
	}
	if !strings.HasPrefix(evt.SavedFile, "report.") {
		t.Fatalf("expected sniffed suffix on saved file, got %q", evt.SavedFile)
	}
	if _, err := os.Stat(filepath.Join(dir, evt.SavedFile)); err != nil {
		t.Fatalf("saved file missing: %v", err)
	}
	if len(pub.events) != 1 || rec.published != 1 || rec.saves[saveWritten] != 1 {
		t.Fatalf("unexpected publish/save counts: events=%d published=%d saves=%v", len(pub.events), rec.published, rec.saves)
	}

	again, err := svc.RunProfile(context.Background(), cfg)
	if err != nil {
		t.Fatalf("second RunProfile: %v", err)
	}
	if again.SavedFile != evt.SavedFile || rec.saves[saveDuplicate] != 1 {
		t.Fatalf("expected duplicate save to reuse %q, got %q (saves=%v)", evt.SavedFile, again.SavedFile, rec.saves)
	}
}

func TestRunProfileKeepsExplicitFilenamesForSameContent(t *testing.T) {
	srv := newTestServer(t)
	dir := t.TempDir()
	rec := &fakeRecorder{}
	svc := NewService(httpclient.NewRestyClient(5*time.Second), &fakeLedger{}, nil, rec, nil)

	first, err := svc.RunProfile(context.Background(), profiles.Profile{
		ID:     "first",
		Method: http.MethodGet,
		URL:    srv.URL + "/page",
		Save:   &profiles.SaveConfig{Dir: dir, Filename: "first.html"},
	})
	if err != nil {
		t.Fatalf("first RunProfile: %v", err)
	}
	second, err := svc.RunProfile(context.Background(), profiles.Profile{
		ID:     "second",
		Method: http.MethodGet,
		URL:    srv.URL + "/page",
		Save:   &profiles.SaveConfig{Dir: dir, Filename: "second.html"},
	})
	if err != nil {
		t.Fatalf("second RunProfile: %v", err)
	}

	if first.SavedFile != "first.html" || second.SavedFile != "second.html" {
		t.Fatalf("saved files = %q, %q", first.SavedFile, second.SavedFile)
	}
	for _, name := range []string{"first.html", "second.html"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("%s missing: %v", name, err)
		}
	}
	if rec.saves[saveWritten] != 2 || rec.saves[saveDuplicate] != 0 {
		t.Fatalf("unexpected save counts %v", rec.saves)
	}
}

func TestRunProfileSkipsSaveOnErrorStatus(t *testing.T) {
	srv := newTestServer(t)
	dir := t.TempDir()
	rec := &fakeRecorder{}
	svc := NewService(httpclient.NewRestyClient(5*time.Second), nil, nil, rec, nil)

	evt, err := svc.RunProfile(context.Background(), profiles.Profile{
		ID:     "missing",
		Method: http.MethodGet,
		URL:    srv.URL + "/missing",
		Save:   &profiles.SaveConfig{Dir: dir},
	})
	if err != nil {
		t.Fatalf("RunProfile: %v", err)
	}
	if evt.StatusCode != http.StatusNotFound || evt.SavedFile != "" {
		t.Fatalf("unexpected event %#v", evt)
	}
	if rec.saves[saveSkipped] != 1 {
		t.Fatalf("expected skipped save, got %v", rec.saves)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected no files written, found %d", len(entries))
	}
}

func TestRunProfileReportsRejectedJSONBody(t *testing.T) {
	srv := newTestServer(t)
	svc := NewService(httpclient.NewRestyClient(5*time.Second), nil, nil, nil, nil)

	evt, err := svc.RunProfile(context.Background(), profiles.Profile{
		ID:         "orders",
		Method:     http.MethodPost,
		URL:        srv.URL + "/orders",
		BodyFormat: profiles.BodyJSON,
		Body:       map[string]any{"sku": "a-1"},
		Save:       &profiles.SaveConfig{Dir: t.TempDir()},
	})
	if !errors.Is(err, httpclient.ErrInvalidContent) {
		t.Fatalf("expected ErrInvalidContent, got %v", err)
	}
	if evt.StatusCode != http.StatusCreated || evt.Format != "json" {
		t.Fatalf("event should still describe the response, got %#v", evt)
	}
}

func TestRunAggregatesProfileFailures(t *testing.T) {
	srv := newTestServer(t)
	pub := &fakePublisher{errOnID: "page"}
	svc := NewService(httpclient.NewRestyClient(5*time.Second), nil, pub, nil, nil)

	err := svc.Run(context.Background(), []profiles.Profile{
		{ID: "page", Method: http.MethodGet, URL: srv.URL + "/page"},
		{ID: "down", Method: http.MethodGet, URL: "http://127.0.0.1:1/nothing"},
		{ID: "missing", Method: http.MethodGet, URL: srv.URL + "/missing"},
	})
	if err == nil {
		t.Fatalf("expected aggregated error")
	}
	var transportErr *httpclient.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected a transport error in %v", err)
	}
	if !strings.Contains(err.Error(), "publish profile page") {
		t.Fatalf("expected publish failure in %v", err)
	}
	if len(pub.events) != 2 {
		t.Fatalf("expected events for reachable profiles, got %d", len(pub.events))
	}
}

func TestRunRequiresProfiles(t *testing.T) {
	svc := NewService(httpclient.NewRestyClient(time.Second), nil, nil, nil, nil)
	if err := svc.Run(context.Background(), nil); err == nil {
		t.Fatalf("expected error for empty profile list")
	}

	var nilSvc *Service
	if err := nilSvc.Run(context.Background(), []profiles.Profile{{ID: "x"}}); err == nil {
		t.Fatalf("expected error for nil service")
	}
}

func TestLedgerLookupFailureFallsBackToSave(t *testing.T) {
	srv := newTestServer(t)
	dir := t.TempDir()
	svc := NewService(httpclient.NewRestyClient(5*time.Second), &fakeLedger{failErr: errors.New("disk")}, nil, nil, nil)

	evt, err := svc.RunProfile(context.Background(), profiles.Profile{
		ID:     "page",
		Method: http.MethodGet,
		URL:    srv.URL + "/page",
		Save:   &profiles.SaveConfig{Dir: dir, Filename: "page.html"},
	})
	if err != nil {
		t.Fatalf("RunProfile: %v", err)
	}
	if evt.SavedFile != "page.html" {
		t.Fatalf("expected explicit filename, got %q", evt.SavedFile)
	}
}
