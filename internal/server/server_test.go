package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/smileynet/badger/internal/badge"
	"github.com/smileynet/badger/internal/metrics"
)

// fakeGenerator records requests and returns canned output.
type fakeGenerator struct {
	mu   sync.Mutex
	reqs []badge.Request
	out  string
	err  error
}

func (f *fakeGenerator) Generate(_ context.Context, req badge.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return f.out, f.err
}

func (f *fakeGenerator) last(t *testing.T) badge.Request {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.reqs) == 0 {
		t.Fatal("generator was not called")
	}
	return f.reqs[len(f.reqs)-1]
}

func TestBadge_GetQuery(t *testing.T) {
	// Given: a server over a generator that returns markup
	gen := &fakeGenerator{out: "<svg/>"}
	h := New(gen).Handler()

	// When: a badge is requested by query
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/badge?label=build&value=passing&color=green&style=flat&logo=check&logoColor=%23000&logoWidth=20&link=a&link=b", nil))

	// Then: the query maps onto the request and the body is SVG
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %q", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != ContentTypeSVG {
		t.Errorf("Content-Type = %q, want %q", ct, ContentTypeSVG)
	}
	if rec.Body.String() != "<svg/>" {
		t.Errorf("body = %q, want %q", rec.Body.String(), "<svg/>")
	}

	req := gen.last(t)
	if req.Text[0] != "build" || req.Text[1] != "passing" {
		t.Errorf("text = %v, want [build passing]", req.Text)
	}
	if req.Colorscheme != "green" || req.Template != "flat" || req.Logo != "check" || req.LogoColor != "#000" {
		t.Errorf("request = %+v", req)
	}
	if req.LogoWidth != 20 {
		t.Errorf("logoWidth = %d, want 20", req.LogoWidth)
	}
	if len(req.Links) != 2 || req.Links[0] != "a" || req.Links[1] != "b" {
		t.Errorf("links = %v, want [a b]", req.Links)
	}
}

func TestBadge_JSONContentType(t *testing.T) {
	gen := &fakeGenerator{out: `{"name":"a","value":"b"}`}
	h := New(gen).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/badge?label=a&value=b&format=json", nil))

	if ct := rec.Header().Get("Content-Type"); ct != ContentTypeJSON {
		t.Errorf("Content-Type = %q, want %q", ct, ContentTypeJSON)
	}
}

func TestBadge_Post(t *testing.T) {
	gen := &fakeGenerator{out: "<svg/>"}
	h := New(gen).Handler()

	body := `{"text":["coverage",97],"colorscheme":"yellow","template":"flat-square"}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/badge", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %q", rec.Code, rec.Body.String())
	}
	req := gen.last(t)
	if req.Text[0] != "coverage" || req.Text[1] != float64(97) {
		t.Errorf("text = %#v", req.Text)
	}
	if req.Colorscheme != "yellow" || req.Template != "flat-square" {
		t.Errorf("request = %+v", req)
	}
}

func TestBadge_BadRequests(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		body   string
		genErr error
		want   int
	}{
		{name: "bad logoWidth", method: http.MethodGet, target: "/badge?label=a&value=b&logoWidth=wide", want: http.StatusBadRequest},
		{name: "malformed body", method: http.MethodPost, target: "/badge", body: "{", want: http.StatusBadRequest},
		{name: "unknown field", method: http.MethodPost, target: "/badge", body: `{"text":["a","b"],"colour":"red"}`, want: http.StatusBadRequest},
		{name: "validation error", method: http.MethodGet, target: "/badge", genErr: &badge.ValidationError{Field: "text", Reason: "bad"}, want: http.StatusBadRequest},
		{name: "render error", method: http.MethodGet, target: "/badge", genErr: fmt.Errorf("boom"), want: http.StatusInternalServerError},
		{name: "method", method: http.MethodDelete, target: "/badge", want: http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{err: tt.genErr}
			h := New(gen).Handler()

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body)))

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d; body %q", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestBadge_InternalErrorHidesDetail(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("template secret")}
	h := New(gen).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/badge?label=a&value=b", nil))

	if strings.Contains(rec.Body.String(), "secret") {
		t.Errorf("body %q should not expose the internal error", rec.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	h := New(&fakeGenerator{}).Handler()

	for method, want := range map[string]int{
		http.MethodGet:  http.StatusOK,
		http.MethodHead: http.StatusOK,
		http.MethodPost: http.StatusMethodNotAllowed,
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(method, "/healthz", nil))
		if rec.Code != want {
			t.Errorf("%s /healthz = %d, want %d", method, rec.Code, want)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	// Given: metrics registered on a private registry
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.Render(badge.FormatSVG, true, time.Millisecond)
	h := New(&fakeGenerator{}, WithGatherer(reg)).Handler()

	// When: the metrics endpoint is scraped
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	// Then: the badger series are exposed
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "badger_renders_total") {
		t.Errorf("metrics body missing badger_renders_total:\n%s", rec.Body.String())
	}
}

func TestMetricsEndpoint_Disabled(t *testing.T) {
	h := New(&fakeGenerator{}).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 without a gatherer", rec.Code)
	}
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	// Given: a server on an ephemeral port
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := New(&fakeGenerator{out: "<svg/>"})
	errc := make(chan error, 1)
	go func() { errc <- s.Serve(ctx, ln) }()

	// When: a request is served and the context is canceled
	resp, err := http.Get("http://" + ln.Addr().String() + "/badge?label=a&value=b")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	cancel()

	// Then: the response was served and Serve returns cleanly
	if string(body) != "<svg/>" {
		t.Errorf("body = %q, want %q", body, "<svg/>")
	}
	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}
