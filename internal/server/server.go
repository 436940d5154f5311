// Package server exposes the badge generator over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smileynet/badger/internal/badge"
)

// maxBodyBytes bounds POST /badge request bodies.
const maxBodyBytes = 64 << 10

// shutdownTimeout bounds the graceful shutdown after the serve context ends.
const shutdownTimeout = 5 * time.Second

// Content types by output format.
const (
	ContentTypeSVG  = "image/svg+xml"
	ContentTypeJSON = "application/json"
)

// Generator renders badge requests.
type Generator interface {
	Generate(ctx context.Context, req badge.Request) (string, error)
}

// Server serves badges, health checks and metrics.
type Server struct {
	gen         Generator
	gatherer    prometheus.Gatherer
	logger      *slog.Logger
	readTimeout time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithGatherer exposes the metrics of g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithReadTimeout bounds reading a whole request.
func WithReadTimeout(d time.Duration) Option {
	return func(s *Server) { s.readTimeout = d }
}

// New creates a Server around gen.
func New(gen Generator, opts ...Option) *Server {
	s := &Server{
		gen:         gen,
		logger:      slog.New(slog.DiscardHandler),
		readTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	m := http.NewServeMux()
	m.HandleFunc("/badge", s.badge)
	m.HandleFunc("/healthz", s.healthz)
	if s.gatherer != nil {
		m.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return m
}

// ListenAndServe listens on addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.readTimeout,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	done := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		done <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("serving badges", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: serving: %w", err)
	}
	if err := <-done; err != nil {
		return fmt.Errorf("server: shutting down: %w", err)
	}
	return nil
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	w.WriteHeader(http.StatusMethodNotAllowed)
}

func (s *Server) badge(w http.ResponseWriter, r *http.Request) {
	var (
		req badge.Request
		err error
	)
	switch r.Method {
	case http.MethodGet:
		req, err = fromQuery(r)
	case http.MethodPost:
		req, err = fromBody(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err != nil {
		s.logger.Debug("bad badge request", "error", err)
		http.Error(w, "error: "+err.Error(), http.StatusBadRequest)
		return
	}

	out, err := s.gen.Generate(r.Context(), req)
	if err != nil {
		var verr *badge.ValidationError
		if errors.As(err, &verr) {
			s.logger.Debug("invalid badge request", "error", err)
			http.Error(w, "error: "+err.Error(), http.StatusBadRequest)
			return
		}
		s.logger.Error("badge generation failed", "error", err)
		http.Error(w, "error: badge generation failed", http.StatusInternalServerError)
		return
	}

	contentType := ContentTypeSVG
	if req.Format == badge.FormatJSON {
		contentType = ContentTypeJSON
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := w.Write([]byte(out)); err != nil {
		s.logger.Debug("writing badge response", "error", err)
	}
}

// fromQuery builds a request from GET parameters. Label and value are always
// present in the request, possibly empty.
func fromQuery(r *http.Request) (badge.Request, error) {
	q := r.URL.Query()
	req := badge.Request{
		Text:        []any{q.Get("label"), q.Get("value")},
		Colorscheme: q.Get("color"),
		ColorA:      q.Get("colorA"),
		ColorB:      q.Get("colorB"),
		Logo:        q.Get("logo"),
		LogoColor:   q.Get("logoColor"),
		Template:    q.Get("style"),
		Format:      q.Get("format"),
		Links:       q["link"],
	}
	if v := q.Get("logoWidth"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return badge.Request{}, fmt.Errorf("invalid logoWidth %q", v)
		}
		req.LogoWidth = n
	}
	return req, nil
}

func fromBody(w http.ResponseWriter, r *http.Request) (badge.Request, error) {
	var req badge.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return badge.Request{}, fmt.Errorf("decoding request body: %w", err)
	}
	return req, nil
}
