// Package server exposes import, export and validation over HTTP.
//
// Routes:
//
//	POST /import     body: token document   → materialize result
//	GET  /export                            → token document
//	POST /validate   body: token document   → validation report
//	GET  /healthz                           → status and version
//
// JSON responses share one envelope ([Response]). Requests that touch the
// store are serialized because a store conversion is not safe to run
// concurrently with another one against the same store.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/tokensync/pkg/buildinfo"
	"github.com/matzehuels/tokensync/pkg/document"
	"github.com/matzehuels/tokensync/pkg/errors"
	"github.com/matzehuels/tokensync/pkg/pipeline"
	"github.com/matzehuels/tokensync/pkg/store"
)

// DefaultMaxBodyBytes limits request documents.
const DefaultMaxBodyBytes = 16 << 20

// Options configures a Server.
type Options struct {
	Read         document.ReadOptions
	Write        document.WriteOptions
	MaxBodyBytes int64
	Logger       *log.Logger
}

// Server serves one store.
type Server struct {
	runner *pipeline.Runner
	store  store.Store
	opts   Options
	log    *log.Logger

	// mu serializes conversions against store.
	mu sync.Mutex
}

// New creates a server for s.
func New(runner *pipeline.Runner, s store.Store, opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.Logger == nil {
		opts.Logger = runner.Logger
	}
	return &Server{runner: runner, store: s, opts: opts, log: opts.Logger}
}

// Response is the JSON envelope of every non-document response.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

// Error describes a failed request.
type Error struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// Handler returns the HTTP handler with all routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Post("/import", s.handleImport)
	r.Get("/export", s.handleExport)
	r.Post("/validate", s.handleValidate)
	return r
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"request_id", middleware.GetReqID(r.Context()),
			"duration", time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)

	s.mu.Lock()
	res, err := s.runner.Import(r.Context(), body, s.store, pipeline.ImportOptions{Read: s.opts.Read})
	s.mu.Unlock()

	if err != nil && res == nil {
		respondErr(w, err)
		return
	}
	if err != nil {
		// Stalled aliases leave a partial import worth reporting.
		respondWith(w, statusFor(err), Response{Success: false, Data: res, Error: errorFor(err)})
		return
	}
	respond(w, http.StatusOK, res)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	s.mu.Lock()
	res, err := s.runner.Export(r.Context(), s.store, &buf, pipeline.ExportOptions{Write: s.opts.Write})
	s.mu.Unlock()
	if err != nil {
		respondErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Tokensync-Tokens", strconv.Itoa(res.Stats.Tokens))
	w.Header().Set("X-Tokensync-Diagnostics", strconv.Itoa(len(res.Diagnostics)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	rep, err := s.runner.Validate(r.Context(), body, s.opts.Read)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, rep)
}

// statusFor maps an error to an HTTP status.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeMalformedDocument, errors.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case errors.ErrCodeAliasStalled:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func errorFor(err error) *Error {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	return &Error{Code: code, Message: errors.UserMessage(err)}
}

func respond(w http.ResponseWriter, status int, data any) {
	respondWith(w, status, Response{Success: true, Data: data})
}

func respondErr(w http.ResponseWriter, err error) {
	respondWith(w, statusFor(err), Response{Success: false, Error: errorFor(err)})
}

func respondWith(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
