package frontend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/mikey/email-vetter/internal/core"
	"github.com/mikey/email-vetter/internal/ports"
	"github.com/mikey/email-vetter/internal/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// BodyGuard selects how a request without a usable emails array is answered
type BodyGuard string

const (
	// BodyGuardStrict answers 400 with an error message
	BodyGuardStrict BodyGuard = "strict"
	// BodyGuardLenient answers 200 with an unsuccessful empty result set
	BodyGuardLenient BodyGuard = "lenient"
)

// ParseBodyGuard converts a configuration string into a BodyGuard
func ParseBodyGuard(s string) (BodyGuard, error) {
	switch BodyGuard(s) {
	case BodyGuardStrict, "":
		return BodyGuardStrict, nil
	case BodyGuardLenient:
		return BodyGuardLenient, nil
	default:
		return "", fmt.Errorf("unsupported body guard: %q", s)
	}
}

const defaultMaxBodyBytes = 1 << 20

// HTTPOptions configures the HTTP frontend
type HTTPOptions struct {
	ListenAddress  string
	BodyGuard      BodyGuard
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxBodyBytes   int64
}

type validateRequest struct {
	Emails json.RawMessage `json:"emails"`
}

type validateResponse struct {
	Success bool           `json:"success"`
	Results []core.Verdict `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status string `json:"status"`
	Mode   string `json:"mode"`
}

// HTTPFrontend serves the validation API over HTTP
type HTTPFrontend struct {
	runner   ports.BatchClassifier
	logger   *zap.Logger
	text     *utils.TextProcessor
	opts     HTTPOptions
	cors     *CORSMiddleware
	server   *http.Server
	done     chan struct{}
	doneOnce sync.Once
}

// NewHTTPFrontend creates a new HTTP frontend
func NewHTTPFrontend(runner ports.BatchClassifier, logger *zap.Logger, text *utils.TextProcessor, opts HTTPOptions) *HTTPFrontend {
	if logger == nil {
		logger = zap.NewNop()
	}
	if text == nil {
		text = utils.NewTextProcessor(logger, 0)
	}
	if opts.BodyGuard == "" {
		opts.BodyGuard = BodyGuardStrict
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &HTTPFrontend{
		runner: runner,
		logger: logger,
		text:   text,
		opts:   opts,
		cors:   NewCORSMiddleware(opts.AllowedOrigins),
		done:   make(chan struct{}),
	}
}

// Handler builds the router for the frontend
func (f *HTTPFrontend) Handler() http.Handler {
	r := mux.NewRouter()

	// CORS first so that error responses still carry the headers
	r.Use(f.cors.Handler)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(f.logger))
	r.Use(recoverMiddleware(f.logger))

	r.HandleFunc("/api/validate", f.handleValidate)
	r.HandleFunc("/healthz", f.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}

// Start starts listening and serves requests in the background
func (f *HTTPFrontend) Start() error {
	ln, err := net.Listen("tcp", f.opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", f.opts.ListenAddress, err)
	}

	f.server = &http.Server{
		Handler:      f.Handler(),
		ReadTimeout:  f.opts.ReadTimeout,
		WriteTimeout: f.opts.WriteTimeout,
	}

	f.logger.Info("HTTP frontend starting",
		zap.String("address", ln.Addr().String()),
		zap.String("mode", string(f.runner.Mode())),
		zap.String("body_guard", string(f.opts.BodyGuard)))

	go func() {
		defer f.markDone()
		if err := f.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			f.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts the server down
func (f *HTTPFrontend) Stop() error {
	if f.server == nil {
		f.markDone()
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return f.server.Shutdown(ctx)
}

// Done is closed once the server stops serving
func (f *HTTPFrontend) Done() <-chan struct{} {
	return f.done
}

func (f *HTTPFrontend) markDone() {
	f.doneOnce.Do(func() { close(f.done) })
}

// ProcessBatch classifies addresses with the runner's default limit
func (f *HTTPFrontend) ProcessBatch(ctx context.Context, emails []string) []core.Verdict {
	return f.runner.ClassifyBatch(ctx, emails, 0)
}

func (f *HTTPFrontend) handleValidate(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		writeJSON(w, http.StatusOK, struct{}{})
		return
	case http.MethodPost:
	default:
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
		return
	}

	emails, err := f.decodeEmails(w, r)
	if err != nil {
		f.logger.Debug("Rejected request body",
			zap.String("request_id", RequestIDFromContext(r.Context())),
			zap.Error(err))

		if f.opts.BodyGuard == BodyGuardLenient {
			writeJSON(w, http.StatusOK, validateResponse{Success: false, Results: []core.Verdict{}})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid emails array"})
		return
	}

	verdicts := f.ProcessBatch(r.Context(), emails)

	f.logger.Debug("Validated batch",
		zap.String("request_id", RequestIDFromContext(r.Context())),
		zap.Int("received", len(emails)),
		zap.Int("returned", len(verdicts)))

	writeJSON(w, http.StatusOK, validateResponse{Success: true, Results: verdicts})
}

func (f *HTTPFrontend) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Mode: string(f.runner.Mode())})
}

// decodeEmails extracts the emails array. Entries that are not JSON strings
// become empty strings so that they classify as invalid input.
func (f *HTTPFrontend) decodeEmails(w http.ResponseWriter, r *http.Request) ([]string, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, f.opts.MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	var req validateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("failed to decode body: %w", err)
	}

	raw := bytes.TrimSpace(req.Emails)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, fmt.Errorf("%w: emails is missing or not an array", core.ErrInvalidInput)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("failed to decode emails: %w", err)
	}

	emails := make([]string, len(items))
	for i, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			f.logger.Debug("Ignoring non-string entry",
				zap.Int("index", i),
				zap.String("value", f.text.Preview(string(item))))
			continue
		}
		emails[i] = s
	}

	return emails, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
