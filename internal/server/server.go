package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/example/go-wordchipper/internal/batch"
	"github.com/example/go-wordchipper/internal/config"
	"github.com/example/go-wordchipper/internal/encoder"
	"github.com/example/go-wordchipper/internal/spanner"
)

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}

// Tokenizer is the encode surface the handler depends on.
type Tokenizer interface {
	Encode(text string) ([]int, error)
}

// Detokenizer is the decode surface the handler depends on.
type Detokenizer interface {
	DecodeString(ids []int) (string, error)
}

// VocabInfo describes the loaded vocabulary for GET /vocab.
type VocabInfo struct {
	Encoding string   `json:"encoding"`
	Tokens   int      `json:"tokens"`
	Merges   int      `json:"merges"`
	Specials []string `json:"specials"`
}

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	maxBodyBytes   int64
	workers        int
	requestTimeout time.Duration
	logger         *slog.Logger
}

func defaultOptions() options {
	return options{
		maxBodyBytes:   1 << 20,
		workers:        0,
		requestTimeout: 30 * time.Second,
		logger:         slog.Default(),
	}
}

// Option configures the HTTP handler.
type Option func(*options)

// WithMaxBodyBytes sets the maximum allowed request body size.
func WithMaxBodyBytes(n int64) Option {
	return func(o *options) { o.maxBodyBytes = n }
}

// WithWorkers caps concurrent encode requests. Zero disables throttling.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithRequestTimeout sets the per-request encode deadline.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

// WithLogger sets the slog.Logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// ---------------------------------------------------------------------------
// handler
// ---------------------------------------------------------------------------

// handler holds the dependencies needed to serve HTTP requests.
type handler struct {
	enc  Tokenizer
	dec  Detokenizer
	driv *batch.Driver
	info VocabInfo
	opts options
	sem  chan struct{} // semaphore for encode throttling
	log  *slog.Logger
}

// NewHandler returns an http.Handler serving /health, /vocab,
// POST /encode and POST /decode.
func NewHandler(enc Tokenizer, dec Detokenizer, driv *batch.Driver, info VocabInfo, optFns ...Option) http.Handler {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	h := &handler{
		enc:  enc,
		dec:  dec,
		driv: driv,
		info: info,
		opts: opts,
		log:  opts.logger,
	}
	if opts.workers > 0 {
		h.sem = make(chan struct{}, opts.workers)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/vocab", h.handleVocab)
	mux.HandleFunc("/encode", h.handleEncode)
	mux.HandleFunc("/decode", h.handleDecode)
	return mux
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildVersion(),
	})
}

func (h *handler) handleVocab(w http.ResponseWriter, _ *http.Request) {
	info := h.info
	if info.Specials == nil {
		info.Specials = []string{}
	}
	writeJSON(w, http.StatusOK, info)
}

type encodeRequest struct {
	Text  string   `json:"text"`
	Texts []string `json:"texts"`
}

type encodeResponse struct {
	Tokens []int `json:"tokens"`
	Count  int   `json:"count"`
}

type batchItem struct {
	Tokens []int  `json:"tokens,omitempty"`
	Error  string `json:"error,omitempty"`
}

type batchResponse struct {
	Results []batchItem `json:"results"`
}

func (h *handler) handleEncode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req encodeRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if req.Text == "" && req.Texts == nil {
		writeError(w, http.StatusBadRequest, "text or texts field is required")
		return
	}
	if req.Text != "" && req.Texts != nil {
		writeError(w, http.StatusBadRequest, "text and texts are mutually exclusive")
		return
	}

	// Acquire a worker slot, honouring cancellation while waiting.
	if h.sem != nil {
		select {
		case h.sem <- struct{}{}:
		case <-r.Context().Done():
			writeError(w, http.StatusServiceUnavailable, "request cancelled while waiting for worker")
			return
		}
		defer func() { <-h.sem }()
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.requestTimeout)
	defer cancel()

	start := time.Now()

	if req.Texts != nil {
		results := h.driv.Encode(ctx, req.Texts)
		resp := batchResponse{Results: make([]batchItem, len(results))}
		for i, res := range results {
			if res.Err != nil {
				resp.Results[i] = batchItem{Error: res.Err.Error()}
				continue
			}
			toks := res.Tokens
			if toks == nil {
				toks = []int{}
			}
			resp.Results[i] = batchItem{Tokens: toks}
		}
		h.log.InfoContext(r.Context(), "batch encode complete",
			slog.Int("items", len(req.Texts)),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		writeJSON(w, http.StatusOK, resp)
		return
	}

	ids, err := h.enc.Encode(req.Text)
	durationMS := time.Since(start).Milliseconds()

	if err != nil {
		var serr *spanner.SpanError
		if errors.As(err, &serr) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.log.ErrorContext(r.Context(), "encode failed",
			slog.Int("text_len", len(req.Text)),
			slog.Int64("duration_ms", durationMS),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.log.InfoContext(r.Context(), "encode complete",
		slog.Int("text_len", len(req.Text)),
		slog.Int("tokens", len(ids)),
		slog.Int64("duration_ms", durationMS),
	)

	if ids == nil {
		ids = []int{}
	}
	writeJSON(w, http.StatusOK, encodeResponse{Tokens: ids, Count: len(ids)})
}

type decodeRequest struct {
	Tokens []int `json:"tokens"`
}

type decodeResponse struct {
	Text string `json:"text"`
}

func (h *handler) handleDecode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req decodeRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if req.Tokens == nil {
		writeError(w, http.StatusBadRequest, "tokens field is required")
		return
	}

	text, err := h.dec.DecodeString(req.Tokens)
	if err != nil {
		var uerr *encoder.UnknownTokenError
		if errors.As(err, &uerr) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, decodeResponse{Text: text})
}

func (h *handler) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil {
		writeError(w, http.StatusBadRequest, "request body is required")
		return false
	}
	body := http.MaxBytesReader(w, r.Body, h.opts.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("body exceeds maximum size of %d bytes", h.opts.maxBodyBytes))
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ---------------------------------------------------------------------------
// Server — wires handler into net/http.Server with graceful shutdown
// ---------------------------------------------------------------------------

// Server wires the HTTP handler into a net/http.Server with graceful shutdown.
type Server struct {
	cfg             config.Config
	enc             *encoder.Encoder
	info            VocabInfo
	shutdownTimeout time.Duration
}

func New(cfg config.Config, enc *encoder.Encoder, info VocabInfo) *Server {
	return &Server{
		cfg:             cfg,
		enc:             enc,
		info:            info,
		shutdownTimeout: 30 * time.Second,
	}
}

// WithShutdownTimeout overrides the graceful-shutdown drain period.
func (s *Server) WithShutdownTimeout(d time.Duration) *Server {
	s.shutdownTimeout = d
	return s
}

func (s *Server) Start(ctx context.Context) error {
	driv := batch.New(s.enc, s.cfg.Tokenizer.Workers)
	dec := encoder.NewDecoder(s.enc.Vocab())

	handlerOpts := []Option{
		WithWorkers(s.cfg.Server.Concurrency),
		WithMaxBodyBytes(int64(s.cfg.Server.MaxBodyKB) * 1024),
	}

	h := NewHandler(s.enc, dec, driv, s.info, handlerOpts...)

	httpServer := &http.Server{
		Addr:              s.cfg.Server.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return fmt.Errorf("http listen: %w", err)
	}
}

func ProbeHTTP(addr string) error {
	resp, err := http.Get("http://" + addr + "/health") //nolint:noctx
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected health status: %s", resp.Status)
	}
	return nil
}
