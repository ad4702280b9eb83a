// Package api serves the replay toolkit over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/go-hclog"

	"github.com/MJE43/jstris-replay-go/internal/analysis"
	"github.com/MJE43/jstris-replay-go/internal/replay"
	"github.com/MJE43/jstris-replay-go/internal/scan"
	"github.com/MJE43/jstris-replay-go/internal/store"
)

// Config wires a Server. DB may be nil, in which case the /replays
// collection answers 503.
type Config struct {
	DB       store.DB
	Codec    replay.Codec
	Analysis analysis.Options
	Logger   hclog.Logger

	// ScanTimeout applies to scans that do not set timeout_ms.
	ScanTimeout time.Duration
	// MaxHits caps the hit limit of a scan. Zero leaves it uncapped.
	MaxHits int
}

// Server handles HTTP requests
type Server struct {
	db           store.DB
	scanner      *scan.Scanner
	codec        replay.Codec
	analysis     analysis.Options
	scanTimeout  time.Duration
	maxHits      int
	errorHandler *ErrorHandler
	logger       hclog.Logger
	startTime    time.Time
	httpServer   *http.Server
}

// NewServer creates a new API server
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	logger = logger.Named("api")

	if cfg.Codec.Policy == (replay.VersionPolicy{}) {
		cfg.Codec = replay.DefaultCodec
	}

	s := &Server{
		db:           cfg.DB,
		scanner:      scan.NewScanner(logger),
		codec:        cfg.Codec,
		analysis:     cfg.Analysis,
		scanTimeout:  cfg.ScanTimeout,
		maxHits:      cfg.MaxHits,
		errorHandler: NewErrorHandler(logger),
		logger:       logger,
		startTime:    time.Now(),
	}

	logger.Info("server initialized", "database_enabled", s.db != nil, "version_policy", s.codec.Policy.String())
	return s
}

// Routes sets up the HTTP routes with proper middleware
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.LoggingMiddleware)
	r.Use(s.errorHandler.RecoveryHandler)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.CORSMiddleware)

	r.Get("/health", s.handleHealthCheck)
	r.Get("/health/ready", s.handleReadiness)
	r.Get("/health/live", s.handleLiveness)
	r.Get("/version", s.handleVersion)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/pieces", s.handlePieces)
		r.Post("/scan", s.handleScan)

		r.Route("/replays", func(r chi.Router) {
			r.Post("/decode", s.handleDecode)
			r.Post("/encode", s.handleEncode)
			r.Get("/", s.handleListReplays)
			r.Post("/", s.handleSaveReplay)
			r.Get("/{id}", s.handleGetReplay)
			r.Delete("/{id}", s.handleDeleteReplay)
		})
	})

	return r
}

// Start listens on addr and serves in a goroutine. It returns once the
// socket is bound.
func (s *Server) Start(addr string) (net.Addr, error) {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          s.logger.StandardLogger(&hclog.StandardLoggerOptions{InferLevels: true}),
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("server stopped", "error", err)
		}
	}()
	s.logger.Info("listening", "addr", ln.Addr().String())
	return ln.Addr(), nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// writeJSON writes a JSON response with proper headers
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode response", "error", err)
	}
}
