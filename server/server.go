// Package server exposes the analyzer over HTTP and WebSocket.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/xhad/seogap/internal/models"
	"github.com/xhad/seogap/pkg/analyzer"
	"go.uber.org/zap"
)

const (
	DefaultAllowedOrigin  = "https://www.batuhandurmaz.com"
	DefaultRequestTimeout = 2 * time.Minute

	maxBodyBytes    = 1 << 20
	shutdownTimeout = 15 * time.Second
)

// Analyzer is the part of analyzer.Analyzer the server depends on.
type Analyzer interface {
	Analyze(ctx context.Context, req models.AnalysisRequest, progress analyzer.ProgressFunc) (*models.AnalysisResponse, error)
}

type Config struct {
	Port           int
	AllowedOrigin  string
	RequestTimeout time.Duration
	// RateLimit is requests per second per client; zero disables limiting.
	RateLimit float64
	RateBurst int
	Logger    *zap.Logger
}

type Server struct {
	config   Config
	analyzer Analyzer
	validate *validator.Validate
	limiter  *clientLimiter
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func New(config Config, a Analyzer) (*Server, error) {
	if a == nil {
		return nil, errors.New("server: analyzer is required")
	}
	if config.AllowedOrigin == "" {
		config.AllowedOrigin = DefaultAllowedOrigin
	}
	if config.RequestTimeout == 0 {
		config.RequestTimeout = DefaultRequestTimeout
	}
	if config.RateBurst <= 0 {
		config.RateBurst = 1
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	validate := validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	s := &Server{
		config:   config,
		analyzer: a,
		validate: validate,
		log:      config.Logger,
	}
	if config.RateLimit > 0 {
		s.limiter = newClientLimiter(config.RateLimit, config.RateBurst)
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	return s, nil
}

// Router builds the HTTP handler with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.Use(s.loggingMiddleware)
	r.Use(s.corsMiddleware)

	r.Handle("/api/seo-analyze", s.rateLimit(http.HandlerFunc(s.handleAnalyze))).Methods("POST", "OPTIONS")
	r.Handle("/ws/seo-analyze", s.rateLimit(http.HandlerFunc(s.handleWebSocket))).Methods("GET")
	r.HandleFunc("/health", s.handleHealth).Methods("GET")

	return r
}

// Start serves on all interfaces until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting server", zap.Int("port", s.config.Port), zap.String("allowed_origin", s.config.AllowedOrigin))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || s.config.AllowedOrigin == "*" || origin == s.config.AllowedOrigin
}
