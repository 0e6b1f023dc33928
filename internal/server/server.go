package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fileshare/internal/db"
	"fileshare/internal/storage"
)

// FileStore persists upload metadata.
type FileStore interface {
	Create(ctx context.Context, f *db.File) error
	Ping(ctx context.Context) error
}

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version string
	Commit  string
}

type Config struct {
	Addr           string // e.g. "0.0.0.0:80"
	BaseURL        string // public prefix for record URLs, no trailing slash
	MaxUploadBytes int64  // 0 means unlimited
	TrustProxy     bool   // take the client IP from X-Forwarded-For / X-Real-IP
	Build          BuildInfo
	Logger         *slog.Logger
	Files          FileStore
	Disk           *storage.Disk
}

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &http.Server{
		Addr:              cfg.Addr,
		Handler:           cfg.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Server{httpServer: s, logger: cfg.Logger}
}

// Routes builds the router with every endpoint and middleware.
func (cfg Config) Routes() http.Handler {
	notFound := cfg.notFoundHandler()

	r := chi.NewRouter()

	// requestID -> realIP -> logging -> metrics -> recover -> headers -> routes
	r.Use(middleware.RequestID)
	r.Use(requestIDHeader)
	if cfg.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(loggingMiddleware(cfg.Logger))
	r.Use(metricsMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(securityHeadersMiddleware)
	r.Use(middleware.GetHead)

	r.Get("/", cfg.docsHandler())
	r.Method(http.MethodPost, "/upload", cfg.uploadHandler(cfg.Files, cfg.Disk))
	r.Method(http.MethodGet, "/files/{name}", cfg.filesHandler(cfg.Disk, notFound))

	r.Get("/health", cfg.HandleLive)
	r.Get("/ready", cfg.HandleReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Unknown paths and known paths with the wrong method both get the 404 page.
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	return r
}

// Start binds the listen address and serves until Shutdown. Bind errors
// are returned immediately.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	s.logger.Info("listening", slog.String("addr", ln.Addr().String()))
	return s.httpServer.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
