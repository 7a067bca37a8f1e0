// Package server provides the HTTP API for Oshiete.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/hyperjump/oshiete/internal/chatbot"
	"github.com/hyperjump/oshiete/internal/config"
	"github.com/hyperjump/oshiete/internal/ingest"
	"github.com/hyperjump/oshiete/internal/storage"
	"github.com/hyperjump/oshiete/internal/vector"
)

// WatchService is the subset of the drop-directory watcher the API drives.
type WatchService interface {
	Directories() []string
	AddDirectory(path string, syncExisting bool) error
	RemoveDirectory(path string) error
}

// Server is the HTTP server for the Oshiete API.
type Server struct {
	bot      *chatbot.NewsChatbot
	ingestor *ingest.Ingestor
	storage  storage.ArticleStorage
	vectors  vector.Index
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server

	// answerCache holds ChatResults per normalized query; nil when disabled.
	answerCache *gocache.Cache

	watch        WatchService
	configPath   string
	configSaveMu sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithWatcher wires the drop-directory watcher so the API can list and change
// watched directories. configPath, when non-empty, is where directory changes
// are persisted.
func WithWatcher(w WatchService, configPath string) Option {
	return func(s *Server) {
		s.watch = w
		s.configPath = configPath
	}
}

// NewServer creates a server with the given dependencies. vectors may be nil
// when semantic search is disabled.
func NewServer(
	bot *chatbot.NewsChatbot,
	ingestor *ingest.Ingestor,
	store storage.ArticleStorage,
	vectors vector.Index,
	cfg *config.Config,
	logger *zap.Logger,
	opts ...Option,
) *Server {
	s := &Server{
		bot:      bot,
		ingestor: ingestor,
		storage:  store,
		vectors:  vectors,
		config:   cfg,
		logger:   logger,
	}
	if ttl := cfg.Server.AnswerCacheTTLSeconds; ttl > 0 {
		d := time.Duration(ttl) * time.Second
		s.answerCache = gocache.New(d, 2*d)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the routed HTTP handler. Split from Start so tests can drive
// it with httptest.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))
	r.Use(cors.New(cors.Options{
		AllowedOrigins: s.config.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler)

	r.Post("/api/v1/chat", s.handleChat)
	r.Post("/api/v1/articles", s.handleIngestArticle)
	r.Get("/api/v1/articles", s.handleListArticles)
	r.Get("/api/v1/articles/{id}", s.handleGetArticle)
	r.Delete("/api/v1/articles/{id}", s.handleDeleteArticle)
	r.Post("/api/v1/feeds/refresh", s.handleRefreshFeeds)
	r.Get("/api/v1/watch/directories", s.handleWatchDirectoriesList)
	r.Post("/api/v1/watch/directories", s.handleWatchDirectoriesAdd)
	r.Delete("/api/v1/watch/directories", s.handleWatchDirectoriesRemove)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
