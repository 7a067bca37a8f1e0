package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/oshiete/internal/config"
	"github.com/hyperjump/oshiete/internal/models"
	"github.com/hyperjump/oshiete/internal/storage"
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var query models.ChatQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := query.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	cacheKey := strings.ToLower(query.Query)
	if s.answerCache != nil {
		if cached, ok := s.answerCache.Get(cacheKey); ok {
			s.logger.Debug("chat cache hit", zap.String("query", query.Query))
			s.respondJSON(w, http.StatusOK, cached)
			return
		}
	}

	result, err := s.bot.ProcessQuery(r.Context(), query.Query)
	if err != nil {
		s.logger.Error("chat pipeline failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, "could not answer the query")
		return
	}
	if s.answerCache != nil {
		s.answerCache.SetDefault(cacheKey, result)
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleIngestArticle(w http.ResponseWriter, r *http.Request) {
	var input models.ArticleInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	article, err := s.ingestor.IngestArticle(r.Context(), &input)
	if err != nil {
		s.logger.Error("ingestion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"id": article.ID, "status": "ingested"})
}

func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", 20)
	if limit > 100 {
		limit = 100
	}
	articles, err := s.storage.ListArticles(r.Context(), offset, limit)
	if err != nil {
		s.logger.Error("list articles failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"articles": articles,
		"offset":   offset,
		"limit":    limit,
	})
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	article, err := s.storage.GetArticle(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "article not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, article)
}

func (s *Server) handleDeleteArticle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.ingestor.DeleteArticle(r.Context(), id); err != nil {
		s.logger.Error("deletion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleRefreshFeeds(w http.ResponseWriter, r *http.Request) {
	if len(s.config.Feeds) == 0 {
		s.respondError(w, http.StatusNotImplemented, "no feeds configured")
		return
	}
	ingested, err := s.ingestor.FetchFeeds(r.Context(), s.config.Feeds)
	if err != nil {
		s.logger.Error("feed refresh failed", zap.Error(err))
		// Partial success still reports what made it in.
		s.respondJSON(w, http.StatusBadGateway, map[string]interface{}{
			"ingested": ingested,
			"error":    err.Error(),
		})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"ingested": ingested,
		"feeds":    len(s.config.Feeds),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	articleCount, err := s.storage.CountArticles(r.Context())
	if err != nil {
		s.logger.Error("status: count articles failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"articles": articleCount,
		"feeds":    len(s.config.Feeds),
	}
	if s.vectors != nil {
		resp["vector_index_size"] = s.vectors.Size()
	}
	resp["config"] = map[string]interface{}{
		"llm_provider":         s.config.LLM.Provider,
		"llm_model":            s.config.LLM.Model,
		"review_threshold":     s.config.Review.Threshold,
		"max_related":          s.config.Search.MaxRelated,
		"embedding_dimensions": s.config.Search.Embedding.Dimensions,
		"database_path":        s.config.Storage.DatabasePath,
		"bleve_index_path":     s.config.Storage.BleveIndexPath,
		"vector_index_path":    s.config.Storage.VectorIndexPath,
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWatchDirectoriesList(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"directories": s.watch.Directories()})
}

type watchAddRequest struct {
	Path string `json:"path"`
	Sync *bool  `json:"sync,omitempty"`
}

func (s *Server) handleWatchDirectoriesAdd(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	var req watchAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			s.respondError(w, http.StatusNotFound, "directory not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !info.IsDir() {
		s.respondError(w, http.StatusBadRequest, "path is not a directory")
		return
	}
	syncExisting := true
	if req.Sync != nil {
		syncExisting = *req.Sync
	}
	if err := s.watch.AddDirectory(abs, syncExisting); err != nil {
		s.logger.Error("watch add directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusCreated, map[string]string{"path": abs, "status": "added"})
}

func (s *Server) handleWatchDirectoriesRemove(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		var body struct {
			Path string `json:"path"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil && body.Path != "" {
			path = body.Path
		}
	}
	if path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required (query or body)")
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	if err := s.watch.RemoveDirectory(abs); err != nil {
		s.logger.Error("watch remove directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusOK, map[string]string{"path": abs, "status": "removed"})
}

func (s *Server) persistWatchDirectories() {
	if s.configPath == "" {
		return
	}
	s.configSaveMu.Lock()
	s.config.Watch.Directories = s.watch.Directories()
	err := config.Save(s.configPath, s.config)
	s.configSaveMu.Unlock()
	if err != nil {
		s.logger.Warn("failed to persist watch config", zap.Error(err))
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
