package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/oshiete/internal/chatbot"
	"github.com/hyperjump/oshiete/internal/config"
	"github.com/hyperjump/oshiete/internal/embedding"
	"github.com/hyperjump/oshiete/internal/ingest"
	"github.com/hyperjump/oshiete/internal/keyword"
	"github.com/hyperjump/oshiete/internal/models"
	"github.com/hyperjump/oshiete/internal/retrieval"
	"github.com/hyperjump/oshiete/internal/storage"
	"github.com/hyperjump/oshiete/internal/vector"
)

type mockWatchService struct {
	dirs []string
}

func (m *mockWatchService) Directories() []string {
	return append([]string(nil), m.dirs...)
}

func (m *mockWatchService) AddDirectory(path string, _ bool) error {
	for _, d := range m.dirs {
		if d == path {
			return nil
		}
	}
	m.dirs = append(m.dirs, path)
	return nil
}

func (m *mockWatchService) RemoveDirectory(path string) error {
	for i, d := range m.dirs {
		if d == path {
			m.dirs = append(m.dirs[:i], m.dirs[i+1:]...)
			return nil
		}
	}
	return nil
}

type fixedGenerator struct {
	text string
	err  error
}

func (g *fixedGenerator) Generate(ctx context.Context, query string, retrieved *models.SearchResult) (*models.Draft, error) {
	if g.err != nil {
		return nil, g.err
	}
	return &models.Draft{Text: g.text, Grounded: !retrieved.Empty(), Grounding: retrieved.Articles()}, nil
}

type fixedReviewer struct{ score float64 }

func (r *fixedReviewer) Review(ctx context.Context, query string, draft *models.Draft) *models.ReviewOutcome {
	return &models.ReviewOutcome{Score: r.score}
}

func (r *fixedReviewer) Threshold() float64 { return 0.7 }

type testEnv struct {
	srv      *Server
	store    *storage.SQLiteStorage
	ingestor *ingest.Ingestor
}

func newTestServer(t *testing.T, genErr error, opts ...Option) *testEnv {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewSQLiteStorage(dir + "/db.sqlite")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	kwIdx, err := keyword.NewMemoryBleveIndex()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { kwIdx.Close() })
	embedder := embedding.NewMockEmbedder(8)
	vecIdx, _ := vector.NewMemoryIndex(8)

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Server.AnswerCacheTTLSeconds = 0

	searcher := retrieval.NewSearcher(store, kwIdx, embedder, vecIdx, &cfg.Search, nil)
	bot := chatbot.New(searcher, &fixedGenerator{text: "an answer", err: genErr}, &fixedReviewer{score: 0.9}, nil)
	ingestor := ingest.NewIngestor(store, kwIdx, embedder, vecIdx, &cfg.Search, nil)

	srv := NewServer(bot, ingestor, store, vecIdx, cfg, zap.NewNop(), opts...)
	return &testEnv{srv: srv, store: store, ingestor: ingestor}
}

func TestHandleChat(t *testing.T) {
	env := newTestServer(t, nil)
	_, err := env.ingestor.IngestArticle(context.Background(), &models.ArticleInput{
		ID: "a1", Title: "Budget passes senate", Body: "The spending bill passed late on Thursday.",
	})
	if err != nil {
		t.Fatal(err)
	}

	body, _ := json.Marshal(map[string]string{"query": "budget senate"})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.srv.handleChat(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out models.ChatResult
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Answer != "an answer" {
		t.Errorf("answer: got %q", out.Answer)
	}
	if out.Primary == nil || out.Primary.ID != "a1" {
		t.Errorf("primary: got %+v", out.Primary)
	}
}

func TestHandleChat_EmptyQuery(t *testing.T) {
	env := newTestServer(t, nil)
	body, _ := json.Marshal(map[string]string{"query": "   "})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewReader(body))
	w := httptest.NewRecorder()
	env.srv.handleChat(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
}

func TestHandleChat_PipelineFailure(t *testing.T) {
	env := newTestServer(t, errors.New("backend down"))
	body, _ := json.Marshal(map[string]string{"query": "anything"})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewReader(body))
	w := httptest.NewRecorder()
	env.srv.handleChat(w, r)
	if w.Code != http.StatusBadGateway {
		t.Errorf("status: got %d, want 502", w.Code)
	}
}

func TestHandleChat_CachesAnswers(t *testing.T) {
	env := newTestServer(t, nil)
	env.srv.config.Server.AnswerCacheTTLSeconds = 60
	srv := NewServer(env.srv.bot, env.srv.ingestor, env.srv.storage, env.srv.vectors, env.srv.config, zap.NewNop())
	if srv.answerCache == nil {
		t.Fatal("cache should be enabled with a positive TTL")
	}

	body, _ := json.Marshal(map[string]string{"query": "Cached Query"})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.handleChat(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	if _, ok := srv.answerCache.Get("cached query"); !ok {
		t.Error("answer should be cached under the normalized query")
	}
}

func TestHandleIngestAndGetArticle(t *testing.T) {
	env := newTestServer(t, nil)
	body, _ := json.Marshal(map[string]string{"id": "x1", "title": "T", "body": "article body"})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/articles", bytes.NewReader(body))
	w := httptest.NewRecorder()
	env.srv.handleIngestArticle(w, r)
	if w.Code != http.StatusCreated {
		t.Fatalf("ingest status: got %d, body: %s", w.Code, w.Body.String())
	}

	router := env.srv.Handler()
	r = httptest.NewRequest(http.MethodGet, "/api/v1/articles/x1", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("get status: got %d", w.Code)
	}
	var article models.Article
	if err := json.NewDecoder(w.Body).Decode(&article); err != nil {
		t.Fatal(err)
	}
	if article.Body != "article body" {
		t.Errorf("body: got %q", article.Body)
	}
}

func TestHandleGetArticle_NotFound(t *testing.T) {
	env := newTestServer(t, nil)
	router := env.srv.Handler()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/articles/missing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	if w.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", w.Code)
	}
}

func TestHandleDeleteArticle(t *testing.T) {
	env := newTestServer(t, nil)
	_, err := env.ingestor.IngestArticle(context.Background(), &models.ArticleInput{
		ID: "gone", Title: "T", Body: "b",
	})
	if err != nil {
		t.Fatal(err)
	}
	router := env.srv.Handler()
	r := httptest.NewRequest(http.MethodDelete, "/api/v1/articles/gone", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	if _, err := env.store.GetArticle(context.Background(), "gone"); !errors.Is(err, storage.ErrNotFound) {
		t.Error("article should be deleted")
	}
}

func TestHandleStatus(t *testing.T) {
	env := newTestServer(t, nil)
	_, err := env.ingestor.IngestArticle(context.Background(), &models.ArticleInput{
		ID: "s1", Title: "T", Body: "b",
	})
	if err != nil {
		t.Fatal(err)
	}
	r := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	w := httptest.NewRecorder()
	env.srv.handleStatus(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out struct {
		Articles        int64 `json:"articles"`
		VectorIndexSize int   `json:"vector_index_size"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Articles != 1 {
		t.Errorf("articles: got %d, want 1", out.Articles)
	}
	if out.VectorIndexSize != 1 {
		t.Errorf("vector_index_size: got %d, want 1", out.VectorIndexSize)
	}
}

func TestHandleRefreshFeeds_NoneConfigured(t *testing.T) {
	env := newTestServer(t, nil)
	env.srv.config.Feeds = nil
	r := httptest.NewRequest(http.MethodPost, "/api/v1/feeds/refresh", nil)
	w := httptest.NewRecorder()
	env.srv.handleRefreshFeeds(w, r)
	if w.Code != http.StatusNotImplemented {
		t.Errorf("status: got %d, want 501", w.Code)
	}
}

func TestHandleWatchDirectoriesList(t *testing.T) {
	env := newTestServer(t, nil, WithWatcher(&mockWatchService{dirs: []string{"/tmp/articles"}}, ""))
	r := httptest.NewRequest(http.MethodGet, "/api/v1/watch/directories", nil)
	w := httptest.NewRecorder()
	env.srv.handleWatchDirectoriesList(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d", w.Code)
	}
	var out struct {
		Directories []string `json:"directories"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Directories) != 1 || out.Directories[0] != "/tmp/articles" {
		t.Errorf("directories: got %v", out.Directories)
	}
}

func TestHandleWatchDirectoriesList_NotEnabled(t *testing.T) {
	env := newTestServer(t, nil)
	r := httptest.NewRequest(http.MethodGet, "/api/v1/watch/directories", nil)
	w := httptest.NewRecorder()
	env.srv.handleWatchDirectoriesList(w, r)
	if w.Code != http.StatusNotImplemented {
		t.Errorf("status: got %d, want 501", w.Code)
	}
}

func TestHandleWatchDirectoriesAdd(t *testing.T) {
	dir := t.TempDir()
	mock := &mockWatchService{}
	env := newTestServer(t, nil, WithWatcher(mock, ""))

	body, _ := json.Marshal(map[string]string{"path": dir})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/watch/directories", bytes.NewReader(body))
	w := httptest.NewRecorder()
	env.srv.handleWatchDirectoriesAdd(w, r)
	if w.Code != http.StatusCreated {
		t.Errorf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	if len(mock.Directories()) != 1 {
		t.Errorf("expected 1 directory, got %v", mock.Directories())
	}
}

func TestHandleWatchDirectoriesAdd_MissingPath(t *testing.T) {
	dir := t.TempDir()
	env := newTestServer(t, nil, WithWatcher(&mockWatchService{}, ""))

	body, _ := json.Marshal(map[string]string{"path": dir + "/nonexistent"})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/watch/directories", bytes.NewReader(body))
	w := httptest.NewRecorder()
	env.srv.handleWatchDirectoriesAdd(w, r)
	if w.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", w.Code)
	}
}

func TestHandleWatchDirectoriesRemove(t *testing.T) {
	dir := t.TempDir()
	mock := &mockWatchService{dirs: []string{dir}}
	env := newTestServer(t, nil, WithWatcher(mock, ""))

	r := httptest.NewRequest(http.MethodDelete, "/api/v1/watch/directories?path="+dir, nil)
	w := httptest.NewRecorder()
	env.srv.handleWatchDirectoriesRemove(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d", w.Code)
	}
	if len(mock.Directories()) != 0 {
		t.Errorf("expected 0 directories, got %v", mock.Directories())
	}
}
