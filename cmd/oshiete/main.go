// Package main is the Oshiete CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hyperjump/oshiete/internal/chatbot"
	"github.com/hyperjump/oshiete/internal/cli"
	"github.com/hyperjump/oshiete/internal/config"
	"github.com/hyperjump/oshiete/internal/embedding"
	"github.com/hyperjump/oshiete/internal/generate"
	"github.com/hyperjump/oshiete/internal/ingest"
	"github.com/hyperjump/oshiete/internal/keyword"
	"github.com/hyperjump/oshiete/internal/llm"
	"github.com/hyperjump/oshiete/internal/models"
	"github.com/hyperjump/oshiete/internal/retrieval"
	"github.com/hyperjump/oshiete/internal/review"
	"github.com/hyperjump/oshiete/internal/server"
	"github.com/hyperjump/oshiete/internal/storage"
	"github.com/hyperjump/oshiete/internal/vector"
	"github.com/hyperjump/oshiete/internal/watcher"
	"github.com/hyperjump/oshiete/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/oshiete/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used,
// so that "oshiete server" from the project dir uses the project's config (including debug).
// Returns the config and the path that was actually loaded (for saving, etc.).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	// API keys (OPENAI_API_KEY / ANTHROPIC_API_KEY) may live in a .env file.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ask":
		runAsk()
	case "ingest":
		runIngest()
	case "feed":
		runFeed()
	case "delete":
		runDelete()
	case "status":
		runStatus()
	case "watch":
		runWatch()
	case "version", "--version", "-v":
		fmt.Printf("oshiete version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (drop-directory changes, article ingestion, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	bot, err := buildChatbot(cfg, components, logger)
	if err != nil {
		logger.Fatal("Failed to initialize chat pipeline", zap.Error(err))
	}

	ig := components.Ingestor
	watchOpts := []watcher.Option{}
	if debugMode {
		watchOpts = append(watchOpts, watcher.WithLogger(logger))
	}
	watchSvc := watcher.New(
		cfg.Watch.Directories,
		cfg.Watch.RecursiveOrDefault(),
		func(path string) {
			if _, err := ig.IngestFile(context.Background(), path); err != nil {
				logger.Warn("watch ingest file failed", zap.String("path", path), zap.Error(err))
			}
		},
		func(path string) {
			// Removed drop files carry no stable article-ID mapping, so the
			// articles they produced stay in the corpus. Delete via the API.
			logger.Debug("watched file removed, articles retained", zap.String("path", path))
		},
		watchOpts...,
	)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := watchSvc.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	watchSvc.SyncExistingFiles()

	srv := server.NewServer(
		bot,
		components.Ingestor,
		components.Storage,
		components.VectorIndex,
		cfg,
		logger,
		server.WithWatcher(watchSvc, resolvedConfigPath),
	)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if cfg.Storage.VectorIndexPath != "" && components.VectorIndex != nil {
		if err := components.VectorIndex.Save(cfg.Storage.VectorIndexPath); err != nil {
			logger.Warn("vector index save failed", zap.String("path", cfg.Storage.VectorIndexPath), zap.Error(err))
		}
	}
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// printAskUsage prints ask subcommand usage.
func printAskUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: oshiete ask [flags] <question>\n\n")
	fmt.Fprintf(fs.Output(), "Question is all remaining arguments joined by spaces. Multi-word questions work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
The answer is grounded in the indexed news articles: the source article and
related articles it drew on are printed below the answer, together with the
review quality score when available.

Examples:
  oshiete ask what happened with the budget vote
  oshiete ask "what happened with the budget vote"   # same as above
  oshiete ask --output json your question             # structured JSON for other apps
  oshiete ask --server "" your question               # direct mode when server is not running
`)
}

// buildQuestion joins all positional args with spaces so multi-word questions
// work the same with or without shell quoting.
func buildQuestion(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// askArgsReorder moves any flags (and their values) that appear after the question
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument, so "oshiete ask \"question\" -output json"
// would otherwise leave -output unparsed.
func askArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runAsk() {
	askArgs := askArgsReorder(os.Args[2:])

	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = run the pipeline directly when server is not running)")
	outputFormat := fs.String("output", "text", "output format: text (human-readable) or json (parseable)")
	fs.Usage = func() { printAskUsage(fs) }
	_ = fs.Parse(askArgs)

	if fs.NArg() < 1 {
		printAskUsage(fs)
		os.Exit(1)
	}
	question := buildQuestion(fs.Args())
	if question == "" {
		printAskUsage(fs)
		os.Exit(1)
	}

	format := cli.OutputText
	switch *outputFormat {
	case "json":
		format = cli.OutputJSON
	case "text":
		format = cli.OutputText
	default:
		fmt.Printf("Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}

	if *serverURL != "" {
		// Use HTTP API when server is running (avoids Bleve/SQLite lock conflict).
		result, err := askViaHTTP(*serverURL, question)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteChatResult(os.Stdout, result, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Direct pipeline (when server is not running). Needs an LLM API key.
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	bot, err := buildChatbot(cfg, components, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize chat pipeline: %v\n", err)
		os.Exit(1)
	}
	result, err := bot.ProcessQuery(context.Background(), question)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteChatResult(os.Stdout, result, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func askViaHTTP(serverURL, question string) (*models.ChatResult, error) {
	body, err := json.Marshal(&models.ChatQuery{Query: question})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var result models.ChatResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: oshiete ingest [flags] <json-file-or-directory>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("Failed to stat path: %v\n", err)
		os.Exit(1)
	}
	var n int
	if info.IsDir() {
		n, err = components.Ingestor.IngestDirectory(ctx, path)
	} else {
		n, err = components.Ingestor.IngestFile(ctx, path)
	}
	if err != nil {
		fmt.Printf("Ingestion failed: %v\n", err)
		os.Exit(1)
	}
	saveVectorIndex(cfg, components, logger)
	fmt.Printf("Ingested %d article(s) from %s\n", n, path)
}

func runFeed() {
	fs := flag.NewFlagSet("feed", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = fetch feeds directly when server is not running)")
	_ = fs.Parse(os.Args[2:])

	if *serverURL != "" {
		resp, err := http.Post(*serverURL+"/api/v1/feeds/refresh", "application/json", nil)
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		var out struct {
			Ingested int    `json:"ingested"`
			Feeds    int    `json:"feeds"`
			Error    string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			fmt.Printf("Parse failed: %v\n", err)
			os.Exit(1)
		}
		if resp.StatusCode != http.StatusOK {
			fmt.Printf("Feed refresh failed (%d): %s (ingested %d)\n", resp.StatusCode, out.Error, out.Ingested)
			os.Exit(1)
		}
		fmt.Printf("Ingested %d article(s) from %d feed(s)\n", out.Ingested, out.Feeds)
		return
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if len(cfg.Feeds) == 0 {
		fmt.Println("No feeds configured")
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ingested, err := components.Ingestor.FetchFeeds(context.Background(), cfg.Feeds)
	if err != nil {
		fmt.Printf("Feed refresh failed: %v (ingested %d)\n", err, ingested)
		os.Exit(1)
	}
	saveVectorIndex(cfg, components, logger)
	fmt.Printf("Ingested %d article(s) from %d feed(s)\n", ingested, len(cfg.Feeds))
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: oshiete delete [flags] <article-id>")
		os.Exit(1)
	}
	articleID := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	if err := components.Ingestor.DeleteArticle(context.Background(), articleID); err != nil {
		fmt.Printf("Deletion failed: %v\n", err)
		os.Exit(1)
	}
	saveVectorIndex(cfg, components, logger)
	fmt.Printf("Article deleted: %s\n", articleID)
}

// statusConfigResponse holds configuration info returned by status.
type statusConfigResponse struct {
	LLMProvider         string  `json:"llm_provider,omitempty"`
	LLMModel            string  `json:"llm_model,omitempty"`
	ReviewThreshold     float64 `json:"review_threshold,omitempty"`
	MaxRelated          int     `json:"max_related,omitempty"`
	EmbeddingDimensions int     `json:"embedding_dimensions,omitempty"`
	DatabasePath        string  `json:"database_path,omitempty"`
	BleveIndexPath      string  `json:"bleve_index_path,omitempty"`
	VectorIndexPath     string  `json:"vector_index_path,omitempty"`
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	Articles        int64                 `json:"articles"`
	Feeds           int                   `json:"feeds"`
	VectorIndexSize int                   `json:"vector_index_size"`
	Config          *statusConfigResponse `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()
		articleCount, err := components.Storage.CountArticles(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count articles failed: %v\n", err)
			os.Exit(1)
		}
		status = statusResponse{
			Articles:        articleCount,
			Feeds:           len(cfg.Feeds),
			VectorIndexSize: components.VectorIndex.Size(),
			Config: &statusConfigResponse{
				LLMProvider:         cfg.LLM.Provider,
				LLMModel:            cfg.LLM.Model,
				ReviewThreshold:     cfg.Review.Threshold,
				MaxRelated:          cfg.Search.MaxRelated,
				EmbeddingDimensions: cfg.Search.Embedding.Dimensions,
				DatabasePath:        cfg.Storage.DatabasePath,
				BleveIndexPath:      cfg.Storage.BleveIndexPath,
				VectorIndexPath:     cfg.Storage.VectorIndexPath,
			},
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("articles:           %d   # count of indexed articles\n", status.Articles)
		fmt.Printf("feeds:              %d   # count of configured RSS feeds\n", status.Feeds)
		fmt.Printf("vector_index_size:  %d   # count of vectors in semantic index\n", status.VectorIndexSize)
		if status.Config != nil {
			fmt.Println()
			fmt.Println("# configuration")
			fmt.Printf("llm_provider:       %s\n", status.Config.LLMProvider)
			fmt.Printf("llm_model:          %s\n", status.Config.LLMModel)
			fmt.Printf("review_threshold:   %.2f\n", status.Config.ReviewThreshold)
			fmt.Printf("max_related:        %d\n", status.Config.MaxRelated)
			if status.Config.EmbeddingDimensions > 0 {
				fmt.Printf("embedding_dims:     %d\n", status.Config.EmbeddingDimensions)
			}
			if status.Config.DatabasePath != "" {
				fmt.Printf("database_path:      %s\n", status.Config.DatabasePath)
			}
			if status.Config.BleveIndexPath != "" {
				fmt.Printf("bleve_index_path:   %s\n", status.Config.BleveIndexPath)
			}
			if status.Config.VectorIndexPath != "" {
				fmt.Printf("vector_index_path:  %s\n", status.Config.VectorIndexPath)
			}
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

func runWatch() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: oshiete watch <add|remove|list> [path]")
		fmt.Println("  oshiete watch add <path>     Add drop directory to watch")
		fmt.Println("  oshiete watch remove <path>  Remove drop directory from watch")
		fmt.Println("  oshiete watch list           List watched drop directories")
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[3:])
	switch sub {
	case "add":
		if fs.NArg() < 1 {
			fmt.Println("Usage: oshiete watch add <path>")
			os.Exit(1)
		}
		path, _ := filepath.Abs(fs.Arg(0))
		body, _ := json.Marshal(map[string]interface{}{"path": path, "sync": true})
		resp, err := http.Post(*serverURL+"/api/v1/watch/directories", "application/json", bytes.NewReader(body))
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			b, _ := io.ReadAll(resp.Body)
			fmt.Printf("Add failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		fmt.Printf("Added: %s\n", path)
	case "remove":
		if fs.NArg() < 1 {
			fmt.Println("Usage: oshiete watch remove <path>")
			os.Exit(1)
		}
		path, _ := filepath.Abs(fs.Arg(0))
		req, _ := http.NewRequest(http.MethodDelete, *serverURL+"/api/v1/watch/directories?path="+url.QueryEscape(path), nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Printf("Remove failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		fmt.Printf("Removed: %s\n", path)
	case "list":
		resp, err := http.Get(*serverURL + "/api/v1/watch/directories")
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Printf("List failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		var out struct {
			Directories []string `json:"directories"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			fmt.Printf("Parse failed: %v\n", err)
			os.Exit(1)
		}
		for _, d := range out.Directories {
			fmt.Println(d)
		}
	default:
		fmt.Printf("Unknown watch subcommand: %s\n", sub)
		os.Exit(1)
	}
}

// Components holds initialized services. The chat pipeline (LLM-backed) is
// built separately so ingestion commands work without an API key.
type Components struct {
	Storage      storage.ArticleStorage
	Embedder     embedding.Embedder
	VectorIndex  vector.Index
	KeywordIndex keyword.ArticleIndex
	Searcher     *retrieval.Searcher
	Ingestor     *ingest.Ingestor
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.VectorIndex != nil {
		_ = c.VectorIndex.Close()
	}
	if c.KeywordIndex != nil {
		_ = c.KeywordIndex.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var embedder embedding.Embedder
	onnxEmbedder, err := embedding.NewONNXEmbedder(
		cfg.Search.Embedding.ModelPath,
		cfg.Search.Embedding.Dimensions,
		cfg.Search.Embedding.MaxTokens,
		cfg.Search.Embedding.CacheSize,
	)
	if err != nil {
		logger.Warn("ONNX embedder unavailable, using mock embeddings", zap.Error(err))
		embedder = embedding.NewMockEmbedder(cfg.Search.Embedding.Dimensions)
	} else {
		embedder = onnxEmbedder
	}

	vectorIndex, err := vector.NewMemoryIndex(cfg.Search.Embedding.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}
	if cfg.Storage.VectorIndexPath != "" {
		if loadErr := vectorIndex.Load(cfg.Storage.VectorIndexPath); loadErr != nil {
			logger.Warn("vector index load skipped (re-ingest to rebuild)",
				zap.String("path", cfg.Storage.VectorIndexPath), zap.Error(loadErr))
		}
	}

	keywordIndex, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}

	searcher := retrieval.NewSearcher(store, keywordIndex, embedder, vectorIndex, &cfg.Search, logger)
	ingestor := ingest.NewIngestor(store, keywordIndex, embedder, vectorIndex, &cfg.Search, logger)

	return &Components{
		Storage:      store,
		Embedder:     embedder,
		VectorIndex:  vectorIndex,
		KeywordIndex: keywordIndex,
		Searcher:     searcher,
		Ingestor:     ingestor,
	}, nil
}

// buildChatbot wires the LLM-backed pipeline stages. Fails when the configured
// provider's API key is missing from the environment.
func buildChatbot(cfg *config.Config, components *Components, logger *zap.Logger) (*chatbot.NewsChatbot, error) {
	client, err := llm.New(&cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}
	generator := generate.NewGenerator(client, logger)
	reviewer := review.NewReviewer(client, cfg.Review.Threshold, logger)
	return chatbot.New(components.Searcher, generator, reviewer, logger), nil
}

// saveVectorIndex persists the vector index after a direct-mode mutation so the
// next process picks up the change.
func saveVectorIndex(cfg *config.Config, components *Components, logger *zap.Logger) {
	if cfg.Storage.VectorIndexPath == "" || components.VectorIndex == nil {
		return
	}
	if err := components.VectorIndex.Save(cfg.Storage.VectorIndexPath); err != nil {
		logger.Warn("vector index save failed", zap.String("path", cfg.Storage.VectorIndexPath), zap.Error(err))
	}
}

func printUsage() {
	fmt.Println(`oshiete - News chatbot grounded in a local article index

Usage:
  oshiete server [flags]            Start the HTTP server
  oshiete ask [flags] <question>    Ask a question about the news
  oshiete ingest [flags] <path>     Ingest articles from a JSON file or directory
  oshiete feed [flags]              Fetch and ingest configured RSS feeds
  oshiete delete [flags] <id>       Delete an article
  oshiete status [flags]            Show corpus/index status
  oshiete watch <add|remove|list>   Manage watched drop directories
  oshiete version                   Show version
  oshiete help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/oshiete/config.yaml)
  --debug            Enable debug logging (drop-directory changes, article ingestion, etc.)

Ask Flags:
  --config string    Config file path (for direct mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") to run the pipeline directly when server is not running.
  --output string    Output format: text or json (default: text)

Ingest Flags:
  --config string    Config file path

Feed Flags:
  --config string    Config file path (for direct mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") to fetch directly.

Status Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.
  --output string    Output format: text or json (default: text)

Watch Flags:
  --server string    Server URL (default: http://localhost:8080)

The LLM API key is read from the environment (OPENAI_API_KEY or
ANTHROPIC_API_KEY, matching the configured provider); a .env file in the
working directory is loaded automatically.

Examples:
  oshiete server
  oshiete ask "what happened with the budget vote"
  oshiete ask --output json "query"   # structured JSON for other apps
  oshiete ingest articles/today.json
  oshiete ingest articles/            # every .json file in the directory
  oshiete feed
  oshiete delete feed:4a6f2c
  oshiete status
  oshiete status --output json
  oshiete watch add /path/to/drop-dir
  oshiete watch list`)
}
