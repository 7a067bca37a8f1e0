package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.AnswerCacheTTLSeconds == 0 {
		cfg.Server.AnswerCacheTTLSeconds = 60
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/oshiete/data/db/articles.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/oshiete/data/indices/bleve"
	}
	if cfg.Storage.VectorIndexPath == "" {
		cfg.Storage.VectorIndexPath = "/usr/local/var/oshiete/data/indices/vectors.bin"
	}
	if cfg.Search.MaxRelated == 0 {
		cfg.Search.MaxRelated = 3
	}
	if cfg.Search.CandidatePool == 0 {
		cfg.Search.CandidatePool = 50
	}
	if cfg.Search.KeywordWeight == 0 && cfg.Search.SemanticWeight == 0 {
		cfg.Search.KeywordWeight = 0.6
		cfg.Search.SemanticWeight = 0.4
	}
	if cfg.Search.TitleBoost == 0 {
		cfg.Search.TitleBoost = 3.0
	}
	if cfg.Search.EmbeddingLeadChars == 0 {
		cfg.Search.EmbeddingLeadChars = 600
	}
	if cfg.Search.Embedding.ModelPath == "" {
		cfg.Search.Embedding.ModelPath = "/usr/local/var/oshiete/data/models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Search.Embedding.Dimensions == 0 {
		cfg.Search.Embedding.Dimensions = 384
	}
	if cfg.Search.Embedding.MaxTokens == 0 {
		cfg.Search.Embedding.MaxTokens = 256
	}
	if cfg.Search.Embedding.CacheSize == 0 {
		cfg.Search.Embedding.CacheSize = 10000
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}
	if cfg.LLM.TimeoutSeconds == 0 {
		cfg.LLM.TimeoutSeconds = 30
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 1024
	}
	if cfg.Review.Threshold == 0 {
		cfg.Review.Threshold = 0.7
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
