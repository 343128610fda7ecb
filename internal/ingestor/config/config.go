package config

import (
	"time"

	"golang-market-oracle/pkg/config"
)

// Feed describes one RSS feed polled by the ingestion scheduler.
type Feed struct {
	Category string `mapstructure:"category"`
	URL      string `mapstructure:"url"`
	Cron     string `mapstructure:"cron"`
}

// Ingestor holds ingestion-specific configuration.
type Ingestor struct {
	Feeds                    []Feed        `mapstructure:"feeds"`
	RedisStreamTaskTimeout   time.Duration `mapstructure:"redis_stream_task_timeout"`
	MaxArticlesPerFeed       int           `mapstructure:"max_articles_per_feed"`
	MaxArticleAgeInDays      int           `mapstructure:"max_article_age_in_days"`
	FetchDelay               time.Duration `mapstructure:"fetch_delay"`
	BlacklistedDomains       []string      `mapstructure:"blacklisted_domains"`
	DedupeCacheTTL           time.Duration `mapstructure:"dedupe_cache_ttl"`
	DedupeCacheCleanupPeriod time.Duration `mapstructure:"dedupe_cache_cleanup_period"`
}

// AI holds configuration for AI providers.
type AI struct {
	Provider string `mapstructure:"provider"`
}

// OpenAI holds the configuration for the OpenAI-compatible embedding API.
type OpenAI struct {
	BaseURL             string `mapstructure:"base_url"`
	APIKey              string `mapstructure:"api_key"`
	EmbeddingModel      string `mapstructure:"embedding_model"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// Gemini holds the configuration for the Gemini embedding API.
type Gemini struct {
	BaseURL             string `mapstructure:"base_url"`
	APIKey              string `mapstructure:"api_key"`
	EmbeddingModel      string `mapstructure:"embedding_model"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// Pinecone holds the configuration for the vector index.
type Pinecone struct {
	IndexURL string `mapstructure:"index_url"`
	APIKey   string `mapstructure:"api_key"`
}

// Config holds the full configuration for the ingestion service.
type Config struct {
	App      config.App      `mapstructure:"app"`
	Logger   config.Logger   `mapstructure:"logger"`
	Database config.Database `mapstructure:"database"`
	Redis    config.Redis    `mapstructure:"redis"`
	Ingestor Ingestor        `mapstructure:"ingestor"`
	AI       AI              `mapstructure:"ai"`
	OpenAI   OpenAI          `mapstructure:"openai"`
	Gemini   Gemini          `mapstructure:"gemini"`
	Pinecone Pinecone        `mapstructure:"pinecone"`
}

// Load loads the ingestion configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	if cfg.Ingestor.RedisStreamTaskTimeout == 0 {
		cfg.Ingestor.RedisStreamTaskTimeout = 5 * time.Minute
	}
	if cfg.Ingestor.MaxArticlesPerFeed == 0 {
		cfg.Ingestor.MaxArticlesPerFeed = 10
	}
	if cfg.Ingestor.MaxArticleAgeInDays == 0 {
		cfg.Ingestor.MaxArticleAgeInDays = 3
	}
	if cfg.Ingestor.DedupeCacheTTL == 0 {
		cfg.Ingestor.DedupeCacheTTL = 5 * time.Minute
	}
	if cfg.Ingestor.DedupeCacheCleanupPeriod == 0 {
		cfg.Ingestor.DedupeCacheCleanupPeriod = 10 * time.Minute
	}
	return &cfg, nil
}
