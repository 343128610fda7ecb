package config

import (
	"time"

	"golang-market-oracle/pkg/config"
)

// OpenAI holds the configuration for OpenAI-compatible providers.
type OpenAI struct {
	BaseURL             string `mapstructure:"base_url"`
	APIKey              string `mapstructure:"api_key"`
	FastModel           string `mapstructure:"fast_model"`
	DeepModel           string `mapstructure:"deep_model"`
	CouncilModel        string `mapstructure:"council_model"`
	EmbeddingModel      string `mapstructure:"embedding_model"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// Gemini holds the configuration for the Gemini API.
type Gemini struct {
	BaseURL             string `mapstructure:"base_url"`
	APIKey              string `mapstructure:"api_key"`
	FastModel           string `mapstructure:"fast_model"`
	DeepModel           string `mapstructure:"deep_model"`
	CouncilModel        string `mapstructure:"council_model"`
	EmbeddingModel      string `mapstructure:"embedding_model"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
	MaxTokenPerMinute   int    `mapstructure:"max_token_per_minute"`
}

// AI holds configuration for AI providers.
type AI struct {
	Provider string `mapstructure:"provider"`
}

// Kalshi holds the configuration for the Kalshi market API.
type Kalshi struct {
	BaseURL             string `mapstructure:"base_url"`
	APIKeyID            string `mapstructure:"api_key_id"`
	PrivateKeyPEM       string `mapstructure:"private_key_pem"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// Polymarket holds the configuration for the Polymarket gateway API.
type Polymarket struct {
	BaseURL             string `mapstructure:"base_url"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// Pinecone holds the configuration for the vector index.
type Pinecone struct {
	IndexURL string `mapstructure:"index_url"`
	APIKey   string `mapstructure:"api_key"`
	TopK     int    `mapstructure:"top_k"`
}

// Council holds the deliberation protocol settings.
type Council struct {
	InterCallDelay    time.Duration `mapstructure:"inter_call_delay"`
	MaxTokens         int           `mapstructure:"max_tokens"`
	DefaultEntryPrice float64       `mapstructure:"default_entry_price"`
}

// Snapshot holds the market snapshot settings.
type Snapshot struct {
	MarketLimit int           `mapstructure:"market_limit"`
	MinVolume   int           `mapstructure:"min_volume"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
}

// Telegram holds configuration for the Telegram notifier.
type Telegram struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Config holds the full configuration for the prediction service.
type Config struct {
	App        config.App    `mapstructure:"app"`
	Logger     config.Logger `mapstructure:"logger"`
	API        config.API    `mapstructure:"api"`
	AI         AI            `mapstructure:"ai"`
	OpenAI     OpenAI        `mapstructure:"openai"`
	Gemini     Gemini        `mapstructure:"gemini"`
	Kalshi     Kalshi        `mapstructure:"kalshi"`
	Polymarket Polymarket    `mapstructure:"polymarket"`
	Pinecone   Pinecone      `mapstructure:"pinecone"`
	Council    Council       `mapstructure:"council"`
	Snapshot   Snapshot      `mapstructure:"snapshot"`
	Telegram   Telegram      `mapstructure:"telegram"`
}

// Models are the per-tier model names resolved for the active provider.
type Models struct {
	Fast    string
	Deep    string
	Council string
}

// ActiveModels resolves the model tiers for the configured AI provider.
func (c *Config) ActiveModels() Models {
	switch c.AI.Provider {
	case "gemini":
		return Models{Fast: c.Gemini.FastModel, Deep: c.Gemini.DeepModel, Council: c.Gemini.CouncilModel}
	default:
		return Models{Fast: c.OpenAI.FastModel, Deep: c.OpenAI.DeepModel, Council: c.OpenAI.CouncilModel}
	}
}

// Load loads the prediction service configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	if cfg.Council.InterCallDelay == 0 {
		cfg.Council.InterCallDelay = 5 * time.Second
	}
	if cfg.Council.MaxTokens == 0 {
		cfg.Council.MaxTokens = 500
	}
	if cfg.Council.DefaultEntryPrice == 0 {
		cfg.Council.DefaultEntryPrice = 100
	}
	if cfg.Snapshot.CacheTTL == 0 {
		cfg.Snapshot.CacheTTL = time.Minute
	}
	if cfg.Pinecone.TopK == 0 {
		cfg.Pinecone.TopK = 5
	}
	return &cfg, nil
}
