package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config application configuration
type Config struct {
	// IMAP
	IMAPServer   string `env:"IMAP_SERVER"`
	IMAPPort     int    `env:"IMAP_PORT" envDefault:"993"`
	IMAPUsername string `env:"IMAP_USERNAME,required"`
	IMAPPassword string `env:"IMAP_PASSWORD,required"`
	// Folder names are tried with this prefix convention first and the
	// alternate one second ("" means bare names, "INBOX." means prefixed).
	FolderPrefix string        `env:"IMAP_FOLDER_PREFIX"`
	DialTimeout  time.Duration `env:"IMAP_DIAL_TIMEOUT" envDefault:"30s"`

	// Hugging Face sentiment endpoint
	HuggingFaceAPIKey  string        `env:"HUGGINGFACE_API_KEY,required"`
	HuggingFaceModel   string        `env:"HF_MODEL" envDefault:"distilbert-base-uncased-finetuned-sst-2-english"`
	HuggingFaceBaseURL string        `env:"HF_BASE_URL" envDefault:"https://api-inference.huggingface.co/models"`
	HuggingFaceTimeout time.Duration `env:"HF_TIMEOUT" envDefault:"15s"`

	// OpenAI category endpoint
	OpenAIAPIKey  string        `env:"OPENAI_API_KEY,required"`
	OpenAIModel   string        `env:"OPENAI_MODEL" envDefault:"gpt-3.5-turbo"`
	OpenAIBaseURL string        `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	OpenAITimeout time.Duration `env:"OPENAI_TIMEOUT" envDefault:"15s"`

	// Minimum spacing between outbound inference calls.
	APICallInterval time.Duration `env:"API_CALL_INTERVAL" envDefault:"1s"`

	// Extraction
	SentimentMaxChars int    `env:"SENTIMENT_MAX_CHARS" envDefault:"1000"`
	CategoryMaxChars  int    `env:"CATEGORY_MAX_CHARS" envDefault:"1000"`
	FallbackCharset   string `env:"FALLBACK_CHARSET" envDefault:"windows-1252"`

	// Processing records
	DatabasePath string `env:"DATABASE_PATH" envDefault:"./data/processing.db"`

	// Continuous mode
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"1m"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"` // "json" or "text"
}

// ServerAddr returns the IMAP server address as host:port.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.IMAPServer, c.IMAPPort)
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.SentimentMaxChars <= 0 || cfg.CategoryMaxChars <= 0 {
		return nil, fmt.Errorf("truncation caps must be positive, got sentiment=%d category=%d",
			cfg.SentimentMaxChars, cfg.CategoryMaxChars)
	}

	return cfg, nil
}
