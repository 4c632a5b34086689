package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8091"`

	// Pathstore connection
	PathstoreURL    string `env:"PATHSTORE_URL" envDefault:"http://localhost:8080"`
	PathstoreAPIKey string `env:"PATHSTORE_API_KEY"`

	// Auth
	DocsegAPIKey string `env:"DOCSEG_API_KEY"`

	// Claude extraction
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	AnthropicModel  string `env:"ANTHROPIC_MODEL" envDefault:"claude-sonnet-4-5-20250929"`

	// Worker pool
	WorkerCount          int `env:"WORKER_COUNT" envDefault:"4"`
	MaxQueueSize         int `env:"MAX_QUEUE_SIZE" envDefault:"100"`
	MaxConcurrentExtract int `env:"MAX_CONCURRENT_EXTRACT" envDefault:"5"`
	MaxConcurrentStore   int `env:"MAX_CONCURRENT_STORE" envDefault:"10"`

	// Upload limits
	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"52428800"` // 50MB

	// Chunking
	ChunkDelim    string `env:"CHUNK_DELIM" envDefault:"\n"`
	KeepFurniture bool   `env:"KEEP_FURNITURE" envDefault:"false"`

	// Vector index (disabled when OllamaURL is empty)
	OllamaURL        string `env:"OLLAMA_URL"`
	OllamaEmbedModel string `env:"OLLAMA_EMBED_MODEL" envDefault:"nomic-embed-text"`
	IndexPath        string `env:"INDEX_PATH" envDefault:"./data/index"`

	// Job state
	JobTTL time.Duration `env:"JOB_TTL" envDefault:"1h"`

	// PDF
	PDFFallbackPdftotext bool `env:"PDF_FALLBACK_PDFTOTEXT" envDefault:"true"`
}

// Load reads configuration from the environment, with a best-effort .env.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxConcurrentExtract <= 0 {
		cfg.MaxConcurrentExtract = 5
	}
	if cfg.MaxConcurrentStore <= 0 {
		cfg.MaxConcurrentStore = 10
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.ChunkDelim == "" {
		cfg.ChunkDelim = "\n"
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = time.Hour
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.PathstoreAPIKey == "" {
		return fmt.Errorf("PATHSTORE_API_KEY is required")
	}
	if c.DocsegAPIKey == "" {
		return fmt.Errorf("DOCSEG_API_KEY is required")
	}
	if c.AnthropicAPIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	return nil
}

// IndexEnabled reports whether the vector index should be initialized.
func (c Config) IndexEnabled() bool {
	return c.OllamaURL != ""
}
