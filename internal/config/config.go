package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port        int              `json:"port"`
	JWTSecret   string           `json:"jwt_secret"`
	CORSOrigins []string         `json:"cors_origins"`
	LogConfig   logger.LogConfig `json:"log_config"`
	Database    DatabaseConfig   `json:"database"`
	FileStore   FileStoreConfig  `json:"file_store"`
	Embedding   EmbeddingConfig  `json:"embedding"`
	Ingest      IngestConfig     `json:"ingest"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type EmbeddingConfig struct {
	Provider      string      `json:"provider"`
	Model         string      `json:"model"`
	Dimension     int         `json:"dimension"`
	TimeoutSec    int         `json:"timeout_sec"`
	QueueSize     int         `json:"queue_size"`
	BackfillSpec  string      `json:"backfill_spec"`
	BackfillBatch int         `json:"backfill_batch"`
	Data          interface{} `json:"data"`
}

type IngestConfig struct {
	MaxUploadMB      int64   `json:"max_upload_mb"`
	RenderScale      float64 `json:"render_scale"`
	PublishWindowSec int     `json:"publish_window_sec"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.FileStore.Type == "" {
		return nil, fmt.Errorf("file_store.type is required")
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "ollama"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "nomic-embed-text"
	}
	if cfg.Embedding.Dimension == 0 {
		cfg.Embedding.Dimension = 768
	}
	if cfg.Embedding.TimeoutSec == 0 {
		cfg.Embedding.TimeoutSec = 30
	}
	if cfg.Embedding.QueueSize == 0 {
		cfg.Embedding.QueueSize = 64
	}
	if cfg.Embedding.BackfillSpec == "" {
		cfg.Embedding.BackfillSpec = "*/10 * * * *"
	}
	if cfg.Embedding.BackfillBatch == 0 {
		cfg.Embedding.BackfillBatch = 16
	}
	if cfg.Ingest.MaxUploadMB == 0 {
		cfg.Ingest.MaxUploadMB = 20
	}
	if cfg.Ingest.RenderScale == 0 {
		cfg.Ingest.RenderScale = 1.5
	}
	return &cfg, nil
}
