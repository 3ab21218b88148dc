package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Inference InferenceConfig
	Raster    RasterConfig
	Storage   StorageConfig
	CORS      CORSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port          string        `mapstructure:"port"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	Environment   string        `mapstructure:"environment"`
	MaxUploadMB   int64         `mapstructure:"max_upload_mb"`
	FetchTimeout  time.Duration `mapstructure:"fetch_timeout"`
	MaxFetchBytes int64         `mapstructure:"max_fetch_bytes"`
}

// InferenceProviderConfig holds settings for a single model backend.
type InferenceProviderConfig struct {
	Provider    string `mapstructure:"provider"`
	BaseURL     string `mapstructure:"base_url"`
	APIKey      string `mapstructure:"api_key"`
	Model       string `mapstructure:"model"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
	MaxRetries  int    `mapstructure:"max_retries"`
}

// InferenceConfig holds model backend settings with primary/secondary support.
type InferenceConfig struct {
	Primary   InferenceProviderConfig `mapstructure:"primary"`
	Secondary InferenceProviderConfig `mapstructure:"secondary"`
	Prompt    string                  `mapstructure:"prompt"`
	MaxTokens int                     `mapstructure:"max_tokens"`
}

// SecondaryConfig returns the secondary backend config, or nil if not configured.
func (c *InferenceConfig) SecondaryConfig() *InferenceProviderConfig {
	if c.Secondary.Provider != "" {
		return &c.Secondary
	}
	return nil
}

// RasterConfig holds PDF rasterization settings.
type RasterConfig struct {
	DPI      int    `mapstructure:"dpi"`
	Binary   string `mapstructure:"binary"`
	MaxPages int    `mapstructure:"max_pages"`
}

// StorageConfig holds artifact storage settings.
type StorageConfig struct {
	Backend   string `mapstructure:"backend"` // "local" or "s3"
	LocalDir  string `mapstructure:"local_dir"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load reads configuration from environment variables with the DOCSTRUCT_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DOCSTRUCT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "600s")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.max_upload_mb", 50)
	v.SetDefault("server.fetch_timeout", "10s")
	v.SetDefault("server.max_fetch_bytes", 52428800)

	// Inference defaults: a local mlx-vlm sidecar serving SmolDocling
	v.SetDefault("inference.primary.provider", "mlx")
	v.SetDefault("inference.primary.base_url", "http://127.0.0.1:8090")
	v.SetDefault("inference.primary.api_key", "")
	v.SetDefault("inference.primary.model", "ds4sd/SmolDocling-256M-preview-mlx-bf16")
	v.SetDefault("inference.primary.timeout_secs", 300)
	v.SetDefault("inference.primary.max_retries", 3)
	v.SetDefault("inference.secondary.provider", "")
	v.SetDefault("inference.secondary.base_url", "")
	v.SetDefault("inference.secondary.api_key", "")
	v.SetDefault("inference.secondary.model", "")
	v.SetDefault("inference.secondary.timeout_secs", 300)
	v.SetDefault("inference.secondary.max_retries", 3)
	v.SetDefault("inference.prompt", "Convert this page to docling.")
	v.SetDefault("inference.max_tokens", 4096)

	// Rasterizer defaults
	v.SetDefault("raster.dpi", 144)
	v.SetDefault("raster.binary", "pdftoppm")
	v.SetDefault("raster.max_pages", 100)

	// Storage defaults
	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.local_dir", "")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.bucket", "docstruct-artifacts")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", []string{
		"http://localhost:3000",
		"http://127.0.0.1:3000",
	})

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
