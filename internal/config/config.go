package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the full application configuration. Values come from an
// optional config.yaml next to the binary, overridden by PORTFOLIO_*
// environment variables (PORTFOLIO_DATABASE_URL, PORTFOLIO_SERVER_PORT, ...).
type Config struct {
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Auth     AuthConfig     `yaml:"auth" mapstructure:"auth"`
	Vertex   VertexConfig   `yaml:"vertex" mapstructure:"vertex"`
	Metrics  MetricsConfig  `yaml:"metrics" mapstructure:"metrics"`
	Charts   ChartsConfig   `yaml:"charts" mapstructure:"charts"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url" mapstructure:"url"`
	MaxConns int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" mapstructure:"jwt_secret"`
}

// VertexConfig configures metric extraction from founder updates.
type VertexConfig struct {
	ProjectID         string  `yaml:"project_id" mapstructure:"project_id"`
	Region            string  `yaml:"region" mapstructure:"region"`
	Model             string  `yaml:"model" mapstructure:"model"`
	MinConfidence     float64 `yaml:"min_confidence" mapstructure:"min_confidence"`
	RequestsPerMinute int     `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// MetricsConfig tunes the metrics table behavior.
type MetricsConfig struct {
	PageSize        int `yaml:"page_size" mapstructure:"page_size"`
	OrderDebounceMS int `yaml:"order_debounce_ms" mapstructure:"order_debounce_ms"`
	CacheTTLSecs    int `yaml:"cache_ttl_secs" mapstructure:"cache_ttl_secs"`
}

// ChartsConfig tunes server-side chart rendering.
type ChartsConfig struct {
	RenderTTLSecs int `yaml:"render_ttl_secs" mapstructure:"render_ttl_secs"`
}

type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PORTFOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Env-only keys get an empty default so Unmarshal sees them.
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("metrics.page_size", 4)
	v.SetDefault("metrics.order_debounce_ms", 500)
	v.SetDefault("metrics.cache_ttl_secs", 60)
	v.SetDefault("charts.render_ttl_secs", 300)
	v.SetDefault("vertex.project_id", "")
	v.SetDefault("vertex.region", "us-central1")
	v.SetDefault("vertex.model", "gemini-2.0-flash")
	v.SetDefault("vertex.min_confidence", 0.5)
	v.SetDefault("vertex.requests_per_minute", 30)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &cfg, nil
}
