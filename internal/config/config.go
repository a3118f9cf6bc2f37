package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Global singleton for components that cannot take injected config.
var globalConfig *Config

// Config holds all environment backed configuration for the chat API.
type Config struct {
	// HTTP Server
	HTTPPort    int      `env:"HTTP_PORT" envDefault:"8080"`
	MetricsPort int      `env:"METRICS_PORT" envDefault:"9091"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"https://localhost,https://localhost:8100,http://localhost:8100,capacitor://localhost"`

	// Model provider (OpenAI-compatible chat completions endpoint)
	ModelBaseURL string        `env:"MODEL_BASE_URL" envDefault:"https://api.openai.com/v1"`
	ModelAPIKey  string        `env:"MODEL_API_KEY,notEmpty"`
	ModelName    string        `env:"MODEL_NAME" envDefault:"gpt-4o-mini"`
	ModelTimeout time.Duration `env:"MODEL_TIMEOUT" envDefault:"120s"`

	// Weather provider
	WeatherAPIKey  string        `env:"WEATHER_API_KEY,notEmpty"`
	WeatherBaseURL string        `env:"WEATHER_BASE_URL" envDefault:"https://weather.visualcrossing.com/VisualCrossingWebServices/rest/services/timeline"`
	WeatherTimeout time.Duration `env:"WEATHER_TIMEOUT" envDefault:"15s"`

	// Observability / Logging
	OTLPEndpoint     string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPHeaders      string `env:"OTEL_EXPORTER_OTLP_HEADERS"`
	ServiceName      string `env:"SERVICE_NAME" envDefault:"chat-api"`
	ServiceNamespace string `env:"SERVICE_NAMESPACE" envDefault:"wander"`
	Environment      string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat        string `env:"LOG_FORMAT" envDefault:"console"`

	// Internal
	EnvReloadedAt time.Time
}

// Load parses environment variables into Config and performs minimal validation.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if _, err := url.ParseRequestURI(cfg.ModelBaseURL); err != nil {
		return nil, fmt.Errorf("invalid MODEL_BASE_URL: %w", err)
	}
	if _, err := url.ParseRequestURI(cfg.WeatherBaseURL); err != nil {
		return nil, fmt.Errorf("invalid WEATHER_BASE_URL: %w", err)
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	cfg.EnvReloadedAt = time.Now()

	globalConfig = cfg

	return cfg, nil
}

// GetGlobal returns the global config instance.
// Deprecated: Use dependency injection with Load() instead.
func GetGlobal() *Config {
	return globalConfig
}

// GetEnvReloadedAt returns when the environment was last reloaded.
func GetEnvReloadedAt() time.Time {
	if globalConfig != nil {
		return globalConfig.EnvReloadedAt
	}
	return time.Time{}
}

var Version = "dev"

func IsDev() bool {
	return strings.HasPrefix(Version, "dev")
}
