// Package config loads application configuration from file and environment.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration. It is passed explicitly
// into constructors; there is no process-wide mutable client state.
type Config struct {
	OS        OSConfig        `yaml:"os" mapstructure:"os"`
	NUAR      NUARConfig      `yaml:"nuar" mapstructure:"nuar"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Resolver  ResolverConfig  `yaml:"resolver" mapstructure:"resolver"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Rules     RulesConfig     `yaml:"rules" mapstructure:"rules"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// OSConfig holds Ordnance Survey NGD API settings.
type OSConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	PageSize  int     `yaml:"page_size" mapstructure:"page_size"`
}

// NUARConfig holds NUAR metrics API settings. Asset-count enrichment is
// skipped when the token is empty.
type NUARConfig struct {
	Token   string `yaml:"token" mapstructure:"token"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// StoreConfig configures the analytical store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "postgres" or "sqlite"
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ResolverConfig configures USRN-to-bbox resolution.
type ResolverConfig struct {
	// BufferMetres pads the street extent so adjacent land-use and building
	// features that touch but do not intersect the street are still captured.
	BufferMetres float64 `yaml:"buffer_metres" mapstructure:"buffer_metres"`
}

// FetchConfig configures the fan-out behaviour.
type FetchConfig struct {
	// TimeoutSecs is the independent per-collection fetch timeout.
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// RulesConfig points at the collaborative-works rule table. Empty means the
// embedded defaults are used.
type RulesConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// AnthropicConfig holds summariser settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from config.yaml and STREETWISE_* environment
// variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("STREETWISE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("os.base_url", "https://api.os.uk/features/ngd/ofa/v1")
	v.SetDefault("os.rate_limit", 10)
	v.SetDefault("os.page_size", 100)
	v.SetDefault("nuar.base_url", "https://innovation.nuar-data-services.uk/services/generalised-data/api/v1/metrics/AssetCount/nuar/12")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "streetwise.db")
	v.SetDefault("resolver.buffer_metres", 50)
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
