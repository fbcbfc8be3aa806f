package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Market   MarketConfig   `yaml:"market" mapstructure:"market"`
	Evaluate EvaluateConfig `yaml:"evaluate" mapstructure:"evaluate"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // sqlite or postgres
	Path        string `yaml:"path" mapstructure:"path"`     // sqlite file path
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// MarketConfig configures the remote price-history feed.
type MarketConfig struct {
	BaseURL            string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit          float64 `yaml:"rate_limit" mapstructure:"rate_limit"` // requests per second
	CacheTTLHours      int     `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
	TimeoutSecs        int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RefreshConcurrency int     `yaml:"refresh_concurrency" mapstructure:"refresh_concurrency"`
}

// EvaluateConfig configures the profitability pass.
type EvaluateConfig struct {
	ServerID int64  `yaml:"server_id" mapstructure:"server_id"`
	PlayerID int64  `yaml:"player_id" mapstructure:"player_id"`
	TopN     int    `yaml:"top_n" mapstructure:"top_n"`
	MaxDepth int    `yaml:"max_depth" mapstructure:"max_depth"`
	Strategy string `yaml:"strategy" mapstructure:"strategy"`
}

// ServerConfig configures the read-only HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("NWPC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "nwpc.db")
	v.SetDefault("market.base_url", "https://nwmarketprices.com")
	v.SetDefault("market.rate_limit", 1.0)
	v.SetDefault("market.cache_ttl_hours", 24)
	v.SetDefault("market.timeout_secs", 15)
	v.SetDefault("market.refresh_concurrency", 4)
	v.SetDefault("evaluate.server_id", 1)
	v.SetDefault("evaluate.player_id", 1)
	v.SetDefault("evaluate.top_n", 50)
	v.SetDefault("evaluate.max_depth", 10)
	v.SetDefault("evaluate.strategy", "availability")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
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
