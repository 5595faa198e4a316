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
	Columns ColumnsConfig `yaml:"columns" mapstructure:"columns"`
	Hotspot HotspotConfig `yaml:"hotspot" mapstructure:"hotspot"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// ColumnsConfig names the point-table columns the analyses bind to.
// Any other columns in an input table pass through untouched.
type ColumnsConfig struct {
	ID        string `yaml:"id" mapstructure:"id"`
	Latitude  string `yaml:"latitude" mapstructure:"latitude"`
	Longitude string `yaml:"longitude" mapstructure:"longitude"`
	Value     string `yaml:"value" mapstructure:"value"`
}

// HotspotConfig configures the Gi* computation.
type HotspotConfig struct {
	KNeighbors int `yaml:"k_neighbors" mapstructure:"k_neighbors"`
	Workers    int `yaml:"workers" mapstructure:"workers"`
}

// StoreConfig configures the run-history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the analysis API server.
type ServerConfig struct {
	Port      int     `yaml:"port" mapstructure:"port"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst int     `yaml:"rate_burst" mapstructure:"rate_burst"`
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
	v.SetEnvPrefix("HOTSPOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("columns.id", "id")
	v.SetDefault("columns.latitude", "latitude")
	v.SetDefault("columns.longitude", "longitude")
	v.SetDefault("columns.value", "value")
	v.SetDefault("hotspot.k_neighbors", 8)
	v.SetDefault("hotspot.workers", 0)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "hotspot.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit", 10.0)
	v.SetDefault("server.rate_burst", 20)
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

// Validate checks the fields required by the given mode ("analyze" or
// "serve"). All problems are reported in a single error.
func (c *Config) Validate(mode string) error {
	var problems []string

	check := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	switch mode {
	case "analyze":
		check(c.Columns.Latitude != "", "columns.latitude is required")
		check(c.Columns.Longitude != "", "columns.longitude is required")
		check(c.Columns.Value != "", "columns.value is required")
		check(c.Hotspot.KNeighbors >= 1, "hotspot.k_neighbors must be >= 1")
		check(c.Hotspot.Workers >= 0, "hotspot.workers must be >= 0")
	case "serve":
		check(c.Server.Port > 0, "server.port must be > 0")
		check(c.Server.RateLimit > 0, "server.rate_limit must be > 0")
		check(c.Server.RateBurst >= 1, "server.rate_burst must be >= 1")
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Store.Driver {
	case "sqlite", "postgres", "off":
	default:
		problems = append(problems, "store.driver must be sqlite, postgres, or off")
	}
	if c.Store.Driver != "off" {
		check(c.Store.DatabaseURL != "", "store.database_url is required")
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
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
