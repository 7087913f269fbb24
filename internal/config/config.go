package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the complete application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Sweep    SweepConfig    `mapstructure:"sweep"`
	Client   ClientConfig   `mapstructure:"client"`
}

type ServerConfig struct {
	Port        string        `mapstructure:"port"`
	CORSOrigins []string      `mapstructure:"cors_origins"`
	CORSMaxAge  time.Duration `mapstructure:"cors_max_age"`
}

type DatabaseConfig struct {
	Driver        string `mapstructure:"driver"`
	Path          string `mapstructure:"path"`
	MigrationsDir string `mapstructure:"migrations_dir"`
}

// AuthConfig controls bearer-token auth. When Required is false, requests
// without a token act as the default user.
type AuthConfig struct {
	Required  bool          `mapstructure:"required"`
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CacheConfig struct {
	Type  string        `mapstructure:"type"`
	Size  int           `mapstructure:"size"`
	TTL   time.Duration `mapstructure:"ttl"`
	Redis RedisConfig   `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type SweepConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// ClientConfig is read by the terminal client.
type ClientConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Token          string        `mapstructure:"token"`
	DataDir        string        `mapstructure:"data_dir"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Offline        bool          `mapstructure:"offline"`
}

// Load reads defaults, then the optional YAML file at configPath, then
// HONQUEDORO_* environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("HONQUEDORO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.cors_origins", []string{"http://localhost:4200", "http://127.0.0.1:4200"})
	v.SetDefault("server.cors_max_age", "24h")

	// Database defaults
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.path", "./data/honquedoro.db")
	v.SetDefault("database.migrations_dir", "./migrations")

	// Auth defaults
	v.SetDefault("auth.required", false)
	v.SetDefault("auth.jwt_secret", "change-this-secret")
	v.SetDefault("auth.token_ttl", "72h")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.size", 1024)
	v.SetDefault("cache.ttl", "30s")
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)

	// Sweeper defaults
	v.SetDefault("sweep.interval", "5s")

	// Client defaults
	v.SetDefault("client.base_url", "http://localhost:8080/api")
	v.SetDefault("client.token", "")
	v.SetDefault("client.data_dir", "./data/client")
	v.SetDefault("client.poll_interval", "10s")
	v.SetDefault("client.request_timeout", "5s")
	v.SetDefault("client.offline", false)
}

func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	switch cfg.Database.Driver {
	case "sqlite3", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
	if cfg.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if cfg.Auth.Required && cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("jwt secret is required when auth is required")
	}
	if cfg.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive")
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s", cfg.Logging.Format)
	}

	switch cfg.Cache.Type {
	case "memory", "none":
	case "redis":
		if cfg.Cache.Redis.Addr == "" {
			return fmt.Errorf("redis address is required for the redis cache")
		}
	default:
		return fmt.Errorf("invalid cache type: %s", cfg.Cache.Type)
	}
	if cfg.Cache.Type == "memory" && cfg.Cache.Size <= 0 {
		return fmt.Errorf("cache size must be positive")
	}

	if cfg.Sweep.Interval <= 0 {
		return fmt.Errorf("sweep interval must be positive")
	}
	if cfg.Client.PollInterval <= 0 {
		return fmt.Errorf("client poll interval must be positive")
	}
	if cfg.Client.RequestTimeout <= 0 {
		return fmt.Errorf("client request timeout must be positive")
	}

	return nil
}
