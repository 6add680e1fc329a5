package config

import (
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Session SessionConfig `mapstructure:"session"`
	Store   StoreConfig   `mapstructure:"store"`
	Log     LogConfig     `mapstructure:"log"`
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Port string    `mapstructure:"port"`
	TLS  TLSConfig `mapstructure:"tls"`
}

// TLSConfig holds TLS-specific configuration.
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
}

// SessionConfig holds the session cookie parameters and store lifetimes.
// Durations are expressed in seconds.
type SessionConfig struct {
	Name           string `mapstructure:"name"`
	CookieLifetime int    `mapstructure:"cookie_lifetime"` // 0 = until the browser is closed
	CookiePath     string `mapstructure:"cookie_path"`
	CookieDomain   string `mapstructure:"cookie_domain"`
	CookieSecure   bool   `mapstructure:"cookie_secure"`
	CookieHTTPOnly bool   `mapstructure:"cookie_httponly"`
	CookieSameSite string `mapstructure:"cookie_samesite"` // "Lax", "Strict", "None" or empty
	GCMaxLifetime  int    `mapstructure:"gc_max_lifetime"` // idle time before stored data is considered garbage
	MaxLifetime    int    `mapstructure:"max_lifetime"`    // absolute lifetime of stored data
}

// StoreConfig selects and configures the session storage backend.
type StoreConfig struct {
	Driver          string        `mapstructure:"driver"` // memory, sqlite, sqlite3, mysql, redis
	DSN             string        `mapstructure:"dsn"`
	Migrations      string        `mapstructure:"migrations"`
	Prefix          string        `mapstructure:"prefix"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // e.g., "debug", "info", "warn", "error"
	Format string `mapstructure:"format"` // e.g., "json", "console"
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	// Set default values
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("session.name", "SESSID")
	viper.SetDefault("session.cookie_lifetime", 0)
	viper.SetDefault("session.cookie_path", "/")
	viper.SetDefault("session.cookie_domain", "")
	viper.SetDefault("session.cookie_secure", false)
	viper.SetDefault("session.cookie_httponly", true)
	viper.SetDefault("session.cookie_samesite", "Lax")
	viper.SetDefault("session.gc_max_lifetime", 1440)
	viper.SetDefault("session.max_lifetime", 86400)
	viper.SetDefault("store.driver", "memory")
	viper.SetDefault("store.dsn", "")
	viper.SetDefault("store.migrations", "migrations/mysql")
	viper.SetDefault("store.prefix", "sessiond:")
	viper.SetDefault("store.cleanup_interval", "5m")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")

	// Set up viper to read from config file
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("/etc/sessiond/")
	viper.AddConfigPath("$HOME/.sessiond")

	// Attempt to read the config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return nil, err
		}
		// Config file not found; proceed with defaults and env vars
	}

	// Set up viper to read from environment variables
	viper.SetEnvPrefix("SESSIOND")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	return current()
}

// Watch calls onChange with the reloaded configuration every time the config
// file changes on disk. It is a no-op when no config file was found.
func Watch(onChange func(*Config, error)) {
	if viper.ConfigFileUsed() == "" {
		return
	}
	viper.OnConfigChange(func(fsnotify.Event) {
		onChange(current())
	})
	viper.WatchConfig()
}

func current() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
