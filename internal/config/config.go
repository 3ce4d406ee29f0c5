package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	M2M      M2MConfig      `mapstructure:"m2m"`
	Log      LogConfig      `mapstructure:"log"`
	Data     DataConfig     `mapstructure:"data"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	Mode     string `mapstructure:"mode"`      // "development" or "production"
	BasePath string `mapstructure:"base_path"` // Prefix for every API route, e.g. "/api/v5"
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`            // "sqlite", "postgres" or "mysql"; derived from URL when empty
	URL             string `mapstructure:"url"`               // Connection string or sqlite file path
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`    // Maximum idle connections (Postgres/MySQL)
	MaxOpenConns    int    `mapstructure:"max_open_conns"`    // Maximum open connections (Postgres/MySQL)
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // Connection max lifetime in minutes
	LogLevel        string `mapstructure:"log_level"`         // GORM log level, follows log.level when empty
}

// AuthConfig holds token verification configuration
type AuthConfig struct {
	Secret       string `mapstructure:"secret"`        // HS256 secret
	ValidIssuers string `mapstructure:"valid_issuers"` // JSON array or comma separated list
}

// M2MConfig holds machine-to-machine token configuration
type M2MConfig struct {
	TokenURL       string `mapstructure:"token_url"`
	Audience       string `mapstructure:"audience"`
	ClientID       string `mapstructure:"client_id"`
	ClientSecret   string `mapstructure:"client_secret"`
	ProxyServerURL string `mapstructure:"proxy_server_url"`
	TokenCacheTime int    `mapstructure:"token_cache_time"` // Seconds; 0 means use the token's own expiry
	ValkeyAddr     string `mapstructure:"valkey_addr"`      // Shared token cache, in-process cache when empty
	AuditUserID    string `mapstructure:"audit_user_id"`
	AuditHandle    string `mapstructure:"audit_handle"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Format string `mapstructure:"format"` // "json" or "text"
	Level  string `mapstructure:"level"`  // "debug", "info", "warn", "error"
}

// DataConfig holds bulk import/export configuration
type DataConfig struct {
	FilePath string `mapstructure:"file_path"`
}

// legacyEnv maps config keys to the environment variable names used by
// existing deployments. The AUTHZ_ prefixed form is always accepted as well.
var legacyEnv = map[string]string{
	"server.port":          "PORT",
	"server.base_path":     "BASE_PATH",
	"server.mode":          "SERVER_MODE",
	"database.driver":      "DB_DRIVER",
	"database.url":         "DATABASE_URL",
	"auth.secret":          "AUTH_SECRET",
	"auth.valid_issuers":   "VALID_ISSUERS",
	"m2m.token_url":        "AUTH0_URL",
	"m2m.audience":         "AUTH0_AUDIENCE",
	"m2m.client_id":        "AUTH0_CLIENT_ID",
	"m2m.client_secret":    "AUTH0_CLIENT_SECRET",
	"m2m.proxy_server_url": "AUTH0_PROXY_SERVER_URL",
	"m2m.token_cache_time": "TOKEN_CACHE_TIME",
	"m2m.valkey_addr":      "VALKEY_ADDR",
	"m2m.audit_user_id":    "M2M_AUDIT_USER_ID",
	"m2m.audit_handle":     "M2M_AUDIT_HANDLE",
	"log.level":            "LOG_LEVEL",
	"log.format":           "LOG_FORMAT",
	"data.file_path":       "DEFAULT_DATA_FILE_PATH",
}

const envPrefix = "AUTHZ"

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults for local development
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.mode", "development")
	v.SetDefault("server.base_path", "/api/v5")
	v.SetDefault("database.driver", "")
	v.SetDefault("database.url", "./authz.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60) // 60 minutes
	v.SetDefault("database.log_level", "")
	v.SetDefault("auth.secret", "mysecret")
	v.SetDefault("auth.valid_issuers", `["https://api.topcoder-dev.com", "https://api.topcoder.com", "https://topcoder-dev.auth0.com/", "https://auth.topcoder-dev.com/"]`)
	v.SetDefault("m2m.token_url", "")
	v.SetDefault("m2m.audience", "")
	v.SetDefault("m2m.client_id", "")
	v.SetDefault("m2m.client_secret", "")
	v.SetDefault("m2m.proxy_server_url", "")
	v.SetDefault("m2m.token_cache_time", 0)
	v.SetDefault("m2m.valkey_addr", "")
	v.SetDefault("m2m.audit_user_id", "00000000")
	v.SetDefault("m2m.audit_handle", "TopcoderService")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.level", "debug")
	v.SetDefault("data.file_path", "./data/demo-data.json")

	// Read from config file if exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/authz/")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, using defaults
	}

	// Environment variables override
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("error binding env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if _, err := cfg.Auth.Issuers(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Issuers parses the accepted token issuers. Both a JSON array and a comma
// separated list are accepted.
func (a AuthConfig) Issuers() ([]string, error) {
	raw := strings.TrimSpace(a.ValidIssuers)
	if raw == "" {
		return nil, nil
	}

	if strings.HasPrefix(raw, "[") {
		var issuers []string
		if err := json.Unmarshal([]byte(raw), &issuers); err != nil {
			return nil, fmt.Errorf("invalid VALID_ISSUERS: %w", err)
		}
		return issuers, nil
	}

	var issuers []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			issuers = append(issuers, part)
		}
	}
	return issuers, nil
}
