// Package config loads server configuration from command-line flags, environment
// variables and an optional .env file.
package config

import (
	"bufio"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store backends.
const (
	StoreBadger = "badger"
	StoreSQLite = "sqlite"
)

// Settings backends.
const (
	SettingsStore  = "store"
	SettingsRedis  = "redis"
	SettingsMemory = "memory"
)

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Storage  StorageConfig
	Settings SettingsConfig
	Server   ServerConfig
	Auth     AuthConfig
	Lookup   LookupConfig
	Import   ImportConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
	// Locale drives title/author collation, e.g. "en" or "de".
	Locale string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// StorageConfig selects where library documents live.
type StorageConfig struct {
	DataPath string
	Backend  string // badger or sqlite
}

// SettingsConfig selects the key-value store for per-user settings such as recent searches.
type SettingsConfig struct {
	Backend  string // store, redis or memory
	RedisURL string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	CORSOrigins  []string
}

// AuthConfig holds session token verification settings.
type AuthConfig struct {
	// TokenKey is the PASETO v4 symmetric key. Nil means load or generate one under DataPath.
	TokenKey      []byte
	TokenDuration time.Duration
}

// LookupConfig holds bibliographic lookup settings.
type LookupConfig struct {
	Enabled           bool
	Timeout           time.Duration
	GoogleBooksAPIKey string
}

// ImportConfig configures the watch-folder importer. Empty Dir disables it.
type ImportConfig struct {
	WatchDir  string
	WatchUser string
}

// Load reads configuration with precedence:
// 1. Command-line flags.
// 2. Environment variables.
// 3. .env file.
// 4. Defaults.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("bookshelf", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	locale := fs.String("locale", "", "Collation locale for sorting (default: en)")
	dataPath := fs.String("data-path", "", "Directory for library data")
	storeBackend := fs.String("store", "", "Document store backend (badger, sqlite)")
	settingsBackend := fs.String("settings", "", "Settings backend (store, redis, memory)")
	redisURL := fs.String("redis-url", "", "Redis URL for the redis settings backend")
	port := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 60s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-origins", "", "Comma-separated allowed origins")
	tokenDuration := fs.String("token-duration", "", "Session token lifetime (default: 720h)")
	lookupEnabled := fs.String("lookup", "", "Enable bibliographic lookup (default: true)")
	lookupTimeout := fs.String("lookup-timeout", "", "Lookup request timeout (default: 10s)")
	watchDir := fs.String("import-watch-dir", "", "Directory watched for backup files to import")
	watchUser := fs.String("import-watch-user", "", "User that watched imports belong to")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
			Locale:      getConfigValue(*locale, "LOCALE", "en"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Storage: StorageConfig{
			DataPath: getConfigValue(*dataPath, "DATA_PATH", ""),
			Backend:  getConfigValue(*storeBackend, "STORE_BACKEND", StoreBadger),
		},
		Settings: SettingsConfig{
			Backend:  getConfigValue(*settingsBackend, "SETTINGS_BACKEND", SettingsStore),
			RedisURL: getConfigValue(*redisURL, "REDIS_URL", ""),
		},
		Server: ServerConfig{
			Port:        getConfigValue(*port, "SERVER_PORT", "8080"),
			CORSOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ORIGINS", "")),
		},
		Lookup: LookupConfig{
			Enabled:           getBoolConfigValue(*lookupEnabled, "LOOKUP_ENABLED", true),
			GoogleBooksAPIKey: getConfigValue("", "GOOGLE_BOOKS_API_KEY", ""),
		},
		Import: ImportConfig{
			WatchDir:  getConfigValue(*watchDir, "IMPORT_WATCH_DIR", ""),
			WatchUser: getConfigValue(*watchUser, "IMPORT_WATCH_USER", ""),
		},
	}

	durations := []struct {
		name   string
		flag   string
		envKey string
		def    string
		dst    *time.Duration
	}{
		{"read timeout", *readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{"write timeout", *writeTimeout, "SERVER_WRITE_TIMEOUT", "60s", &cfg.Server.WriteTimeout},
		{"idle timeout", *idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
		{"token duration", *tokenDuration, "TOKEN_DURATION", "720h", &cfg.Auth.TokenDuration},
		{"lookup timeout", *lookupTimeout, "LOOKUP_TIMEOUT", "10s", &cfg.Lookup.Timeout},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flag, d.envKey, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.name, raw, err)
		}
		*d.dst = parsed
	}

	if raw := os.Getenv("AUTH_KEY"); raw != "" {
		key, err := hex.DecodeString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid AUTH_KEY: %w", err)
		}
		cfg.Auth.TokenKey = key
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that config values are present and consistent.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	case "":
		return errors.New("ENV is required")
	default:
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Storage.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	switch c.Storage.Backend {
	case StoreBadger, StoreSQLite:
	default:
		return fmt.Errorf("invalid store backend: %s (must be badger or sqlite)", c.Storage.Backend)
	}

	switch c.Settings.Backend {
	case SettingsStore, SettingsMemory:
	case SettingsRedis:
		if c.Settings.RedisURL == "" {
			return errors.New("REDIS_URL is required for the redis settings backend")
		}
	default:
		return fmt.Errorf("invalid settings backend: %s (must be store, redis, or memory)", c.Settings.Backend)
	}

	if c.Auth.TokenKey != nil && len(c.Auth.TokenKey) != 32 {
		return fmt.Errorf("AUTH_KEY must be 32 bytes, got %d", len(c.Auth.TokenKey))
	}

	if c.Import.WatchDir != "" && c.Import.WatchUser == "" {
		return errors.New("IMPORT_WATCH_USER is required when IMPORT_WATCH_DIR is set")
	}

	return nil
}

func (c *Config) expandPaths() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	c.Storage.DataPath, err = expandPath(c.Storage.DataPath, filepath.Join(home, "Bookshelf", "data"))
	if err != nil {
		return fmt.Errorf("invalid data path: %w", err)
	}

	if c.Import.WatchDir != "" {
		c.Import.WatchDir, err = expandPath(c.Import.WatchDir, "")
		if err != nil {
			return fmt.Errorf("invalid import watch dir: %w", err)
		}
	}
	return nil
}

// expandPath expands ~ and makes the path absolute. Empty path yields defaultPath.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = abs
	}

	return filepath.Clean(path), nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return defaultValue
}

// getBoolConfigValue treats "true", "1" and "yes" as true.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	v := strings.ToLower(getConfigValue(flagValue, envKey, ""))
	if v == "" {
		return defaultValue
	}
	return v == "true" || v == "1" || v == "yes"
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// loadEnvFile sets variables from a KEY=value file without overriding the real environment.
func loadEnvFile(path string) error {
	f, err := os.Open(path) //#nosec G304 -- operator-supplied path
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}
