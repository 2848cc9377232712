// Package config provides application configuration.
//
// Values are layered: built-in defaults, then the optional TOML file
// (~/.config/diagrammer/config.toml), then DIAGRAMMER_* environment variables.
// A .env file in the working directory is loaded into the environment first
// and never overrides variables that are already set.
//
// The completion API key is deliberately absent: it is managed by the
// credential store only.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/matzehuels/diagrammer/pkg/completion"
	derrors "github.com/matzehuels/diagrammer/pkg/errors"
)

// AppName is used for config and cache directories.
const AppName = "diagrammer"

// Config holds all application configuration.
type Config struct {
	Engine     EngineConfig     `toml:"engine"`
	Completion CompletionConfig `toml:"completion"`
	Cache      CacheConfig      `toml:"cache"`
	History    HistoryConfig    `toml:"history"`
	Server     ServerConfig     `toml:"server"`

	// CredentialsPath is the JSON file holding the API key.
	CredentialsPath string `toml:"credentials_path"`
}

// EngineConfig selects the rendering engine.
type EngineConfig struct {
	Name             string `toml:"name"`
	KrokiURL         string `toml:"kroki_url"`
	KrokiDiagramType string `toml:"kroki_diagram_type"`
}

// CompletionConfig configures the completion service.
type CompletionConfig struct {
	Endpoint     string  `toml:"endpoint"`
	Model        string  `toml:"model"`
	Temperature  float64 `toml:"temperature"`
	ContentQuery string  `toml:"content_query"`
}

// CacheConfig selects the artifact cache backend.
type CacheConfig struct {
	Backend  string   `toml:"backend"` // file, redis or none
	Dir      string   `toml:"dir"`
	RedisURL string   `toml:"redis_url"`
	TTL      Duration `toml:"ttl"`
}

// HistoryConfig selects the generation history backend.
type HistoryConfig struct {
	Backend       string `toml:"backend"` // file, mongo or none
	Path          string `toml:"path"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Duration is a time.Duration that decodes from strings like "24h".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Backend names.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			Name:             "graphviz",
			KrokiURL:         "https://kroki.io",
			KrokiDiagramType: "mermaid",
		},
		Completion: CompletionConfig{
			Endpoint:     completion.DefaultEndpoint,
			Model:        completion.DefaultModel,
			Temperature:  completion.DefaultTemperature,
			ContentQuery: completion.DefaultContentQuery,
		},
		Cache: CacheConfig{
			Backend: BackendFile,
			Dir:     CacheDir(),
			TTL:     Duration{7 * 24 * time.Hour},
		},
		History: HistoryConfig{
			Backend:       BackendFile,
			Path:          filepath.Join(ConfigDir(), "history.jsonl"),
			MongoDatabase: AppName,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		CredentialsPath: filepath.Join(ConfigDir(), "credentials.json"),
	}
}

// Load reads configuration from path (DefaultPath when empty), the .env file
// and the environment, then validates it. A missing config file is not an
// error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat config %s: %w", path, err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Engine.Name = getEnv("DIAGRAMMER_ENGINE", c.Engine.Name)
	c.Engine.KrokiURL = getEnv("DIAGRAMMER_KROKI_URL", c.Engine.KrokiURL)
	c.Engine.KrokiDiagramType = getEnv("DIAGRAMMER_KROKI_TYPE", c.Engine.KrokiDiagramType)

	c.Completion.Endpoint = getEnv("DIAGRAMMER_COMPLETION_ENDPOINT", c.Completion.Endpoint)
	c.Completion.Model = getEnv("DIAGRAMMER_MODEL", c.Completion.Model)
	c.Completion.Temperature = getEnvFloat("DIAGRAMMER_TEMPERATURE", c.Completion.Temperature)
	c.Completion.ContentQuery = getEnv("DIAGRAMMER_CONTENT_QUERY", c.Completion.ContentQuery)

	c.Cache.Backend = getEnv("DIAGRAMMER_CACHE", c.Cache.Backend)
	c.Cache.Dir = getEnv("DIAGRAMMER_CACHE_DIR", c.Cache.Dir)
	c.Cache.RedisURL = getEnv("DIAGRAMMER_REDIS_URL", c.Cache.RedisURL)
	c.Cache.TTL.Duration = getEnvDuration("DIAGRAMMER_CACHE_TTL", c.Cache.TTL.Duration)
	if getEnvBool("DIAGRAMMER_NO_CACHE", false) {
		c.Cache.Backend = BackendNone
	}

	c.History.Backend = getEnv("DIAGRAMMER_HISTORY", c.History.Backend)
	c.History.Path = getEnv("DIAGRAMMER_HISTORY_PATH", c.History.Path)
	c.History.MongoURI = getEnv("DIAGRAMMER_MONGO_URI", c.History.MongoURI)
	c.History.MongoDatabase = getEnv("DIAGRAMMER_MONGO_DATABASE", c.History.MongoDatabase)

	c.Server.Addr = getEnv("DIAGRAMMER_ADDR", c.Server.Addr)
	c.CredentialsPath = getEnv("DIAGRAMMER_CREDENTIALS_PATH", c.CredentialsPath)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Engine.Name {
	case "graphviz", "kroki":
	default:
		return fmt.Errorf("engine.name must be graphviz or kroki, got %q", c.Engine.Name)
	}
	if c.Engine.Name == "kroki" {
		if err := derrors.ValidateURL(c.Engine.KrokiURL); err != nil {
			return fmt.Errorf("engine.kroki_url: %w", err)
		}
	}

	if err := derrors.ValidateURL(c.Completion.Endpoint); err != nil {
		return fmt.Errorf("completion.endpoint: %w", err)
	}
	if c.Completion.Model == "" {
		return fmt.Errorf("completion.model cannot be empty")
	}
	if c.Completion.Temperature < 0 || c.Completion.Temperature > 2 {
		return fmt.Errorf("completion.temperature must be between 0 and 2, got %v", c.Completion.Temperature)
	}

	switch c.Cache.Backend {
	case BackendFile:
		if c.Cache.Dir == "" {
			return fmt.Errorf("cache.dir cannot be empty")
		}
	case BackendRedis:
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("cache.redis_url is required for the redis backend")
		}
	case BackendNone:
	default:
		return fmt.Errorf("cache.backend must be file, redis or none, got %q", c.Cache.Backend)
	}
	if c.Cache.TTL.Duration < 0 {
		return fmt.Errorf("cache.ttl cannot be negative")
	}

	switch c.History.Backend {
	case BackendFile:
		if c.History.Path == "" {
			return fmt.Errorf("history.path cannot be empty")
		}
	case BackendMongo:
		if c.History.MongoURI == "" {
			return fmt.Errorf("history.mongo_uri is required for the mongo backend")
		}
	case BackendNone:
	default:
		return fmt.Errorf("history.backend must be file, mongo or none, got %q", c.History.Backend)
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr cannot be empty")
	}
	if c.CredentialsPath == "" {
		return fmt.Errorf("credentials_path cannot be empty")
	}
	return nil
}

// =============================================================================
// Paths
// =============================================================================

// ConfigDir returns the config directory using XDG standard (~/.config/diagrammer/).
func ConfigDir() string {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), AppName)
	}
	return filepath.Join(home, ".config", AppName)
}

// CacheDir returns the cache directory using XDG standard (~/.cache/diagrammer/).
func CacheDir() string {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), AppName+"-cache")
	}
	return filepath.Join(home, ".cache", AppName)
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// =============================================================================
// Environment helpers
// =============================================================================

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
