package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate points XDG dirs and the working directory at a temp dir so that
// neither a real config file nor a real .env leaks into the test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Chdir(dir)
	return dir
}

func TestDefault(t *testing.T) {
	isolate(t)
	cfg := Default()

	if cfg.Engine.Name != "graphviz" {
		t.Errorf("Engine.Name = %q, want graphviz", cfg.Engine.Name)
	}
	if cfg.Completion.Model != "gpt-4o-mini" {
		t.Errorf("Completion.Model = %q", cfg.Completion.Model)
	}
	if cfg.Completion.Temperature != 0.7 {
		t.Errorf("Completion.Temperature = %v", cfg.Completion.Temperature)
	}
	if !strings.HasSuffix(cfg.CredentialsPath, filepath.Join("diagrammer", "credentials.json")) {
		t.Errorf("CredentialsPath = %q", cfg.CredentialsPath)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	isolate(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Engine.Name != "graphviz" {
		t.Errorf("Engine.Name = %q", cfg.Engine.Name)
	}
}

func TestLoad_TOMLFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	content := `
[engine]
name = "kroki"
kroki_url = "http://localhost:8000"

[completion]
model = "gpt-4o"
temperature = 0.2

[cache]
backend = "none"
ttl = "1h"

[server]
addr = ":9090"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Engine.Name != "kroki" || cfg.Engine.KrokiURL != "http://localhost:8000" {
		t.Errorf("Engine = %+v", cfg.Engine)
	}
	if cfg.Engine.KrokiDiagramType != "mermaid" {
		t.Errorf("unset field lost its default: %q", cfg.Engine.KrokiDiagramType)
	}
	if cfg.Completion.Model != "gpt-4o" || cfg.Completion.Temperature != 0.2 {
		t.Errorf("Completion = %+v", cfg.Completion)
	}
	if cfg.Cache.Backend != BackendNone || cfg.Cache.TTL.Duration != time.Hour {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	os.WriteFile(path, []byte("[completion]\nmodel = \"from-file\"\n"), 0644)

	t.Setenv("DIAGRAMMER_MODEL", "from-env")
	t.Setenv("DIAGRAMMER_TEMPERATURE", "1.5")
	t.Setenv("DIAGRAMMER_NO_CACHE", "true")
	t.Setenv("DIAGRAMMER_CACHE_TTL", "30m")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Completion.Model != "from-env" {
		t.Errorf("Model = %q, want from-env", cfg.Completion.Model)
	}
	if cfg.Completion.Temperature != 1.5 {
		t.Errorf("Temperature = %v", cfg.Completion.Temperature)
	}
	if cfg.Cache.Backend != BackendNone {
		t.Errorf("Cache.Backend = %q, want none", cfg.Cache.Backend)
	}
	if cfg.Cache.TTL.Duration != 30*time.Minute {
		t.Errorf("Cache.TTL = %v", cfg.Cache.TTL)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	os.Unsetenv("DIAGRAMMER_ADDR")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("DIAGRAMMER_ADDR=:7070\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("DIAGRAMMER_ADDR") })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Addr != ":7070" {
		t.Errorf("Server.Addr = %q, want :7070 from .env", cfg.Server.Addr)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	os.WriteFile(path, []byte("[engine\nname = "), 0644)

	if _, err := Load(path); err == nil {
		t.Error("Load() with malformed TOML: expected error")
	}
}

func TestValidate(t *testing.T) {
	isolate(t)
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown engine", func(c *Config) { c.Engine.Name = "mermaid-cli" }},
		{"kroki without url", func(c *Config) { c.Engine.Name = "kroki"; c.Engine.KrokiURL = "" }},
		{"bad endpoint", func(c *Config) { c.Completion.Endpoint = "ftp://x" }},
		{"empty model", func(c *Config) { c.Completion.Model = "" }},
		{"temperature too high", func(c *Config) { c.Completion.Temperature = 2.5 }},
		{"negative temperature", func(c *Config) { c.Completion.Temperature = -0.1 }},
		{"unknown cache backend", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"redis without url", func(c *Config) { c.Cache.Backend = BackendRedis }},
		{"mongo without uri", func(c *Config) { c.History.Backend = BackendMongo }},
		{"unknown history backend", func(c *Config) { c.History.Backend = "sqlite" }},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"empty credentials path", func(c *Config) { c.CredentialsPath = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestPaths(t *testing.T) {
	dir := isolate(t)
	if got := ConfigDir(); got != filepath.Join(dir, "config", "diagrammer") {
		t.Errorf("ConfigDir() = %q", got)
	}
	if got := CacheDir(); got != filepath.Join(dir, "cache", "diagrammer") {
		t.Errorf("CacheDir() = %q", got)
	}
	if got := DefaultPath(); got != filepath.Join(dir, "config", "diagrammer", "config.toml") {
		t.Errorf("DefaultPath() = %q", got)
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("DIAGRAMMER_TEST_BOOL", "yes")
	t.Setenv("DIAGRAMMER_TEST_FLOAT", "not-a-number")
	t.Setenv("DIAGRAMMER_TEST_DURATION", "2s")

	if !getEnvBool("DIAGRAMMER_TEST_BOOL", false) {
		t.Error("getEnvBool(yes) = false")
	}
	if got := getEnvFloat("DIAGRAMMER_TEST_FLOAT", 0.7); got != 0.7 {
		t.Errorf("getEnvFloat(invalid) = %v, want fallback", got)
	}
	if got := getEnvDuration("DIAGRAMMER_TEST_DURATION", 0); got != 2*time.Second {
		t.Errorf("getEnvDuration = %v", got)
	}
	if got := getEnv("DIAGRAMMER_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("getEnv(unset) = %q", got)
	}
}
