package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the central typed configuration struct.
// Embed or extend it in your app's own AppConfig.
type Config struct {
	App       AppConfig
	Log       LogConfig
	Container ContainerConfig

	// values read from the .env files; the process environment wins over them
	values map[string]string
}

type AppConfig struct {
	Name  string
	Env   string // local | production | testing
	Debug bool
	URL   string
	Port  string

	// ShutdownTimeout bounds the graceful HTTP shutdown.
	ShutdownTimeout time.Duration
}

type LogConfig struct {
	Level  string // debug | info | warn | error
	Format string // json | text
}

type ContainerConfig struct {
	// Manifest is the path of a YAML container manifest applied at boot.
	// Empty disables it.
	Manifest string
}

// Load reads the .env files (missing files are skipped) and populates a
// Config from them and the process environment. The environment is not
// modified. Call once at bootstrap:
//
//	cfg, err := config.Load()
func Load(envFiles ...string) (*Config, error) {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}

	values := make(map[string]string)
	for _, file := range files {
		m, err := godotenv.Read(file)
		if errors.Is(err, fs.ErrNotExist) {
			// Non-fatal: .env may not exist in production
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", file, err)
		}
		for k, v := range m {
			// First file wins, as with godotenv.Load
			if _, ok := values[k]; !ok {
				values[k] = v
			}
		}
	}

	cfg := &Config{values: values}
	cfg.App = AppConfig{
		Name:            cfg.Get("APP_NAME", "go-container"),
		Env:             cfg.Get("APP_ENV", "local"),
		Debug:           cfg.GetBool("APP_DEBUG", false),
		URL:             cfg.Get("APP_URL", "http://localhost"),
		Port:            cfg.Get("APP_PORT", "8000"),
		ShutdownTimeout: time.Duration(cfg.GetInt("APP_SHUTDOWN_TIMEOUT", 10)) * time.Second,
	}
	cfg.Log = LogConfig{
		Level:  cfg.Get("LOG_LEVEL", "info"),
		Format: cfg.Get("LOG_FORMAT", "json"),
	}
	cfg.Container = ContainerConfig{
		Manifest: cfg.Get("CONTAINER_MANIFEST", ""),
	}
	return cfg, nil
}

// Get returns a raw value, falling back to defaultVal.
func (c *Config) Get(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if v := c.values[key]; v != "" {
		return v
	}
	return defaultVal
}

// GetInt returns an int value.
func (c *Config) GetInt(key string, defaultVal int) int {
	v := c.Get(key, "")
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// GetBool returns a bool value.
func (c *Config) GetBool(key string, defaultVal bool) bool {
	v := c.Get(key, "")
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}
