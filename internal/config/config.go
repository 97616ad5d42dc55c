package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration
type Config struct {
	Server    ServerConfig    `json:"server"`
	Fetcher   FetcherConfig   `json:"fetcher"`
	Captioner CaptionerConfig `json:"captioner"`
	Store     StoreConfig     `json:"store"`
	Log       LogConfig       `json:"log"`
}

// ServerConfig holds configuration for the HTTP surface
type ServerConfig struct {
	ListenAddr string `json:"listen_addr"`
}

// FetcherConfig holds configuration for image fetching
type FetcherConfig struct {
	TimeoutSeconds int   `json:"timeout_seconds"`
	MaxBodyBytes   int64 `json:"max_body_bytes"`
}

// CaptionerConfig holds configuration for the model-backed captioner
type CaptionerConfig struct {
	Backend   string `json:"backend"` // none|infer|ollama|openai
	URL       string `json:"url"`
	Model     string `json:"model"`
	APIKey    string `json:"api_key"`
	MaxTokens int    `json:"max_tokens"`
}

// StoreConfig holds configuration for the record store
type StoreConfig struct {
	SQLitePath string `json:"sqlite_path"`
}

// LogConfig holds configuration for logging
type LogConfig struct {
	Level string `json:"level"` // debug|info|warn|error
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: ":8080",
		},
		Fetcher: FetcherConfig{
			TimeoutSeconds: 15,
			MaxBodyBytes:   5 << 20,
		},
		Captioner: CaptionerConfig{
			Backend:   "none",
			MaxTokens: 48,
		},
		Store: StoreConfig{
			SQLitePath: "alt-text-service.db",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadFromFile loads configuration from a JSON file
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// ApplyEnv overrides configuration from ALTTEXT_* environment variables.
// Unset variables leave the current value alone; a set but unparseable value
// is an error rather than a silent fallback to the default.
func (c *Config) ApplyEnv() error {
	setString(&c.Server.ListenAddr, "ALTTEXT_LISTEN_ADDR")
	setString(&c.Captioner.Backend, "ALTTEXT_CAPTIONER_BACKEND")
	setString(&c.Captioner.URL, "ALTTEXT_CAPTIONER_URL")
	setString(&c.Captioner.Model, "ALTTEXT_CAPTIONER_MODEL")
	setString(&c.Captioner.APIKey, "ALTTEXT_CAPTIONER_API_KEY")
	setString(&c.Store.SQLitePath, "ALTTEXT_SQLITE_PATH")
	setString(&c.Log.Level, "ALTTEXT_LOG_LEVEL")

	if err := setInt(&c.Fetcher.TimeoutSeconds, "ALTTEXT_FETCH_TIMEOUT_SECONDS"); err != nil {
		return err
	}
	if err := setInt64(&c.Fetcher.MaxBodyBytes, "ALTTEXT_FETCH_MAX_BODY_BYTES"); err != nil {
		return err
	}
	return setInt(&c.Captioner.MaxTokens, "ALTTEXT_CAPTIONER_MAX_TOKENS")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr cannot be empty")
	}

	if c.Fetcher.TimeoutSeconds < 1 {
		return fmt.Errorf("fetcher.timeout_seconds must be positive")
	}

	if c.Fetcher.MaxBodyBytes < 1 {
		return fmt.Errorf("fetcher.max_body_bytes must be positive")
	}

	switch c.Captioner.Backend {
	case "", "none":
	case "infer", "ollama":
	case "openai":
		if c.Captioner.Model == "" {
			return fmt.Errorf("captioner.model is required for the openai backend")
		}
	default:
		return fmt.Errorf("captioner.backend must be one of none, infer, ollama, openai")
	}

	if c.Captioner.MaxTokens < 1 {
		return fmt.Errorf("captioner.max_tokens must be positive")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}

	return nil
}

// FetchTimeout returns the fetch timeout as a duration
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetcher.TimeoutSeconds) * time.Second
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: invalid integer %q", key, v)
	}
	*dst = n
	return nil
}

func setInt64(dst *int64, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("%s: invalid integer %q", key, v)
	}
	*dst = n
	return nil
}
