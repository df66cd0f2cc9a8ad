package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"reviewrec/internal/domain"
	"reviewrec/internal/service"
)

// EnvPrefix prefixes environment overrides. Nested keys use a double
// underscore: REVIEWREC_RECOMMENDER__MIN_SIM=0.3.
const EnvPrefix = "REVIEWREC_"

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL          string `yaml:"base_url" koanf:"base_url"`
	APIKeyEnv        string `yaml:"api_key_env" koanf:"api_key_env"`
	Model            string `yaml:"model" koanf:"model"`
	TimeoutSecs      int    `yaml:"timeout_secs" koanf:"timeout_secs"`
	BatchSize        int    `yaml:"batch_size" koanf:"batch_size"`
	FailureThreshold uint32 `yaml:"failure_threshold" koanf:"failure_threshold"`
}

// StaticEmbedderConfig configures the hashed offline embedder.
type StaticEmbedderConfig struct {
	Dimensions int `yaml:"dimensions" koanf:"dimensions"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type      string               `yaml:"type" koanf:"type"`
	CacheSize int                  `yaml:"cache_size" koanf:"cache_size"`
	OpenAI    OpenAIEmbedderConfig `yaml:"openai" koanf:"openai"`
	Static    StaticEmbedderConfig `yaml:"static" koanf:"static"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string       `yaml:"type" koanf:"type"`
	Qdrant QdrantConfig `yaml:"qdrant" koanf:"qdrant"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url" koanf:"url"`
	APIKey      string `yaml:"api_key" koanf:"api_key"`
	Collection  string `yaml:"collection" koanf:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs" koanf:"timeout_secs"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string `yaml:"addr" koanf:"addr"`
	RateLimit       int    `yaml:"rate_limit" koanf:"rate_limit"`
	RateWindowSecs  int    `yaml:"rate_window_secs" koanf:"rate_window_secs"`
	ShutdownSecs    int    `yaml:"shutdown_secs" koanf:"shutdown_secs"`
	RequestTimeSecs int    `yaml:"request_timeout_secs" koanf:"request_timeout_secs"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `yaml:"level" koanf:"level"`
	Format string `yaml:"format" koanf:"format"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	// DataPath loads a single untagged file instead of Sources when set.
	DataPath    string            `yaml:"data_path" koanf:"data_path"`
	Sources     []domain.Source   `yaml:"sources" koanf:"sources"`
	Embedder    EmbedderConfig    `yaml:"embedder" koanf:"embedder"`
	VectorStore VectorStoreConfig `yaml:"vector_store" koanf:"vector_store"`
	Recommender service.Config    `yaml:"recommender" koanf:"recommender"`
	Server      ServerConfig      `yaml:"server" koanf:"server"`
	Logging     LoggingConfig     `yaml:"logging" koanf:"logging"`
}

// Load reads a config from path, layered over defaults and under
// environment overrides. A missing file yields defaults plus environment.
func Load(path string) (*AppConfig, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	applyConfigDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/reviewrec/config.yaml.
// If neither exists, it writes defaults to ~/.config/reviewrec/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := DefaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	if err := Save(userPath, Default()); err != nil {
		return nil, "", err
	}
	cfg, err := Load(userPath)
	return cfg, userPath, err
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yamlv3.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// DefaultUserConfigPath returns ~/.config/reviewrec/config.yaml.
func DefaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "reviewrec", "config.yaml"), nil
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	return &AppConfig{
		Sources: []domain.Source{
			{Path: "data/fightclub_critiques.csv", MovieID: "FC", MovieTitle: "Fight Club"},
			{Path: "data/interstellar_critiques.csv", MovieID: "INT", MovieTitle: "Interstellar"},
		},
		Embedder: EmbedderConfig{
			Type:      "openai",
			CacheSize: 1000,
			OpenAI: OpenAIEmbedderConfig{
				BaseURL:          "http://localhost:11434/v1",
				APIKeyEnv:        "OPENAI_API_KEY",
				Model:            "paraphrase-multilingual",
				TimeoutSecs:      60,
				BatchSize:        64,
				FailureThreshold: 3,
			},
			Static: StaticEmbedderConfig{Dimensions: 256},
		},
		VectorStore: VectorStoreConfig{
			Type: "memory",
			Qdrant: QdrantConfig{
				URL:         "http://localhost:6333",
				Collection:  "reviews",
				TimeoutSecs: 15,
			},
		},
		Recommender: service.DefaultConfig(),
		Server: ServerConfig{
			Addr:            ":8000",
			RateLimit:       100,
			RateWindowSecs:  60,
			ShutdownSecs:    10,
			RequestTimeSecs: 30,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

// Validate checks values a loaded file or environment may have broken.
func (c *AppConfig) Validate() error {
	if c.DataPath == "" && len(c.Sources) == 0 {
		return errors.New("config: no data_path and no sources")
	}
	for i, s := range c.Sources {
		if s.Path == "" || s.MovieID == "" {
			return fmt.Errorf("config: source %d needs path and movie_id", i)
		}
	}
	r := c.Recommender
	if r.Alpha < 0 || r.Alpha > 1 {
		return fmt.Errorf("config: recommender.alpha %v outside [0, 1]", r.Alpha)
	}
	switch c.Embedder.Type {
	case "openai", "static":
	default:
		return fmt.Errorf("config: unknown embedder %q", c.Embedder.Type)
	}
	switch c.VectorStore.Type {
	case "memory", "qdrant":
	default:
		return fmt.Errorf("config: unknown vector store %q", c.VectorStore.Type)
	}
	return nil
}

func applyConfigDefaults(cfg *AppConfig) {
	d := Default()
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = d.Embedder.Type
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = d.VectorStore.Type
	}
	if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
		cfg.Embedder.OpenAI.TimeoutSecs = d.Embedder.OpenAI.TimeoutSecs
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = d.Server.Addr
	}
}

// envKey maps REVIEWREC_SERVER__ADDR to server.addr.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}
