// Package config resolves storage settings once, before any backend is
// constructed. Precedence: explicit flag values > config file >
// environment > defaults. Backends never read this package's sources
// themselves; they receive resolved values.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/confident-ai/deepeval-go/internal/storage"
)

// Environment variables consumed during resolution.
const (
	EnvSaveMode   = "DEEPEVAL_SAVE_MODE"
	EnvResultsDir = "DEEPEVAL_RESULTS_DIR"
	EnvAPIKey     = "DEEPEVAL_API_KEY"
	EnvAPIURL     = "DEEPEVAL_API_URL"
)

// DefaultFile is the config file looked up when none is given.
const DefaultFile = "deepeval.yaml"

// Config is the resolved storage configuration.
type Config struct {
	SaveMode   string `yaml:"save_mode"`
	ResultsDir string `yaml:"results_dir"`
	APIKey     string `yaml:"api_key"`
	APIURL     string `yaml:"api_url"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		SaveMode:   storage.ModeLocal,
		ResultsDir: storage.DefaultDir,
		APIURL:     storage.DefaultBaseURL,
	}
}

// Resolve builds the effective configuration: defaults, overlaid with
// environment variables, overlaid with the YAML file at path (skipped
// silently when path is the default file and it does not exist).
func Resolve(path string) (Config, error) {
	cfg := Default()
	cfg.applyEnv()

	explicit := path != ""
	if path == "" {
		path = DefaultFile
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvSaveMode); v != "" {
		c.SaveMode = v
	}
	if v := os.Getenv(EnvResultsDir); v != "" {
		c.ResultsDir = v
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.APIURL = v
	}
}

// Validate checks the resolved configuration before a backend is built.
func (c Config) Validate() error {
	if c.SaveMode != storage.ModeLocal && c.SaveMode != storage.ModeCloud {
		return fmt.Errorf("save_mode must be either %q or %q, got %q", storage.ModeLocal, storage.ModeCloud, c.SaveMode)
	}
	if c.SaveMode == storage.ModeCloud && c.APIKey == "" {
		return fmt.Errorf("api_key required for cloud save mode")
	}
	return nil
}

// Storage maps the configuration to backend settings.
func (c Config) Storage() storage.Settings {
	return storage.Settings{
		Mode:    c.SaveMode,
		Dir:     c.ResultsDir,
		APIKey:  c.APIKey,
		BaseURL: c.APIURL,
	}
}
