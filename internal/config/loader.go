package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

// PathEnv names the environment variable that points at the config file.
const PathEnv = "EXEMPLAR_CONFIG"

// DefaultPath is tried when neither a flag nor PathEnv names a file.
const DefaultPath = "./config.yaml"

// Load reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults (env-default tags and prefilled).
// The file is path if non-empty, else $EXEMPLAR_CONFIG, else ./config.yaml.
// An explicitly named file must exist; a missing ./config.yaml means
// ENV + defaults only.
func Load(path string) (*Config, error) {
	cfg := prefilled()

	if path == "" {
		path = os.Getenv(PathEnv)
	}
	explicitPath := path != ""
	if !explicitPath {
		path = DefaultPath
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration produced by defaults alone.
func Default() (*Config, error) {
	cfg := prefilled()
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: defaults: %w", err)
	}
	return &cfg, nil
}

// Save writes cfg to path as YAML, creating directories as needed.
// API keys are never written.
func Save(path string, cfg *Config) error {
	out := *cfg
	out.Generator.OpenAIAPIKey = ""
	out.Generator.AnthropicAPIKey = ""

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: mkdir: %w", err)
	}
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
