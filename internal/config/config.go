// Package config loads exemplar settings from YAML, environment and defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/0xcro3dile/exemplar/internal/adapters/llm"
	"github.com/0xcro3dile/exemplar/internal/domain/usecases"
)

// Config is the root application configuration.
//
// Fields whose zero value is a valid setting (false, 0) carry no env-default
// tag; their defaults come from prefilled, so an explicit false or 0 in YAML
// survives.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Dataset   DatasetConfig   `yaml:"dataset"`
	Generator GeneratorConfig `yaml:"generator"`
	Chat      ChatConfig      `yaml:"chat"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"PORT"                    env-default:"5000"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"120s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"5s"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" env:"SERVER_MAX_UPLOAD_BYTES" env-default:"8388608"`
}

// Addr returns host:port for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatasetConfig controls where examples come from and how often they are read.
type DatasetConfig struct {
	Dir        string `yaml:"dir"         env:"DATASET_DIR"         env-default:"datasets"`
	Extension  string `yaml:"extension"   env:"DATASET_EXTENSION"   env-default:".jsonl"`
	LoadPolicy string `yaml:"load_policy" env:"DATASET_LOAD_POLICY" env-default:"per_request"`
	Watch      bool   `yaml:"watch"       env:"DATASET_WATCH"`
	CreateDir  bool   `yaml:"create_dir"  env:"DATASET_CREATE_DIR"`
}

// GeneratorConfig selects and tunes the optional reply generator.
type GeneratorConfig struct {
	Backend         string        `yaml:"backend"           env:"GENERATOR_BACKEND"       env-default:"auto"`
	Endpoint        string        `yaml:"endpoint"          env:"GENERATOR_ENDPOINT"`
	Model           string        `yaml:"model"             env:"GENERATOR_MODEL"`
	OpenAIAPIKey    string        `yaml:"openai_api_key"    env:"OPENAI_API_KEY"`
	AnthropicAPIKey string        `yaml:"anthropic_api_key" env:"ANTHROPIC_API_KEY"`
	Timeout         time.Duration `yaml:"timeout"           env:"GENERATOR_TIMEOUT"       env-default:"30s"`
	MaxRetries      int           `yaml:"max_retries"       env:"GENERATOR_MAX_RETRIES"`
	MaxTokens       int           `yaml:"max_tokens"        env:"GENERATOR_MAX_TOKENS"    env-default:"512"`
	Temperature     float64       `yaml:"temperature"       env:"GENERATOR_TEMPERATURE"`
	SystemPrompt    string        `yaml:"system_prompt"     env:"GENERATOR_SYSTEM_PROMPT"`
	LogCalls        bool          `yaml:"log_calls"         env:"GENERATOR_LOG_CALLS"`
}

// LLM maps the generator section onto the llm adapter configuration.
func (g GeneratorConfig) LLM() llm.Config {
	return llm.Config{
		Backend:         g.Backend,
		Endpoint:        g.Endpoint,
		Model:           g.Model,
		OpenAIAPIKey:    g.OpenAIAPIKey,
		AnthropicAPIKey: g.AnthropicAPIKey,
		SystemPrompt:    g.SystemPrompt,
		Timeout:         g.Timeout,
		MaxRetries:      g.MaxRetries,
		MaxTokens:       g.MaxTokens,
		Temperature:     g.Temperature,
	}
}

// ChatConfig holds chat fallback settings.
type ChatConfig struct {
	DefaultReply string `yaml:"default_reply" env:"CHAT_DEFAULT_REPLY"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// Snapshot reports whether datasets are loaded once and refreshed.
func (d DatasetConfig) Snapshot() bool {
	return strings.EqualFold(d.LoadPolicy, usecases.PolicySnapshot)
}

// prefilled returns the defaults for the fields an env-default tag cannot
// express. Load reads YAML and environment over it.
func prefilled() Config {
	return Config{
		Dataset: DatasetConfig{
			Watch:     true,
			CreateDir: true,
		},
		Generator: GeneratorConfig{
			MaxRetries:  2,
			Temperature: 0.7,
			LogCalls:    true,
		},
	}
}
