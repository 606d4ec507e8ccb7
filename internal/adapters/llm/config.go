// Package llm provides the text generation adapters.
// Each backend implements ports.Generator.
package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/0xcro3dile/exemplar/internal/domain/ports"
)

// Backend names.
const (
	BackendAuto      = "auto"
	BackendNone      = "none"
	BackendOllama    = "ollama"
	BackendOpenAI    = "openai"
	BackendAnthropic = "anthropic"
)

// DefaultSystemPrompt sets the tone for every generated reply.
const DefaultSystemPrompt = "You are a calm, friendly assistant. Help reduce frustration and suggest simple solutions."

// Config holds generator settings shared by all backends.
type Config struct {
	Backend         string
	Endpoint        string
	Model           string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	SystemPrompt    string
	Timeout         time.Duration
	MaxRetries      int
	MaxTokens       int
	Temperature     float64

	// RetryBackoff is the first retry delay; later ones double up to 5s.
	RetryBackoff time.Duration
}

// DefaultConfig returns the defaults used when fields are left empty.
func DefaultConfig() Config {
	return Config{
		Backend:      BackendAuto,
		SystemPrompt: DefaultSystemPrompt,
		Timeout:      30 * time.Second,
		MaxRetries:   2,
		MaxTokens:    512,
		Temperature:  0.7,
		RetryBackoff: 200 * time.Millisecond,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.SystemPrompt == "" {
		c.SystemPrompt = d.SystemPrompt
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = d.MaxTokens
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = d.RetryBackoff
	}
	return c
}

// ResolveBackend turns "auto" (or empty) into a concrete backend:
// openai when an OpenAI key is present, otherwise none.
func (c Config) ResolveBackend() string {
	b := strings.ToLower(strings.TrimSpace(c.Backend))
	if b == "" || b == BackendAuto {
		if c.OpenAIAPIKey != "" {
			return BackendOpenAI
		}
		return BackendNone
	}
	return b
}

// NewGenerator builds the configured backend. It returns nil and no error
// when generation is disabled.
func NewGenerator(cfg Config, observer Observer) (ports.Generator, error) {
	cfg = cfg.withDefaults()
	if observer == nil {
		observer = NoopObserver{}
	}

	switch backend := cfg.ResolveBackend(); backend {
	case BackendNone:
		return nil, nil
	case BackendOllama:
		return NewOllamaGenerator(cfg, observer), nil
	case BackendOpenAI:
		g, err := NewOpenAIGenerator(cfg, observer)
		if err != nil {
			return nil, err
		}
		return g, nil
	case BackendAnthropic:
		g, err := NewAnthropicGenerator(cfg, observer)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}
