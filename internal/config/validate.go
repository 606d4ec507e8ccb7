package config

import (
	"fmt"
	"strings"

	"github.com/0xcro3dile/exemplar/internal/adapters/llm"
	"github.com/0xcro3dile/exemplar/internal/domain/usecases"
)

// Validate performs business-rule validation on the loaded configuration.
// Load calls it automatically.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535 (got %d)", c.Server.Port)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be > 0 (got %d)", c.Server.MaxUploadBytes)
	}

	if strings.TrimSpace(c.Dataset.Dir) == "" {
		return fmt.Errorf("dataset.dir must not be empty")
	}
	switch strings.ToLower(c.Dataset.LoadPolicy) {
	case usecases.PolicyPerRequest, usecases.PolicySnapshot:
	default:
		return fmt.Errorf("dataset.load_policy must be %q or %q (got %q)",
			usecases.PolicyPerRequest, usecases.PolicySnapshot, c.Dataset.LoadPolicy)
	}

	switch strings.ToLower(c.Generator.Backend) {
	case "", llm.BackendAuto, llm.BackendNone, llm.BackendOllama, llm.BackendOpenAI, llm.BackendAnthropic:
	default:
		return fmt.Errorf("generator.backend: %w: %q", llm.ErrUnknownBackend, c.Generator.Backend)
	}
	if c.Generator.Timeout <= 0 {
		return fmt.Errorf("generator.timeout must be > 0 (got %s)", c.Generator.Timeout)
	}
	if c.Generator.MaxRetries < 0 {
		return fmt.Errorf("generator.max_retries must be >= 0 (got %d)", c.Generator.MaxRetries)
	}

	return nil
}
