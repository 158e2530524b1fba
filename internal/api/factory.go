package api

import (
	"fmt"

	"github.com/notexe/med-reminder/internal/config"
)

// NewProvider creates a Provider based on the configuration. The local
// provider has no backing model and yields a nil Provider.
func NewProvider(cfg *config.ProviderConfig) (Provider, error) {
	switch cfg.Type {
	case config.ProviderLocal:
		return nil, nil

	case config.ProviderDeepSeek:
		return NewDeepSeekProvider(cfg.DeepSeek)

	case config.ProviderOllama:
		return NewOllamaProvider(cfg.Ollama)

	default:
		return nil, fmt.Errorf("unknown provider type: %s (supported: %s, %s, %s)",
			cfg.Type, config.ProviderLocal, config.ProviderDeepSeek, config.ProviderOllama)
	}
}
