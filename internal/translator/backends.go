package translator

import (
	"fmt"
	"strings"
)

// Providers lists the accepted inference.provider values.
var Providers = []string{"ollama", "openai", "google"}

// NewBackend builds the backend named by provider.
func NewBackend(provider string, cfg ServiceConfig) (TranslationService, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "ollama", "":
		return NewOllamaTranslator(cfg.BaseURL, cfg.Model, cfg.Timeout), nil
	case "openai", "openrouter":
		return NewOpenAIService(cfg), nil
	case "google":
		return NewGoogleService(cfg), nil
	}
	return nil, fmt.Errorf("%w %q (want one of %s)", ErrUnknownProvider, provider, strings.Join(Providers, ", "))
}
