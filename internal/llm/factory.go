package llm

import (
	"context"
	"fmt"

	"github.com/VictorPerezCardoso/cotes/internal/store"
)

// NewProvider creates a Provider from configuration, wrapped with retry
// and request-logging middleware.
func NewProvider(ctx context.Context, cfg Config, repo *store.LLMEventRepo) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// caller → retry → logging → base
	return WithRetry(WithLogging(base, repo), cfg.Retry), nil
}

// NewProviderFromEnv builds a provider from environment configuration.
func NewProviderFromEnv(ctx context.Context, repo *store.LLMEventRepo) (Provider, error) {
	cfg := ConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewProvider(ctx, cfg, repo)
}

// Unavailable is a Provider that fails every request with the reason
// the real provider could not be configured. It lets the TUI run in a
// degraded mode where AI features report an error instead of crashing.
type Unavailable struct {
	Reason error
}

func (u Unavailable) Generate(ctx context.Context, req Request) (*Response, error) {
	return nil, fmt.Errorf("LLM provider not configured: %w", u.Reason)
}

func (u Unavailable) ModelID() string { return "unconfigured" }

// ProviderSupportsSearch reports whether p can serve search-grounded
// requests, unwrapping decorators via the SearchGrounder interface.
func ProviderSupportsSearch(p Provider) bool {
	if sg, ok := p.(SearchGrounder); ok {
		return sg.SupportsSearch()
	}
	return false
}
