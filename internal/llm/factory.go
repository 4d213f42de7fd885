package llm

import (
	"context"
	"fmt"

	"github.com/placify/placify/internal/store"
)

// NewProvider builds the provider named by cfg. Calls pass through retry
// and then journaling (when calls is non-nil) before reaching the SDK, so
// every attempt is journaled.
func NewProvider(ctx context.Context, cfg Config, calls store.CallRepo) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case ProviderMock:
		return NewMockProvider(), nil
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(cfg)
	case ProviderOpenRouter:
		base, err = NewOpenRouterProvider(cfg)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("initialize %s provider: %w", cfg.Provider, err)
	}

	if calls != nil {
		base = WithLogging(base, calls)
	}
	return WithRetry(base, cfg.Retry), nil
}
