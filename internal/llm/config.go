package llm

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
	ProviderMock       = "mock"
)

// defaultModels is the model used when none is configured.
var defaultModels = map[string]string{
	ProviderAnthropic:  "claude-haiku",
	ProviderOpenAI:     "gpt-4o-mini",
	ProviderOpenRouter: "google/gemini-2.0-flash-exp",
	ProviderGemini:     "gemini-flash",
}

// Config selects and configures one LLM provider.
type Config struct {
	Provider string
	APIKey   string
	Model    string

	// BaseURL overrides the endpoint of OpenAI-compatible providers.
	BaseURL string

	Retry RetryConfig

	// Timeout bounds one coach request including retries.
	Timeout time.Duration
}

// RetryConfig configures backoff for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns the configuration for provider with default
// model, retry and timeout settings and no API key.
func DefaultConfig(provider string) Config {
	return Config{
		Provider: provider,
		Model:    defaultModels[provider],
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 30 * time.Second,
	}
}

// envPrefix returns the PLACIFY_<PROVIDER>_ prefix of provider settings.
func envPrefix(provider string) string {
	return "PLACIFY_" + strings.ToUpper(provider) + "_"
}

// ConfigFromEnv reads PLACIFY_LLM_PROVIDER and the matching
// PLACIFY_<PROVIDER>_API_KEY, _MODEL and _BASE_URL variables. It returns
// false when no provider is selected.
func ConfigFromEnv() (Config, bool) {
	provider := strings.ToLower(strings.TrimSpace(os.Getenv("PLACIFY_LLM_PROVIDER")))
	if provider == "" {
		return Config{}, false
	}

	cfg := DefaultConfig(provider)
	prefix := envPrefix(provider)
	cfg.APIKey = os.Getenv(prefix + "API_KEY")
	if m := os.Getenv(prefix + "MODEL"); m != "" {
		cfg.Model = m
	}
	if u := os.Getenv(prefix + "BASE_URL"); u != "" {
		cfg.BaseURL = u
	}
	if t := os.Getenv("PLACIFY_LLM_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			cfg.Timeout = d
		}
	}
	return cfg, true
}

// discoveryOrder lists the standard key variables probed by
// DiscoverConfig, highest priority first.
var discoveryOrder = []struct {
	env      string
	provider string
}{
	{"GEMINI_API_KEY", ProviderGemini},
	{"OPENAI_API_KEY", ProviderOpenAI},
	{"ANTHROPIC_API_KEY", ProviderAnthropic},
	{"OPENROUTER_API_KEY", ProviderOpenRouter},
}

// DiscoverConfig returns a Config for the first provider whose standard
// API key variable is set.
func DiscoverConfig() (Config, bool) {
	for _, d := range discoveryOrder {
		if k := os.Getenv(d.env); k != "" {
			cfg := DefaultConfig(d.provider)
			cfg.APIKey = k
			return cfg, true
		}
	}
	return Config{}, false
}

// LoadConfig prefers explicit PLACIFY_* settings and falls back to
// discovery. It returns false when no provider is available.
func LoadConfig() (Config, bool) {
	if cfg, ok := ConfigFromEnv(); ok {
		return cfg, true
	}
	return DiscoverConfig()
}

// Validate checks that the selected provider is known and has a key.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderMock:
		return nil
	case ProviderAnthropic, ProviderOpenAI, ProviderOpenRouter, ProviderGemini:
		if c.APIKey == "" {
			return fmt.Errorf("%sAPI_KEY is required for the %s provider", envPrefix(c.Provider), c.Provider)
		}
		return nil
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
}
