package types

import "time"

// Environment selects the backend the SDK talks to.
type Environment string

const (
	EnvProduction Environment = "production"
	EnvSandbox    Environment = "sandbox"
	EnvTestnet    Environment = "testnet"
)

const (
	// DefaultExpiryHours is the default payment link expiry.
	DefaultExpiryHours = 24

	// MaxExpiryHours is the maximum payment link expiry (7 days).
	MaxExpiryHours = 168

	// MinExpiryHours is the minimum payment link expiry.
	MinExpiryHours = 1

	// DefaultToken is the token used when a payment omits one.
	DefaultToken = TokenUSDC

	// MaxBatchSize is the maximum number of recipients in a batch.
	MaxBatchSize = 500

	// MaxMemoLength is the maximum memo length in characters.
	MaxMemoLength = 256

	// MaxAmount is the maximum payment amount (1 billion token units).
	MaxAmount = 1_000_000_000

	// PaymentLinkBaseURL is the default base URL for payment links.
	PaymentLinkBaseURL = "https://app.protocolbanks.com/pay"

	// APIBaseURL is the production API base URL.
	APIBaseURL = "https://api.protocolbanks.com/v1"

	// SandboxAPIBaseURL is the sandbox API base URL.
	SandboxAPIBaseURL = "https://sandbox.api.protocolbanks.com/v1"

	// TestnetAPIBaseURL is the testnet API base URL.
	TestnetAPIBaseURL = "https://testnet.api.protocolbanks.com/v1"
)

// APIBaseURLFor returns the API base URL for an environment.
func APIBaseURLFor(env Environment) string {
	switch env {
	case EnvSandbox:
		return SandboxAPIBaseURL
	case EnvTestnet:
		return TestnetAPIBaseURL
	default:
		return APIBaseURL
	}
}

// Config holds the SDK configuration.
type Config struct {
	APIKey      string
	APISecret   string
	Environment Environment
	BaseURL     string
	LinkBaseURL string
	Timeout     time.Duration

	DefaultChain    ChainID
	SupportedChains []ChainID
	SupportedTokens []TokenSymbol

	LogLevel      string
	EnableMetrics bool
}
