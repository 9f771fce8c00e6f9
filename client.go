// Package protocolbanks is a Go SDK for ProtocolBanks payment services:
// signed payment links, webhook signature verification, x402 gasless
// transfer authorizations, and batch payouts.
//
// Example usage:
//
//	client, err := protocolbanks.NewClient(&protocolbanks.Config{
//		APIKey:      "pk_live_xxx",
//		APISecret:   "sk_live_xxx",
//		Environment: protocolbanks.EnvProduction,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	link, err := client.Links.Generate(protocolbanks.PaymentLinkParams{
//		To:     "0x1234567890123456789012345678901234567890",
//		Amount: "100",
//		Token:  protocolbanks.TokenUSDC,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println("Payment URL:", link.URL)
package protocolbanks

import (
	"errors"
	"time"

	"github.com/protocolbanks/protocolbanks-go/batch"
	"github.com/protocolbanks/protocolbanks-go/links"
	"github.com/protocolbanks/protocolbanks-go/logger"
	"github.com/protocolbanks/protocolbanks-go/metrics"
	"github.com/protocolbanks/protocolbanks-go/types"
	"github.com/protocolbanks/protocolbanks-go/webhook"
	"github.com/protocolbanks/protocolbanks-go/x402"
)

// Re-exported aliases so callers can stay on the root package for the
// common types.
type (
	Config                    = types.Config
	Environment               = types.Environment
	TokenSymbol               = types.TokenSymbol
	ChainID                   = types.ChainID
	PaymentLinkParams         = types.PaymentLinkParams
	PaymentLink               = types.PaymentLink
	LinkVerificationResult    = types.LinkVerificationResult
	WebhookEvent              = types.WebhookEvent
	WebhookVerificationResult = types.WebhookVerificationResult
	X402AuthorizationParams   = types.X402AuthorizationParams
	X402Authorization         = types.X402Authorization
	BatchRecipient            = types.BatchRecipient
	BatchOptions              = types.BatchOptions
	BatchSubmitResult         = types.BatchSubmitResult
	BatchStatus               = types.BatchStatus
	SDKError                  = types.SDKError
)

const (
	EnvProduction = types.EnvProduction
	EnvSandbox    = types.EnvSandbox
	EnvTestnet    = types.EnvTestnet

	TokenUSDC = types.TokenUSDC
	TokenUSDT = types.TokenUSDT
	TokenDAI  = types.TokenDAI
	TokenETH  = types.TokenETH
)

// Client is the ProtocolBanks SDK entry point. Each field exposes one
// concern; all of them share the client's logger, metrics recorder, and
// backend.
type Client struct {
	// Links generates, verifies, and parses signed payment links.
	Links *links.Module

	// Webhooks signs, verifies, and parses webhook deliveries.
	Webhooks *webhook.Module

	// X402 manages gasless transfer authorizations.
	X402 *x402.Manager

	// Batch validates, submits, and tracks batch payouts.
	Batch *batch.Module

	config  *types.Config
	backend types.Backend
	log     logger.Logger
	rec     metrics.Recorder
}

// NewClient creates a configured client. config must carry the API key
// and secret; everything else has defaults.
func NewClient(config *types.Config, opts ...Option) (*Client, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	if config.APIKey == "" {
		return nil, types.NewAuthError(types.ErrAuthInvalidAPIKey, "API key is required")
	}
	if config.APISecret == "" {
		return nil, types.NewAuthError(types.ErrAuthInvalidSecret, "API secret is required")
	}

	if config.Environment == "" {
		config.Environment = types.EnvProduction
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.BaseURL == "" {
		config.BaseURL = types.APIBaseURLFor(config.Environment)
	}

	c := &Client{
		config: config,
		log:    logger.NoopLogger{},
		rec:    metrics.NoopRecorder{},
	}
	if config.LogLevel != "" {
		c.log = logger.NewZapLogger(config.LogLevel)
	}
	if config.EnableMetrics {
		c.rec = metrics.NewPrometheusRecorder()
	}

	for _, opt := range opts {
		opt(c)
	}

	c.Links = links.New(config.APISecret, config.LinkBaseURL)
	c.Links.SetLogger(c.log)
	c.Links.SetMetrics(c.rec)

	c.Webhooks = webhook.New()
	c.Webhooks.SetLogger(c.log)

	c.X402 = x402.New(c.backend)
	c.X402.SetLogger(c.log)
	c.X402.SetMetrics(c.rec)

	c.Batch = batch.New(c.backend)
	c.Batch.SetLogger(c.log)
	c.Batch.SetMetrics(c.rec)

	return c, nil
}

// Close stops background polling and sweeps expired authorizations.
func (c *Client) Close() error {
	c.Batch.StopAllPolling()
	c.X402.CleanupExpired()
	return nil
}

// Environment returns the configured environment.
func (c *Client) Environment() types.Environment {
	return c.config.Environment
}

// DefaultChain returns the configured default chain, or nil.
func (c *Client) DefaultChain() types.ChainID {
	return c.config.DefaultChain
}

// SupportedChains returns the configured chain allow-list, falling back
// to every chain the SDK knows.
func (c *Client) SupportedChains() []types.ChainID {
	if c.config.SupportedChains != nil {
		return c.config.SupportedChains
	}
	return types.SupportedChains()
}

// SupportedTokens returns the configured token allow-list, falling back
// to every token the SDK knows.
func (c *Client) SupportedTokens() []types.TokenSymbol {
	if c.config.SupportedTokens != nil {
		return c.config.SupportedTokens
	}
	return types.SupportedTokens()
}

// GeneratePaymentLink generates a payment link with default expiry.
func (c *Client) GeneratePaymentLink(to, amount string, token types.TokenSymbol) (*types.PaymentLink, error) {
	return c.Links.Generate(types.PaymentLinkParams{
		To:     to,
		Amount: amount,
		Token:  token,
	})
}

// VerifyPaymentLink verifies a payment link URL.
func (c *Client) VerifyPaymentLink(url string) *types.LinkVerificationResult {
	return c.Links.Verify(url)
}

// VerifyWebhook verifies a webhook delivery with the default timestamp
// tolerance.
func (c *Client) VerifyWebhook(payload, signatureHeader, secret string) *types.WebhookVerificationResult {
	return c.Webhooks.Verify(payload, signatureHeader, secret, 0)
}
