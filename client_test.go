package protocolbanks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protocolbanks/protocolbanks-go/types"
)

func testConfig() *Config {
	return &Config{
		APIKey:    "pk_test_key",
		APISecret: "sk_test_secret",
	}
}

type nullBackend struct{}

func (nullBackend) Get(context.Context, string, interface{}) error            { return nil }
func (nullBackend) Post(context.Context, string, interface{}, interface{}) error { return nil }

func TestNewClient(t *testing.T) {
	t.Run("requires config and credentials", func(t *testing.T) {
		_, err := NewClient(nil)
		require.Error(t, err)

		_, err = NewClient(&Config{APISecret: "sk"})
		requireCode(t, err, types.ErrAuthInvalidAPIKey)

		_, err = NewClient(&Config{APIKey: "pk"})
		requireCode(t, err, types.ErrAuthInvalidSecret)
	})

	t.Run("applies defaults", func(t *testing.T) {
		client, err := NewClient(testConfig())
		require.NoError(t, err)
		defer client.Close()

		assert.Equal(t, EnvProduction, client.Environment())
		assert.Equal(t, types.APIBaseURL, client.config.BaseURL)
		assert.NotNil(t, client.Links)
		assert.NotNil(t, client.Webhooks)
		assert.NotNil(t, client.X402)
		assert.NotNil(t, client.Batch)
	})

	t.Run("environment selects the base URL", func(t *testing.T) {
		cfg := testConfig()
		cfg.Environment = EnvSandbox
		client, err := NewClient(cfg)
		require.NoError(t, err)
		defer client.Close()

		assert.Equal(t, types.SandboxAPIBaseURL, client.config.BaseURL)
	})

	t.Run("options are applied", func(t *testing.T) {
		client, err := NewClient(testConfig(), WithBackend(nullBackend{}))
		require.NoError(t, err)
		defer client.Close()

		assert.NotNil(t, client.backend)
	})

	t.Run("falls back to every supported chain and token", func(t *testing.T) {
		client, err := NewClient(testConfig())
		require.NoError(t, err)
		defer client.Close()

		assert.Equal(t, types.SupportedChains(), client.SupportedChains())
		assert.Equal(t, types.SupportedTokens(), client.SupportedTokens())

		cfg := testConfig()
		cfg.SupportedChains = []ChainID{types.ChainBase}
		scoped, err := NewClient(cfg)
		require.NoError(t, err)
		defer scoped.Close()
		assert.Equal(t, []ChainID{types.ChainBase}, scoped.SupportedChains())
	})
}

func TestConvenienceMethods(t *testing.T) {
	client, err := NewClient(testConfig())
	require.NoError(t, err)
	defer client.Close()

	link, err := client.GeneratePaymentLink(
		"0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb7", "50", TokenUSDC)
	require.NoError(t, err)

	result := client.VerifyPaymentLink(link.URL)
	assert.True(t, result.Valid, result.Error)

	payload := `{"id":"evt_1","type":"payment.completed","timestamp":1756500000}`
	header := client.Webhooks.Sign(payload, "whsec", 0)
	webhookResult := client.VerifyWebhook(payload, header, "whsec")
	assert.True(t, webhookResult.Valid, webhookResult.Error)
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var sdkErr *types.SDKError
	require.ErrorAs(t, err, &sdkErr)
	assert.Equal(t, code, sdkErr.Code)
}
