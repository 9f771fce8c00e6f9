package x402

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protocolbanks/protocolbanks-go/types"
)

const testRecipient = "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb7"

func validSignature() string {
	return "0x" + strings.Repeat("ab", 65)
}

// fakeBackend records calls and serves canned responses keyed by path
// prefix.
type fakeBackend struct {
	posts     []string
	gets      []string
	postErr   error
	getErr    error
	responses map[string]interface{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{responses: make(map[string]interface{})}
}

func (f *fakeBackend) Get(_ context.Context, path string, result interface{}) error {
	f.gets = append(f.gets, path)
	if f.getErr != nil {
		return f.getErr
	}
	return f.respond(path, result)
}

func (f *fakeBackend) Post(_ context.Context, path string, _ interface{}, result interface{}) error {
	f.posts = append(f.posts, path)
	if f.postErr != nil {
		return f.postErr
	}
	return f.respond(path, result)
}

func (f *fakeBackend) respond(path string, result interface{}) error {
	if result == nil {
		return nil
	}
	for prefix, v := range f.responses {
		if strings.HasPrefix(path, prefix) {
			raw, err := json.Marshal(v)
			if err != nil {
				return err
			}
			return json.Unmarshal(raw, result)
		}
	}
	return nil
}

func validParams() types.X402AuthorizationParams {
	return types.X402AuthorizationParams{
		To:      testRecipient,
		Amount:  "25.00",
		Token:   types.TokenUSDC,
		ChainID: int(types.ChainBase),
	}
}

func TestCreateAuthorization(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a pending authorization", func(t *testing.T) {
		backend := newFakeBackend()
		m := New(backend)

		auth, err := m.CreateAuthorization(ctx, validParams())
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(auth.ID, "x402_"))
		assert.Equal(t, types.X402StatusPending, auth.Status)
		assert.Equal(t, "USD Coin", auth.Domain.Name)
		assert.Equal(t, "2", auth.Domain.Version)
		assert.Equal(t, int(types.ChainBase), auth.Domain.ChainID)
		assert.Equal(t, types.TokenAddress(types.ChainBase, types.TokenUSDC), auth.Domain.VerifyingContract)

		assert.Equal(t, testRecipient, auth.Message.To)
		assert.Empty(t, auth.Message.From)
		assert.Equal(t, "25000000", auth.Message.Value)
		assert.Equal(t, int64(3600), auth.Message.ValidBefore-auth.Message.ValidAfter)
		assert.Regexp(t, "^0x[0-9a-f]{64}$", auth.Message.Nonce)

		require.Len(t, backend.posts, 1)
		assert.Equal(t, "/x402/authorizations", backend.posts[0])
	})

	t.Run("nonces are unique", func(t *testing.T) {
		m := New(nil)
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			auth, err := m.CreateAuthorization(ctx, validParams())
			require.NoError(t, err)
			assert.False(t, seen[auth.Message.Nonce])
			seen[auth.Message.Nonce] = true
		}
	})

	t.Run("honors a custom validity window", func(t *testing.T) {
		m := New(nil)
		params := validParams()
		params.ValidFor = 600

		auth, err := m.CreateAuthorization(ctx, params)
		require.NoError(t, err)
		assert.Equal(t, int64(600), auth.Message.ValidBefore-auth.Message.ValidAfter)
	})

	t.Run("rejects a validity window below the floor", func(t *testing.T) {
		m := New(nil)
		params := validParams()
		params.ValidFor = 30

		_, err := m.CreateAuthorization(ctx, params)
		requireCode(t, err, types.ErrValidOutOfRange)
	})

	t.Run("rejects a validity window above the cap", func(t *testing.T) {
		m := New(nil)
		params := validParams()
		params.ValidFor = MaxValiditySeconds + 1

		_, err := m.CreateAuthorization(ctx, params)
		requireCode(t, err, types.ErrValidOutOfRange)
	})

	t.Run("rejects unsupported chain", func(t *testing.T) {
		m := New(nil)
		params := validParams()
		params.ChainID = int(types.ChainBSC)

		_, err := m.CreateAuthorization(ctx, params)
		requireCode(t, err, types.ErrX402UnsupportedChain)
	})

	t.Run("rejects unsupported token", func(t *testing.T) {
		m := New(nil)
		params := validParams()
		params.Token = types.TokenUSDT

		_, err := m.CreateAuthorization(ctx, params)
		requireCode(t, err, types.ErrX402UnsupportedToken)
	})

	t.Run("rejects token without a contract on the chain", func(t *testing.T) {
		m := New(nil)
		params := validParams()
		params.Token = types.TokenDAI // gasless-eligible, but no canonical contract on Base

		_, err := m.CreateAuthorization(ctx, params)
		requireCode(t, err, types.ErrX402UnsupportedToken)
	})

	t.Run("rejects invalid recipient", func(t *testing.T) {
		m := New(nil)
		params := validParams()
		params.To = "not-an-address"

		_, err := m.CreateAuthorization(ctx, params)
		require.Error(t, err)
	})

	t.Run("survives registration failure", func(t *testing.T) {
		backend := newFakeBackend()
		backend.postErr = fmt.Errorf("backend down")
		m := New(backend)

		auth, err := m.CreateAuthorization(ctx, validParams())
		require.NoError(t, err)
		assert.Equal(t, types.X402StatusPending, auth.Status)
	})
}

func TestSubmitSignature(t *testing.T) {
	ctx := context.Background()

	t.Run("relays a valid signature", func(t *testing.T) {
		backend := newFakeBackend()
		backend.responses["/x402/submit"] = map[string]interface{}{
			"transactionHash": "0xfeed",
			"status":          "executed",
		}
		m := New(backend)

		auth, err := m.CreateAuthorization(ctx, validParams())
		require.NoError(t, err)

		submitted, err := m.SubmitSignature(ctx, auth.ID, validSignature())
		require.NoError(t, err)
		assert.Equal(t, types.X402StatusExecuted, submitted.Status)
		assert.Equal(t, "0xfeed", submitted.TransactionHash)
	})

	t.Run("rejects unknown authorization", func(t *testing.T) {
		m := New(newFakeBackend())
		_, err := m.SubmitSignature(ctx, "x402_missing", validSignature())
		requireCode(t, err, types.ErrX402AuthorizationExpired)
	})

	t.Run("expires past the validity window", func(t *testing.T) {
		m := New(newFakeBackend())
		auth, err := m.CreateAuthorization(ctx, validParams())
		require.NoError(t, err)

		m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

		_, err = m.SubmitSignature(ctx, auth.ID, validSignature())
		requireCode(t, err, types.ErrX402AuthorizationExpired)

		m.now = time.Now
		stored, err := m.GetStatus(ctx, auth.ID)
		require.NoError(t, err)
		assert.Equal(t, types.X402StatusExpired, stored.Status)
	})

	t.Run("rejects malformed signatures and stays pending", func(t *testing.T) {
		m := New(newFakeBackend())
		auth, err := m.CreateAuthorization(ctx, validParams())
		require.NoError(t, err)

		for _, sig := range []string{
			"",
			"0x1234",
			"not-hex",
			"0x" + strings.Repeat("ab", 64),
			"0x" + strings.Repeat("ab", 66),
		} {
			_, err := m.SubmitSignature(ctx, auth.ID, sig)
			requireCode(t, err, types.ErrX402InvalidSignature)
		}

		stored, err := m.GetStatus(ctx, auth.ID)
		require.NoError(t, err)
		assert.Equal(t, types.X402StatusPending, stored.Status)
	})

	t.Run("marks failed and propagates relay errors", func(t *testing.T) {
		backend := newFakeBackend()
		m := New(backend)
		auth, err := m.CreateAuthorization(ctx, validParams())
		require.NoError(t, err)

		backend.postErr = fmt.Errorf("relayer unavailable")
		_, err = m.SubmitSignature(ctx, auth.ID, validSignature())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "relayer unavailable")

		stored, getErr := m.GetStatus(ctx, auth.ID)
		require.NoError(t, getErr)
		assert.Equal(t, types.X402StatusFailed, stored.Status)
	})
}

func TestGetStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("eagerly expires stale pending records", func(t *testing.T) {
		m := New(nil)
		auth, err := m.CreateAuthorization(ctx, validParams())
		require.NoError(t, err)

		m.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
		stored, err := m.GetStatus(ctx, auth.ID)
		require.NoError(t, err)
		assert.Equal(t, types.X402StatusExpired, stored.Status)
	})

	t.Run("refreshes non-terminal records from the backend", func(t *testing.T) {
		backend := newFakeBackend()
		backend.responses["/x402/submit"] = map[string]interface{}{"status": "submitted"}
		m := New(backend)

		auth, err := m.CreateAuthorization(ctx, validParams())
		require.NoError(t, err)
		_, err = m.SubmitSignature(ctx, auth.ID, validSignature())
		require.NoError(t, err)

		backend.responses["/x402/authorizations/"] = map[string]interface{}{
			"status":          "executed",
			"transactionHash": "0xbeef",
		}
		stored, err := m.GetStatus(ctx, auth.ID)
		require.NoError(t, err)
		assert.Equal(t, types.X402StatusExecuted, stored.Status)
		assert.Equal(t, "0xbeef", stored.TransactionHash)
	})

	t.Run("falls back to cache on refresh failure", func(t *testing.T) {
		backend := newFakeBackend()
		m := New(backend)
		auth, err := m.CreateAuthorization(ctx, validParams())
		require.NoError(t, err)

		backend.getErr = fmt.Errorf("timeout")
		stored, err := m.GetStatus(ctx, auth.ID)
		require.NoError(t, err)
		assert.Equal(t, types.X402StatusPending, stored.Status)
	})

	t.Run("unknown id without backend fails", func(t *testing.T) {
		m := New(nil)
		_, err := m.GetStatus(ctx, "x402_missing")
		require.Error(t, err)
	})
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("cancels pending authorization", func(t *testing.T) {
		m := New(newFakeBackend())
		auth, err := m.CreateAuthorization(ctx, validParams())
		require.NoError(t, err)

		require.NoError(t, m.Cancel(ctx, auth.ID))

		stored, err := m.GetStatus(ctx, auth.ID)
		require.NoError(t, err)
		assert.Equal(t, types.X402StatusCancelled, stored.Status)
	})

	t.Run("rejects cancelling a terminal authorization", func(t *testing.T) {
		backend := newFakeBackend()
		backend.responses["/x402/submit"] = map[string]interface{}{"status": "executed"}
		m := New(backend)

		auth, err := m.CreateAuthorization(ctx, validParams())
		require.NoError(t, err)
		_, err = m.SubmitSignature(ctx, auth.ID, validSignature())
		require.NoError(t, err)

		err = m.Cancel(ctx, auth.ID)
		require.Error(t, err)
	})

	t.Run("rejects unknown id", func(t *testing.T) {
		m := New(nil)
		require.Error(t, m.Cancel(ctx, "x402_missing"))
	})
}

func TestCleanupExpired(t *testing.T) {
	ctx := context.Background()
	m := New(nil)

	fresh, err := m.CreateAuthorization(ctx, validParams())
	require.NoError(t, err)

	short := validParams()
	short.ValidFor = 60
	stale, err := m.CreateAuthorization(ctx, short)
	require.NoError(t, err)

	m.now = func() time.Time { return time.Now().Add(10 * time.Minute) }
	assert.Equal(t, 1, m.CleanupExpired())

	m.now = time.Now
	_, err = m.GetStatus(ctx, stale.ID)
	require.Error(t, err)

	kept, err := m.GetStatus(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, types.X402StatusPending, kept.Status)
}

func TestTypedDataAndQueries(t *testing.T) {
	ctx := context.Background()

	t.Run("typed data substitutes the signer", func(t *testing.T) {
		m := New(nil)
		auth, err := m.CreateAuthorization(ctx, validParams())
		require.NoError(t, err)

		doc := m.GetTypedData(auth, testRecipient)
		assert.Equal(t, "TransferWithAuthorization", doc["primaryType"])

		message, ok := doc["message"].(types.TransferWithAuthorizationMessage)
		require.True(t, ok)
		assert.Equal(t, testRecipient, message.From)
		assert.Empty(t, auth.Message.From)
	})

	t.Run("pending snapshot", func(t *testing.T) {
		m := New(nil)
		first, err := m.CreateAuthorization(ctx, validParams())
		require.NoError(t, err)
		_, err = m.CreateAuthorization(ctx, validParams())
		require.NoError(t, err)

		require.NoError(t, m.Cancel(ctx, first.ID))
		assert.Len(t, m.GetPendingAuthorizations(), 1)
	})

	t.Run("support queries", func(t *testing.T) {
		m := New(nil)
		assert.True(t, m.IsChainSupported(int(types.ChainBase)))
		assert.False(t, m.IsChainSupported(int(types.ChainBSC)))
		assert.True(t, m.IsTokenSupported(int(types.ChainBase), types.TokenUSDC))
		assert.False(t, m.IsTokenSupported(int(types.ChainBase), types.TokenUSDT))
		assert.Contains(t, m.GetSupportedChains(), int(types.ChainArbitrum))
		assert.Nil(t, m.GetSupportedTokens(int(types.ChainBSC)))
	})
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var sdkErr *types.SDKError
	require.ErrorAs(t, err, &sdkErr)
	assert.Equal(t, code, sdkErr.Code)
}
