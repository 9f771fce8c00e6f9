package links

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protocolbanks/protocolbanks-go/types"
)

const testAddress = "0xabcdef1234567890abcdef1234567890abcdef12"

func TestGenerate(t *testing.T) {
	m := New("test-secret", "")

	t.Run("generates valid payment link", func(t *testing.T) {
		link, err := m.Generate(types.PaymentLinkParams{
			To:     testAddress,
			Amount: "100",
			Token:  types.TokenUSDC,
		})
		require.NoError(t, err)

		assert.NotEmpty(t, link.URL)
		assert.True(t, strings.HasPrefix(link.PaymentID, "pay_"))
		assert.Len(t, link.Signature, SignatureLength)
		assert.True(t, link.ExpiresAt.After(time.Now()))
		assert.Contains(t, link.ShortURL, "/p/")
	})

	t.Run("resolves defaults", func(t *testing.T) {
		link, err := m.Generate(types.PaymentLinkParams{
			To:     testAddress,
			Amount: "100",
		})
		require.NoError(t, err)

		assert.Equal(t, types.TokenUSDC, link.Params.Token)
		assert.Equal(t, types.DefaultExpiryHours, link.Params.ExpiryHours)
	})

	t.Run("rejects invalid address", func(t *testing.T) {
		_, err := m.Generate(types.PaymentLinkParams{
			To:     "invalid-address",
			Amount: "100",
		})
		requireSDKCode(t, err, types.ErrLinkInvalidAddress)
	})

	t.Run("rejects homoglyph address", func(t *testing.T) {
		_, err := m.Generate(types.PaymentLinkParams{
			To:     strings.Replace(testAddress, "a", "а", 1), // Cyrillic a
			Amount: "100",
		})
		requireSDKCode(t, err, types.ErrLinkHomoglyphDetected)
	})

	t.Run("rejects negative amount", func(t *testing.T) {
		_, err := m.Generate(types.PaymentLinkParams{
			To:     testAddress,
			Amount: "-100",
		})
		require.Error(t, err)
	})

	t.Run("rejects amount exceeding max", func(t *testing.T) {
		_, err := m.Generate(types.PaymentLinkParams{
			To:     testAddress,
			Amount: "2000000000",
		})
		require.Error(t, err)
	})

	t.Run("rejects expiry out of range", func(t *testing.T) {
		_, err := m.Generate(types.PaymentLinkParams{
			To:          testAddress,
			Amount:      "100",
			ExpiryHours: types.MaxExpiryHours + 1,
		})
		require.Error(t, err)
	})

	t.Run("rejects oversized memo", func(t *testing.T) {
		_, err := m.Generate(types.PaymentLinkParams{
			To:     testAddress,
			Amount: "100",
			Memo:   strings.Repeat("x", types.MaxMemoLength+1),
		})
		require.Error(t, err)
	})

	t.Run("embeds optional fields in the URL", func(t *testing.T) {
		link, err := m.Generate(types.PaymentLinkParams{
			To:      testAddress,
			Amount:  "50",
			Chain:   types.ChainBase,
			Memo:    "order 42",
			OrderID: "ord_42",
		})
		require.NoError(t, err)

		u, err := url.Parse(link.URL)
		require.NoError(t, err)
		q := u.Query()
		assert.Equal(t, "8453", q.Get("chain"))
		assert.Equal(t, "order 42", q.Get("memo"))
		assert.Equal(t, "ord_42", q.Get("orderId"))
	})
}

func TestVerify(t *testing.T) {
	t.Run("verifies freshly generated link", func(t *testing.T) {
		m := New("test-secret", "")
		link, err := m.Generate(types.PaymentLinkParams{
			To:     testAddress,
			Amount: "100",
			Token:  types.TokenUSDC,
			Memo:   "invoice",
		})
		require.NoError(t, err)

		result := m.Verify(link.URL)
		assert.True(t, result.Valid, result.Error)
		assert.False(t, result.Expired)
		assert.Empty(t, result.TamperedFields)
		require.NotNil(t, result.Params)
		assert.Equal(t, testAddress, result.Params.To)
	})

	t.Run("detects tampered amount", func(t *testing.T) {
		m := New("test-secret", "")
		link, err := m.Generate(types.PaymentLinkParams{
			To:     testAddress,
			Amount: "100",
		})
		require.NoError(t, err)

		result := m.Verify(mutateQuery(t, link.URL, "amount", "999999"))
		assert.False(t, result.Valid)
		assert.Equal(t, []string{"signature"}, result.TamperedFields)
	})

	t.Run("detects tampered recipient", func(t *testing.T) {
		m := New("test-secret", "")
		link, err := m.Generate(types.PaymentLinkParams{
			To:     testAddress,
			Amount: "100",
		})
		require.NoError(t, err)

		result := m.Verify(mutateQuery(t, link.URL, "to",
			"0x1111111111111111111111111111111111111111"))
		assert.False(t, result.Valid)
		assert.Equal(t, []string{"signature"}, result.TamperedFields)
	})

	t.Run("flags homoglyph recipient before signature check", func(t *testing.T) {
		m := New("test-secret", "")
		link, err := m.Generate(types.PaymentLinkParams{
			To:     testAddress,
			Amount: "100",
		})
		require.NoError(t, err)

		homoglyph := strings.Replace(testAddress, "a", "а", 1)
		result := m.Verify(mutateQuery(t, link.URL, "to", homoglyph))
		assert.False(t, result.Valid)
		assert.True(t, result.HomoglyphDetected)
		assert.Equal(t, []string{"to"}, result.TamperedFields)
		require.NotNil(t, result.HomoglyphDetails)
		assert.NotEmpty(t, result.HomoglyphDetails.DetectedCharacters)
	})

	t.Run("reports expiry regardless of signature", func(t *testing.T) {
		m := New("test-secret", "")
		link, err := m.Generate(types.PaymentLinkParams{
			To:          testAddress,
			Amount:      "100",
			ExpiryHours: 1,
		})
		require.NoError(t, err)

		m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		result := m.Verify(link.URL)
		assert.False(t, result.Valid)
		assert.True(t, result.Expired)
		assert.Empty(t, result.TamperedFields)
	})

	t.Run("handles malformed input without error", func(t *testing.T) {
		m := New("test-secret", "")
		for _, bad := range []string{
			"",
			"not a url",
			"https://app.protocolbanks.com/pay",
			"https://app.protocolbanks.com/pay?to=0xabc",
		} {
			result := m.Verify(bad)
			assert.False(t, result.Valid, bad)
			assert.NotEmpty(t, result.Error, bad)
		}
	})

	t.Run("rejects link signed with a different secret", func(t *testing.T) {
		signer := New("secret-a", "")
		verifier := New("secret-b", "")

		link, err := signer.Generate(types.PaymentLinkParams{
			To:     testAddress,
			Amount: "100",
		})
		require.NoError(t, err)

		result := verifier.Verify(link.URL)
		assert.False(t, result.Valid)
		assert.Equal(t, []string{"signature"}, result.TamperedFields)
	})
}

func TestParse(t *testing.T) {
	m := New("test-secret", "")

	t.Run("extracts params without a trust decision", func(t *testing.T) {
		link, err := m.Generate(types.PaymentLinkParams{
			To:      testAddress,
			Amount:  "42.5",
			Token:   types.TokenDAI,
			Chain:   types.ChainPolygon,
			OrderID: "ord_7",
		})
		require.NoError(t, err)

		// Tampering does not matter to Parse.
		params, err := m.Parse(mutateQuery(t, link.URL, "amount", "9000"))
		require.NoError(t, err)
		assert.Equal(t, "9000", params.Amount)
		assert.Equal(t, types.TokenDAI, params.Token)
		assert.Equal(t, types.ChainPolygon, params.Chain)
		assert.Equal(t, "ord_7", params.OrderID)
	})

	t.Run("fails on missing required params", func(t *testing.T) {
		_, err := m.Parse("https://app.protocolbanks.com/pay?to=" + testAddress)
		requireSDKCode(t, err, types.ErrValidRequiredField)
	})
}

func TestSignature(t *testing.T) {
	params := SignatureParams{
		To:     testAddress,
		Amount: "100",
		Token:  "USDC",
		Expiry: 1756500000000,
		Memo:   "invoice",
	}

	t.Run("is deterministic and truncated", func(t *testing.T) {
		first := Sign(params, "secret")
		second := Sign(params, "secret")
		assert.Equal(t, first, second)
		assert.Len(t, first, SignatureLength)
	})

	t.Run("is case-normalized on recipient and token", func(t *testing.T) {
		upper := params
		upper.To = strings.ToUpper(testAddress[2:])
		upper.To = "0x" + upper.To
		upper.Token = "usdc"
		assert.Equal(t, Sign(params, "secret"), Sign(upper, "secret"))
	})

	t.Run("changes with every signed field", func(t *testing.T) {
		base := Sign(params, "secret")

		mutations := []SignatureParams{
			{To: "0x1111111111111111111111111111111111111111", Amount: params.Amount, Token: params.Token, Expiry: params.Expiry, Memo: params.Memo},
			{To: params.To, Amount: "101", Token: params.Token, Expiry: params.Expiry, Memo: params.Memo},
			{To: params.To, Amount: params.Amount, Token: "DAI", Expiry: params.Expiry, Memo: params.Memo},
			{To: params.To, Amount: params.Amount, Token: params.Token, Expiry: params.Expiry + 1, Memo: params.Memo},
			{To: params.To, Amount: params.Amount, Token: params.Token, Expiry: params.Expiry, Memo: "other"},
		}
		for _, mut := range mutations {
			assert.NotEqual(t, base, Sign(mut, "secret"))
		}
	})

	t.Run("verify rejects wrong signature", func(t *testing.T) {
		assert.True(t, VerifySignature(params, Sign(params, "secret"), "secret"))
		assert.False(t, VerifySignature(params, "0000000000000000", "secret"))
		assert.False(t, VerifySignature(params, Sign(params, "secret"), "other-secret"))
	})
}

func mutateQuery(t *testing.T, linkURL, key, value string) string {
	t.Helper()
	u, err := url.Parse(linkURL)
	require.NoError(t, err)
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}

func requireSDKCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var sdkErr *types.SDKError
	require.ErrorAs(t, err, &sdkErr)
	assert.Equal(t, code, sdkErr.Code)
}
