// Package links generates, verifies, and parses signed payment links.
package links

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/protocolbanks/protocolbanks-go/address"
	"github.com/protocolbanks/protocolbanks-go/logger"
	"github.com/protocolbanks/protocolbanks-go/metrics"
	"github.com/protocolbanks/protocolbanks-go/types"
	"github.com/protocolbanks/protocolbanks-go/utils"
)

// Module signs and re-verifies payment links. Verification never trusts
// the presented link: every field is re-derived from the query string and
// checked against a freshly computed signature.
type Module struct {
	secret  string
	baseURL string
	log     logger.Logger
	rec     metrics.Recorder
	now     func() time.Time
}

// New creates a link module. baseURL defaults to the hosted payment page.
func New(secret, baseURL string) *Module {
	if baseURL == "" {
		baseURL = types.PaymentLinkBaseURL
	}
	return &Module{
		secret:  secret,
		baseURL: baseURL,
		log:     logger.NoopLogger{},
		rec:     metrics.NoopRecorder{},
		now:     time.Now,
	}
}

// SetLogger replaces the module logger.
func (m *Module) SetLogger(l logger.Logger) { m.log = l }

// SetMetrics replaces the module metrics recorder.
func (m *Module) SetMetrics(r metrics.Recorder) { m.rec = r }

// Generate validates params, resolves defaults, and produces a signed,
// immutable payment link.
func (m *Module) Generate(params types.PaymentLinkParams) (*types.PaymentLink, error) {
	if err := m.validateParams(&params); err != nil {
		m.rec.IncCounter("link_generate_rejected", map[string]string{"module": "links"})
		return nil, err
	}

	token := params.Token
	if token == "" {
		token = types.DefaultToken
	}
	expiryHours := params.ExpiryHours
	if expiryHours == 0 {
		expiryHours = types.DefaultExpiryHours
	}

	now := m.now()
	expiresAt := now.Add(time.Duration(expiryHours) * time.Hour)
	expiryMs := expiresAt.UnixMilli()

	paymentID := utils.GeneratePaymentID()

	signature := Sign(SignatureParams{
		To:     params.To,
		Amount: params.Amount,
		Token:  string(token),
		Expiry: expiryMs,
		Memo:   params.Memo,
	}, m.secret)

	linkURL := m.buildURL(&params, token, expiryMs, signature, paymentID)
	shortURL := strings.Replace(m.baseURL, "/pay", "", 1) + "/p/" + paymentID[4:12]

	m.log.Debug("payment link generated", map[string]any{
		"paymentId": paymentID,
		"token":     string(token),
		"expiresAt": expiresAt,
	})
	m.rec.IncCounter("link_generated", map[string]string{"module": "links"})

	resolved := params
	resolved.Token = token
	resolved.ExpiryHours = expiryHours

	return &types.PaymentLink{
		URL:       linkURL,
		ShortURL:  shortURL,
		Params:    resolved,
		Signature: signature,
		CreatedAt: now,
		ExpiresAt: expiresAt,
		PaymentID: paymentID,
	}, nil
}

// Verify checks a payment link's integrity and expiry. Malformed input
// yields an invalid result, never an error: the caller is handing us
// untrusted data. Valid is true only when the signature matches and the
// link has not expired; the homoglyph screen runs first and bypasses
// signature recomputation entirely on a hit.
func (m *Module) Verify(linkURL string) *types.LinkVerificationResult {
	parsed, err := m.parseURL(linkURL)
	if err != nil {
		return &types.LinkVerificationResult{
			Valid:          false,
			Expired:        false,
			TamperedFields: []string{},
			Error:          "Invalid payment link URL format",
		}
	}

	params, signature, expiry := parsed.params, parsed.signature, parsed.expiry

	// An attacker can smuggle a homoglyph address into an otherwise
	// well-formed link, so the recipient is re-screened on every verify.
	if details := address.DetectHomoglyphs(params.To); details != nil {
		m.rec.IncCounter("link_homoglyph_detected", map[string]string{"module": "links"})
		return &types.LinkVerificationResult{
			Valid:             false,
			Expired:           false,
			TamperedFields:    []string{"to"},
			Params:            params,
			Error:             "Homoglyph attack detected in address",
			HomoglyphDetected: true,
			HomoglyphDetails:  details,
		}
	}

	expired := m.now().UnixMilli() > expiry

	token := params.Token
	if token == "" {
		token = types.DefaultToken
	}

	signatureValid := VerifySignature(SignatureParams{
		To:     params.To,
		Amount: params.Amount,
		Token:  string(token),
		Expiry: expiry,
		Memo:   params.Memo,
	}, signature, m.secret)

	var tamperedFields []string
	if !signatureValid {
		tamperedFields = append(tamperedFields, "signature")
	}

	var errMsg string
	if expired {
		errMsg = "Payment link has expired"
	} else if !signatureValid {
		errMsg = "Payment link signature is invalid"
	}

	return &types.LinkVerificationResult{
		Valid:          signatureValid && !expired,
		Expired:        expired,
		TamperedFields: tamperedFields,
		Params:         params,
		Error:          errMsg,
	}
}

// Parse extracts the parameters from a payment link without making any
// trust decision. Use Verify when integrity matters.
func (m *Module) Parse(linkURL string) (*types.PaymentLinkParams, error) {
	parsed, err := m.parseURL(linkURL)
	if err != nil {
		return nil, err
	}
	return parsed.params, nil
}

// SupportedChainsFor returns the chains a token can be paid on.
func (m *Module) SupportedChainsFor(token types.TokenSymbol) []types.ChainID {
	return types.ChainsForToken(token)
}

// SupportedTokensFor returns the tokens accepted on a chain.
func (m *Module) SupportedTokensFor(chain types.ChainID) []types.TokenSymbol {
	return types.TokensForChain(chain)
}

func (m *Module) validateParams(params *types.PaymentLinkParams) error {
	if err := utils.ValidateStruct(params); err != nil {
		return err
	}

	if err := address.Validate(params.To, params.Chain); err != nil {
		return err
	}

	if _, err := utils.ParseAmount(params.Amount); err != nil {
		return err
	}

	if params.Token != "" {
		if err := utils.ValidateToken(params.Token); err != nil {
			return err
		}
	}

	if err := utils.ValidateChainID(params.Chain); err != nil {
		return err
	}

	if params.ExpiryHours != 0 {
		if err := utils.ValidateExpiryHours(params.ExpiryHours); err != nil {
			return err
		}
	}

	if params.Memo != "" {
		if err := utils.ValidateMemo(params.Memo); err != nil {
			return err
		}
	}

	for _, chain := range params.AllowedChains {
		if err := utils.ValidateChainID(chain); err != nil {
			return err
		}
	}

	for _, token := range params.AllowedTokens {
		if err := utils.ValidateToken(token); err != nil {
			return err
		}
	}

	return nil
}

func (m *Module) buildURL(params *types.PaymentLinkParams, token types.TokenSymbol, expiry int64, signature, paymentID string) string {
	u, _ := url.Parse(m.baseURL)
	q := u.Query()

	q.Set("to", params.To)
	q.Set("amount", params.Amount)
	q.Set("token", string(token))
	q.Set("exp", strconv.FormatInt(expiry, 10))
	q.Set("sig", signature)
	q.Set("id", paymentID)

	if params.Chain != nil {
		q.Set("chain", params.Chain.String())
	}
	if params.Memo != "" {
		q.Set("memo", params.Memo)
	}
	if params.OrderID != "" {
		q.Set("orderId", params.OrderID)
	}
	if params.CallbackURL != "" {
		q.Set("callback", params.CallbackURL)
	}
	if len(params.AllowedChains) > 0 {
		chains := make([]string, len(params.AllowedChains))
		for i, c := range params.AllowedChains {
			chains[i] = c.String()
		}
		q.Set("chains", strings.Join(chains, ","))
	}
	if len(params.AllowedTokens) > 0 {
		tokens := make([]string, len(params.AllowedTokens))
		for i, t := range params.AllowedTokens {
			tokens[i] = string(t)
		}
		q.Set("tokens", strings.Join(tokens, ","))
	}

	u.RawQuery = q.Encode()
	return u.String()
}

type parsedURL struct {
	params    *types.PaymentLinkParams
	signature string
	expiry    int64
}

func (m *Module) parseURL(linkURL string) (*parsedURL, error) {
	u, err := url.Parse(linkURL)
	if err != nil {
		return nil, err
	}

	q := u.Query()

	to := q.Get("to")
	amount := q.Get("amount")
	signature := q.Get("sig")
	expiryStr := q.Get("exp")

	if to == "" || amount == "" || signature == "" || expiryStr == "" {
		return nil, types.NewSDKError(types.ErrValidRequiredField, types.ErrorCategoryValid,
			"Payment link is missing required parameters")
	}

	expiry, err := strconv.ParseInt(expiryStr, 10, 64)
	if err != nil {
		return nil, types.NewSDKError(types.ErrValidInvalidFormat, types.ErrorCategoryValid,
			"Invalid expiry timestamp")
	}

	tokenStr := q.Get("token")
	if tokenStr == "" {
		tokenStr = string(types.DefaultToken)
	}

	params := &types.PaymentLinkParams{
		To:          to,
		Amount:      amount,
		Token:       types.TokenSymbol(tokenStr),
		Chain:       parseChain(q.Get("chain")),
		Memo:        q.Get("memo"),
		OrderID:     q.Get("orderId"),
		CallbackURL: q.Get("callback"),
	}

	if chainsStr := q.Get("chains"); chainsStr != "" {
		for _, c := range strings.Split(chainsStr, ",") {
			params.AllowedChains = append(params.AllowedChains, parseChain(c))
		}
	}
	if tokensStr := q.Get("tokens"); tokensStr != "" {
		for _, t := range strings.Split(tokensStr, ",") {
			params.AllowedTokens = append(params.AllowedTokens, types.TokenSymbol(t))
		}
	}

	// Reconstruct an approximate expiry-hours value from the absolute
	// timestamp so the parsed params stay within the valid range.
	hours := int((expiry - m.now().UnixMilli()) / (60 * 60 * 1000))
	if hours < types.MinExpiryHours {
		hours = types.MinExpiryHours
	}
	params.ExpiryHours = hours

	return &parsedURL{
		params:    params,
		signature: signature,
		expiry:    expiry,
	}, nil
}

func parseChain(s string) types.ChainID {
	if s == "" {
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return types.NumericChainID(n)
	}
	return types.StringChainID(s)
}
