// Package x402 manages gasless transfer authorizations: EIP-712 typed
// data construction, the authorization state machine, and relay
// submission.
package x402

import (
	"context"
	"fmt"
	"time"

	"github.com/protocolbanks/protocolbanks-go/address"
	"github.com/protocolbanks/protocolbanks-go/logger"
	"github.com/protocolbanks/protocolbanks-go/metrics"
	"github.com/protocolbanks/protocolbanks-go/types"
	"github.com/protocolbanks/protocolbanks-go/utils"
	"github.com/protocolbanks/protocolbanks-go/utils/eip712"
)

const (
	// DefaultValiditySeconds is the default authorization validity (1 hour).
	DefaultValiditySeconds = 3600

	// MaxValiditySeconds caps the validity window at 24 hours.
	MaxValiditySeconds = 86400

	// MinValiditySeconds is the shortest window a caller may request.
	MinValiditySeconds = 60
)

// TransferWithAuthorizationTypes is the EIP-712 type table included in
// every authorization, matching the ERC-3009 type string hashed by the
// eip712 package.
var TransferWithAuthorizationTypes = types.EIP712Types{
	"TransferWithAuthorization": {
		{Name: "from", Type: "address"},
		{Name: "to", Type: "address"},
		{Name: "value", Type: "uint256"},
		{Name: "validAfter", Type: "uint256"},
		{Name: "validBefore", Type: "uint256"},
		{Name: "nonce", Type: "bytes32"},
	},
}

// Manager owns the authorization store and drives the authorization
// lifecycle. The backend is optional: registration, cancellation notices,
// and status refreshes are best-effort, while relay submission failures
// always propagate.
type Manager struct {
	backend types.Backend
	store   *store
	log     logger.Logger
	rec     metrics.Recorder
	now     func() time.Time
}

// New creates an authorization manager. backend may be nil for purely
// local operation.
func New(backend types.Backend) *Manager {
	return &Manager{
		backend: backend,
		store:   newStore(),
		log:     logger.NoopLogger{},
		rec:     metrics.NoopRecorder{},
		now:     time.Now,
	}
}

// SetLogger replaces the manager logger.
func (m *Manager) SetLogger(l logger.Logger) { m.log = l }

// SetMetrics replaces the manager metrics recorder.
func (m *Manager) SetMetrics(r metrics.Recorder) { m.rec = r }

// CreateAuthorization validates the request, builds the EIP-712 typed
// data for an ERC-3009 transfer, and stores a pending authorization.
// Backend registration is best-effort: the local record stays
// authoritative until the first status query.
func (m *Manager) CreateAuthorization(ctx context.Context, params types.X402AuthorizationParams) (*types.X402Authorization, error) {
	if err := m.validateParams(&params); err != nil {
		return nil, err
	}

	if !m.IsChainSupported(params.ChainID) {
		return nil, types.NewSDKError(types.ErrX402UnsupportedChain, types.ErrorCategoryX402,
			fmt.Sprintf("Chain %d does not support gasless transfers", params.ChainID))
	}

	if !m.IsTokenSupported(params.ChainID, params.Token) {
		return nil, types.NewSDKError(types.ErrX402UnsupportedToken, types.ErrorCategoryX402,
			fmt.Sprintf("Token %s does not support gasless transfers on chain %d", params.Token, params.ChainID))
	}

	validFor := params.ValidFor
	if validFor == 0 {
		validFor = DefaultValiditySeconds
	}

	now := m.now()
	validAfter := now.Unix()
	validBefore := validAfter + int64(validFor)

	nonce := utils.GenerateNonce()

	tokenAddress := types.TokenAddress(types.NumericChainID(params.ChainID), params.Token)
	if tokenAddress == "" {
		return nil, types.NewSDKError(types.ErrX402UnsupportedToken, types.ErrorCategoryX402,
			fmt.Sprintf("Token %s has no contract address on chain %d", params.Token, params.ChainID))
	}

	domain := types.EIP712Domain{
		Name:              types.TokenName(params.Token),
		Version:           "2", // USDC domain version
		ChainID:           params.ChainID,
		VerifyingContract: tokenAddress,
	}

	value, err := utils.ScaleToUnits(params.Amount, types.TokenDecimals(params.Token))
	if err != nil {
		return nil, err
	}

	auth := &types.X402Authorization{
		ID:     utils.GenerateX402ID(),
		Domain: domain,
		Types:  TransferWithAuthorizationTypes,
		Message: types.TransferWithAuthorizationMessage{
			// From is filled when the signature arrives.
			To:          params.To,
			Value:       value,
			ValidAfter:  validAfter,
			ValidBefore: validBefore,
			Nonce:       nonce,
		},
		Status:    types.X402StatusPending,
		CreatedAt: now,
		ExpiresAt: time.Unix(validBefore, 0),
	}

	m.store.put(auth)
	m.rec.IncCounter("authorization_created", map[string]string{"module": "x402"})

	if m.backend != nil {
		if err := m.backend.Post(ctx, "/x402/authorizations", map[string]interface{}{
			"id":          auth.ID,
			"chainId":     params.ChainID,
			"token":       params.Token,
			"to":          params.To,
			"amount":      params.Amount,
			"validBefore": validBefore,
			"nonce":       nonce,
		}, nil); err != nil {
			// Registration is best-effort; the local record remains
			// authoritative until the first status query.
			m.log.Warn("authorization registration failed", map[string]any{
				"id": auth.ID, "error": err.Error(),
			})
		}
	}

	result := *auth
	return &result, nil
}

// SubmitSignature attaches a caller-produced EIP-712 signature to an
// authorization and forwards it to the relayer. The signature must be a
// 65-byte hex-encoded ECDSA signature. Relay failures mark the
// authorization failed and are returned to the caller.
func (m *Manager) SubmitSignature(ctx context.Context, authID, signature string) (*types.X402Authorization, error) {
	var result *types.X402Authorization

	found, err := m.store.withEntry(authID, func(auth *types.X402Authorization) error {
		if m.now().After(auth.ExpiresAt) {
			if auth.Status.CanTransitionTo(types.X402StatusExpired) {
				auth.Status = types.X402StatusExpired
			}
			return types.NewSDKError(types.ErrX402AuthorizationExpired, types.ErrorCategoryX402,
				"Authorization has expired")
		}

		if _, decodeErr := eip712.DecodeSignature(signature); decodeErr != nil {
			return types.NewSDKError(types.ErrX402InvalidSignature, types.ErrorCategoryX402,
				"Invalid signature format").WithDetails(decodeErr.Error())
		}

		if err := m.transition(auth, types.X402StatusSigned); err != nil {
			return err
		}
		auth.Signature = signature

		if err := m.relay(ctx, auth); err != nil {
			return err
		}

		cp := *auth
		result = &cp
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, types.NewSDKError(types.ErrX402AuthorizationExpired, types.ErrorCategoryX402,
			"Authorization not found or expired")
	}

	m.rec.IncCounter("signature_submitted", map[string]string{"module": "x402"})
	return result, nil
}

// relay submits the signed authorization. Errors propagate to the caller
// even though the local record has already been marked failed.
func (m *Manager) relay(ctx context.Context, auth *types.X402Authorization) error {
	if m.backend == nil {
		_ = m.transition(auth, types.X402StatusFailed)
		return types.NewSDKError(types.ErrX402RelayerError, types.ErrorCategoryX402,
			"No relay backend configured")
	}

	var response struct {
		TransactionHash string           `json:"transactionHash"`
		Status          types.X402Status `json:"status"`
	}

	if err := m.backend.Post(ctx, "/x402/submit", map[string]interface{}{
		"authorizationId": auth.ID,
		"signature":       auth.Signature,
		"domain":          auth.Domain,
		"message":         auth.Message,
	}, &response); err != nil {
		_ = m.transition(auth, types.X402StatusFailed)
		return err
	}

	m.advance(auth, response.Status)
	auth.TransactionHash = response.TransactionHash
	return nil
}

// GetStatus returns the authorization, eagerly expiring stale pending
// records. Non-terminal records are refreshed from the backend
// best-effort, silently preferring cached data on failure.
func (m *Manager) GetStatus(ctx context.Context, authID string) (*types.X402Authorization, error) {
	var result *types.X402Authorization

	found, err := m.store.withEntry(authID, func(auth *types.X402Authorization) error {
		if m.now().After(auth.ExpiresAt) && auth.Status == types.X402StatusPending {
			auth.Status = types.X402StatusExpired
		}

		if !auth.Status.IsTerminal() && m.backend != nil {
			var response types.X402Authorization
			if err := m.backend.Get(ctx, "/x402/authorizations/"+authID, &response); err == nil {
				m.advance(auth, response.Status)
				if response.TransactionHash != "" {
					auth.TransactionHash = response.TransactionHash
				}
			}
			// refresh failures fall back to the cached record
		}

		cp := *auth
		result = &cp
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found {
		return result, nil
	}

	if m.backend == nil {
		return nil, types.NewSDKError(types.ErrX402AuthorizationExpired, types.ErrorCategoryX402,
			"Authorization not found")
	}

	var response types.X402Authorization
	if err := m.backend.Get(ctx, "/x402/authorizations/"+authID, &response); err != nil {
		return nil, err
	}
	m.store.put(&response)
	cp := response
	return &cp, nil
}

// Cancel cancels a pending or signed authorization. Backend notification
// is best-effort.
func (m *Manager) Cancel(ctx context.Context, authID string) error {
	found, err := m.store.withEntry(authID, func(auth *types.X402Authorization) error {
		if auth.Status != types.X402StatusPending && auth.Status != types.X402StatusSigned {
			return types.NewSDKError(types.ErrX402AuthorizationExpired, types.ErrorCategoryX402,
				fmt.Sprintf("Cannot cancel authorization in %s status", auth.Status))
		}
		return m.transition(auth, types.X402StatusCancelled)
	})
	if err != nil {
		return err
	}
	if !found {
		return types.NewSDKError(types.ErrX402AuthorizationExpired, types.ErrorCategoryX402,
			"Authorization not found")
	}

	if m.backend != nil {
		if notifyErr := m.backend.Post(ctx, "/x402/authorizations/"+authID+"/cancel", nil, nil); notifyErr != nil {
			m.log.Debug("cancellation notice failed", map[string]any{
				"id": authID, "error": notifyErr.Error(),
			})
		}
	}
	return nil
}

// CleanupExpired marks still-pending expired authorizations expired and
// evicts every expired record. This is the only operation that removes
// records from the store.
func (m *Manager) CleanupExpired() int {
	now := m.now()
	evicted := m.store.sweepExpired(func(auth *types.X402Authorization) bool {
		return now.After(auth.ExpiresAt)
	})
	if evicted > 0 {
		m.log.Debug("expired authorizations evicted", map[string]any{"count": evicted})
	}
	return evicted
}

// Close sweeps the store. The manager holds no other resources.
func (m *Manager) Close() {
	m.CleanupExpired()
}

// GetTypedData returns the full EIP-712 typed-data document for wallet
// signing, with the signer's address substituted into the message.
func (m *Manager) GetTypedData(auth *types.X402Authorization, fromAddress string) map[string]interface{} {
	message := auth.Message
	message.From = fromAddress

	return map[string]interface{}{
		"domain":      auth.Domain,
		"types":       auth.Types,
		"primaryType": "TransferWithAuthorization",
		"message":     message,
	}
}

// GetPendingAuthorizations returns copies of every authorization still
// awaiting signature or relay.
func (m *Manager) GetPendingAuthorizations() []*types.X402Authorization {
	return m.store.snapshot(func(auth *types.X402Authorization) bool {
		return auth.Status == types.X402StatusPending || auth.Status == types.X402StatusSigned
	})
}

// IsChainSupported reports whether a chain supports gasless transfers.
func (m *Manager) IsChainSupported(chainID int) bool {
	for _, c := range types.X402SupportedChains() {
		if int(c) == chainID {
			return true
		}
	}
	return false
}

// IsTokenSupported reports whether a token supports gasless transfers on
// a chain.
func (m *Manager) IsTokenSupported(chainID int, token types.TokenSymbol) bool {
	if !m.IsChainSupported(chainID) {
		return false
	}
	for _, t := range types.X402SupportedTokens() {
		if t == token {
			return true
		}
	}
	return false
}

// GetSupportedChains returns the chain ids that support gasless
// transfers.
func (m *Manager) GetSupportedChains() []int {
	chains := types.X402SupportedChains()
	out := make([]int, len(chains))
	for i, c := range chains {
		out[i] = int(c)
	}
	return out
}

// GetSupportedTokens returns the tokens that support gasless transfers on
// a chain.
func (m *Manager) GetSupportedTokens(chainID int) []types.TokenSymbol {
	if !m.IsChainSupported(chainID) {
		return nil
	}
	return types.X402SupportedTokens()
}

// transition applies a single status change, rejecting illegal moves.
func (m *Manager) transition(auth *types.X402Authorization, next types.X402Status) error {
	if !auth.Status.CanTransitionTo(next) {
		return types.NewSDKError(types.ErrX402IllegalTransition, types.ErrorCategoryX402,
			fmt.Sprintf("Illegal status transition %s -> %s", auth.Status, next))
	}
	auth.Status = next
	return nil
}

// advance walks the state machine toward a backend-reported status,
// applying intermediate transitions so the machine's invariants hold.
// Unreachable targets leave the cached status untouched.
func (m *Manager) advance(auth *types.X402Authorization, target types.X402Status) {
	if target == "" || auth.Status == target {
		return
	}

	path := []types.X402Status{
		types.X402StatusSigned,
		types.X402StatusSubmitted,
		types.X402StatusExecuted,
	}
	if target == types.X402StatusFailed || target == types.X402StatusExpired || target == types.X402StatusCancelled {
		if auth.Status.CanTransitionTo(target) {
			auth.Status = target
		} else {
			m.log.Warn("unreachable status from backend", map[string]any{
				"id": auth.ID, "local": string(auth.Status), "backend": string(target),
			})
		}
		return
	}

	for _, step := range path {
		if auth.Status == target {
			return
		}
		if auth.Status.CanTransitionTo(step) {
			auth.Status = step
		}
		if step == target {
			return
		}
	}
	if auth.Status != target {
		m.log.Warn("unreachable status from backend", map[string]any{
			"id": auth.ID, "local": string(auth.Status), "backend": string(target),
		})
	}
}

func (m *Manager) validateParams(params *types.X402AuthorizationParams) error {
	if err := utils.ValidateStruct(params); err != nil {
		return err
	}

	if err := address.Validate(params.To, types.NumericChainID(params.ChainID)); err != nil {
		return err
	}

	if _, err := utils.ParseAmount(params.Amount); err != nil {
		return err
	}

	if err := utils.ValidateToken(params.Token); err != nil {
		return err
	}

	if params.ValidFor != 0 {
		if params.ValidFor < MinValiditySeconds || params.ValidFor > MaxValiditySeconds {
			return types.NewSDKError(types.ErrValidOutOfRange, types.ErrorCategoryValid,
				fmt.Sprintf("validFor must be between %d and %d seconds",
					MinValiditySeconds, MaxValiditySeconds))
		}
	}

	return nil
}
