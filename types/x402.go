package types

import "time"

// X402Status is the lifecycle state of a gasless transfer authorization.
type X402Status string

const (
	X402StatusPending   X402Status = "pending"
	X402StatusSigned    X402Status = "signed"
	X402StatusSubmitted X402Status = "submitted"
	X402StatusExecuted  X402Status = "executed"
	X402StatusFailed    X402Status = "failed"
	X402StatusExpired   X402Status = "expired"
	X402StatusCancelled X402Status = "cancelled"
)

// x402Transitions encodes the legal state machine:
// pending -> signed -> submitted -> executed|failed, with expired reachable
// from pending/signed and cancelled only by explicit caller action from
// pending/signed. Terminal states admit no transitions.
var x402Transitions = map[X402Status][]X402Status{
	X402StatusPending:   {X402StatusSigned, X402StatusExpired, X402StatusCancelled},
	X402StatusSigned:    {X402StatusSubmitted, X402StatusFailed, X402StatusExpired, X402StatusCancelled},
	X402StatusSubmitted: {X402StatusExecuted, X402StatusFailed},
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s X402Status) CanTransitionTo(next X402Status) bool {
	for _, allowed := range x402Transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (s X402Status) IsTerminal() bool {
	switch s {
	case X402StatusExecuted, X402StatusFailed, X402StatusExpired, X402StatusCancelled:
		return true
	}
	return false
}

// EIP712Domain is the EIP-712 domain separator input.
type EIP712Domain struct {
	Name              string `json:"name"`
	Version           string `json:"version"`
	ChainID           int    `json:"chainId"`
	VerifyingContract string `json:"verifyingContract"`
}

// EIP712TypeField is a single field of an EIP-712 struct type.
type EIP712TypeField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// EIP712Types maps type names to their field lists.
type EIP712Types map[string][]EIP712TypeField

// TransferWithAuthorizationMessage is the ERC-3009 message to be signed.
type TransferWithAuthorizationMessage struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	ValidAfter  int64  `json:"validAfter"`
	ValidBefore int64  `json:"validBefore"`
	Nonce       string `json:"nonce"`
}

// X402AuthorizationParams holds the inputs for creating an authorization.
type X402AuthorizationParams struct {
	To       string      `json:"to" validate:"required"`
	Amount   string      `json:"amount" validate:"required"`
	Token    TokenSymbol `json:"token" validate:"required"`
	ChainID  int         `json:"chainId" validate:"required"`
	ValidFor int         `json:"validFor,omitempty"` // seconds, default 3600
}

// X402Authorization is a gasless transfer authorization record. It is
// owned by the authorization store; only its status (and the fields set
// alongside a status change) ever mutate after creation.
type X402Authorization struct {
	ID              string                           `json:"id"`
	Domain          EIP712Domain                     `json:"domain"`
	Types           EIP712Types                      `json:"types"`
	Message         TransferWithAuthorizationMessage `json:"message"`
	Status          X402Status                       `json:"status"`
	Signature       string                           `json:"signature,omitempty"`
	TransactionHash string                           `json:"transactionHash,omitempty"`
	RelayerFee      string                           `json:"relayerFee,omitempty"`
	CreatedAt       time.Time                        `json:"createdAt"`
	ExpiresAt       time.Time                        `json:"expiresAt"`
}
