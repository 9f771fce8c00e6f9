package types

import (
	"fmt"
	"time"
)

// ErrorCategory groups error codes by subsystem.
type ErrorCategory string

const (
	ErrorCategoryAuth   ErrorCategory = "AUTH"
	ErrorCategoryLink   ErrorCategory = "LINK"
	ErrorCategoryX402   ErrorCategory = "X402"
	ErrorCategoryBatch  ErrorCategory = "BATCH"
	ErrorCategoryNet    ErrorCategory = "NET"
	ErrorCategoryRate   ErrorCategory = "RATE"
	ErrorCategoryValid  ErrorCategory = "VALID"
	ErrorCategoryCrypto ErrorCategory = "CRYPTO"
	ErrorCategoryChain  ErrorCategory = "CHAIN"
)

// Error codes follow the pattern PB_{CATEGORY}_{NNN}. Codes are stable:
// integrations match on them, so they are never renumbered.
const (
	ErrAuthInvalidAPIKey           = "PB_AUTH_001"
	ErrAuthInvalidSecret           = "PB_AUTH_002"
	ErrAuthTokenExpired            = "PB_AUTH_003"
	ErrAuthTokenInvalid            = "PB_AUTH_004"
	ErrAuthInsufficientPermissions = "PB_AUTH_005"

	ErrLinkInvalidAddress    = "PB_LINK_001"
	ErrLinkInvalidAmount     = "PB_LINK_002"
	ErrLinkInvalidToken      = "PB_LINK_003"
	ErrLinkInvalidChain      = "PB_LINK_004"
	ErrLinkExpired           = "PB_LINK_005"
	ErrLinkTampered          = "PB_LINK_006"
	ErrLinkHomoglyphDetected = "PB_LINK_007"
	ErrLinkInvalidExpiry     = "PB_LINK_008"

	ErrX402UnsupportedChain     = "PB_X402_001"
	ErrX402UnsupportedToken     = "PB_X402_002"
	ErrX402AuthorizationExpired = "PB_X402_003"
	ErrX402InvalidSignature     = "PB_X402_004"
	ErrX402NonceReused          = "PB_X402_005"
	ErrX402InsufficientBalance  = "PB_X402_006"
	ErrX402RelayerError         = "PB_X402_007"
	ErrX402IllegalTransition    = "PB_X402_008"

	ErrBatchSizeExceeded      = "PB_BATCH_001"
	ErrBatchValidationFailed  = "PB_BATCH_002"
	ErrBatchNotFound          = "PB_BATCH_003"
	ErrBatchAlreadyProcessing = "PB_BATCH_004"

	ErrNetConnectionFailed = "PB_NET_001"
	ErrNetTimeout          = "PB_NET_002"
	ErrNetDNSFailed        = "PB_NET_003"
	ErrNetSSLError         = "PB_NET_004"

	ErrRateLimitExceeded = "PB_RATE_001"
	ErrRateQuotaExceeded = "PB_RATE_002"

	ErrValidRequiredField = "PB_VALID_001"
	ErrValidInvalidFormat = "PB_VALID_002"
	ErrValidOutOfRange    = "PB_VALID_003"

	ErrCryptoEncryptionFailed    = "PB_CRYPTO_001"
	ErrCryptoDecryptionFailed    = "PB_CRYPTO_002"
	ErrCryptoSignatureFailed     = "PB_CRYPTO_003"
	ErrCryptoKeyDerivationFailed = "PB_CRYPTO_004"

	ErrChainUnsupported       = "PB_CHAIN_001"
	ErrChainRPCError          = "PB_CHAIN_002"
	ErrChainTransactionFailed = "PB_CHAIN_003"
)

// SDKError is the error type returned by every module in this library.
type SDKError struct {
	Code       string        `json:"code"`
	Category   ErrorCategory `json:"category"`
	Message    string        `json:"message"`
	Details    interface{}   `json:"details,omitempty"`
	Retryable  bool          `json:"retryable"`
	RetryAfter time.Duration `json:"retryAfter,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
	RequestID  string        `json:"requestId,omitempty"`
}

func (e *SDKError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Category, e.Message)
}

// NewSDKError creates an SDK error with the given code and category.
func NewSDKError(code string, category ErrorCategory, message string) *SDKError {
	return &SDKError{
		Code:      code,
		Category:  category,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// WithDetails attaches structured details to the error.
func (e *SDKError) WithDetails(details interface{}) *SDKError {
	e.Details = details
	return e
}

// WithRetryable marks the error as retryable.
func (e *SDKError) WithRetryable(retryable bool) *SDKError {
	e.Retryable = retryable
	return e
}

// WithRetryAfter sets the retry-after hint.
func (e *SDKError) WithRetryAfter(d time.Duration) *SDKError {
	e.RetryAfter = d
	return e
}

// WithRequestID records the originating request id.
func (e *SDKError) WithRequestID(id string) *SDKError {
	e.RequestID = id
	return e
}

// IsRetryable reports whether a retry may succeed.
func (e *SDKError) IsRetryable() bool {
	return e.Retryable
}

// NewValidationError creates a non-retryable validation error.
func NewValidationError(message string) *SDKError {
	return NewSDKError(ErrValidInvalidFormat, ErrorCategoryValid, message)
}

// NewAuthError creates an authentication error with the given code.
func NewAuthError(code string, message string) *SDKError {
	return NewSDKError(code, ErrorCategoryAuth, message)
}

// NewNetworkError creates a retryable network error.
func NewNetworkError(message string) *SDKError {
	return NewSDKError(ErrNetConnectionFailed, ErrorCategoryNet, message).WithRetryable(true)
}

// NewRateLimitError creates a retryable rate-limit error.
func NewRateLimitError(retryAfter time.Duration) *SDKError {
	return NewSDKError(ErrRateLimitExceeded, ErrorCategoryRate, "Rate limit exceeded").
		WithRetryable(true).
		WithRetryAfter(retryAfter)
}
