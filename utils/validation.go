package utils

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/protocolbanks/protocolbanks-go/types"
)

var validate = validator.New()

// ValidateStruct runs tag-based validation over a parameter struct and
// converts the first failure into a non-retryable validation error.
func ValidateStruct(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			if fe.Tag() == "required" {
				return types.NewSDKError(types.ErrValidRequiredField, types.ErrorCategoryValid,
					fmt.Sprintf("%s is required", fe.Field()))
			}
			return types.NewSDKError(types.ErrValidInvalidFormat, types.ErrorCategoryValid,
				fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
		return types.NewValidationError(err.Error())
	}
	return nil
}

var maxAmount = decimal.NewFromInt(types.MaxAmount)

// ParseAmount parses a decimal amount string and enforces the positive,
// bounded-amount invariant shared by links, authorizations, and batches.
func ParseAmount(amount string) (decimal.Decimal, error) {
	if amount == "" {
		return decimal.Decimal{}, types.NewSDKError(types.ErrLinkInvalidAmount,
			types.ErrorCategoryLink, "Amount is required")
	}

	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Decimal{}, types.NewSDKError(types.ErrLinkInvalidAmount,
			types.ErrorCategoryLink, "Invalid amount format")
	}

	if !dec.IsPositive() {
		return decimal.Decimal{}, types.NewSDKError(types.ErrLinkInvalidAmount,
			types.ErrorCategoryLink, "Amount must be positive")
	}

	if dec.GreaterThan(maxAmount) {
		return decimal.Decimal{}, types.NewSDKError(types.ErrLinkInvalidAmount,
			types.ErrorCategoryLink, "Amount exceeds maximum of 1 billion")
	}

	return dec, nil
}

// IsValidAmount reports whether an amount string passes ParseAmount.
func IsValidAmount(amount string) bool {
	_, err := ParseAmount(amount)
	return err == nil
}

// ScaleToUnits converts a decimal token amount to its integer smallest-unit
// representation (amount x 10^decimals), truncating any excess precision.
func ScaleToUnits(amount string, decimals int) (string, error) {
	dec, err := ParseAmount(amount)
	if err != nil {
		return "", err
	}
	return dec.Shift(int32(decimals)).Truncate(0).String(), nil
}

// ValidateToken checks that a token symbol is in the supported set.
func ValidateToken(token types.TokenSymbol) error {
	if token == "" {
		return types.NewSDKError(types.ErrLinkInvalidToken, types.ErrorCategoryLink,
			"Token is required")
	}
	for _, t := range types.SupportedTokens() {
		if t == token {
			return nil
		}
	}
	return types.NewSDKError(types.ErrLinkInvalidToken, types.ErrorCategoryLink,
		"Unsupported token: "+string(token))
}

// IsValidToken reports whether a token symbol is supported.
func IsValidToken(token types.TokenSymbol) bool {
	return ValidateToken(token) == nil
}

// ValidateChainID checks that a chain id is in the supported set. A nil
// chain is allowed everywhere a chain hint is optional.
func ValidateChainID(chain types.ChainID) error {
	if chain == nil {
		return nil
	}
	for _, c := range types.SupportedChains() {
		if c == chain {
			return nil
		}
	}
	return types.NewSDKError(types.ErrLinkInvalidChain, types.ErrorCategoryLink,
		"Unsupported chain")
}

// ValidateExpiryHours checks the payment link expiry window.
func ValidateExpiryHours(hours int) error {
	if hours < types.MinExpiryHours || hours > types.MaxExpiryHours {
		return types.NewSDKError(types.ErrLinkInvalidExpiry, types.ErrorCategoryLink,
			fmt.Sprintf("Expiry hours must be between %d and %d",
				types.MinExpiryHours, types.MaxExpiryHours))
	}
	return nil
}

// ValidateMemo checks the memo length bound.
func ValidateMemo(memo string) error {
	if len(memo) > types.MaxMemoLength {
		return types.NewSDKError(types.ErrValidOutOfRange, types.ErrorCategoryValid,
			fmt.Sprintf("Memo exceeds maximum length of %d characters", types.MaxMemoLength))
	}
	return nil
}

// ValidateBatchSize rejects empty and oversized batches before any
// per-recipient work happens.
func ValidateBatchSize(size int) error {
	if size == 0 {
		return types.NewSDKError(types.ErrBatchValidationFailed, types.ErrorCategoryBatch,
			"Batch cannot be empty")
	}
	if size > types.MaxBatchSize {
		return types.NewSDKError(types.ErrBatchSizeExceeded, types.ErrorCategoryBatch,
			fmt.Sprintf("Batch size exceeds maximum of %d", types.MaxBatchSize))
	}
	return nil
}

// IsExpired reports whether a millisecond-epoch expiry has passed.
func IsExpired(expiryMs int64) bool {
	return time.Now().UnixMilli() > expiryMs
}

// ParseFlexibleTime parses timestamps in the formats the API has been
// observed to emit.
func ParseFlexibleTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse time: %s", s)
}
