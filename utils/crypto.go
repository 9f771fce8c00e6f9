package utils

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// GenerateUUID generates a new UUID v4.
func GenerateUUID() string {
	return uuid.NewString()
}

// GeneratePaymentID generates a payment id of the form pay_<32 hex>.
func GeneratePaymentID() string {
	return "pay_" + strings.ReplaceAll(GenerateUUID(), "-", "")
}

// GenerateBatchID generates a batch id of the form batch_<32 hex>.
func GenerateBatchID() string {
	return "batch_" + strings.ReplaceAll(GenerateUUID(), "-", "")
}

// GenerateX402ID generates an authorization id of the form x402_<32 hex>.
func GenerateX402ID() string {
	return "x402_" + strings.ReplaceAll(GenerateUUID(), "-", "")
}

// GenerateNonce generates a random 32-byte nonce as a 0x-prefixed hex
// string, suitable for a bytes32 EIP-712 field.
func GenerateNonce() string {
	nonce := make([]byte, 32)
	if _, err := rand.Read(nonce); err != nil {
		// crypto/rand failing is effectively unrecoverable; fall back to
		// UUID entropy rather than returning a zero nonce.
		return "0x" + strings.ReplaceAll(GenerateUUID()+GenerateUUID(), "-", "")
	}
	return "0x" + hex.EncodeToString(nonce)
}

// HMACSign computes the hex-encoded HMAC-SHA256 of data under secret.
func HMACSign(data, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

// HMACVerify recomputes the HMAC and compares in constant time.
func HMACVerify(data, signature, secret string) bool {
	return ConstantTimeEqual(signature, HMACSign(data, secret))
}

// ConstantTimeEqual compares two strings without leaking a timing signal.
func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
