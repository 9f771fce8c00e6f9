package links

import (
	"github.com/protocolbanks/protocolbanks-go/utils"
)

// SignatureLength is the truncated length of a payment link signature.
// Link signatures are cut to 16 hex characters (64 bits) to keep URLs
// short; webhook signatures carry the full 64-character HMAC.
const SignatureLength = 16

// SignatureParams are the signed fields of a payment link.
type SignatureParams struct {
	To     string
	Amount string
	Token  string
	Expiry int64 // ms epoch
	Memo   string
}

// Sign derives the truncated link signature from the canonical form of
// the signed fields.
func Sign(params SignatureParams, secret string) string {
	data := utils.LinkSigningString(params.To, params.Amount, params.Token, params.Expiry, params.Memo)
	sig := utils.HMACSign(data, secret)
	if len(sig) > SignatureLength {
		return sig[:SignatureLength]
	}
	return sig
}

// VerifySignature recomputes the expected signature and compares in
// constant time.
func VerifySignature(params SignatureParams, signature, secret string) bool {
	return utils.ConstantTimeEqual(signature, Sign(params, secret))
}
