package types

import "time"

// PaymentLinkParams holds the inputs for generating a payment link.
type PaymentLinkParams struct {
	To            string            `json:"to" validate:"required"`
	Amount        string            `json:"amount" validate:"required"`
	Token         TokenSymbol       `json:"token,omitempty"`
	Chain         ChainID           `json:"chain,omitempty"`
	ExpiryHours   int               `json:"expiryHours,omitempty"`
	Memo          string            `json:"memo,omitempty" validate:"omitempty,max=256"`
	OrderID       string            `json:"orderId,omitempty"`
	CallbackURL   string            `json:"callbackUrl,omitempty" validate:"omitempty,url"`
	WebhookURL    string            `json:"webhookUrl,omitempty" validate:"omitempty,url"`
	AllowedChains []ChainID         `json:"allowedChains,omitempty"`
	AllowedTokens []TokenSymbol     `json:"allowedTokens,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// PaymentLink is a signed, immutable payment request artifact.
type PaymentLink struct {
	URL       string            `json:"url"`
	ShortURL  string            `json:"shortUrl"`
	Params    PaymentLinkParams `json:"params"`
	Signature string            `json:"signature"`
	CreatedAt time.Time         `json:"createdAt"`
	ExpiresAt time.Time         `json:"expiresAt"`
	PaymentID string            `json:"paymentId"`
}

// DetectedCharacter describes a single confusable character found in an
// address.
type DetectedCharacter struct {
	Position          int    `json:"position"`
	Character         string `json:"character"`
	UnicodePoint      string `json:"unicodePoint"`
	ExpectedCharacter string `json:"expectedCharacter"`
}

// HomoglyphDetails is the report attached to homoglyph rejections.
type HomoglyphDetails struct {
	OriginalAddress    string              `json:"originalAddress"`
	DetectedCharacters []DetectedCharacter `json:"detectedCharacters"`
}

// LinkVerificationResult is the outcome of re-verifying a payment link.
// Valid is true only when the signature matches and the link is not
// expired; the two checks are reported independently.
type LinkVerificationResult struct {
	Valid             bool               `json:"valid"`
	Expired           bool               `json:"expired"`
	TamperedFields    []string           `json:"tamperedFields"`
	Params            *PaymentLinkParams `json:"params,omitempty"`
	Error             string             `json:"error,omitempty"`
	HomoglyphDetected bool               `json:"homoglyphDetected,omitempty"`
	HomoglyphDetails  *HomoglyphDetails  `json:"homoglyphDetails,omitempty"`
}
