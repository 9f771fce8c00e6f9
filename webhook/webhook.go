// Package webhook authenticates inbound webhook deliveries with
// timestamped HMAC signatures and parses them into typed events.
package webhook

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/protocolbanks/protocolbanks-go/logger"
	"github.com/protocolbanks/protocolbanks-go/types"
	"github.com/protocolbanks/protocolbanks-go/utils"
)

const (
	// SignatureHeader is the HTTP header carrying the webhook signature.
	SignatureHeader = "X-PB-Signature"

	// TimestampHeader is the HTTP header carrying the webhook timestamp.
	TimestampHeader = "X-PB-Timestamp"

	// DefaultTolerance is the replay window in seconds.
	DefaultTolerance = 300
)

// SupportedEventTypes lists every event type this SDK understands.
var SupportedEventTypes = []types.WebhookEventType{
	types.WebhookPaymentCreated,
	types.WebhookPaymentCompleted,
	types.WebhookPaymentFailed,
	types.WebhookPaymentExpired,
	types.WebhookBatchCreated,
	types.WebhookBatchProcessing,
	types.WebhookBatchCompleted,
	types.WebhookBatchFailed,
	types.WebhookX402Created,
	types.WebhookX402Signed,
	types.WebhookX402Executed,
	types.WebhookX402Failed,
	types.WebhookX402Expired,
}

// Module verifies webhook signatures and parses event payloads.
type Module struct {
	log logger.Logger
	now func() time.Time
}

// New creates a webhook module.
func New() *Module {
	return &Module{
		log: logger.NoopLogger{},
		now: time.Now,
	}
}

// SetLogger replaces the module logger.
func (m *Module) SetLogger(l logger.Logger) { m.log = l }

// Sign produces a signature header for a payload: t=<unix>,v1=<hmac>.
// The HMAC covers "<timestamp>.<payload>" and is the full 64 hex
// characters, unlike truncated link signatures. A zero timestamp means
// now.
func (m *Module) Sign(payload, secret string, timestamp int64) string {
	if timestamp == 0 {
		timestamp = m.now().Unix()
	}
	sig := utils.HMACSign(utils.WebhookSigningString(timestamp, payload), secret)
	return FormatSignatureHeader(sig, timestamp)
}

// Verify authenticates a webhook delivery. The timestamp is checked
// against the replay window before the HMAC is computed; a stale
// timestamp short-circuits. Both checks must pass independently, and only
// then is the payload parsed into an event.
func (m *Module) Verify(payload, header, secret string, tolerance int) *types.WebhookVerificationResult {
	if tolerance == 0 {
		tolerance = DefaultTolerance
	}

	timestamp, sig, ok := ParseSignatureHeader(header)
	if !ok {
		return &types.WebhookVerificationResult{
			Valid: false,
			Error: "Invalid signature format",
		}
	}

	if abs(m.now().Unix()-timestamp) > int64(tolerance) {
		return &types.WebhookVerificationResult{
			Valid:          false,
			Error:          "Webhook timestamp is outside tolerance window",
			TimestampValid: false,
		}
	}

	if !utils.HMACVerify(utils.WebhookSigningString(timestamp, payload), sig, secret) {
		return &types.WebhookVerificationResult{
			Valid:          false,
			Error:          "Invalid webhook signature",
			TimestampValid: true,
		}
	}

	event, err := m.Parse(payload)
	if err != nil {
		return &types.WebhookVerificationResult{
			Valid:          false,
			Error:          err.Error(),
			TimestampValid: true,
		}
	}

	return &types.WebhookVerificationResult{
		Valid:          true,
		Event:          event,
		TimestampValid: true,
	}
}

// Parse decodes a webhook payload into an event. The id and type fields
// are required and the type must be a supported event type. Timestamps
// are accepted as epoch seconds, epoch milliseconds, or RFC 3339; an
// absent or unparseable timestamp falls back to the current time.
func (m *Module) Parse(payload string) (*types.WebhookEvent, error) {
	var data struct {
		ID        string                 `json:"id"`
		Type      string                 `json:"type"`
		Timestamp interface{}            `json:"timestamp"`
		Data      map[string]interface{} `json:"data"`
		Signature string                 `json:"signature"`
	}

	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return nil, types.NewSDKError(types.ErrValidInvalidFormat, types.ErrorCategoryValid,
			"Invalid webhook payload JSON")
	}

	if data.ID == "" || data.Type == "" {
		return nil, types.NewSDKError(types.ErrValidRequiredField, types.ErrorCategoryValid,
			"Webhook payload missing required fields (id, type)")
	}

	if !IsValidEventType(data.Type) {
		return nil, types.NewSDKError(types.ErrValidInvalidFormat, types.ErrorCategoryValid,
			"Unknown webhook event type: "+data.Type)
	}

	return &types.WebhookEvent{
		ID:        data.ID,
		Type:      types.WebhookEventType(data.Type),
		Timestamp: m.parseTimestamp(data.Timestamp),
		Data:      data.Data,
		Signature: data.Signature,
	}, nil
}

func (m *Module) parseTimestamp(v interface{}) time.Time {
	switch t := v.(type) {
	case float64:
		// values past the year 33658 in seconds are millisecond epochs
		if t > 1e12 {
			return time.UnixMilli(int64(t))
		}
		return time.Unix(int64(t), 0)
	case string:
		if parsed, err := utils.ParseFlexibleTime(t); err == nil {
			return parsed
		}
		return m.now()
	default:
		return m.now()
	}
}

// FormatSignatureHeader renders the t=...,v1=... header value.
func FormatSignatureHeader(signature string, timestamp int64) string {
	return "t=" + strconv.FormatInt(timestamp, 10) + ",v1=" + signature
}

// ParseSignatureHeader splits a signature header into its timestamp and
// signature. ok is false when either part is missing or malformed.
func ParseSignatureHeader(header string) (timestamp int64, signature string, ok bool) {
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return 0, "", false
			}
			timestamp = ts
		case "v1":
			signature = kv[1]
		}
	}
	if timestamp == 0 || signature == "" {
		return 0, "", false
	}
	return timestamp, signature, true
}

// IsValidEventType reports whether an event type string is supported.
func IsValidEventType(eventType string) bool {
	for _, t := range SupportedEventTypes {
		if string(t) == eventType {
			return true
		}
	}
	return false
}

// Event classification predicates. These are pure functions over the
// dotted event-type namespace.

// IsPaymentEvent reports whether an event is in the payment namespace.
func IsPaymentEvent(event *types.WebhookEvent) bool {
	return strings.HasPrefix(string(event.Type), "payment.")
}

// IsBatchEvent reports whether an event is in the batch namespace.
func IsBatchEvent(event *types.WebhookEvent) bool {
	return strings.HasPrefix(string(event.Type), "batch.")
}

// IsX402Event reports whether an event is in the x402 namespace.
func IsX402Event(event *types.WebhookEvent) bool {
	return strings.HasPrefix(string(event.Type), "x402.")
}

// IsSuccessEvent reports whether an event indicates success.
func IsSuccessEvent(event *types.WebhookEvent) bool {
	return strings.HasSuffix(string(event.Type), ".completed") ||
		strings.HasSuffix(string(event.Type), ".executed")
}

// IsFailureEvent reports whether an event indicates failure.
func IsFailureEvent(event *types.WebhookEvent) bool {
	return strings.HasSuffix(string(event.Type), ".failed") ||
		strings.HasSuffix(string(event.Type), ".expired")
}

// ParsePaymentEvent decodes payment event data.
func ParsePaymentEvent(event *types.WebhookEvent) (*types.PaymentEventData, error) {
	if !IsPaymentEvent(event) {
		return nil, types.NewValidationError("Not a payment event")
	}
	data := &types.PaymentEventData{}
	if err := decodeEventData(event, data); err != nil {
		return nil, err
	}
	return data, nil
}

// ParseBatchEvent decodes batch event data.
func ParseBatchEvent(event *types.WebhookEvent) (*types.BatchEventData, error) {
	if !IsBatchEvent(event) {
		return nil, types.NewValidationError("Not a batch event")
	}
	data := &types.BatchEventData{}
	if err := decodeEventData(event, data); err != nil {
		return nil, err
	}
	return data, nil
}

// ParseX402Event decodes x402 event data.
func ParseX402Event(event *types.WebhookEvent) (*types.X402EventData, error) {
	if !IsX402Event(event) {
		return nil, types.NewValidationError("Not an x402 event")
	}
	data := &types.X402EventData{}
	if err := decodeEventData(event, data); err != nil {
		return nil, err
	}
	return data, nil
}

func decodeEventData(event *types.WebhookEvent, out interface{}) error {
	raw, err := json.Marshal(event.Data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func abs(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}
