package types

import "time"

// WebhookEventType enumerates the event types the platform emits.
type WebhookEventType string

const (
	WebhookPaymentCreated   WebhookEventType = "payment.created"
	WebhookPaymentCompleted WebhookEventType = "payment.completed"
	WebhookPaymentFailed    WebhookEventType = "payment.failed"
	WebhookPaymentExpired   WebhookEventType = "payment.expired"
	WebhookBatchCreated     WebhookEventType = "batch.created"
	WebhookBatchProcessing  WebhookEventType = "batch.processing"
	WebhookBatchCompleted   WebhookEventType = "batch.completed"
	WebhookBatchFailed      WebhookEventType = "batch.failed"
	WebhookX402Created      WebhookEventType = "x402.created"
	WebhookX402Signed       WebhookEventType = "x402.signed"
	WebhookX402Executed     WebhookEventType = "x402.executed"
	WebhookX402Failed       WebhookEventType = "x402.failed"
	WebhookX402Expired      WebhookEventType = "x402.expired"
)

// WebhookEvent is a parsed inbound webhook payload.
type WebhookEvent struct {
	ID        string                 `json:"id"`
	Type      WebhookEventType       `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
	Signature string                 `json:"signature,omitempty"`
}

// WebhookVerificationResult is the outcome of webhook authentication.
type WebhookVerificationResult struct {
	Valid          bool          `json:"valid"`
	Event          *WebhookEvent `json:"event,omitempty"`
	Error          string        `json:"error,omitempty"`
	TimestampValid bool          `json:"timestampValid"`
}

// PaymentEventData is the data payload of payment.* events.
type PaymentEventData struct {
	PaymentID        string `json:"paymentId"`
	Amount           string `json:"amount"`
	Token            string `json:"token"`
	Chain            string `json:"chain"`
	RecipientAddress string `json:"recipientAddress"`
	SenderAddress    string `json:"senderAddress,omitempty"`
	TransactionHash  string `json:"transactionHash,omitempty"`
	OrderID          string `json:"orderId,omitempty"`
	Memo             string `json:"memo,omitempty"`
	Error            string `json:"error,omitempty"`
}

// BatchEventData is the data payload of batch.* events.
type BatchEventData struct {
	BatchID         string `json:"batchId"`
	TotalRecipients int    `json:"totalRecipients"`
	CompletedCount  int    `json:"completedCount"`
	FailedCount     int    `json:"failedCount"`
	TotalAmount     string `json:"totalAmount"`
	Token           string `json:"token"`
	Chain           string `json:"chain"`
	Error           string `json:"error,omitempty"`
}

// X402EventData is the data payload of x402.* events.
type X402EventData struct {
	AuthorizationID string `json:"authorizationId"`
	Amount          string `json:"amount"`
	Token           string `json:"token"`
	ChainID         int    `json:"chainId"`
	FromAddress     string `json:"fromAddress"`
	ToAddress       string `json:"toAddress"`
	TransactionHash string `json:"transactionHash,omitempty"`
	RelayerFee      string `json:"relayerFee,omitempty"`
	Error           string `json:"error,omitempty"`
}
