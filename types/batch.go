package types

import "time"

// BatchRecipient is a single payout in a batch.
type BatchRecipient struct {
	Address string      `json:"address"`
	Amount  string      `json:"amount"`
	Token   TokenSymbol `json:"token"`
	Memo    string      `json:"memo,omitempty"`
	OrderID string      `json:"orderId,omitempty"`
}

// BatchValidationError collects every violation for one recipient.
// Duplicate-address findings are appended to the same entry rather than
// reported separately.
type BatchValidationError struct {
	Index   int      `json:"index"`
	Address string   `json:"address"`
	Errors  []string `json:"errors"`
}

// BatchItemStatus tracks one recipient through processing.
type BatchItemStatus struct {
	Index           int    `json:"index"`
	Address         string `json:"address"`
	Amount          string `json:"amount"`
	Status          string `json:"status"` // pending, processing, completed, failed
	TransactionHash string `json:"transactionHash,omitempty"`
	Error           string `json:"error,omitempty"`
}

// BatchPriority selects backend processing priority.
type BatchPriority string

const (
	BatchPriorityLow    BatchPriority = "low"
	BatchPriorityMedium BatchPriority = "medium"
	BatchPriorityHigh   BatchPriority = "high"
)

// BatchOptions holds optional batch submission settings.
type BatchOptions struct {
	Chain          ChainID       `json:"chain,omitempty"`
	Priority       BatchPriority `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	WebhookURL     string        `json:"webhookUrl,omitempty" validate:"omitempty,url"`
	IdempotencyKey string        `json:"idempotencyKey,omitempty"`
}

// BatchSubmitResult is the outcome of a batch submission.
type BatchSubmitResult struct {
	BatchID      string                 `json:"batchId"`
	Status       string                 `json:"status"`
	ValidCount   int                    `json:"validCount"`
	InvalidCount int                    `json:"invalidCount"`
	Errors       []BatchValidationError `json:"errors,omitempty"`
	EstimatedFee string                 `json:"estimatedFee,omitempty"`
}

// BatchProgress counts items by outcome.
type BatchProgress struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Pending   int `json:"pending"`
}

// BatchStatus is the tracked state of a submitted batch.
type BatchStatus struct {
	BatchID     string            `json:"batchId"`
	Status      string            `json:"status"`
	Progress    BatchProgress     `json:"progress"`
	Items       []BatchItemStatus `json:"items"`
	TotalAmount string            `json:"totalAmount"`
	TotalFee    string            `json:"totalFee,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	CompletedAt *time.Time        `json:"completedAt,omitempty"`
}
