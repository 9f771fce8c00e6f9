// Package batch validates and submits multi-recipient payouts and
// tracks their progress.
package batch

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/protocolbanks/protocolbanks-go/address"
	"github.com/protocolbanks/protocolbanks-go/logger"
	"github.com/protocolbanks/protocolbanks-go/metrics"
	"github.com/protocolbanks/protocolbanks-go/types"
	"github.com/protocolbanks/protocolbanks-go/utils"
)

// DefaultPollInterval is used when Poll is called with a zero interval.
const DefaultPollInterval = 5 * time.Second

// Module validates, submits, and tracks batch payouts. Submitted batches
// are cached locally so status queries survive backend outages.
type Module struct {
	backend types.Backend
	log     logger.Logger
	rec     metrics.Recorder
	now     func() time.Time

	mu      sync.Mutex
	batches map[string]*types.BatchStatus
	polls   map[string]chan struct{}
}

// New creates a batch module. backend may be nil; validation and totals
// work locally, submission and status refresh require a backend.
func New(backend types.Backend) *Module {
	return &Module{
		backend: backend,
		log:     logger.NoopLogger{},
		rec:     metrics.NoopRecorder{},
		now:     time.Now,
		batches: make(map[string]*types.BatchStatus),
		polls:   make(map[string]chan struct{}),
	}
}

// SetLogger replaces the module logger.
func (m *Module) SetLogger(l logger.Logger) { m.log = l }

// SetMetrics replaces the module metrics recorder.
func (m *Module) SetMetrics(r metrics.Recorder) { m.rec = r }

// Validate checks every recipient and reports every violation, never
// stopping at the first. Size bounds fail the whole call. Case-insensitive
// duplicate addresses are reported as warnings appended to each affected
// index. The result is sorted ascending by index.
func (m *Module) Validate(recipients []types.BatchRecipient) ([]types.BatchValidationError, error) {
	if err := utils.ValidateBatchSize(len(recipients)); err != nil {
		return nil, err
	}

	var errs []types.BatchValidationError

	for i, r := range recipients {
		var violations []string

		if r.Address == "" {
			violations = append(violations, "Address is required")
		} else if address.DetectHomoglyphs(r.Address) != nil {
			violations = append(violations, "Address contains suspicious characters (possible homoglyph attack)")
		} else if !address.IsValid(r.Address, nil) {
			violations = append(violations, "Invalid address format")
		}

		if r.Amount == "" {
			violations = append(violations, "Amount is required")
		} else if !utils.IsValidAmount(r.Amount) {
			violations = append(violations, "Invalid amount (must be positive, max 1 billion)")
		}

		if r.Token == "" {
			violations = append(violations, "Token is required")
		} else if !utils.IsValidToken(r.Token) {
			violations = append(violations, fmt.Sprintf("Unsupported token: %s", r.Token))
		}

		if len(r.Memo) > types.MaxMemoLength {
			violations = append(violations, fmt.Sprintf("Memo exceeds maximum length of %d characters", types.MaxMemoLength))
		}

		if len(violations) > 0 {
			errs = append(errs, types.BatchValidationError{
				Index:   i,
				Address: r.Address,
				Errors:  violations,
			})
		}
	}

	errs = appendDuplicateWarnings(recipients, errs)

	sort.Slice(errs, func(a, b int) bool { return errs[a].Index < errs[b].Index })
	return errs, nil
}

// appendDuplicateWarnings runs the duplicate-address pass: every index
// sharing a case-insensitive duplicate gets a warning, appended to an
// existing error entry for that index when one exists.
func appendDuplicateWarnings(recipients []types.BatchRecipient, errs []types.BatchValidationError) []types.BatchValidationError {
	occurrences := make(map[string][]int)
	for i, r := range recipients {
		key := strings.ToLower(r.Address)
		if key != "" {
			occurrences[key] = append(occurrences[key], i)
		}
	}

	for addr, indices := range occurrences {
		if len(indices) < 2 {
			continue
		}
		warning := fmt.Sprintf("Duplicate address (appears %d times)", len(indices))
		for _, index := range indices {
			appended := false
			for j := range errs {
				if errs[j].Index == index {
					errs[j].Errors = append(errs[j].Errors, warning)
					appended = true
					break
				}
			}
			if !appended {
				errs = append(errs, types.BatchValidationError{
					Index:   index,
					Address: addr,
					Errors:  []string{warning},
				})
			}
		}
	}
	return errs
}

// Submit validates and submits a batch. Critical validation errors
// (anything beyond a duplicate warning) return a failed result without
// contacting the backend. Backend submission failures mark the local
// batch failed and propagate the error.
func (m *Module) Submit(ctx context.Context, recipients []types.BatchRecipient, options *types.BatchOptions) (*types.BatchSubmitResult, error) {
	validationErrors, err := m.Validate(recipients)
	if err != nil {
		return nil, err
	}

	if options != nil {
		if err := utils.ValidateStruct(options); err != nil {
			return nil, err
		}
	}

	critical := criticalErrors(validationErrors)
	if len(critical) > 0 {
		m.rec.IncCounter("batch_rejected", map[string]string{"module": "batch"})
		return &types.BatchSubmitResult{
			Status:       "failed",
			ValidCount:   len(recipients) - len(critical),
			InvalidCount: len(critical),
			Errors:       critical,
		}, nil
	}

	batchID := utils.GenerateBatchID()

	items := make([]types.BatchItemStatus, len(recipients))
	for i, r := range recipients {
		items[i] = types.BatchItemStatus{
			Index:   i,
			Address: r.Address,
			Amount:  r.Amount,
			Status:  "pending",
		}
	}

	status := &types.BatchStatus{
		BatchID: batchID,
		Status:  "pending",
		Progress: types.BatchProgress{
			Total:   len(recipients),
			Pending: len(recipients),
		},
		Items:       items,
		TotalAmount: sumAmounts(recipients).StringFixed(6),
		CreatedAt:   m.now(),
	}

	m.mu.Lock()
	m.batches[batchID] = status
	m.mu.Unlock()

	if m.backend == nil {
		m.setBatchStatus(batchID, "failed")
		return nil, types.NewSDKError(types.ErrNetConnectionFailed, types.ErrorCategoryNet,
			"No backend configured for batch submission")
	}

	var response types.BatchSubmitResult
	if err := m.backend.Post(ctx, "/batch/submit", m.submitBody(batchID, recipients, options), &response); err != nil {
		m.setBatchStatus(batchID, "failed")
		m.log.Error("batch submission failed", map[string]any{
			"batchId": batchID, "error": err.Error(),
		})
		return nil, err
	}

	m.setBatchStatus(batchID, response.Status)
	m.rec.IncCounter("batch_submitted", map[string]string{"module": "batch"})

	return &types.BatchSubmitResult{
		BatchID:      batchID,
		Status:       response.Status,
		ValidCount:   len(recipients),
		EstimatedFee: response.EstimatedFee,
	}, nil
}

// criticalErrors filters validation entries down to those carrying at
// least one non-duplicate violation.
func criticalErrors(errs []types.BatchValidationError) []types.BatchValidationError {
	var critical []types.BatchValidationError
	for _, e := range errs {
		for _, msg := range e.Errors {
			if !strings.Contains(msg, "Duplicate") {
				critical = append(critical, e)
				break
			}
		}
	}
	return critical
}

func (m *Module) submitBody(batchID string, recipients []types.BatchRecipient, options *types.BatchOptions) map[string]interface{} {
	recipientData := make([]map[string]interface{}, len(recipients))
	for i, r := range recipients {
		recipientData[i] = map[string]interface{}{
			"address": r.Address,
			"amount":  r.Amount,
			"token":   r.Token,
			"memo":    r.Memo,
			"orderId": r.OrderID,
		}
	}

	body := map[string]interface{}{
		"batchId":    batchID,
		"recipients": recipientData,
	}

	if options != nil {
		if options.Chain != nil {
			body["chain"] = options.Chain.String()
		}
		if options.Priority != "" {
			body["priority"] = options.Priority
		} else {
			body["priority"] = types.BatchPriorityMedium
		}
		if options.WebhookURL != "" {
			body["webhookUrl"] = options.WebhookURL
		}
		if options.IdempotencyKey != "" {
			body["idempotencyKey"] = options.IdempotencyKey
		}
	}
	return body
}

func (m *Module) setBatchStatus(batchID, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.batches[batchID]; ok {
		b.Status = status
	}
}

// GetStatus returns the batch status, refreshing a cached batch from the
// backend best-effort and falling back to the cached copy on failure.
// Unknown ids are fetched from the backend and cached.
func (m *Module) GetStatus(ctx context.Context, batchID string) (*types.BatchStatus, error) {
	m.mu.Lock()
	local, cached := m.batches[batchID]
	m.mu.Unlock()

	if cached {
		if m.backend != nil {
			var response types.BatchStatus
			if err := m.backend.Get(ctx, "/batch/"+batchID, &response); err == nil {
				m.mu.Lock()
				local.Status = response.Status
				local.Progress = response.Progress
				local.Items = response.Items
				if response.TotalFee != "" {
					local.TotalFee = response.TotalFee
				}
				if response.CompletedAt != nil {
					local.CompletedAt = response.CompletedAt
				}
				m.mu.Unlock()
			}
			// refresh failures fall back to the cached copy
		}

		m.mu.Lock()
		cp := *local
		cp.Items = append([]types.BatchItemStatus(nil), local.Items...)
		m.mu.Unlock()
		return &cp, nil
	}

	if m.backend == nil {
		return nil, types.NewSDKError(types.ErrBatchNotFound, types.ErrorCategoryBatch,
			fmt.Sprintf("Batch %s not found", batchID))
	}

	var response types.BatchStatus
	if err := m.backend.Get(ctx, "/batch/"+batchID, &response); err != nil {
		return nil, types.NewSDKError(types.ErrBatchNotFound, types.ErrorCategoryBatch,
			fmt.Sprintf("Batch %s not found", batchID))
	}

	m.mu.Lock()
	m.batches[batchID] = &response
	m.mu.Unlock()

	cp := response
	cp.Items = append([]types.BatchItemStatus(nil), response.Items...)
	return &cp, nil
}

// Retry resubmits the currently failed items of a batch, optionally
// restricted to a caller-supplied index subset. Retrying a processing
// batch is rejected.
func (m *Module) Retry(ctx context.Context, batchID string, itemIndices []int) (*types.BatchSubmitResult, error) {
	batch, err := m.GetStatus(ctx, batchID)
	if err != nil {
		return nil, err
	}

	if batch.Status == "processing" {
		return nil, types.NewSDKError(types.ErrBatchAlreadyProcessing, types.ErrorCategoryBatch,
			"Batch is currently processing, cannot retry")
	}

	var indices []int
	for _, item := range batch.Items {
		if item.Status != "failed" {
			continue
		}
		if itemIndices == nil || containsInt(itemIndices, item.Index) {
			indices = append(indices, item.Index)
		}
	}

	if len(indices) == 0 {
		return &types.BatchSubmitResult{
			BatchID: batchID,
			Status:  batch.Status,
		}, nil
	}

	if m.backend == nil {
		return nil, types.NewSDKError(types.ErrNetConnectionFailed, types.ErrorCategoryNet,
			"No backend configured for batch retry")
	}

	var response types.BatchSubmitResult
	if err := m.backend.Post(ctx, "/batch/"+batchID+"/retry", map[string]interface{}{
		"itemIndices": indices,
	}, &response); err != nil {
		return nil, err
	}

	m.rec.IncCounter("batch_retried", map[string]string{"module": "batch"})
	return &response, nil
}

// CalculateTotal sums recipient amounts per token and estimates a USD
// total treating stablecoins as one dollar. Unparseable amounts are
// skipped; Validate is where they are reported.
func (m *Module) CalculateTotal(recipients []types.BatchRecipient) (map[types.TokenSymbol]string, string) {
	byToken := make(map[types.TokenSymbol]decimal.Decimal)

	for _, r := range recipients {
		amount, err := decimal.NewFromString(r.Amount)
		if err != nil {
			continue
		}
		byToken[r.Token] = byToken[r.Token].Add(amount)
	}

	out := make(map[types.TokenSymbol]string, len(byToken))
	for token, total := range byToken {
		out[token] = total.StringFixed(6)
	}

	totalUSD := decimal.Zero
	for _, token := range []types.TokenSymbol{types.TokenUSDC, types.TokenUSDT, types.TokenDAI} {
		if total, ok := byToken[token]; ok {
			totalUSD = totalUSD.Add(total)
		}
	}

	return out, totalUSD.StringFixed(2)
}

// GetProgress returns completion as a whole percentage, counting failed
// items as settled.
func (m *Module) GetProgress(status *types.BatchStatus) int {
	if status.Progress.Total == 0 {
		return 0
	}
	settled := status.Progress.Completed + status.Progress.Failed
	return settled * 100 / status.Progress.Total
}

func sumAmounts(recipients []types.BatchRecipient) decimal.Decimal {
	total := decimal.Zero
	for _, r := range recipients {
		if amount, err := decimal.NewFromString(r.Amount); err == nil {
			total = total.Add(amount)
		}
	}
	return total
}

func containsInt(slice []int, v int) bool {
	for _, item := range slice {
		if item == v {
			return true
		}
	}
	return false
}
