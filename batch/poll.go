package batch

import (
	"context"
	"sync"
	"time"

	"github.com/protocolbanks/protocolbanks-go/types"
)

// Poll periodically fetches the batch status and invokes callback with
// each result. Polling self-terminates once the batch reaches a terminal
// status. Iteration errors are swallowed and polling continues. The
// returned stop function is idempotent and always safe to call.
func (m *Module) Poll(ctx context.Context, batchID string, callback func(*types.BatchStatus), interval time.Duration) func() {
	if interval == 0 {
		interval = DefaultPollInterval
	}

	stopCh := make(chan struct{})
	m.mu.Lock()
	if prev, ok := m.polls[batchID]; ok {
		close(prev)
	}
	m.polls[batchID] = stopCh
	m.mu.Unlock()

	go m.pollLoop(ctx, batchID, callback, interval, stopCh)

	var once sync.Once
	return func() {
		once.Do(func() { m.stopPolling(batchID, stopCh) })
	}
}

func (m *Module) pollLoop(ctx context.Context, batchID string, callback func(*types.BatchStatus), interval time.Duration, stopCh chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	poll := func() bool {
		status, err := m.GetStatus(ctx, batchID)
		if err != nil {
			m.log.Debug("poll iteration failed", map[string]any{
				"batchId": batchID, "error": err.Error(),
			})
			return false
		}
		callback(status)
		if isTerminalStatus(status.Status) {
			m.stopPolling(batchID, stopCh)
			return true
		}
		return false
	}

	if poll() {
		return
	}

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			m.stopPolling(batchID, stopCh)
			return
		case <-ticker.C:
			if poll() {
				return
			}
		}
	}
}

// stopPolling closes the batch's stop channel if it is still the one
// registered. Stale handles from a superseded Poll call are ignored.
func (m *Module) stopPolling(batchID string, stopCh chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.polls[batchID]; ok && current == stopCh {
		close(current)
		delete(m.polls, batchID)
	}
}

// StopPolling cancels polling for one batch.
func (m *Module) StopPolling(batchID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ch, ok := m.polls[batchID]; ok {
		close(ch)
		delete(m.polls, batchID)
	}
}

// StopAllPolling cancels every active poll. Called on client shutdown.
func (m *Module) StopAllPolling() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, ch := range m.polls {
		close(ch)
		delete(m.polls, id)
	}
}

func isTerminalStatus(status string) bool {
	return status == "completed" || status == "failed"
}
