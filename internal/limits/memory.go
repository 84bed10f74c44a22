package limits

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// MemoryTracker keeps daily totals in process memory.
type MemoryTracker struct {
	mu     sync.Mutex
	totals map[string]decimal.Decimal
}

// NewMemoryTracker constructs an in-process tracker for tests and
// single-node development runs.
func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{totals: make(map[string]decimal.Decimal)}
}

func (t *MemoryTracker) Add(_ context.Context, accountID, op string, amount, limit decimal.Decimal) bool {
	if !limit.IsPositive() {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	key := dayKey(accountID, op, time.Now().UTC())
	total := t.totals[key].Add(amount)
	if total.GreaterThan(limit) {
		return false
	}
	t.totals[key] = total
	return true
}

// Remove refunds a previously accepted amount. Totals never go below zero.
func (t *MemoryTracker) Remove(_ context.Context, accountID, op string, amount decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := dayKey(accountID, op, time.Now().UTC())
	total := t.totals[key].Sub(amount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	t.totals[key] = total
}
