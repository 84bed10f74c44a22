package account

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type memoryRepository struct {
	mu          sync.RWMutex
	accounts    map[string]Account
	movements   map[string][]Movement
	numbers     map[string]string
	maxAttempts int

	// nextNumber, when set, overrides random generation so tests can
	// force collisions.
	nextNumber func() string
}

// NewMemoryRepository constructs an in-memory repository for tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		accounts:    make(map[string]Account),
		movements:   make(map[string][]Movement),
		numbers:     make(map[string]string),
		maxAttempts: DefaultNumberAttempts,
	}
}

func (r *memoryRepository) Create(_ context.Context, acc Account) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	number, err := r.uniqueNumberLocked()
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	acc.ID = uuid.NewString()
	acc.Number = number
	acc.CreatedAt = now
	acc.UpdatedAt = now

	r.accounts[acc.ID] = acc
	r.numbers[number] = acc.ID
	return acc.ID, nil
}

func (r *memoryRepository) uniqueNumberLocked() (string, error) {
	for i := 0; i < r.maxAttempts; i++ {
		number := randomAccountNumber()
		if r.nextNumber != nil {
			number = r.nextNumber()
		}
		if _, taken := r.numbers[number]; !taken {
			return number, nil
		}
	}
	return "", ErrNumberExhausted
}

func (r *memoryRepository) GetByID(_ context.Context, id string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acc, ok := r.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return acc, nil
}

func (r *memoryRepository) GetByNumber(_ context.Context, number string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.numbers[number]
	if !ok {
		return Account{}, ErrNotFound
	}
	return r.accounts[id], nil
}

func (r *memoryRepository) List(_ context.Context, f Filter) ([]Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Account, 0, len(r.accounts))
	for _, acc := range r.accounts {
		if f.ClientID != "" && acc.ClientID != f.ClientID {
			continue
		}
		if f.Number != "" && acc.Number != f.Number {
			continue
		}
		if f.State != "" && acc.State != f.State {
			continue
		}
		if f.Currency != "" && acc.Currency != f.Currency {
			continue
		}
		out = append(out, acc)
	}
	return out, nil
}

func (r *memoryRepository) Update(_ context.Context, id string, p Patch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[id]
	if !ok {
		return ErrNotFound
	}
	if p.Type != nil {
		acc.Type = *p.Type
	}
	if p.State != nil {
		acc.State = *p.State
	}
	acc.UpdatedAt = time.Now().UTC()
	r.accounts[id] = acc
	return nil
}

func (r *memoryRepository) ChangeState(_ context.Context, id string, s State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[id]
	if !ok {
		return ErrNotFound
	}
	acc.State = s
	acc.UpdatedAt = time.Now().UTC()
	r.accounts[id] = acc
	return nil
}

func (r *memoryRepository) CommitOperation(_ context.Context, id string, newBalance decimal.Decimal, version int64, mov Movement) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[id]
	if !ok {
		return "", ErrNotFound
	}
	if acc.Version != version {
		return "", ErrConflict
	}

	now := time.Now().UTC()
	acc.Balance = newBalance
	acc.Version++
	acc.UpdatedAt = now
	r.accounts[id] = acc

	mov.ID = uuid.NewString()
	mov.AccountID = id
	mov.CreatedAt = now
	r.movements[id] = append(r.movements[id], mov)
	return mov.ID, nil
}

func (r *memoryRepository) Movements(_ context.Context, accountID string, f MovementFilter, limit int) ([]Movement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Movement
	for _, mov := range r.movements[accountID] {
		if f.Type != "" && mov.Type != f.Type {
			continue
		}
		if !f.From.IsZero() && mov.OccurredAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && mov.OccurredAt.After(f.To) {
			continue
		}
		out = append(out, mov)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
