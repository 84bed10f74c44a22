package account

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/shopspring/decimal"
)

// Repository persists accounts and their movements. Implementations own
// account number uniqueness and newest-first movement ordering.
type Repository interface {
	// Create assigns a fresh unique account number and timestamps, then
	// persists the account and returns its store id.
	Create(ctx context.Context, acc Account) (string, error)
	GetByID(ctx context.Context, id string) (Account, error)
	GetByNumber(ctx context.Context, number string) (Account, error)
	List(ctx context.Context, f Filter) ([]Account, error)
	// Update patches mutable fields and stamps the update timestamp. It
	// never touches the balance.
	Update(ctx context.Context, id string, p Patch) error
	ChangeState(ctx context.Context, id string, s State) error
	// CommitOperation atomically writes the new balance and appends the
	// paired movement. It fails with ErrConflict when version no longer
	// matches the stored account, leaving both records untouched.
	CommitOperation(ctx context.Context, id string, newBalance decimal.Decimal, version int64, mov Movement) (string, error)
	// Movements returns the account's ledger entries newest first,
	// capped at limit.
	Movements(ctx context.Context, accountID string, f MovementFilter, limit int) ([]Movement, error)
}

// numberLength is the width of externally visible account numbers.
const numberLength = 10

// DefaultNumberAttempts bounds the rejection-sampling loop that searches for
// a free account number. Collisions in a 10^10 space are negligible, the cap
// only guards against nontermination under exhausted or faked stores.
const DefaultNumberAttempts = 20

func randomAccountNumber() string {
	return fmt.Sprintf("%0*d", numberLength, rand.Int64N(1e10))
}
