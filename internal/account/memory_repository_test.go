package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestCreateAssignsUniqueNumbers(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		id, err := repo.Create(ctx, Account{
			ClientID: "cli-1",
			Type:     TypeSavings,
			Currency: CurrencyBOB,
			Balance:  decimal.Zero,
			State:    StateActive,
			OpenedAt: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		acc, err := repo.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
		if len(acc.Number) != 10 {
			t.Fatalf("expected 10-digit number, got %q", acc.Number)
		}
		if seen[acc.Number] {
			t.Fatalf("duplicate account number %s", acc.Number)
		}
		seen[acc.Number] = true
	}
}

func TestCreateRetriesCollidingNumbers(t *testing.T) {
	repo := NewMemoryRepository().(*memoryRepository)
	ctx := context.Background()

	numbers := []string{"1111111111", "1111111111", "2222222222"}
	i := 0
	repo.nextNumber = func() string {
		n := numbers[i%len(numbers)]
		i++
		return n
	}

	first, err := repo.Create(ctx, Account{ClientID: "a", State: StateActive})
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	second, err := repo.Create(ctx, Account{ClientID: "b", State: StateActive})
	if err != nil {
		t.Fatalf("second create: %v", err)
	}

	accA, _ := repo.GetByID(ctx, first)
	accB, _ := repo.GetByID(ctx, second)
	if accA.Number != "1111111111" || accB.Number != "2222222222" {
		t.Fatalf("expected collision retry, got %s and %s", accA.Number, accB.Number)
	}
}

func TestCreateFailsWhenNumberSpaceExhausted(t *testing.T) {
	repo := NewMemoryRepository().(*memoryRepository)
	ctx := context.Background()

	repo.nextNumber = func() string { return "9999999999" }

	if _, err := repo.Create(ctx, Account{ClientID: "a", State: StateActive}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := repo.Create(ctx, Account{ClientID: "b", State: StateActive}); !errors.Is(err, ErrNumberExhausted) {
		t.Fatalf("expected ErrNumberExhausted, got %v", err)
	}
}

func TestGetByNumber(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	id, err := repo.Create(ctx, Account{ClientID: "cli-1", State: StateActive})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	created, _ := repo.GetByID(ctx, id)

	found, err := repo.GetByNumber(ctx, created.Number)
	if err != nil {
		t.Fatalf("get by number: %v", err)
	}
	if found.ID != id {
		t.Fatalf("expected id %s, got %s", id, found.ID)
	}

	if _, err := repo.GetByNumber(ctx, "0000000000"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListFiltersConjunction(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	mk := func(client string, cur Currency, st State) {
		t.Helper()
		if _, err := repo.Create(ctx, Account{ClientID: client, Currency: cur, State: st, Type: TypeSavings}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	mk("cli-1", CurrencyBOB, StateActive)
	mk("cli-1", CurrencyUSD, StateActive)
	mk("cli-2", CurrencyBOB, StateBlocked)

	all, _ := repo.List(ctx, Filter{})
	if len(all) != 3 {
		t.Fatalf("expected 3 accounts, got %d", len(all))
	}

	byClient, _ := repo.List(ctx, Filter{ClientID: "cli-1"})
	if len(byClient) != 2 {
		t.Fatalf("expected 2 accounts for cli-1, got %d", len(byClient))
	}

	narrow, _ := repo.List(ctx, Filter{ClientID: "cli-1", Currency: CurrencyUSD, State: StateActive})
	if len(narrow) != 1 {
		t.Fatalf("expected 1 account, got %d", len(narrow))
	}
}

func TestCommitOperationVersionGuard(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	id, _ := repo.Create(ctx, Account{ClientID: "cli-1", State: StateActive, Balance: decimal.NewFromInt(100)})

	mov := Movement{
		Type:          MovementDeposit,
		Amount:        decimal.NewFromInt(50),
		BalanceBefore: decimal.NewFromInt(100),
		BalanceAfter:  decimal.NewFromInt(150),
		Description:   "x",
		OccurredAt:    time.Now().UTC(),
	}

	movID, err := repo.CommitOperation(ctx, id, decimal.NewFromInt(150), 0, mov)
	if err != nil || movID == "" {
		t.Fatalf("commit: id=%q err=%v", movID, err)
	}

	// The stale version must be rejected and leave no trace.
	if _, err := repo.CommitOperation(ctx, id, decimal.NewFromInt(999), 0, mov); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	acc, _ := repo.GetByID(ctx, id)
	if !acc.Balance.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("balance overwritten by stale commit: %s", acc.Balance)
	}
	if acc.Version != 1 {
		t.Fatalf("expected version 1, got %d", acc.Version)
	}
	movs, _ := repo.Movements(ctx, id, MovementFilter{}, 0)
	if len(movs) != 1 {
		t.Fatalf("expected 1 movement, got %d", len(movs))
	}
}

func TestMovementsOrderFilterAndLimit(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	id, _ := repo.Create(ctx, Account{ClientID: "cli-1", State: StateActive})

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	kinds := []MovementType{MovementDeposit, MovementWithdrawal, MovementDeposit, MovementTransferIn}
	version := int64(0)
	for i, kind := range kinds {
		_, err := repo.CommitOperation(ctx, id, decimal.NewFromInt(int64(i)), version, Movement{
			Type:        kind,
			Amount:      decimal.NewFromInt(1),
			Description: "m",
			OccurredAt:  base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("commit %d: %v", i, err)
		}
		version++
	}

	movs, err := repo.Movements(ctx, id, MovementFilter{}, 0)
	if err != nil {
		t.Fatalf("movements: %v", err)
	}
	if len(movs) != 4 {
		t.Fatalf("expected 4 movements, got %d", len(movs))
	}
	for i := 1; i < len(movs); i++ {
		if movs[i].OccurredAt.After(movs[i-1].OccurredAt) {
			t.Fatalf("movements not newest first at index %d", i)
		}
	}

	deposits, _ := repo.Movements(ctx, id, MovementFilter{Type: MovementDeposit}, 0)
	if len(deposits) != 2 {
		t.Fatalf("expected 2 deposits, got %d", len(deposits))
	}

	// Inclusive timestamp bounds.
	window, _ := repo.Movements(ctx, id, MovementFilter{
		From: base.Add(time.Hour),
		To:   base.Add(2 * time.Hour),
	}, 0)
	if len(window) != 2 {
		t.Fatalf("expected 2 movements in window, got %d", len(window))
	}

	capped, _ := repo.Movements(ctx, id, MovementFilter{}, 3)
	if len(capped) != 3 {
		t.Fatalf("expected 3 movements with limit, got %d", len(capped))
	}
}
