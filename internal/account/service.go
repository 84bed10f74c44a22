package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DailyLimiter accumulates per-account daily totals for an operation kind
// and reports whether the new amount still fits under the configured cap.
// Remove refunds a previously accepted amount when the operation it covered
// did not complete. Implementations fail open when their backing store is
// unavailable.
type DailyLimiter interface {
	Add(ctx context.Context, accountID, op string, amount, limit decimal.Decimal) bool
	Remove(ctx context.Context, accountID, op string, amount decimal.Decimal)
}

// Limiter operation kinds.
const (
	LimitOpDeposit    = "deposito"
	LimitOpWithdrawal = "retiro"
)

// commitAttempts bounds optimistic-concurrency retries per operation.
const commitAttempts = 3

// Config carries the operation limits enforced by the service.
type Config struct {
	MaxDepositAmount     decimal.Decimal
	MinBalance           decimal.Decimal
	DailyDepositLimit    decimal.Decimal
	DailyWithdrawalLimit decimal.Decimal
	MovementsLimit       int
	MovementsMaxLimit    int
}

// DefaultConfig returns the service limits used when none are configured.
func DefaultConfig() Config {
	return Config{
		MaxDepositAmount:     decimal.NewFromInt(1_000_000),
		MinBalance:           decimal.Zero,
		DailyDepositLimit:    decimal.NewFromInt(50_000),
		DailyWithdrawalLimit: decimal.NewFromInt(20_000),
		MovementsLimit:       50,
		MovementsMaxLimit:    200,
	}
}

// Service is the account operation core: the only component that changes
// balances or states, pairing every balance change with one movement.
type Service struct {
	repo    Repository
	limiter DailyLimiter
	cfg     Config
}

// NewService builds the operation core. limiter may be nil to disable daily
// limit enforcement.
func NewService(repo Repository, limiter DailyLimiter, cfg Config) *Service {
	def := DefaultConfig()
	if cfg.MaxDepositAmount.IsZero() {
		cfg.MaxDepositAmount = def.MaxDepositAmount
	}
	if cfg.DailyDepositLimit.IsZero() {
		cfg.DailyDepositLimit = def.DailyDepositLimit
	}
	if cfg.DailyWithdrawalLimit.IsZero() {
		cfg.DailyWithdrawalLimit = def.DailyWithdrawalLimit
	}
	if cfg.MovementsLimit <= 0 {
		cfg.MovementsLimit = def.MovementsLimit
	}
	if cfg.MovementsMaxLimit <= 0 {
		cfg.MovementsMaxLimit = def.MovementsMaxLimit
	}
	return &Service{repo: repo, limiter: limiter, cfg: cfg}
}

// OperationResult summarizes a completed balance mutation.
type OperationResult struct {
	Success       bool
	Message       string
	AccountID     string
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	Amount        decimal.Decimal
	MovementID    string
}

// OpenInput captures the data required to open an account.
type OpenInput struct {
	ClientID       string
	Type           AccountType
	Currency       Currency
	InitialBalance decimal.Decimal
}

// Open creates an account in state ACTIVA. A positive initial balance is
// recorded as the account's first deposit movement.
func (s *Service) Open(ctx context.Context, input OpenInput) (Account, error) {
	if input.InitialBalance.IsNegative() {
		return Account{}, fmt.Errorf("%w: el saldo inicial no puede ser negativo", ErrInvalidAmount)
	}
	initial := input.InitialBalance.Round(2)

	now := time.Now().UTC()
	id, err := s.repo.Create(ctx, Account{
		ClientID: input.ClientID,
		Type:     input.Type,
		Currency: input.Currency,
		Balance:  initial,
		State:    StateActive,
		OpenedAt: now,
	})
	if err != nil {
		return Account{}, err
	}

	if initial.IsPositive() {
		if _, err := s.repo.CommitOperation(ctx, id, initial, 0, Movement{
			AccountID:     id,
			Type:          MovementDeposit,
			Amount:        initial,
			BalanceBefore: decimal.Zero,
			BalanceAfter:  initial,
			Description:   "Depósito inicial - Apertura de cuenta",
			OccurredAt:    now,
		}); err != nil {
			return Account{}, err
		}
	}

	return s.repo.GetByID(ctx, id)
}

// Get fetches one account by id.
func (s *Service) Get(ctx context.Context, id string) (Account, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByNumber fetches one account by its external number.
func (s *Service) GetByNumber(ctx context.Context, number string) (Account, error) {
	return s.repo.GetByNumber(ctx, number)
}

// List returns accounts matching the filter.
func (s *Service) List(ctx context.Context, f Filter) ([]Account, error) {
	return s.repo.List(ctx, f)
}

// Update patches tipo/estado. Closed accounts stay closed.
func (s *Service) Update(ctx context.Context, id string, p Patch) (Account, error) {
	acc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Account{}, err
	}
	if acc.State == StateClosed && p.State != nil && *p.State != StateClosed {
		return Account{}, fmt.Errorf("%w: la cuenta está cerrada", ErrInvalidState)
	}
	if p.Type != nil || p.State != nil {
		if err := s.repo.Update(ctx, id, p); err != nil {
			return Account{}, err
		}
	}
	return s.repo.GetByID(ctx, id)
}

// Deposit credits the account and records a DEPOSITO movement.
func (s *Service) Deposit(ctx context.Context, accountID string, amount decimal.Decimal, description string) (OperationResult, error) {
	amount, err := s.depositAmount(amount)
	if err != nil {
		return OperationResult{}, err
	}
	// The limiter is charged once per logical operation, never per commit
	// attempt, and refunded when the operation does not go through.
	if s.limiter != nil && !s.limiter.Add(ctx, accountID, LimitOpDeposit, amount, s.cfg.DailyDepositLimit) {
		return OperationResult{}, fmt.Errorf("%w: depósitos del día", ErrDailyLimitExceeded)
	}
	res, err := s.mutate(ctx, accountID, func(acc Account) (decimal.Decimal, Movement, error) {
		if acc.State != StateActive {
			return decimal.Decimal{}, Movement{}, fmt.Errorf("%w: la cuenta está %s, no se pueden realizar depósitos", ErrInvalidState, acc.State)
		}
		return acc.Balance.Add(amount), Movement{
			Type:        MovementDeposit,
			Amount:      amount,
			Description: description,
		}, nil
	}, "Depósito realizado exitosamente")
	if err != nil && s.limiter != nil {
		s.limiter.Remove(ctx, accountID, LimitOpDeposit, amount)
	}
	return res, err
}

// Withdraw debits the account and records a RETIRO movement, refusing to
// take the balance below the configured minimum.
func (s *Service) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal, description string) (OperationResult, error) {
	amount, err := positiveAmount(amount)
	if err != nil {
		return OperationResult{}, err
	}
	if s.limiter != nil && !s.limiter.Add(ctx, accountID, LimitOpWithdrawal, amount, s.cfg.DailyWithdrawalLimit) {
		return OperationResult{}, fmt.Errorf("%w: retiros del día", ErrDailyLimitExceeded)
	}
	res, err := s.mutate(ctx, accountID, func(acc Account) (decimal.Decimal, Movement, error) {
		if acc.State != StateActive {
			return decimal.Decimal{}, Movement{}, fmt.Errorf("%w: la cuenta está %s, no se pueden realizar retiros", ErrInvalidState, acc.State)
		}
		if err := s.checkFloor(acc, amount); err != nil {
			return decimal.Decimal{}, Movement{}, err
		}
		return acc.Balance.Sub(amount), Movement{
			Type:        MovementWithdrawal,
			Amount:      amount,
			Description: description,
		}, nil
	}, "Retiro realizado exitosamente")
	if err != nil && s.limiter != nil {
		s.limiter.Remove(ctx, accountID, LimitOpWithdrawal, amount)
	}
	return res, err
}

// Debit pulls funds on behalf of another service (transfers, payments),
// recording the movement under the caller's kind. Defaults to RETIRO.
func (s *Service) Debit(ctx context.Context, accountID string, amount decimal.Decimal, description, reference string, movType MovementType) (OperationResult, error) {
	amount, err := positiveAmount(amount)
	if err != nil {
		return OperationResult{}, err
	}
	if movType == "" {
		movType = MovementWithdrawal
	}
	if movType.Credits() {
		return OperationResult{}, fmt.Errorf("%w: tipo de movimiento %s no debita", ErrInvalidEnum, movType)
	}
	return s.mutate(ctx, accountID, func(acc Account) (decimal.Decimal, Movement, error) {
		if acc.State != StateActive {
			return decimal.Decimal{}, Movement{}, ErrInvalidState
		}
		if err := s.checkFloor(acc, amount); err != nil {
			return decimal.Decimal{}, Movement{}, err
		}
		return acc.Balance.Sub(amount), Movement{
			Type:        movType,
			Amount:      amount,
			Description: description,
			Reference:   reference,
		}, nil
	}, "Descuento realizado exitosamente")
}

// Credit pushes funds on behalf of another service. Defaults to DEPOSITO.
func (s *Service) Credit(ctx context.Context, accountID string, amount decimal.Decimal, description, reference string, movType MovementType) (OperationResult, error) {
	amount, err := positiveAmount(amount)
	if err != nil {
		return OperationResult{}, err
	}
	if movType == "" {
		movType = MovementDeposit
	}
	if !movType.Credits() {
		return OperationResult{}, fmt.Errorf("%w: tipo de movimiento %s no acredita", ErrInvalidEnum, movType)
	}
	return s.mutate(ctx, accountID, func(acc Account) (decimal.Decimal, Movement, error) {
		if acc.State != StateActive {
			return decimal.Decimal{}, Movement{}, ErrInvalidState
		}
		return acc.Balance.Add(amount), Movement{
			Type:        movType,
			Amount:      amount,
			Description: description,
			Reference:   reference,
		}, nil
	}, "Acreditación realizada exitosamente")
}

// Block transitions an account to BLOQUEADA.
func (s *Service) Block(ctx context.Context, id string) (Account, error) {
	acc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Account{}, err
	}
	switch acc.State {
	case StateBlocked:
		return Account{}, ErrAlreadyBlocked
	case StateClosed:
		return Account{}, fmt.Errorf("%w: la cuenta está cerrada", ErrInvalidState)
	}
	if err := s.repo.ChangeState(ctx, id, StateBlocked); err != nil {
		return Account{}, err
	}
	return s.repo.GetByID(ctx, id)
}

// Unblock transitions a blocked account back to ACTIVA.
func (s *Service) Unblock(ctx context.Context, id string) (Account, error) {
	acc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Account{}, err
	}
	if acc.State != StateBlocked {
		return Account{}, ErrNotBlocked
	}
	if err := s.repo.ChangeState(ctx, id, StateActive); err != nil {
		return Account{}, err
	}
	return s.repo.GetByID(ctx, id)
}

// Close soft-deletes the account by transitioning it to CERRADA. The state
// is terminal: no operation moves an account out of it.
func (s *Service) Close(ctx context.Context, id string) (Account, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return Account{}, err
	}
	if err := s.repo.ChangeState(ctx, id, StateClosed); err != nil {
		return Account{}, err
	}
	return s.repo.GetByID(ctx, id)
}

// HasSufficientFunds reports whether the account is active and covers the
// amount. It never fails on insufficient funds, only on absent accounts or
// invalid amounts.
func (s *Service) HasSufficientFunds(ctx context.Context, id string, amount decimal.Decimal) (bool, error) {
	amount, err := positiveAmount(amount)
	if err != nil {
		return false, err
	}
	acc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return acc.State == StateActive && acc.Balance.GreaterThanOrEqual(amount), nil
}

// Movements returns the account's ledger history, newest first. The limit
// defaults and caps come from the service configuration.
func (s *Service) Movements(ctx context.Context, id string, f MovementFilter, limit int) ([]Movement, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.cfg.MovementsLimit
	}
	if limit > s.cfg.MovementsMaxLimit {
		limit = s.cfg.MovementsMaxLimit
	}
	return s.repo.Movements(ctx, id, f, limit)
}

// mutate runs one balance-changing operation with optimistic-concurrency
// retries. compute receives the freshly read account and returns the new
// balance plus the movement template; mutate fills the bracketing balances
// so the movement always matches the committed transition.
func (s *Service) mutate(ctx context.Context, accountID string, compute func(Account) (decimal.Decimal, Movement, error), message string) (OperationResult, error) {
	var lastErr error
	for attempt := 0; attempt < commitAttempts; attempt++ {
		acc, err := s.repo.GetByID(ctx, accountID)
		if err != nil {
			return OperationResult{}, err
		}

		newBalance, mov, err := compute(acc)
		if err != nil {
			return OperationResult{}, err
		}

		mov.AccountID = accountID
		mov.BalanceBefore = acc.Balance
		mov.BalanceAfter = newBalance
		mov.OccurredAt = time.Now().UTC()

		movementID, err := s.repo.CommitOperation(ctx, accountID, newBalance, acc.Version, mov)
		if err != nil {
			if errors.Is(err, ErrConflict) {
				lastErr = err
				continue
			}
			return OperationResult{}, err
		}

		return OperationResult{
			Success:       true,
			Message:       message,
			AccountID:     accountID,
			BalanceBefore: acc.Balance,
			BalanceAfter:  newBalance,
			Amount:        mov.Amount,
			MovementID:    movementID,
		}, nil
	}
	return OperationResult{}, lastErr
}

func (s *Service) checkFloor(acc Account, amount decimal.Decimal) error {
	if acc.Balance.Sub(amount).LessThan(s.cfg.MinBalance) {
		return fmt.Errorf("%w. saldo disponible: %s %s", ErrInsufficientFunds, acc.Balance.StringFixed(2), acc.Currency)
	}
	return nil
}

func (s *Service) depositAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	amount, err := positiveAmount(amount)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if amount.GreaterThan(s.cfg.MaxDepositAmount) {
		return decimal.Decimal{}, ErrAmountExceedsLimit
	}
	return amount, nil
}

func positiveAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	return amount.Round(2), nil
}
