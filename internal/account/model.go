package account

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType distinguishes savings from checking accounts. Values are the
// wire strings persisted in the store.
type AccountType string

const (
	TypeSavings  AccountType = "AHORRO"
	TypeChecking AccountType = "CORRIENTE"
)

// ParseAccountType validates a raw string coming from a request or the store.
func ParseAccountType(s string) (AccountType, error) {
	switch AccountType(s) {
	case TypeSavings, TypeChecking:
		return AccountType(s), nil
	}
	return "", fmt.Errorf("%w: tipo de cuenta %q", ErrInvalidEnum, s)
}

// Currency is the single currency an account is denominated in.
type Currency string

const (
	CurrencyBOB Currency = "BOB"
	CurrencyUSD Currency = "USD"
)

// ParseCurrency validates a raw currency string.
func ParseCurrency(s string) (Currency, error) {
	switch Currency(s) {
	case CurrencyBOB, CurrencyUSD:
		return Currency(s), nil
	}
	return "", fmt.Errorf("%w: moneda %q", ErrInvalidEnum, s)
}

// State governs which operations an account accepts.
type State string

const (
	StateActive  State = "ACTIVA"
	StateBlocked State = "BLOQUEADA"
	StateClosed  State = "CERRADA"
)

// ParseState validates a raw state string.
func ParseState(s string) (State, error) {
	switch State(s) {
	case StateActive, StateBlocked, StateClosed:
		return State(s), nil
	}
	return "", fmt.Errorf("%w: estado %q", ErrInvalidEnum, s)
}

// MovementType classifies a ledger entry and fixes its sign convention.
type MovementType string

const (
	MovementDeposit        MovementType = "DEPOSITO"
	MovementWithdrawal     MovementType = "RETIRO"
	MovementTransferIn     MovementType = "TRANSFERENCIA_ENTRADA"
	MovementTransferOut    MovementType = "TRANSFERENCIA_SALIDA"
	MovementServicePayment MovementType = "PAGO_SERVICIO"
)

// ParseMovementType validates a raw movement type string.
func ParseMovementType(s string) (MovementType, error) {
	switch MovementType(s) {
	case MovementDeposit, MovementWithdrawal, MovementTransferIn,
		MovementTransferOut, MovementServicePayment:
		return MovementType(s), nil
	}
	return "", fmt.Errorf("%w: tipo de movimiento %q", ErrInvalidEnum, s)
}

// Credits reports whether the movement type increases the balance.
func (t MovementType) Credits() bool {
	switch t {
	case MovementDeposit, MovementTransferIn:
		return true
	}
	return false
}

// Account is a customer bank account. Balance changes only through the
// operation service, paired with exactly one Movement per change. Version
// increments on every committed balance mutation and guards against
// concurrent lost updates.
type Account struct {
	ID        string
	ClientID  string
	Number    string
	Type      AccountType
	Currency  Currency
	Balance   decimal.Decimal
	State     State
	OpenedAt  time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64
}

// Movement is an immutable ledger entry recording one balance change.
// BalanceAfter always equals BalanceBefore plus or minus Amount according
// to the movement type's sign.
type Movement struct {
	ID            string
	AccountID     string
	Type          MovementType
	Amount        decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	Description   string
	Reference     string
	OccurredAt    time.Time
	CreatedAt     time.Time
}

// Filter narrows account listings. All fields are optional and combine as a
// conjunction.
type Filter struct {
	ClientID string
	Number   string
	State    State
	Currency Currency
}

// MovementFilter narrows movement history queries. Timestamp bounds are
// inclusive.
type MovementFilter struct {
	Type MovementType
	From time.Time
	To   time.Time
}

// Patch carries the mutable account fields for partial updates. Balance is
// deliberately absent: it moves only through CommitOperation.
type Patch struct {
	Type  *AccountType
	State *State
}
