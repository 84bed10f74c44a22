package account

import "errors"

var (
	// ErrNotFound indicates the requested account does not exist.
	ErrNotFound = errors.New("cuenta no encontrada")

	// ErrInvalidState occurs when an operation is forbidden in the
	// account's current state.
	ErrInvalidState = errors.New("la cuenta no está activa")

	// ErrInsufficientFunds occurs when a withdrawal or debit exceeds the
	// available balance.
	ErrInsufficientFunds = errors.New("saldo insuficiente")

	// ErrInvalidAmount rejects non-positive or malformed amounts.
	ErrInvalidAmount = errors.New("el monto debe ser mayor a 0")

	// ErrAmountExceedsLimit rejects deposits above the configured ceiling.
	ErrAmountExceedsLimit = errors.New("el monto excede el límite permitido")

	// ErrAlreadyBlocked rejects blocking an already blocked account.
	ErrAlreadyBlocked = errors.New("la cuenta ya está bloqueada")

	// ErrNotBlocked rejects unblocking an account that is not blocked.
	ErrNotBlocked = errors.New("la cuenta no está bloqueada")

	// ErrInvalidEnum rejects values outside an enumerated set.
	ErrInvalidEnum = errors.New("valor no permitido")

	// ErrNumberExhausted indicates account number generation hit its
	// retry cap without finding a free number.
	ErrNumberExhausted = errors.New("espacio de números de cuenta agotado")

	// ErrConflict indicates a concurrent update invalidated the version
	// the caller read. Operations retry on it.
	ErrConflict = errors.New("conflicto de concurrencia")

	// ErrDailyLimitExceeded rejects operations that would push the day's
	// accumulated amount over the configured cap.
	ErrDailyLimitExceeded = errors.New("límite diario excedido")
)
