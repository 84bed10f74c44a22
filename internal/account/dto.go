package account

import (
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type createAccountRequest struct {
	ClientID       string  `json:"cliente_id" validate:"required"`
	Type           string  `json:"tipo"`
	Currency       string  `json:"moneda"`
	InitialBalance float64 `json:"saldo_inicial" validate:"gte=0"`
}

type updateAccountRequest struct {
	Type  *string `json:"tipo"`
	State *string `json:"estado"`
}

type operationRequest struct {
	Amount      float64 `json:"monto" validate:"required,gt=0"`
	Description string  `json:"descripcion" validate:"required,min=1,max=255"`
}

type transferOperationRequest struct {
	Amount       float64 `json:"monto" validate:"required,gt=0"`
	Description  string  `json:"descripcion" validate:"required,min=1,max=255"`
	Reference    string  `json:"referencia"`
	MovementType string  `json:"tipo_movimiento"`
}

type accountResponse struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"cliente_id"`
	Number    string    `json:"numero_cuenta"`
	Type      string    `json:"tipo"`
	Currency  string    `json:"moneda"`
	Balance   float64   `json:"saldo"`
	State     string    `json:"estado"`
	OpenedAt  time.Time `json:"fecha_apertura"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type operationResponse struct {
	Success       bool    `json:"success"`
	Message       string  `json:"mensaje"`
	AccountID     string  `json:"cuenta_id"`
	BalanceBefore float64 `json:"saldo_anterior"`
	BalanceAfter  float64 `json:"saldo_nuevo"`
	Amount        float64 `json:"monto"`
	MovementID    string  `json:"movimiento_id,omitempty"`
}

type movementResponse struct {
	ID            string    `json:"id"`
	AccountID     string    `json:"cuenta_id"`
	Type          string    `json:"tipo"`
	Amount        float64   `json:"monto"`
	BalanceBefore float64   `json:"saldo_anterior"`
	BalanceAfter  float64   `json:"saldo_nuevo"`
	Description   string    `json:"descripcion"`
	Reference     string    `json:"referencia,omitempty"`
	OccurredAt    time.Time `json:"fecha"`
}

func toAccountResponse(acc Account) accountResponse {
	return accountResponse{
		ID:        acc.ID,
		ClientID:  acc.ClientID,
		Number:    acc.Number,
		Type:      string(acc.Type),
		Currency:  string(acc.Currency),
		Balance:   acc.Balance.InexactFloat64(),
		State:     string(acc.State),
		OpenedAt:  acc.OpenedAt,
		CreatedAt: acc.CreatedAt,
		UpdatedAt: acc.UpdatedAt,
	}
}

func toOperationResponse(res OperationResult) operationResponse {
	return operationResponse{
		Success:       res.Success,
		Message:       res.Message,
		AccountID:     res.AccountID,
		BalanceBefore: res.BalanceBefore.InexactFloat64(),
		BalanceAfter:  res.BalanceAfter.InexactFloat64(),
		Amount:        res.Amount.InexactFloat64(),
		MovementID:    res.MovementID,
	}
}

func toMovementResponse(mov Movement) movementResponse {
	return movementResponse{
		ID:            mov.ID,
		AccountID:     mov.AccountID,
		Type:          string(mov.Type),
		Amount:        mov.Amount.InexactFloat64(),
		BalanceBefore: mov.BalanceBefore.InexactFloat64(),
		BalanceAfter:  mov.BalanceAfter.InexactFloat64(),
		Description:   mov.Description,
		Reference:     mov.Reference,
		OccurredAt:    mov.OccurredAt,
	}
}
