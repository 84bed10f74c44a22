package account

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// Handler exposes the account HTTP endpoints.
type Handler struct {
	service *Service
	debug   bool
}

// NewHandler builds an account HTTP handler. When debug is set, unclassified
// failures surface their detail in the 500 response.
func NewHandler(service *Service, debug bool) *Handler {
	return &Handler{service: service, debug: debug}
}

// Create opens a new account.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	input := OpenInput{
		ClientID:       req.ClientID,
		Type:           TypeSavings,
		Currency:       CurrencyBOB,
		InitialBalance: decimal.NewFromFloat(req.InitialBalance),
	}
	var err error
	if req.Type != "" {
		if input.Type, err = ParseAccountType(req.Type); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}
	if req.Currency != "" {
		if input.Currency, err = ParseCurrency(req.Currency); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}

	acc, err := h.service.Open(c.UserContext(), input)
	if err != nil {
		return h.fail(err)
	}
	return c.Status(http.StatusCreated).JSON(toAccountResponse(acc))
}

// List returns accounts matching optional query filters.
func (h *Handler) List(c *fiber.Ctx) error {
	f := Filter{
		ClientID: c.Query("cliente_id"),
		Number:   c.Query("numero_cuenta"),
	}
	var err error
	if v := c.Query("estado"); v != "" {
		if f.State, err = ParseState(v); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}
	if v := c.Query("moneda"); v != "" {
		if f.Currency, err = ParseCurrency(v); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}

	accounts, err := h.service.List(c.UserContext(), f)
	if err != nil {
		return h.fail(err)
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, acc := range accounts {
		out = append(out, toAccountResponse(acc))
	}
	return c.JSON(out)
}

// Get returns one account.
func (h *Handler) Get(c *fiber.Ctx) error {
	acc, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(toAccountResponse(acc))
}

// Update patches tipo/estado.
func (h *Handler) Update(c *fiber.Ctx) error {
	var req updateAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	var patch Patch
	if req.Type != nil {
		t, err := ParseAccountType(*req.Type)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		patch.Type = &t
	}
	if req.State != nil {
		s, err := ParseState(*req.State)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		patch.State = &s
	}

	acc, err := h.service.Update(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(toAccountResponse(acc))
}

// Close soft-deletes the account.
func (h *Handler) Close(c *fiber.Ctx) error {
	acc, err := h.service.Close(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(toAccountResponse(acc))
}

// Deposit credits the account.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	req, err := h.operationBody(c)
	if err != nil {
		return err
	}
	res, err := h.service.Deposit(c.UserContext(), c.Params("id"), decimal.NewFromFloat(req.Amount), req.Description)
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(toOperationResponse(res))
}

// Withdraw debits the account.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	req, err := h.operationBody(c)
	if err != nil {
		return err
	}
	res, err := h.service.Withdraw(c.UserContext(), c.Params("id"), decimal.NewFromFloat(req.Amount), req.Description)
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(toOperationResponse(res))
}

// Debit pulls funds for another service, with an optional movement kind.
func (h *Handler) Debit(c *fiber.Ctx) error {
	req, movType, err := h.transferBody(c)
	if err != nil {
		return err
	}
	res, err := h.service.Debit(c.UserContext(), c.Params("id"), decimal.NewFromFloat(req.Amount), req.Description, req.Reference, movType)
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(toOperationResponse(res))
}

// Credit pushes funds for another service, with an optional movement kind.
func (h *Handler) Credit(c *fiber.Ctx) error {
	req, movType, err := h.transferBody(c)
	if err != nil {
		return err
	}
	res, err := h.service.Credit(c.UserContext(), c.Params("id"), decimal.NewFromFloat(req.Amount), req.Description, req.Reference, movType)
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(toOperationResponse(res))
}

// Block transitions the account to BLOQUEADA.
func (h *Handler) Block(c *fiber.Ctx) error {
	acc, err := h.service.Block(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(toAccountResponse(acc))
}

// Unblock transitions the account back to ACTIVA.
func (h *Handler) Unblock(c *fiber.Ctx) error {
	acc, err := h.service.Unblock(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(toAccountResponse(acc))
}

// Movements returns the account's ledger history.
func (h *Handler) Movements(c *fiber.Ctx) error {
	limit := c.QueryInt("limit")
	var f MovementFilter
	var err error
	if v := c.Query("tipo"); v != "" {
		if f.Type, err = ParseMovementType(v); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}
	if v := c.Query("fecha_desde"); v != "" {
		if f.From, err = time.Parse(time.RFC3339, v); err != nil {
			return fiber.NewError(http.StatusBadRequest, "fecha_desde inválida")
		}
	}
	if v := c.Query("fecha_hasta"); v != "" {
		if f.To, err = time.Parse(time.RFC3339, v); err != nil {
			return fiber.NewError(http.StatusBadRequest, "fecha_hasta inválida")
		}
	}

	movements, err := h.service.Movements(c.UserContext(), c.Params("id"), f, limit)
	if err != nil {
		return h.fail(err)
	}
	out := make([]movementResponse, 0, len(movements))
	for _, mov := range movements {
		out = append(out, toMovementResponse(mov))
	}
	return c.JSON(out)
}

// ValidateBalance is the pre-check used by other services before a debit.
func (h *Handler) ValidateBalance(c *fiber.Ctx) error {
	amount := decimal.NewFromFloat(c.QueryFloat("monto"))
	ok, err := h.service.HasSufficientFunds(c.UserContext(), c.Params("id"), amount)
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(fiber.Map{
		"cuenta_id":        c.Params("id"),
		"monto_solicitado": amount.InexactFloat64(),
		"tiene_saldo":      ok,
	})
}

func (h *Handler) operationBody(c *fiber.Ctx) (operationRequest, error) {
	var req operationRequest
	if err := c.BodyParser(&req); err != nil {
		return req, fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(&req); err != nil {
		return req, fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return req, nil
}

func (h *Handler) transferBody(c *fiber.Ctx) (transferOperationRequest, MovementType, error) {
	var req transferOperationRequest
	if err := c.BodyParser(&req); err != nil {
		return req, "", fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(&req); err != nil {
		return req, "", fiber.NewError(http.StatusBadRequest, err.Error())
	}
	var movType MovementType
	if req.MovementType != "" {
		var err error
		if movType, err = ParseMovementType(req.MovementType); err != nil {
			return req, "", fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}
	return req, movType, nil
}

// fail maps domain errors onto HTTP status codes. Unclassified errors are
// treated as persistence failures and keep their detail out of the response
// unless debug is enabled.
func (h *Handler) fail(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrAmountExceedsLimit),
		errors.Is(err, ErrAlreadyBlocked),
		errors.Is(err, ErrNotBlocked),
		errors.Is(err, ErrInvalidEnum),
		errors.Is(err, ErrDailyLimitExceeded):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrConflict):
		return fiber.NewError(http.StatusConflict, err.Error())
	}
	if h.debug {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return fiber.NewError(http.StatusInternalServerError, "Error procesando la solicitud")
}
