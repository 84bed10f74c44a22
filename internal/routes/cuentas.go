package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/andeanpay/cuentas/internal/account"
)

// RegisterAccountRoutes wires the account lifecycle and operation endpoints.
func RegisterAccountRoutes(r fiber.Router, h *account.Handler) {
	r.Post("/cuentas", h.Create)
	r.Get("/cuentas", h.List)
	r.Get("/cuentas/:id", h.Get)
	r.Put("/cuentas/:id", h.Update)
	r.Delete("/cuentas/:id", h.Close)

	r.Post("/cuentas/:id/depositar", h.Deposit)
	r.Post("/cuentas/:id/retirar", h.Withdraw)
	r.Post("/cuentas/:id/bloquear", h.Block)
	r.Post("/cuentas/:id/desbloquear", h.Unblock)
	r.Get("/cuentas/:id/movimientos", h.Movements)

	// Internal paths used by the transfer and payment services.
	r.Post("/cuentas/:id/debitar", h.Debit)
	r.Post("/cuentas/:id/acreditar", h.Credit)
	r.Post("/cuentas/:id/validar-saldo", h.ValidateBalance)
}
