package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/andeanpay/cuentas/internal/account"
	"github.com/andeanpay/cuentas/internal/config"
	"github.com/andeanpay/cuentas/internal/limits"
	"github.com/andeanpay/cuentas/internal/middleware"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() && d.DB == nil {
		return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(cors.New())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	var repo account.Repository
	if d.DB != nil {
		repo = account.NewPostgresRepository(d.DB)
	} else {
		repo = account.NewMemoryRepository()
	}

	var limiter account.DailyLimiter
	if d.Cache != nil {
		limiter = limits.NewRedisTracker(d.Cache, d.Logger)
	}

	svc := account.NewService(repo, limiter, account.Config{
		MaxDepositAmount:     d.Cfg.MaxDepositAmount,
		MinBalance:           d.Cfg.MinBalance,
		DailyDepositLimit:    d.Cfg.DailyDepositLimit,
		DailyWithdrawalLimit: d.Cfg.DailyWithdrawalLimit,
		MovementsLimit:       d.Cfg.MovementsLimit,
		MovementsMaxLimit:    d.Cfg.MovementsMaxLimit,
	})
	handler := account.NewHandler(svc, d.Cfg.Debug)

	api := app.Group("/api")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterAccountRoutes(api, handler)

	return nil
}
