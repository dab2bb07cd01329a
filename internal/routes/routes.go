package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/ticketdesk/ticketdesk/internal/auth"
	"github.com/ticketdesk/ticketdesk/internal/config"
	"github.com/ticketdesk/ticketdesk/internal/invite"
	"github.com/ticketdesk/ticketdesk/internal/logging"
	"github.com/ticketdesk/ticketdesk/internal/middleware"
	"github.com/ticketdesk/ticketdesk/internal/notification"
	"github.com/ticketdesk/ticketdesk/internal/ticket"
	"github.com/ticketdesk/ticketdesk/internal/user"
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
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	var userRepo user.Repository
	if d.DB != nil {
		userRepo = user.NewPostgresRepository(d.DB)
	} else {
		userRepo = user.NewMemoryRepository()
	}
	var ticketRepo ticket.Repository
	if d.DB != nil {
		ticketRepo = ticket.NewPostgresRepository(d.DB)
	} else {
		ticketRepo = ticket.NewMemoryRepository()
	}

	var notifier notification.Notifier
	if d.Cfg.SMTP.Host != "" {
		notifier = notification.NewSMTPNotifier(d.Cfg.SMTP)
	} else {
		notifier = notification.NewLoggerNotifier(d.Logger)
	}

	authSvc := auth.NewService(d.Cfg, userRepo)
	authHandler := auth.NewHandler(authSvc)
	inviteHandler := invite.NewHandler(invite.NewEngine(userRepo))
	ticketSvc := ticket.NewService(ticketRepo, userRepo, notifier, d.Logger)
	ticketHandler := ticket.NewHandler(ticketSvc)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	rateLimiter := middleware.AuthRateLimit(d.Cache, d.Cfg.AuthRateLimit)
	RegisterAuthRoutes(api, authHandler, rateLimiter)

	authn := middleware.Authenticate(d.Cfg, userRepo)
	RegisterAdminRoutes(api, inviteHandler, authn)

	var idem fiber.Handler
	if d.Cache != nil {
		idem = middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)
	}
	RegisterTicketRoutes(api, ticketHandler, authn, idem)

	return nil
}
