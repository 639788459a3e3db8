package routes

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/gooddeedstech/billy-main-service/internal/bank"
	"github.com/gooddeedstech/billy-main-service/internal/config"
	"github.com/gooddeedstech/billy-main-service/internal/messaging"
	"github.com/gooddeedstech/billy-main-service/internal/middleware"
	"github.com/gooddeedstech/billy-main-service/internal/rubies"
	"github.com/gooddeedstech/billy-main-service/internal/session"
	"github.com/gooddeedstech/billy-main-service/internal/transaction"
	"github.com/gooddeedstech/billy-main-service/internal/transfer"
	"github.com/gooddeedstech/billy-main-service/internal/user"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
	Sender messaging.Sender
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !isDev(d.Cfg.AppEnv) {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))

	RegisterHealthRoutes(app, d)

	var userRepo user.Repository
	var txRepo transaction.Repository
	if d.DB != nil {
		userRepo = user.NewPostgresRepository(d.DB)
		txRepo = transaction.NewPostgresRepository(d.DB)
	} else {
		userRepo = user.NewMemoryRepository()
		txRepo = transaction.NewMemoryRepository()
	}

	var sessions session.Store
	if d.Cache != nil {
		sessions = session.NewRedisStore(d.Cache, d.Cfg.SessionTTL, d.Cfg.BeneficiaryTTL)
	} else {
		sessions = session.NewMemoryStore()
	}

	provider := rubies.NewClient(d.Cfg.RubiesBaseURL, d.Cfg.RubiesAPIKey, d.Cfg.ProviderTimeout, d.Logger)
	resolver := bank.NewResolver(bank.NewDirectory(), provider, d.Cfg.BankCacheTTL, d.Logger)
	executor := transfer.NewExecutor(userRepo, txRepo, provider, d.Logger)
	flow := transfer.NewFlow(sessions, resolver, executor, userRepo, txRepo, d.Cfg.MinTransferAmount, d.Logger)

	sender := d.Sender
	if sender == nil {
		sender = messaging.NewLoggerSender(d.Logger)
	}

	RegisterWebhookRoutes(app, flow, sender, d.Logger)

	return nil
}

func isDev(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}
