package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mathvisuals/account-api/internal/api/handler"
	"github.com/mathvisuals/account-api/internal/api/middleware"
	"github.com/mathvisuals/account-api/internal/core/ports"
	"github.com/mathvisuals/account-api/internal/core/service"
	mongodb "github.com/mathvisuals/account-api/internal/infrastructure/db/mongo"
	"github.com/mathvisuals/account-api/internal/infrastructure/http/handlers"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, rdb *redis.Client, dispatcher ports.NotificationDispatcher, opts service.Options, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.CORS())
	e.Use(echoprometheus.NewMiddleware("accounts"))
	e.Use(middleware.CallerIdentity())

	// --- Dependencies ---
	accountRepo := mongodb.NewAccountRepository(db, string(opts.LoginMode))
	accountService := service.NewAccountService(accountRepo, dispatcher, opts, log)
	accountHandler := handler.NewAccountHandler(accountService, string(opts.LoginMode))

	// --- Account routes ---
	e.POST("/account/create", accountHandler.Create)
	e.GET("/account/:id", accountHandler.Get)
	e.PUT("/account/:id", accountHandler.Update)
	e.DELETE("/account/:id", accountHandler.Delete)
	e.POST("/signin", accountHandler.SignIn)
	e.GET("/verify", accountHandler.Verify)
	e.GET("/verify/:token", accountHandler.Verify)

	// --- Health probes and metrics (no identity required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
