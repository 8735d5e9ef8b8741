package main

import (
	"context"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/eliasfjaere/utlaan-backend/api/routes"
	authsvc "github.com/eliasfjaere/utlaan-backend/internal/auth"
	"github.com/eliasfjaere/utlaan-backend/internal/ledger"
	"github.com/eliasfjaere/utlaan-backend/internal/registry"
	"github.com/eliasfjaere/utlaan-backend/internal/reports"
	"github.com/eliasfjaere/utlaan-backend/internal/users"
	"github.com/eliasfjaere/utlaan-backend/pkg/auth/session"
	"github.com/eliasfjaere/utlaan-backend/pkg/config"
	"github.com/eliasfjaere/utlaan-backend/pkg/dates"
	"github.com/eliasfjaere/utlaan-backend/pkg/db"
	"github.com/eliasfjaere/utlaan-backend/pkg/logger"
	"github.com/eliasfjaere/utlaan-backend/pkg/metrics"
	"github.com/eliasfjaere/utlaan-backend/pkg/migrate"
	"github.com/eliasfjaere/utlaan-backend/pkg/redis"
	"github.com/joho/godotenv"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	loc := dates.LoadLocation(cfg.Locale.Timezone)
	promRegistry := prometheus.NewRegistry()
	ledgerMetrics := metrics.NewLedgerMetrics(promRegistry)

	registryService, err := registry.NewService(registry.NewRepository(dbClient.DB()), dbClient, ledgerMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create registry service", err)
		os.Exit(1)
	}

	ledgerService, err := ledger.NewService(ledger.NewRepository(dbClient.DB()), dbClient, registryService, ledgerMetrics, loc)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	reportsService, err := reports.NewService(reports.NewRepository(dbClient.DB()), loc)
	if err != nil {
		logg.Error(context.Background(), "failed to create reports service", err)
		os.Exit(1)
	}

	usersService, err := users.NewService(users.NewRepository(dbClient.DB()), dbClient, cfg.Password, cfg.Bootstrap, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}
	if err := usersService.EnsureBootstrapAdmin(context.Background()); err != nil {
		logg.Error(context.Background(), "failed to ensure bootstrap admin", err)
		os.Exit(1)
	}

	authService, err := authsvc.NewService(authsvc.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"timezone": loc.String(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, promRegistry, ledgerMetrics, routes.Services{
			Auth:     authService,
			Ledger:   ledgerService,
			Registry: registryService,
			Reports:  reportsService,
			Users:    usersService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
