package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"linkhub/integrator/internal/api"
	"linkhub/integrator/internal/common"
	"linkhub/integrator/internal/config"
	"linkhub/integrator/internal/db"
	"linkhub/integrator/internal/logging"
	"linkhub/integrator/internal/metrics"
	"linkhub/integrator/internal/providers"
	"linkhub/integrator/internal/routes"
	"linkhub/integrator/internal/wizard"
	"linkhub/integrator/internal/workers"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and background workers",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	logging.Info("Integrator starting up",
		"environment", cfg.AppEnv,
		"addr", cfg.HTTPAddr,
		"timestamp", time.Now().Format(time.RFC3339),
	)

	dsn := cfg.PostgresDSN()

	sqlDB, err := db.InitPostgres(dsn)
	if err != nil {
		logging.Error("Failed to connect to Postgres (sqlx)", "error", err.Error())
		return err
	}
	defer sqlDB.Close()
	logging.Info("Connected to Postgres (sqlx)")

	pg, err := db.InitPostgresORM(dsn)
	if err != nil {
		logging.Error("Failed to connect to Postgres (GORM)", "error", err.Error())
		return err
	}
	logging.Info("Connected to Postgres (GORM)")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.Migrate(ctx, pg, sqlDB); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	rdb := connectRedis(cfg)
	if rdb != nil {
		defer rdb.Close()
	}

	metricsReg := metrics.NewMetricsRegistry(prometheus.DefaultRegisterer)

	g, gctx := errgroup.WithContext(ctx)

	deps := api.InitDependencies(gctx, api.InfraConfig{
		PgDB:        pg,
		DB:          sqlDB,
		Redis:       rdb,
		Tester:      newCredentialTester(cfg),
		Metrics:     metricsReg,
		SessionTTL:  cfg.WizardSessionTTL,
		TestTimeout: cfg.CredentialTestTimeout,
	})

	router := routes.RegisterRoutes(deps, routes.RouterConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		logging.Info("Server starting", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logging.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	workers.InitWorkers(gctx, g, deps.Services.Queue, deps.Services.Registry, metricsReg, cfg.ActivationWorkers)

	if err := g.Wait(); err != nil {
		logging.Error("Server stopped with error", "error", err.Error())
		return err
	}
	logging.Info("Server stopped")
	return nil
}

// connectRedis returns nil when Redis is not configured or unreachable
func connectRedis(cfg *config.Config) *redis.Client {
	if !cfg.RedisEnabled() {
		logging.Info("Redis not configured, using in-process cache")
		return nil
	}

	client, err := common.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
	if err != nil {
		logging.Warn("Redis unavailable, using in-process cache", "error", err.Error())
		if client != nil {
			_ = client.Close()
		}
		return nil
	}
	return client
}

func newCredentialTester(cfg *config.Config) providers.CredentialTester {
	if cfg.CredentialTestURL != "" {
		logging.Info("Using credential test service", "url", cfg.CredentialTestURL)
		return providers.NewHTTPCredentialTester(cfg.CredentialTestURL, cfg.CredentialTestAPIKey, cfg.CredentialTestTimeout)
	}

	required := make(map[string][]string)
	for _, d := range wizard.ProviderTypes() {
		required[d.ID] = d.RequiredFields
	}
	logging.Warn("No credential test service configured, using simulated tester",
		"delay", cfg.CredentialTestSimulatedDelay.String(),
	)
	return providers.NewSimulatedCredentialTester(cfg.CredentialTestSimulatedDelay, required)
}
