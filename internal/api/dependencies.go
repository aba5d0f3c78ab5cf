package api

import (
	"context"
	"time"

	"linkhub/integrator/internal/common"
	"linkhub/integrator/internal/db/repositories"
	"linkhub/integrator/internal/metrics"
	"linkhub/integrator/internal/providers"
	"linkhub/integrator/internal/services"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Repositories struct {
	Providers *repositories.ConnectedProviderRepo
	SyncLogs  *repositories.SyncLogRepo
}

type Services struct {
	Cache     common.Cache
	Queue     *common.RedisQueueService
	Directory *services.ProviderDirectoryService
	Wizard    *services.WizardService
	Registry  *services.ProviderRegistryService
	SyncLogs  *services.SyncLogService
}

type Dependencies struct {
	Repo     *Repositories
	Services *Services
	Metrics  *metrics.MetricsRegistry
	DB       *sqlx.DB
	Redis    *redis.Client
	UpSince  time.Time
}

// InfraConfig holds the connections and settings dependencies are built from
type InfraConfig struct {
	PgDB        *gorm.DB
	DB          *sqlx.DB
	Redis       *redis.Client // nil runs without Redis
	Tester      providers.CredentialTester
	Metrics     *metrics.MetricsRegistry
	SessionTTL  time.Duration
	TestTimeout time.Duration
}

// InitDependencies wires repositories and services. ctx bounds background
// connection tests started by wizard sessions.
func InitDependencies(ctx context.Context, cfg InfraConfig) *Dependencies {
	repos := &Repositories{
		Providers: repositories.NewConnectedProviderRepo(cfg.PgDB),
		SyncLogs:  repositories.NewSyncLogRepo(cfg.DB),
	}

	var cache common.Cache
	var queue *common.RedisQueueService
	var publisher services.ActivationPublisher
	if cfg.Redis != nil {
		cache = common.NewRedisCache(cfg.Redis)
		queue = common.NewRedisQueueService(cfg.Redis)
		publisher = queue
	} else {
		cache = common.NewMemoryCache(10*time.Minute, time.Minute)
	}

	directory := services.NewProviderDirectoryService(cache)
	syncLogs := services.NewSyncLogService(repos.SyncLogs)
	registry := services.NewProviderRegistryService(repos.Providers, syncLogs, publisher, cfg.Tester, cache, cfg.Metrics, cfg.TestTimeout)
	wizardSvc := services.NewWizardService(ctx, directory, cfg.Tester, registry, cfg.Metrics, services.WizardConfig{
		SessionTTL:  cfg.SessionTTL,
		TestTimeout: cfg.TestTimeout,
	})

	return &Dependencies{
		Repo: repos,
		Services: &Services{
			Cache:     cache,
			Queue:     queue,
			Directory: directory,
			Wizard:    wizardSvc,
			Registry:  registry,
			SyncLogs:  syncLogs,
		},
		Metrics: cfg.Metrics,
		DB:      cfg.DB,
		Redis:   cfg.Redis,
		UpSince: time.Now(),
	}
}
