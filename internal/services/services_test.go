package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"linkhub/integrator/internal/common"
	"linkhub/integrator/internal/db/repositories"
	"linkhub/integrator/internal/metrics"
	"linkhub/integrator/internal/models"
	"linkhub/integrator/internal/providers"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Mock CredentialTester
type mockTester struct {
	testFn func(ctx context.Context, req providers.TestRequest) (*providers.TestResult, error)
}

func (m *mockTester) TestCredentials(ctx context.Context, req providers.TestRequest) (*providers.TestResult, error) {
	if m.testFn != nil {
		return m.testFn(ctx, req)
	}
	return &providers.TestResult{Success: true}, nil
}

// Mock ActivationPublisher
type mockPublisher struct {
	mu        sync.Mutex
	events    []*common.ActivationEvent
	enqueueFn func(ctx context.Context, stream string, event *common.ActivationEvent) error
}

func (m *mockPublisher) EnqueueActivation(ctx context.Context, stream string, event *common.ActivationEvent) error {
	if m.enqueueFn != nil {
		if err := m.enqueueFn(ctx, stream, event); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockPublisher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

type testEnv struct {
	gormDB    *gorm.DB
	providers *repositories.ConnectedProviderRepo
	syncLogs  *repositories.SyncLogRepo
	logs      *SyncLogService
	registry  *ProviderRegistryService
	cache     *common.MemoryCache
	metrics   *metrics.MetricsRegistry
}

// Setup test database
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	// Auto migrate
	if err := db.AutoMigrate(&models.ConnectedProvider{}); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	return db
}

func setupSyncLogRepo(t *testing.T) *repositories.SyncLogRepo {
	db, err := sqlx.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open sqlx database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	repo := repositories.NewSyncLogRepo(db)
	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return repo
}

func newTestEnv(t *testing.T, tester providers.CredentialTester, publisher ActivationPublisher) *testEnv {
	t.Helper()

	env := &testEnv{
		gormDB:   setupTestDB(t),
		syncLogs: setupSyncLogRepo(t),
		cache:    common.NewMemoryCache(time.Minute, 2*time.Minute),
		metrics:  metrics.NewMetricsRegistry(prometheus.NewRegistry()),
	}
	env.providers = repositories.NewConnectedProviderRepo(env.gormDB)
	env.logs = NewSyncLogService(env.syncLogs)
	env.registry = NewProviderRegistryService(env.providers, env.logs, publisher, tester, env.cache, env.metrics, 0)
	return env
}
