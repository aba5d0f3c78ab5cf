package services

import (
	"context"
	"sync/atomic"
	"time"

	"linkhub/integrator/internal/common"
	"linkhub/integrator/internal/constants"
	"linkhub/integrator/internal/db/repositories"
	"linkhub/integrator/internal/logging"
	"linkhub/integrator/internal/metrics"
	"linkhub/integrator/internal/models"
	"linkhub/integrator/internal/models/dtos"
	"linkhub/integrator/internal/models/entities"
	"linkhub/integrator/internal/providers"
	"linkhub/integrator/internal/wizard"

	"github.com/google/uuid"
)

const statsCacheTTL = 30 * time.Second

// ActivationPublisher hands activation events to the background worker
type ActivationPublisher interface {
	EnqueueActivation(ctx context.Context, streamName string, event *common.ActivationEvent) error
}

// ProviderRegistryService manages connected providers
type ProviderRegistryService struct {
	repo        *repositories.ConnectedProviderRepo
	logs        *SyncLogService
	publisher   ActivationPublisher
	tester      providers.CredentialTester
	cache       common.Cache
	metrics     *metrics.MetricsRegistry
	testTimeout time.Duration

	// set once no worker consumes the activation stream
	inlineOnly atomic.Bool
}

// NewProviderRegistryService wires the registry. publisher may be nil, in
// which case activations are logged synchronously.
func NewProviderRegistryService(
	repo *repositories.ConnectedProviderRepo,
	logs *SyncLogService,
	publisher ActivationPublisher,
	tester providers.CredentialTester,
	cache common.Cache,
	metricsReg *metrics.MetricsRegistry,
	testTimeout time.Duration,
) *ProviderRegistryService {
	if testTimeout <= 0 {
		testTimeout = 15 * time.Second
	}
	return &ProviderRegistryService{
		repo:        repo,
		logs:        logs,
		publisher:   publisher,
		tester:      tester,
		cache:       cache,
		metrics:     metricsReg,
		testTimeout: testTimeout,
	}
}

// Activate stores a provider produced by the setup wizard
func (s *ProviderRegistryService) Activate(ctx context.Context, sessionID string, record wizard.FinishedProvider) (*models.ConnectedProvider, error) {
	status := record.Status
	if status == "" {
		status = constants.ProviderStatusActive
	}

	provider := &models.ConnectedProvider{
		ProviderTypeID: record.ProviderTypeID,
		Name:           record.DisplayName,
		Category:       record.Category,
		Status:         status,
		Description:    record.Description,
		Credentials:    models.StringMap(record.Credentials),
		FieldMappings:  models.StringMap(record.FieldMappings),
	}
	if !record.CompletedAt.IsZero() {
		provider.CreatedAt = record.CompletedAt
	}

	if err := s.repo.Create(ctx, provider); err != nil {
		logging.Error("Failed to store activated provider",
			"session_id", sessionID,
			"provider_type", record.ProviderTypeID,
			"error", err.Error(),
		)
		return nil, newServiceError(constants.ErrCodeStorageError, err)
	}

	s.cache.Delete(constants.CachePrefixProviderStats)
	s.metrics.ProviderActivationsTotal.WithLabelValues(record.ProviderTypeID).Inc()

	event := &common.ActivationEvent{
		ProviderID:     provider.ID,
		ProviderTypeID: provider.ProviderTypeID,
		ProviderName:   provider.Name,
		SessionID:      sessionID,
		ActivatedAt:    provider.CreatedAt,
	}
	s.announce(ctx, event)

	return provider, nil
}

// DisableQueue makes every later activation record its sync log inline.
// Used when the activation worker cannot consume the stream.
func (s *ProviderRegistryService) DisableQueue() {
	if !s.inlineOnly.Swap(true) {
		logging.Warn("Activation queue disabled, recording activations inline")
	}
}

// announce publishes the activation, or logs it inline when no queue is available
func (s *ProviderRegistryService) announce(ctx context.Context, event *common.ActivationEvent) {
	if s.publisher != nil && !s.inlineOnly.Load() {
		err := s.publisher.EnqueueActivation(ctx, constants.ActivationStream, event)
		if err == nil {
			return
		}
		logging.Warn("Activation enqueue failed, logging inline",
			"provider_id", event.ProviderID,
			"error", err.Error(),
		)
	}

	if err := s.RecordActivation(ctx, event); err != nil {
		logging.Warn("Activation log failed", "provider_id", event.ProviderID, "error", err.Error())
	}
}

// RecordActivation writes the activate sync log entry for an event
func (s *ProviderRegistryService) RecordActivation(ctx context.Context, event *common.ActivationEvent) error {
	if err := checkProviderID(event.ProviderID); err != nil {
		return err
	}

	at := event.ActivatedAt
	if at.IsZero() {
		at = time.Now()
	}

	if err := s.repo.TouchLastSync(ctx, event.ProviderID, at); err != nil {
		return classify(err)
	}

	return s.logs.Record(ctx, &entities.SyncLogEntry{
		Timestamp:    at,
		ProviderID:   event.ProviderID,
		ProviderName: event.ProviderName,
		Operation:    constants.SyncOperationActivate,
		Status:       constants.SyncStatusSuccess,
	})
}

// List returns connected providers with masked credentials
func (s *ProviderRegistryService) List(ctx context.Context, filter dtos.ProviderFilter) ([]dtos.ProviderResponse, error) {
	list, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, classify(err)
	}

	out := make([]dtos.ProviderResponse, 0, len(list))
	for i := range list {
		out = append(out, ToProviderResponse(&list[i]))
	}
	return out, nil
}

func (s *ProviderRegistryService) Get(ctx context.Context, id string) (*dtos.ProviderResponse, error) {
	if err := checkProviderID(id); err != nil {
		return nil, err
	}
	provider, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, classify(err)
	}
	resp := ToProviderResponse(provider)
	return &resp, nil
}

// Disconnect marks a provider inactive
func (s *ProviderRegistryService) Disconnect(ctx context.Context, id string) error {
	if err := checkProviderID(id); err != nil {
		return err
	}
	if err := s.repo.UpdateStatus(ctx, id, constants.ProviderStatusInactive); err != nil {
		return classify(err)
	}
	s.cache.Delete(constants.CachePrefixProviderStats)
	logging.Info("Provider disconnected", "provider_id", id)
	return nil
}

// Retest runs the credential tester against a provider's stored credentials
func (s *ProviderRegistryService) Retest(ctx context.Context, id string) (*providers.TestResult, error) {
	if err := checkProviderID(id); err != nil {
		return nil, err
	}
	provider, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, classify(err)
	}

	testCtx, cancel := context.WithTimeout(ctx, s.testTimeout)
	defer cancel()

	start := time.Now()
	result, err := s.tester.TestCredentials(testCtx, providers.TestRequest{
		ProviderTypeID: provider.ProviderTypeID,
		Credentials:    map[string]string(provider.Credentials),
	})
	elapsed := time.Since(start)

	if err != nil {
		result = &providers.TestResult{Success: false, Error: err.Error()}
	} else if result == nil {
		result = &providers.TestResult{Success: false, Error: "empty test result"}
	}

	outcome := constants.SyncStatusSuccess
	if !result.Success {
		outcome = constants.SyncStatusError
	}
	s.metrics.ConnectionTestsTotal.WithLabelValues(provider.ProviderTypeID, outcome).Inc()
	s.metrics.ConnectionTestDuration.Observe(elapsed.Seconds())

	if err := s.repo.RecordTestOutcome(ctx, id, result.Success); err != nil {
		return nil, classify(err)
	}
	s.cache.Delete(constants.CachePrefixProviderStats)

	entry := &entities.SyncLogEntry{
		ProviderID:   provider.ID,
		ProviderName: provider.Name,
		Operation:    constants.SyncOperationTest,
		Status:       outcome,
		DurationMs:   elapsed.Milliseconds(),
	}
	if !result.Success && result.Error != "" {
		msg := result.Error
		entry.ErrorMessage = &msg
	}
	if err := s.logs.Record(ctx, entry); err != nil {
		return nil, err
	}

	logging.Info("Provider retested",
		"provider_id", id,
		"success", result.Success,
		"duration_ms", elapsed.Milliseconds(),
	)
	return result, nil
}

// Stats returns registry totals, cached briefly
func (s *ProviderRegistryService) Stats(ctx context.Context) (*dtos.ProviderStats, error) {
	val, loaded, err := s.cache.GetOrLoad(constants.CachePrefixProviderStats, statsCacheTTL, func() (any, error) {
		return s.repo.Stats(ctx)
	})
	if loaded {
		s.metrics.CacheMissesTotal.WithLabelValues(constants.CachePrefixProviderStats).Inc()
	} else {
		s.metrics.CacheHitsTotal.WithLabelValues(constants.CachePrefixProviderStats).Inc()
	}
	if err != nil {
		return nil, classify(err)
	}

	var stats dtos.ProviderStats
	if !decodeCached(val, &stats) {
		fresh, err := s.repo.Stats(ctx)
		if err != nil {
			return nil, classify(err)
		}
		return fresh, nil
	}
	return &stats, nil
}

// checkProviderID rejects IDs that cannot match the uuid primary key.
// Postgres fails such lookups with a cast error rather than no rows.
func checkProviderID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return newServiceError(constants.ErrCodeProviderNotFound, err)
	}
	return nil
}

// ToProviderResponse converts a stored provider for display, masking secrets
func ToProviderResponse(p *models.ConnectedProvider) dtos.ProviderResponse {
	masked := make(map[string]string, len(p.Credentials))
	for field, value := range p.Credentials {
		masked[field] = wizard.MaskCredential(field, value)
	}
	mappings := make(map[string]string, len(p.FieldMappings))
	for k, v := range p.FieldMappings {
		mappings[k] = v
	}

	return dtos.ProviderResponse{
		ID:               p.ID,
		ProviderTypeID:   p.ProviderTypeID,
		Name:             p.Name,
		Category:         p.Category,
		Status:           p.Status,
		Description:      p.Description,
		Credentials:      masked,
		FieldMappings:    mappings,
		RecordsProcessed: p.RecordsProcessed,
		ErrorCount:       p.ErrorCount,
		LastSync:         p.LastSyncAt,
		CreatedAt:        p.CreatedAt,
	}
}
