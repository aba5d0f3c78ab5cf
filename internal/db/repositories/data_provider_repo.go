package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"linkhub/integrator/internal/constants"
	"linkhub/integrator/internal/models"
	"linkhub/integrator/internal/models/dtos"

	"gorm.io/gorm"
)

// ErrProviderNotFound is returned when no connected provider has the requested ID
var ErrProviderNotFound = errors.New("provider not found")

type ConnectedProviderRepo struct {
	db *gorm.DB
}

func NewConnectedProviderRepo(db *gorm.DB) *ConnectedProviderRepo {
	return &ConnectedProviderRepo{db: db}
}

// Create stores a newly activated provider
func (r *ConnectedProviderRepo) Create(ctx context.Context, provider *models.ConnectedProvider) error {
	err := r.db.WithContext(ctx).Create(provider).Error
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}
	return nil
}

// GetByID fetches a provider by its ID
func (r *ConnectedProviderRepo) GetByID(ctx context.Context, id string) (*models.ConnectedProvider, error) {
	var provider models.ConnectedProvider

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&provider).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("failed to get provider by ID: %w", err)
	}

	return &provider, nil
}

// List returns providers matching the filter, newest first
func (r *ConnectedProviderRepo) List(ctx context.Context, filter dtos.ProviderFilter) ([]models.ConnectedProvider, error) {
	var providers []models.ConnectedProvider

	q := r.db.WithContext(ctx).Model(&models.ConnectedProvider{})
	if s := strings.TrimSpace(filter.Search); s != "" {
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, containsPattern(s))
	}
	if filter.Status != "" && filter.Status != constants.FilterAll {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Category != "" && filter.Category != constants.FilterAll {
		q = q.Where("category = ?", filter.Category)
	}

	err := q.Order("created_at DESC").Find(&providers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}

	return providers, nil
}

// UpdateStatus sets a provider's status
func (r *ConnectedProviderRepo) UpdateStatus(ctx context.Context, id, status string) error {
	result := r.db.WithContext(ctx).
		Model(&models.ConnectedProvider{}).
		Where("id = ?", id).
		Update("status", status)

	if result.Error != nil {
		return fmt.Errorf("failed to update provider status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrProviderNotFound
	}
	return nil
}

// RecordTestOutcome updates status and error count after a connection test
func (r *ConnectedProviderRepo) RecordTestOutcome(ctx context.Context, id string, success bool) error {
	updates := map[string]interface{}{"status": constants.ProviderStatusActive}
	if !success {
		updates["status"] = constants.ProviderStatusError
		updates["error_count"] = gorm.Expr("error_count + ?", 1)
	}

	result := r.db.WithContext(ctx).
		Model(&models.ConnectedProvider{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to record test outcome: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrProviderNotFound
	}
	return nil
}

// Stats aggregates the registry for the dashboard
func (r *ConnectedProviderRepo) Stats(ctx context.Context) (*dtos.ProviderStats, error) {
	var stats dtos.ProviderStats

	err := r.db.WithContext(ctx).
		Model(&models.ConnectedProvider{}).
		Select(`COUNT(*) AS total_providers,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS active_providers,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS error_providers,
			COALESCE(SUM(records_processed), 0) AS records_processed,
			COALESCE(SUM(error_count), 0) AS error_count`,
			constants.ProviderStatusActive, constants.ProviderStatusError).
		Scan(&stats).Error

	if err != nil {
		return nil, fmt.Errorf("failed to compute provider stats: %w", err)
	}
	return &stats, nil
}

// TouchLastSync records when the provider last exchanged data
func (r *ConnectedProviderRepo) TouchLastSync(ctx context.Context, id string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.ConnectedProvider{}).
		Where("id = ?", id).
		Update("last_sync_at", at.UTC())

	if result.Error != nil {
		return fmt.Errorf("failed to update last sync: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrProviderNotFound
	}
	return nil
}
