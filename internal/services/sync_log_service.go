package services

import (
	"context"
	"strings"

	"linkhub/integrator/internal/constants"
	"linkhub/integrator/internal/db/repositories"
	"linkhub/integrator/internal/logging"
	"linkhub/integrator/internal/models/dtos"
	"linkhub/integrator/internal/models/entities"
)

const (
	defaultLogPageSize = 50
	maxLogPageSize     = 500
)

var validOperations = map[string]bool{
	constants.SyncOperationSync:     true,
	constants.SyncOperationTest:     true,
	constants.SyncOperationActivate: true,
	constants.SyncOperationExport:   true,
}

var validSyncStatuses = map[string]bool{
	constants.SyncStatusSuccess: true,
	constants.SyncStatusError:   true,
	constants.SyncStatusWarning: true,
	constants.SyncStatusSyncing: true,
}

type SyncLogService struct {
	repo *repositories.SyncLogRepo
}

func NewSyncLogService(repo *repositories.SyncLogRepo) *SyncLogService {
	return &SyncLogService{repo: repo}
}

// Record appends an entry to the sync log
func (s *SyncLogService) Record(ctx context.Context, entry *entities.SyncLogEntry) error {
	if !validOperations[entry.Operation] || !validSyncStatuses[entry.Status] {
		return newServiceError(constants.ErrCodeInvalidRequest, nil)
	}

	if err := s.repo.Insert(ctx, entry); err != nil {
		logging.Error("Failed to record sync log",
			"provider_id", entry.ProviderID,
			"operation", entry.Operation,
			"error", err.Error(),
		)
		return newServiceError(constants.ErrCodeStorageError, err)
	}
	return nil
}

// List returns a page of sync log entries, newest first
func (s *SyncLogService) List(ctx context.Context, filter dtos.SyncLogFilter) (*dtos.Page[entities.SyncLogEntry], error) {
	op := strings.ToLower(filter.Operation)
	if op != "" && op != constants.FilterAll && !validOperations[op] {
		return nil, newServiceError(constants.ErrCodeInvalidRequest, nil)
	}
	status := strings.ToLower(filter.Status)
	if status != "" && status != constants.FilterAll && !validSyncStatuses[status] {
		return nil, newServiceError(constants.ErrCodeInvalidRequest, nil)
	}
	filter.Operation = op
	filter.Status = status

	if filter.Limit <= 0 {
		filter.Limit = defaultLogPageSize
	}
	if filter.Limit > maxLogPageSize {
		filter.Limit = maxLogPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, newServiceError(constants.ErrCodeStorageError, err)
	}
	if items == nil {
		items = []entities.SyncLogEntry{}
	}

	return &dtos.Page[entities.SyncLogEntry]{
		Items:  items,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}, nil
}
