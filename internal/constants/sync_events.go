package constants

// Sync log operations
const (
	SyncOperationSync     = "sync"
	SyncOperationTest     = "test"
	SyncOperationActivate = "activate"
	SyncOperationExport   = "export"
)

// Sync log statuses
const (
	SyncStatusSuccess = "success"
	SyncStatusError   = "error"
	SyncStatusWarning = "warning"
	SyncStatusSyncing = "syncing"
)

// Connected provider statuses
const (
	ProviderStatusActive   = "active"
	ProviderStatusError    = "error"
	ProviderStatusInactive = "inactive"
	ProviderStatusSyncing  = "syncing"
)

// FilterAll disables an equality filter
const FilterAll = "all"

// Redis stream carrying provider activation events
const (
	ActivationStream        = "provider:activations"
	ActivationConsumerGroup = "activation-workers"
)
