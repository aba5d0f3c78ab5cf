package dtos

import "time"

type SelectProviderTypeReq struct {
	ProviderTypeID string `json:"provider_type_id"`
}

type SetCredentialReq struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type ToggleSecretReq struct {
	Field string `json:"field"`
}

type SetDescriptionReq struct {
	Description string `json:"description"`
}

type SetFieldMappingReq struct {
	CanonicalField string `json:"canonical_field"`
	ProviderField  string `json:"provider_field"`
}

// ProviderFilter narrows the connected provider list. Empty or "all" disables a filter.
type ProviderFilter struct {
	Search   string
	Status   string
	Category string
}

// SyncLogFilter narrows the sync log list. Empty or "all" disables a filter.
type SyncLogFilter struct {
	Search     string
	ProviderID string
	Operation  string
	Status     string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}
