package dtos

import (
	"time"

	"linkhub/integrator/internal/wizard"
)

type APIResponse struct {
	Status       string `json:"status"`
	Code         string `json:"code,omitempty"`
	Message      string `json:"message"`
	ResponseTime string `json:"response_time"`
	Data         any    `json:"data,omitempty"`
}

// WizardSessionResponse is the dashboard's view of a setup session
type WizardSessionResponse struct {
	SessionID            string                         `json:"session_id"`
	CurrentStep          wizard.StepInfo                `json:"current_step"`
	Steps                []wizard.StepInfo              `json:"steps"`
	Progress             int                            `json:"progress"`
	SelectedProviderType *wizard.ProviderTypeDescriptor `json:"selected_provider_type,omitempty"`
	Credentials          []CredentialFieldView          `json:"credentials"`
	FieldMappings        map[string]string              `json:"field_mappings"`
	CanonicalFields      []string                       `json:"canonical_fields"`
	ConnectionTestStatus wizard.TestStatus              `json:"connection_test_status"`
	LastTestError        string                         `json:"last_test_error,omitempty"`
	Description          string                         `json:"description,omitempty"`
	CanAdvance           bool                           `json:"can_advance"`
	CreatedAt            time.Time                      `json:"created_at"`
}

// CredentialFieldView renders one credential input, masked unless revealed
type CredentialFieldView struct {
	Field    string `json:"field"`
	Value    string `json:"value"`
	IsSecret bool   `json:"is_secret"`
	Visible  bool   `json:"visible"`
}

// TestStartedResponse is returned by the connection test endpoint
type TestStartedResponse struct {
	Started              bool              `json:"started"`
	ConnectionTestStatus wizard.TestStatus `json:"connection_test_status"`
}

// ProviderResponse is a connected provider with credentials masked
type ProviderResponse struct {
	ID               string            `json:"id"`
	ProviderTypeID   string            `json:"provider_type_id"`
	Name             string            `json:"name"`
	Category         string            `json:"category"`
	Status           string            `json:"status"`
	Description      string            `json:"description,omitempty"`
	Credentials      map[string]string `json:"credentials"`
	FieldMappings    map[string]string `json:"field_mappings"`
	RecordsProcessed int64             `json:"records_processed"`
	ErrorCount       int               `json:"error_count"`
	LastSync         *time.Time        `json:"last_sync,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

// ProviderStats backs the dashboard quick-stats cards
type ProviderStats struct {
	TotalProviders   int64 `json:"total_providers"`
	ActiveProviders  int64 `json:"active_providers"`
	ErrorProviders   int64 `json:"error_providers"`
	RecordsProcessed int64 `json:"records_processed"`
	ErrorCount       int64 `json:"error_count"`
}

// Page wraps a list result with paging info
type Page[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}
