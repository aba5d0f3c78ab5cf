package wizard

import (
	"sort"
	"strings"
)

// Category groups provider types in the directory
type Category string

const (
	CategoryCRM            Category = "crm"
	CategoryAnalytics      Category = "analytics"
	CategoryTaskManagement Category = "task-management"
	CategoryCustom         Category = "custom"
)

// ProviderTypeDescriptor is immutable reference data describing a provider type
type ProviderTypeDescriptor struct {
	ID             string   `json:"id"`
	DisplayName    string   `json:"display_name"`
	Category       Category `json:"category"`
	Description    string   `json:"description"`
	RequiredFields []string `json:"required_fields"`
}

// Requires reports whether field is one of the descriptor's required fields
func (d ProviderTypeDescriptor) Requires(field string) bool {
	for _, f := range d.RequiredFields {
		if f == field {
			return true
		}
	}
	return false
}

// IsSecretField reports whether a credential field should be masked by default.
// Matches the dashboard rule: any field whose name mentions a secret or a key.
func IsSecretField(field string) bool {
	lower := strings.ToLower(field)
	return strings.Contains(lower, "secret") || strings.Contains(lower, "key")
}

// Directory is the static catalog of provider types the wizard offers
var Directory = map[string]ProviderTypeDescriptor{
	"hubspot": {
		ID:             "hubspot",
		DisplayName:    "HubSpot CRM",
		Category:       CategoryCRM,
		Description:    "Sync contacts, deals, and companies",
		RequiredFields: []string{"API Key", "Portal ID"},
	},
	"powerbi": {
		ID:             "powerbi",
		DisplayName:    "Power BI",
		Category:       CategoryAnalytics,
		Description:    "Export data for analytics and reporting",
		RequiredFields: []string{"Client ID", "Client Secret", "Tenant ID"},
	},
	"planner": {
		ID:             "planner",
		DisplayName:    "Microsoft Planner",
		Category:       CategoryTaskManagement,
		Description:    "Sync tasks and project data",
		RequiredFields: []string{"Client ID", "Client Secret"},
	},
	"custom": {
		ID:             "custom",
		DisplayName:    "Custom API",
		Category:       CategoryCustom,
		Description:    "Connect to any REST API endpoint",
		RequiredFields: []string{"Base URL", "API Key", "Headers"},
	},
}

// directoryOrder is the order the dashboard lists provider types in
var directoryOrder = []string{"hubspot", "powerbi", "planner", "custom"}

// LookupProviderType returns a provider type by ID
func LookupProviderType(id string) (ProviderTypeDescriptor, bool) {
	d, ok := Directory[id]
	return d, ok
}

// ProviderTypes returns every provider type in display order.
// Types added to Directory without an entry in directoryOrder come last, sorted by ID.
func ProviderTypes() []ProviderTypeDescriptor {
	result := make([]ProviderTypeDescriptor, 0, len(Directory))
	seen := make(map[string]bool, len(Directory))
	for _, id := range directoryOrder {
		if d, ok := Directory[id]; ok {
			result = append(result, d)
			seen[id] = true
		}
	}

	var rest []string
	for id := range Directory {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	for _, id := range rest {
		result = append(result, Directory[id])
	}
	return result
}

// CanonicalFields is the fixed set of LinkHub fields mapped at step 3
var CanonicalFields = []string{"Name", "Email", "Company", "Phone", "Status"}

// IsCanonicalField reports whether field belongs to CanonicalFields
func IsCanonicalField(field string) bool {
	for _, f := range CanonicalFields {
		if f == field {
			return true
		}
	}
	return false
}

// MaskCredential masks a credential value for display.
// e.g. "sk-1234567890abcdef" -> "sk-1...cdef"
func MaskCredential(field, value string) string {
	if value == "" || !IsSecretField(field) {
		return value
	}
	if r := []rune(value); len(r) > 8 {
		return string(r[:4]) + "..." + string(r[len(r)-4:])
	}
	return "***"
}
