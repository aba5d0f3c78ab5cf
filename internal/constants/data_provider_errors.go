package constants

// Data Provider Error Codes
// These constants define specific error scenarios for provider setup and the registry

// Credential test errors
const (
	ErrCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	ErrCodeRateLimited          = "RATE_LIMITED"
	ErrCodeNetworkError         = "NETWORK_ERROR"
	ErrCodeAuthenticationFailed = "AUTHENTICATION_FAILED"
	ErrCodeTestTimeout          = "TEST_TIMEOUT"
	ErrCodeMissingCredential    = "MISSING_CREDENTIAL"
)

// Wizard errors
const (
	ErrCodeSessionNotFound     = "SESSION_NOT_FOUND"
	ErrCodeInvalidTransition   = "INVALID_TRANSITION"
	ErrCodeUnknownProviderType = "UNKNOWN_PROVIDER_TYPE"
	ErrCodeUnknownField        = "UNKNOWN_FIELD"
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
)

// Registry errors
const (
	ErrCodeProviderNotFound = "PROVIDER_NOT_FOUND"
	ErrCodeStorageError     = "STORAGE_ERROR"
)

// Error Messages
// Human-readable messages corresponding to error codes

var DataProviderErrorMessages = map[string]string{
	// Credentials
	ErrCodeInvalidCredentials:   "The provider rejected the supplied credentials",
	ErrCodeRateLimited:          "Rate limit exceeded. Please try again later",
	ErrCodeNetworkError:         "Unable to reach the credential test service",
	ErrCodeAuthenticationFailed: "Authentication with the credential test service failed",
	ErrCodeTestTimeout:          "The connection test timed out",
	ErrCodeMissingCredential:    "A required credential field is empty",

	// Wizard
	ErrCodeSessionNotFound:     "The setup session does not exist or has ended",
	ErrCodeInvalidTransition:   "That action is not available at the current setup step",
	ErrCodeUnknownProviderType: "Unknown provider type",
	ErrCodeUnknownField:        "The field is not part of this provider's configuration",
	ErrCodeInvalidRequest:      "The request is malformed",

	// Registry
	ErrCodeProviderNotFound: "The provider was not found",
	ErrCodeStorageError:     "Failed to read or write provider data",
}

// GetErrorMessage returns the human-readable message for an error code
func GetErrorMessage(code string) string {
	if msg, exists := DataProviderErrorMessages[code]; exists {
		return msg
	}
	return "An unknown error occurred"
}
