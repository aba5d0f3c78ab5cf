package providers

import (
	"context"
	"fmt"
)

// CredentialTester validates credentials entered for a provider type
type CredentialTester interface {
	// TestCredentials performs a single test attempt. A non-nil error means
	// the test could not be carried out; a result with Success=false means
	// the provider rejected the credentials.
	TestCredentials(ctx context.Context, req TestRequest) (*TestResult, error)
}

// TestRequest is the payload sent to the credential test service
type TestRequest struct {
	ProviderTypeID string            `json:"providerTypeId"`
	Credentials    map[string]string `json:"credentials"`
}

// TestResult is the credential test service's answer
type TestResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ProviderError is returned when the credential test service cannot be used
type ProviderError struct {
	Code    string
	Message string
	Details string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
