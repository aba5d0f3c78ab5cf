package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"linkhub/integrator/internal/constants"
)

// HTTPCredentialTester calls the external credential test service over HTTP
type HTTPCredentialTester struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// Ensure HTTPCredentialTester implements CredentialTester
var _ CredentialTester = (*HTTPCredentialTester)(nil)

// NewHTTPCredentialTester creates a tester posting to baseURL + "/credentials/test"
func NewHTTPCredentialTester(baseURL, apiKey string, timeout time.Duration) *HTTPCredentialTester {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPCredentialTester{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

// TestCredentials posts the request and decodes the service's verdict
func (t *HTTPCredentialTester) TestCredentials(ctx context.Context, req TestRequest) (*TestResult, error) {
	if req.ProviderTypeID == "" {
		return nil, &ProviderError{
			Code:    constants.ErrCodeInvalidRequest,
			Message: "provider type cannot be empty",
		}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, &ProviderError{
			Code:    constants.ErrCodeInvalidRequest,
			Message: "Failed to marshal request body",
			Err:     err,
		}
	}

	endpoint := "/credentials/test"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.BaseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: "Failed to create request",
			Err:     err,
		}
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if t.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+t.APIKey)
	}

	resp, err := t.Client.Do(httpReq)
	if err != nil {
		code := constants.ErrCodeNetworkError
		if errors.Is(err, context.DeadlineExceeded) {
			code = constants.ErrCodeTestTimeout
		}
		return nil, &ProviderError{
			Code:    code,
			Message: constants.GetErrorMessage(code),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: "Failed to read response body",
			Err:     err,
		}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		// The service may answer 401/403 for rejected provider credentials with a JSON verdict
		var verdict TestResult
		if json.Unmarshal(body, &verdict) == nil && verdict.Error != "" {
			return &verdict, nil
		}
		return nil, &ProviderError{
			Code:    constants.ErrCodeAuthenticationFailed,
			Message: constants.GetErrorMessage(constants.ErrCodeAuthenticationFailed),
			Details: string(body),
		}
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &ProviderError{
			Code:    constants.ErrCodeRateLimited,
			Message: constants.GetErrorMessage(constants.ErrCodeRateLimited),
			Details: string(body),
		}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: fmt.Sprintf("HTTP %d from %s", resp.StatusCode, endpoint),
			Details: string(body),
		}
	}

	var result TestResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: "Failed to decode response",
			Details: string(body),
			Err:     err,
		}
	}
	return &result, nil
}
