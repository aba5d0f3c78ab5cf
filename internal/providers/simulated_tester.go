package providers

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// SimulatedCredentialTester stands in for the credential test service when
// no endpoint is configured. It waits a fixed delay and accepts any request
// whose required fields are all filled in.
type SimulatedCredentialTester struct {
	Delay          time.Duration
	RequiredFields map[string][]string // provider type id -> required field names
}

// Ensure SimulatedCredentialTester implements CredentialTester
var _ CredentialTester = (*SimulatedCredentialTester)(nil)

func NewSimulatedCredentialTester(delay time.Duration, requiredFields map[string][]string) *SimulatedCredentialTester {
	return &SimulatedCredentialTester{
		Delay:          delay,
		RequiredFields: requiredFields,
	}
}

func (t *SimulatedCredentialTester) TestCredentials(ctx context.Context, req TestRequest) (*TestResult, error) {
	if t.Delay > 0 {
		timer := time.NewTimer(t.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	fields, ok := t.RequiredFields[req.ProviderTypeID]
	if !ok {
		return &TestResult{Success: false, Error: fmt.Sprintf("unknown provider type %q", req.ProviderTypeID)}, nil
	}

	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(req.Credentials[f]) == "" {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return &TestResult{Success: false, Error: "missing " + strings.Join(missing, ", ")}, nil
	}

	return &TestResult{Success: true}, nil
}
