package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"linkhub/integrator/internal/constants"
)

func TestHTTPCredentialTester_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST request, got %s", r.Method)
		}
		if r.URL.Path != "/credentials/test" {
			t.Errorf("Expected path /credentials/test, got %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Expected bearer auth header, got %q", got)
		}

		var req TestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if req.ProviderTypeID != "hubspot" {
			t.Errorf("Expected providerTypeId hubspot, got %s", req.ProviderTypeID)
		}
		if req.Credentials["API Key"] != "abc" {
			t.Errorf("Expected API Key abc, got %s", req.Credentials["API Key"])
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(TestResult{Success: true})
	}))
	defer server.Close()

	tester := NewHTTPCredentialTester(server.URL, "test-key", time.Second)

	result, err := tester.TestCredentials(context.Background(), TestRequest{
		ProviderTypeID: "hubspot",
		Credentials:    map[string]string{"API Key": "abc", "Portal ID": "123"},
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !result.Success {
		t.Errorf("Expected success, got %+v", result)
	}
}

func TestHTTPCredentialTester_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"success": false, "error": "portal not found"}`))
	}))
	defer server.Close()

	tester := NewHTTPCredentialTester(server.URL, "", time.Second)

	result, err := tester.TestCredentials(context.Background(), TestRequest{ProviderTypeID: "hubspot"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Success {
		t.Error("Expected failure verdict")
	}
	if result.Error != "portal not found" {
		t.Errorf("Expected error detail, got %q", result.Error)
	}
}

func TestHTTPCredentialTester_UnauthorizedWithVerdict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"success": false, "error": "invalid api key"}`))
	}))
	defer server.Close()

	tester := NewHTTPCredentialTester(server.URL, "", time.Second)

	result, err := tester.TestCredentials(context.Background(), TestRequest{ProviderTypeID: "hubspot"})
	if err != nil {
		t.Fatalf("Expected verdict, got error %v", err)
	}
	if result.Success || result.Error != "invalid api key" {
		t.Errorf("Unexpected result %+v", result)
	}
}

func TestHTTPCredentialTester_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	tester := NewHTTPCredentialTester(server.URL, "", time.Second)

	_, err := tester.TestCredentials(context.Background(), TestRequest{ProviderTypeID: "hubspot"})
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected ProviderError, got %v", err)
	}
	if perr.Code != constants.ErrCodeRateLimited {
		t.Errorf("Expected %s, got %s", constants.ErrCodeRateLimited, perr.Code)
	}
}

func TestHTTPCredentialTester_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}))
	defer server.Close()

	tester := NewHTTPCredentialTester(server.URL, "", time.Second)

	_, err := tester.TestCredentials(context.Background(), TestRequest{ProviderTypeID: "hubspot"})
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected ProviderError, got %v", err)
	}
	if perr.Code != constants.ErrCodeNetworkError {
		t.Errorf("Expected %s, got %s", constants.ErrCodeNetworkError, perr.Code)
	}
	if perr.Details != "upstream down" {
		t.Errorf("Expected body in details, got %q", perr.Details)
	}
}

func TestHTTPCredentialTester_EmptyProviderType(t *testing.T) {
	tester := NewHTTPCredentialTester("http://127.0.0.1:0", "", time.Second)

	_, err := tester.TestCredentials(context.Background(), TestRequest{})
	if err == nil {
		t.Error("Expected error for empty provider type")
	}
}

func TestHTTPCredentialTester_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	tester := NewHTTPCredentialTester(server.URL, "", 5*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := tester.TestCredentials(ctx, TestRequest{ProviderTypeID: "hubspot"})
	if err == nil {
		t.Fatal("Expected error when context expires")
	}
}
