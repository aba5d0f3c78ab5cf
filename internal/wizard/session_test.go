package wizard

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"linkhub/integrator/internal/providers"
)

// Mock CredentialTester
type mockTester struct {
	calls   atomic.Int32
	release chan struct{}
	testFn  func(ctx context.Context, req providers.TestRequest) (*providers.TestResult, error)
}

func (m *mockTester) TestCredentials(ctx context.Context, req providers.TestRequest) (*providers.TestResult, error) {
	m.calls.Add(1)
	if m.release != nil {
		select {
		case <-m.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.testFn != nil {
		return m.testFn(ctx, req)
	}
	return &providers.TestResult{Success: true}, nil
}

func succeed() *mockTester {
	return &mockTester{}
}

func fail(detail string) *mockTester {
	return &mockTester{testFn: func(ctx context.Context, req providers.TestRequest) (*providers.TestResult, error) {
		return &providers.TestResult{Success: false, Error: detail}, nil
	}}
}

func newTestSession(tester providers.CredentialTester) *Session {
	return NewSession("session-1", Options{Tester: tester, TestTimeout: 5 * time.Second})
}

func mustStep(t *testing.T, s *Session, want Step) {
	t.Helper()
	state, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if state.CurrentStep != want {
		t.Fatalf("Expected step %d, got %d", want, state.CurrentStep)
	}
}

func waitFor(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for connection test")
	}
}

// toStep walks a fresh HubSpot session to the requested step
func toStep(t *testing.T, s *Session, step Step) {
	t.Helper()
	if err := s.SelectProviderType(Directory["hubspot"]); err != nil {
		t.Fatalf("SelectProviderType failed: %v", err)
	}
	for cur := StepSelectProvider; cur < step; cur++ {
		if cur == StepTestConnection {
			done, _, err := s.TestConnection()
			if err != nil {
				t.Fatalf("TestConnection failed: %v", err)
			}
			waitFor(t, done)
		}
		if _, err := s.Advance(); err != nil {
			t.Fatalf("Advance from step %d failed: %v", cur, err)
		}
	}
}

func TestNewSession_Defaults(t *testing.T) {
	s := newTestSession(succeed())

	state, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if state.CurrentStep != StepSelectProvider {
		t.Errorf("Expected step 1, got %d", state.CurrentStep)
	}
	if state.ConnectionTestStatus != TestIdle {
		t.Errorf("Expected idle, got %s", state.ConnectionTestStatus)
	}
	if state.SelectedProviderType != nil {
		t.Error("Expected no provider selected")
	}
	if len(state.Credentials) != 0 || len(state.FieldMappings) != 0 {
		t.Error("Expected empty accumulators")
	}
}

func TestAdvance_StepOneRequiresProvider(t *testing.T) {
	s := newTestSession(succeed())

	step, err := s.Advance()
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Expected ErrInvalidTransition, got %v", err)
	}
	if step != StepSelectProvider {
		t.Errorf("Expected to stay on step 1, got %d", step)
	}
}

func TestAdvance_EveryProviderReachesStepTwo(t *testing.T) {
	for _, d := range ProviderTypes() {
		t.Run(d.ID, func(t *testing.T) {
			s := newTestSession(succeed())
			if err := s.SelectProviderType(d); err != nil {
				t.Fatalf("SelectProviderType failed: %v", err)
			}
			step, err := s.Advance()
			if err != nil {
				t.Fatalf("Expected advance to succeed, got %v", err)
			}
			if step != StepConfigureAPI {
				t.Errorf("Expected step 2, got %d", step)
			}
		})
	}
}

func TestAdvance_StepFourRequiresSuccessfulTest(t *testing.T) {
	s := newTestSession(succeed())
	toStep(t, s, StepTestConnection)

	if _, err := s.Advance(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Expected ErrInvalidTransition with idle test, got %v", err)
	}

	done, started, err := s.TestConnection()
	if err != nil || !started {
		t.Fatalf("Expected test to start, started=%v err=%v", started, err)
	}
	waitFor(t, done)

	step, err := s.Advance()
	if err != nil {
		t.Fatalf("Expected advance after success, got %v", err)
	}
	if step != StepActivate {
		t.Errorf("Expected step 5, got %d", step)
	}
}

func TestAdvance_NeverPassesStepFive(t *testing.T) {
	s := newTestSession(succeed())
	toStep(t, s, StepActivate)

	step, err := s.Advance()
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Expected ErrInvalidTransition at step 5, got %v", err)
	}
	if step != StepActivate {
		t.Errorf("Expected step 5, got %d", step)
	}
}

func TestRetreat_StepOneIsNoop(t *testing.T) {
	s := newTestSession(succeed())

	step, err := s.Retreat()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if step != StepSelectProvider {
		t.Errorf("Expected step 1, got %d", step)
	}
}

func TestRetreat_KeepsCollectedData(t *testing.T) {
	s := newTestSession(succeed())
	toStep(t, s, StepConfigureAPI)

	if err := s.SetCredential("API Key", "abc"); err != nil {
		t.Fatalf("SetCredential failed: %v", err)
	}
	if _, err := s.Retreat(); err != nil {
		t.Fatalf("Retreat failed: %v", err)
	}

	state, _ := s.Snapshot()
	if state.Credentials["API Key"] != "abc" {
		t.Errorf("Expected credential to survive retreat, got %v", state.Credentials)
	}
}

func TestStepScopedMutations_WrongStep(t *testing.T) {
	s := newTestSession(succeed())
	toStep(t, s, StepConfigureAPI)

	if err := s.SetFieldMapping("Name", "firstname"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition for mapping at step 2, got %v", err)
	}
	if err := s.SelectProviderType(Directory["powerbi"]); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition for selection at step 2, got %v", err)
	}

	s.Advance()
	if err := s.SetCredential("API Key", "abc"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition for credential at step 3, got %v", err)
	}
	if _, _, err := s.TestConnection(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition for test at step 3, got %v", err)
	}
}

func TestSetCredential_RejectsUnknownField(t *testing.T) {
	s := newTestSession(succeed())
	toStep(t, s, StepConfigureAPI)

	if err := s.SetCredential("Client Secret", "x"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("Expected ErrUnknownField, got %v", err)
	}
	state, _ := s.Snapshot()
	if _, ok := state.Credentials["Client Secret"]; ok {
		t.Error("Unknown field must not be stored")
	}
}

func TestSetFieldMapping_RejectsNonCanonicalField(t *testing.T) {
	s := newTestSession(succeed())
	toStep(t, s, StepFieldMapping)

	if err := s.SetFieldMapping("Website", "url"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("Expected ErrUnknownField, got %v", err)
	}
}

func TestSetFieldMapping_EmptyValueClears(t *testing.T) {
	s := newTestSession(succeed())
	toStep(t, s, StepFieldMapping)

	s.SetFieldMapping("Name", "firstname")
	if err := s.SetFieldMapping("Name", ""); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	state, _ := s.Snapshot()
	if _, ok := state.FieldMappings["Name"]; ok {
		t.Error("Expected mapping to be removed")
	}
}

func TestSelectProviderType_DifferentProviderClearsData(t *testing.T) {
	s := newTestSession(succeed())
	toStep(t, s, StepConfigureAPI)
	s.SetCredential("API Key", "abc")
	s.ToggleSecretVisibility("API Key")
	s.Retreat()

	if err := s.SelectProviderType(Directory["planner"]); err != nil {
		t.Fatalf("SelectProviderType failed: %v", err)
	}

	state, _ := s.Snapshot()
	if state.SelectedProviderType.ID != "planner" {
		t.Errorf("Expected planner, got %s", state.SelectedProviderType.ID)
	}
	if len(state.Credentials) != 0 {
		t.Errorf("Expected credentials cleared, got %v", state.Credentials)
	}
	if len(state.SecretVisibility) != 0 {
		t.Errorf("Expected secret visibility cleared, got %v", state.SecretVisibility)
	}
}

func TestSelectProviderType_SameProviderKeepsData(t *testing.T) {
	s := newTestSession(succeed())
	toStep(t, s, StepConfigureAPI)
	s.SetCredential("API Key", "abc")
	s.Retreat()

	if err := s.SelectProviderType(Directory["hubspot"]); err != nil {
		t.Fatalf("SelectProviderType failed: %v", err)
	}

	state, _ := s.Snapshot()
	if state.Credentials["API Key"] != "abc" {
		t.Errorf("Expected credentials kept, got %v", state.Credentials)
	}
}

func TestTestConnection_SecondCallWhileTestingIsNoop(t *testing.T) {
	tester := &mockTester{release: make(chan struct{})}
	var resolutions atomic.Int32
	s := NewSession("session-1", Options{
		Tester: tester,
		OnTestResolved: func(string, TestStatus, string, time.Duration) {
			resolutions.Add(1)
		},
	})
	toStep(t, s, StepTestConnection)

	done1, started1, err := s.TestConnection()
	if err != nil || !started1 {
		t.Fatalf("Expected first test to start, started=%v err=%v", started1, err)
	}

	state, _ := s.Snapshot()
	if state.ConnectionTestStatus != TestTesting {
		t.Fatalf("Expected testing, got %s", state.ConnectionTestStatus)
	}

	done2, started2, err := s.TestConnection()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if started2 {
		t.Error("Expected second call not to start a test")
	}
	if done1 != done2 {
		t.Error("Expected second call to return the in-flight test's channel")
	}

	close(tester.release)
	waitFor(t, done1)

	if n := tester.calls.Load(); n != 1 {
		t.Errorf("Expected 1 tester call, got %d", n)
	}
	if n := resolutions.Load(); n != 1 {
		t.Errorf("Expected 1 resolution, got %d", n)
	}
}

func TestTestConnection_ConcurrentCallersStartOneTest(t *testing.T) {
	tester := &mockTester{release: make(chan struct{})}
	s := newTestSession(tester)
	toStep(t, s, StepTestConnection)

	var wg sync.WaitGroup
	var started atomic.Int32
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, err := s.TestConnection(); err == nil && ok {
				started.Add(1)
			}
		}()
	}
	wg.Wait()
	close(tester.release)

	if n := started.Load(); n != 1 {
		t.Errorf("Expected exactly one test started, got %d", n)
	}
}

func TestTestConnection_FailureThenRetry(t *testing.T) {
	attempts := 0
	tester := &mockTester{testFn: func(ctx context.Context, req providers.TestRequest) (*providers.TestResult, error) {
		attempts++
		if attempts == 1 {
			return &providers.TestResult{Success: false, Error: "bad portal"}, nil
		}
		return &providers.TestResult{Success: true}, nil
	}}
	s := newTestSession(tester)
	toStep(t, s, StepTestConnection)

	done, _, _ := s.TestConnection()
	waitFor(t, done)

	state, _ := s.Snapshot()
	if state.ConnectionTestStatus != TestError {
		t.Fatalf("Expected error status, got %s", state.ConnectionTestStatus)
	}
	if state.LastTestError == "" {
		t.Error("Expected failure detail to be recorded")
	}
	if _, err := s.Advance(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Expected advance to fail after test error, got %v", err)
	}

	done, started, err := s.RetryTest()
	if err != nil || !started {
		t.Fatalf("Expected retry to start, started=%v err=%v", started, err)
	}
	waitFor(t, done)

	state, _ = s.Snapshot()
	if state.ConnectionTestStatus != TestSuccess {
		t.Fatalf("Expected success after retry, got %s", state.ConnectionTestStatus)
	}
	if state.LastTestError != "" {
		t.Errorf("Expected last error cleared, got %q", state.LastTestError)
	}
	if _, err := s.Advance(); err != nil {
		t.Fatalf("Expected advance after retry, got %v", err)
	}
}

func TestTestConnection_TesterErrorMarksError(t *testing.T) {
	tester := &mockTester{testFn: func(ctx context.Context, req providers.TestRequest) (*providers.TestResult, error) {
		return nil, errors.New("dial tcp: connection refused")
	}}
	s := newTestSession(tester)
	toStep(t, s, StepTestConnection)

	done, _, _ := s.TestConnection()
	waitFor(t, done)

	state, _ := s.Snapshot()
	if state.ConnectionTestStatus != TestError {
		t.Errorf("Expected error status, got %s", state.ConnectionTestStatus)
	}
}

func TestTestConnection_TimeoutMarksError(t *testing.T) {
	tester := &mockTester{release: make(chan struct{})}
	s := NewSession("session-1", Options{Tester: tester, TestTimeout: 20 * time.Millisecond})
	toStep(t, s, StepTestConnection)

	done, _, _ := s.TestConnection()
	waitFor(t, done)

	state, _ := s.Snapshot()
	if state.ConnectionTestStatus != TestError {
		t.Errorf("Expected error after timeout, got %s", state.ConnectionTestStatus)
	}
}

func TestTestConnection_CredentialEditDropsStaleResult(t *testing.T) {
	tester := &mockTester{release: make(chan struct{})}
	s := newTestSession(tester)
	toStep(t, s, StepTestConnection)

	done, _, _ := s.TestConnection()
	s.Retreat()
	s.Retreat()
	if err := s.SetCredential("API Key", "changed"); err != nil {
		t.Fatalf("SetCredential failed: %v", err)
	}
	close(tester.release)
	waitFor(t, done)

	state, _ := s.Snapshot()
	if state.ConnectionTestStatus != TestIdle {
		t.Errorf("Expected idle after credential change, got %s", state.ConnectionTestStatus)
	}
}

func TestCancel_DiscardsLateTestResult(t *testing.T) {
	tester := &mockTester{release: make(chan struct{})}
	var resolutions atomic.Int32
	s := NewSession("session-1", Options{
		Tester: tester,
		OnTestResolved: func(string, TestStatus, string, time.Duration) {
			resolutions.Add(1)
		},
	})
	toStep(t, s, StepTestConnection)

	done, _, _ := s.TestConnection()
	if err := s.Cancel(); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	close(tester.release)
	waitFor(t, done)

	if !s.Closed() {
		t.Error("Expected session to be closed")
	}
	if n := resolutions.Load(); n != 0 {
		t.Errorf("Expected late result to be dropped, got %d resolutions", n)
	}
}

func TestCancel_MutatorsFailAfterwards(t *testing.T) {
	s := newTestSession(succeed())
	toStep(t, s, StepConfigureAPI)

	if err := s.Cancel(); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	checks := map[string]error{
		"SetCredential":      s.SetCredential("API Key", "abc"),
		"SetDescription":     s.SetDescription("x"),
		"SetFieldMapping":    s.SetFieldMapping("Name", "firstname"),
		"SelectProviderType": s.SelectProviderType(Directory["hubspot"]),
		"Cancel":             s.Cancel(),
	}
	for name, err := range checks {
		if !errors.Is(err, ErrSessionClosed) {
			t.Errorf("%s: expected ErrSessionClosed, got %v", name, err)
		}
	}
	if _, err := s.Advance(); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Advance: expected ErrSessionClosed, got %v", err)
	}
	if _, err := s.Retreat(); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Retreat: expected ErrSessionClosed, got %v", err)
	}
	if _, _, err := s.TestConnection(); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("TestConnection: expected ErrSessionClosed, got %v", err)
	}
	if _, err := s.Complete(nil); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Complete: expected ErrSessionClosed, got %v", err)
	}
	if _, err := s.Snapshot(); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Snapshot: expected ErrSessionClosed, got %v", err)
	}
}

func TestComplete_OnlyFromStepFive(t *testing.T) {
	s := newTestSession(succeed())
	toStep(t, s, StepTestConnection)

	if _, err := s.Complete(nil); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Expected ErrInvalidTransition at step 4, got %v", err)
	}
}

func TestComplete_EmitFailureKeepsSessionOpen(t *testing.T) {
	s := newTestSession(succeed())
	toStep(t, s, StepActivate)

	_, err := s.Complete(func(FinishedProvider) error { return errors.New("registry down") })
	if err == nil {
		t.Fatal("Expected emit error to be returned")
	}
	if s.Closed() {
		t.Fatal("Expected session to remain open for retry")
	}

	if _, err := s.Complete(nil); err != nil {
		t.Fatalf("Expected retry to complete, got %v", err)
	}
	if !s.Closed() {
		t.Error("Expected session closed after completion")
	}
}

func TestEndToEnd_HubSpot(t *testing.T) {
	s := newTestSession(succeed())

	if err := s.SelectProviderType(Directory["hubspot"]); err != nil {
		t.Fatalf("SelectProviderType failed: %v", err)
	}
	if _, err := s.Advance(); err != nil {
		t.Fatalf("Advance to step 2 failed: %v", err)
	}
	if err := s.SetCredential("API Key", "abc"); err != nil {
		t.Fatalf("SetCredential failed: %v", err)
	}
	if err := s.SetCredential("Portal ID", "123"); err != nil {
		t.Fatalf("SetCredential failed: %v", err)
	}
	if _, err := s.Advance(); err != nil {
		t.Fatalf("Advance to step 3 failed: %v", err)
	}
	s.SetFieldMapping("Name", "firstname")
	s.SetFieldMapping("Email", "email")
	if _, err := s.Advance(); err != nil {
		t.Fatalf("Advance to step 4 failed: %v", err)
	}

	done, _, err := s.TestConnection()
	if err != nil {
		t.Fatalf("TestConnection failed: %v", err)
	}
	waitFor(t, done)

	if step, err := s.Advance(); err != nil || step != StepActivate {
		t.Fatalf("Advance to step 5 failed: step=%d err=%v", step, err)
	}

	var emitted FinishedProvider
	record, err := s.Complete(func(p FinishedProvider) error {
		emitted = p
		return nil
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if record.ProviderTypeID != "hubspot" {
		t.Errorf("Expected hubspot, got %s", record.ProviderTypeID)
	}
	if record.DisplayName != "HubSpot CRM" || record.Category != "crm" {
		t.Errorf("Unexpected descriptor fields %+v", record)
	}
	wantCreds := map[string]string{"API Key": "abc", "Portal ID": "123"}
	if !reflect.DeepEqual(record.Credentials, wantCreds) {
		t.Errorf("Expected credentials %v, got %v", wantCreds, record.Credentials)
	}
	wantMappings := map[string]string{"Name": "firstname", "Email": "email"}
	if !reflect.DeepEqual(record.FieldMappings, wantMappings) {
		t.Errorf("Expected mappings %v, got %v", wantMappings, record.FieldMappings)
	}
	if record.Status != StatusActive {
		t.Errorf("Expected status active, got %s", record.Status)
	}
	if !reflect.DeepEqual(emitted.Credentials, record.Credentials) {
		t.Error("Expected emitted record to match returned record")
	}
	if !s.Closed() {
		t.Error("Expected session closed after completion")
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	s := newTestSession(succeed())
	toStep(t, s, StepConfigureAPI)
	s.SetCredential("API Key", "abc")

	state, _ := s.Snapshot()
	state.Credentials["API Key"] = "tampered"
	state.SelectedProviderType.RequiredFields[0] = "tampered"

	again, _ := s.Snapshot()
	if again.Credentials["API Key"] != "abc" {
		t.Error("Snapshot must not alias session credentials")
	}
	if again.SelectedProviderType.RequiredFields[0] != "API Key" {
		t.Error("Snapshot must not alias descriptor fields")
	}
}
