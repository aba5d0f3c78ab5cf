package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"linkhub/integrator/internal/providers"
)

// Step is a position in the five-step setup flow
type Step int

const (
	StepSelectProvider Step = iota + 1
	StepConfigureAPI
	StepFieldMapping
	StepTestConnection
	StepActivate
)

// StepInfo carries the labels the dashboard shows for a step
type StepInfo struct {
	Step        Step   `json:"step"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Steps lists every step in order
var Steps = []StepInfo{
	{StepSelectProvider, "Select Provider", "Choose the integration type"},
	{StepConfigureAPI, "Configure API", "Enter authentication details"},
	{StepFieldMapping, "Field Mapping", "Map data fields"},
	{StepTestConnection, "Test Connection", "Verify the integration"},
	{StepActivate, "Activate", "Complete setup"},
}

// Info returns the labels for the step
func (s Step) Info() StepInfo {
	if s < StepSelectProvider || s > StepActivate {
		return StepInfo{Step: s}
	}
	return Steps[s-1]
}

func (s Step) String() string {
	return s.Info().Title
}

// TestStatus is the state of the step-4 connection test
type TestStatus string

const (
	TestIdle    TestStatus = "idle"
	TestTesting TestStatus = "testing"
	TestSuccess TestStatus = "success"
	TestError   TestStatus = "error"
)

// StatusActive is the status stamped on every finished provider record
const StatusActive = "active"

// State is a point-in-time copy of a session's wizard state
type State struct {
	CurrentStep          Step                    `json:"current_step"`
	SelectedProviderType *ProviderTypeDescriptor `json:"selected_provider_type,omitempty"`
	Credentials          map[string]string       `json:"credentials"`
	FieldMappings        map[string]string       `json:"field_mappings"`
	ConnectionTestStatus TestStatus              `json:"connection_test_status"`
	SecretVisibility     map[string]bool         `json:"secret_visibility"`
	Description          string                  `json:"description,omitempty"`
	LastTestError        string                  `json:"last_test_error,omitempty"`
}

// FinishedProvider is the record handed to the provider registry on completion
type FinishedProvider struct {
	ProviderTypeID string            `json:"provider_type_id"`
	DisplayName    string            `json:"display_name"`
	Category       string            `json:"category"`
	Credentials    map[string]string `json:"credentials"`
	FieldMappings  map[string]string `json:"field_mappings"`
	Description    string            `json:"description,omitempty"`
	Status         string            `json:"status"`
	CompletedAt    time.Time         `json:"completed_at"`
}

// TestObserver is notified whenever a connection test settles and its
// result is applied to the session
type TestObserver func(sessionID string, status TestStatus, detail string, elapsed time.Duration)

// Options configure a Session
type Options struct {
	// Tester validates credentials at step 4. Required.
	Tester providers.CredentialTester

	// TestTimeout bounds a single connection test. Zero means no timeout.
	TestTimeout time.Duration

	// OnTestResolved is optional
	OnTestResolved TestObserver

	// Context is the parent of every test call. Defaults to context.Background().
	Context context.Context
}

// Session owns one wizard run from open to cancel or complete
type Session struct {
	ID        string
	CreatedAt time.Time

	mu     sync.Mutex
	state  State
	closed bool

	// generation invalidates in-flight test results when the inputs they
	// were computed from change or the session is torn down
	generation uint64
	cancelTest context.CancelFunc
	testDone   chan struct{}

	opts Options
}

// NewSession opens a wizard session at step 1 with an idle test status
func NewSession(id string, opts Options) *Session {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	return &Session{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		state:     freshState(),
		opts:      opts,
	}
}

func freshState() State {
	return State{
		CurrentStep:          StepSelectProvider,
		Credentials:          map[string]string{},
		FieldMappings:        map[string]string{},
		ConnectionTestStatus: TestIdle,
		SecretVisibility:     map[string]bool{},
	}
}

// Snapshot returns a deep copy of the current state
func (s *Session) Snapshot() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return State{}, ErrSessionClosed
	}
	return s.copyState(), nil
}

// Closed reports whether the session has been cancelled or completed
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) copyState() State {
	out := s.state
	if s.state.SelectedProviderType != nil {
		d := *s.state.SelectedProviderType
		d.RequiredFields = append([]string(nil), d.RequiredFields...)
		out.SelectedProviderType = &d
	}
	out.Credentials = copyStrings(s.state.Credentials)
	out.FieldMappings = copyStrings(s.state.FieldMappings)
	out.SecretVisibility = make(map[string]bool, len(s.state.SecretVisibility))
	for k, v := range s.state.SecretVisibility {
		out.SecretVisibility[k] = v
	}
	return out
}

func copyStrings(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// requireStep must be called with s.mu held
func (s *Session) requireStep(step Step, op string) error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.state.CurrentStep != step {
		return fmt.Errorf("%s requires step %d (%s), session is at step %d: %w",
			op, step, step, s.state.CurrentStep, ErrInvalidTransition)
	}
	return nil
}

// invalidateTest drops any in-flight test. Must be called with s.mu held.
func (s *Session) invalidateTest() {
	s.generation++
	if s.cancelTest != nil {
		s.cancelTest()
		s.cancelTest = nil
	}
	s.testDone = nil
}

// SelectProviderType picks the provider type at step 1. Picking a different
// type clears everything collected for the previous one.
func (s *Session) SelectProviderType(d ProviderTypeDescriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireStep(StepSelectProvider, "select provider type"); err != nil {
		return err
	}

	if s.state.SelectedProviderType != nil && s.state.SelectedProviderType.ID == d.ID {
		return nil
	}

	d.RequiredFields = append([]string(nil), d.RequiredFields...)
	s.invalidateTest()
	s.state.SelectedProviderType = &d
	s.state.Credentials = map[string]string{}
	s.state.FieldMappings = map[string]string{}
	s.state.SecretVisibility = map[string]bool{}
	s.state.ConnectionTestStatus = TestIdle
	s.state.LastTestError = ""
	return nil
}

// SetCredential records a credential value at step 2
func (s *Session) SetCredential(field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireStep(StepConfigureAPI, "set credential"); err != nil {
		return err
	}
	if !s.state.SelectedProviderType.Requires(field) {
		return fmt.Errorf("%q is not a field of %s: %w", field, s.state.SelectedProviderType.DisplayName, ErrUnknownField)
	}

	if s.state.Credentials[field] == value {
		return nil
	}
	s.state.Credentials[field] = value

	// A previous result no longer describes these credentials
	s.invalidateTest()
	s.state.ConnectionTestStatus = TestIdle
	s.state.LastTestError = ""
	return nil
}

// ToggleSecretVisibility flips whether a credential is shown in clear text
func (s *Session) ToggleSecretVisibility(field string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireStep(StepConfigureAPI, "toggle secret visibility"); err != nil {
		return false, err
	}
	if !s.state.SelectedProviderType.Requires(field) {
		return false, fmt.Errorf("%q: %w", field, ErrUnknownField)
	}
	s.state.SecretVisibility[field] = !s.state.SecretVisibility[field]
	return s.state.SecretVisibility[field], nil
}

// SetDescription stores the optional integration description entered at step 2
func (s *Session) SetDescription(description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireStep(StepConfigureAPI, "set description"); err != nil {
		return err
	}
	s.state.Description = description
	return nil
}

// SetFieldMapping maps a canonical LinkHub field to a provider field at step 3
func (s *Session) SetFieldMapping(canonicalField, providerField string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireStep(StepFieldMapping, "set field mapping"); err != nil {
		return err
	}
	if !IsCanonicalField(canonicalField) {
		return fmt.Errorf("%q is not a canonical field: %w", canonicalField, ErrUnknownField)
	}
	if providerField == "" {
		delete(s.state.FieldMappings, canonicalField)
		return nil
	}
	s.state.FieldMappings[canonicalField] = providerField
	return nil
}

// CanAdvance reports whether the current step's gate passes
func (st State) CanAdvance() bool {
	switch st.CurrentStep {
	case StepSelectProvider:
		return st.SelectedProviderType != nil
	case StepConfigureAPI, StepFieldMapping:
		return true
	case StepTestConnection:
		return st.ConnectionTestStatus == TestSuccess
	default:
		return false
	}
}

// gatePasses must be called with s.mu held
func (s *Session) gatePasses() bool {
	return s.state.CanAdvance()
}

// Advance moves one step forward if the current step's gate passes
func (s *Session) Advance() (Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrSessionClosed
	}
	if !s.gatePasses() {
		return s.state.CurrentStep, fmt.Errorf("cannot leave step %d (%s): %w",
			s.state.CurrentStep, s.state.CurrentStep, ErrInvalidTransition)
	}
	s.state.CurrentStep++
	return s.state.CurrentStep, nil
}

// Retreat moves one step back. At step 1 it does nothing.
func (s *Session) Retreat() (Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrSessionClosed
	}
	if s.state.CurrentStep > StepSelectProvider {
		s.state.CurrentStep--
	}
	return s.state.CurrentStep, nil
}

// TestConnection starts the credential test at step 4 and returns without
// waiting for it. The returned channel is closed once the test settles.
// started is false when a test is already in flight (its channel is
// returned) or the connection was already verified.
func (s *Session) TestConnection() (done <-chan struct{}, started bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireStep(StepTestConnection, "test connection"); err != nil {
		return nil, false, err
	}

	switch s.state.ConnectionTestStatus {
	case TestTesting:
		return s.testDone, false, nil
	case TestSuccess:
		closed := make(chan struct{})
		close(closed)
		return closed, false, nil
	}

	if s.opts.Tester == nil {
		return nil, false, errors.New("no credential tester configured")
	}

	var ctx context.Context
	var cancel context.CancelFunc
	if s.opts.TestTimeout > 0 {
		ctx, cancel = context.WithTimeout(s.opts.Context, s.opts.TestTimeout)
	} else {
		ctx, cancel = context.WithCancel(s.opts.Context)
	}

	ch := make(chan struct{})
	s.cancelTest = cancel
	s.testDone = ch
	s.state.ConnectionTestStatus = TestTesting
	s.state.LastTestError = ""

	gen := s.generation
	req := providers.TestRequest{
		ProviderTypeID: s.state.SelectedProviderType.ID,
		Credentials:    copyStrings(s.state.Credentials),
	}

	go s.runTest(ctx, cancel, gen, req, ch)
	return ch, true, nil
}

// RetryTest runs the connection test again after a failure
func (s *Session) RetryTest() (<-chan struct{}, bool, error) {
	return s.TestConnection()
}

func (s *Session) runTest(ctx context.Context, cancel context.CancelFunc, gen uint64, req providers.TestRequest, done chan struct{}) {
	defer close(done)
	defer cancel()

	start := time.Now()
	result, err := s.opts.Tester.TestCredentials(ctx, req)
	elapsed := time.Since(start)

	status := TestSuccess
	detail := ""
	switch {
	case err != nil:
		status = TestError
		detail = fmt.Errorf("%w: %v", ErrConnectionTestFailed, err).Error()
	case result == nil || !result.Success:
		status = TestError
		detail = ErrConnectionTestFailed.Error()
		if result != nil && result.Error != "" {
			detail = fmt.Sprintf("%s: %s", ErrConnectionTestFailed, result.Error)
		}
	}

	s.mu.Lock()
	if s.closed || s.generation != gen {
		s.mu.Unlock()
		return
	}
	s.state.ConnectionTestStatus = status
	s.state.LastTestError = detail
	s.cancelTest = nil
	s.testDone = nil
	s.mu.Unlock()

	if s.opts.OnTestResolved != nil {
		s.opts.OnTestResolved(s.ID, status, detail, elapsed)
	}
}

// Complete finishes the wizard at step 5. emit receives the finished record;
// the session only ends when emit succeeds, so a failed hand-off can be retried.
func (s *Session) Complete(emit func(FinishedProvider) error) (*FinishedProvider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireStep(StepActivate, "complete"); err != nil {
		return nil, err
	}
	if s.state.ConnectionTestStatus != TestSuccess || s.state.SelectedProviderType == nil {
		return nil, fmt.Errorf("complete requires a successful connection test: %w", ErrInvalidTransition)
	}

	d := s.state.SelectedProviderType
	credentials := make(map[string]string, len(s.state.Credentials))
	for k, v := range s.state.Credentials {
		if d.Requires(k) {
			credentials[k] = v
		}
	}
	record := FinishedProvider{
		ProviderTypeID: d.ID,
		DisplayName:    d.DisplayName,
		Category:       string(d.Category),
		Credentials:    credentials,
		FieldMappings:  copyStrings(s.state.FieldMappings),
		Description:    s.state.Description,
		Status:         StatusActive,
		CompletedAt:    time.Now().UTC(),
	}

	if emit != nil {
		if err := emit(record); err != nil {
			return nil, err
		}
	}

	s.close()
	return &record, nil
}

// Cancel discards the session. A test still in flight is cancelled and its
// result dropped.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.close()
	return nil
}

// close must be called with s.mu held
func (s *Session) close() {
	s.invalidateTest()
	s.closed = true
	s.state = State{}
}
