package services

import (
	"context"
	"time"

	"linkhub/integrator/internal/constants"
	"linkhub/integrator/internal/logging"
	"linkhub/integrator/internal/metrics"
	"linkhub/integrator/internal/models"
	"linkhub/integrator/internal/providers"
	"linkhub/integrator/internal/wizard"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// ProviderActivator receives finished provider records
type ProviderActivator interface {
	Activate(ctx context.Context, sessionID string, record wizard.FinishedProvider) (*models.ConnectedProvider, error)
}

// WizardConfig tunes session lifetime and connection tests
type WizardConfig struct {
	SessionTTL  time.Duration
	TestTimeout time.Duration
}

// WizardService hosts setup wizard sessions keyed by session ID.
// Sessions idle longer than SessionTTL are evicted and behave as cancelled.
type WizardService struct {
	ctx       context.Context
	sessions  *cache.Cache
	directory *ProviderDirectoryService
	tester    providers.CredentialTester
	activator ProviderActivator
	metrics   *metrics.MetricsRegistry
	cfg       WizardConfig
}

// NewWizardService creates the service. ctx bounds every connection test
// started by its sessions; cancelling it aborts tests still in flight.
func NewWizardService(
	ctx context.Context,
	directory *ProviderDirectoryService,
	tester providers.CredentialTester,
	activator ProviderActivator,
	metricsReg *metrics.MetricsRegistry,
	cfg WizardConfig,
) *WizardService {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}

	s := &WizardService{
		ctx:       ctx,
		sessions:  cache.New(cfg.SessionTTL, cfg.SessionTTL/2),
		directory: directory,
		tester:    tester,
		activator: activator,
		metrics:   metricsReg,
		cfg:       cfg,
	}
	s.sessions.OnEvicted(s.onEvicted)
	return s
}

// onEvicted runs for every session leaving the store, by expiry or Delete
func (s *WizardService) onEvicted(id string, v interface{}) {
	s.metrics.WizardSessionsOpen.Dec()

	sess, ok := v.(*wizard.Session)
	if !ok {
		return
	}
	// Cancel only succeeds when the session was still open, i.e. it expired
	if err := sess.Cancel(); err == nil {
		s.metrics.WizardSessionsTotal.WithLabelValues("expired").Inc()
		logging.Info("Wizard session expired", "session_id", id)
	}
}

// Open creates a new session at step 1
func (s *WizardService) Open() *wizard.Session {
	id := uuid.NewString()
	sess := wizard.NewSession(id, wizard.Options{
		Tester:         s.tester,
		TestTimeout:    s.cfg.TestTimeout,
		OnTestResolved: s.onTestResolved,
		Context:        s.ctx,
	})

	s.sessions.Set(id, sess, cache.DefaultExpiration)
	s.metrics.WizardSessionsOpen.Inc()
	s.metrics.WizardSessionsTotal.WithLabelValues("opened").Inc()
	logging.Info("Wizard session opened", "session_id", id)
	return sess
}

// Get returns an open session and extends its lifetime
func (s *WizardService) Get(id string) (*wizard.Session, error) {
	v, found := s.sessions.Get(id)
	if !found {
		return nil, newServiceError(constants.ErrCodeSessionNotFound, nil)
	}
	sess := v.(*wizard.Session)
	if sess.Closed() {
		return nil, newServiceError(constants.ErrCodeSessionNotFound, nil)
	}

	// Replace fails once Cancel or Complete removed the session, so a closed
	// session is never stored again
	if err := s.sessions.Replace(id, sess, cache.DefaultExpiration); err != nil {
		return nil, newServiceError(constants.ErrCodeSessionNotFound, nil)
	}
	return sess, nil
}

// Snapshot returns the session's current state
func (s *WizardService) Snapshot(id string) (*wizard.Session, wizard.State, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, wizard.State{}, err
	}
	state, err := sess.Snapshot()
	return sess, state, classify(err)
}

// SelectProviderType picks a provider type from the directory
func (s *WizardService) SelectProviderType(id, providerTypeID string) error {
	sess, err := s.Get(id)
	if err != nil {
		return err
	}

	descriptor, ok := s.directory.Lookup(providerTypeID)
	if !ok {
		return newServiceError(constants.ErrCodeUnknownProviderType, nil)
	}

	return classify(sess.SelectProviderType(descriptor))
}

func (s *WizardService) SetCredential(id, field, value string) error {
	sess, err := s.Get(id)
	if err != nil {
		return err
	}
	return classify(sess.SetCredential(field, value))
}

func (s *WizardService) ToggleSecretVisibility(id, field string) (bool, error) {
	sess, err := s.Get(id)
	if err != nil {
		return false, err
	}
	visible, err := sess.ToggleSecretVisibility(field)
	return visible, classify(err)
}

func (s *WizardService) SetDescription(id, description string) error {
	sess, err := s.Get(id)
	if err != nil {
		return err
	}
	return classify(sess.SetDescription(description))
}

func (s *WizardService) SetFieldMapping(id, canonicalField, providerField string) error {
	sess, err := s.Get(id)
	if err != nil {
		return err
	}
	return classify(sess.SetFieldMapping(canonicalField, providerField))
}

func (s *WizardService) Advance(id string) (wizard.Step, error) {
	sess, err := s.Get(id)
	if err != nil {
		return 0, err
	}
	step, err := sess.Advance()
	return step, classify(err)
}

func (s *WizardService) Retreat(id string) (wizard.Step, error) {
	sess, err := s.Get(id)
	if err != nil {
		return 0, err
	}
	step, err := sess.Retreat()
	return step, classify(err)
}

// TestConnection starts the step-4 credential test without waiting for it
func (s *WizardService) TestConnection(id string) (<-chan struct{}, bool, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, false, err
	}

	done, started, err := sess.TestConnection()
	if err != nil {
		return nil, false, classify(err)
	}
	if started {
		logging.Info("Connection test started", "session_id", id)
	}
	return done, started, nil
}

func (s *WizardService) onTestResolved(sessionID string, status wizard.TestStatus, detail string, elapsed time.Duration) {
	providerType := "unknown"
	if v, found := s.sessions.Get(sessionID); found {
		if state, err := v.(*wizard.Session).Snapshot(); err == nil && state.SelectedProviderType != nil {
			providerType = state.SelectedProviderType.ID
		}
	}

	s.metrics.ConnectionTestsTotal.WithLabelValues(providerType, string(status)).Inc()
	s.metrics.ConnectionTestDuration.Observe(elapsed.Seconds())

	log := logging.WithSession(sessionID, providerType)
	if status == wizard.TestSuccess {
		log.Infow("Connection test succeeded", "duration_ms", elapsed.Milliseconds())
	} else {
		log.Warnw("Connection test failed", "duration_ms", elapsed.Milliseconds(), "detail", detail)
	}
}

// Complete finishes the session and hands the record to the registry
func (s *WizardService) Complete(ctx context.Context, id string) (*models.ConnectedProvider, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	var provider *models.ConnectedProvider
	_, err = sess.Complete(func(record wizard.FinishedProvider) error {
		p, err := s.activator.Activate(ctx, id, record)
		if err != nil {
			return err
		}
		provider = p
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}

	s.sessions.Delete(id)
	s.metrics.WizardSessionsTotal.WithLabelValues("completed").Inc()
	logging.Info("Wizard session completed",
		"session_id", id,
		"provider_id", provider.ID,
		"provider_type", provider.ProviderTypeID,
	)
	return provider, nil
}

// Cancel discards the session
func (s *WizardService) Cancel(id string) error {
	sess, err := s.Get(id)
	if err != nil {
		return err
	}
	if err := sess.Cancel(); err != nil {
		return classify(err)
	}

	s.sessions.Delete(id)
	s.metrics.WizardSessionsTotal.WithLabelValues("cancelled").Inc()
	logging.Info("Wizard session cancelled", "session_id", id)
	return nil
}

// OpenSessions returns the number of sessions currently stored
func (s *WizardService) OpenSessions() int {
	return s.sessions.ItemCount()
}
