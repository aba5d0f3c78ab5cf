package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"linkhub/integrator/internal/common"
	"linkhub/integrator/internal/constants"
	"linkhub/integrator/internal/models"
	"linkhub/integrator/internal/models/dtos"
	"linkhub/integrator/internal/services"
	"linkhub/integrator/internal/wizard"

	"github.com/go-chi/chi/v5"
)

// WizardSessions is the wizard service surface used by the handlers
type WizardSessions interface {
	Open() *wizard.Session
	Snapshot(id string) (*wizard.Session, wizard.State, error)
	SelectProviderType(id, providerTypeID string) error
	SetCredential(id, field, value string) error
	ToggleSecretVisibility(id, field string) (bool, error)
	SetDescription(id, description string) error
	SetFieldMapping(id, canonicalField, providerField string) error
	Advance(id string) (wizard.Step, error)
	Retreat(id string) (wizard.Step, error)
	TestConnection(id string) (<-chan struct{}, bool, error)
	Complete(ctx context.Context, id string) (*models.ConnectedProvider, error)
	Cancel(id string) error
}

// ProviderTypesHandler handles GET /api/v1/provider-types
func ProviderTypesHandler(directory *services.ProviderDirectoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		common.RespondSuccess(w, initTime, "Provider types fetched", directory.List())
	}
}

// respondSession writes the current state of a session
func respondSession(w http.ResponseWriter, initTime time.Time, svc WizardSessions, id, message string, statusCode int) {
	sess, state, err := svc.Snapshot(id)
	if err != nil {
		handleServiceError(w, initTime, err)
		return
	}
	common.RespondSuccess(w, initTime, message, buildSessionResponse(sess, state), statusCode)
}

// OpenSessionHandler handles POST /api/v1/wizard/sessions
func OpenSessionHandler(svc WizardSessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		sess := svc.Open()
		respondSession(w, initTime, svc, sess.ID, "Setup session opened", http.StatusCreated)
	}
}

// GetSessionHandler handles GET /api/v1/wizard/sessions/{id}
func GetSessionHandler(svc WizardSessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		respondSession(w, initTime, svc, chi.URLParam(r, "id"), "Setup session fetched", http.StatusOK)
	}
}

// SelectProviderTypeHandler handles PUT /api/v1/wizard/sessions/{id}/provider
func SelectProviderTypeHandler(svc WizardSessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		id := chi.URLParam(r, "id")

		var req dtos.SelectProviderTypeReq
		if !decodeBody(w, r, initTime, &req) {
			return
		}
		if strings.TrimSpace(req.ProviderTypeID) == "" {
			common.RespondErrorCode(w, initTime, constants.ErrCodeInvalidRequest, "provider_type_id is required", http.StatusBadRequest)
			return
		}

		if err := svc.SelectProviderType(id, req.ProviderTypeID); err != nil {
			handleServiceError(w, initTime, err)
			return
		}
		respondSession(w, initTime, svc, id, "Provider type selected", http.StatusOK)
	}
}

// SetCredentialHandler handles PUT /api/v1/wizard/sessions/{id}/credentials
func SetCredentialHandler(svc WizardSessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		id := chi.URLParam(r, "id")

		var req dtos.SetCredentialReq
		if !decodeBody(w, r, initTime, &req) {
			return
		}
		if req.Field == "" {
			common.RespondErrorCode(w, initTime, constants.ErrCodeInvalidRequest, "field is required", http.StatusBadRequest)
			return
		}

		if err := svc.SetCredential(id, req.Field, req.Value); err != nil {
			handleServiceError(w, initTime, err)
			return
		}
		respondSession(w, initTime, svc, id, "Credential saved", http.StatusOK)
	}
}

// ToggleSecretHandler handles POST /api/v1/wizard/sessions/{id}/secrets/toggle
func ToggleSecretHandler(svc WizardSessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		id := chi.URLParam(r, "id")

		var req dtos.ToggleSecretReq
		if !decodeBody(w, r, initTime, &req) {
			return
		}

		if _, err := svc.ToggleSecretVisibility(id, req.Field); err != nil {
			handleServiceError(w, initTime, err)
			return
		}
		respondSession(w, initTime, svc, id, "Secret visibility toggled", http.StatusOK)
	}
}

// SetDescriptionHandler handles PUT /api/v1/wizard/sessions/{id}/description
func SetDescriptionHandler(svc WizardSessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		id := chi.URLParam(r, "id")

		var req dtos.SetDescriptionReq
		if !decodeBody(w, r, initTime, &req) {
			return
		}

		if err := svc.SetDescription(id, req.Description); err != nil {
			handleServiceError(w, initTime, err)
			return
		}
		respondSession(w, initTime, svc, id, "Description saved", http.StatusOK)
	}
}

// SetFieldMappingHandler handles PUT /api/v1/wizard/sessions/{id}/mappings
func SetFieldMappingHandler(svc WizardSessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		id := chi.URLParam(r, "id")

		var req dtos.SetFieldMappingReq
		if !decodeBody(w, r, initTime, &req) {
			return
		}

		if err := svc.SetFieldMapping(id, req.CanonicalField, req.ProviderField); err != nil {
			handleServiceError(w, initTime, err)
			return
		}
		respondSession(w, initTime, svc, id, "Field mapping saved", http.StatusOK)
	}
}

// AdvanceHandler handles POST /api/v1/wizard/sessions/{id}/advance
func AdvanceHandler(svc WizardSessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		id := chi.URLParam(r, "id")

		if _, err := svc.Advance(id); err != nil {
			handleServiceError(w, initTime, err)
			return
		}
		respondSession(w, initTime, svc, id, "Moved to next step", http.StatusOK)
	}
}

// RetreatHandler handles POST /api/v1/wizard/sessions/{id}/retreat
func RetreatHandler(svc WizardSessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		id := chi.URLParam(r, "id")

		if _, err := svc.Retreat(id); err != nil {
			handleServiceError(w, initTime, err)
			return
		}
		respondSession(w, initTime, svc, id, "Moved to previous step", http.StatusOK)
	}
}

// TestConnectionHandler handles POST /api/v1/wizard/sessions/{id}/test.
// The test runs in the background; poll the session for its result.
func TestConnectionHandler(svc WizardSessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		id := chi.URLParam(r, "id")

		_, started, err := svc.TestConnection(id)
		if err != nil {
			handleServiceError(w, initTime, err)
			return
		}

		_, state, err := svc.Snapshot(id)
		if err != nil {
			handleServiceError(w, initTime, err)
			return
		}

		message := "Connection test started"
		if !started {
			message = "Connection test already " + string(state.ConnectionTestStatus)
		}
		common.RespondSuccess(w, initTime, message, dtos.TestStartedResponse{
			Started:              started,
			ConnectionTestStatus: state.ConnectionTestStatus,
		}, http.StatusAccepted)
	}
}

// CompleteSessionHandler handles POST /api/v1/wizard/sessions/{id}/complete
func CompleteSessionHandler(svc WizardSessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		provider, err := svc.Complete(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Provider activated", services.ToProviderResponse(provider), http.StatusCreated)
	}
}

// CancelSessionHandler handles DELETE /api/v1/wizard/sessions/{id}
func CancelSessionHandler(svc WizardSessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		if err := svc.Cancel(chi.URLParam(r, "id")); err != nil {
			handleServiceError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Setup session cancelled", nil)
	}
}
