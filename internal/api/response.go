package api

import (
	"linkhub/integrator/internal/models/dtos"
	"linkhub/integrator/internal/wizard"
)

// buildSessionResponse renders a session snapshot for the dashboard.
// Secret credentials are masked unless the user revealed them.
func buildSessionResponse(sess *wizard.Session, state wizard.State) dtos.WizardSessionResponse {
	resp := dtos.WizardSessionResponse{
		SessionID:            sess.ID,
		CurrentStep:          state.CurrentStep.Info(),
		Steps:                wizard.Steps,
		Progress:             int(state.CurrentStep) * 100 / len(wizard.Steps),
		SelectedProviderType: state.SelectedProviderType,
		Credentials:          []dtos.CredentialFieldView{},
		FieldMappings:        state.FieldMappings,
		CanonicalFields:      wizard.CanonicalFields,
		ConnectionTestStatus: state.ConnectionTestStatus,
		LastTestError:        state.LastTestError,
		Description:          state.Description,
		CanAdvance:           state.CanAdvance(),
		CreatedAt:            sess.CreatedAt,
	}

	if state.SelectedProviderType == nil {
		return resp
	}

	for _, field := range state.SelectedProviderType.RequiredFields {
		value := state.Credentials[field]
		secret := wizard.IsSecretField(field)
		visible := state.SecretVisibility[field]
		if secret && !visible {
			value = wizard.MaskCredential(field, value)
		}
		resp.Credentials = append(resp.Credentials, dtos.CredentialFieldView{
			Field:    field,
			Value:    value,
			IsSecret: secret,
			Visible:  !secret || visible,
		})
	}
	return resp
}
