package services

import (
	"errors"
	"fmt"

	"linkhub/integrator/internal/constants"
	"linkhub/integrator/internal/db/repositories"
	"linkhub/integrator/internal/wizard"
)

// ServiceError carries an error code from constants along with the cause
type ServiceError struct {
	Code    string
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func newServiceError(code string, err error) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: constants.GetErrorMessage(code),
		Err:     err,
	}
}

// classify wraps domain and repository errors in a ServiceError
func classify(err error) error {
	if err == nil {
		return nil
	}

	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return err
	}

	switch {
	case errors.Is(err, wizard.ErrSessionClosed):
		return newServiceError(constants.ErrCodeSessionNotFound, err)
	case errors.Is(err, wizard.ErrInvalidTransition):
		return newServiceError(constants.ErrCodeInvalidTransition, err)
	case errors.Is(err, wizard.ErrUnknownField):
		return newServiceError(constants.ErrCodeUnknownField, err)
	case errors.Is(err, repositories.ErrProviderNotFound):
		return newServiceError(constants.ErrCodeProviderNotFound, err)
	default:
		return newServiceError(constants.ErrCodeStorageError, err)
	}
}
