package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"linkhub/integrator/internal/common"
	"linkhub/integrator/internal/constants"
	"linkhub/integrator/internal/logging"
	"linkhub/integrator/internal/services"
)

const maxBodyBytes = 1 << 20

// decodeBody reads a JSON request body into dst, answering 400 on failure
func decodeBody(w http.ResponseWriter, r *http.Request, initTime time.Time, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.RespondErrorCode(w, initTime, constants.ErrCodeInvalidRequest, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

// handleServiceError maps service errors to appropriate HTTP responses
func handleServiceError(w http.ResponseWriter, initTime time.Time, err error) {
	var svcErr *services.ServiceError
	if !errors.As(err, &svcErr) {
		logging.Error("Unhandled service error", "error", err.Error())
		common.RespondError(w, initTime, nil, "An unexpected error occurred", http.StatusInternalServerError)
		return
	}

	statusCode := http.StatusInternalServerError
	switch svcErr.Code {
	case constants.ErrCodeSessionNotFound, constants.ErrCodeProviderNotFound:
		statusCode = http.StatusNotFound
	case constants.ErrCodeInvalidTransition:
		statusCode = http.StatusConflict
	case constants.ErrCodeUnknownProviderType, constants.ErrCodeUnknownField, constants.ErrCodeInvalidRequest:
		statusCode = http.StatusBadRequest
	case constants.ErrCodeRateLimited:
		statusCode = http.StatusTooManyRequests
	}

	detail := ""
	if svcErr.Err != nil && statusCode != http.StatusInternalServerError {
		detail = svcErr.Err.Error()
	}
	if statusCode == http.StatusInternalServerError {
		logging.Error("Service failure", "code", svcErr.Code, "error", err.Error())
	}

	common.RespondErrorCode(w, initTime, svcErr.Code, detail, statusCode)
}
