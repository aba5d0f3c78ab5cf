package common

import (
	"encoding/json"
	"net/http"
	"time"

	"linkhub/integrator/internal/constants"
	"linkhub/integrator/internal/logging"
	"linkhub/integrator/internal/models/dtos"
)

// RespondSuccess sends a standardized JSON success response.
func RespondSuccess(w http.ResponseWriter, initTime time.Time, message string, data any, statusCode ...int) {
	code := http.StatusOK
	if len(statusCode) > 0 {
		code = statusCode[0]
	}

	response := dtos.APIResponse{
		Status:       string(constants.APIStatusOk),
		Message:      message,
		ResponseTime: GetResponseTime(initTime),
		Data:         data,
	}

	writeJSON(w, code, response)
}

// RespondError sends a standardized JSON error response.
func RespondError(w http.ResponseWriter, initTime time.Time, err error, message string, statusCode ...int) {
	code := http.StatusInternalServerError
	if len(statusCode) > 0 {
		code = statusCode[0]
	}

	msg := message
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}

	response := dtos.APIResponse{
		Status:       string(constants.APIStatusError),
		Message:      msg,
		ResponseTime: GetResponseTime(initTime),
	}

	writeJSON(w, code, response)
}

// RespondErrorCode sends an error response carrying a machine-readable code
// and the code's human-readable message. detail is appended when present.
func RespondErrorCode(w http.ResponseWriter, initTime time.Time, errCode string, detail string, statusCode int) {
	msg := constants.GetErrorMessage(errCode)
	if detail != "" {
		msg = msg + ": " + detail
	}

	response := dtos.APIResponse{
		Status:       string(constants.APIStatusError),
		Code:         errCode,
		Message:      msg,
		ResponseTime: GetResponseTime(initTime),
	}

	writeJSON(w, statusCode, response)
}

// writeJSON marshals data and writes it to the HTTP response.
func writeJSON(w http.ResponseWriter, code int, body dtos.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error("JSON encode failed", "error", err.Error())
	}
}
