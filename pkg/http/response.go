package http

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/PaingThuTa/booking-system-intern/pkg/errors"
)

type SuccessResponse struct {
	Data any `json:"data"`
}

// WriteJSON writes data with the given status. The returned error comes from
// encoding; the header is already sent by then, so callers can only log it.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

func WriteError(w http.ResponseWriter, err error) error {
	appErr := apperrors.AsAppError(err)
	status := appErr.StatusCode()
	if status == 0 {
		status = http.StatusInternalServerError
	}

	resp := appErr.Response()
	if appErr.Code == apperrors.CodeInternal {
		// causes of internal errors stay in the logs
		resp.Details = nil
	}
	return WriteJSON(w, status, resp)
}

func WriteSuccess(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusOK, SuccessResponse{Data: data})
}

func WriteCreated(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusCreated, SuccessResponse{Data: data})
}

func WriteNoContent(w http.ResponseWriter) error {
	w.WriteHeader(http.StatusNoContent)
	return nil
}
