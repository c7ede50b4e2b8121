/*
Package resp provides helpers for constructing standardized HTTP JSON responses.

Every REST response uses the same envelope: a success flag, a message, an
optional data payload, and a business error code on failure.
*/
package resp

import (
	"encoding/json"
	"net/http"

	"communityhub/internal/pkg/errs"
	"communityhub/internal/pkg/logx"
)

// JSONResponse is the envelope returned by every REST endpoint.
type JSONResponse struct {
	// Success reports whether the request was handled without error.
	Success bool `json:"success"`

	// Message is the client-friendly status description or error message.
	Message string `json:"message"`

	// Code is the business error code on failure (see the errs package); 0 on success.
	Code int `json:"code,omitempty"`

	// Data is the optional response payload.
	Data any `json:"data,omitempty"`
}

// RespondJSON sets the Content-Type and writes the JSON payload with the given status.
func RespondJSON(w http.ResponseWriter, r *http.Request, httpStatus int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	response, err := json.Marshal(payload)
	if err != nil {
		logx.Error(err, "Error encoding JSON response", "http_status", httpStatus)
		http.Error(w, "Error encoding JSON response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(httpStatus)
	w.Write(response)
}

// RespondSuccess sends a successful response (HTTP 200 OK) wrapping the given data.
func RespondSuccess(w http.ResponseWriter, r *http.Request, data any) {
	RespondJSON(w, r, http.StatusOK, JSONResponse{
		Success: true,
		Message: "success",
		Data:    data,
	})
}

// RespondCreated sends a successful creation response (HTTP 201).
func RespondCreated(w http.ResponseWriter, r *http.Request, data any) {
	RespondJSON(w, r, http.StatusCreated, JSONResponse{
		Success: true,
		Message: "created",
		Data:    data,
	})
}

// RespondError sends a response carrying the custom error's code and message.
func RespondError(w http.ResponseWriter, r *http.Request, customErr *errs.CustomError) {
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}

	RespondJSON(w, r, customErr.Status, JSONResponse{
		Success: false,
		Message: customErr.Message,
		Code:    customErr.Code,
	})
}
