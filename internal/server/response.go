package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/koustreak/s3gate/internal/errs"
	"github.com/koustreak/s3gate/internal/logger"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// MessageResponse is the JSON body of replies that carry no data.
type MessageResponse struct {
	Message string `json:"message"`
	Key     string `json:"key,omitempty"`
}

// WriteJSON writes data as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, code int, errCode, message, field string) {
	_ = WriteJSON(w, code, ErrorResponse{
		Error:   errCode,
		Message: message,
		Field:   field,
	})
}

// statusOf maps an error kind to the HTTP status returned to the caller.
func statusOf(kind errs.ErrKind) int {
	switch kind {
	case errs.ErrKindConfiguration, errs.ErrKindInvalidInput:
		return http.StatusBadRequest
	case errs.ErrKindAuthentication:
		return http.StatusUnauthorized
	case errs.ErrKindNotFound:
		return http.StatusNotFound
	case errs.ErrKindNotInitialized:
		return http.StatusConflict
	case errs.ErrKindConnectivity:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// HandleError writes the response for err. Only the message of the
// outermost *errs.Error is returned; the cause is logged, never sent.
func HandleError(log *logger.Logger, w http.ResponseWriter, err error) {
	kind := errs.KindOf(err)
	code := statusOf(kind)

	message := "internal server error"
	var e *errs.Error
	if errors.As(err, &e) {
		message = e.Message
	}

	if code >= http.StatusInternalServerError {
		log.ErrorWith("request failed", err, map[string]interface{}{"kind": kind.String()})
	} else {
		log.DebugWith("request rejected", map[string]interface{}{"kind": kind.String(), "message": message})
	}

	WriteError(w, code, kind.String(), message, errs.FieldOf(err))
}
