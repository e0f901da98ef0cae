package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/feather-classroom/feather/feather"
	"github.com/feather-classroom/feather/storage"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func statusFor(err error) int {
	var ve *validationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case storage.NotFound(err),
		errors.Is(err, feather.ErrParticipantNotFound),
		errors.Is(err, feather.ErrQuestionNotFound):
		return http.StatusNotFound
	case errors.Is(err, feather.ErrNotTeacher),
		errors.Is(err, feather.ErrNotStudent):
		return http.StatusForbidden
	case errors.Is(err, feather.ErrSessionEnded),
		errors.Is(err, feather.ErrSessionNotStarted):
		return http.StatusConflict
	case errors.Is(err, feather.ErrImageTooLarge),
		errors.As(err, new(*http.MaxBytesError)):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, feather.ErrInvalidQuestion),
		errors.Is(err, feather.ErrInvalidStrokes),
		errors.Is(err, feather.ErrInvalidParticipant),
		errors.Is(err, feather.ErrInvalidImage):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(rw http.ResponseWriter, req *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}
	var ve *validationError
	if errors.As(err, &ve) {
		resp.Fields = ve.fields
	}
	if status == http.StatusInternalServerError {
		logError(req, "Request failed", err)
		resp.Error = http.StatusText(status)
	}
	writeJSON(rw, status, resp)
}

func writeJSON(rw http.ResponseWriter, status int, v interface{}) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	if err := json.NewEncoder(rw).Encode(v); err != nil {
		log.Println(err)
	}
}

func logError(req *http.Request, msg string, err error) {
	log.WithFields(log.Fields{"method": req.Method, "path": req.URL.Path}).Errorf("%s: %v", msg, err)
}
